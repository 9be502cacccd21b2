// Package zap adapts a *zap.Logger to dictcache.Logger.
package zap

import (
	"sort"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/dictcache"
)

var _ dictcache.Logger = ZapLogger{}

type ZapLogger struct{ L *zap.Logger }

// New returns an adapter logging under the "dictcache" name.
func New(l *zap.Logger) ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return ZapLogger{L: l.Named("dictcache")}
}

func (z ZapLogger) Debug(msg string, f dictcache.Fields) { z.L.Debug(msg, zf(f)...) }
func (z ZapLogger) Info(msg string, f dictcache.Fields)  { z.L.Info(msg, zf(f)...) }
func (z ZapLogger) Warn(msg string, f dictcache.Fields)  { z.L.Warn(msg, zf(f)...) }
func (z ZapLogger) Error(msg string, f dictcache.Fields) { z.L.Error(msg, zf(f)...) }

// zf emits fields in key order; errors keep their type via zap.NamedError.
func zf(f dictcache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	ks := make([]string, 0, len(f))
	for k := range f {
		ks = append(ks, k)
	}
	sort.Strings(ks)

	out := make([]zap.Field, 0, len(f))
	for _, k := range ks {
		switch v := f[k].(type) {
		case error:
			out = append(out, zap.NamedError(k, v))
		default:
			out = append(out, zap.Any(k, v))
		}
	}
	return out
}
