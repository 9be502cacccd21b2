// Package logrus adapts a logrus entry to dictcache.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/dictcache"
)

var _ dictcache.Logger = LogrusLogger{}

type LogrusLogger struct{ E *logrus.Entry }

// New wraps l, tagging every line with component=dictcache.
func New(l *logrus.Logger) LogrusLogger {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return LogrusLogger{E: l.WithField("component", "dictcache")}
}

func (l LogrusLogger) Debug(msg string, f dictcache.Fields) { l.with(f).Debug(msg) }
func (l LogrusLogger) Info(msg string, f dictcache.Fields)  { l.with(f).Info(msg) }
func (l LogrusLogger) Warn(msg string, f dictcache.Fields)  { l.with(f).Warn(msg) }
func (l LogrusLogger) Error(msg string, f dictcache.Fields) { l.with(f).Error(msg) }

// with moves an "err" field under logrus.ErrorKey.
func (l LogrusLogger) with(f dictcache.Fields) *logrus.Entry {
	if len(f) == 0 {
		return l.E
	}
	out := make(logrus.Fields, len(f))
	for k, v := range f {
		if err, ok := v.(error); ok && k == "err" {
			out[logrus.ErrorKey] = err
			continue
		}
		out[k] = v
	}
	return l.E.WithFields(out)
}
