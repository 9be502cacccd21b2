package main

import (
	"context"
	"errors"
	"fmt"
	stdslog "log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/unkn0wn-root/dictcache"
	c "github.com/unkn0wn-root/dictcache/codec"
	"github.com/unkn0wn-root/dictcache/codec/intervalpb"
	"github.com/unkn0wn-root/dictcache/config"
	asynchook "github.com/unkn0wn-root/dictcache/hooks/async"
	"github.com/unkn0wn-root/dictcache/hooks/prom"
	logruslog "github.com/unkn0wn-root/dictcache/log/logrus"
	slogadapter "github.com/unkn0wn-root/dictcache/log/slog"
	zaplog "github.com/unkn0wn-root/dictcache/log/zap"
	pr "github.com/unkn0wn-root/dictcache/provider"
	bigcacheprovider "github.com/unkn0wn-root/dictcache/provider/bigcache"
	redisprovider "github.com/unkn0wn-root/dictcache/provider/redis"
	ristrettoprovider "github.com/unkn0wn-root/dictcache/provider/ristretto"
	"github.com/unkn0wn-root/dictcache/repository"
	"github.com/unkn0wn-root/dictcache/sloghooks"
	"github.com/unkn0wn-root/dictcache/tracing"
)

type app struct {
	svc dictcache.Service
	// closers run in reverse on Close; the store is among them.
	closers []func(context.Context) error
}

func (a *app) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// openStore is replaced in tests.
var openStore = buildStore

func bootstrap(ctx context.Context, cfg *config.Config, reg prometheus.Registerer) (*app, error) {
	log, syncLog, err := buildLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	a := &app{closers: []func(context.Context) error{func(context.Context) error { syncLog(); return nil }}}
	fail := func(err error) (*app, error) {
		_ = a.Close(ctx)
		return nil, err
	}

	tp, err := buildTracer(cfg.Trace)
	if err != nil {
		return fail(err)
	}
	if tp != nil {
		a.closers = append(a.closers, tp.Shutdown)
	}

	store, err := openStore(cfg)
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, store.Close)

	codec, err := buildCodec(cfg.Cache)
	if err != nil {
		return fail(err)
	}
	hooks, err := buildHooks(cfg.Log, reg)
	if err != nil {
		return fail(err)
	}
	async := asynchook.New(hooks, 1, 1024)
	a.closers = append(a.closers, func(context.Context) error { async.Close(); return nil })

	db, err := repository.Open(ctx, cfg.Database.ConnString(), repository.Pool{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return fail(err)
	}
	a.closers = append(a.closers, func(context.Context) error { return db.Close() })

	var source dictcache.Source = repository.New(db, repository.Options{Logger: log})
	if tp != nil {
		source = tracing.WrapSource(source, tp)
		store = tracing.WrapStore(store, tp)
	}

	svc, err := dictcache.New(dictcache.Options{
		Store:    store,
		Source:   source,
		Codec:    codec,
		TTL:      cfg.TTL(),
		Logger:   log,
		Hooks:    async,
		Disabled: cfg.Cache.Disabled,
		Dedup:    cfg.Cache.Dedup,
	})
	if err != nil {
		return fail(err)
	}
	a.svc = svc
	log.Info("dictcache ready", dictcache.Fields{
		"provider": cfg.Cache.Provider,
		"codec":    cfg.Cache.Codec,
		"ttl":      cfg.TTL(),
		"enabled":  svc.Enabled(),
		"tracing":  tp != nil,
	})
	return a, nil
}

// buildTracer returns nil when tracing is off.
func buildTracer(cfg config.Trace) (*sdktrace.TracerProvider, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr))
	if err != nil {
		return nil, fmt.Errorf("stdout trace exporter: %w", err)
	}
	// one-shot commands exit before a batcher would flush
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp)), nil
}

func buildStore(cfg *config.Config) (pr.Provider, error) {
	switch cfg.Cache.Provider {
	case "redis":
		rdb := goredis.NewClient(&goredis.Options{
			Addr:        cfg.Redis.Address,
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.Database,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
		})
		return redisprovider.New(redisprovider.Config{Client: rdb, CloseClient: true})
	case "ristretto":
		maxCost := int64(cfg.Cache.MaxSizeMB) << 20
		return ristrettoprovider.New(ristrettoprovider.Config{
			NumCounters: maxCost / 100, // ~10x the entries expected at ~1KiB each
			MaxCost:     maxCost,
			BufferItems: 64,
		})
	case "bigcache":
		return bigcacheprovider.New(bigcacheprovider.Config{
			LifeWindow:         cfg.TTL(),
			HardMaxCacheSizeMB: cfg.Cache.MaxSizeMB,
		})
	default:
		return nil, fmt.Errorf("unknown cache provider %q", cfg.Cache.Provider)
	}
}

func buildCodec(cfg config.Cache) (c.Codec[dictcache.Interval], error) {
	var codec c.Codec[dictcache.Interval]
	switch cfg.Codec {
	case "", "json":
		codec = c.JSON[dictcache.Interval]{}
	case "cbor":
		cb, err := c.NewCBOR[dictcache.Interval]()
		if err != nil {
			return nil, err
		}
		codec = cb
	case "msgpack":
		codec = c.Msgpack[dictcache.Interval]{}
	case "protobuf":
		codec = intervalpb.Codec{}
	default:
		return nil, fmt.Errorf("unknown codec %q", cfg.Codec)
	}
	return c.WithLimit(codec, cfg.MaxPayload), nil
}

// buildLogger returns the adapter for cfg.Format and a flush func.
func buildLogger(cfg config.Log) (dictcache.Logger, func(), error) {
	switch cfg.Format {
	case "", "zap":
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		zl, err := zc.Build()
		if err != nil {
			return nil, nil, fmt.Errorf("build zap logger: %w", err)
		}
		return zaplog.New(zl), func() { _ = zl.Sync() }, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.Level)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetFormatter(&logrus.JSONFormatter{})
		l.SetLevel(lvl)
		return logruslog.New(l), func() {}, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, nil, err
		}
		h := stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return slogadapter.New(stdslog.New(h)), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
}

// buildHooks always exports prometheus counters; slog deployments also get
// sampled event logs.
func buildHooks(cfg config.Log, reg prometheus.Registerer) (dictcache.Hooks, error) {
	ph, err := prom.New(reg)
	if err != nil {
		return nil, err
	}
	if cfg.Format != "slog" {
		return ph, nil
	}
	lh := sloghooks.New(stdslog.New(stdslog.NewJSONHandler(os.Stderr, nil)), sloghooks.Options{
		HitEvery:  100,
		MissEvery: 10,
	})
	return fanout{ph, lh}, nil
}

type fanout []dictcache.Hooks

func (f fanout) CacheHit(k, kind string) {
	for _, h := range f {
		h.CacheHit(k, kind)
	}
}

func (f fanout) CacheMiss(k, kind string) {
	for _, h := range f {
		h.CacheMiss(k, kind)
	}
}

func (f fanout) CacheDegraded(k, op string, err error) {
	for _, h := range f {
		h.CacheDegraded(k, op, err)
	}
}

func (f fanout) LoadShared(k string) {
	for _, h := range f {
		h.LoadShared(k)
	}
}
