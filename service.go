package dictcache

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/dictcache/codec"
	"github.com/unkn0wn-root/dictcache/internal/keys"
	pr "github.com/unkn0wn-root/dictcache/provider"
)

type service struct {
	store  pr.Provider
	source Source
	codec  c.Codec[Interval]
	text   c.Text
	log    Logger
	hooks  Hooks

	enabled bool
	ttl     time.Duration

	// in-flight misses; one group per entry kind so results never mix types
	dedup   bool
	scalars singleflight.Group
	lists   singleflight.Group
}

var _ Service = (*service)(nil)

func newService(opts Options) (*service, error) {
	if opts.Store == nil {
		return nil, errors.New("dictcache: store is required")
	}
	if opts.Source == nil {
		return nil, errors.New("dictcache: source is required")
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("dictcache: negative ttl %s", opts.TTL)
	}

	s := &service{
		store:   opts.Store,
		source:  opts.Source,
		enabled: !opts.Disabled,
		dedup:   opts.Dedup,
	}
	s.codec = coalesce[c.Codec[Interval]](opts.Codec, c.JSON[Interval]{})
	s.log = coalesce[Logger](opts.Logger, NopLogger{})
	s.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	s.ttl = coalesce[time.Duration](opts.TTL, defaultTTL)
	return s, nil
}

func (s *service) Enabled() bool { return s.enabled }

func (s *service) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

func (s *service) ConvertByDictionary(ctx context.Context, table, fromColumn, toColumn, value string, asOf time.Time) (string, error) {
	load := func(ctx context.Context) (string, error) {
		return s.source.ConvertByDictionary(ctx, table, fromColumn, toColumn, value, asOf)
	}
	direct := func() (string, error) { return load(ctx) }
	if !s.enabled {
		return direct()
	}
	key := keys.Dict(table, fromColumn, toColumn, value)
	return orElse(s.cachedScalar(ctx, key, load), direct, s.onDegraded)
}

func (s *service) GetCachingDateList(ctx context.Context, table string, filters Filters) ([]Interval, error) {
	if len(filters) == 0 {
		return nil, fmt.Errorf("%w for table %q", ErrEmptyFilterSet, table)
	}
	load := func(ctx context.Context) ([]Interval, error) {
		return s.source.DateListByFilters(ctx, table, filters)
	}
	direct := func() ([]Interval, error) { return load(ctx) }
	if !s.enabled {
		return direct()
	}
	key := keys.Filters(table, filters)
	return orElse(s.cachedList(ctx, key, load), direct, s.onDegraded)
}

func (s *service) cachedScalar(ctx context.Context, key string, load func(context.Context) (string, error)) attempt[string] {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return unavailable[string]("exists", key, err)
	}
	if ok {
		raw, found, err := s.store.GetScalar(ctx, key)
		if err != nil {
			return unavailable[string]("get", key, err)
		}
		// found=false: expired since Exists, fill it again
		if found {
			v, err := s.text.Decode(raw)
			if err != nil {
				return unavailable[string]("decode", key, err)
			}
			s.hooks.CacheHit(key, KindScalar)
			s.log.Debug("cache hit", Fields{"key": key, "value": v})
			return served(v)
		}
	}

	return share(ctx, s, &s.scalars, key, nil, func(ctx context.Context) attempt[string] {
		v, err := load(ctx)
		if err != nil {
			return failed[string](err)
		}
		raw, err := s.text.Encode(v)
		if err != nil {
			return degraded(v, "encode", key, err)
		}
		if err := s.store.SetScalar(ctx, key, raw); err != nil {
			return degraded(v, "set", key, err)
		}
		if err := s.store.Expire(ctx, key, s.ttl); err != nil {
			return degraded(v, "expire", key, err)
		}
		s.hooks.CacheMiss(key, KindScalar)
		s.log.Debug("cache miss, stored", Fields{"key": key, "value": v, "ttl": s.ttl})
		return served(v)
	})
}

func (s *service) cachedList(ctx context.Context, key string, load func(context.Context) ([]Interval, error)) attempt[[]Interval] {
	ok, err := s.store.Exists(ctx, key)
	if err != nil {
		return unavailable[[]Interval]("exists", key, err)
	}
	if ok {
		raws, err := s.store.RangeList(ctx, key, 0, -1)
		if err != nil {
			return unavailable[[]Interval]("range", key, err)
		}
		// empty lists are never stored, so an empty range means the key expired
		if len(raws) > 0 {
			out := make([]Interval, 0, len(raws))
			for _, raw := range raws {
				v, err := s.codec.Decode(raw)
				if err != nil {
					return unavailable[[]Interval]("decode", key, err)
				}
				out = append(out, v)
			}
			s.hooks.CacheHit(key, KindList)
			s.log.Debug("cache hit", Fields{"key": key, "count": len(out)})
			return served(out)
		}
	}

	return share(ctx, s, &s.lists, key, slices.Clone[[]Interval], func(ctx context.Context) attempt[[]Interval] {
		list, err := load(ctx)
		if err != nil {
			return failed[[]Interval](err)
		}
		if len(list) == 0 {
			s.hooks.CacheMiss(key, KindList)
			s.log.Debug("cache miss, empty result not stored", Fields{"key": key})
			return served(list)
		}
		enc := make([][]byte, 0, len(list))
		for _, r := range list {
			b, err := s.codec.Encode(r)
			if err != nil {
				return degraded(list, "encode", key, err)
			}
			enc = append(enc, b)
		}
		if err := s.store.AppendToList(ctx, key, enc...); err != nil {
			return degraded(list, "append", key, err)
		}
		if err := s.store.Expire(ctx, key, s.ttl); err != nil {
			return degraded(list, "expire", key, err)
		}
		s.hooks.CacheMiss(key, KindList)
		s.log.Debug("cache miss, stored", Fields{"key": key, "count": len(list), "ttl": s.ttl})
		return served(list)
	})
}

func (s *service) onDegraded(e *CacheError) {
	s.hooks.CacheDegraded(e.Key, e.Op, e.Err)
	s.log.Warn("cache unavailable, querying source directly", Fields{"key": e.Key, "op": e.Op, "err": e.Err})
}

// share runs fill once per key across concurrent callers when dedup is on.
// A shared fill runs detached from any single caller's cancellation; each
// caller still stops waiting when its own ctx is done. Callers that joined a
// shared fill get their own copy of the value when clone is set.
func share[T any](ctx context.Context, s *service, g *singleflight.Group, key string, clone func(T) T, fill func(context.Context) attempt[T]) attempt[T] {
	if !s.dedup {
		return fill(ctx)
	}
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fill(detached), nil
	})
	select {
	case <-ctx.Done():
		return failed[T](ctx.Err())
	case r := <-ch:
		a := r.Val.(attempt[T])
		if r.Shared {
			s.hooks.LoadShared(key)
			if clone != nil {
				a.val = clone(a.val)
			}
		}
		return a
	}
}
