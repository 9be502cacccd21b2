package bigcache

import (
	"context"
	"errors"
	"sync"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/dictcache/internal/wire"
	pr "github.com/unkn0wn-root/dictcache/provider"
)

// Provider is an in-process store on BigCache. BigCache only holds opaque
// byte values, so scalars and lists are framed with internal/wire.
//
// BigCache has no per-entry TTL: every entry lives for LifeWindow and Expire
// is accepted without effect. Configure LifeWindow to the record-delete-time.
type Provider struct {
	c  *bc.BigCache
	mu sync.Mutex // serializes list read-modify-write
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	LifeWindow         time.Duration
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Provider, error) {
	conf := bc.DefaultConfig(cfg.LifeWindow)
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.NewBigCache(conf)
	if err != nil {
		return nil, err
	}
	return &Provider{c: c}, nil
}

func (p *Provider) get(key string) ([]byte, bool, error) {
	b, err := p.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Provider) Exists(_ context.Context, key string) (bool, error) {
	_, ok, err := p.get(key)
	return ok, err
}

func (p *Provider) GetScalar(_ context.Context, key string) ([]byte, bool, error) {
	b, ok, err := p.get(key)
	if err != nil || !ok {
		return nil, false, err
	}
	k, err := wire.Kind(b)
	if err != nil {
		return nil, false, err
	}
	if k != wire.KindScalar {
		return nil, false, pr.ErrWrongType
	}
	v, err := wire.DecodeScalar(b)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (p *Provider) SetScalar(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.c.Set(key, wire.EncodeScalar(value))
}

func (p *Provider) AppendToList(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	var items [][]byte
	b, ok, err := p.get(key)
	if err != nil {
		return err
	}
	if ok {
		if items, err = decodeList(b); err != nil {
			return err
		}
	}
	items = append(items, values...)
	return p.c.Set(key, wire.EncodeList(items))
}

func (p *Provider) RangeList(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	b, ok, err := p.get(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return [][]byte{}, nil
	}
	items, err := decodeList(b)
	if err != nil {
		return nil, err
	}
	lo, hi := pr.Span(len(items), start, stop)
	return items[lo:hi], nil
}

// Expire is a no-op; entries expire after the configured LifeWindow.
func (p *Provider) Expire(context.Context, string, time.Duration) error { return nil }

func (p *Provider) Close(_ context.Context) error {
	return p.c.Close()
}

func decodeList(b []byte) ([][]byte, error) {
	k, err := wire.Kind(b)
	if err != nil {
		return nil, err
	}
	if k != wire.KindList {
		return nil, pr.ErrWrongType
	}
	return wire.DecodeList(b)
}
