package ristretto

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/dictcache/provider"
)

// ErrRejected is returned when ristretto drops a write (admission policy or full buffers).
var ErrRejected = errors.New("ristretto provider: write rejected")

// Provider is an in-process store. Lists are kept natively; each entry carries
// its own deadline so Expire can be applied after the write, as with Redis.
type Provider struct {
	c   *rc.Cache
	mu  sync.Mutex // serializes read-modify-write (append, expire)
	now func() time.Time
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // bytes; cost of an entry is its payload size
	BufferItems int64
	Metrics     bool
}

type entry struct {
	scalar  []byte
	list    [][]byte
	isList  bool
	expires time.Time // zero => no expiry
}

func (e entry) cost() int64 {
	n := int64(len(e.scalar)) + 1
	for _, it := range e.list {
		n += int64(len(it))
	}
	return n
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Provider{c: c, now: time.Now}, nil
}

func (p *Provider) load(key string) (entry, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return entry{}, false
	}
	e, ok := v.(entry)
	if !ok {
		// self-heal: drop unexpected entry shape
		p.c.Del(key)
		return entry{}, false
	}
	if !e.expires.IsZero() && !p.now().Before(e.expires) {
		p.c.Del(key)
		return entry{}, false
	}
	return e, true
}

func (p *Provider) store(key string, e entry) error {
	var ttl time.Duration
	if !e.expires.IsZero() {
		ttl = e.expires.Sub(p.now())
		if ttl <= 0 {
			p.c.Del(key)
			return nil
		}
	}
	if !p.c.SetWithTTL(key, e, e.cost(), ttl) {
		return ErrRejected
	}
	p.c.Wait() // make the write visible to the next Get
	return nil
}

func (p *Provider) Exists(_ context.Context, key string) (bool, error) {
	_, ok := p.load(key)
	return ok, nil
}

func (p *Provider) GetScalar(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := p.load(key)
	if !ok {
		return nil, false, nil
	}
	if e.isList {
		return nil, false, pr.ErrWrongType
	}
	return bytes.Clone(e.scalar), true, nil
}

func (p *Provider) SetScalar(_ context.Context, key string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if value == nil {
		value = []byte{}
	}
	return p.store(key, entry{scalar: bytes.Clone(value)})
}

func (p *Provider) AppendToList(_ context.Context, key string, values ...[]byte) error {
	if len(values) == 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.load(key)
	if ok && !e.isList {
		return pr.ErrWrongType
	}
	list := make([][]byte, 0, len(e.list)+len(values))
	list = append(list, e.list...)
	for _, v := range values {
		list = append(list, bytes.Clone(v))
	}
	return p.store(key, entry{list: list, isList: true, expires: e.expires})
}

func (p *Provider) RangeList(_ context.Context, key string, start, stop int64) ([][]byte, error) {
	e, ok := p.load(key)
	if !ok {
		return [][]byte{}, nil
	}
	if !e.isList {
		return nil, pr.ErrWrongType
	}
	lo, hi := pr.Span(len(e.list), start, stop)
	out := make([][]byte, 0, hi-lo)
	for _, it := range e.list[lo:hi] {
		out = append(out, bytes.Clone(it))
	}
	return out, nil
}

func (p *Provider) Expire(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.load(key)
	if !ok {
		return nil
	}
	e.expires = p.now().Add(ttl)
	return p.store(key, e)
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Helper to expose metrics if desired by the application (not part of provider.Provider).
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }
