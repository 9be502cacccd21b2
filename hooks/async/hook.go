// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:  100, // sample logs: ~every 100th hit
//	    MissEvery: 10,
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	svc, _ := dictcache.New(dictcache.Options{
//	    Store:  provider,
//	    Source: repo,
//	    Hooks:  hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/dictcache"
)

// Hooks forwards events to inner on background workers. Events are dropped
// when the queue is full so the request path never blocks.
type Hooks struct {
	inner dictcache.Hooks
	q     chan func()
	wg    sync.WaitGroup
	once  sync.Once

	mu      sync.RWMutex // guards closed against concurrent sends
	closed  bool
	dropped atomic.Uint64
}

var _ dictcache.Hooks = (*Hooks)(nil)

func New(inner dictcache.Hooks, workers, qlen int) *Hooks {
	if inner == nil {
		inner = dictcache.NopHooks{}
	}
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Later events are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.mu.Lock()
		h.closed = true
		close(h.q)
		h.mu.Unlock()
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.closed {
		h.dropped.Add(1)
		return
	}
	select {
	case h.q <- f:
	default: // drop
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k, kind string)  { h.try(func() { h.inner.CacheHit(k, kind) }) }
func (h *Hooks) CacheMiss(k, kind string) { h.try(func() { h.inner.CacheMiss(k, kind) }) }
func (h *Hooks) LoadShared(k string)      { h.try(func() { h.inner.LoadShared(k) }) }
func (h *Hooks) CacheDegraded(k, op string, err error) {
	h.try(func() { h.inner.CacheDegraded(k, op, err) })
}
