package asynchook

import (
	"errors"
	"sync"
	"testing"

	"github.com/unkn0wn-root/dictcache"
)

type countingHooks struct {
	mu       sync.Mutex
	hits     int
	misses   int
	degraded []string
	shared   int
	block    chan struct{}
}

func (c *countingHooks) wait() {
	if c.block != nil {
		<-c.block
	}
}

func (c *countingHooks) CacheHit(string, string) {
	c.wait()
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}
func (c *countingHooks) CacheMiss(string, string) {
	c.mu.Lock()
	c.misses++
	c.mu.Unlock()
}
func (c *countingHooks) CacheDegraded(_, op string, _ error) {
	c.mu.Lock()
	c.degraded = append(c.degraded, op)
	c.mu.Unlock()
}
func (c *countingHooks) LoadShared(string) {
	c.mu.Lock()
	c.shared++
	c.mu.Unlock()
}

func TestForwardsAllEventsBeforeClose(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 2, 64)

	for i := 0; i < 10; i++ {
		h.CacheHit("k", dictcache.KindScalar)
	}
	h.CacheMiss("k", dictcache.KindList)
	h.CacheDegraded("k", "exists", errors.New("down"))
	h.LoadShared("k")
	h.Close()

	if inner.hits != 10 || inner.misses != 1 || inner.shared != 1 {
		t.Fatalf("forwarded hits=%d misses=%d shared=%d", inner.hits, inner.misses, inner.shared)
	}
	if len(inner.degraded) != 1 || inner.degraded[0] != "exists" {
		t.Fatalf("degraded %v", inner.degraded)
	}
	if h.Dropped() != 0 {
		t.Fatalf("dropped %d", h.Dropped())
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	inner := &countingHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)

	// the worker blocks on the first event, then one more fits the queue
	for i := 0; i < 10; i++ {
		h.CacheHit("k", dictcache.KindScalar)
	}
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked worker")
	}
	close(inner.block)
	h.Close()

	if got := uint64(inner.hits) + h.Dropped(); got != 10 {
		t.Fatalf("delivered+dropped = %d", got)
	}
}

func TestEventsAfterCloseAreDropped(t *testing.T) {
	inner := &countingHooks{}
	h := New(inner, 1, 4)
	h.Close()
	h.Close()

	h.CacheMiss("k", dictcache.KindScalar)
	if inner.misses != 0 || h.Dropped() != 1 {
		t.Fatalf("misses=%d dropped=%d", inner.misses, h.Dropped())
	}
}

func TestNilInnerIsNop(t *testing.T) {
	h := New(nil, 0, 0)
	h.CacheHit("k", dictcache.KindScalar)
	h.Close()
}
