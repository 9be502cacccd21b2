// Package prom exports dictcache events as Prometheus counters.
package prom

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/unkn0wn-root/dictcache"
)

const namespace = "dictcache"

// Hooks counts cache events. Keys are never used as label values.
type Hooks struct {
	Hits     *prometheus.CounterVec // kind
	Misses   *prometheus.CounterVec // kind
	Degraded *prometheus.CounterVec // op
	Shared   prometheus.Counter
}

var _ dictcache.Hooks = (*Hooks)(nil)

// New registers the collectors on reg. Registering twice on the same
// Registerer reuses the existing collectors.
func New(reg prometheus.Registerer) (*Hooks, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	h := &Hooks{
		Hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Lookups answered from the cache store.",
		}, []string{"kind"}),
		Misses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Lookups loaded from the source and written to the cache store.",
		}, []string{"kind"}),
		Degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_total",
			Help:      "Cache store failures answered directly from the source.",
		}, []string{"op"}),
		Shared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_shared_total",
			Help:      "Misses served by a source load already in flight.",
		}),
	}

	var err error
	h.Hits, err = register(reg, h.Hits)
	if err != nil {
		return nil, err
	}
	h.Misses, err = register(reg, h.Misses)
	if err != nil {
		return nil, err
	}
	h.Degraded, err = register(reg, h.Degraded)
	if err != nil {
		return nil, err
	}
	h.Shared, err = register(reg, h.Shared)
	if err != nil {
		return nil, err
	}
	return h, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (h *Hooks) CacheHit(_, kind string)  { h.Hits.WithLabelValues(kind).Inc() }
func (h *Hooks) CacheMiss(_, kind string) { h.Misses.WithLabelValues(kind).Inc() }
func (h *Hooks) LoadShared(string)        { h.Shared.Inc() }
func (h *Hooks) CacheDegraded(_, op string, _ error) {
	h.Degraded.WithLabelValues(op).Inc()
}
