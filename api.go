package dictcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/dictcache/codec"
	pr "github.com/unkn0wn-root/dictcache/provider"
)

// Source is the authoritative store the cache sits in front of.
// Implementations must be safe for concurrent use.
type Source interface {
	// ConvertByDictionary returns toColumn of the row where fromColumn = value.
	// Fails with ErrInvalidQuery when the query cannot run or no row matches.
	ConvertByDictionary(ctx context.Context, table, fromColumn, toColumn, value string, asOf time.Time) (string, error)

	// DateListByFilters returns the validity interval of every row matching all filters.
	// Fails with ErrEmptyFilterSet when filters is empty.
	DateListByFilters(ctx context.Context, table string, filters Filters) ([]Interval, error)
}

// Service is the cache-aside API. Safe for concurrent use.
type Service interface {
	Enabled() bool
	Close(context.Context) error

	// ConvertByDictionary converts value from fromColumn to toColumn of table.
	// asOf is passed to the Source untouched and is not part of the cache key.
	ConvertByDictionary(ctx context.Context, table, fromColumn, toColumn, value string, asOf time.Time) (string, error)

	// GetCachingDateList returns the intervals of table rows matching filters,
	// in the order the Source produced them.
	GetCachingDateList(ctx context.Context, table string, filters Filters) ([]Interval, error)
}

// Options configure a Service.
// Store and Source are required; others have sensible defaults.
type Options struct {
	// Required
	Store  pr.Provider
	Source Source

	Codec    c.Codec[Interval] // list element codec; nil => codec.JSON[Interval]
	TTL      time.Duration     // record-delete-time applied to every write; 0 => 10m
	Logger   Logger            // nil => NopLogger
	Hooks    Hooks             // nil => NopHooks
	Disabled bool              // serve every call directly from Source
	Dedup    bool              // collapse concurrent misses of the same key into one Source call
}

// New validates opts and returns a Service over opts.Store and opts.Source.
func New(opts Options) (Service, error) {
	return newService(opts)
}
