package dictcache

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFilterSet is returned when a list query carries no filters.
	ErrEmptyFilterSet = errors.New("dictcache: empty filter set")
	// ErrInvalidQuery is returned when the Source cannot produce a result.
	ErrInvalidQuery = errors.New("dictcache: invalid query")
	// ErrCacheUnavailable marks provider failures. It never reaches Service callers.
	ErrCacheUnavailable = errors.New("dictcache: cache unavailable")
)

// CacheError is a failure of a single provider primitive or of decoding a cached entry.
type CacheError struct {
	Op  string // exists, get, set, append, range, expire, decode, encode
	Key string
	Err error
}

func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *CacheError) Unwrap() error { return e.Err }

func (e *CacheError) Is(target error) bool { return target == ErrCacheUnavailable }

// QueryError is a Source failure with enough context to find the offending query.
type QueryError struct {
	Table  string
	Column string
	Query  string
	Err    error
}

func (e *QueryError) Error() string {
	switch {
	case e.Column != "" && e.Err != nil:
		return fmt.Sprintf("query %q on %s.%s failed: %v", e.Query, e.Table, e.Column, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("query %q on %s failed: %v", e.Query, e.Table, e.Err)
	default:
		return fmt.Sprintf("query %q on %s failed", e.Query, e.Table)
	}
}

func (e *QueryError) Unwrap() error { return e.Err }

func (e *QueryError) Is(target error) bool { return target == ErrInvalidQuery }
