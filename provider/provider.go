// Package provider defines the key-value store used by dictcache.
//
// A store holds two entry kinds under string keys: scalars (opaque bytes) and
// ordered lists of opaque byte elements. Implementations MUST be byte-for-byte
// transparent: bytes read back are exactly the bytes written, in the order written.
//
// Any returned error is treated by dictcache as the store being unavailable;
// the caller is then served from the source of truth. Misses are not errors.
package provider

import (
	"context"
	"errors"
	"time"
)

// ErrWrongType is returned when a scalar primitive hits a list entry or vice versa.
var ErrWrongType = errors.New("provider: operation against a key holding the wrong kind of value")

// Provider is a key-value store with TTLs. Must be safe for concurrent use.
type Provider interface {
	// Exists reports whether key holds an entry of either kind.
	Exists(ctx context.Context, key string) (bool, error)

	// GetScalar returns (value, true, nil) on hit; (nil, false, nil) on miss.
	GetScalar(ctx context.Context, key string) ([]byte, bool, error)

	// SetScalar stores value under key without expiry; pair with Expire.
	SetScalar(ctx context.Context, key string, value []byte) error

	// AppendToList appends values to the tail of the list at key, creating it
	// when absent. A call with no values is a no-op.
	AppendToList(ctx context.Context, key string, values ...[]byte) error

	// RangeList returns list elements start..stop inclusive. Negative indexes
	// count from the tail (-1 is the last element). Missing key => empty.
	RangeList(ctx context.Context, key string, start, stop int64) ([][]byte, error)

	// Expire sets the time-to-live of key. ttl <= 0 leaves the entry without expiry.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Span resolves start..stop (inclusive, negative from the tail) against a list of
// length n into a half-open [lo, hi) slice range. lo == hi means empty. It
// follows LRANGE semantics and is shared by the in-process stores.
func Span(n int, start, stop int64) (lo, hi int) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop || start >= size {
		return 0, 0
	}
	return int(start), int(stop) + 1
}
