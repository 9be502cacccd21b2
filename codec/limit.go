package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned when a cached payload exceeds the decode limit.
var ErrTooLarge = errors.New("codec: payload too large")

// Limited refuses to decode payloads longer than Max bytes before handing
// them to Inner. Encode is forwarded unchanged.
type Limited[V any] struct {
	Inner Codec[V]
	Max   int
}

// WithLimit wraps inner in a Limited codec. n <= 0 returns inner as is.
func WithLimit[V any](inner Codec[V], n int) Codec[V] {
	if n <= 0 {
		return inner
	}
	return Limited[V]{Inner: inner, Max: n}
}

func (c Limited[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }

func (c Limited[V]) Decode(b []byte) (V, error) {
	if len(b) > c.Max {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d bytes", ErrTooLarge, len(b), c.Max)
	}
	return c.Inner.Decode(b)
}
