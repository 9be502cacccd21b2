package codec

import "encoding/json"

// JSON encodes V with encoding/json. Struct fields are emitted in declaration
// order, so output is stable for struct values. This is the default codec for
// cached intervals: {"validFrom":"2020-01-01","validTo":"2020-12-31"}.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}
