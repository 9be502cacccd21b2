// Package codec converts cached values to and from bytes.
//
// Encoders used for list entries must be stable: the same value always yields
// byte-identical output, and Decode(Encode(v)) == v.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
