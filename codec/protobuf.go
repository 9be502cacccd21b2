package codec

import "google.golang.org/protobuf/proto"

// Protobuf encodes messages of one concrete type. Marshaling is deterministic
// so map fields produce stable bytes within one binary.
type Protobuf[T proto.Message] struct {
	prototype T
}

// NewProtobuf returns a codec for messages of the same type as prototype;
// Decode allocates fresh messages through its protoreflect type.
func NewProtobuf[T proto.Message](prototype T) Protobuf[T] {
	return Protobuf[T]{prototype: prototype}
}

func (c Protobuf[T]) Encode(v T) ([]byte, error) {
	return proto.MarshalOptions{Deterministic: true}.Marshal(v)
}

func (c Protobuf[T]) Decode(b []byte) (T, error) {
	m := c.prototype.ProtoReflect().Type().New().Interface().(T)
	err := proto.Unmarshal(b, m)
	return m, err
}
