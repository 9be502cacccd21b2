// Package intervalpb stores intervals as protobuf-encoded structpb.Struct
// messages, for stores shared with readers that speak protobuf rather than JSON.
package intervalpb

import (
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/unkn0wn-root/dictcache"
	c "github.com/unkn0wn-root/dictcache/codec"
)

const (
	fieldFrom = "validFrom"
	fieldTo   = "validTo"
)

// Codec is a codec.Codec[dictcache.Interval]. The zero value is ready to use.
type Codec struct{}

var _ c.Codec[dictcache.Interval] = Codec{}

var pb = c.NewProtobuf(&structpb.Struct{})

func (Codec) Encode(r dictcache.Interval) ([]byte, error) {
	return pb.Encode(&structpb.Struct{Fields: map[string]*structpb.Value{
		fieldFrom: structpb.NewStringValue(r.ValidFrom),
		fieldTo:   structpb.NewStringValue(r.ValidTo),
	}})
}

func (Codec) Decode(b []byte) (dictcache.Interval, error) {
	m, err := pb.Decode(b)
	if err != nil {
		return dictcache.Interval{}, err
	}
	from, err := stringField(m, fieldFrom)
	if err != nil {
		return dictcache.Interval{}, err
	}
	to, err := stringField(m, fieldTo)
	if err != nil {
		return dictcache.Interval{}, err
	}
	return dictcache.Interval{ValidFrom: from, ValidTo: to}, nil
}

func stringField(m *structpb.Struct, name string) (string, error) {
	v, ok := m.GetFields()[name]
	if !ok {
		return "", fmt.Errorf("intervalpb: missing field %q", name)
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("intervalpb: field %q is not a string", name)
	}
	return sv.StringValue, nil
}
