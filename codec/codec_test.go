package codec

import (
	"bytes"
	"errors"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

type span struct {
	ValidFrom string `json:"validFrom" cbor:"validFrom" msgpack:"validFrom"`
	ValidTo   string `json:"validTo" cbor:"validTo" msgpack:"validTo"`
}

var spans = []span{
	{ValidFrom: "2020-01-01", ValidTo: "2020-12-31"},
	{ValidFrom: "2021-01-01", ValidTo: "open"},
	{},
	{ValidFrom: "дата", ValidTo: "#weird\"value"},
}

func codecs() map[string]Codec[span] {
	return map[string]Codec[span]{
		"json":    JSON[span]{},
		"cbor":    MustCBOR[span](),
		"msgpack": Msgpack[span]{},
		"limit":   WithLimit[span](JSON[span]{}, 1024),
	}
}

func TestRoundTripAndStability(t *testing.T) {
	for name, cd := range codecs() {
		for _, in := range spans {
			a, err := cd.Encode(in)
			if err != nil {
				t.Fatalf("%s: encode %+v: %v", name, in, err)
			}
			b, err := cd.Encode(in)
			if err != nil {
				t.Fatalf("%s: encode again: %v", name, err)
			}
			if !bytes.Equal(a, b) {
				t.Fatalf("%s: unstable encoding %x vs %x", name, a, b)
			}
			out, err := cd.Decode(a)
			if err != nil {
				t.Fatalf("%s: decode: %v", name, err)
			}
			if out != in {
				t.Fatalf("%s: round trip got %+v want %+v", name, out, in)
			}
		}
	}
}

func TestJSONWireFormat(t *testing.T) {
	b, err := JSON[span]{}.Encode(span{ValidFrom: "2020-01-01", ValidTo: "2020-12-31"})
	if err != nil {
		t.Fatal(err)
	}
	if want := `{"validFrom":"2020-01-01","validTo":"2020-12-31"}`; string(b) != want {
		t.Fatalf("got %s want %s", b, want)
	}
}

func TestJSONDecodeGarbage(t *testing.T) {
	if _, err := (JSON[span]{}).Decode([]byte("not json")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLimitedRejectsOversized(t *testing.T) {
	lc := WithLimit[span](JSON[span]{}, 8)
	b, _ := JSON[span]{}.Encode(spans[0])
	if _, err := lc.Decode(b); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}

	off := WithLimit[span](JSON[span]{}, 0)
	if _, ok := off.(JSON[span]); !ok {
		t.Fatalf("no limit should return the inner codec, got %T", off)
	}
	if _, err := off.Decode(b); err != nil {
		t.Fatalf("limit disabled should decode: %v", err)
	}
}

func TestCBORRejectsForeignEntries(t *testing.T) {
	cd := MustCBOR[span]()

	other, err := MustCBOR[map[string]string]().Encode(map[string]string{
		"validFrom": "2020-01-01", "validTo": "2020-12-31", "source": "elsewhere",
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cd.Decode(other); err == nil {
		t.Fatalf("unknown field should fail decoding")
	}

	// a2 map(2), both keys "validFrom"
	dup := []byte{0xa2,
		0x69, 'v', 'a', 'l', 'i', 'd', 'F', 'r', 'o', 'm', 0x61, 'a',
		0x69, 'v', 'a', 'l', 'i', 'd', 'F', 'r', 'o', 'm', 0x61, 'b',
	}
	if _, err := cd.Decode(dup); err == nil {
		t.Fatalf("duplicate key should fail decoding")
	}
}

func TestCBORKnownBytes(t *testing.T) {
	b, err := MustCBOR[span]().Encode(span{ValidFrom: "a", ValidTo: "b"})
	if err != nil {
		t.Fatal(err)
	}
	// core deterministic: shorter key first
	want := []byte{0xa2,
		0x67, 'v', 'a', 'l', 'i', 'd', 'T', 'o', 0x61, 'b',
		0x69, 'v', 'a', 'l', 'i', 'd', 'F', 'r', 'o', 'm', 0x61, 'a',
	}
	if !bytes.Equal(b, want) {
		t.Fatalf("got %x want %x", b, want)
	}
}

func TestMsgpackMapKeysSorted(t *testing.T) {
	m := map[string]string{"b": "2", "a": "1", "c": "3"}
	first, err := Msgpack[map[string]string]{}.Encode(m)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, _ := Msgpack[map[string]string]{}.Encode(m)
		if !bytes.Equal(first, again) {
			t.Fatalf("map encoding not stable")
		}
	}
}

func TestProtobufDeterministic(t *testing.T) {
	cd := NewProtobuf(&structpb.Struct{})
	msg, err := structpb.NewStruct(map[string]any{"validFrom": "2020-01-01", "validTo": "2020-12-31", "x": 1.5})
	if err != nil {
		t.Fatal(err)
	}
	first, err := cd.Encode(msg)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		again, _ := cd.Encode(msg)
		if !bytes.Equal(first, again) {
			t.Fatalf("protobuf encoding not stable")
		}
	}
	got, err := cd.Decode(first)
	if err != nil {
		t.Fatal(err)
	}
	if got.GetFields()["validTo"].GetStringValue() != "2020-12-31" {
		t.Fatalf("decoded %v", got)
	}
	again, err := cd.Decode(first)
	if err != nil {
		t.Fatal(err)
	}
	if got == again {
		t.Fatalf("decode must allocate a fresh message")
	}
}

func TestText(t *testing.T) {
	b, _ := Text{}.Encode("Доллар США")
	if string(b) != "Доллар США" {
		t.Fatalf("text stored as %x", b)
	}
	if s, err := (Text{}).Decode(b); err != nil || s != "Доллар США" {
		t.Fatalf("text round trip: %q err=%v", s, err)
	}
	if _, err := (Text{}).Decode([]byte{0xff, 0xfe}); !errors.Is(err, ErrNotText) {
		t.Fatalf("want ErrNotText, got %v", err)
	}
}
