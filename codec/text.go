package codec

import (
	"errors"
	"unicode/utf8"
)

// ErrNotText is returned by Text.Decode for payloads that are not valid UTF-8.
var ErrNotText = errors.New("codec: payload is not valid UTF-8")

// Text stores scalar conversion results as their raw UTF-8 bytes, so other
// readers of the store see plain text. Decode rejects anything else.
type Text struct{}

var _ Codec[string] = Text{}

func (Text) Encode(s string) ([]byte, error) { return []byte(s), nil }

func (Text) Decode(b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", ErrNotText
	}
	return string(b), nil
}
