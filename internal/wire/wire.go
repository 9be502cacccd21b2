// Package wire frames scalar and list entries into a single byte slice for
// stores that only hold opaque values (bigcache).
package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version    byte = 1
	KindScalar byte = 1
	KindList   byte = 2

	header = 4 + 1 + 1 // magic | ver | kind
)

var (
	ErrCorrupt = errors.New("dictcache: corrupt entry")
	magic4     = [...]byte{'D', 'C', 'E', 'N'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Kind returns the entry kind of an encoded entry.
func Kind(b []byte) (byte, error) {
	if len(b) < header || !hasMagic(b) || b[4] != version {
		return 0, ErrCorrupt
	}
	switch b[5] {
	case KindScalar, KindList:
		return b[5], nil
	default:
		return 0, ErrCorrupt
	}
}

// Scalar: magic(4) | ver(1) | kind(1=scalar) | vlen(u32 be) | payload(vlen)
func EncodeScalar(payload []byte) []byte {
	var buf bytes.Buffer
	buf.Grow(header + 4 + len(payload))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(KindScalar)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(payload)))
	buf.Write(u4[:])

	buf.Write(payload)
	return buf.Bytes()
}

func DecodeScalar(b []byte) ([]byte, error) {
	if k, err := Kind(b); err != nil || k != KindScalar {
		return nil, ErrCorrupt
	}
	off := header
	if off+4 > len(b) {
		return nil, ErrCorrupt
	}
	vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if vlen < 0 || vlen != len(b)-off { // no trailing bytes
		return nil, ErrCorrupt
	}
	return b[off : off+vlen], nil
}

// List:
//
//	magic(4) | ver(1) | kind(2=list) | n(u32 be)
//	vlen(u32 be) | payload(vlen) * n
func EncodeList(items [][]byte) []byte {
	total := header + 4
	for _, it := range items {
		total += 4 + len(it)
	}

	var buf bytes.Buffer
	buf.Grow(total)

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(KindList)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(items)))
	buf.Write(u4[:])

	for _, it := range items {
		binary.BigEndian.PutUint32(u4[:], uint32(len(it)))
		buf.Write(u4[:])
		buf.Write(it)
	}
	return buf.Bytes()
}

// DecodeList returns subslices of b; callers that keep items past the next
// write to b must copy them.
func DecodeList(b []byte) ([][]byte, error) {
	if k, err := Kind(b); err != nil || k != KindList {
		return nil, ErrCorrupt
	}
	off := header
	if off+4 > len(b) {
		return nil, ErrCorrupt
	}
	n := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	// every item needs at least its 4-byte length
	if n < 0 || n > (len(b)-off)/4 {
		return nil, ErrCorrupt
	}

	items := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		if off+4 > len(b) {
			return nil, ErrCorrupt
		}
		vlen := int(binary.BigEndian.Uint32(b[off : off+4]))
		off += 4
		if vlen < 0 || vlen > len(b)-off { // overflow-safe bound check
			return nil, ErrCorrupt
		}
		items = append(items, b[off:off+vlen])
		off += vlen
	}
	if off != len(b) {
		return nil, ErrCorrupt
	}
	return items, nil
}
