package deserializer

import (
	"encoding/binary"
	"math"

	"github.com/makiscript/gomaki/pkg/errs"
)

// Deserializer reads little-endian and varint encoded fields from a module buffer.
// Failures are MalformedBytecode errors pointing at the absolute offset of the bad field.
type Deserializer struct {
	b    []byte
	base int
	pos  int
}

func NewDeserializer(b []byte) *Deserializer {
	return NewDeserializerAt(b, 0)
}

// NewDeserializerAt creates a deserializer over b, reporting offsets as if b started at base.
func NewDeserializerAt(b []byte, base int) *Deserializer {
	return &Deserializer{b: b, base: base}
}

// Offset is the absolute position of the next unread byte.
func (a *Deserializer) Offset() int {
	return a.base + a.pos
}

// Length of the rest bytes.
func (a *Deserializer) Len() int {
	return len(a.b) - a.pos
}

func (a *Deserializer) need(n int, what string) error {
	if a.Len() < n {
		return errs.Malformed(a.Offset(),
			"not enough bytes to deserialize %s, expected at least %d, found %d", what, n, a.Len())
	}
	return nil
}

func (a *Deserializer) Byte() (byte, error) {
	if err := a.need(1, "byte"); err != nil {
		return 0, err
	}
	out := a.b[a.pos]
	a.pos++
	return out, nil
}

func (a *Deserializer) Uint16() (uint16, error) {
	if err := a.need(2, "uint16"); err != nil {
		return 0, err
	}
	out := binary.LittleEndian.Uint16(a.b[a.pos:])
	a.pos += 2
	return out, nil
}

func (a *Deserializer) Uint32() (uint32, error) {
	if err := a.need(4, "uint32"); err != nil {
		return 0, err
	}
	out := binary.LittleEndian.Uint32(a.b[a.pos:])
	a.pos += 4
	return out, nil
}

func (a *Deserializer) Int32() (int32, error) {
	v, err := a.Uint32()
	return int32(v), err
}

func (a *Deserializer) Uint64() (uint64, error) {
	if err := a.need(8, "uint64"); err != nil {
		return 0, err
	}
	out := binary.LittleEndian.Uint64(a.b[a.pos:])
	a.pos += 8
	return out, nil
}

func (a *Deserializer) Float64() (float64, error) {
	v, err := a.Uint64()
	return math.Float64frombits(v), err
}

func (a *Deserializer) Uvarint() (uint64, error) {
	v, n := binary.Uvarint(a.b[a.pos:])
	if n <= 0 {
		return 0, errs.Malformed(a.Offset(), "invalid uvarint")
	}
	a.pos += n
	return v, nil
}

func (a *Deserializer) Varint() (int64, error) {
	v, n := binary.Varint(a.b[a.pos:])
	if n <= 0 {
		return 0, errs.Malformed(a.Offset(), "invalid varint")
	}
	a.pos += n
	return v, nil
}

func (a *Deserializer) Bytes(length uint) ([]byte, error) {
	if length > uint(a.Len()) {
		return nil, errs.Malformed(a.Offset(),
			"not enough bytes to deserialize Bytes, expected %d, found %d", length, a.Len())
	}
	out := a.b[a.pos : a.pos+int(length)]
	a.pos += int(length)
	return out, nil
}

func (a *Deserializer) StringWithUInt16Len() (string, error) {
	l, err := a.Uint16()
	if err != nil {
		return "", err
	}
	b, err := a.Bytes(uint(l))
	return string(b), err
}

func (a *Deserializer) StringWithUInt32Len() (string, error) {
	l, err := a.Uint32()
	if err != nil {
		return "", err
	}
	b, err := a.Bytes(uint(l))
	return string(b), err
}

func (a *Deserializer) StringWithUvarintLen() (string, error) {
	l, err := a.Uvarint()
	if err != nil {
		return "", err
	}
	if l > uint64(a.Len()) {
		return "", errs.Malformed(a.Offset(), "string length %d exceeds remaining %d bytes", l, a.Len())
	}
	b, err := a.Bytes(uint(l))
	return string(b), err
}
