package serializer

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"
)

// Serializer writes little-endian and varint encoded fields, counting the bytes written.
type Serializer struct {
	w io.Writer
	n int
}

func New(w io.Writer) *Serializer {
	return &Serializer{
		w: w,
		n: 0,
	}
}

func (a *Serializer) Write(b []byte) (int, error) {
	n, err := a.w.Write(b)
	if err != nil {
		return 0, err
	}
	a.n += n
	return n, nil
}

func (a *Serializer) StringWithUInt16Len(s string) error {
	if len(s) > math.MaxUint16 {
		return errors.Errorf("too long string, expected max %d, found %d", math.MaxUint16, len(s))
	}
	if err := a.Uint16(uint16(len(s))); err != nil {
		return err
	}
	return a.String(s)
}

// StringWithUInt32Len writes four bytes of the string's `s` length followed with the bytes of string itself.
func (a *Serializer) StringWithUInt32Len(s string) error {
	l, err := safecast.ToUint32(len(s))
	if err != nil {
		return errors.Wrap(err, "too long string")
	}
	if err := a.Uint32(l); err != nil {
		return err
	}
	return a.String(s)
}

func (a *Serializer) StringWithUvarintLen(s string) error {
	if err := a.Uvarint(uint64(len(s))); err != nil {
		return err
	}
	return a.String(s)
}

func (a *Serializer) Uint16(v uint16) error {
	buf := [2]byte{}
	binary.LittleEndian.PutUint16(buf[:], v)
	return a.Bytes(buf[:])
}

func (a *Serializer) Uint32(v uint32) error {
	buf := [4]byte{}
	binary.LittleEndian.PutUint32(buf[:], v)
	return a.Bytes(buf[:])
}

func (a *Serializer) Int32(v int32) error {
	return a.Uint32(uint32(v))
}

func (a *Serializer) Uint64(v uint64) error {
	buf := [8]byte{}
	binary.LittleEndian.PutUint64(buf[:], v)
	return a.Bytes(buf[:])
}

func (a *Serializer) Float64(v float64) error {
	return a.Uint64(math.Float64bits(v))
}

func (a *Serializer) Uvarint(v uint64) error {
	buf := [binary.MaxVarintLen64]byte{}
	n := binary.PutUvarint(buf[:], v)
	return a.Bytes(buf[:n])
}

func (a *Serializer) Varint(v int64) error {
	buf := [binary.MaxVarintLen64]byte{}
	n := binary.PutVarint(buf[:], v)
	return a.Bytes(buf[:n])
}

func (a *Serializer) String(s string) error {
	n, err := io.WriteString(a.w, s)
	if err != nil {
		return err
	}
	a.n += n
	return nil
}

func (a *Serializer) Byte(b byte) error {
	return a.Bytes([]byte{b})
}

func (a *Serializer) N() int64 {
	return int64(a.n)
}

func (a *Serializer) Bool(b bool) error {
	var v byte = 0
	if b {
		v = 1
	}
	return a.Byte(v)
}

func (a *Serializer) Bytes(b []byte) error {
	n, err := a.w.Write(b)
	if err != nil {
		return err
	}
	a.n += n
	return nil
}
