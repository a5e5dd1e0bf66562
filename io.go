// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"encoding/binary"
	"fmt"
)

const (
	byteOrderBigEndian    = 0x4d4d // "MM"
	byteOrderLittleEndian = 0x4949 // "II"
)

// ByteOrder is the byte order of a TIFF structure.
// It is read once from the TIFF header and used for the rest of the parse.
type ByteOrder uint8

const (
	// BigEndian is the Motorola byte order, marker "MM".
	BigEndian ByteOrder = iota
	// LittleEndian is the Intel byte order, marker "II".
	LittleEndian
)

// NewByteOrder reads the 2 byte order marker from the front of b and returns
// the byte order and the rest of b.
func NewByteOrder(b []byte) (ByteOrder, []byte, error) {
	if len(b) < 2 {
		return BigEndian, b, fmt.Errorf("%w: reading byte order marker", ErrOutOfBounds)
	}
	switch binary.BigEndian.Uint16(b) {
	case byteOrderBigEndian:
		return BigEndian, b[2:], nil
	case byteOrderLittleEndian:
		return LittleEndian, b[2:], nil
	default:
		return BigEndian, b, fmt.Errorf("%w: %q", ErrInvalidByteOrderMarker, b[:2])
	}
}

// IsLittleEndian reports whether o is LittleEndian.
func (o ByteOrder) IsLittleEndian() bool {
	return o == LittleEndian
}

func (o ByteOrder) String() string {
	if o.IsLittleEndian() {
		return "Little-endian (Intel, II)"
	}
	return "Big-endian (Motorola, MM)"
}

// Uint16 reads a 16-bit unsigned integer from the front of b and returns it and the rest of b.
func (o ByteOrder) Uint16(b []byte) (uint16, []byte, error) {
	if len(b) < 2 {
		return 0, b, fmt.Errorf("%w: reading 2 bytes, %d left", ErrOutOfBounds, len(b))
	}
	return o.binary().Uint16(b), b[2:], nil
}

// Uint32 reads a 32-bit unsigned integer from the front of b and returns it and the rest of b.
func (o ByteOrder) Uint32(b []byte) (uint32, []byte, error) {
	if len(b) < 4 {
		return 0, b, fmt.Errorf("%w: reading 4 bytes, %d left", ErrOutOfBounds, len(b))
	}
	return o.binary().Uint32(b), b[4:], nil
}

// Int32 reads a 32-bit signed integer from the front of b and returns it and the rest of b.
func (o ByteOrder) Int32(b []byte) (int32, []byte, error) {
	v, rest, err := o.Uint32(b)
	return int32(v), rest, err
}

func (o ByteOrder) binary() binary.ByteOrder {
	if o.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// window returns the n bytes of b starting at off.
func window(b []byte, off, n uint64) ([]byte, error) {
	size := uint64(len(b))
	if off > size || n > size-off {
		return nil, fmt.Errorf("%w: %d bytes at offset %d, buffer is %d bytes", ErrOutOfBounds, n, off, size)
	}
	return b[off : off+n], nil
}

// streamReader is a cursor over an in-memory buffer that provides methods to read binary data.
// Every read is bounds checked.
// Note that this is not thread safe.
type streamReader struct {
	buf       []byte
	pos       int
	byteOrder ByteOrder
}

func newStreamReader(b []byte, byteOrder ByteOrder) *streamReader {
	return &streamReader{
		buf:       b,
		byteOrder: byteOrder,
	}
}

func (e *streamReader) rest() []byte {
	return e.buf[e.pos:]
}

func (e *streamReader) read1() (uint8, error) {
	b, err := e.readBytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (e *streamReader) read2() (uint16, error) {
	v, _, err := e.byteOrder.Uint16(e.rest())
	if err != nil {
		return 0, err
	}
	e.pos += 2
	return v, nil
}

func (e *streamReader) read4() (uint32, error) {
	v, _, err := e.byteOrder.Uint32(e.rest())
	if err != nil {
		return 0, err
	}
	e.pos += 4
	return v, nil
}

func (e *streamReader) read4s() (int32, error) {
	v, err := e.read4()
	return int32(v), err
}

// readBytes returns the next n bytes.
// The returned slice shares memory with the underlying buffer.
func (e *streamReader) readBytes(n int) ([]byte, error) {
	b, err := window(e.buf, uint64(e.pos), uint64(n))
	if err != nil {
		return nil, err
	}
	e.pos += n
	return b, nil
}

func (e *streamReader) skip(n int) error {
	_, err := e.readBytes(n)
	return err
}

func (e *streamReader) seek(pos uint32) error {
	if uint64(pos) > uint64(len(e.buf)) {
		return fmt.Errorf("%w: seek to %d, buffer is %d bytes", ErrOutOfBounds, pos, len(e.buf))
	}
	e.pos = int(pos)
	return nil
}
