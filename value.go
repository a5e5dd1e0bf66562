// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"encoding"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	xunicode "golang.org/x/text/encoding/unicode"
)

// FieldType is the TIFF data type of an IFD entry.
type FieldType uint16

const (
	TypeByte      FieldType = 1
	TypeASCII     FieldType = 2
	TypeShort     FieldType = 3
	TypeLong      FieldType = 4
	TypeRational  FieldType = 5
	TypeSByte     FieldType = 6
	TypeUndefined FieldType = 7
	TypeSShort    FieldType = 8
	TypeSLong     FieldType = 9
	TypeSRational FieldType = 10
	TypeFloat     FieldType = 11
	TypeDouble    FieldType = 12
)

// Size in bytes of each supported type.
var fieldTypeSize = map[FieldType]int{
	TypeByte:      1,
	TypeASCII:     1,
	TypeShort:     2,
	TypeLong:      4,
	TypeRational:  8,
	TypeUndefined: 1,
	TypeSLong:     4,
	TypeSRational: 8,
}

var fieldTypeNames = map[FieldType]string{
	TypeByte:      "BYTE",
	TypeASCII:     "ASCII",
	TypeShort:     "SHORT",
	TypeLong:      "LONG",
	TypeRational:  "RATIONAL",
	TypeSByte:     "SBYTE",
	TypeUndefined: "UNDEFINED",
	TypeSShort:    "SSHORT",
	TypeSLong:     "SLONG",
	TypeSRational: "SRATIONAL",
	TypeFloat:     "FLOAT",
	TypeDouble:    "DOUBLE",
}

func (t FieldType) String() string {
	if s, ok := fieldTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("FieldType(%d)", uint16(t))
}

// TypeSize returns the size in bytes of one element of type t.
// It returns ErrUnsupportedFieldType for types this package cannot decode.
func TypeSize(t FieldType) (int, error) {
	size, ok := fieldTypeSize[t]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, t)
	}
	return size, nil
}

// Value is a decoded IFD entry value.
// The set of implementations is closed:
// Bytes, ASCII, Shorts, Longs, Rationals, SLongs, SRationals, Undefined and Raw.
type Value interface {
	// Len returns the number of elements in the value.
	Len() int

	// String returns the value as text.
	// Single element values render as a scalar, multiple elements as a list.
	String() string

	isValue()
}

// Bytes is a BYTE value.
type Bytes []byte

// ASCII is an ASCII value with trailing NULs removed.
type ASCII string

// Shorts is a SHORT value.
type Shorts []uint16

// Longs is a LONG value.
type Longs []uint32

// Rationals is a RATIONAL value.
type Rationals []Rat[uint32]

// SLongs is a SLONG value.
type SLongs []int32

// SRationals is a SRATIONAL value.
type SRationals []Rat[int32]

// Undefined is an UNDEFINED value, kept as raw bytes.
type Undefined []byte

// Raw is a 4-byte value slot that has no typed interpretation.
type Raw uint32

func (Bytes) isValue()      {}
func (ASCII) isValue()      {}
func (Shorts) isValue()     {}
func (Longs) isValue()      {}
func (Rationals) isValue()  {}
func (SLongs) isValue()     {}
func (SRationals) isValue() {}
func (Undefined) isValue()  {}
func (Raw) isValue()        {}

func (v Bytes) Len() int      { return len(v) }
func (v ASCII) Len() int      { return 1 }
func (v Shorts) Len() int     { return len(v) }
func (v Longs) Len() int      { return len(v) }
func (v Rationals) Len() int  { return len(v) }
func (v SLongs) Len() int     { return len(v) }
func (v SRationals) Len() int { return len(v) }
func (v Undefined) Len() int  { return len(v) }
func (v Raw) Len() int        { return 1 }

func (v Bytes) String() string      { return joinValues(v, " ") }
func (v ASCII) String() string      { return string(v) }
func (v Shorts) String() string     { return joinValues(v, " ") }
func (v Longs) String() string      { return joinValues(v, " ") }
func (v Rationals) String() string  { return joinValues(v, ", ") }
func (v SLongs) String() string     { return joinValues(v, " ") }
func (v SRationals) String() string { return joinValues(v, ", ") }
func (v Raw) String() string        { return strconv.FormatUint(uint64(v), 10) }

func (v Undefined) String() string {
	s := string(trimBytesNulls(v))
	if s != "" && isPrintableASCII(s) {
		return s
	}
	return fmt.Sprintf("(Binary data %d bytes)", len(v))
}

func joinValues[T any](vals []T, delim string) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteString(delim)
		}
		fmt.Fprint(&sb, v)
	}
	return sb.String()
}

var (
	_ encoding.TextUnmarshaler = (*Rat[int32])(nil)
	_ encoding.TextMarshaler   = Rat[int32]{}
)

// Rat is a rational number as stored in EXIF, a numerator/denominator pair.
// It is not normalized.
type Rat[T int32 | uint32] struct {
	Num T
	Den T
}

// NewRat returns a new Rat with the given numerator and denominator.
func NewRat[T int32 | uint32](num, den T) Rat[T] {
	return Rat[T]{Num: num, Den: den}
}

// Float64 returns the float64 representation of the rational number.
// A zero denominator gives an infinity or NaN.
func (r Rat[T]) Float64() float64 {
	return float64(r.Num) / float64(r.Den)
}

// String returns the string representation of the rational number.
// If the denominator is 1, the string will be the numerator only.
func (r Rat[T]) String() string {
	if r.Den == 1 {
		return fmt.Sprintf("%d", r.Num)
	}
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

func (r *Rat[T]) UnmarshalText(text []byte) error {
	s := string(text)
	if !strings.Contains(s, "/") {
		num, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
		}
		r.Num = T(num)
		r.Den = 1
		return nil
	}
	if _, err := fmt.Sscanf(s, "%d/%d", &r.Num, &r.Den); err != nil {
		return fmt.Errorf("failed to parse %q as a rational number: %w", s, err)
	}
	return nil
}

func (r Rat[T]) MarshalText() (text []byte, err error) {
	return []byte(r.String()), nil
}

// DecodeValue decodes the value of an IFD entry.
// slot is the 4-byte value-or-offset field of the entry. If count elements of typ
// fit in 4 bytes the value is decoded from slot itself, otherwise slot holds an
// offset relative to the start of tiff.
func DecodeValue(tiff []byte, order ByteOrder, typ FieldType, count uint32, slot [4]byte) (Value, error) {
	size, err := TypeSize(typ)
	if err != nil {
		return nil, err
	}
	if uint64(count)*uint64(size) <= 4 {
		return decodeInline(slot, count, typ, order), nil
	}
	offset, _, _ := order.Uint32(slot[:])
	return decodeAt(tiff, offset, count, typ, order)
}

// decodeInline decodes a value stored in the value slot of the entry itself.
// The slot bytes are in file order, so element i of a BYTE value is slot[i]
// and element i of a SHORT value is the 2 bytes at slot[2*i].
func decodeInline(slot [4]byte, count uint32, typ FieldType, order ByteOrder) Value {
	n := int(count)
	switch {
	case typ == TypeByte:
		return Bytes(bytes.Clone(slot[:n]))
	case typ == TypeUndefined:
		return Undefined(bytes.Clone(slot[:n]))
	case typ == TypeASCII:
		return ASCII(strings.TrimRight(decodeLossyUTF8(slot[:n]), "\x00"))
	case typ == TypeShort:
		vals := make(Shorts, n)
		for i := range vals {
			vals[i], _, _ = order.Uint16(slot[2*i:])
		}
		return vals
	case typ == TypeLong && count == 1:
		v, _, _ := order.Uint32(slot[:])
		return Longs{v}
	case typ == TypeSLong && count == 1:
		v, _, _ := order.Int32(slot[:])
		return SLongs{v}
	default:
		v, _, _ := order.Uint32(slot[:])
		return Raw(v)
	}
}

// decodeAt reads count elements of typ starting at offset in tiff.
func decodeAt(tiff []byte, offset, count uint32, typ FieldType, order ByteOrder) (Value, error) {
	size, err := TypeSize(typ)
	if err != nil {
		return nil, err
	}
	data, err := window(tiff, uint64(offset), uint64(count)*uint64(size))
	if err != nil {
		return nil, err
	}

	r := newStreamReader(data, order)
	n := int(count)

	switch typ {
	case TypeByte:
		return Bytes(bytes.Clone(data)), nil
	case TypeUndefined:
		return Undefined(bytes.Clone(data)), nil
	case TypeASCII:
		if !utf8.Valid(data) {
			return nil, ErrInvalidUTF8
		}
		return ASCII(strings.TrimRight(string(data), "\x00")), nil
	case TypeShort:
		vals := make(Shorts, n)
		for i := range vals {
			if vals[i], err = r.read2(); err != nil {
				return nil, err
			}
		}
		return vals, nil
	case TypeLong:
		vals := make(Longs, n)
		for i := range vals {
			if vals[i], err = r.read4(); err != nil {
				return nil, err
			}
		}
		return vals, nil
	case TypeSLong:
		vals := make(SLongs, n)
		for i := range vals {
			if vals[i], err = r.read4s(); err != nil {
				return nil, err
			}
		}
		return vals, nil
	case TypeRational:
		vals := make(Rationals, n)
		for i := range vals {
			if vals[i].Num, err = r.read4(); err != nil {
				return nil, err
			}
			if vals[i].Den, err = r.read4(); err != nil {
				return nil, err
			}
		}
		return vals, nil
	case TypeSRational:
		vals := make(SRationals, n)
		for i := range vals {
			if vals[i].Num, err = r.read4s(); err != nil {
				return nil, err
			}
			if vals[i].Den, err = r.read4s(); err != nil {
				return nil, err
			}
		}
		return vals, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFieldType, typ)
	}
}

// decodeLossyUTF8 decodes b as UTF-8, replacing invalid sequences with U+FFFD.
func decodeLossyUTF8(b []byte) string {
	// The UTF-8 decoder replaces invalid sequences and does not fail.
	s, _ := xunicode.UTF8.NewDecoder().Bytes(b)
	return string(s)
}
