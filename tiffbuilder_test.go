// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
)

// TestEntry is an IFD entry as written by TIFFBuilder.
// Data is the encoded value; up to 4 bytes are stored inline.
type TestEntry struct {
	Code  uint16
	Type  uint16
	Count uint32
	Data  []byte
}

// TestSubIFD is a sub-IFD pointer entry and the directory it points to.
type TestSubIFD struct {
	Code uint16
	IFD  *TestIFD
}

// TestIFD is a directory written by TIFFBuilder.
// The pointer entries for SubIFDs are written after Entries.
type TestIFD struct {
	Entries []TestEntry
	SubIFDs []TestSubIFD
}

// TIFFBuilder builds synthetic TIFF structures for tests.
type TIFFBuilder struct {
	Order ByteOrder
	IFDs  []*TestIFD
}

type byteOrderAppender interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

func (tb *TIFFBuilder) binary() byteOrderAppender {
	if tb.Order.IsLittleEndian() {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

func (tb *TIFFBuilder) Byte(code uint16, vals ...byte) TestEntry {
	return TestEntry{Code: code, Type: uint16(TypeByte), Count: uint32(len(vals)), Data: vals}
}

func (tb *TIFFBuilder) Undefined(code uint16, vals []byte) TestEntry {
	return TestEntry{Code: code, Type: uint16(TypeUndefined), Count: uint32(len(vals)), Data: vals}
}

// ASCII adds the terminating NUL.
func (tb *TIFFBuilder) ASCII(code uint16, s string) TestEntry {
	data := append([]byte(s), 0)
	return TestEntry{Code: code, Type: uint16(TypeASCII), Count: uint32(len(data)), Data: data}
}

func (tb *TIFFBuilder) Short(code uint16, vals ...uint16) TestEntry {
	var data []byte
	for _, v := range vals {
		data = tb.binary().AppendUint16(data, v)
	}
	return TestEntry{Code: code, Type: uint16(TypeShort), Count: uint32(len(vals)), Data: data}
}

func (tb *TIFFBuilder) Long(code uint16, vals ...uint32) TestEntry {
	var data []byte
	for _, v := range vals {
		data = tb.binary().AppendUint32(data, v)
	}
	return TestEntry{Code: code, Type: uint16(TypeLong), Count: uint32(len(vals)), Data: data}
}

func (tb *TIFFBuilder) SLong(code uint16, vals ...int32) TestEntry {
	var data []byte
	for _, v := range vals {
		data = tb.binary().AppendUint32(data, uint32(v))
	}
	return TestEntry{Code: code, Type: uint16(TypeSLong), Count: uint32(len(vals)), Data: data}
}

func (tb *TIFFBuilder) Rational(code uint16, vals ...Rat[uint32]) TestEntry {
	var data []byte
	for _, v := range vals {
		data = tb.binary().AppendUint32(data, v.Num)
		data = tb.binary().AppendUint32(data, v.Den)
	}
	return TestEntry{Code: code, Type: uint16(TypeRational), Count: uint32(len(vals)), Data: data}
}

func (tb *TIFFBuilder) SRational(code uint16, vals ...Rat[int32]) TestEntry {
	var data []byte
	for _, v := range vals {
		data = tb.binary().AppendUint32(data, uint32(v.Num))
		data = tb.binary().AppendUint32(data, uint32(v.Den))
	}
	return TestEntry{Code: code, Type: uint16(TypeSRational), Count: uint32(len(vals)), Data: data}
}

// Bytes returns the TIFF structure, starting with the header.
// IFD0 is written at offset 8, value data follows each entry table.
func (tb *TIFFBuilder) Bytes() []byte {
	w := &tiffWriter{order: tb.binary()}
	if tb.Order.IsLittleEndian() {
		w.buf = append(w.buf, 'I', 'I')
	} else {
		w.buf = append(w.buf, 'M', 'M')
	}
	w.buf = w.order.AppendUint16(w.buf, tiffMagic)
	w.buf = w.order.AppendUint32(w.buf, 0)

	nextPos := 4
	for _, ifd := range tb.IFDs {
		offset, pos := w.writeIFD(ifd)
		w.put32(nextPos, offset)
		nextPos = pos
	}
	return w.buf
}

type tiffWriter struct {
	order byteOrderAppender
	buf   []byte
}

func (w *tiffWriter) put32(pos int, v uint32) {
	w.order.PutUint32(w.buf[pos:], v)
}

// writeIFD appends ifd and its sub-IFDs and returns the offset of ifd
// and the position of its next IFD offset field.
func (w *tiffWriter) writeIFD(ifd *TestIFD) (uint32, int) {
	entries := append([]TestEntry(nil), ifd.Entries...)
	for _, sub := range ifd.SubIFDs {
		entries = append(entries, TestEntry{Code: sub.Code, Type: uint16(TypeLong), Count: 1, Data: make([]byte, 4)})
	}

	offset := uint32(len(w.buf))
	w.buf = w.order.AppendUint16(w.buf, uint16(len(entries)))
	tablePos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 12*len(entries))...)
	nextPos := len(w.buf)
	w.buf = append(w.buf, make([]byte, 4)...)

	for i, e := range entries {
		p := tablePos + 12*i
		w.order.PutUint16(w.buf[p:], e.Code)
		w.order.PutUint16(w.buf[p+2:], e.Type)
		w.order.PutUint32(w.buf[p+4:], e.Count)
		if len(e.Data) <= 4 {
			copy(w.buf[p+8:p+12], e.Data)
			continue
		}
		w.put32(p+8, uint32(len(w.buf)))
		w.buf = append(w.buf, e.Data...)
	}

	for i, sub := range ifd.SubIFDs {
		p := tablePos + 12*(len(ifd.Entries)+i)
		subOffset, _ := w.writeIFD(sub.IFD)
		w.put32(p+8, subOffset)
	}

	return offset, nextPos
}

// newTestJPEG wraps tiff in an APP1 Exif segment, preceded by a JFIF APP0 segment.
func newTestJPEG(tiff []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	writeJPEGSegment(&buf, 0xe0, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00"))
	writeJPEGSegment(&buf, 0xe1, append([]byte("Exif\x00\x00"), tiff...))
	writeJPEGSegment(&buf, 0xda, []byte{0x01, 0x01, 0x00, 0x00, 0x3f, 0x00})
	buf.Write([]byte{0x12, 0x34, 0xff, 0xd9})
	return buf.Bytes()
}

func writeJPEGSegment(buf *bytes.Buffer, marker byte, payload []byte) {
	buf.Write([]byte{0xff, marker})
	buf.Write(binary.BigEndian.AppendUint16(nil, uint16(len(payload)+2)))
	buf.Write(payload)
}

// newTestPNG returns a PNG stream with an IHDR chunk, an optional eXIf chunk and IEND.
func newTestPNG(exif []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'})
	writePNGChunk(&buf, "IHDR", []byte{0, 0, 0, 1, 0, 0, 0, 1, 8, 2, 0, 0, 0})
	if exif != nil {
		writePNGChunk(&buf, "eXIf", exif)
	}
	writePNGChunk(&buf, "IDAT", []byte{0x78, 0x9c, 0x63, 0x60, 0x00, 0x00, 0x00, 0x02, 0x00, 0x01})
	writePNGChunk(&buf, "IEND", nil)
	return buf.Bytes()
}

func writePNGChunk(buf *bytes.Buffer, typ string, data []byte) {
	buf.Write(binary.BigEndian.AppendUint32(nil, uint32(len(data))))
	buf.WriteString(typ)
	buf.Write(data)
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	buf.Write(binary.BigEndian.AppendUint32(nil, crc.Sum32()))
}

// newSampleTIFF returns a camera-like TIFF structure: IFD0 with an Exif and a GPS
// sub-IFD, the Exif IFD with an Interoperability sub-IFD, and a thumbnail IFD1.
func newSampleTIFF(order ByteOrder) []byte {
	tb := &TIFFBuilder{Order: order}

	interop := &TestIFD{
		Entries: []TestEntry{
			tb.ASCII(0x0001, "R98"),
		},
	}

	exif := &TestIFD{
		Entries: []TestEntry{
			tb.Rational(0x829a, NewRat[uint32](1, 200)),
			tb.Rational(0x829d, NewRat[uint32](56, 10)),
			tb.Short(0x8827, 400),
			tb.Undefined(0x9000, []byte("0232")),
			tb.ASCII(0x9003, "2023:06:15 10:30:00"),
			tb.SRational(0x9204, NewRat[int32](-1, 3)),
			tb.Rational(0x920a, NewRat[uint32](21, 1)),
			tb.Undefined(0x9286, append([]byte("ASCII\x00\x00\x00"), "Sunrise"...)),
			tb.Long(0xa002, 6000),
			tb.Long(0xa003, 4000),
		},
		SubIFDs: []TestSubIFD{{Code: 0xa005, IFD: interop}},
	}

	gps := &TestIFD{
		Entries: []TestEntry{
			tb.Byte(0x0000, 2, 3, 0, 0),
			tb.ASCII(0x0001, "N"),
			tb.Rational(0x0002, NewRat[uint32](41, 1), NewRat[uint32](24, 1), NewRat[uint32](1220, 100)),
			tb.ASCII(0x0003, "W"),
			tb.Rational(0x0004, NewRat[uint32](2, 1), NewRat[uint32](10, 1), NewRat[uint32](2640, 100)),
		},
	}

	ifd0 := &TestIFD{
		Entries: []TestEntry{
			tb.ASCII(0x010f, "Canon"),
			tb.ASCII(0x0110, "Canon EOS 5D Mark IV"),
			tb.Short(0x0112, 1),
			tb.Rational(0x011a, NewRat[uint32](72, 1)),
			tb.Rational(0x011b, NewRat[uint32](72, 1)),
			tb.Short(0x0128, 2),
			tb.ASCII(0x0132, "2023:06:16 08:00:00"),
		},
		SubIFDs: []TestSubIFD{
			{Code: 0x8769, IFD: exif},
			{Code: 0x8825, IFD: gps},
		},
	}

	ifd1 := &TestIFD{
		Entries: []TestEntry{
			tb.Short(0x0103, 6),
			tb.Long(0x0201, 8), // Thumbnail offset, points at the start of IFD0.
			tb.Long(0x0202, 16),
		},
	}

	tb.IFDs = []*TestIFD{ifd0, ifd1}
	return tb.Bytes()
}
