// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"errors"
	"fmt"
	"slices"
)

const tiffMagic = 42

// Entry is a resolved IFD entry.
type Entry struct {
	Tag       Tag
	FieldType FieldType
	Count     uint32
	Value     Value
}

// IFD is a decoded image file directory.
type IFD struct {
	Directory Directory

	// Index is the position in the main chain, 0 for IFD0.
	// For sub-IFDs it is the index of the chain IFD they were reached from.
	Index int

	Entries []Entry
}

// Name returns the name of the directory, e.g. "IFD0" or "GPSIFD".
func (ifd IFD) Name() string {
	if ifd.Directory == DirectoryIFD {
		return fmt.Sprintf("IFD%d", ifd.Index)
	}
	return ifd.Directory.String()
}

// ParseTIFFHeader parses the 8 byte TIFF header at the start of tiff
// and returns the byte order and the offset of IFD0.
func ParseTIFFHeader(tiff []byte) (ByteOrder, uint32, error) {
	order, rest, err := NewByteOrder(tiff)
	if err != nil {
		return order, 0, err
	}
	magic, rest, err := order.Uint16(rest)
	if err != nil {
		return order, 0, err
	}
	if magic != tiffMagic {
		return order, 0, fmt.Errorf("%w: got %d", ErrInvalidMagicNumber, magic)
	}
	offset, _, err := order.Uint32(rest)
	if err != nil {
		return order, 0, err
	}
	return order, offset, nil
}

// ParseTIFF parses the TIFF structure in tiff, which must start with the TIFF header.
// All offsets are relative to the start of tiff.
//
// The IFDs are returned in emission order: the sub-IFDs reached from a chain IFD
// come before the chain IFD itself. Sub-IFD pointer entries are not included.
func ParseTIFF(tiff []byte, opts Options) (ByteOrder, []IFD, error) {
	opts = opts.init()

	order, offset, err := ParseTIFFHeader(tiff)
	if err != nil {
		return order, nil, err
	}

	e := newMetaDecoderEXIF(tiff, order, opts)
	ifds, err := e.decode(offset)
	if err != nil {
		return order, nil, err
	}
	return order, ifds, nil
}

// subIFDPointer is a sub-IFD pointer found while reading a directory.
type subIFDPointer struct {
	dir    Directory
	offset uint32
}

type metaDecoderEXIF struct {
	*streamReader
	opts Options

	// Offsets of the IFDs read from the main chain.
	chain map[uint32]bool
	// Offsets of the sub-IFDs read so far.
	subIFDs map[uint32]bool

	numTags uint32
}

func newMetaDecoderEXIF(tiff []byte, order ByteOrder, opts Options) *metaDecoderEXIF {
	return &metaDecoderEXIF{
		streamReader: newStreamReader(tiff, order),
		opts:         opts,
		chain:        make(map[uint32]bool),
		subIFDs:      make(map[uint32]bool),
	}
}

func (e *metaDecoderEXIF) decode(offset uint32) ([]IFD, error) {
	var ifds []IFD

	for index := 0; offset != 0; index++ {
		if e.chain[offset] {
			return nil, fmt.Errorf("IFD%d: %w: offset %d", index, ErrIFDLoop, offset)
		}
		e.chain[offset] = true

		entries, pointers, next, err := e.decodeTagsAt(DirectoryIFD, offset)
		if err != nil {
			return nil, fmt.Errorf("IFD%d: %w", index, err)
		}

		sub, err := e.decodeSubIFDs(pointers, index, []uint32{offset})
		if err != nil {
			return nil, err
		}
		ifds = append(ifds, sub...)
		ifds = append(ifds, IFD{Directory: DirectoryIFD, Index: index, Entries: entries})

		offset = next
	}

	return ifds, nil
}

// decodeSubIFDs reads the directories the pointers refer to.
// path holds the offsets of the directories that led to the pointers,
// starting with the chain IFD; a pointer back into path is a loop.
// A sub-IFD already read through another pointer is skipped.
// Pointers inside a sub-IFD are only followed with Options.NestedSubIFDs.
// The next IFD offset of a sub-IFD is never followed.
func (e *metaDecoderEXIF) decodeSubIFDs(pointers []subIFDPointer, index int, path []uint32) ([]IFD, error) {
	var ifds []IFD
	for _, p := range pointers {
		if slices.Contains(path, p.offset) {
			return nil, fmt.Errorf("%s: %w: offset %d", p.dir, ErrIFDLoop, p.offset)
		}
		if e.subIFDs[p.offset] {
			e.opts.Warnf("%s: skipping sub-IFD at offset %d, already read", p.dir, p.offset)
			continue
		}
		e.subIFDs[p.offset] = true

		entries, nested, _, err := e.decodeTagsAt(p.dir, p.offset)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.dir, err)
		}
		if len(nested) > 0 {
			if e.opts.NestedSubIFDs {
				sub, err := e.decodeSubIFDs(nested, index, append(slices.Clip(path), p.offset))
				if err != nil {
					return nil, err
				}
				ifds = append(ifds, sub...)
			} else {
				e.opts.Warnf("%s: ignoring %d nested sub-IFD pointer(s)", p.dir, len(nested))
			}
		}
		ifds = append(ifds, IFD{Directory: p.dir, Index: index, Entries: entries})
	}
	return ifds, nil
}

// decodeTagsAt reads the directory at offset.
// It returns the entries to emit, the sub-IFD pointers found and the next IFD offset.
func (e *metaDecoderEXIF) decodeTagsAt(dir Directory, offset uint32) ([]Entry, []subIFDPointer, uint32, error) {
	if err := e.seek(offset); err != nil {
		return nil, nil, 0, err
	}

	numTags, err := e.read2()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("reading number of entries: %w", err)
	}
	e.numTags += uint32(numTags)
	if e.numTags > e.opts.LimitNumTags {
		return nil, nil, 0, fmt.Errorf("%w: limit is %d", ErrTooManyTags, e.opts.LimitNumTags)
	}

	var (
		entries  []Entry
		pointers []subIFDPointer
	)

	for i := 0; i < int(numTags); i++ {
		entry, ok, err := e.decodeTag(dir)
		if err != nil {
			return nil, nil, 0, fmt.Errorf("reading entry %d: %w", i, err)
		}
		if !ok {
			continue
		}

		if subDir, isPointer := entry.Tag.subIFD(); isPointer {
			if v, isLong := entry.Value.(Longs); isLong && len(v) == 1 {
				pointers = append(pointers, subIFDPointer{dir: subDir, offset: v[0]})
			} else {
				e.opts.Warnf("%s: %s has unexpected value %T", dir, entry.Tag.Name(), entry.Value)
			}
			continue
		}

		if !e.opts.ShouldHandleTag(entry.Tag) {
			continue
		}

		entries = append(entries, entry)
	}

	next, err := e.read4()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("reading next IFD offset: %w", err)
	}

	return entries, pointers, next, nil
}

// A tag is represented in 12 bytes:
//   - 2 bytes for the tag ID
//   - 2 bytes for the data type
//   - 4 bytes for the number of data values of the specified type
//   - 4 bytes for the value itself, if it fits, otherwise for an offset to another location where the data may be found;
//     this could be the offset of another IFD.
//
// ok is false if the entry was read but its value could not be decoded.
func (e *metaDecoderEXIF) decodeTag(dir Directory) (entry Entry, ok bool, err error) {
	code, err := e.read2()
	if err != nil {
		return
	}
	typ, err := e.read2()
	if err != nil {
		return
	}
	count, err := e.read4()
	if err != nil {
		return
	}
	b, err := e.readBytes(4)
	if err != nil {
		return
	}
	var slot [4]byte
	copy(slot[:], b)

	entry = Entry{
		Tag:       LookupTag(dir, code),
		FieldType: FieldType(typ),
		Count:     count,
	}

	if size, err := TypeSize(entry.FieldType); err == nil {
		if n := uint64(count) * uint64(size); n > uint64(e.opts.LimitTagSize) {
			e.opts.Warnf("%s: skipping %s: value is %d bytes, limit is %d", dir, entry.Tag.Name(), n, e.opts.LimitTagSize)
			return entry, false, nil
		}
	}

	entry.Value, err = DecodeValue(e.buf, e.byteOrder, entry.FieldType, count, slot)
	if err != nil {
		if errors.Is(err, ErrUnsupportedFieldType) || errors.Is(err, ErrInvalidUTF8) {
			e.opts.Warnf("%s: skipping %s: %v", dir, entry.Tag.Name(), err)
			return entry, false, nil
		}
		return entry, false, fmt.Errorf("%s: %w", entry.Tag.Name(), err)
	}

	return entry, true, nil
}
