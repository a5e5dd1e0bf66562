// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"fmt"
)

var (
	chunkEXIF = []byte("eXIf")
	chunkIEND = []byte("IEND")
)

type imageDecoderPNG struct {
	*streamReader
}

// http://ftp-osl.osuosl.org/pub/libpng/documents/pngext-1.5.0.html#C.eXIf
// The data segment of the eXIf chunk contains an Exif profile without the JPEG APP1 marker,
// length, and the "Exif" ID code, i.e. it starts directly with the TIFF header.
func (e *imageDecoderPNG) findTIFFHeader() ([]byte, error) {
	if !bytes.HasPrefix(e.buf, magicPNG) {
		return nil, ErrUnrecognizedFormat
	}
	if err := e.skip(len(magicPNG)); err != nil {
		return nil, err
	}

	for {
		start := e.pos
		chunkLength, err := e.read4()
		if err != nil {
			return nil, fmt.Errorf("png: chunk at offset %d: %w", start, err)
		}
		typ, err := e.readBytes(4)
		if err != nil {
			return nil, fmt.Errorf("png: chunk at offset %d: %w", start, err)
		}
		data, err := e.readBytes(int(chunkLength))
		if err != nil {
			return nil, fmt.Errorf("png: chunk %q at offset %d: %w", typ, start, err)
		}
		// The CRC is read but not verified.
		if _, err := e.read4(); err != nil {
			return nil, fmt.Errorf("png: chunk %q at offset %d: %w", typ, start, err)
		}

		switch {
		case bytes.Equal(typ, chunkEXIF):
			return data, nil
		case bytes.Equal(typ, chunkIEND):
			return nil, ErrExifNotFound
		}
	}
}
