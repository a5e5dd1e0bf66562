// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"fmt"
)

const (
	markerSOI    = 0xffd8
	markerPrefix = 0xff
	markerTEM    = 0x01
	markerRST0   = 0xd0
	markerRST7   = 0xd7
	markerEOI    = 0xd9
	markerSOS    = 0xda
	markerAPP1   = 0xe1
)

var exifHeader = []byte("Exif\x00\x00")

type imageDecoderJPEG struct {
	*streamReader
}

func (e *imageDecoderJPEG) findTIFFHeader() ([]byte, error) {
	soi, err := e.read2()
	if err != nil || soi != markerSOI {
		return nil, ErrNoStartOfImage
	}

	for {
		prefix, err := e.read1()
		if err != nil || prefix != markerPrefix {
			return nil, fmt.Errorf("%w at offset %d", ErrNoMarkerFound, e.pos)
		}
		marker, err := e.read1()
		// Any number of 0xff fill bytes may precede the marker type.
		for err == nil && marker == markerPrefix {
			marker, err = e.read1()
		}
		if err != nil {
			return nil, fmt.Errorf("%w at offset %d", ErrNoMarkerFound, e.pos)
		}

		switch {
		case marker == markerEOI, marker == markerSOS:
			// No metadata segments after this.
			return nil, ErrExifNotFound
		case marker >= markerRST0 && marker <= markerRST7, marker == markerTEM:
			// Standalone markers, no length.
			continue
		}

		// The 16-bit length includes the 2 bytes for the length itself.
		length, err := e.read2()
		if err != nil {
			return nil, fmt.Errorf("jpeg: segment 0x%02x: %w", marker, err)
		}
		if length < 2 {
			return nil, newInvalidFormatErrorf("jpeg: segment 0x%02x has invalid length %d", marker, length)
		}
		payload, err := e.readBytes(int(length) - 2)
		if err != nil {
			return nil, fmt.Errorf("jpeg: segment 0x%02x: %w", marker, err)
		}

		if marker == markerAPP1 && bytes.HasPrefix(payload, exifHeader) {
			return payload[len(exifHeader):], nil
		}
	}
}
