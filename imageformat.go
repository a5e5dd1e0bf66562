// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"fmt"
)

const (
	// ImageFormatUnknown is the zero value, no signature matched.
	ImageFormatUnknown ImageFormat = iota
	// JPEG is the JPEG image format.
	JPEG
	// PNG is the PNG image format.
	PNG
	// GIF is the GIF image format (87a and 89a).
	GIF
	// BMP is the Windows bitmap image format.
	BMP
)

// ImageFormat is the image container format.
type ImageFormat int

func (f ImageFormat) String() string {
	switch f {
	case ImageFormatUnknown:
		return "ImageFormatUnknown"
	case JPEG:
		return "JPEG"
	case PNG:
		return "PNG"
	case GIF:
		return "GIF"
	case BMP:
		return "BMP"
	default:
		return fmt.Sprintf("ImageFormat(%d)", int(f))
	}
}

// MIMEType returns the MIME type of the format.
func (f ImageFormat) MIMEType() string {
	switch f {
	case JPEG:
		return "image/jpeg"
	case PNG:
		return "image/png"
	case GIF:
		return "image/gif"
	case BMP:
		return "image/bmp"
	default:
		return "application/octet-stream"
	}
}

var (
	magicPNG    = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	magicGIF87a = []byte("GIF87a")
	magicGIF89a = []byte("GIF89a")
	magicJPEG   = []byte{0xff, 0xd8, 0xff}
	magicBMP    = []byte{0x42, 0x4d}
)

// Longest signature first.
var imageFormatMagics = []struct {
	magic  []byte
	format ImageFormat
}{
	{magicPNG, PNG},
	{magicGIF87a, GIF},
	{magicGIF89a, GIF},
	{magicJPEG, JPEG},
	{magicBMP, BMP},
}

// DetectFormat identifies the container format of data from its leading magic bytes.
func DetectFormat(data []byte) (ImageFormat, error) {
	for _, m := range imageFormatMagics {
		if bytes.HasPrefix(data, m.magic) {
			return m.format, nil
		}
	}
	return ImageFormatUnknown, ErrUnrecognizedFormat
}

type tiffHeaderFinder interface {
	findTIFFHeader() ([]byte, error)
}

// FindTIFFHeader detects the container format of data and returns the
// embedded TIFF structure, starting with its byte order marker.
// The returned slice shares memory with data.
func FindTIFFHeader(data []byte) (ImageFormat, []byte, error) {
	format, err := DetectFormat(data)
	if err != nil {
		return format, nil, err
	}

	var finder tiffHeaderFinder
	switch format {
	case JPEG:
		finder = &imageDecoderJPEG{streamReader: newStreamReader(data, BigEndian)}
	case PNG:
		finder = &imageDecoderPNG{streamReader: newStreamReader(data, BigEndian)}
	default:
		return format, nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	tiff, err := finder.findTIFFHeader()
	return format, tiff, err
}
