// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"errors"
	"fmt"
)

var (
	// ErrUnrecognizedFormat is returned when no known image signature matches.
	ErrUnrecognizedFormat = errors.New("scorpion: unrecognized image format")

	// ErrUnsupportedFormat is returned for recognized containers that have no embedded TIFF block, i.e. GIF and BMP.
	ErrUnsupportedFormat = errors.New("scorpion: no EXIF support for image format")

	// ErrNoStartOfImage is returned when a JPEG stream does not start with the SOI marker.
	ErrNoStartOfImage = errors.New("scorpion: no start of image marker found")

	// ErrNoMarkerFound is returned when a JPEG segment does not start with a marker prefix.
	ErrNoMarkerFound = errors.New("scorpion: no valid marker found in image")

	// ErrExifNotFound is returned when the container was scanned to its end without finding any EXIF data.
	ErrExifNotFound = errors.New("scorpion: EXIF data not found")

	// ErrInvalidByteOrderMarker is returned when the TIFF header does not start with "II" or "MM".
	ErrInvalidByteOrderMarker = errors.New("scorpion: invalid byte order marker")

	// ErrInvalidMagicNumber is returned when the TIFF header magic is not 42.
	ErrInvalidMagicNumber = errors.New("scorpion: invalid TIFF magic number")

	// ErrUnsupportedFieldType is returned for field type codes outside the supported set.
	// The IFD walker drops the entry and continues.
	ErrUnsupportedFieldType = errors.New("scorpion: unsupported field type")

	// ErrInvalidUTF8 is returned when an offset-addressed ASCII value is not valid UTF-8.
	// The IFD walker drops the entry and continues.
	ErrInvalidUTF8 = errors.New("scorpion: invalid UTF-8 in ASCII value")

	// ErrOutOfBounds is returned when a read would go past the end of the buffer.
	ErrOutOfBounds = errors.New("scorpion: read out of bounds")

	// ErrTruncatedData is an alias of ErrOutOfBounds.
	ErrTruncatedData = ErrOutOfBounds

	// ErrIFDLoop is returned when an IFD offset is visited twice.
	ErrIFDLoop = errors.New("scorpion: IFD loop detected")

	// ErrTooManyTags is returned when a file holds more entries than Options.LimitNumTags.
	ErrTooManyTags = errors.New("scorpion: too many tags")
)

// InvalidFormatError is used to signal that the input is malformed.
type InvalidFormatError struct {
	Err error
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format: %s", e.Err)
}

// Unwrap returns the underlying error.
func (e *InvalidFormatError) Unwrap() error {
	return e.Err
}

// IsInvalidFormat reports whether err is caused by malformed input.
func IsInvalidFormat(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e)
}

func newInvalidFormatError(err error) error {
	if err == nil || IsInvalidFormat(err) {
		return err
	}
	return &InvalidFormatError{Err: err}
}

func newInvalidFormatErrorf(format string, args ...any) error {
	return newInvalidFormatError(fmt.Errorf(format, args...))
}

// isInvalidFormatErrorCandidate reports whether err describes broken input
// rather than a programming or caller error.
func isInvalidFormatErrorCandidate(err error) bool {
	for _, target := range []error{
		ErrUnrecognizedFormat,
		ErrNoStartOfImage,
		ErrNoMarkerFound,
		ErrInvalidByteOrderMarker,
		ErrInvalidMagicNumber,
		ErrOutOfBounds,
		ErrIFDLoop,
		ErrTooManyTags,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
