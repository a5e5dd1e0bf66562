// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Package scorpion extracts EXIF metadata from JPEG and PNG images.
//
// The image is passed in as a byte slice. The TIFF block embedded in the
// container is located, and its IFD chain and sub-IFDs are decoded into
// a list of typed entries.
package scorpion

import (
	"fmt"
	"math"
	"time"
)

const (
	defaultLimitNumTags = 5000
	defaultLimitTagSize = 10000
)

// Options contains the options for Decode and ParseTIFF.
type Options struct {
	// Warnf will be called for each warning, e.g. an entry that was skipped
	// because of an unsupported field type.
	Warnf func(string, ...any)

	// If set, only entries for which this function returns true are returned.
	// Sub-IFD pointers are followed regardless.
	ShouldHandleTag func(tag Tag) bool

	// LimitNumTags is the maximum number of entries to read, counted over all IFDs.
	// Default value is 5000.
	LimitNumTags uint32

	// LimitTagSize is the maximum size in bytes of an entry value to read.
	// Larger entries are skipped and reported through Warnf.
	// Default value is 10000.
	LimitTagSize uint32

	// NestedSubIFDs makes the decoder follow sub-IFD pointers found inside a sub-IFD,
	// e.g. the Interoperability IFD pointer in the Exif IFD.
	// By default only pointers in the main IFD chain are followed.
	NestedSubIFDs bool
}

func (o Options) init() Options {
	if o.Warnf == nil {
		o.Warnf = func(string, ...any) {}
	}
	if o.ShouldHandleTag == nil {
		o.ShouldHandleTag = func(Tag) bool { return true }
	}
	if o.LimitNumTags == 0 {
		o.LimitNumTags = defaultLimitNumTags
	}
	if o.LimitTagSize == 0 {
		o.LimitTagSize = defaultLimitTagSize
	}
	return o
}

// DecodeResult contains the result of a Decode operation.
type DecodeResult struct {
	// Format is the detected container format.
	Format ImageFormat

	// ByteOrder is the byte order of the TIFF block.
	ByteOrder ByteOrder

	// IFDs holds the decoded directories in emission order.
	IFDs []IFD
}

// Decode locates the EXIF data in the JPEG or PNG image in data and decodes it.
// The returned values share no memory with data.
func Decode(data []byte, opts Options) (result DecodeResult, err error) {
	errFinal := func(err2 error) error {
		if err2 == nil {
			return nil
		}
		if isInvalidFormatErrorCandidate(err2) {
			err2 = newInvalidFormatError(err2)
		}
		return err2
	}

	defer func() {
		err = errFinal(err)
	}()

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		result = DecodeResult{}
		if errp, ok := r.(error); ok {
			err = newInvalidFormatError(errp)
		} else {
			err = newInvalidFormatErrorf("unknown panic: %v", r)
		}
	}()

	format, tiff, err := FindTIFFHeader(data)
	result.Format = format
	if err != nil {
		return result, err
	}

	result.ByteOrder, result.IFDs, err = ParseTIFF(tiff, opts)
	if err != nil {
		return DecodeResult{Format: format}, err
	}

	return result, nil
}

// Entries returns all entries in emission order.
func (r DecodeResult) Entries() []Entry {
	var entries []Entry
	for _, ifd := range r.IFDs {
		entries = append(entries, ifd.Entries...)
	}
	return entries
}

// Find returns the first entry in emission order with the given tag name, e.g. "Model".
func (r DecodeResult) Find(name string) (Entry, bool) {
	for _, ifd := range r.IFDs {
		for _, e := range ifd.Entries {
			if e.Tag.Name() == name {
				return e, true
			}
		}
	}
	return Entry{}, false
}

func (r DecodeResult) findString(names ...string) string {
	for _, name := range names {
		if e, ok := r.Find(name); ok {
			if s, ok := e.Value.(ASCII); ok && s != "" {
				return string(s)
			}
		}
	}
	return ""
}

// GetDateTime returns the capture time from DateTimeOriginal, falling back to DateTime.
// If the matching OffsetTime tag is set it is used as the time zone, otherwise time.Local.
// The zero time is returned if neither tag is present.
func (r DecodeResult) GetDateTime() (time.Time, error) {
	// Layout without timezone suffix.
	const layout = "2006:01:02 15:04:05"

	dateStr, offsetStr := r.findString("DateTimeOriginal"), r.findString("OffsetTimeOriginal")
	if dateStr == "" {
		dateStr, offsetStr = r.findString("DateTime"), r.findString("OffsetTime")
	}
	if dateStr == "" {
		return time.Time{}, nil
	}

	if offsetStr != "" {
		if tm, err := time.Parse(layout+"-07:00", dateStr+offsetStr); err == nil {
			return tm, nil
		}
	}

	return time.ParseInLocation(layout, dateStr, time.Local)
}

// GetLatLong returns the GPS position in decimal degrees.
// South latitudes and west longitudes are negative.
// Zero values are returned if the position is not set.
func (r DecodeResult) GetLatLong() (lat float64, long float64, err error) {
	latEntry, okLat := r.Find("GPSLatitude")
	longEntry, okLong := r.Find("GPSLongitude")
	if !okLat || !okLong {
		return 0, 0, nil
	}

	lat, err = decimalDegrees(latEntry.Value)
	if err != nil {
		return 0, 0, fmt.Errorf("GPSLatitude: %w", err)
	}
	long, err = decimalDegrees(longEntry.Value)
	if err != nil {
		return 0, 0, fmt.Errorf("GPSLongitude: %w", err)
	}

	if r.findString("GPSLatitudeRef") == "S" {
		lat = -lat
	}
	if r.findString("GPSLongitudeRef") == "W" {
		long = -long
	}

	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		lat = 0
	}
	if math.IsNaN(long) || math.IsInf(long, 0) {
		long = 0
	}

	return lat, long, nil
}
