// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"unicode"

	xunicode "golang.org/x/text/encoding/unicode"
)

// The 8 byte character code prefixes of UserComment.
var (
	userCommentASCII     = []byte("ASCII\x00\x00\x00")
	userCommentUnicode   = []byte("UNICODE\x00")
	userCommentJIS       = []byte("JIS\x00\x00\x00\x00\x00")
	userCommentUndefined = []byte("\x00\x00\x00\x00\x00\x00\x00\x00")
)

var resolutionUnits = map[uint16]string{
	1: "None",
	2: "inches",
	3: "cm",
}

// FormatValue returns v as display text for tag.
// A few tags get a custom rendering, everything else uses v.String().
func FormatValue(tag Tag, v Value) string {
	switch tag.Name() {
	case "ResolutionUnit", "FocalPlaneResolutionUnit":
		if vv, ok := v.(Shorts); ok && len(vv) == 1 {
			if s, found := resolutionUnits[vv[0]]; found {
				return s
			}
		}
	case "GPSLatitude", "GPSLongitude", "GPSDestLatitude", "GPSDestLongitude":
		if s, ok := formatDegrees(v); ok {
			return s
		}
	case "UserComment":
		if vv, ok := v.(Undefined); ok {
			return formatUserComment(vv)
		}
	}
	return v.String()
}

// formatDegrees renders a degrees, minutes and seconds triple as e.g. 41 deg 24' 12.20".
func formatDegrees(v Value) (string, bool) {
	vv, ok := v.(Rationals)
	if !ok || len(vv) != 3 {
		return "", false
	}
	for _, r := range vv {
		if r.Den == 0 {
			return "", false
		}
	}
	deg, min, sec := vv[0].Float64(), vv[1].Float64(), vv[2].Float64()
	return fmt.Sprintf("%d deg %d' %.2f\"", uint32(deg), uint32(min), sec), true
}

// decimalDegrees converts a degrees, minutes and seconds triple to decimal degrees.
func decimalDegrees(v Value) (float64, error) {
	vv, ok := v.(Rationals)
	if !ok {
		return 0, fmt.Errorf("unsupported degree type %T", v)
	}
	if len(vv) != 3 {
		return 0, fmt.Errorf("expected 3 values, got %d", len(vv))
	}
	deg, min, sec := vv[0].Float64(), vv[1].Float64(), vv[2].Float64()
	d := deg + min/60 + sec/3600
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0, fmt.Errorf("invalid degrees %s", vv)
	}
	return d, nil
}

func formatUserComment(b []byte) string {
	if len(b) < 8 {
		return printableString(string(b))
	}
	prefix, text := b[:8], b[8:]
	switch {
	case bytes.Equal(prefix, userCommentUnicode):
		// The byte order is not stored in the comment; use a BOM if there is one.
		s, err := xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder().Bytes(text)
		if err != nil {
			return printableString(string(text))
		}
		return printableString(string(s))
	case bytes.Equal(prefix, userCommentASCII),
		bytes.Equal(prefix, userCommentJIS),
		bytes.Equal(prefix, userCommentUndefined):
		return printableString(decodeLossyUTF8(trimBytesNulls(text)))
	default:
		return Undefined(b).String()
	}
}

func printableString(s string) string {
	ss := strings.Map(func(r rune) rune {
		if unicode.IsGraphic(r) {
			return r
		}
		return -1
	}, s)

	return strings.TrimSpace(ss)
}

func isPrintableASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c < 0x20 || c > 0x7e {
			return false
		}
	}
	return true
}

func trimBytesNulls(b []byte) []byte {
	var lo, hi int
	for lo = 0; lo < len(b) && b[lo] == 0; lo++ {
	}
	for hi = len(b) - 1; hi >= 0 && b[hi] == 0; hi-- {
	}
	if lo > hi {
		return nil
	}
	return b[lo : hi+1]
}
