// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package scorpion

import (
	"fmt"
	"strings"
	"unicode"
)

// UnknownPrefix is used as prefix for unknown tags.
const UnknownPrefix = "UnknownTag_"

const (
	tagExifIFDPointer    uint16 = 0x8769
	tagGPSIFDPointer     uint16 = 0x8825
	tagInteropIFDPointer uint16 = 0xa005
)

// Directory identifies which kind of IFD a tag code belongs to.
// The GPS and Interoperability directories reuse the low code space,
// so a tag code is only meaningful together with its directory.
type Directory uint8

const (
	// DirectoryIFD is a directory in the main chain: IFD0, IFD1 and so on.
	DirectoryIFD Directory = iota
	// DirectoryExif is the Exif sub-IFD.
	DirectoryExif
	// DirectoryGPS is the GPS sub-IFD.
	DirectoryGPS
	// DirectoryInterop is the Interoperability sub-IFD.
	DirectoryInterop
)

func (d Directory) String() string {
	switch d {
	case DirectoryIFD:
		return "IFD"
	case DirectoryExif:
		return "ExifIFD"
	case DirectoryGPS:
		return "GPSIFD"
	case DirectoryInterop:
		return "InteropIFD"
	default:
		return fmt.Sprintf("Directory(%d)", uint8(d))
	}
}

// subIFDPointers maps the pointer tag codes to the directory they point to.
var subIFDPointers = map[uint16]Directory{
	tagExifIFDPointer:    DirectoryExif,
	tagGPSIFDPointer:     DirectoryGPS,
	tagInteropIFDPointer: DirectoryInterop,
}

// Tag is a tag code in the context of the directory it was read from.
type Tag struct {
	Code      uint16
	Directory Directory
}

// LookupTag returns the tag for code as read from a directory of kind dir.
// It never fails; codes not in the table are kept and reported as unknown.
func LookupTag(dir Directory, code uint16) Tag {
	return Tag{Code: code, Directory: dir}
}

// IsKnown reports whether the tag code is in the table for its directory.
func (t Tag) IsKnown() bool {
	_, ok := t.def()
	return ok
}

// Name returns the identifier of the tag, e.g. "DateTimeOriginal".
// Unknown tags are named UnknownPrefix followed by the hex code.
func (t Tag) Name() string {
	if def, ok := t.def(); ok {
		return def.name
	}
	return fmt.Sprintf("%s0x%04x", UnknownPrefix, t.Code)
}

// String returns the display label of the tag, e.g. "Date/Time Original".
// Unknown tags render as "Unknown".
func (t Tag) String() string {
	def, ok := t.def()
	if !ok {
		return "Unknown"
	}
	if def.label != "" {
		return def.label
	}
	return splitCamelCase(def.name)
}

// IsSubIFDPointer reports whether the tag holds the offset of another IFD
// rather than displayable data.
func (t Tag) IsSubIFDPointer() bool {
	_, ok := t.subIFD()
	return ok
}

// subIFD returns the directory the pointer tag t refers to.
func (t Tag) subIFD() (Directory, bool) {
	if t.Directory != DirectoryIFD && t.Directory != DirectoryExif {
		return 0, false
	}
	dir, ok := subIFDPointers[t.Code]
	return dir, ok
}

func (t Tag) def() (tagDef, bool) {
	var table map[uint16]tagDef
	switch t.Directory {
	case DirectoryGPS:
		table = fieldsGPS
	case DirectoryInterop:
		table = fieldsInterop
	default:
		table = fieldsExif
	}
	def, ok := table[t.Code]
	return def, ok
}

// tagDef is one row of a tag table.
// label is only set when it differs from the name split on case changes.
type tagDef struct {
	name  string
	label string
}

// splitCamelCase turns "ExposureProgram" into "Exposure Program".
// Runs of capitals are kept together, so "GPSDOP" stays as is.
func splitCamelCase(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	for i, r := range rs {
		if i > 0 && unicode.IsUpper(r) {
			prev := rs[i-1]
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				sb.WriteByte(' ')
			}
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// fieldsExif holds the baseline TIFF tags, the Exif tags and the sub-IFD pointers.
// Chain IFDs and the Exif IFD share this table.
var fieldsExif = map[uint16]tagDef{
	// TIFF
	0x0100: {name: "ImageWidth"},
	0x0101: {name: "ImageLength", label: "Image Height"},
	0x0102: {name: "BitsPerSample"},
	0x0103: {name: "Compression"},
	0x0106: {name: "PhotometricInterpretation"},
	0x010e: {name: "ImageDescription"},
	0x010f: {name: "Make"},
	0x0110: {name: "Model", label: "Camera Model Name"},
	0x0111: {name: "StripOffsets"},
	0x0112: {name: "Orientation"},
	0x0115: {name: "SamplesPerPixel"},
	0x0116: {name: "RowsPerStrip"},
	0x0117: {name: "StripByteCounts"},
	0x011a: {name: "XResolution", label: "X Resolution"},
	0x011b: {name: "YResolution", label: "Y Resolution"},
	0x011c: {name: "PlanarConfiguration"},
	0x0128: {name: "ResolutionUnit"},
	0x012d: {name: "TransferFunction"},
	0x0131: {name: "Software"},
	0x0132: {name: "DateTime", label: "Modify Date"},
	0x013b: {name: "Artist"},
	0x013e: {name: "WhitePoint"},
	0x013f: {name: "PrimaryChromaticities"},
	0x0201: {name: "JPEGInterchangeFormat", label: "JPEG Interchange Format"},
	0x0202: {name: "JPEGInterchangeFormatLength", label: "JPEG Interchange Format Length"},
	0x0211: {name: "YCbCrCoefficients", label: "Y Cb Cr Coefficients"},
	0x0212: {name: "YCbCrSubSampling", label: "Y Cb Cr Sub Sampling"},
	0x0213: {name: "YCbCrPositioning", label: "Y Cb Cr Positioning"},
	0x0214: {name: "ReferenceBlackWhite"},
	0x8298: {name: "Copyright"},

	// Pointers
	tagExifIFDPointer:    {name: "ExifIFDPointer", label: "Exif IFD Pointer"},
	tagGPSIFDPointer:     {name: "GPSInfoIFDPointer", label: "GPS Info IFD Pointer"},
	tagInteropIFDPointer: {name: "InteroperabilityIFDPointer", label: "Interoperability IFD Pointer"},

	// Exif
	0x829a: {name: "ExposureTime"},
	0x829d: {name: "FNumber", label: "F Number"},
	0x8822: {name: "ExposureProgram"},
	0x8824: {name: "SpectralSensitivity"},
	0x8827: {name: "ISOSpeedRatings", label: "ISO"},
	0x8828: {name: "OECF", label: "Opto-Electric Conv Factor"},
	0x8830: {name: "SensitivityType"},
	0x9000: {name: "ExifVersion"},
	0x9003: {name: "DateTimeOriginal", label: "Date/Time Original"},
	0x9004: {name: "DateTimeDigitized", label: "Create Date"},
	0x9010: {name: "OffsetTime"},
	0x9011: {name: "OffsetTimeOriginal"},
	0x9012: {name: "OffsetTimeDigitized"},
	0x9101: {name: "ComponentsConfiguration"},
	0x9102: {name: "CompressedBitsPerPixel"},
	0x9201: {name: "ShutterSpeedValue"},
	0x9202: {name: "ApertureValue"},
	0x9203: {name: "BrightnessValue"},
	0x9204: {name: "ExposureBiasValue", label: "Exposure Compensation"},
	0x9205: {name: "MaxApertureValue"},
	0x9206: {name: "SubjectDistance"},
	0x9207: {name: "MeteringMode"},
	0x9208: {name: "LightSource"},
	0x9209: {name: "Flash"},
	0x920a: {name: "FocalLength"},
	0x9214: {name: "SubjectArea"},
	0x927c: {name: "MakerNote"},
	0x9286: {name: "UserComment"},
	0x9290: {name: "SubSecTime"},
	0x9291: {name: "SubSecTimeOriginal"},
	0x9292: {name: "SubSecTimeDigitized"},
	0x9c9b: {name: "XPTitle", label: "XP Title"},
	0x9c9c: {name: "XPComment", label: "XP Comment"},
	0x9c9d: {name: "XPAuthor", label: "XP Author"},
	0x9c9e: {name: "XPKeywords", label: "XP Keywords"},
	0x9c9f: {name: "XPSubject", label: "XP Subject"},
	0xa000: {name: "FlashpixVersion"},
	0xa001: {name: "ColorSpace"},
	0xa002: {name: "PixelXDimension", label: "Exif Image Width"},
	0xa003: {name: "PixelYDimension", label: "Exif Image Height"},
	0xa004: {name: "RelatedSoundFile"},
	0xa20b: {name: "FlashEnergy"},
	0xa20c: {name: "SpatialFrequencyResponse"},
	0xa20e: {name: "FocalPlaneXResolution", label: "Focal Plane X Resolution"},
	0xa20f: {name: "FocalPlaneYResolution", label: "Focal Plane Y Resolution"},
	0xa210: {name: "FocalPlaneResolutionUnit"},
	0xa214: {name: "SubjectLocation"},
	0xa215: {name: "ExposureIndex"},
	0xa217: {name: "SensingMethod"},
	0xa300: {name: "FileSource"},
	0xa301: {name: "SceneType"},
	0xa302: {name: "CFAPattern", label: "CFA Pattern"},
	0xa401: {name: "CustomRendered"},
	0xa402: {name: "ExposureMode"},
	0xa403: {name: "WhiteBalance"},
	0xa404: {name: "DigitalZoomRatio"},
	0xa405: {name: "FocalLengthIn35mmFilm", label: "Focal Length In 35mm Format"},
	0xa406: {name: "SceneCaptureType"},
	0xa407: {name: "GainControl"},
	0xa408: {name: "Contrast"},
	0xa409: {name: "Saturation"},
	0xa40a: {name: "Sharpness"},
	0xa40b: {name: "DeviceSettingDescription"},
	0xa40c: {name: "SubjectDistanceRange"},
	0xa420: {name: "ImageUniqueID", label: "Image Unique ID"},
	0xa430: {name: "CameraOwnerName"},
	0xa431: {name: "BodySerialNumber"},
	0xa432: {name: "LensSpecification", label: "Lens Info"},
	0xa433: {name: "LensMake"},
	0xa434: {name: "LensModel"},
	0xa435: {name: "LensSerialNumber"},
}

var fieldsGPS = map[uint16]tagDef{
	0x00: {name: "GPSVersionID", label: "GPS Version ID"},
	0x01: {name: "GPSLatitudeRef", label: "GPS Latitude Ref"},
	0x02: {name: "GPSLatitude", label: "GPS Latitude"},
	0x03: {name: "GPSLongitudeRef", label: "GPS Longitude Ref"},
	0x04: {name: "GPSLongitude", label: "GPS Longitude"},
	0x05: {name: "GPSAltitudeRef", label: "GPS Altitude Ref"},
	0x06: {name: "GPSAltitude", label: "GPS Altitude"},
	0x07: {name: "GPSTimeStamp", label: "GPS Time Stamp"},
	0x08: {name: "GPSSatellites", label: "GPS Satellites"},
	0x09: {name: "GPSStatus", label: "GPS Status"},
	0x0a: {name: "GPSMeasureMode", label: "GPS Measure Mode"},
	0x0b: {name: "GPSDOP", label: "GPS Dilution Of Precision"},
	0x0c: {name: "GPSSpeedRef", label: "GPS Speed Ref"},
	0x0d: {name: "GPSSpeed", label: "GPS Speed"},
	0x0e: {name: "GPSTrackRef", label: "GPS Track Ref"},
	0x0f: {name: "GPSTrack", label: "GPS Track"},
	0x10: {name: "GPSImgDirectionRef", label: "GPS Img Direction Ref"},
	0x11: {name: "GPSImgDirection", label: "GPS Img Direction"},
	0x12: {name: "GPSMapDatum", label: "GPS Map Datum"},
	0x13: {name: "GPSDestLatitudeRef", label: "GPS Dest Latitude Ref"},
	0x14: {name: "GPSDestLatitude", label: "GPS Dest Latitude"},
	0x15: {name: "GPSDestLongitudeRef", label: "GPS Dest Longitude Ref"},
	0x16: {name: "GPSDestLongitude", label: "GPS Dest Longitude"},
	0x17: {name: "GPSDestBearingRef", label: "GPS Dest Bearing Ref"},
	0x18: {name: "GPSDestBearing", label: "GPS Dest Bearing"},
	0x19: {name: "GPSDestDistanceRef", label: "GPS Dest Distance Ref"},
	0x1a: {name: "GPSDestDistance", label: "GPS Dest Distance"},
	0x1b: {name: "GPSProcessingMethod", label: "GPS Processing Method"},
	0x1c: {name: "GPSAreaInformation", label: "GPS Area Information"},
	0x1d: {name: "GPSDateStamp", label: "GPS Date Stamp"},
	0x1e: {name: "GPSDifferential", label: "GPS Differential"},
}

var fieldsInterop = map[uint16]tagDef{
	0x0001: {name: "InteroperabilityIndex", label: "Interop Index"},
	0x0002: {name: "InteroperabilityVersion", label: "Interop Version"},
	0x1000: {name: "RelatedImageFileFormat"},
	0x1001: {name: "RelatedImageWidth"},
	0x1002: {name: "RelatedImageLength", label: "Related Image Height"},
}
