// Package meta extracts embedded resolution (DPI) metadata from raw image
// bytes without decoding pixels. It understands the PNG pHYs chunk and the
// JPEG EXIF IFD0 resolution tags.
package meta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
)

// Resolution is the embedded DPI metadata of an image. Purely informational;
// it plays no part in crop geometry.
type Resolution struct {
	DPIX float64 `json:"dpiX"`
	DPIY float64 `json:"dpiY"`
}

// ErrNoMetadata means the file carries no resolution metadata at all. Callers
// may fall back to another parser or a display default.
var ErrNoMetadata = errors.New("no resolution metadata")

// ErrUnknownResolution means resolution metadata is present but unusable:
// an unsupported unit, a zero value, or a malformed/truncated structure.
var ErrUnknownResolution = errors.New("resolution unknown")

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

const metersPerInch = 0.0254

// Extract parses resolution metadata from raw file bytes, trying the PNG
// parser first and the JPEG parser second. It never panics on malformed
// input; every failure degrades to ErrUnknownResolution or ErrNoMetadata.
func Extract(data []byte) (Resolution, error) {
	if IsPNG(data) {
		return ParsePNG(data)
	}
	if IsJPEG(data) {
		return ParseJPEG(data)
	}
	return Resolution{}, ErrUnknownResolution
}

// IsPNG reports whether data starts with the 8-byte PNG signature.
func IsPNG(data []byte) bool {
	return len(data) >= len(pngSignature) && bytes.Equal(data[:len(pngSignature)], pngSignature)
}

// IsJPEG reports whether data starts with the JPEG SOI marker.
func IsJPEG(data []byte) bool {
	return len(data) >= 2 && data[0] == 0xFF && data[1] == 0xD8
}

// ParsePNG walks the PNG chunk stream looking for a pHYs chunk. A chunk with
// unit "meter" and non-zero densities yields DPI rounded from pixels-per-
// meter; any other pHYs content is ErrUnknownResolution. A stream without a
// pHYs chunk is ErrNoMetadata.
func ParsePNG(data []byte) (Resolution, error) {
	if !IsPNG(data) {
		return Resolution{}, ErrNoMetadata
	}

	off := len(pngSignature)
	for off+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[off : off+4]))
		typ := string(data[off+4 : off+8])

		if typ == "pHYs" && length >= 9 {
			// Densities at +8/+12 from chunk start, unit byte at +16.
			if off+17 > len(data) {
				return Resolution{}, ErrUnknownResolution
			}
			ppuX := binary.BigEndian.Uint32(data[off+8 : off+12])
			ppuY := binary.BigEndian.Uint32(data[off+12 : off+16])
			unit := data[off+16]

			if unit == 1 && ppuX != 0 && ppuY != 0 {
				return Resolution{
					DPIX: math.Round(float64(ppuX) * metersPerInch),
					DPIY: math.Round(float64(ppuY) * metersPerInch),
				}, nil
			}
			return Resolution{}, ErrUnknownResolution
		}
		if typ == "IEND" {
			break
		}
		if length < 0 {
			return Resolution{}, ErrUnknownResolution
		}
		off += 8 + length + 4 // header + data + CRC
	}

	return Resolution{}, ErrNoMetadata
}

// ParseJPEG walks the JPEG marker stream looking for an APP1 segment with an
// "Exif\0\0" payload and reads the IFD0 resolution tags from the embedded
// TIFF structure. A stream without an EXIF segment is ErrNoMetadata; a
// malformed or truncated TIFF structure is ErrUnknownResolution.
func ParseJPEG(data []byte) (Resolution, error) {
	if !IsJPEG(data) {
		return Resolution{}, ErrNoMetadata
	}

	i := 2
	for i+4 <= len(data) {
		if data[i] != 0xFF {
			break
		}
		marker := data[i+1]
		if marker == 0xD9 || marker == 0xDA { // EOI / SOS: entropy data follows
			break
		}
		if marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) { // standalone
			i += 2
			continue
		}

		segLen := int(binary.BigEndian.Uint16(data[i+2 : i+4])) // includes itself
		if segLen < 2 || i+2+segLen > len(data) {
			break
		}

		if marker == 0xE1 {
			seg := data[i+4 : i+2+segLen]
			if bytes.HasPrefix(seg, []byte("Exif\x00\x00")) {
				return parseTIFFResolution(seg[6:])
			}
		}
		i += 2 + segLen
	}

	return Resolution{}, ErrNoMetadata
}

// EXIF IFD0 tags of interest.
const (
	tagXResolution    = 0x011A
	tagYResolution    = 0x011B
	tagResolutionUnit = 0x0128
)

func parseTIFFResolution(tiff []byte) (Resolution, error) {
	if len(tiff) < 8 {
		return Resolution{}, ErrUnknownResolution
	}

	var order binary.ByteOrder
	switch {
	case tiff[0] == 'I' && tiff[1] == 'I':
		order = binary.LittleEndian
	case tiff[0] == 'M' && tiff[1] == 'M':
		order = binary.BigEndian
	default:
		return Resolution{}, ErrUnknownResolution
	}
	if order.Uint16(tiff[2:4]) != 42 {
		return Resolution{}, ErrUnknownResolution
	}

	ifd := int(order.Uint32(tiff[4:8]))
	if ifd < 0 || ifd+2 > len(tiff) {
		return Resolution{}, ErrUnknownResolution
	}

	count := int(order.Uint16(tiff[ifd : ifd+2]))
	var xres, yres float64
	var haveX, haveY bool
	unit := 2 // inches unless stated otherwise

	for n := 0; n < count; n++ {
		off := ifd + 2 + n*12
		if off+12 > len(tiff) {
			return Resolution{}, ErrUnknownResolution
		}

		switch order.Uint16(tiff[off : off+2]) {
		case tagXResolution:
			v, err := rationalAt(tiff, int(order.Uint32(tiff[off+8:off+12])), order)
			if err != nil {
				return Resolution{}, err
			}
			xres, haveX = v, true
		case tagYResolution:
			v, err := rationalAt(tiff, int(order.Uint32(tiff[off+8:off+12])), order)
			if err != nil {
				return Resolution{}, err
			}
			yres, haveY = v, true
		case tagResolutionUnit:
			unit = int(order.Uint16(tiff[off+8 : off+10])) // inline short
		}
	}

	if !haveX || !haveY {
		return Resolution{}, ErrUnknownResolution
	}

	switch unit {
	case 2: // inches
		return Resolution{DPIX: xres, DPIY: yres}, nil
	case 3: // centimeters
		return Resolution{DPIX: xres * 2.54, DPIY: yres * 2.54}, nil
	default:
		return Resolution{}, ErrUnknownResolution
	}
}

// rationalAt reads an 8-byte rational (numerator, denominator) at the given
// offset relative to the TIFF header start.
func rationalAt(tiff []byte, off int, order binary.ByteOrder) (float64, error) {
	if off < 0 || off+8 > len(tiff) {
		return 0, ErrUnknownResolution
	}
	num := order.Uint32(tiff[off : off+4])
	den := order.Uint32(tiff[off+4 : off+8])
	if den == 0 {
		return 0, ErrUnknownResolution
	}
	return float64(num) / float64(den), nil
}
