// Package jpegmeta carries APPn metadata from a source JPEG over to a freshly
// encoded one and stamps written files with a signature segment.
package jpegmeta

import (
	"bytes"
	"strings"
)

const (
	markerSOI   = 0xD8
	markerSOF0  = 0xC0
	markerSOF2  = 0xC2
	markerSOS   = 0xDA
	markerCOM   = 0xFE
	markerAPP0  = 0xE0
	markerAPP15 = 0xEF
)

// Segments returns the APPn segments of a JPEG stream (marker included) up to
// the first frame or scan header. Unless keepAll is set, bulky segments that
// add nothing to an edited image are dropped: extended XMP, Photoshop
// resources and FlashPix data.
func Segments(data []byte, keepAll bool) [][]byte {
	var segments [][]byte
	for i := 0; i < len(data)-1; {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0x00 || marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOI {
			i += 2
			continue
		}
		if marker == markerSOS || marker == markerSOF0 || marker == markerSOF2 {
			break
		}
		if i+3 >= len(data) {
			break
		}
		length := int(data[i+2])<<8 | int(data[i+3])

		if marker >= markerAPP0 && marker <= markerAPP15 && i+2+length <= len(data) {
			segment := data[i : i+2+length]
			if keepAll || keep(marker, segment) {
				segments = append(segments, segment)
			}
		}
		i += 2 + length
	}
	return segments
}

func keep(marker byte, segment []byte) bool {
	length := len(segment) - 2
	switch {
	case marker == 0xE1 && length > 35:
		return string(segment[4:33]) != "http://ns.adobe.com/xmp/exten"
	case marker == 0xED && length > 14:
		return string(segment[4:14]) != "Photoshop "
	case marker == 0xE2 && length > 10:
		return string(segment[4:9]) != "FPXR\x00"
	}
	return true
}

// imageDataStart returns the offset of the first non-metadata marker.
func imageDataStart(data []byte) int {
	for i := 0; i < len(data)-1; {
		if data[i] != 0xFF {
			i++
			continue
		}
		marker := data[i+1]
		if marker == 0x00 || marker == 0xFF {
			i++
			continue
		}
		if marker == markerSOI {
			i += 2
			continue
		}
		if (marker < markerAPP0 || marker > markerAPP15) && marker != markerCOM {
			return i
		}
		if i+3 >= len(data) {
			break
		}
		i += 2 + (int(data[i+2])<<8 | int(data[i+3]))
	}
	return -1
}

// Splice rebuilds the JPEG encoded: SOI, an APP15 segment carrying signature
// (when non-empty), the given segments, then encoded's image data. Metadata
// already present in encoded is replaced.
func Splice(encoded []byte, segments [][]byte, signature string) []byte {
	var out bytes.Buffer
	out.Write([]byte{0xFF, markerSOI})

	if signature != "" {
		sig := []byte(signature)
		out.Write([]byte{0xFF, markerAPP15, byte((len(sig) + 2) >> 8), byte((len(sig) + 2) & 0xFF)})
		out.Write(sig)
	}
	for _, seg := range segments {
		// Avoid duplicating our own signature if it was already in an APP15
		if signature != "" && len(seg) > 2 && seg[1] == markerAPP15 && bytes.Contains(seg, []byte(signature)) {
			continue
		}
		out.Write(seg)
	}

	if start := imageDataStart(encoded); start != -1 {
		out.Write(encoded[start:])
	} else if len(encoded) > 2 {
		out.Write(encoded[2:])
	}
	return out.Bytes()
}

// signatureWindow is how far into a file HasSignature looks.
const signatureWindow = 32768

// HasSignature reports whether data was already stamped with signature.
func HasSignature(data []byte, signature string) bool {
	limit := min(len(data), signatureWindow)
	return strings.Contains(string(data[:limit]), signature)
}
