// Package source provides source-span handles, byte-offset/line-column
// conversion, and a Source Map v3 VLQ encoder reused by `novac dump-ir
// --with-debug-map` to thread IR debug info back to source positions.
// See https://sourcemaps.info/spec.html for the VLQ/mappings format.
package source

import "strings"

// base64Alphabet is the alphabet used for VLQ encoding in source maps.
const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// VLQ constants
const (
	vlqBaseShift       = 5
	vlqBase            = 1 << vlqBaseShift // 32
	vlqBaseMask        = vlqBase - 1       // 31 (0x1F)
	vlqContinuationBit = vlqBase           // 32 (0x20)
	vlqSignBit         = 1
)

// EncodeVLQ encodes a signed integer as a VLQ base64 string, following the
// source map v3 specification.
func EncodeVLQ(value int) string {
	var buf strings.Builder

	// Convert to VLQ signed representation:
	// - Positive numbers: value << 1
	// - Negative numbers: ((-value) << 1) | 1
	var vlq uint32
	if value < 0 {
		vlq = uint32((-value) << 1) | vlqSignBit
	} else {
		vlq = uint32(value << 1)
	}

	// Encode as base64 VLQ
	for {
		digit := vlq & vlqBaseMask
		vlq >>= vlqBaseShift

		if vlq > 0 {
			// More digits to come, set continuation bit
			digit |= vlqContinuationBit
		}

		buf.WriteByte(base64Alphabet[digit])

		if vlq == 0 {
			break
		}
	}

	return buf.String()
}
