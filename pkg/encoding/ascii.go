// Package encoding provides text encoding utilities for the scene wire format.
package encoding

import (
	"bytes"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Replacement is written in place of characters that have no ASCII form.
const Replacement = '?'

// asciiFold decomposes accented letters, drops the combining marks and maps
// whatever is left outside ASCII to Replacement.
func asciiFold() transform.Transformer {
	return transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		runes.Map(func(r rune) rune {
			if r > unicode.MaxASCII {
				return Replacement
			}
			return r
		}),
		norm.NFC,
	)
}

// ToASCII converts a UTF-8 string to ASCII bytes.
// "Café" becomes "Cafe"; characters without a Latin base become '?'.
func ToASCII(s string) []byte {
	if isASCII(s) {
		return []byte(s)
	}
	result, _, err := transform.Bytes(asciiFold(), []byte(s))
	if err != nil {
		// Fall back to a byte-wise replacement
		out := make([]byte, 0, len(s))
		for _, r := range s {
			if r > unicode.MaxASCII {
				r = Replacement
			}
			out = append(out, byte(r))
		}
		return out
	}
	return result
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > unicode.MaxASCII {
			return false
		}
	}
	return true
}

// TrimNullBytes removes trailing NUL padding from a byte slice.
func TrimNullBytes(data []byte) []byte {
	return bytes.TrimRight(data, "\x00")
}

// ToFixed converts s to a size-byte ASCII buffer padded with NUL bytes.
// Strings longer than size are cut; the second result reports whether that
// happened. The buffer never grows past size.
func ToFixed(s string, size int) ([]byte, bool) {
	result := make([]byte, size)
	encoded := ToASCII(s)
	n := copy(result, encoded)
	return result, n < len(encoded)
}

// FromFixed converts a NUL-padded fixed-size buffer back to a string. Only
// the trailing padding is removed; a NUL followed by other bytes is kept.
func FromFixed(data []byte) string {
	return string(TrimNullBytes(data))
}
