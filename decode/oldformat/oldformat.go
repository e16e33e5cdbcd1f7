// Package oldformat implements the reverse-hex-shift scheme: the payload is
// a reversed hex string whose byte values are shifted up by one, wrapped in
// colon delimiters and beyond-hex junk characters.
package oldformat

import (
	"strings"
	"time"

	"github.com/ytget/streamdec/errs"
	"github.com/ytget/streamdec/internal/urlextract"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/types"
)

// DecoderName identifies this decoder in attempt lists and results.
const DecoderName = "old-format-decoder"

// CanDecode mirrors the detector's OLD_FORMAT structural rule: at least one
// colon delimiter plus at least one beyond-hex letter.
func CanDecode(encoded string) bool {
	t := strings.TrimSpace(encoded)
	if t == "" || !strings.ContainsRune(t, ':') {
		return false
	}
	for _, c := range t {
		if pattern.IsBeyondHexChar(c) {
			return true
		}
	}
	return false
}

// Decode reverses the input, reads it as hex byte pairs, shifts every byte
// down by one modulo 256 and scans the resulting text for URLs. Characters
// that cannot form hex pairs (delimiters, junk letters) are treated as
// non-matching and dropped.
func Decode(encoded string) types.DecodeResult {
	start := time.Now()
	result := types.DecodeResult{
		Pattern:     types.PatternOldFormat,
		DecoderUsed: DecoderName,
		Metadata:    types.Metadata{AttemptedDecoders: []string{DecoderName}},
	}
	fail := func(err error) types.DecodeResult {
		result.Err = err
		result.Metadata.DecodeTime = time.Since(start)
		return result
	}

	t := strings.TrimSpace(encoded)
	if t == "" {
		return fail(errs.NewInvalidInput("encoded string is empty", encoded))
	}

	decoded := shiftedHexText(reverse(t))
	urls := urlextract.Extract(decoded)
	if len(urls) == 0 {
		return fail(errs.NewNoURLsFound("No URLs found in decoded old-format text", encoded, types.PatternOldFormat))
	}

	result.Success = true
	result.URLs = urls
	result.Metadata.DecodeTime = time.Since(start)
	return result
}

// shiftedHexText keeps only hex digits, decodes them pairwise and applies
// the minus-one byte shift. A trailing lone nibble is dropped.
func shiftedHexText(s string) string {
	hexOnly := make([]rune, 0, len(s))
	for _, c := range s {
		if pattern.IsHexChar(c) {
			hexOnly = append(hexOnly, c)
		}
	}
	if len(hexOnly)%2 != 0 {
		hexOnly = hexOnly[:len(hexOnly)-1]
	}
	out := make([]byte, 0, len(hexOnly)/2)
	for i := 0; i+1 < len(hexOnly); i += 2 {
		b := hexVal(hexOnly[i])<<4 | hexVal(hexOnly[i+1])
		out = append(out, byte((int(b)+255)%256))
	}
	return string(out)
}

func hexVal(c rune) byte {
	switch {
	case c >= '0' && c <= '9':
		return byte(c - '0')
	case c >= 'a' && c <= 'f':
		return byte(c-'a') + 10
	default:
		return byte(c-'A') + 10
	}
}

func reverse(s string) string {
	r := []rune(s)
	for i, j := 0, len(r)-1; i < j; i, j = i+1, j-1 {
		r[i], r[j] = r[j], r[i]
	}
	return string(r)
}
