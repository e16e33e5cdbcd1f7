// Package newformat implements the XOR-over-encoding scheme: a base64 or
// hex payload whose bytes are XORed with a short repeating key. The key is
// not transmitted, so decoding walks an ordered list of candidate keys and
// stops at the first one that yields a valid URL.
package newformat

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ytget/streamdec/errs"
	"github.com/ytget/streamdec/internal/urlextract"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/types"
)

// DecoderName identifies this decoder in attempt lists and results.
const DecoderName = "new-format-decoder"

// Fixed keys observed on historical captures. Tried after the derived keys.
var historicalKeys = [][]byte{
	{0x33},
	{0x55, 0xAA},
}

// CanDecode reports whether the trimmed input has new-format shape: no
// colon, and either base64 (full alphabet, padding only as 0-2 trailing
// '=') or even-length hex.
func CanDecode(encoded string) bool {
	t := strings.TrimSpace(encoded)
	if t == "" || strings.ContainsRune(t, ':') {
		return false
	}
	if pattern.IsPureHex(t) && len(t)%2 == 0 {
		return true
	}
	return base64Shape(t)
}

// Decode decodes the payload to raw bytes, then tries each candidate XOR
// key in order until URL extraction succeeds on the transformed text.
func Decode(encoded string) types.DecodeResult {
	start := time.Now()
	result := types.DecodeResult{
		Pattern:     types.PatternNewFormat,
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

	raw, err := decodePayload(t)
	if err != nil {
		return fail(errs.NewDecodeFailed(err.Error(), encoded, types.PatternNewFormat, []string{DecoderName}))
	}

	for _, key := range CandidateKeys(t) {
		urls := urlextract.Extract(applyXOR(raw, key))
		if len(urls) == 0 {
			continue
		}
		result.Success = true
		result.URLs = urls
		result.Metadata.DecodeTime = time.Since(start)
		return result
	}
	return fail(errs.NewNoURLsFound("No URLs found for any candidate key", encoded, types.PatternNewFormat))
}

// CandidateKeys returns the ordered XOR key list for an input: the empty
// key first, then keys derived deterministically from the input itself,
// then the fixed historical keys.
func CandidateKeys(trimmed string) [][]byte {
	keys := [][]byte{nil}
	keys = append(keys, []byte{byte(len(trimmed) % 256)})
	keys = append(keys, []byte{xorFold(trimmed)})
	digest := sha1.Sum([]byte(trimmed))
	keys = append(keys, digest[:4])
	keys = append(keys, historicalKeys...)
	return keys
}

func xorFold(s string) byte {
	var acc byte
	for i := 0; i < len(s); i++ {
		acc ^= s[i]
	}
	return acc
}

// applyXOR decodes raw XOR key to text; a result that is itself well-formed
// base64 is unwrapped one more time, since some providers double-wrap the
// payload.
func applyXOR(raw []byte, key []byte) string {
	buf := raw
	if len(key) > 0 {
		buf = make([]byte, len(raw))
		for i, b := range raw {
			buf[i] = b ^ key[i%len(key)]
		}
	}
	text := string(buf)
	if len(text) >= 8 && pattern.IsWellFormedBase64(text) {
		if inner, err := base64.StdEncoding.DecodeString(text); err == nil {
			return text + "\n" + string(inner)
		}
	}
	return text
}

func decodePayload(t string) ([]byte, error) {
	if pattern.IsPureHex(t) && len(t)%2 == 0 {
		return hex.DecodeString(t)
	}
	if !base64Shape(t) {
		return nil, errors.New("input is neither valid base64 nor valid hex")
	}
	if len(t)%4 == 0 {
		return base64.StdEncoding.DecodeString(t)
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(t, "="))
}

func base64Shape(t string) bool {
	if !pattern.IsPureBase64(t) {
		return false
	}
	trimmed := strings.TrimRight(t, "=")
	if len(t)-len(trimmed) > 2 {
		return false
	}
	return !strings.Contains(trimmed, "=")
}
