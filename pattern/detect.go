// Package pattern classifies encoded strings into known obfuscation schemes
// and keeps the registry of detector/decoder pairs.
package pattern

import (
	"strings"

	"github.com/ytget/streamdec/types"
)

// IsHexChar reports whether c is a hexadecimal digit.
func IsHexChar(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// IsBeyondHexChar reports whether c is a letter clearly outside the hex
// digit set. The letters g-i directly adjacent to the hex digits appear in
// hex-like payloads too often to count as a signal, so the range starts
// at j.
func IsBeyondHexChar(c rune) bool {
	return (c >= 'j' && c <= 'z') || (c >= 'J' && c <= 'Z')
}

// IsBase64Char reports whether c belongs to the standard base64 alphabet.
func IsBase64Char(c rune) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') ||
		(c >= '0' && c <= '9') || c == '+' || c == '/' || c == '='
}

// IsPureHex reports whether s is non-empty and made of hex digits only.
func IsPureHex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !IsHexChar(c) {
			return false
		}
	}
	return true
}

// IsPureBase64 reports whether s is non-empty and made of base64 alphabet
// characters only. Padding placement is not checked here.
func IsPureBase64(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if !IsBase64Char(c) {
			return false
		}
	}
	return true
}

// IsWellFormedBase64 reports whether s has base64 shape: full alphabet,
// length a multiple of 4, and 0-2 padding characters only at the end.
func IsWellFormedBase64(s string) bool {
	if !IsPureBase64(s) || len(s)%4 != 0 {
		return false
	}
	trimmed := strings.TrimRight(s, "=")
	if len(s)-len(trimmed) > 2 {
		return false
	}
	return !strings.Contains(trimmed, "=")
}

func hasBeyondHex(s string) bool {
	for _, c := range s {
		if IsBeyondHexChar(c) {
			return true
		}
	}
	return false
}

// HasScriptMarkers reports whether s looks like an inline provider script
// rather than a plain payload. Checked before the OLD rule because scripts
// routinely contain both colons and beyond-hex letters.
func HasScriptMarkers(s string) bool {
	if strings.Contains(s, "window[") || strings.Contains(s, "window.") {
		return true
	}
	if strings.Contains(s, "{") && (strings.Contains(s, "function") || strings.Contains(s, "=>")) {
		return true
	}
	return false
}

// Detect classifies an encoded string into a PatternType. Empty,
// whitespace-only and unclassifiable input yield PatternUnknown.
func Detect(encoded string) types.PatternType {
	t := strings.TrimSpace(encoded)
	if t == "" {
		return types.PatternUnknown
	}
	if HasScriptMarkers(t) {
		return types.PatternScriptFormat
	}
	hasColon := strings.ContainsRune(t, ':')
	if hasColon && hasBeyondHex(t) {
		return types.PatternOldFormat
	}
	if !hasColon {
		if IsPureBase64(t) {
			return types.PatternNewFormat
		}
		if IsPureHex(t) && len(t)%2 == 0 {
			return types.PatternNewFormat
		}
	}
	return types.PatternUnknown
}

// Confidence scores how strongly encoded matches patternType, in [0,1].
func Confidence(encoded string, patternType types.PatternType) float64 {
	t := strings.TrimSpace(encoded)
	if t == "" {
		return 0
	}
	switch patternType {
	case types.PatternOldFormat:
		return oldFormatConfidence(t)
	case types.PatternNewFormat:
		return newFormatConfidence(t)
	case types.PatternScriptFormat:
		return scriptConfidence(t)
	}
	return 0
}

func oldFormatConfidence(t string) float64 {
	if !strings.ContainsRune(t, ':') || !hasBeyondHex(t) {
		return 0
	}
	var beyond, hexPairs, pairs int
	runes := []rune(t)
	for _, c := range runes {
		if IsBeyondHexChar(c) {
			beyond++
		}
	}
	for i := 0; i+1 < len(runes); i += 2 {
		pairs++
		if IsHexChar(runes[i]) && IsHexChar(runes[i+1]) {
			hexPairs++
		}
	}
	beyondRatio := float64(beyond) / float64(len(runes))
	var pairRatio float64
	if pairs > 0 {
		pairRatio = float64(hexPairs) / float64(pairs)
	}
	score := 0.3 + 0.4*pairRatio + 0.3*min1(beyondRatio*5)
	return min1(score)
}

func newFormatConfidence(t string) float64 {
	if strings.ContainsRune(t, ':') || !IsPureBase64(t) {
		return 0
	}
	if IsWellFormedBase64(t) {
		return 0.9
	}
	if IsPureHex(t) && len(t)%2 == 0 {
		return 0.85
	}
	// Right charset, wrong shape (padding or length off).
	return 0.5
}

func scriptConfidence(t string) float64 {
	if !HasScriptMarkers(t) {
		return 0
	}
	score := 0.75
	if strings.Contains(t, "window") {
		score += 0.15
	}
	return min1(score)
}

func min1(v float64) float64 {
	if v > 1 {
		return 1
	}
	return v
}

// Analyze builds the character-level diagnostics attached to stored
// failed attempts.
func Analyze(encoded string) types.CharacterAnalysis {
	t := strings.TrimSpace(encoded)
	return types.CharacterAnalysis{
		Length:              len(t),
		HasColons:           strings.ContainsRune(t, ':'),
		HasBeyondHexChars:   hasBeyondHex(t),
		HasScriptMarkers:    HasScriptMarkers(t),
		HasWhitespace:       strings.ContainsAny(t, " \t\n\r"),
		IsPureBase64Charset: IsPureBase64(t),
		IsPureHexCharset:    IsPureHex(t),
	}
}
