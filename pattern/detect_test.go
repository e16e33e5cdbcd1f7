package pattern

import (
	"strings"
	"testing"

	"github.com/ytget/streamdec/types"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    types.PatternType
	}{
		{
			name:    "empty string",
			encoded: "",
			want:    types.PatternUnknown,
		},
		{
			name:    "whitespace only",
			encoded: "   \t\n",
			want:    types.PatternUnknown,
		},
		{
			name:    "colons but only hex chars is not old format",
			encoded: "abc:def:ghi",
			want:    types.PatternUnknown,
		},
		{
			name:    "colons with beyond-hex chars is old format",
			encoded: "abc:def:ghi:xyz",
			want:    types.PatternOldFormat,
		},
		{
			name:    "well formed base64 is new format",
			encoded: "SGVsbG8gV29ybGQ=",
			want:    types.PatternNewFormat,
		},
		{
			name:    "even length hex is new format",
			encoded: "68747470",
			want:    types.PatternNewFormat,
		},
		{
			// The colon + beyond-hex rule has no base64 exemption.
			name:    "base64 lookalike with colon is old format",
			encoded: "SGVs:bG8=",
			want:    types.PatternOldFormat,
		},
		{
			name:    "invalid chars rejected",
			encoded: "hello world!",
			want:    types.PatternUnknown,
		},
		{
			name:    "leading and trailing whitespace ignored",
			encoded: "  SGVsbG8gV29ybGQ=  ",
			want:    types.PatternNewFormat,
		},
		{
			name:    "window assignment script",
			encoded: `window['cfg']='aGVsbG8=';`,
			want:    types.PatternScriptFormat,
		},
		{
			name:    "function script with colons and letters",
			encoded: `function d(a){return a.split(":").reverse().join("");}`,
			want:    types.PatternScriptFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Detect(tt.encoded); got != tt.want {
				t.Errorf("Detect(%q) = %s, want %s", tt.encoded, got, tt.want)
			}
		})
	}
}

func TestConfidenceUnknownAlwaysZero(t *testing.T) {
	inputs := []string{"", "abc", "SGVsbG8=", "abc:def:xyz"}
	for _, in := range inputs {
		if got := Confidence(in, types.PatternUnknown); got != 0 {
			t.Errorf("Confidence(%q, unknown) = %v, want 0", in, got)
		}
	}
}

func TestConfidenceOldFormat(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		zero    bool
	}{
		{name: "no colon", encoded: "abcxyz", zero: true},
		{name: "no beyond-hex", encoded: "abc:def", zero: true},
		{name: "structural match", encoded: "abc:def:ghi:xyz", zero: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.encoded, types.PatternOldFormat)
			if tt.zero && got != 0 {
				t.Errorf("expected 0, got %v", got)
			}
			if !tt.zero && (got <= 0 || got > 1) {
				t.Errorf("expected score in (0,1], got %v", got)
			}
		})
	}
}

func TestConfidenceOldFormatMoreJunkScoresHigher(t *testing.T) {
	low := Confidence("aabbccdd:z", types.PatternOldFormat)
	high := Confidence("aabbccdd:zzz", types.PatternOldFormat)
	if high <= low {
		t.Errorf("expected higher beyond-hex proportion to score higher: low=%v high=%v", low, high)
	}
}

func TestConfidenceNewFormat(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		check   func(float64) bool
	}{
		{
			name:    "well formed base64 above 0.8",
			encoded: "SGVsbG8gV29ybGQ=",
			check:   func(v float64) bool { return v > 0.8 },
		},
		{
			name:    "well formed hex above 0.8",
			encoded: "deadbeef00",
			check:   func(v float64) bool { return v > 0.8 },
		},
		{
			name:    "wrong padding length positive but lower",
			encoded: "SGVsbG8gV29ybGQ",
			check:   func(v float64) bool { return v > 0 && v <= 0.8 },
		},
		{
			name:    "colon gives zero",
			encoded: "SGVs:bG8=",
			check:   func(v float64) bool { return v == 0 },
		},
		{
			name:    "invalid chars give zero",
			encoded: "not base64!",
			check:   func(v float64) bool { return v == 0 },
		},
		{
			name:    "trimmed before scoring",
			encoded: "  SGVsbG8gV29ybGQ=  ",
			check:   func(v float64) bool { return v > 0.8 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Confidence(tt.encoded, types.PatternNewFormat)
			if !tt.check(got) {
				t.Errorf("Confidence(%q) = %v out of expected range", tt.encoded, got)
			}
		})
	}
}

func TestWellFormedBase64(t *testing.T) {
	tests := []struct {
		name    string
		encoded string
		want    bool
	}{
		{name: "no padding", encoded: "SGVsbA==", want: true},
		{name: "length not multiple of 4", encoded: "SGVsbA=", want: false},
		{name: "three padding chars", encoded: "SGVsbA===", want: false},
		{name: "interior padding", encoded: "SG=sbA==", want: false},
		{name: "empty", encoded: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsWellFormedBase64(tt.encoded); got != tt.want {
				t.Errorf("IsWellFormedBase64(%q) = %v, want %v", tt.encoded, got, tt.want)
			}
		})
	}
}

func TestAnalyze(t *testing.T) {
	a := Analyze("abc:def:xyz")
	if !a.HasColons {
		t.Error("expected colons flag")
	}
	if !a.HasBeyondHexChars {
		t.Error("expected beyond-hex flag")
	}
	if a.IsPureHexCharset {
		t.Error("colon input should not be pure hex")
	}
	if a.Length != len("abc:def:xyz") {
		t.Errorf("length = %d", a.Length)
	}

	b := Analyze("  deadbeef  ")
	if !b.IsPureHexCharset {
		t.Error("trimmed hex input should be pure hex")
	}
	if b.HasWhitespace {
		t.Error("whitespace flag should apply after trimming")
	}
	if b.Length != len("deadbeef") {
		t.Errorf("trimmed length = %d", b.Length)
	}
}

func TestConfidenceVeryLongInputStable(t *testing.T) {
	long := strings.Repeat("ab:xy", 5000)
	got := Confidence(long, types.PatternOldFormat)
	if got <= 0 || got > 1 {
		t.Errorf("long input confidence out of range: %v", got)
	}
}
