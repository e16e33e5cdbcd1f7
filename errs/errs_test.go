package errs

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ytget/streamdec/types"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "short string unchanged",
			input: "abc",
			want:  "abc",
		},
		{
			name:  "exactly 100 chars unchanged",
			input: strings.Repeat("a", 100),
			want:  strings.Repeat("a", 100),
		},
		{
			name:  "long string truncated with ellipsis",
			input: strings.Repeat("a", 150),
			want:  strings.Repeat("a", 100) + "…",
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.input); got != tt.want {
				t.Errorf("Truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTruncateMultibyte(t *testing.T) {
	input := strings.Repeat("é", 150)
	got := Truncate(input)
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if n := len([]rune(got)); n != 101 {
		t.Errorf("expected 101 runes, got %d", n)
	}
}

func TestFactories(t *testing.T) {
	long := strings.Repeat("x", 200)

	invalid := NewInvalidInput("bad input", long)
	if invalid.Kind != KindInvalidInput {
		t.Errorf("kind = %s, want %s", invalid.Kind, KindInvalidInput)
	}
	if len([]rune(invalid.Context.EncodedString)) != 101 {
		t.Errorf("context sample not truncated: %d runes", len([]rune(invalid.Context.EncodedString)))
	}

	failed := NewDecodeFailed("boom", "abc", types.PatternNewFormat, []string{"new-format-decoder"})
	if failed.Kind != KindDecodeFailed {
		t.Errorf("kind = %s, want %s", failed.Kind, KindDecodeFailed)
	}
	if failed.Context.Pattern != types.PatternNewFormat {
		t.Errorf("pattern = %s, want %s", failed.Context.Pattern, types.PatternNewFormat)
	}

	noURLs := NewNoURLsFound("No URLs found", "abc", types.PatternOldFormat)
	if noURLs.Kind != KindNoURLsFound {
		t.Errorf("kind = %s, want %s", noURLs.Kind, KindNoURLsFound)
	}

	timeout := NewTimeout("decode exceeded 5s", "abc")
	if timeout.Kind != KindTimeout {
		t.Errorf("kind = %s, want %s", timeout.Kind, KindTimeout)
	}
}

func TestFormatMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want []string
	}{
		{
			name: "kind and message",
			err:  NewInvalidInput("empty input", ""),
			want: []string{"INVALID_INPUT", "empty input"},
		},
		{
			name: "includes pattern",
			err:  NewNoURLsFound("No URLs found", "abc", types.PatternOldFormat),
			want: []string{"NO_URLS_FOUND", "pattern=old-format"},
		},
		{
			name: "includes attempted decoders",
			err:  NewDecodeFailed("all failed", "abc", types.PatternUnknown, []string{"a", "b"}),
			want: []string{"DECODE_FAILED", "attempted=a,b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMessage(tt.err)
			for _, part := range tt.want {
				if !strings.Contains(got, part) {
					t.Errorf("FormatMessage() = %q, missing %q", got, part)
				}
			}
		})
	}

	if FormatMessage(nil) != "" {
		t.Error("FormatMessage(nil) should be empty")
	}
}

func TestIsDecoderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
		{
			name: "foreign error",
			err:  errors.New("plain"),
			want: false,
		},
		{
			name: "typed nil",
			err:  (*Error)(nil),
			want: false,
		},
		{
			name: "decoder error",
			err:  NewInvalidInput("bad", ""),
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsDecoderError(tt.err); got != tt.want {
				t.Errorf("IsDecoderError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestKindPredicates(t *testing.T) {
	if !IsInvalidInput(NewInvalidInput("x", "")) {
		t.Error("IsInvalidInput should match")
	}
	if !IsDecodeFailed(NewDecodeFailed("x", "", types.PatternUnknown, nil)) {
		t.Error("IsDecodeFailed should match")
	}
	if !IsNoURLsFound(NewNoURLsFound("x", "", types.PatternUnknown)) {
		t.Error("IsNoURLsFound should match")
	}
	if !IsTimeout(NewTimeout("x", "")) {
		t.Error("IsTimeout should match")
	}
	if IsTimeout(errors.New("deadline")) {
		t.Error("IsTimeout should reject foreign errors")
	}
	if IsInvalidInput(nil) {
		t.Error("IsInvalidInput should reject nil")
	}
}

func TestMarshalJSON(t *testing.T) {
	e := NewNoURLsFound("No URLs found", "sample", types.PatternNewFormat)
	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal error: %v", err)
	}
	if out["kind"] != KindNoURLsFound {
		t.Errorf("kind = %v, want %s", out["kind"], KindNoURLsFound)
	}
	if _, ok := out["error"]; !ok {
		t.Error("rendered error line missing from JSON")
	}
}
