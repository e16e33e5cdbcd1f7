// Package errs defines the decoder failure taxonomy. Every failure is
// returned as a value inside a DecodeResult, never raised.
package errs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ytget/streamdec/types"
)

// Error kinds
const (
	KindInvalidInput = "INVALID_INPUT"
	KindDecodeFailed = "DECODE_FAILED"
	KindNoURLsFound  = "NO_URLS_FOUND"
	KindTimeout      = "TIMEOUT"
)

// sampleLimit bounds how much of the encoded string is retained in error
// context; anything longer is truncated with an ellipsis.
const sampleLimit = 100

// Context carries the failure circumstances without leaking the full input.
type Context struct {
	EncodedString     string            `json:"encoded_string,omitempty"`
	Pattern           types.PatternType `json:"pattern,omitempty"`
	AttemptedDecoders []string          `json:"attempted_decoders,omitempty"`
}

// Error represents a structured decoder error with kind and context
type Error struct {
	Kind    string  `json:"kind"`
	Message string  `json:"message"`
	Context Context `json:"context"`
}

// Error implements the error interface
func (e *Error) Error() string {
	return FormatMessage(e)
}

// MarshalJSON implements json.Marshaler
func (e *Error) MarshalJSON() ([]byte, error) {
	type Alias Error
	return json.Marshal(&struct {
		*Alias
		Error string `json:"error"`
	}{
		Alias: (*Alias)(e),
		Error: e.Error(),
	})
}

// Truncate shortens an encoded string to the context sample limit.
func Truncate(s string) string {
	r := []rune(s)
	if len(r) <= sampleLimit {
		return s
	}
	return string(r[:sampleLimit]) + "…"
}

// NewInvalidInput creates an INVALID_INPUT error.
func NewInvalidInput(message, encoded string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Message: message,
		Context: Context{EncodedString: Truncate(encoded)},
	}
}

// NewDecodeFailed creates a DECODE_FAILED error.
func NewDecodeFailed(message, encoded string, pattern types.PatternType, attempted []string) *Error {
	return &Error{
		Kind:    KindDecodeFailed,
		Message: message,
		Context: Context{
			EncodedString:     Truncate(encoded),
			Pattern:           pattern,
			AttemptedDecoders: attempted,
		},
	}
}

// NewNoURLsFound creates a NO_URLS_FOUND error.
func NewNoURLsFound(message, encoded string, pattern types.PatternType) *Error {
	return &Error{
		Kind:    KindNoURLsFound,
		Message: message,
		Context: Context{EncodedString: Truncate(encoded), Pattern: pattern},
	}
}

// NewTimeout creates a TIMEOUT error.
func NewTimeout(message, encoded string) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: message,
		Context: Context{EncodedString: Truncate(encoded)},
	}
}

// FormatMessage renders a single human-readable line for an error.
func FormatMessage(e *Error) string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	if e.Context.Pattern != "" {
		fmt.Fprintf(&b, " (pattern=%s)", e.Context.Pattern)
	}
	if len(e.Context.AttemptedDecoders) > 0 {
		fmt.Fprintf(&b, " (attempted=%s)", strings.Join(e.Context.AttemptedDecoders, ","))
	}
	return b.String()
}

// IsDecoderError reports whether an arbitrary error is a structured decoder
// error. It is safe to call with nil or foreign error values.
func IsDecoderError(err error) bool {
	if err == nil {
		return false
	}
	e, ok := err.(*Error)
	return ok && e != nil
}

// kindOf extracts the kind from a decoder error, or "" for foreign errors.
func kindOf(err error) string {
	if e, ok := err.(*Error); ok && e != nil {
		return e.Kind
	}
	return ""
}

// IsInvalidInput returns true if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return kindOf(err) == KindInvalidInput
}

// IsDecodeFailed returns true if the error is a decode failure
func IsDecodeFailed(err error) bool {
	return kindOf(err) == KindDecodeFailed
}

// IsNoURLsFound returns true if the error reports an URL-less decode
func IsNoURLsFound(err error) bool {
	return kindOf(err) == KindNoURLsFound
}

// IsTimeout returns true if the error is a timeout error
func IsTimeout(err error) bool {
	return kindOf(err) == KindTimeout
}
