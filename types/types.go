package types

import "time"

// PatternType identifies a recognized obfuscation scheme. New schemes are
// added over time; existing values are never removed.
type PatternType string

const (
	// PatternOldFormat is the colon-delimited reverse-hex-shift scheme.
	PatternOldFormat PatternType = "old-format"
	// PatternNewFormat is the base64/hex payload with repeating-key XOR.
	PatternNewFormat PatternType = "new-format"
	// PatternScriptFormat is a self-decoding provider script that stows the
	// decoded config into a window property.
	PatternScriptFormat PatternType = "script-format"
	// PatternUnknown is returned when no scheme matches.
	PatternUnknown PatternType = "unknown"
)

// Metadata carries per-call decode diagnostics. Confidence and Analysis are
// only populated when the caller enables diagnostics.
type Metadata struct {
	DecodeTime        time.Duration      `json:"decode_time"`
	AttemptedDecoders []string           `json:"attempted_decoders"`
	Confidence        float64            `json:"confidence,omitempty"`
	Analysis          *CharacterAnalysis `json:"analysis,omitempty"`
}

// DecodeResult is the outcome of a decode attempt. Success implies at least
// one URL; URLs preserve first-seen order and never repeat.
type DecodeResult struct {
	Success     bool        `json:"success"`
	URLs        []string    `json:"urls,omitempty"`
	Pattern     PatternType `json:"pattern"`
	DecoderUsed string      `json:"decoder_used,omitempty"`
	Err         error       `json:"-"`
	Metadata    Metadata    `json:"metadata"`
}

// DetectFunc reports whether an encoded string structurally matches a scheme.
type DetectFunc func(string) bool

// DecodeFunc runs a scheme's decode algorithm against an encoded string.
type DecodeFunc func(string) DecodeResult

// PatternDefinition binds a scheme to its detector/decoder pair. Exactly one
// definition may be registered per PatternType.
type PatternDefinition struct {
	Type            PatternType
	Name            string
	Description     string
	Characteristics []string
	Detector        DetectFunc
	Decoder         DecodeFunc
	Examples        []string
}

// CharacterAnalysis summarizes the charset of an encoded string. It is
// attached to stored failed attempts so new schemes can be identified offline.
type CharacterAnalysis struct {
	Length              int  `json:"length"`
	HasColons           bool `json:"has_colons"`
	HasBeyondHexChars   bool `json:"has_beyond_hex_chars"`
	HasScriptMarkers    bool `json:"has_script_markers"`
	HasWhitespace       bool `json:"has_whitespace"`
	IsPureBase64Charset bool `json:"is_pure_base64_charset"`
	IsPureHexCharset    bool `json:"is_pure_hex_charset"`
}

// AttemptDiagnostics is the diagnostic payload of a failed attempt.
type AttemptDiagnostics struct {
	CharacterAnalysis CharacterAnalysis `json:"character_analysis"`
	Sample            string            `json:"sample"`
}

// FailedAttempt records one total decode failure for offline analysis.
type FailedAttempt struct {
	ID                string             `json:"id"`
	EncodedSample     string             `json:"encoded_sample"`
	DetectedPattern   PatternType        `json:"detected_pattern"`
	AttemptedDecoders []string           `json:"attempted_decoders"`
	Diagnostics       AttemptDiagnostics `json:"diagnostics"`
	Error             string             `json:"error,omitempty"`
	Timestamp         time.Time          `json:"timestamp"`
}

// StorageStatistics is an aggregate view over stored failed attempts.
type StorageStatistics struct {
	TotalAttempts   int                 `json:"total_attempts"`
	UnknownPatterns int                 `json:"unknown_patterns"`
	ByPattern       map[PatternType]int `json:"by_pattern"`
	RecentAttempts  []FailedAttempt     `json:"recent_attempts"`
}
