// Package storage keeps a bounded in-memory log of failed decode attempts.
// It exists for offline scheme discovery: when every decoder fails, the
// dispatcher records the sample here together with charset diagnostics.
package storage

import (
	"bytes"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/google/uuid"

	"github.com/ytget/streamdec/errs"
	"github.com/ytget/streamdec/internal/logger"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/types"
)

// DefaultMaxSize is the attempt cap used when none is configured.
const DefaultMaxSize = 100

// recentWindow is how many trailing attempts Statistics reports.
const recentWindow = 10

// Store is a mutex-guarded FIFO of failed attempts. Once the cap is
// exceeded the oldest entries are evicted; the most recent are always kept.
type Store struct {
	mu       sync.Mutex
	maxSize  int
	attempts []types.FailedAttempt
	log      *logger.ComponentLogger
}

// New creates a store with the default cap.
func New() *Store {
	return NewWithSize(DefaultMaxSize)
}

// NewWithSize creates a store capped at maxSize entries (minimum 1).
func NewWithSize(maxSize int) *Store {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Store{
		maxSize: maxSize,
		log:     logger.WithComponent(logger.ComponentStorage),
	}
}

// SaveFailedDecode appends a failed attempt built from the encoded string,
// the detected pattern, the decoders tried and the terminal error.
func (s *Store) SaveFailedDecode(encoded string, detected types.PatternType, attempted []string, err error) {
	sample := errs.Truncate(encoded)
	attempt := types.FailedAttempt{
		ID:                uuid.NewString(),
		EncodedSample:     sample,
		DetectedPattern:   detected,
		AttemptedDecoders: append([]string(nil), attempted...),
		Diagnostics: types.AttemptDiagnostics{
			CharacterAnalysis: pattern.Analyze(encoded),
			Sample:            sample,
		},
		Timestamp: time.Now(),
	}
	if err != nil {
		attempt.Error = err.Error()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = append(s.attempts, attempt)
	s.evictLocked()
	s.log.Debug("saved failed decode", map[string]interface{}{
		"pattern": string(detected),
		"stored":  len(s.attempts),
	})
}

// evictLocked drops the oldest entries until the cap holds.
func (s *Store) evictLocked() {
	if over := len(s.attempts) - s.maxSize; over > 0 {
		s.attempts = append([]types.FailedAttempt(nil), s.attempts[over:]...)
	}
}

// FailedAttempts returns all stored attempts in insertion order.
func (s *Store) FailedAttempts() []types.FailedAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.FailedAttempt(nil), s.attempts...)
}

// UnknownPatterns returns the attempts whose detected pattern was unknown.
func (s *Store) UnknownPatterns() []types.FailedAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []types.FailedAttempt
	for _, a := range s.attempts {
		if a.DetectedPattern == types.PatternUnknown {
			out = append(out, a)
		}
	}
	return out
}

// AttemptsByPattern groups stored attempts by detected pattern.
func (s *Store) AttemptsByPattern() map[types.PatternType][]types.FailedAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[types.PatternType][]types.FailedAttempt)
	for _, a := range s.attempts {
		out[a.DetectedPattern] = append(out[a.DetectedPattern], a)
	}
	return out
}

// Statistics returns aggregate counts plus the most recent attempts.
func (s *Store) Statistics() types.StorageStatistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := types.StorageStatistics{
		TotalAttempts: len(s.attempts),
		ByPattern:     make(map[types.PatternType]int),
	}
	for _, a := range s.attempts {
		stats.ByPattern[a.DetectedPattern]++
		if a.DetectedPattern == types.PatternUnknown {
			stats.UnknownPatterns++
		}
	}
	recent := len(s.attempts)
	if recent > recentWindow {
		recent = recentWindow
	}
	stats.RecentAttempts = append([]types.FailedAttempt(nil), s.attempts[len(s.attempts)-recent:]...)
	return stats
}

// FindSimilar ranks stored attempts by charset/structure similarity to the
// candidate and returns the top limit entries.
func (s *Store) FindSimilar(candidate string, limit int) []types.FailedAttempt {
	if limit <= 0 {
		return nil
	}
	target := pattern.Analyze(candidate)

	s.mu.Lock()
	ranked := make([]types.FailedAttempt, len(s.attempts))
	copy(ranked, s.attempts)
	s.mu.Unlock()

	scores := make(map[string]float64, len(ranked))
	for _, a := range ranked {
		scores[a.ID] = similarity(target, a.Diagnostics.CharacterAnalysis)
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := scores[ranked[i].ID], scores[ranked[j].ID]
		if si != sj {
			return si > sj
		}
		return ranked[i].Timestamp.After(ranked[j].Timestamp)
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// similarity scores two analyses: one point per matching structural flag
// plus a length-closeness term, normalized to [0,1].
func similarity(a, b types.CharacterAnalysis) float64 {
	var matches float64
	flags := [][2]bool{
		{a.HasColons, b.HasColons},
		{a.HasBeyondHexChars, b.HasBeyondHexChars},
		{a.HasScriptMarkers, b.HasScriptMarkers},
		{a.IsPureBase64Charset, b.IsPureBase64Charset},
		{a.IsPureHexCharset, b.IsPureHexCharset},
	}
	for _, f := range flags {
		if f[0] == f[1] {
			matches++
		}
	}
	score := matches / float64(len(flags)+1)
	if a.Length > 0 && b.Length > 0 {
		longer, shorter := a.Length, b.Length
		if shorter > longer {
			longer, shorter = shorter, longer
		}
		score += float64(shorter) / float64(longer) / float64(len(flags)+1)
	}
	return score
}

// export is the JSON snapshot shape.
type export struct {
	TotalAttempts int                   `json:"total_attempts"`
	Attempts      []types.FailedAttempt `json:"attempts"`
	ExportDate    time.Time             `json:"export_date"`
}

// ExportJSON serializes the current attempts for offline analysis.
func (s *Store) ExportJSON() ([]byte, error) {
	snap := export{
		Attempts:   s.FailedAttempts(),
		ExportDate: time.Now(),
	}
	snap.TotalAttempts = len(snap.Attempts)
	return json.MarshalIndent(snap, "", "  ")
}

// ExportBrotli returns the JSON snapshot compressed with brotli, for
// shipping larger diagnostic dumps out of constrained environments.
func (s *Store) ExportBrotli() ([]byte, error) {
	raw, err := s.ExportJSON()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := brotli.NewWriter(&buf)
	if _, err := w.Write(raw); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// SetMaxSize changes the cap, evicting oldest entries if needed.
func (s *Store) SetMaxSize(n int) {
	if n < 1 {
		n = 1
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxSize = n
	s.evictLocked()
}

// MaxSize returns the current cap.
func (s *Store) MaxSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxSize
}

// Size returns the number of stored attempts.
func (s *Store) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// Clear drops every stored attempt.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts = nil
}
