// Package streamdec decodes obfuscated text blobs scraped from third-party
// video-hosting pages into playable HTTP(S) stream URLs.
//
// Providers rotate their obfuscation schemes; the dispatcher classifies each
// blob, tries the matching decoder first, then falls back through every other
// registered decoder before giving up. Failures are returned as data inside
// the DecodeResult, never as panics, and total failures are recorded in the
// pattern storage for offline scheme discovery.
package streamdec

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ytget/streamdec/decode/newformat"
	"github.com/ytget/streamdec/decode/oldformat"
	"github.com/ytget/streamdec/decode/scriptdec"
	"github.com/ytget/streamdec/errs"
	"github.com/ytget/streamdec/internal/logger"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/storage"
	"github.com/ytget/streamdec/types"
)

// DefaultTimeout bounds the asynchronous decode path when no timeout is set.
const DefaultTimeout = 5 * time.Second

// Decoder dispatches encoded strings across the registered pattern
// decoders. Construct with New and the chainable setters.
type Decoder struct {
	registry    *pattern.Registry
	store       *storage.Store
	timeout     time.Duration
	diagnostics bool
	log         *logger.ComponentLogger
}

// New creates a Decoder over a registry. The dispatcher performs no
// implicit registration; populate the registry first, e.g. with
// RegisterDefaults.
func New(registry *pattern.Registry) *Decoder {
	return &Decoder{
		registry: registry,
		timeout:  DefaultTimeout,
		log:      logger.WithComponent(logger.ComponentDispatch),
	}
}

// WithStorage sets the failed-attempt store written on total failure.
func (d *Decoder) WithStorage(s *storage.Store) *Decoder {
	d.store = s
	return d
}

// WithTimeout sets the asynchronous decode timeout. Zero or negative
// restores the default.
func (d *Decoder) WithTimeout(timeout time.Duration) *Decoder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	d.timeout = timeout
	return d
}

// WithDiagnostics toggles extra diagnostic metadata on results. It never
// changes success or failure.
func (d *Decoder) WithDiagnostics(enabled bool) *Decoder {
	d.diagnostics = enabled
	return d
}

// RegisterDefaults registers every built-in pattern definition: the
// reverse-hex-shift OLD format, the XOR NEW format and the provider-script
// format.
func RegisterDefaults(reg *pattern.Registry) error {
	defs := []types.PatternDefinition{
		{
			Type:        types.PatternOldFormat,
			Name:        oldformat.DecoderName,
			Description: "Colon-delimited reversed hex with byte values shifted up by one",
			Characteristics: []string{
				"contains colon delimiters",
				"contains letters beyond the hex digit range",
			},
			Detector: oldformat.CanDecode,
			Decoder:  oldformat.Decode,
			Examples: []string{"3a7:46g:862z:756"},
		},
		{
			Type:        types.PatternNewFormat,
			Name:        newformat.DecoderName,
			Description: "Base64 or hex payload XORed with a short repeating key",
			Characteristics: []string{
				"no colon delimiters",
				"pure base64 or even-length hex charset",
			},
			Detector: newformat.CanDecode,
			Decoder:  newformat.Decode,
			Examples: []string{"SGVsbG8gV29ybGQ="},
		},
		{
			Type:        types.PatternScriptFormat,
			Name:        scriptdec.DecoderName,
			Description: "Self-executing provider script stowing the decoded config on window",
			Characteristics: []string{
				"contains function/arrow syntax",
				"assigns window properties",
			},
			Detector: scriptdec.CanDecode,
			Decoder:  scriptdec.Decode,
			Examples: []string{`window['cfg']='...';`},
		},
	}
	for _, def := range defs {
		if err := reg.Register(def); err != nil {
			return err
		}
	}
	return nil
}

// DecodeSync runs the full dispatch chain synchronously. It never panics:
// any input, including binary garbage and very large strings, yields a
// well-formed DecodeResult.
func (d *Decoder) DecodeSync(encoded string) types.DecodeResult {
	start := time.Now()

	if strings.TrimSpace(encoded) == "" {
		return types.DecodeResult{
			Pattern:  types.PatternUnknown,
			Err:      errs.NewInvalidInput("encoded string is empty or whitespace", encoded),
			Metadata: types.Metadata{DecodeTime: time.Since(start), AttemptedDecoders: []string{}},
		}
	}

	detected := pattern.Detect(encoded)
	d.log.Debug("classified input", map[string]interface{}{
		"pattern": string(detected),
		"length":  len(encoded),
	})

	var (
		attempted []string
		failures  []string
		sawNoURLs bool
	)
	for _, def := range d.orderedChain(detected) {
		attempted = append(attempted, def.Name)
		res := safeDecode(def, encoded)
		if res.Success && len(res.URLs) > 0 {
			res.Metadata.DecodeTime = time.Since(start)
			res.Metadata.AttemptedDecoders = attempted
			d.attachDiagnostics(&res, encoded)
			d.log.Debug("decode succeeded", map[string]interface{}{
				"decoder": def.Name,
				"urls":    len(res.URLs),
			})
			return res
		}
		if errs.IsNoURLsFound(res.Err) {
			sawNoURLs = true
		}
		if res.Err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", def.Name, res.Err))
		} else {
			failures = append(failures, fmt.Sprintf("%s: no result", def.Name))
		}
	}

	if attempted == nil {
		attempted = []string{}
	}
	message := "no registered decoder produced a URL"
	if len(failures) > 0 {
		message = strings.Join(failures, "; ")
	}
	var aggErr *errs.Error
	if sawNoURLs {
		aggErr = errs.NewNoURLsFound(message, encoded, detected)
	} else {
		aggErr = errs.NewDecodeFailed(message, encoded, detected, attempted)
	}

	result := types.DecodeResult{
		Pattern:  detected,
		Err:      aggErr,
		Metadata: types.Metadata{DecodeTime: time.Since(start), AttemptedDecoders: attempted},
	}
	d.attachDiagnostics(&result, encoded)

	if d.store != nil {
		d.store.SaveFailedDecode(encoded, detected, attempted, aggErr)
	}
	return result
}

// Decode races the synchronous dispatch against a time bound. A deadline
// on the caller's context overrides the decoder-level timeout, so callers
// can vary the bound per call without touching shared state. On expiry it
// returns a TIMEOUT result; the in-flight work is abandoned and its
// eventual result discarded.
func (d *Decoder) Decode(ctx context.Context, encoded string) types.DecodeResult {
	start := time.Now()
	limit := d.timeout
	if deadline, ok := ctx.Deadline(); ok {
		limit = time.Until(deadline)
	} else {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	ch := make(chan types.DecodeResult, 1)
	go func() {
		ch <- d.DecodeSync(encoded)
	}()

	select {
	case res := <-ch:
		return res
	case <-ctx.Done():
		d.log.Warn("decode timed out", map[string]interface{}{"timeout": limit.String()})
		return types.DecodeResult{
			Pattern:  types.PatternUnknown,
			Err:      errs.NewTimeout(fmt.Sprintf("decode exceeded %s", limit), encoded),
			Metadata: types.Metadata{DecodeTime: time.Since(start), AttemptedDecoders: []string{}},
		}
	}
}

// orderedChain returns the fallback chain: the detected pattern's decoder
// first when registered, then every other decoder in registration order.
func (d *Decoder) orderedChain(detected types.PatternType) []types.PatternDefinition {
	var chain []types.PatternDefinition
	if def, ok := d.registry.Get(detected); ok {
		chain = append(chain, def)
	}
	for _, def := range d.registry.All() {
		if def.Type == detected {
			continue
		}
		chain = append(chain, def)
	}
	return chain
}

// safeDecode shields the chain from a misbehaving decoder: a panic is
// converted into that decoder's failure and the next decoder still runs.
func safeDecode(def types.PatternDefinition, encoded string) (res types.DecodeResult) {
	defer func() {
		if r := recover(); r != nil {
			res = types.DecodeResult{
				Pattern:     def.Type,
				DecoderUsed: def.Name,
				Err:         errs.NewDecodeFailed(fmt.Sprintf("decoder panic: %v", r), encoded, def.Type, []string{def.Name}),
			}
		}
	}()
	return def.Decoder(encoded)
}

func (d *Decoder) attachDiagnostics(res *types.DecodeResult, encoded string) {
	if !d.diagnostics {
		return
	}
	analysis := pattern.Analyze(encoded)
	res.Metadata.Analysis = &analysis
	res.Metadata.Confidence = pattern.Confidence(encoded, res.Pattern)
}
