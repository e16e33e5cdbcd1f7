// Package scriptdec decodes provider blobs that ship as self-executing
// obfuscated scripts. The script is evaluated in a sandboxed JS engine with
// a stub window/document, and every string the script stows on the stub
// window (plus the completion value) is scanned for stream URLs.
package scriptdec

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dop251/goja"
	"github.com/robertkrimen/otto"

	"github.com/ytget/streamdec/errs"
	"github.com/ytget/streamdec/internal/urlextract"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/types"
)

// DecoderName identifies this decoder in attempt lists and results.
const DecoderName = "script-decoder"

// scriptBudget bounds a single in-VM evaluation so a hostile script cannot
// stall the dispatch chain.
const scriptBudget = 2 * time.Second

// CanDecode reports whether the blob looks like an inline provider script.
func CanDecode(encoded string) bool {
	return pattern.HasScriptMarkers(strings.TrimSpace(encoded))
}

// Decode evaluates the blob with goja, falling back to otto when goja
// cannot run it, and extracts URLs from everything the script produced.
func Decode(encoded string) types.DecodeResult {
	start := time.Now()
	result := types.DecodeResult{
		Pattern:     types.PatternScriptFormat,
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
	if !pattern.HasScriptMarkers(t) {
		return fail(errs.NewDecodeFailed("input does not look like a provider script", encoded, types.PatternScriptFormat, []string{DecoderName}))
	}

	texts, err := runGoja(t)
	if err != nil {
		texts, err = runOtto(t)
	}
	if err != nil {
		return fail(errs.NewDecodeFailed(fmt.Sprintf("script execution failed: %v", err), encoded, types.PatternScriptFormat, []string{DecoderName}))
	}

	urls := urlextract.Extract(strings.Join(texts, "\n"))
	if len(urls) == 0 {
		return fail(errs.NewNoURLsFound("No URLs found in script output", encoded, types.PatternScriptFormat))
	}

	result.Success = true
	result.URLs = urls
	result.Metadata.DecodeTime = time.Since(start)
	return result
}

// runGoja executes the script with a live window stub and returns the
// completion value followed by the window-bound strings in key order.
func runGoja(script string) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("goja panic: %v", r)
		}
	}()

	vm := goja.New()
	window := make(map[string]any)
	_ = vm.Set("window", window)
	_ = vm.Set("document", map[string]any{"cookie": ""})
	_ = vm.Set("console", map[string]any{
		"log": func(...any) {},
	})

	timer := time.AfterFunc(scriptBudget, func() {
		vm.Interrupt("script budget exceeded")
	})
	defer timer.Stop()

	value, err := vm.RunString(script)
	if err != nil {
		return nil, err
	}
	if value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		if s, ok := value.Export().(string); ok {
			texts = append(texts, s)
		}
	}
	return append(texts, stringValues(window)...), nil
}

// runOtto replays the script in otto, recovering the window stub via JSON.
func runOtto(script string) (texts []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("otto panic: %v", r)
		}
	}()

	vm := otto.New()
	if _, err := vm.Run(`var window = {}; var document = { cookie: "" }; var console = { log: function() {} };`); err != nil {
		return nil, err
	}
	value, err := vm.Run(script)
	if err != nil {
		return nil, fmt.Errorf("failed to run script in otto: %v", err)
	}
	if value.IsString() {
		if s, serr := value.ToString(); serr == nil {
			texts = append(texts, s)
		}
	}

	dumped, err := vm.Run(`(function() {
		var out = [];
		for (var k in window) {
			if (typeof window[k] === "string") { out.push(k + "=" + window[k]); }
		}
		return out.sort().join("\n");
	})()`)
	if err != nil {
		return texts, nil
	}
	if dump, serr := dumped.ToString(); serr == nil && dump != "" {
		texts = append(texts, dump)
	}
	return texts, nil
}

// stringValues flattens string-typed window properties in sorted key order
// so repeated decodes of the same blob stay deterministic.
func stringValues(window map[string]any) []string {
	keys := make([]string, 0, len(window))
	for k := range window {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var out []string
	for _, k := range keys {
		if s, ok := window[k].(string); ok {
			out = append(out, s)
		}
	}
	return out
}
