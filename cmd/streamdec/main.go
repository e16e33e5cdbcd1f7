package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ytget/streamdec"
	"github.com/ytget/streamdec/config"
	"github.com/ytget/streamdec/internal/logger"
	"github.com/ytget/streamdec/pattern"
	"github.com/ytget/streamdec/storage"
)

func main() {
	var (
		flagConfig      string
		flagTimeout     time.Duration
		flagDiagnostics bool
		flagJSON        bool
		flagDetectOnly  bool
		flagExport      string
	)

	flag.StringVar(&flagConfig, "config", "", "Path to YAML config file")
	flag.DurationVar(&flagTimeout, "timeout", 5*time.Second, "Decode timeout (e.g., 5s, 500ms)")
	flag.BoolVar(&flagDiagnostics, "diagnostics", false, "Attach diagnostic metadata to results")
	flag.BoolVar(&flagJSON, "json", false, "Print the full result as JSON")
	flag.BoolVar(&flagDetectOnly, "detect", false, "Only classify the input, do not decode")
	flag.StringVar(&flagExport, "export", "", "Write failed-attempt snapshot to this file after decoding")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <encoded-string>\n", os.Args[0])
		fmt.Fprintln(os.Stderr, "\nReads the encoded string from stdin when no argument is given.")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	flag.Parse()

	cfg := config.Default()
	if flagConfig != "" {
		loaded, err := config.Load(flagConfig)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(2)
		}
		cfg = loaded
		logger.SetGlobalLogger(logger.New(cfg.LoggerConfig()))
	}

	encoded, err := readInput(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(2)
	}

	if flagDetectOnly {
		detected := pattern.Detect(encoded)
		fmt.Printf("%s (confidence %.2f)\n", detected, pattern.Confidence(encoded, detected))
		return
	}

	registry := pattern.NewRegistry()
	if err := streamdec.RegisterDefaults(registry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	store := storage.NewWithSize(cfg.Storage.MaxSize)

	timeout := cfg.Decoder.Timeout
	if flagTimeout > 0 {
		timeout = flagTimeout
	}
	dec := streamdec.New(registry).
		WithStorage(store).
		WithTimeout(timeout).
		WithDiagnostics(flagDiagnostics || cfg.Decoder.Diagnostics)

	result := dec.Decode(context.Background(), encoded)

	if flagExport != "" {
		if snap, err := store.ExportJSON(); err == nil {
			_ = os.WriteFile(flagExport, snap, 0o644)
		}
	}

	if flagJSON {
		out := map[string]any{
			"success":      result.Success,
			"pattern":      result.Pattern,
			"decoder_used": result.DecoderUsed,
			"urls":         result.URLs,
			"metadata":     result.Metadata,
		}
		if result.Err != nil {
			out["error"] = result.Err.Error()
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		fmt.Println(string(data))
		if !result.Success {
			os.Exit(1)
		}
		return
	}

	if !result.Success {
		fmt.Fprintf(os.Stderr, "No candidate stream found: %v\n", result.Err)
		os.Exit(1)
	}
	for _, u := range result.URLs {
		fmt.Println(u)
	}
}

// readInput takes the blob from argv, or from stdin when absent.
func readInput(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %v", err)
	}
	s := strings.TrimSpace(string(data))
	if s == "" {
		return "", fmt.Errorf("no encoded string provided")
	}
	return s, nil
}
