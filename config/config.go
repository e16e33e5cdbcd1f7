// Package config loads decoder configuration from YAML.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ytget/streamdec/internal/logger"
)

// DecoderConfig controls the dispatch behavior.
type DecoderConfig struct {
	// Timeout bounds the asynchronous decode path.
	Timeout time.Duration `yaml:"timeout"`
	// Diagnostics retains extra metadata on results; it never changes
	// success or failure.
	Diagnostics bool `yaml:"diagnostics"`
}

// UnmarshalYAML accepts the timeout either as a duration string ("5s")
// or as integer nanoseconds.
func (d *DecoderConfig) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		Timeout     string `yaml:"timeout"`
		Diagnostics bool   `yaml:"diagnostics"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	d.Diagnostics = raw.Diagnostics
	if raw.Timeout == "" {
		return nil
	}
	parsed, err := time.ParseDuration(raw.Timeout)
	if err != nil {
		ns, intErr := strconv.ParseInt(raw.Timeout, 10, 64)
		if intErr != nil {
			return fmt.Errorf("decoder.timeout: %w", err)
		}
		parsed = time.Duration(ns)
	}
	d.Timeout = parsed
	return nil
}

// StorageConfig controls the failed-attempt store.
type StorageConfig struct {
	MaxSize int `yaml:"max_size"`
}

// LoggingConfig maps onto the internal logger.
type LoggingConfig struct {
	Level      string          `yaml:"level"`
	Format     string          `yaml:"format"`
	Components map[string]bool `yaml:"components"`
	Timestamp  bool            `yaml:"timestamp"`
}

// Config is the full configuration surface.
type Config struct {
	Decoder DecoderConfig `yaml:"decoder"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// Default returns the built-in configuration: 5 s async timeout,
// diagnostics off, 100-entry storage cap, INFO text logging.
func Default() *Config {
	return &Config{
		Decoder: DecoderConfig{Timeout: 5 * time.Second},
		Storage: StorageConfig{MaxSize: 100},
		Logging: LoggingConfig{Level: "INFO", Format: "text"},
	}
}

// Load reads a YAML config file, filling unset fields from defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Decoder.Timeout <= 0 {
		cfg.Decoder.Timeout = 5 * time.Second
	}
	if cfg.Storage.MaxSize <= 0 {
		cfg.Storage.MaxSize = 100
	}
	return cfg, nil
}

// LoggerConfig converts the logging section into a logger configuration.
func (c *Config) LoggerConfig() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = logger.ParseLevel(c.Logging.Level)
	if c.Logging.Format == "json" {
		lc.Format = logger.FormatJSON
	}
	lc.Timestamp = c.Logging.Timestamp
	for name, enabled := range c.Logging.Components {
		lc.Components[logger.Component(name)] = enabled
	}
	return lc
}
