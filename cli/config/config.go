package config

import (
	"fmt"
	"time"

	"github.com/pithecene-io/targetwire/lode"
)

// Config represents a targetwire.yaml configuration file.
// All values are optional and act as defaults for command flags.
// CLI flags always override config values.
type Config struct {
	Camera   string        `yaml:"camera"`
	LogLevel string        `yaml:"log_level"`
	Storage  StorageConfig `yaml:"storage"`
	Adapter  AdapterConfig `yaml:"adapter"`
	Stream   StreamConfig  `yaml:"stream"`
}

// StorageConfig holds recorder defaults from the config file.
type StorageConfig struct {
	Dataset string `yaml:"dataset"`
	// Backend is fs, memory or s3. Empty disables recording.
	Backend string        `yaml:"backend"`
	Path    string        `yaml:"path"`
	S3      lode.S3Config `yaml:"s3"`
}

// AdapterConfig holds transport defaults from the config file.
type AdapterConfig struct {
	// Type is redis or webhook. Empty disables publishing.
	Type    string            `yaml:"type"`
	URL     string            `yaml:"url"`
	Channel string            `yaml:"channel,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Timeout Duration          `yaml:"timeout,omitempty"`
	Retries *int              `yaml:"retries,omitempty"`
}

// StreamConfig holds stream command defaults.
type StreamConfig struct {
	// Capture stores the raw input bytes next to the recorded rows.
	Capture bool `yaml:"capture"`
	// MetricsInterval writes a metrics row every interval; zero writes
	// one row at the end of the stream only.
	MetricsInterval Duration `yaml:"metrics_interval,omitempty"`

	// Policy is strict or buffered. Empty means strict.
	Policy string `yaml:"policy,omitempty"`
	// BufferResults, BufferBytes and FlushInterval bound the buffered
	// policy. Zero values take the policy defaults.
	BufferResults int      `yaml:"buffer_results,omitempty"`
	BufferBytes   int64    `yaml:"buffer_bytes,omitempty"`
	FlushInterval Duration `yaml:"flush_interval,omitempty"`
}

// Duration wraps time.Duration for YAML string parsing (e.g. "10s", "5m").
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses a duration string like "10s" or "5m30s".
func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = parsed
	return nil
}

// Validate checks values that have a closed set of choices.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "", "fs", "memory":
	case "s3":
		if c.Storage.S3.Bucket == "" && c.Storage.Path == "" {
			return fmt.Errorf("storage.backend s3 requires storage.s3.bucket or storage.path")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (want fs, memory or s3)", c.Storage.Backend)
	}
	if c.Storage.Backend == "fs" && c.Storage.Path == "" {
		return fmt.Errorf("storage.backend fs requires storage.path")
	}

	switch c.Adapter.Type {
	case "":
	case "redis", "webhook":
		if c.Adapter.URL == "" {
			return fmt.Errorf("adapter.type %s requires adapter.url", c.Adapter.Type)
		}
	default:
		return fmt.Errorf("unknown adapter.type %q (want redis or webhook)", c.Adapter.Type)
	}
	if c.Adapter.Retries != nil && *c.Adapter.Retries < 0 {
		return fmt.Errorf("adapter.retries must be >= 0, got %d", *c.Adapter.Retries)
	}

	switch c.Stream.Policy {
	case "", "strict", "buffered":
	default:
		return fmt.Errorf("unknown stream.policy %q (want strict or buffered)", c.Stream.Policy)
	}
	if c.Stream.BufferResults < 0 || c.Stream.BufferBytes < 0 {
		return fmt.Errorf("stream buffer limits must be >= 0")
	}
	if c.Stream.FlushInterval.Duration < 0 || c.Stream.MetricsInterval.Duration < 0 {
		return fmt.Errorf("stream intervals must be >= 0")
	}
	return nil
}

// ResolvedS3 returns the S3 settings, taking bucket and prefix from
// storage.path when storage.s3.bucket is unset.
func (s StorageConfig) ResolvedS3() lode.S3Config {
	cfg := s.S3
	if cfg.Bucket == "" && s.Path != "" {
		cfg.Bucket, cfg.Prefix = lode.ParseS3Path(s.Path)
	}
	return cfg
}
