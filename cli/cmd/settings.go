package cmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	lodelibrary "github.com/justapithecus/lode/lode"
	"github.com/urfave/cli/v2"

	"github.com/pithecene-io/targetwire/adapter"
	redisadapter "github.com/pithecene-io/targetwire/adapter/redis"
	"github.com/pithecene-io/targetwire/adapter/webhook"
	"github.com/pithecene-io/targetwire/cli/config"
	"github.com/pithecene-io/targetwire/log"
	"github.com/pithecene-io/targetwire/lode"
	"github.com/pithecene-io/targetwire/metrics"
	"github.com/pithecene-io/targetwire/policy"
)

// defaultCamera names streams when neither flag nor config sets a camera.
const defaultCamera = "camera0"

// loadConfig reads --config (if any) and applies every flag the user set
// on top. Flags not defined on the running command are ignored.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := &config.Config{}
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	setString(c, "camera", &cfg.Camera)
	setString(c, "log-level", &cfg.LogLevel)

	setString(c, "storage-dataset", &cfg.Storage.Dataset)
	setString(c, "storage-backend", &cfg.Storage.Backend)
	setString(c, "storage-path", &cfg.Storage.Path)
	setString(c, "storage-region", &cfg.Storage.S3.Region)
	setString(c, "storage-endpoint", &cfg.Storage.S3.Endpoint)

	setString(c, "adapter", &cfg.Adapter.Type)
	setString(c, "adapter-url", &cfg.Adapter.URL)
	setString(c, "adapter-channel", &cfg.Adapter.Channel)
	if c.IsSet("adapter-timeout") {
		cfg.Adapter.Timeout.Duration = c.Duration("adapter-timeout")
	}
	if c.IsSet("adapter-retries") {
		r := c.Int("adapter-retries")
		cfg.Adapter.Retries = &r
	}

	if c.IsSet("capture") {
		cfg.Stream.Capture = c.Bool("capture")
	}
	if c.IsSet("metrics-interval") {
		cfg.Stream.MetricsInterval.Duration = c.Duration("metrics-interval")
	}
	setString(c, "policy", &cfg.Stream.Policy)
	if c.IsSet("buffer-results") {
		cfg.Stream.BufferResults = c.Int("buffer-results")
	}
	if c.IsSet("buffer-bytes") {
		cfg.Stream.BufferBytes = c.Int64("buffer-bytes")
	}
	if c.IsSet("flush-interval") {
		cfg.Stream.FlushInterval.Duration = c.Duration("flush-interval")
	}

	if cfg.Camera == "" {
		cfg.Camera = defaultCamera
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setString(c *cli.Context, name string, dst *string) {
	if c.IsSet(name) {
		*dst = c.String(name)
	}
}

// newLogger builds the command logger on the app's error writer.
func newLogger(c *cli.Context, cfg *config.Config, sessionID string) (*log.Logger, error) {
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return log.NewLoggerWithWriter(log.Session{Camera: cfg.Camera, SessionID: sessionID}, level, errWriter(c)), nil
}

// buildAdapter creates the configured adapter, or nil when publishing is
// disabled.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "redis":
		a, err := redisadapter.New(redisadapter.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: retriesOr(cfg.Retries, redisadapter.DefaultRetries),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	case "webhook":
		a, err := webhook.New(webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: retriesOr(cfg.Retries, webhook.DefaultRetries),
		})
		if err != nil {
			return nil, err
		}
		return a, nil
	default:
		return nil, fmt.Errorf("unknown adapter type %q (must be redis or webhook)", cfg.Type)
	}
}

func retriesOr(r *int, def int) int {
	if r == nil {
		return def
	}
	return *r
}

// buildStoreFactory returns the lode store factory for the configured
// backend, or nil when recording is disabled.
func buildStoreFactory(ctx context.Context, cfg config.StorageConfig) (lodelibrary.StoreFactory, error) {
	switch cfg.Backend {
	case "":
		return nil, nil
	case "fs":
		return lodelibrary.NewFSFactory(cfg.Path), nil
	case "memory":
		return lodelibrary.NewMemoryFactory(), nil
	case "s3":
		return lode.NewS3Factory(ctx, cfg.ResolvedS3())
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s (must be fs, memory or s3)", cfg.Backend)
	}
}

// buildRecorder creates a recorder for the configured backend, or nil when
// recording is disabled.
func buildRecorder(ctx context.Context, cfg *config.Config, sessionID string, collector *metrics.Collector) (*lode.Recorder, error) {
	factory, err := buildStoreFactory(ctx, cfg.Storage)
	if err != nil || factory == nil {
		return nil, err
	}
	return lode.NewRecorderWithFactory(lode.Config{
		Dataset:   cfg.Storage.Dataset,
		Camera:    cfg.Camera,
		SessionID: sessionID,
	}, factory, collector)
}

// buildPolicy wraps rec in the configured recording policy. Without a
// recorder every result goes to a noop policy.
func buildPolicy(cfg config.StreamConfig, rec *lode.Recorder, logger *log.Logger) (policy.Policy, error) {
	if rec == nil {
		return policy.NewNoopPolicy(), nil
	}
	switch cfg.Policy {
	case "", policy.NameStrict:
		return policy.NewStrictPolicy(rec), nil
	case policy.NameBuffered:
		bc := policy.DefaultBufferedConfig()
		if cfg.BufferResults > 0 {
			bc.MaxBufferResults = cfg.BufferResults
		}
		if cfg.BufferBytes > 0 {
			bc.MaxBufferBytes = cfg.BufferBytes
		}
		bc.FlushInterval = cfg.FlushInterval.Duration
		bc.Logger = logger
		p, err := policy.NewBufferedPolicy(rec, bc)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown policy %q (must be strict or buffered)", cfg.Policy)
	}
}

// policyName is the policy buildPolicy picks, for logs.
func policyName(cfg config.StreamConfig, rec *lode.Recorder) string {
	switch {
	case rec == nil:
		return policy.NameNoop
	case cfg.Policy == "":
		return policy.NameStrict
	default:
		return cfg.Policy
	}
}

// buildReadDataset opens the configured dataset for queries.
func buildReadDataset(ctx context.Context, cfg config.StorageConfig) (lodelibrary.Dataset, error) {
	factory, err := buildStoreFactory(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, fmt.Errorf("--storage-backend is required")
	}
	return lode.NewDataset(cfg.Dataset, factory)
}

// openInput returns --in as a reader, or the app's reader when --in is
// empty or "-".
func openInput(c *cli.Context) (io.ReadCloser, error) {
	path := c.String("in")
	if path == "" || path == "-" {
		r := c.App.Reader
		if r == nil {
			r = os.Stdin
		}
		return io.NopCloser(r), nil
	}
	return os.Open(path)
}

// readInput reads all of --in, decoding hex text when --hex is set.
func readInput(c *cli.Context) ([]byte, error) {
	in, err := openInput(c)
	if err != nil {
		return nil, err
	}
	defer func() { _ = in.Close() }()

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	if !c.Bool("hex") {
		return data, nil
	}
	b, err := hex.DecodeString(strings.Join(strings.Fields(string(data)), ""))
	if err != nil {
		return nil, fmt.Errorf("invalid hex input: %w", err)
	}
	return b, nil
}

// openOutput returns --out as a writer, or the app's writer when --out is
// empty or "-".
func openOutput(c *cli.Context) (io.WriteCloser, error) {
	path := c.String("out")
	if path == "" || path == "-" {
		return nopWriteCloser{outWriter(c)}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func outWriter(c *cli.Context) io.Writer {
	if c.App.Writer != nil {
		return c.App.Writer
	}
	return os.Stdout
}

func errWriter(c *cli.Context) io.Writer {
	if c.App.ErrWriter != nil {
		return c.App.ErrWriter
	}
	return os.Stderr
}
