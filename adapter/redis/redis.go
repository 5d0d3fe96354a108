// Package redis implements a Redis pub/sub adapter for encoded results.
//
// Each message is published as raw bytes on a channel and stored under
// "<channel>:latest" in the same pipeline, so late joiners can read the
// most recent result without waiting for the next frame.
// Retries with exponential backoff on connection errors.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pithecene-io/targetwire/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "targetwire:results"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// LatestSuffix is appended to the channel name to form the latest-result key.
const LatestSuffix = ":latest"

// ErrNoLatest is returned by Latest when nothing has been published yet.
var ErrNoLatest = errors.New("redis: no result published yet")

// Config configures the Redis pub/sub adapter.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: targetwire:results).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
}

// Adapter publishes encoded results via Redis PUBLISH.
type Adapter struct {
	config Config
	client *goredis.Client
}

// New creates a Redis pub/sub adapter from the given config.
// Returns an error if the URL is empty or invalid.
func New(cfg Config) (*Adapter, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis adapter requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis adapter: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Adapter{
		config: cfg,
		client: goredis.NewClient(opts),
	}, nil
}

// Channel returns the configured channel name.
func (a *Adapter) Channel() string { return a.config.Channel }

func (a *Adapter) latestKey() string { return a.config.Channel + LatestSuffix }

// Publish sends the payload to the configured channel and records it as
// the latest result. Retries with exponential backoff on failures.
func (a *Adapter) Publish(ctx context.Context, msg *adapter.Message) error {
	var lastErr error
	// attempts = 1 initial + retries
	attempts := 1 + a.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(adapter.Backoff(i)):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, a.config.Timeout)
		_, lastErr = a.client.Pipelined(publishCtx, func(pipe goredis.Pipeliner) error {
			pipe.Publish(publishCtx, a.config.Channel, msg.Payload)
			pipe.Set(publishCtx, a.latestKey(), msg.Payload, 0)
			return nil
		})
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Latest returns the most recently published payload.
func (a *Adapter) Latest(ctx context.Context) ([]byte, error) {
	b, err := a.client.Get(ctx, a.latestKey()).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrNoLatest
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get latest: %w", err)
	}
	return b, nil
}

// Subscription delivers payloads published on the adapter's channel.
type Subscription struct {
	pubsub *goredis.PubSub
}

// Subscribe subscribes to the channel and waits for the server to confirm,
// so no message published after Subscribe returns is missed.
func (a *Adapter) Subscribe(ctx context.Context) (*Subscription, error) {
	ps := a.client.Subscribe(ctx, a.config.Channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis: subscribe %s: %w", a.config.Channel, err)
	}
	return &Subscription{pubsub: ps}, nil
}

// Next blocks until the next payload arrives or ctx is done.
func (s *Subscription) Next(ctx context.Context) ([]byte, error) {
	msg, err := s.pubsub.ReceiveMessage(ctx)
	if err != nil {
		return nil, fmt.Errorf("redis: receive: %w", err)
	}
	return []byte(msg.Payload), nil
}

// Close unsubscribes.
func (s *Subscription) Close() error {
	return s.pubsub.Close()
}

// Close releases adapter resources.
func (a *Adapter) Close() error {
	return a.client.Close()
}

// Verify Adapter implements the adapter interface.
var _ adapter.Adapter = (*Adapter)(nil)
