// Package adapter defines the transport boundary for encoded results.
//
// Adapters move finished bytes to downstream consumers. They never look
// inside the payload; the record layout is owned by the target package.
package adapter

import (
	"context"
	"time"

	"github.com/pithecene-io/targetwire/target"
)

// Message is one encoded result addressed to downstream consumers.
type Message struct {
	// Camera names the producing camera.
	Camera string
	// Sequence is the result sequence number, duplicated outside the
	// payload so transports can route and dedupe without decoding.
	Sequence int64
	// Payload is the positional encoding of a target.Result.
	Payload []byte
}

// NewResultMessage encodes r into a Message.
func NewResultMessage(camera string, r *target.Result) *Message {
	return &Message{
		Camera:   camera,
		Sequence: r.Sequence,
		Payload:  target.EncodeResult(*r),
	}
}

// Adapter publishes encoded results to a downstream system.
type Adapter interface {
	// Publish sends one message downstream.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, msg *Message) error

	// Close releases adapter resources.
	Close() error
}

// Backoff returns the wait before retry attempt i (i >= 1): 500ms, 1s, 2s, ...
func Backoff(i int) time.Duration {
	if i < 1 {
		return 0
	}
	return time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
}
