package policy

import (
	"context"

	"github.com/pithecene-io/targetwire/target"
)

// NoopPolicy accepts every result and persists nothing. The stream uses it
// when no storage backend is configured.
//
// Stats keep the droppable distinction: results without targets count as
// dropped, everything else as persisted.
type NoopPolicy struct {
	stats *statsRecorder
}

// NewNoopPolicy creates a new no-op policy.
func NewNoopPolicy() *NoopPolicy {
	return &NoopPolicy{stats: newStatsRecorder()}
}

// Ingest accepts the result but does not persist it.
func (p *NoopPolicy) Ingest(_ context.Context, res *target.Result) error {
	p.stats.incTotal()
	if IsDroppable(res) {
		p.stats.incDropped()
	} else {
		p.stats.incPersisted(1)
	}
	return nil
}

// Flush is a no-op.
func (p *NoopPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close is a no-op.
func (p *NoopPolicy) Close() error {
	return nil
}

// Stats returns the policy statistics.
func (p *NoopPolicy) Stats() Stats {
	return p.stats.snapshot()
}
