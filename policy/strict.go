package policy

import (
	"context"

	"github.com/pithecene-io/targetwire/target"
)

// StrictPolicy writes every result through as it arrives.
//
//   - No buffering: each result is one sink write
//   - No drops
//   - Backpressure: Ingest blocks on sink latency
type StrictPolicy struct {
	sink  Sink
	stats *statsRecorder
}

// NewStrictPolicy creates a new strict policy writing to the given sink.
func NewStrictPolicy(sink Sink) *StrictPolicy {
	return &StrictPolicy{sink: sink, stats: newStatsRecorder()}
}

// Ingest writes res immediately (batch of 1).
func (p *StrictPolicy) Ingest(ctx context.Context, res *target.Result) error {
	p.stats.incTotal()

	if err := p.sink.WriteResults(ctx, []*target.Result{res}); err != nil {
		p.stats.incErrors()
		return err
	}
	p.stats.incPersisted(1)
	return nil
}

// Flush is a no-op for strict policy (nothing is buffered).
func (p *StrictPolicy) Flush(_ context.Context) error {
	p.stats.incFlush()
	return nil
}

// Close closes the underlying sink.
func (p *StrictPolicy) Close() error {
	return p.sink.Close()
}

// Stats returns policy statistics.
func (p *StrictPolicy) Stats() Stats {
	return p.stats.snapshot()
}
