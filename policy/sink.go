package policy

import (
	"context"
	"sync"

	"github.com/pithecene-io/targetwire/target"
)

// Sink abstracts persistence for policies. lode.Recorder is the production
// implementation.
//
// Writes are batch-oriented so strict (batch of 1) and buffered policies
// share one interface.
type Sink interface {
	// WriteResults persists a batch of results in order.
	WriteResults(ctx context.Context, results []*target.Result) error

	// Close releases any resources held by the sink.
	Close() error
}

// StubSink is a test sink that accepts writes without persisting.
type StubSink struct {
	mu sync.Mutex

	// Batches holds every successful WriteResults call in order.
	Batches [][]*target.Result
	// ResultsWritten is the total number of results written.
	ResultsWritten int64
	// Closed indicates whether Close was called.
	Closed bool

	// ErrorOnWrite, if non-nil, is returned by WriteResults.
	ErrorOnWrite error
}

// NewStubSink creates a new stub sink for testing.
func NewStubSink() *StubSink {
	return &StubSink{}
}

// WriteResults records the batch without persisting.
func (s *StubSink) WriteResults(_ context.Context, results []*target.Result) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ErrorOnWrite != nil {
		return s.ErrorOnWrite
	}
	batch := make([]*target.Result, len(results))
	copy(batch, results)
	s.Batches = append(s.Batches, batch)
	s.ResultsWritten += int64(len(results))
	return nil
}

// SetError makes subsequent writes fail with err, or succeed when err is
// nil.
func (s *StubSink) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ErrorOnWrite = err
}

// Close marks the sink as closed.
func (s *StubSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Closed = true
	return nil
}

// Stats returns a snapshot of sink statistics.
func (s *StubSink) Stats() StubSinkStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StubSinkStats{
		ResultsWritten: s.ResultsWritten,
		Batches:        int64(len(s.Batches)),
		Closed:         s.Closed,
	}
}

// StubSinkStats is a snapshot of StubSink statistics.
type StubSinkStats struct {
	ResultsWritten int64
	Batches        int64
	Closed         bool
}
