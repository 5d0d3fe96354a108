// Package policy decides when decoded results reach the recorder.
//
// A stream hands every decoded result to one Policy. The policy either
// writes it through at once (strict), batches it (buffered) or discards it
// (noop, used when recording is disabled). Policies never alter a result.
package policy

import (
	"context"
	"sync"

	"github.com/pithecene-io/targetwire/target"
)

// Names accepted by the stream configuration.
const (
	NameStrict   = "strict"
	NameBuffered = "buffered"
	NameNoop     = "noop"
)

// Policy defines the recording policy interface.
//
// Results that carry targets must never be dropped; a policy that cannot
// hold one returns an error. Results without targets write no rows and
// may be dropped.
type Policy interface {
	// Ingest accepts one decoded result.
	Ingest(ctx context.Context, res *target.Result) error

	// Flush writes anything buffered. Called when the stream ends.
	Flush(ctx context.Context) error

	// Close releases the policy and its sink.
	Close() error

	// Stats returns a consistent point-in-time snapshot.
	Stats() Stats
}

// Stats are policy counters.
type Stats struct {
	// TotalResults is the number of results ingested.
	TotalResults int64 `json:"total_results"`
	// ResultsPersisted is the number of results handed to the sink.
	ResultsPersisted int64 `json:"results_persisted"`
	// ResultsDropped is the number of target-less results discarded.
	ResultsDropped int64 `json:"results_dropped"`
	// BufferResults and BufferSize describe what is buffered right now.
	BufferResults int64 `json:"buffer_results"`
	BufferSize    int64 `json:"buffer_size"`
	// FlushCount is the number of sink writes attempted by Flush or a
	// trigger.
	FlushCount int64 `json:"flush_count"`
	// FlushByTrigger counts successful flushes by trigger.
	FlushByTrigger map[FlushTrigger]int64 `json:"flush_by_trigger,omitempty"`
	// Errors is the number of failed sink writes and rejected results.
	Errors int64 `json:"errors"`
}

// FlushTrigger identifies what caused a flush.
type FlushTrigger string

// Flush triggers.
const (
	FlushTriggerCount       FlushTrigger = "count"
	FlushTriggerBytes       FlushTrigger = "bytes"
	FlushTriggerInterval    FlushTrigger = "interval"
	FlushTriggerTermination FlushTrigger = "termination"
)

// IsDroppable reports whether res may be discarded: it has no targets and
// so would write no rows.
func IsDroppable(res *target.Result) bool {
	return !res.HasTargets()
}

// statsRecorder keeps Stats behind a mutex.
//
// StrictPolicy and NoopPolicy use the locking methods. BufferedPolicy uses
// the Locked methods only while holding its own mu, keeping buffer state
// and counters consistent.
type statsRecorder struct {
	mu    sync.Mutex
	stats Stats
}

func newStatsRecorder() *statsRecorder {
	return &statsRecorder{stats: Stats{FlushByTrigger: make(map[FlushTrigger]int64)}}
}

func (r *statsRecorder) incTotal() {
	r.mu.Lock()
	r.incTotalLocked()
	r.mu.Unlock()
}

func (r *statsRecorder) incPersisted(n int64) {
	r.mu.Lock()
	r.incPersistedLocked(n)
	r.mu.Unlock()
}

func (r *statsRecorder) incDropped() {
	r.mu.Lock()
	r.incDroppedLocked()
	r.mu.Unlock()
}

func (r *statsRecorder) incErrors() {
	r.mu.Lock()
	r.incErrorsLocked()
	r.mu.Unlock()
}

func (r *statsRecorder) incFlush() {
	r.mu.Lock()
	r.incFlushLocked()
	r.mu.Unlock()
}

func (r *statsRecorder) snapshot() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked(0, 0)
}

// --- Locked methods for BufferedPolicy ---
// Caller must hold BufferedPolicy.mu.

func (r *statsRecorder) incTotalLocked()            { r.stats.TotalResults++ }
func (r *statsRecorder) incPersistedLocked(n int64) { r.stats.ResultsPersisted += n }
func (r *statsRecorder) incDroppedLocked()          { r.stats.ResultsDropped++ }
func (r *statsRecorder) incErrorsLocked()           { r.stats.Errors++ }
func (r *statsRecorder) incFlushLocked()            { r.stats.FlushCount++ }

func (r *statsRecorder) incTriggerLocked(t FlushTrigger) {
	r.stats.FlushByTrigger[t]++
}

// snapshotLocked copies the counters with the given buffer state.
func (r *statsRecorder) snapshotLocked(bufferResults, bufferSize int64) Stats {
	s := r.stats
	s.BufferResults = bufferResults
	s.BufferSize = bufferSize
	s.FlushByTrigger = make(map[FlushTrigger]int64, len(r.stats.FlushByTrigger))
	for k, v := range r.stats.FlushByTrigger {
		s.FlushByTrigger[k] = v
	}
	return s
}
