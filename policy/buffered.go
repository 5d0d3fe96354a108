package policy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pithecene-io/targetwire/log"
	"github.com/pithecene-io/targetwire/target"
)

// BufferedConfig configures a BufferedPolicy.
type BufferedConfig struct {
	// MaxBufferResults flushes once this many results are buffered.
	// Zero means no count limit.
	MaxBufferResults int

	// MaxBufferBytes flushes once the buffered results' encoded size
	// reaches this many bytes. Zero means no byte limit.
	MaxBufferBytes int64

	// FlushInterval flushes on the first Ingest after this much time has
	// passed since the last flush. Zero disables the interval trigger.
	FlushInterval time.Duration

	// Logger is an optional logger for policy observability.
	// If nil, no logging is emitted.
	Logger *log.Logger

	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// DefaultBufferedConfig returns sensible defaults for buffered policy.
func DefaultBufferedConfig() BufferedConfig {
	return BufferedConfig{
		MaxBufferResults: 100,
		MaxBufferBytes:   4 * 1024 * 1024,
	}
}

// ErrBufferFull is returned when a result with targets cannot be buffered
// because the buffer is full and flushing it failed.
var ErrBufferFull = errors.New("buffer full: cannot accept result with targets")

// ErrInvalidConfig is returned when BufferedConfig is invalid.
var ErrInvalidConfig = errors.New("invalid config: at least one of MaxBufferResults or MaxBufferBytes must be set")

// BufferedPolicy batches results into fewer sink writes.
//
//   - Bounded buffer with explicit limits
//   - A flush fires when a limit is reached or the interval has elapsed,
//     and on Flush at stream end
//   - Results without targets are dropped rather than buffered
//   - On a failed flush the buffer is kept and retried by the next
//     trigger; results may be written twice, never lost
//   - When the buffer is full and cannot be flushed, Ingest fails
//
// Single-writer: the stream ingests from one goroutine, but the policy is
// safe for concurrent use.
type BufferedPolicy struct {
	sink   Sink
	config BufferedConfig
	logger *log.Logger
	now    func() time.Time

	// flushMu serializes sink writes.
	flushMu sync.Mutex

	mu          sync.Mutex // guards buffer state and stats
	buffer      []*target.Result
	bufferBytes int64
	lastFlush   time.Time
	stats       *statsRecorder
}

// NewBufferedPolicy creates a new buffered policy.
// Returns error if config is invalid.
func NewBufferedPolicy(sink Sink, config BufferedConfig) (*BufferedPolicy, error) {
	if config.MaxBufferResults <= 0 && config.MaxBufferBytes <= 0 {
		return nil, ErrInvalidConfig
	}
	if config.FlushInterval < 0 {
		return nil, fmt.Errorf("invalid config: negative flush interval %v", config.FlushInterval)
	}

	now := config.Now
	if now == nil {
		now = time.Now
	}
	return &BufferedPolicy{
		sink:      sink,
		config:    config,
		logger:    config.Logger,
		now:       now,
		buffer:    make([]*target.Result, 0, max(config.MaxBufferResults, 16)),
		lastFlush: now(),
		stats:     newStatsRecorder(),
	}, nil
}

// Ingest buffers res and flushes when a trigger fires.
//
// If the buffer is already full (a previous flush failed), Ingest first
// retries the flush; a result with targets is rejected with ErrBufferFull
// when that retry fails too. A failed triggered flush after the append is
// returned, but res stays buffered for the next trigger.
func (p *BufferedPolicy) Ingest(ctx context.Context, res *target.Result) error {
	size := int64(res.EncodedSize())

	p.mu.Lock()
	p.stats.incTotalLocked()
	if IsDroppable(res) {
		p.stats.incDroppedLocked()
		p.mu.Unlock()
		return nil
	}
	room := p.hasRoom(size)
	p.mu.Unlock()

	if !room {
		if err := p.flush(ctx, p.fullTrigger()); err != nil {
			p.mu.Lock()
			p.stats.incErrorsLocked()
			p.mu.Unlock()
			p.logOverflow(res)
			return fmt.Errorf("%w: %w", ErrBufferFull, err)
		}
	}

	p.mu.Lock()
	p.buffer = append(p.buffer, res)
	p.bufferBytes += size
	trigger, due := p.dueTrigger()
	p.mu.Unlock()

	if !due {
		return nil
	}
	return p.flush(ctx, trigger)
}

// Flush writes all buffered results to the sink.
func (p *BufferedPolicy) Flush(ctx context.Context) error {
	return p.flush(ctx, FlushTriggerTermination)
}

// flush writes the current buffer as one batch. The buffer is cleared only
// after the sink accepts it.
func (p *BufferedPolicy) flush(ctx context.Context, trigger FlushTrigger) error {
	p.flushMu.Lock()
	defer p.flushMu.Unlock()

	p.mu.Lock()
	p.stats.incFlushLocked()
	batch := p.buffer[:len(p.buffer):len(p.buffer)]
	p.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := p.sink.WriteResults(ctx, batch); err != nil {
		p.mu.Lock()
		p.stats.incErrorsLocked()
		p.mu.Unlock()
		p.logFlushFailure(trigger, len(batch), err)
		return err
	}

	var written int64
	for _, r := range batch {
		written += int64(r.EncodedSize())
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	// Results appended during the write stay buffered.
	rest := p.buffer[len(batch):]
	p.buffer = append(make([]*target.Result, 0, cap(p.buffer)), rest...)
	p.bufferBytes -= written
	p.lastFlush = p.now()
	p.stats.incPersistedLocked(int64(len(batch)))
	p.stats.incTriggerLocked(trigger)
	return nil
}

// Close flushes any buffered results and closes the sink. The sink is
// closed even when the flush fails.
func (p *BufferedPolicy) Close() error {
	flushErr := p.Flush(context.Background())
	closeErr := p.sink.Close()
	return errors.Join(flushErr, closeErr)
}

// Stats returns policy statistics with the current buffer state.
func (p *BufferedPolicy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.stats.snapshotLocked(int64(len(p.buffer)), p.bufferBytes)
}

// hasRoom reports whether a result of size bytes fits. Caller must hold mu.
// An empty buffer always has room so an oversized result is still written.
func (p *BufferedPolicy) hasRoom(size int64) bool {
	if len(p.buffer) == 0 {
		return true
	}
	if p.config.MaxBufferResults > 0 && len(p.buffer) >= p.config.MaxBufferResults {
		return false
	}
	if p.config.MaxBufferBytes > 0 && p.bufferBytes+size > p.config.MaxBufferBytes {
		return false
	}
	return true
}

// fullTrigger names the limit that made the buffer full.
func (p *BufferedPolicy) fullTrigger() FlushTrigger {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.config.MaxBufferResults > 0 && len(p.buffer) >= p.config.MaxBufferResults {
		return FlushTriggerCount
	}
	return FlushTriggerBytes
}

// dueTrigger reports whether a flush is due after an append. Caller must
// hold mu.
func (p *BufferedPolicy) dueTrigger() (FlushTrigger, bool) {
	switch {
	case p.config.MaxBufferResults > 0 && len(p.buffer) >= p.config.MaxBufferResults:
		return FlushTriggerCount, true
	case p.config.MaxBufferBytes > 0 && p.bufferBytes >= p.config.MaxBufferBytes:
		return FlushTriggerBytes, true
	case p.config.FlushInterval > 0 && p.now().Sub(p.lastFlush) >= p.config.FlushInterval:
		return FlushTriggerInterval, true
	default:
		return "", false
	}
}

// --- Logging helpers ---

func (p *BufferedPolicy) logOverflow(res *target.Result) {
	if p.logger == nil {
		return
	}
	p.logger.Error("buffer overflow", map[string]any{
		"sequence": res.Sequence,
		"targets":  len(res.Targets),
		"policy":   NameBuffered,
	})
}

func (p *BufferedPolicy) logFlushFailure(trigger FlushTrigger, n int, err error) {
	if p.logger == nil {
		return
	}
	p.logger.Error("flush failed", map[string]any{
		"trigger": string(trigger),
		"results": n,
		"error":   err.Error(),
		"policy":  NameBuffered,
	})
}
