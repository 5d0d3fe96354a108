// Package metrics provides per-session counters for a targetwire stream.
//
// The Collector accumulates counters during a single session. It is a leaf
// package with no internal dependencies.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all session metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Codec
	ResultsEncoded  int64 `json:"results_encoded"`
	ResultsDecoded  int64 `json:"results_decoded"`
	TargetsDecoded  int64 `json:"targets_decoded"`
	UnderflowErrors int64 `json:"underflow_errors"`
	MissingPose     int64 `json:"missing_pose"`

	// Stream
	BytesIn       int64 `json:"bytes_in"`
	BytesOut      int64 `json:"bytes_out"`
	ControlFrames int64 `json:"control_frames"`
	FrameErrors   int64 `json:"frame_errors"`

	// Transport
	PublishSuccess int64 `json:"publish_success"`
	PublishFailure int64 `json:"publish_failure"`

	// Lode / Storage
	LodeWriteSuccess int64 `json:"lode_write_success"`
	LodeWriteFailure int64 `json:"lode_write_failure"`

	// Dimensions (informational, set at construction)
	Camera         string `json:"camera"`
	SessionID      string `json:"session_id"`
	Adapter        string `json:"adapter"`
	StorageBackend string `json:"storage_backend"`
}

// Collector accumulates metrics during a single session.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	resultsEncoded  int64
	resultsDecoded  int64
	targetsDecoded  int64
	underflowErrors int64
	missingPose     int64

	bytesIn       int64
	bytesOut      int64
	controlFrames int64
	frameErrors   int64

	publishSuccess int64
	publishFailure int64

	lodeWriteSuccess int64
	lodeWriteFailure int64

	camera         string
	sessionID      string
	adapter        string
	storageBackend string
}

// NewCollector creates a Collector with dimension labels. adapter and
// storageBackend are "none" when the session runs without them.
func NewCollector(camera, sessionID, adapter, storageBackend string) *Collector {
	return &Collector{
		camera:         camera,
		sessionID:      sessionID,
		adapter:        adapter,
		storageBackend: storageBackend,
	}
}

func (c *Collector) add(field *int64, n int64) {
	c.mu.Lock()
	*field += n
	c.mu.Unlock()
}

// --- Codec ---

// IncResultEncoded records one result written to the stream.
func (c *Collector) IncResultEncoded() {
	if c == nil {
		return
	}
	c.add(&c.resultsEncoded, 1)
}

// IncResultDecoded records one decoded result carrying n targets.
func (c *Collector) IncResultDecoded(targets int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.resultsDecoded++
	c.targetsDecoded += int64(targets)
	c.mu.Unlock()
}

// IncUnderflow records a decode that ran out of bytes.
func (c *Collector) IncUnderflow() {
	if c == nil {
		return
	}
	c.add(&c.underflowErrors, 1)
}

// IncMissingPose records a target read for its pose when none was computed.
func (c *Collector) IncMissingPose() {
	if c == nil {
		return
	}
	c.add(&c.missingPose, 1)
}

// --- Stream ---

// AddBytesIn records bytes read from the stream.
func (c *Collector) AddBytesIn(n int) {
	if c == nil {
		return
	}
	c.add(&c.bytesIn, int64(n))
}

// AddBytesOut records bytes written to the stream.
func (c *Collector) AddBytesOut(n int) {
	if c == nil {
		return
	}
	c.add(&c.bytesOut, int64(n))
}

// IncControlFrame records a control frame.
func (c *Collector) IncControlFrame() {
	if c == nil {
		return
	}
	c.add(&c.controlFrames, 1)
}

// IncFrameError records a frame that could not be read or decoded.
func (c *Collector) IncFrameError() {
	if c == nil {
		return
	}
	c.add(&c.frameErrors, 1)
}

// --- Transport ---

// IncPublishSuccess records a successful adapter publish.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.add(&c.publishSuccess, 1)
}

// IncPublishFailure records a publish that failed after all retries.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.add(&c.publishFailure, 1)
}

// --- Lode / Storage ---
// Lode counters are per-call, not per-record. A single WriteResult call
// with N targets counts as 1 success.

// IncLodeWriteSuccess records a successful Lode write operation (per-call).
func (c *Collector) IncLodeWriteSuccess() {
	if c == nil {
		return
	}
	c.add(&c.lodeWriteSuccess, 1)
}

// IncLodeWriteFailure records a failed Lode write operation (per-call).
func (c *Collector) IncLodeWriteFailure() {
	if c == nil {
		return
	}
	c.add(&c.lodeWriteFailure, 1)
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		ResultsEncoded:  c.resultsEncoded,
		ResultsDecoded:  c.resultsDecoded,
		TargetsDecoded:  c.targetsDecoded,
		UnderflowErrors: c.underflowErrors,
		MissingPose:     c.missingPose,

		BytesIn:       c.bytesIn,
		BytesOut:      c.bytesOut,
		ControlFrames: c.controlFrames,
		FrameErrors:   c.frameErrors,

		PublishSuccess: c.publishSuccess,
		PublishFailure: c.publishFailure,

		LodeWriteSuccess: c.lodeWriteSuccess,
		LodeWriteFailure: c.lodeWriteFailure,

		Camera:         c.camera,
		SessionID:      c.sessionID,
		Adapter:        c.adapter,
		StorageBackend: c.storageBackend,
	}
}
