package lode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/targetwire/metrics"
	"github.com/pithecene-io/targetwire/target"
)

// ErrInvalidCaptureName is returned for capture names that would escape
// the capture prefix.
var ErrInvalidCaptureName = errors.New("capture name must be a plain file name")

// Config holds recorder configuration.
type Config struct {
	// Dataset is the Lode dataset ID (default "targetwire").
	Dataset string
	// Camera is the partition key for the producing camera (required).
	Camera string
	// SessionID tags every target row.
	SessionID string
}

// Recorder writes decoded results and metrics to a Lode dataset. Each
// write call records lode_write_success or lode_write_failure on the
// collector; the collector may be nil.
type Recorder struct {
	dataset   lode.Dataset
	config    Config
	collector *metrics.Collector

	storeFactory lode.StoreFactory
	storeOnce    sync.Once
	store        lode.Store
	storeErr     error
}

// NewRecorder creates a recorder with filesystem storage rooted at root.
func NewRecorder(cfg Config, root string, collector *metrics.Collector) (*Recorder, error) {
	return NewRecorderWithFactory(cfg, lode.NewFSFactory(root), collector)
}

// NewRecorderWithFactory creates a recorder with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewRecorderWithFactory(cfg Config, factory lode.StoreFactory, collector *metrics.Collector) (*Recorder, error) {
	if cfg.Camera == "" {
		return nil, errors.New("recorder requires a camera")
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	ds, err := NewDataset(cfg.Dataset, factory)
	if err != nil {
		return nil, err
	}
	return &Recorder{
		dataset:      ds,
		config:       cfg,
		collector:    collector,
		storeFactory: factory,
	}, nil
}

// Dataset returns the underlying dataset for queries.
func (r *Recorder) Dataset() lode.Dataset { return r.dataset }

// WriteResult writes one target row per target in res. A result without
// targets writes nothing and counts as neither success nor failure.
func (r *Recorder) WriteResult(ctx context.Context, res *target.Result) error {
	return r.WriteResults(ctx, []*target.Result{res})
}

// WriteResults writes the target rows of every result in results as one
// dataset snapshot, in order.
func (r *Recorder) WriteResults(ctx context.Context, results []*target.Result) error {
	var records []any
	for _, res := range results {
		for i := range res.Targets {
			m, err := toRecordMap(toTargetRecord(r.config.Camera, r.config.SessionID, res, i))
			if err != nil {
				return fmt.Errorf("lode: encode target row: %w", err)
			}
			records = append(records, m)
		}
	}
	if len(records) == 0 {
		return nil
	}
	return r.write(ctx, records, RecordKindTarget)
}

// WriteMetrics writes a metrics snapshot row stamped with at.
func (r *Recorder) WriteMetrics(ctx context.Context, snap metrics.Snapshot, at time.Time) error {
	rec := toMetricsRecord(snap, at)
	if rec.Camera == "" {
		rec.Camera = r.config.Camera
	}
	m, err := toRecordMap(rec)
	if err != nil {
		return fmt.Errorf("lode: encode metrics row: %w", err)
	}
	return r.write(ctx, []any{m}, RecordKindMetrics)
}

func (r *Recorder) write(ctx context.Context, records []any, kind string) error {
	_, err := r.dataset.Write(ctx, records, lode.Metadata{})
	if err != nil {
		r.collector.IncLodeWriteFailure()
		return WrapWriteError(err, fmt.Sprintf("%s/camera=%s/record_kind=%s", r.config.Dataset, r.config.Camera, kind))
	}
	r.collector.IncLodeWriteSuccess()
	return nil
}

// PutCapture stores raw stream bytes as a sidecar file next to the
// partitioned rows, so a session can be replayed through decode later.
// Captures bypass the dataset manifest entirely.
func (r *Recorder) PutCapture(ctx context.Context, name string, day time.Time, data []byte) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return ErrInvalidCaptureName
	}
	store, err := r.getOrCreateStore()
	if err != nil {
		return WrapInitError(fmt.Errorf("capture store init failed: %w", err), r.config.Dataset)
	}

	p := r.capturePath(name, day)
	if err := store.Put(ctx, p, bytes.NewReader(data)); err != nil {
		r.collector.IncLodeWriteFailure()
		return WrapWriteError(err, p)
	}
	r.collector.IncLodeWriteSuccess()
	return nil
}

func (r *Recorder) getOrCreateStore() (lode.Store, error) {
	r.storeOnce.Do(func() {
		r.store, r.storeErr = r.storeFactory()
	})
	return r.store, r.storeErr
}

// capturePath computes the Hive-partitioned path for a capture file.
// Format: datasets/<dataset>/partitions/camera=<c>/day=<d>/record_kind=capture/files/<name>
func (r *Recorder) capturePath(name string, day time.Time) string {
	return path.Join(
		"datasets", r.config.Dataset, "partitions",
		"camera="+r.config.Camera,
		"day="+DeriveDay(day),
		"record_kind="+RecordKindCapture,
		"files", name,
	)
}

// Close releases recorder resources.
func (r *Recorder) Close() error {
	// Dataset doesn't require explicit close in current Lode API
	return nil
}
