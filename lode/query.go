package lode

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// ErrNoMetricsFound is returned when no metrics records exist in the dataset.
var ErrNoMetricsFound = errors.New("no metrics records found")

// QueryLatestMetrics finds and reads the most recent metrics record.
// Filters by camera and sessionID if non-empty.
func QueryLatestMetrics(ctx context.Context, ds lode.Dataset, camera, sessionID string) (*MetricsRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	// Iterate in reverse (latest first); snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindMetrics) {
			continue
		}
		if !snapshotMatchesFilter(snap, "camera", camera) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}

		// Manifest path filtering is a coarse pre-filter; record fields
		// are authoritative.
		for _, item := range data {
			var rec MetricsRecord
			if err := fromRecordMap(item, &rec); err != nil {
				continue
			}
			if rec.RecordKind != RecordKindMetrics {
				continue
			}
			if camera != "" && rec.Camera != camera {
				continue
			}
			if sessionID != "" && rec.SessionID != sessionID {
				continue
			}
			return &rec, nil
		}
	}

	return nil, ErrNoMetricsFound
}

// TargetFilter narrows QueryTargets. Zero values match everything.
type TargetFilter struct {
	Camera    string
	SessionID string
	// FiducialID, when set, keeps only rows for that fiducial.
	FiducialID *int32
	// PoseOnly keeps only rows with a computed pose.
	PoseOnly bool
}

func (f TargetFilter) match(rec *TargetRecord) bool {
	if rec.RecordKind != RecordKindTarget {
		return false
	}
	if f.Camera != "" && rec.Camera != f.Camera {
		return false
	}
	if f.SessionID != "" && rec.SessionID != f.SessionID {
		return false
	}
	if f.FiducialID != nil && rec.FiducialID != *f.FiducialID {
		return false
	}
	if f.PoseOnly && !rec.HasPose {
		return false
	}
	return true
}

// QueryTargets returns every stored target row matching f, oldest first.
func QueryTargets(ctx context.Context, ds lode.Dataset, f TargetFilter) ([]TargetRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	var out []TargetRecord
	for _, snap := range snapshots {
		if !snapshotMatchesFilter(snap, "record_kind", RecordKindTarget) {
			continue
		}
		if !snapshotMatchesFilter(snap, "camera", f.Camera) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		for _, item := range data {
			var rec TargetRecord
			if err := fromRecordMap(item, &rec); err != nil {
				continue
			}
			if f.match(&rec) {
				out = append(out, rec)
			}
		}
	}
	return out, nil
}
