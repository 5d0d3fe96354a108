package lode

import (
	"encoding/json"
	"time"

	"github.com/pithecene-io/targetwire/metrics"
	"github.com/pithecene-io/targetwire/target"
)

// RecordKind discriminator values. Each is also a partition value.
const (
	RecordKindTarget  = "target"
	RecordKindMetrics = "metrics"
	RecordKindCapture = "capture"
)

// TargetRecord is the storage format for one decoded target. The record
// flattens the target and its containing result so rows can be queried
// without the binary codec.
type TargetRecord struct {
	// Record discriminator
	RecordKind string `json:"record_kind"`

	// Result context
	SessionID     string  `json:"session_id"`
	Sequence      int64   `json:"sequence"`
	Index         int     `json:"index"`
	CaptureMicros int64   `json:"capture_micros"`
	LatencyMillis float64 `json:"latency_millis"`

	// Target fields
	Yaw           float64 `json:"yaw"`
	Pitch         float64 `json:"pitch"`
	Area          float64 `json:"area"`
	Skew          float64 `json:"skew"`
	FiducialID    int32   `json:"fiducial_id"`
	ObjDetectID   int32   `json:"obj_detect_id"`
	ObjDetectConf float32 `json:"obj_detect_conf"`
	PoseAmbiguity float64 `json:"pose_ambiguity"`
	HasPose       bool    `json:"has_pose"`
	// Best pose, flattened. Zero when HasPose is false.
	BestX        float64 `json:"best_x"`
	BestY        float64 `json:"best_y"`
	BestZ        float64 `json:"best_z"`
	Distance     float64 `json:"distance"`
	CornerCount  int     `json:"corner_count"`
	EncodedBytes int     `json:"encoded_bytes"`

	// Partition keys
	Camera string `json:"camera"`
	Day    string `json:"day"`
}

// MetricsRecord is the storage format for a session metrics snapshot.
type MetricsRecord struct {
	RecordKind string `json:"record_kind"`
	metrics.Snapshot
	// RecordedAt is RFC 3339 in UTC.
	RecordedAt string `json:"recorded_at"`

	Day string `json:"day"`
}

func toTargetRecord(camera, sessionID string, r *target.Result, idx int) TargetRecord {
	t := r.Targets[idx]
	rec := TargetRecord{
		RecordKind:    RecordKindTarget,
		SessionID:     sessionID,
		Sequence:      r.Sequence,
		Index:         idx,
		CaptureMicros: r.CaptureMicros,
		LatencyMillis: r.LatencyMillis,
		Yaw:           t.Yaw,
		Pitch:         t.Pitch,
		Area:          t.Area,
		Skew:          t.Skew,
		FiducialID:    t.FiducialID,
		ObjDetectID:   t.ObjDetectID,
		ObjDetectConf: t.ObjDetectConf,
		PoseAmbiguity: t.PoseAmbiguity,
		CornerCount:   len(t.DetectedCorners),
		EncodedBytes:  t.EncodedSize(),
		Camera:        camera,
		Day:           DeriveDay(time.UnixMicro(r.CaptureMicros)),
	}
	if pose, ok := t.BestPose(); ok {
		rec.HasPose = true
		rec.BestX = pose.Translation.X
		rec.BestY = pose.Translation.Y
		rec.BestZ = pose.Translation.Z
		rec.Distance = pose.Distance()
	}
	return rec
}

func toMetricsRecord(snap metrics.Snapshot, at time.Time) MetricsRecord {
	return MetricsRecord{
		RecordKind: RecordKindMetrics,
		Snapshot:   snap,
		RecordedAt: at.UTC().Format(time.RFC3339),
		Day:        DeriveDay(at),
	}
}

// toRecordMap converts a record struct to the map form Lode's Hive layout
// requires.
func toRecordMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// fromRecordMap decodes a stored row into a record struct.
func fromRecordMap(item any, out any) error {
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}
