package cmd

import (
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/targetwire/target"
)

// TargetRow is the flat table view of one target.
type TargetRow struct {
	Index       int     `json:"index"`
	FiducialID  int32   `json:"fiducial_id"`
	ObjDetectID int32   `json:"obj_detect_id"`
	Conf        float32 `json:"conf"`
	Yaw         float64 `json:"yaw"`
	Pitch       float64 `json:"pitch"`
	Area        float64 `json:"area"`
	HasPose     bool    `json:"has_pose"`
	Ambiguity   float64 `json:"ambiguity"`
	Distance    float64 `json:"distance"`
	Corners     int     `json:"corners"`
}

func newTargetRow(i int, t target.TrackedTarget) TargetRow {
	row := TargetRow{
		Index:       i,
		FiducialID:  t.FiducialID,
		ObjDetectID: t.ObjDetectID,
		Conf:        t.ObjDetectConf,
		Yaw:         t.Yaw,
		Pitch:       t.Pitch,
		Area:        t.Area,
		HasPose:     t.HasPose(),
		Ambiguity:   t.PoseAmbiguity,
		Corners:     len(t.DetectedCorners),
	}
	if best, ok := t.BestPose(); ok {
		row.Distance = best.Distance()
	}
	return row
}

func targetRows(ts []target.TrackedTarget) []TargetRow {
	rows := make([]TargetRow, len(ts))
	for i, t := range ts {
		rows[i] = newTargetRow(i, t)
	}
	return rows
}

// targetInput decodes a target from YAML or JSON text. Fields the
// document omits keep their "not present" sentinel.
type targetInput target.TrackedTarget

func (t *targetInput) UnmarshalYAML(n *yaml.Node) error {
	v := target.New()
	if err := n.Decode(&v); err != nil {
		return err
	}
	*t = targetInput(v)
	return nil
}

// resultInput decodes a result document, applying the target defaults
// to every element of targets.
type resultInput struct {
	Sequence      int64         `yaml:"sequence"`
	CaptureMicros int64         `yaml:"capture_micros"`
	LatencyMillis float64       `yaml:"latency_millis"`
	Targets       []targetInput `yaml:"targets"`
}

func (r resultInput) result() target.Result {
	out := target.Result{
		Sequence:      r.Sequence,
		CaptureMicros: r.CaptureMicros,
		LatencyMillis: r.LatencyMillis,
		Targets:       make([]target.TrackedTarget, len(r.Targets)),
	}
	for i, t := range r.Targets {
		out.Targets[i] = target.TrackedTarget(t)
	}
	return out
}
