package lode

import (
	"testing"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/targetwire/sim"
)

func TestQueryTargets_Filters(t *testing.T) {
	store := lode.NewMemory()
	front := newTestRecorder(t, store, "front", nil)
	rear := newTestRecorder(t, store, "rear", nil)

	p := sim.NewPipeline("front", []int32{1, 2}, 5)
	for i := range int64(3) {
		r := p.Frame(i)
		if err := front.WriteResult(t.Context(), &r); err != nil {
			t.Fatalf("WriteResult failed: %v", err)
		}
	}
	r := sim.NewPipeline("rear", []int32{2}, 6).Frame(1)
	if err := rear.WriteResult(t.Context(), &r); err != nil {
		t.Fatalf("WriteResult failed: %v", err)
	}

	ds := front.Dataset()
	fid2 := int32(2)

	tests := []struct {
		name   string
		filter TargetFilter
		want   int
	}{
		// frames 0..2 carry 2 fiducials each, plus a detection on frame 0.
		{"front camera", TargetFilter{Camera: "front"}, 7},
		{"rear camera", TargetFilter{Camera: "rear"}, 1},
		{"all cameras", TargetFilter{}, 8},
		{"fiducial 2 everywhere", TargetFilter{FiducialID: &fid2}, 4},
		{"front poses only", TargetFilter{Camera: "front", PoseOnly: true}, 6},
		{"unknown session", TargetFilter{SessionID: "other"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := QueryTargets(t.Context(), ds, tt.filter)
			if err != nil {
				t.Fatalf("QueryTargets failed: %v", err)
			}
			if len(rows) != tt.want {
				t.Errorf("got %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}
