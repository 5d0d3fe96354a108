package sim

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pithecene-io/targetwire/target"
)

func TestPipeline_Deterministic(t *testing.T) {
	a := NewPipeline("front", []int32{1, 2, 3}, 42)
	b := NewPipeline("front", []int32{1, 2, 3}, 42)

	for i := range int64(10) {
		ra, rb := a.Frame(i), b.Frame(i)
		if !ra.Equal(rb) {
			t.Fatalf("frame %d differs between identical pipelines", i)
		}
		if got := target.EncodeResult(ra); string(got) != string(target.EncodeResult(rb)) {
			t.Fatalf("frame %d encodes differently", i)
		}
	}
}

func TestPipeline_SeedChangesOutput(t *testing.T) {
	a := NewPipeline("front", []int32{1}, 1).Frame(0)
	b := NewPipeline("front", []int32{1}, 2).Frame(0)
	if a.Equal(b) {
		t.Error("different seeds produced identical frames")
	}
}

func TestPipeline_FrameShape(t *testing.T) {
	p := NewPipeline("front", []int32{7, 8}, 9)

	tests := []struct {
		index       int64
		wantTargets int
	}{
		{0, 3},
		{1, 2},
		{2, 2},
		{3, 3},
	}

	for _, tt := range tests {
		r := p.Frame(tt.index)
		if len(r.Targets) != tt.wantTargets {
			t.Errorf("frame %d: %d targets, want %d", tt.index, len(r.Targets), tt.wantTargets)
		}
		if r.Sequence != tt.index {
			t.Errorf("frame %d: Sequence = %d", tt.index, r.Sequence)
		}

		for _, tgt := range r.Targets {
			switch {
			case tgt.IsFiducial():
				if !tgt.HasPose() {
					t.Errorf("frame %d: fiducial %d has no pose", tt.index, tgt.FiducialID)
				}
				if len(tgt.DetectedCorners) != 4 {
					t.Errorf("frame %d: fiducial has %d corners, want 4", tt.index, len(tgt.DetectedCorners))
				}
				if d := tgt.BestCameraToTarget.Distance(); d < 2 || d > 3 {
					t.Errorf("frame %d: distance %v outside orbit", tt.index, d)
				}
			case tgt.IsObjectDetection():
				if tgt.HasPose() {
					t.Errorf("frame %d: detection should not carry a pose", tt.index)
				}
			default:
				t.Errorf("frame %d: target is neither fiducial nor detection", tt.index)
			}
		}
	}
}

func TestPipeline_FrameTiming(t *testing.T) {
	p := NewPipeline("front", nil, 1)
	frames := p.Frames(10, 3)

	got := []int64{frames[0].CaptureMicros, frames[1].CaptureMicros, frames[2].CaptureMicros}
	base := p.Start.UnixMicro()
	step := DefaultFrameInterval.Microseconds()
	want := []int64{base + 10*step, base + 11*step, base + 12*step}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("capture times mismatch (-want +got):\n%s", diff)
	}
}

func TestPipeline_RoundTripsThroughCodec(t *testing.T) {
	p := NewPipeline("front", []int32{1, 2, 3, 4}, 77)
	for _, r := range p.Frames(0, 20) {
		got, n, err := target.DecodeResult(target.EncodeResult(r))
		if err != nil {
			t.Fatalf("frame %d: DecodeResult failed: %v", r.Sequence, err)
		}
		if n != r.EncodedSize() {
			t.Errorf("frame %d: consumed %d, want %d", r.Sequence, n, r.EncodedSize())
		}
		if !got.Equal(r) {
			t.Errorf("frame %d: round trip mismatch", r.Sequence)
		}
	}
}
