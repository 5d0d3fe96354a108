// Package sim produces deterministic synthetic pipeline results. It stands
// in for a vision coprocessor when exercising the codec, the stream framing
// and the transports without a camera.
package sim

import (
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pithecene-io/targetwire/geom"
	"github.com/pithecene-io/targetwire/target"
)

// Defaults applied by NewPipeline.
const (
	DefaultFrameInterval = 20 * time.Millisecond
	DefaultOrbitRadius   = 2.5
	// DetectionEvery is how often an object-detection target joins a frame.
	DetectionEvery = 3
)

// Pipeline generates results for a fixed set of fiducials orbiting the
// camera. The same Pipeline and frame index always yield the same Result.
type Pipeline struct {
	Camera        string
	Fiducials     []int32
	Seed          uint64
	Start         time.Time
	FrameInterval time.Duration
	OrbitRadius   float64
}

// NewPipeline returns a pipeline with default timing and geometry.
func NewPipeline(camera string, fiducials []int32, seed uint64) *Pipeline {
	return &Pipeline{
		Camera:        camera,
		Fiducials:     fiducials,
		Seed:          seed,
		Start:         time.Unix(1_700_000_000, 0),
		FrameInterval: DefaultFrameInterval,
		OrbitRadius:   DefaultOrbitRadius,
	}
}

// Frame returns the result for frame index i.
func (p *Pipeline) Frame(i int64) target.Result {
	rng := rand.New(rand.NewPCG(p.Seed, uint64(i)))

	res := target.Result{
		Sequence:      i,
		CaptureMicros: p.Start.Add(time.Duration(i) * p.FrameInterval).UnixMicro(),
		LatencyMillis: 2 + rng.Float64()*6,
		Targets:       make([]target.TrackedTarget, 0, len(p.Fiducials)+1),
	}

	n := float64(len(p.Fiducials))
	for k, id := range p.Fiducials {
		phase := float64(i)*0.05 + float64(k)*2*math.Pi/n
		res.Targets = append(res.Targets, p.fiducial(rng, id, phase))
	}
	if i%DetectionEvery == 0 {
		res.Targets = append(res.Targets, detection(rng))
	}
	return res
}

// Frames returns results for frame indices [from, from+count).
func (p *Pipeline) Frames(from int64, count int) []target.Result {
	out := make([]target.Result, 0, count)
	for i := range int64(count) {
		out = append(out, p.Frame(from+i))
	}
	return out
}

func (p *Pipeline) fiducial(rng *rand.Rand, id int32, phase float64) target.TrackedTarget {
	radius := p.OrbitRadius
	if radius <= 0 {
		radius = DefaultOrbitRadius
	}

	// Camera frame: X forward, Y left, Z up.
	translation := r3.Vec{
		X: radius * math.Cos(phase),
		Y: radius * math.Sin(phase),
		Z: 0.3 + rng.NormFloat64()*0.01,
	}
	best := geom.FromAxisAngle(translation, math.Pi+phase, r3.Vec{Z: 1})
	alt := geom.FromAxisAngle(translation, math.Pi-phase, r3.Vec{Z: 1})

	dist := r3.Norm(translation)
	yaw := math.Atan2(translation.Y, translation.X) * 180 / math.Pi
	pitch := math.Atan2(translation.Z, math.Hypot(translation.X, translation.Y)) * 180 / math.Pi
	side := 40 / dist

	t := target.New()
	t.Yaw = yaw
	t.Pitch = pitch
	t.Area = math.Min(100, side*side/(640*480)*100)
	t.Skew = rng.NormFloat64() * 2
	t.FiducialID = id
	t.BestCameraToTarget = best
	t.AltCameraToTarget = alt
	t.PoseAmbiguity = rng.Float64() * 0.3

	cx, cy := 320-yaw*8, 240-pitch*8
	t.MinAreaRectCorners = square(cx, cy, side)
	// Fiducial corners run counter-clockwise from bottom left.
	corners := square(cx, cy, side)
	t.DetectedCorners = []geom.Point{corners[3], corners[2], corners[1], corners[0]}
	return t
}

func detection(rng *rand.Rand) target.TrackedTarget {
	t := target.New()
	t.Yaw = rng.NormFloat64() * 15
	t.Pitch = rng.NormFloat64() * 5
	t.Area = 1 + rng.Float64()*10
	t.ObjDetectID = rng.Int32N(4)
	t.ObjDetectConf = 0.5 + rng.Float32()*0.5

	side := 30 + rng.Float64()*60
	cx, cy := 320-t.Yaw*8, 240-t.Pitch*8
	t.MinAreaRectCorners = square(cx, cy, side)
	t.DetectedCorners = []geom.Point{}
	return t
}

// square returns the corners of an axis-aligned square in image
// coordinates, clockwise from top left.
func square(cx, cy, side float64) [target.RectCorners]geom.Point {
	h := side / 2
	return [target.RectCorners]geom.Point{
		{X: cx - h, Y: cy - h},
		{X: cx + h, Y: cy - h},
		{X: cx + h, Y: cy + h},
		{X: cx - h, Y: cy + h},
	}
}
