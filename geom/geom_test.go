package geom

import (
	"encoding/json"
	"math"
	"testing"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/pithecene-io/targetwire/packet"
)

func TestTransform3d_PackLayout(t *testing.T) {
	tr := Transform3d{
		Translation: r3.Vec{X: 1, Y: 2, Z: 3},
		Rotation:    quat.Number{Real: 4, Imag: 5, Jmag: 6, Kmag: 7},
	}

	p := packet.New()
	tr.Pack(p)

	if p.Len() != TransformSize {
		t.Fatalf("Len() = %d, want %d", p.Len(), TransformSize)
	}

	// Translation first, then quaternion W, X, Y, Z.
	for i, want := range []float64{1, 2, 3, 4, 5, 6, 7} {
		got, err := p.ReadFloat64()
		if err != nil {
			t.Fatalf("ReadFloat64 #%d failed: %v", i, err)
		}
		if got != want {
			t.Errorf("component %d = %v, want %v", i, got, want)
		}
	}
}

func TestTransform3d_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		tr   Transform3d
	}{
		{"identity", Identity()},
		{"zero value", Transform3d{}},
		{"axis angle", FromAxisAngle(r3.Vec{X: 2.5, Y: -0.3, Z: 0.1}, math.Pi/3, r3.Vec{Z: 1})},
		{"negative zero", Transform3d{Translation: r3.Vec{X: math.Copysign(0, -1)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := packet.New()
			tt.tr.Pack(p)

			var got Transform3d
			if err := got.Unpack(p); err != nil {
				t.Fatalf("Unpack failed: %v", err)
			}
			if !got.Equal(tt.tr) {
				t.Errorf("round trip = %+v, want %+v", got, tt.tr)
			}
		})
	}
}

func TestTransform3d_UnpackTruncated(t *testing.T) {
	p := packet.New()
	Identity().Pack(p)
	short := packet.FromBytes(p.Bytes()[:TransformSize-1])

	orig := FromAxisAngle(r3.Vec{X: 9}, 1, r3.Vec{Y: 1})
	got := orig
	err := got.Unpack(short)
	if !packet.IsUnderflow(err) {
		t.Fatalf("err = %v, want underflow", err)
	}
	if !got.Equal(orig) {
		t.Error("receiver modified on failed Unpack")
	}
	if short.ReadPos() != 0 {
		t.Errorf("ReadPos() = %d, want 0", short.ReadPos())
	}
}

func TestTransform3d_IsIdentity(t *testing.T) {
	if !Identity().IsIdentity() {
		t.Error("Identity().IsIdentity() = false")
	}
	if (Transform3d{}).IsIdentity() {
		t.Error("zero value should not be the identity")
	}
	moved := Identity()
	moved.Translation.X = 1
	if moved.IsIdentity() {
		t.Error("translated transform should not be the identity")
	}
}

func TestTransform3d_DistanceAndApply(t *testing.T) {
	tr := FromAxisAngle(r3.Vec{X: 3, Y: 4}, math.Pi/2, r3.Vec{Z: 1})
	if d := tr.Distance(); math.Abs(d-5) > 1e-12 {
		t.Errorf("Distance() = %v, want 5", d)
	}

	// A quarter turn about Z maps +X to +Y before translating.
	got := tr.Apply(r3.Vec{X: 1})
	want := r3.Vec{X: 3, Y: 5}
	if r3.Norm(r3.Sub(got, want)) > 1e-9 {
		t.Errorf("Apply((1,0,0)) = %+v, want %+v", got, want)
	}
}

func TestTransform3d_JSONShape(t *testing.T) {
	tr := Transform3d{
		Translation: r3.Vec{X: 1, Y: 0, Z: 0},
		Rotation:    quat.Number{Real: 1},
	}

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	want := `{"translation":{"x":1,"y":0,"z":0},"rotation":{"w":1,"x":0,"y":0,"z":0}}`
	if string(data) != want {
		t.Errorf("JSON = %s, want %s", data, want)
	}

	var back Transform3d
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(tr) {
		t.Errorf("JSON round trip = %+v, want %+v", back, tr)
	}
}

func TestTransform3d_YAMLDecode(t *testing.T) {
	doc := `
translation: {x: 0.5, y: -1, z: 2}
rotation: {w: 1, x: 0, y: 0, z: 0}
`
	var tr Transform3d
	if err := yaml.Unmarshal([]byte(doc), &tr); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	want := Transform3d{Translation: r3.Vec{X: 0.5, Y: -1, Z: 2}, Rotation: quat.Number{Real: 1}}
	if !tr.Equal(want) {
		t.Errorf("decoded %+v, want %+v", tr, want)
	}
}

func TestPoint_RoundTrip(t *testing.T) {
	p := packet.New()
	Point{X: 10, Y: -0.5}.Pack(p)
	if p.Len() != PointSize {
		t.Fatalf("Len() = %d, want %d", p.Len(), PointSize)
	}

	var got Point
	if err := got.Unpack(p); err != nil {
		t.Fatalf("Unpack failed: %v", err)
	}
	if !got.Equal(Point{X: 10, Y: -0.5}) {
		t.Errorf("got %+v", got)
	}
}

func TestPointsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b []Point
		want bool
	}{
		{"nil and empty", nil, []Point{}, true},
		{"same", []Point{{1, 2}}, []Point{{1, 2}}, true},
		{"different length", []Point{{1, 2}}, nil, false},
		{"different value", []Point{{1, 2}}, []Point{{1, 3}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PointsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("PointsEqual = %v, want %v", got, tt.want)
			}
		})
	}
}
