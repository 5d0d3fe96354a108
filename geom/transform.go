// Package geom holds the geometric composites carried by the targetwire
// protocol: the camera-to-target rigid transform and image-space points.
//
// Both types are opaque to the protocol. They only know how to write and
// read their own fixed layouts through a packet.Packet.
package geom

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pithecene-io/targetwire/packet"
)

// TransformSize is the encoded width of a Transform3d: three translation
// components followed by four quaternion components, all float64.
const TransformSize = 7 * packet.SizeFloat64

// Transform3d is a rigid transform from camera space (X forward, Y left,
// Z up) to target space.
//
// The zero value has a zero quaternion and is not a valid rotation; use
// Identity for the no-op transform.
type Transform3d struct {
	Translation r3.Vec
	// Rotation is a unit quaternion: Real is W, Imag/Jmag/Kmag are X/Y/Z.
	Rotation quat.Number
}

// Identity returns the transform with zero translation and no rotation.
func Identity() Transform3d {
	return Transform3d{Rotation: quat.Number{Real: 1}}
}

// FromAxisAngle builds a transform that rotates by angle radians around
// axis and then translates by translation.
func FromAxisAngle(translation r3.Vec, angle float64, axis r3.Vec) Transform3d {
	return Transform3d{
		Translation: translation,
		Rotation:    quat.Number(r3.NewRotation(angle, axis)),
	}
}

// IsIdentity reports whether t is exactly the identity transform.
func (t Transform3d) IsIdentity() bool {
	return t.Equal(Identity())
}

// Distance returns the straight-line distance from the camera to the target.
func (t Transform3d) Distance() float64 {
	return r3.Norm(t.Translation)
}

// Apply maps a point from target space into camera space.
func (t Transform3d) Apply(v r3.Vec) r3.Vec {
	return r3.Add(r3.Rotation(t.Rotation).Rotate(v), t.Translation)
}

// Equal reports whether every component of t and o has identical bits.
func (t Transform3d) Equal(o Transform3d) bool {
	return bitsEqual(t.Translation.X, o.Translation.X) &&
		bitsEqual(t.Translation.Y, o.Translation.Y) &&
		bitsEqual(t.Translation.Z, o.Translation.Z) &&
		bitsEqual(t.Rotation.Real, o.Rotation.Real) &&
		bitsEqual(t.Rotation.Imag, o.Rotation.Imag) &&
		bitsEqual(t.Rotation.Jmag, o.Rotation.Jmag) &&
		bitsEqual(t.Rotation.Kmag, o.Rotation.Kmag)
}

// Pack writes translation X, Y, Z then rotation W, X, Y, Z.
func (t Transform3d) Pack(p *packet.Packet) {
	p.WriteFloat64(t.Translation.X)
	p.WriteFloat64(t.Translation.Y)
	p.WriteFloat64(t.Translation.Z)
	p.WriteFloat64(t.Rotation.Real)
	p.WriteFloat64(t.Rotation.Imag)
	p.WriteFloat64(t.Rotation.Jmag)
	p.WriteFloat64(t.Rotation.Kmag)
}

// Unpack reads the layout written by Pack. t is unchanged on error.
func (t *Transform3d) Unpack(p *packet.Packet) error {
	var v [7]float64
	start := p.ReadPos()
	for i := range v {
		f, err := p.ReadFloat64()
		if err != nil {
			_ = p.SeekRead(start)
			return err
		}
		v[i] = f
	}
	*t = Transform3d{
		Translation: r3.Vec{X: v[0], Y: v[1], Z: v[2]},
		Rotation:    quat.Number{Real: v[3], Imag: v[4], Jmag: v[5], Kmag: v[6]},
	}
	return nil
}

// PackedSize returns TransformSize.
func (Transform3d) PackedSize() int { return TransformSize }

func bitsEqual(a, b float64) bool {
	return math.Float64bits(a) == math.Float64bits(b)
}
