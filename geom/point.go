package geom

import "github.com/pithecene-io/targetwire/packet"

// PointSize is the encoded width of a Point.
const PointSize = 2 * packet.SizeFloat64

// Point is an image-space coordinate in pixels (origin top left, X right,
// Y down).
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Equal reports whether both coordinates have identical bits.
func (pt Point) Equal(o Point) bool {
	return bitsEqual(pt.X, o.X) && bitsEqual(pt.Y, o.Y)
}

// Pack writes X then Y.
func (pt Point) Pack(p *packet.Packet) {
	p.WriteFloat64(pt.X)
	p.WriteFloat64(pt.Y)
}

// Unpack reads X then Y. pt is unchanged on error.
func (pt *Point) Unpack(p *packet.Packet) error {
	start := p.ReadPos()
	x, err := p.ReadFloat64()
	if err != nil {
		return err
	}
	y, err := p.ReadFloat64()
	if err != nil {
		_ = p.SeekRead(start)
		return err
	}
	*pt = Point{X: x, Y: y}
	return nil
}

// PackedSize returns PointSize.
func (Point) PackedSize() int { return PointSize }

// PointsEqual reports whether a and b have the same length and pairwise
// equal points. A nil slice equals an empty one.
func PointsEqual(a, b []Point) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}
