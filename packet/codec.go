package packet

import "math"

// Scalar is the set of primitive kinds a Packet encodes directly.
type Scalar interface {
	bool | int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64
}

// Packer is implemented by composite values that append their fixed
// layout to a Packet.
type Packer interface {
	Pack(p *Packet)
}

// Unpacker is implemented by pointers to composite values that read their
// layout back from a Packet. Implementations must not leave the receiver
// partially populated on error.
type Unpacker interface {
	Unpack(p *Packet) error
}

// Sizer reports the encoded size of a value. For variable-size values it
// reports the minimum size, which is enough to reject implausible counts.
type Sizer interface {
	PackedSize() int
}

// unpackerPtr constrains PT to *T implementing Unpacker, so generic readers
// can allocate T values and decode into them.
type unpackerPtr[T any] interface {
	*T
	Unpacker
}

// Write appends v using the encoding for its scalar kind.
func Write[T Scalar](p *Packet, v T) {
	switch x := any(v).(type) {
	case bool:
		p.WriteBool(x)
	case int8:
		p.WriteInt8(x)
	case uint8:
		p.WriteUint8(x)
	case int16:
		p.WriteInt16(x)
	case uint16:
		p.WriteUint16(x)
	case int32:
		p.WriteInt32(x)
	case uint32:
		p.WriteUint32(x)
	case int64:
		p.WriteInt64(x)
	case uint64:
		p.WriteUint64(x)
	case float32:
		p.WriteFloat32(x)
	case float64:
		p.WriteFloat64(x)
	}
}

// Read consumes one value of scalar kind T.
func Read[T Scalar](p *Packet) (T, error) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case bool:
		v, err = p.ReadBool()
	case int8:
		v, err = p.ReadInt8()
	case uint8:
		v, err = p.ReadUint8()
	case int16:
		v, err = p.ReadInt16()
	case uint16:
		v, err = p.ReadUint16()
	case int32:
		v, err = p.ReadInt32()
	case uint32:
		v, err = p.ReadUint32()
	case int64:
		v, err = p.ReadInt64()
	case uint64:
		v, err = p.ReadUint64()
	case float32:
		v, err = p.ReadFloat32()
	case float64:
		v, err = p.ReadFloat64()
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// SizeOf returns the encoded width of scalar kind T.
func SizeOf[T Scalar]() int {
	var zero T
	switch any(zero).(type) {
	case bool, int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32, float32:
		return 4
	default:
		return 8
	}
}

// WriteFixedArray appends exactly n elements with no count prefix.
// It panics with *ContractViolation if len(items) != n.
func WriteFixedArray[T Packer](p *Packet, n int, items []T) {
	if len(items) != n {
		panic(&ContractViolation{Op: "WriteFixedArray", Want: n, Got: len(items)})
	}
	for _, item := range items {
		item.Pack(p)
	}
}

// ReadFixedArray consumes exactly n elements. On error the read cursor is
// restored to where the array started.
func ReadFixedArray[T any, PT unpackerPtr[T]](p *Packet, n int) ([]T, error) {
	start := p.readPos
	if err := checkCount[T, PT](p, uint64(n)); err != nil {
		return nil, err
	}
	items := make([]T, n)
	for i := range items {
		if err := PT(&items[i]).Unpack(p); err != nil {
			p.readPos = start
			return nil, err
		}
	}
	return items, nil
}

// WriteVariableArray appends a uint32 element count followed by each element.
func WriteVariableArray[T Packer](p *Packet, items []T) {
	p.WriteUint32(uint32(len(items)))
	for _, item := range items {
		item.Pack(p)
	}
}

// ReadVariableArray consumes a uint32 count followed by that many elements.
// A count that implies more bytes than remain fails with an UnderflowError
// before anything is allocated. On error the read cursor is restored to
// the count prefix. An empty array decodes as a non-nil empty slice.
func ReadVariableArray[T any, PT unpackerPtr[T]](p *Packet) ([]T, error) {
	start := p.readPos
	count, err := p.ReadUint32()
	if err != nil {
		return nil, err
	}
	if err := checkCount[T, PT](p, uint64(count)); err != nil {
		p.readPos = start
		return nil, err
	}
	items := make([]T, count)
	for i := range items {
		if err := PT(&items[i]).Unpack(p); err != nil {
			p.readPos = start
			return nil, err
		}
	}
	return items, nil
}

// checkCount rejects element counts that cannot possibly fit in the
// remaining bytes. Element types implementing Sizer are checked against
// their (minimum) size; others are assumed to occupy at least one byte.
func checkCount[T any, PT unpackerPtr[T]](p *Packet, count uint64) error {
	width := uint64(1)
	var zero T
	if s, ok := any(PT(&zero)).(Sizer); ok && s.PackedSize() > 0 {
		width = uint64(s.PackedSize())
	}
	rem := p.Remaining()
	need := count * width
	if count != 0 && need/count != width {
		need = math.MaxInt
	}
	if need > uint64(rem) {
		n := math.MaxInt
		if need < math.MaxInt {
			n = int(need)
		}
		return &UnderflowError{Offset: p.readPos, Need: n, Remaining: rem}
	}
	return nil
}
