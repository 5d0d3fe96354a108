// Package packet implements the cursor-based binary buffer used by the
// targetwire protocol.
//
// A Packet is append-only on write and sequential on read. Every value is
// encoded with a fixed width in little-endian byte order:
//   - integers as two's-complement
//   - float32/float64 as IEEE-754 binary32/binary64
//   - bool as a single byte (0 or 1)
//
// There are no type tags and no length prefixes except for variable-length
// arrays, which carry a uint32 element count. Producers and consumers must
// agree on field order out of band.
//
// A Packet is not safe for concurrent use. One writer owns it while
// encoding, one reader owns it while decoding.
package packet

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Fixed widths of the scalar encodings, in bytes.
const (
	SizeBool    = 1
	SizeInt8    = 1
	SizeInt16   = 2
	SizeInt32   = 4
	SizeInt64   = 8
	SizeFloat32 = 4
	SizeFloat64 = 8
	// SizeCount is the width of a variable-array count prefix.
	SizeCount = SizeInt32
)

// Packet is a growable byte buffer with a write cursor (always the end of
// the buffer) and an independent read cursor.
type Packet struct {
	buf     []byte
	readPos int
}

// New returns an empty packet ready for writing.
func New() *Packet {
	return &Packet{}
}

// NewWithCapacity returns an empty packet with n bytes preallocated.
func NewWithCapacity(n int) *Packet {
	if n < 0 {
		n = 0
	}
	return &Packet{buf: make([]byte, 0, n)}
}

// FromBytes returns a packet holding a copy of b with the read cursor at 0.
// The packet owns its copy; later changes to b are not observed.
func FromBytes(b []byte) *Packet {
	return &Packet{buf: append([]byte(nil), b...)}
}

// Bytes returns the written content. The slice aliases the packet's
// storage and is valid until the next write or Reset.
func (p *Packet) Bytes() []byte {
	return p.buf
}

// Len returns the number of bytes written.
func (p *Packet) Len() int {
	return len(p.buf)
}

// Remaining returns the number of bytes not yet read.
func (p *Packet) Remaining() int {
	return len(p.buf) - p.readPos
}

// ReadPos returns the read cursor.
func (p *Packet) ReadPos() int {
	return p.readPos
}

// ResetRead moves the read cursor back to the start of the buffer.
func (p *Packet) ResetRead() {
	p.readPos = 0
}

// SeekRead moves the read cursor to pos. pos must lie within [0, Len()].
func (p *Packet) SeekRead(pos int) error {
	if pos < 0 || pos > len(p.buf) {
		return fmt.Errorf("packet: seek to %d outside [0, %d]", pos, len(p.buf))
	}
	p.readPos = pos
	return nil
}

// Reset discards all content and rewinds both cursors, keeping capacity.
func (p *Packet) Reset() {
	p.buf = p.buf[:0]
	p.readPos = 0
}

// take consumes n bytes from the read cursor. On underflow the cursor is
// left where it was.
func (p *Packet) take(n int) ([]byte, error) {
	if rem := p.Remaining(); n > rem {
		return nil, &UnderflowError{Offset: p.readPos, Need: n, Remaining: rem}
	}
	b := p.buf[p.readPos : p.readPos+n]
	p.readPos += n
	return b, nil
}

// --- Writes ---

// WriteBool appends b as a single byte.
func (p *Packet) WriteBool(b bool) {
	var v uint8
	if b {
		v = 1
	}
	p.buf = append(p.buf, v)
}

// WriteInt8 appends v.
func (p *Packet) WriteInt8(v int8) { p.buf = append(p.buf, uint8(v)) }

// WriteUint8 appends v.
func (p *Packet) WriteUint8(v uint8) { p.buf = append(p.buf, v) }

// WriteInt16 appends v in little-endian order.
func (p *Packet) WriteInt16(v int16) { p.WriteUint16(uint16(v)) }

// WriteUint16 appends v in little-endian order.
func (p *Packet) WriteUint16(v uint16) { p.buf = binary.LittleEndian.AppendUint16(p.buf, v) }

// WriteInt32 appends v in little-endian order.
func (p *Packet) WriteInt32(v int32) { p.WriteUint32(uint32(v)) }

// WriteUint32 appends v in little-endian order.
func (p *Packet) WriteUint32(v uint32) { p.buf = binary.LittleEndian.AppendUint32(p.buf, v) }

// WriteInt64 appends v in little-endian order.
func (p *Packet) WriteInt64(v int64) { p.WriteUint64(uint64(v)) }

// WriteUint64 appends v in little-endian order.
func (p *Packet) WriteUint64(v uint64) { p.buf = binary.LittleEndian.AppendUint64(p.buf, v) }

// WriteFloat32 appends the IEEE-754 binary32 bits of v.
func (p *Packet) WriteFloat32(v float32) { p.WriteUint32(math.Float32bits(v)) }

// WriteFloat64 appends the IEEE-754 binary64 bits of v.
func (p *Packet) WriteFloat64(v float64) { p.WriteUint64(math.Float64bits(v)) }

// --- Reads ---

// ReadBool consumes one byte. Any non-zero byte decodes as true.
func (p *Packet) ReadBool() (bool, error) {
	b, err := p.take(SizeBool)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

// ReadInt8 consumes one byte.
func (p *Packet) ReadInt8() (int8, error) {
	v, err := p.ReadUint8()
	return int8(v), err
}

// ReadUint8 consumes one byte.
func (p *Packet) ReadUint8() (uint8, error) {
	b, err := p.take(SizeInt8)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// ReadInt16 consumes two bytes.
func (p *Packet) ReadInt16() (int16, error) {
	v, err := p.ReadUint16()
	return int16(v), err
}

// ReadUint16 consumes two bytes.
func (p *Packet) ReadUint16() (uint16, error) {
	b, err := p.take(SizeInt16)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// ReadInt32 consumes four bytes.
func (p *Packet) ReadInt32() (int32, error) {
	v, err := p.ReadUint32()
	return int32(v), err
}

// ReadUint32 consumes four bytes.
func (p *Packet) ReadUint32() (uint32, error) {
	b, err := p.take(SizeInt32)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// ReadInt64 consumes eight bytes.
func (p *Packet) ReadInt64() (int64, error) {
	v, err := p.ReadUint64()
	return int64(v), err
}

// ReadUint64 consumes eight bytes.
func (p *Packet) ReadUint64() (uint64, error) {
	b, err := p.take(SizeInt64)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// ReadFloat32 consumes four bytes.
func (p *Packet) ReadFloat32() (float32, error) {
	v, err := p.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadFloat64 consumes eight bytes.
func (p *Packet) ReadFloat64() (float64, error) {
	v, err := p.ReadUint64()
	return math.Float64frombits(v), err
}
