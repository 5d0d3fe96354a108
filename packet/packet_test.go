package packet

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// pair is a minimal composite used to exercise the array helpers.
type pair struct {
	A float64
	B int32
}

func (v pair) Pack(p *Packet) {
	p.WriteFloat64(v.A)
	p.WriteInt32(v.B)
}

func (v *pair) Unpack(p *Packet) error {
	a, err := p.ReadFloat64()
	if err != nil {
		return err
	}
	b, err := p.ReadInt32()
	if err != nil {
		return err
	}
	*v = pair{A: a, B: b}
	return nil
}

func (pair) PackedSize() int { return SizeFloat64 + SizeInt32 }

// unsized has no Sizer implementation; count checks fall back to one byte
// per element.
type unsized struct{ V uint8 }

func (v unsized) Pack(p *Packet) { p.WriteUint8(v.V) }

func (v *unsized) Unpack(p *Packet) error {
	b, err := p.ReadUint8()
	if err != nil {
		return err
	}
	v.V = b
	return nil
}

func TestScalarLittleEndianLayout(t *testing.T) {
	tests := []struct {
		name  string
		write func(p *Packet)
		want  []byte
	}{
		{"bool true", func(p *Packet) { p.WriteBool(true) }, []byte{0x01}},
		{"bool false", func(p *Packet) { p.WriteBool(false) }, []byte{0x00}},
		{"int8", func(p *Packet) { p.WriteInt8(-2) }, []byte{0xFE}},
		{"uint16", func(p *Packet) { p.WriteUint16(0x0102) }, []byte{0x02, 0x01}},
		{"int16", func(p *Packet) { p.WriteInt16(-1) }, []byte{0xFF, 0xFF}},
		{"int32 sentinel", func(p *Packet) { p.WriteInt32(-1) }, []byte{0xFF, 0xFF, 0xFF, 0xFF}},
		{"uint32", func(p *Packet) { p.WriteUint32(0x04030201) }, []byte{0x01, 0x02, 0x03, 0x04}},
		{"int64", func(p *Packet) { p.WriteInt64(1) }, []byte{1, 0, 0, 0, 0, 0, 0, 0}},
		{"float32 one", func(p *Packet) { p.WriteFloat32(1) }, []byte{0x00, 0x00, 0x80, 0x3F}},
		{"float32 minus one", func(p *Packet) { p.WriteFloat32(-1) }, []byte{0x00, 0x00, 0x80, 0xBF}},
		{"float64 one", func(p *Packet) { p.WriteFloat64(1) }, []byte{0, 0, 0, 0, 0, 0, 0xF0, 0x3F}},
		{"float64 12.5", func(p *Packet) { p.WriteFloat64(12.5) }, []byte{0, 0, 0, 0, 0, 0, 0x29, 0x40}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			tt.write(p)
			if !bytes.Equal(p.Bytes(), tt.want) {
				t.Errorf("bytes = % x, want % x", p.Bytes(), tt.want)
			}
			if p.Len() != len(tt.want) {
				t.Errorf("Len() = %d, want %d", p.Len(), len(tt.want))
			}
		})
	}
}

func TestScalarRoundTrip(t *testing.T) {
	p := New()
	p.WriteBool(true)
	p.WriteInt8(math.MinInt8)
	p.WriteUint8(math.MaxUint8)
	p.WriteInt16(math.MinInt16)
	p.WriteUint16(math.MaxUint16)
	p.WriteInt32(math.MinInt32)
	p.WriteUint32(math.MaxUint32)
	p.WriteInt64(math.MinInt64)
	p.WriteUint64(math.MaxUint64)
	p.WriteFloat32(-0.25)
	p.WriteFloat64(math.Inf(-1))

	r := FromBytes(p.Bytes())

	if v, err := r.ReadBool(); err != nil || !v {
		t.Errorf("ReadBool() = %v, %v", v, err)
	}
	if v, err := r.ReadInt8(); err != nil || v != math.MinInt8 {
		t.Errorf("ReadInt8() = %v, %v", v, err)
	}
	if v, err := r.ReadUint8(); err != nil || v != math.MaxUint8 {
		t.Errorf("ReadUint8() = %v, %v", v, err)
	}
	if v, err := r.ReadInt16(); err != nil || v != math.MinInt16 {
		t.Errorf("ReadInt16() = %v, %v", v, err)
	}
	if v, err := r.ReadUint16(); err != nil || v != math.MaxUint16 {
		t.Errorf("ReadUint16() = %v, %v", v, err)
	}
	if v, err := r.ReadInt32(); err != nil || v != math.MinInt32 {
		t.Errorf("ReadInt32() = %v, %v", v, err)
	}
	if v, err := r.ReadUint32(); err != nil || v != math.MaxUint32 {
		t.Errorf("ReadUint32() = %v, %v", v, err)
	}
	if v, err := r.ReadInt64(); err != nil || v != math.MinInt64 {
		t.Errorf("ReadInt64() = %v, %v", v, err)
	}
	if v, err := r.ReadUint64(); err != nil || v != math.MaxUint64 {
		t.Errorf("ReadUint64() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat32(); err != nil || v != -0.25 {
		t.Errorf("ReadFloat32() = %v, %v", v, err)
	}
	if v, err := r.ReadFloat64(); err != nil || !math.IsInf(v, -1) {
		t.Errorf("ReadFloat64() = %v, %v", v, err)
	}
	if r.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", r.Remaining())
	}
}

func TestGenericWriteRead(t *testing.T) {
	p := New()
	Write(p, float64(3.5))
	Write(p, int32(-1))
	Write(p, float32(0.5))
	Write(p, uint8(9))

	if p.Len() != SizeOf[float64]()+SizeOf[int32]()+SizeOf[float32]()+SizeOf[uint8]() {
		t.Fatalf("Len() = %d, want 17", p.Len())
	}

	f, err := Read[float64](p)
	if err != nil || f != 3.5 {
		t.Errorf("Read[float64] = %v, %v", f, err)
	}
	i, err := Read[int32](p)
	if err != nil || i != -1 {
		t.Errorf("Read[int32] = %v, %v", i, err)
	}
	c, err := Read[float32](p)
	if err != nil || c != 0.5 {
		t.Errorf("Read[float32] = %v, %v", c, err)
	}
	u, err := Read[uint8](p)
	if err != nil || u != 9 {
		t.Errorf("Read[uint8] = %v, %v", u, err)
	}

	_, err = Read[uint64](p)
	if !IsUnderflow(err) {
		t.Errorf("Read past end err = %v, want underflow", err)
	}
}

func TestFromBytesCopies(t *testing.T) {
	src := []byte{1, 2, 3, 4}
	p := FromBytes(src)
	src[0] = 0xFF

	v, err := p.ReadUint8()
	if err != nil {
		t.Fatalf("ReadUint8 failed: %v", err)
	}
	if v != 1 {
		t.Errorf("ReadUint8() = %d, want 1 (packet must own its copy)", v)
	}
}

func TestUnderflow(t *testing.T) {
	p := FromBytes([]byte{0x01, 0x02, 0x03})

	_, err := p.ReadUint32()
	if err == nil {
		t.Fatal("expected underflow error")
	}

	var uerr *UnderflowError
	if !errors.As(err, &uerr) {
		t.Fatalf("error type = %T, want *UnderflowError", err)
	}
	if uerr.Need != 4 || uerr.Remaining != 3 || uerr.Offset != 0 {
		t.Errorf("UnderflowError = %+v, want Need=4 Remaining=3 Offset=0", uerr)
	}
	if !errors.Is(err, ErrUnderflow) {
		t.Error("errors.Is(err, ErrUnderflow) = false")
	}

	// Failed reads do not move the cursor.
	if p.ReadPos() != 0 {
		t.Errorf("ReadPos() = %d after failed read, want 0", p.ReadPos())
	}
	v, err := p.ReadUint16()
	if err != nil || v != 0x0201 {
		t.Errorf("ReadUint16() = %#x, %v, want 0x0201", v, err)
	}
}

func TestReadsAdvanceAndResetRead(t *testing.T) {
	p := New()
	p.WriteInt32(7)
	p.WriteInt32(8)

	first, _ := p.ReadInt32()
	second, _ := p.ReadInt32()
	if first != 7 || second != 8 {
		t.Fatalf("reads = %d, %d, want 7, 8", first, second)
	}
	if _, err := p.ReadInt32(); !IsUnderflow(err) {
		t.Errorf("third read err = %v, want underflow", err)
	}

	p.ResetRead()
	again, err := p.ReadInt32()
	if err != nil || again != 7 {
		t.Errorf("read after ResetRead = %d, %v, want 7", again, err)
	}

	if err := p.SeekRead(4); err != nil {
		t.Fatalf("SeekRead(4) failed: %v", err)
	}
	last, _ := p.ReadInt32()
	if last != 8 {
		t.Errorf("read after SeekRead(4) = %d, want 8", last)
	}
	if err := p.SeekRead(9); err == nil {
		t.Error("SeekRead past end should fail")
	}
}

func TestWritesAppendAfterReads(t *testing.T) {
	p := NewWithCapacity(2)
	p.WriteUint8(1)
	if _, err := p.ReadUint8(); err != nil {
		t.Fatalf("ReadUint8 failed: %v", err)
	}
	p.WriteUint8(2)
	p.WriteUint8(3)

	if !bytes.Equal(p.Bytes(), []byte{1, 2, 3}) {
		t.Errorf("Bytes() = %v, want [1 2 3]", p.Bytes())
	}
	if p.Remaining() != 2 {
		t.Errorf("Remaining() = %d, want 2", p.Remaining())
	}

	p.Reset()
	if p.Len() != 0 || p.ReadPos() != 0 {
		t.Errorf("after Reset: Len=%d ReadPos=%d, want 0, 0", p.Len(), p.ReadPos())
	}
}

func TestFixedArray(t *testing.T) {
	items := []pair{{1, 1}, {2, 2}, {3, 3}}
	p := New()
	WriteFixedArray(p, 3, items)

	if p.Len() != 3*12 {
		t.Fatalf("Len() = %d, want 36 (no count prefix)", p.Len())
	}

	got, err := ReadFixedArray[pair](p, 3)
	if err != nil {
		t.Fatalf("ReadFixedArray failed: %v", err)
	}
	if diff := cmp.Diff(items, got); diff != "" {
		t.Errorf("ReadFixedArray mismatch (-want +got):\n%s", diff)
	}
}

func TestFixedArray_ContractViolation(t *testing.T) {
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic for wrong element count")
		}
		cv, ok := r.(*ContractViolation)
		if !ok {
			t.Fatalf("panic value = %T, want *ContractViolation", r)
		}
		if cv.Want != 4 || cv.Got != 3 {
			t.Errorf("ContractViolation = %+v, want Want=4 Got=3", cv)
		}
	}()

	WriteFixedArray(New(), 4, []pair{{}, {}, {}})
}

func TestFixedArray_Truncated(t *testing.T) {
	p := New()
	WriteFixedArray(p, 2, []pair{{1, 1}, {2, 2}})
	truncated := FromBytes(p.Bytes()[:20])

	_, err := ReadFixedArray[pair](truncated, 2)
	if !IsUnderflow(err) {
		t.Fatalf("err = %v, want underflow", err)
	}
	if truncated.ReadPos() != 0 {
		t.Errorf("ReadPos() = %d, want 0 after failed array read", truncated.ReadPos())
	}
}

func TestVariableArray(t *testing.T) {
	tests := []struct {
		name  string
		items []pair
	}{
		{"empty", []pair{}},
		{"one", []pair{{0.5, -1}}},
		{"many", []pair{{1, 1}, {2, 2}, {3, 3}, {4, 4}, {5, 5}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			WriteVariableArray(p, tt.items)

			if want := SizeCount + 12*len(tt.items); p.Len() != want {
				t.Errorf("Len() = %d, want %d", p.Len(), want)
			}

			got, err := ReadVariableArray[pair](p)
			if err != nil {
				t.Fatalf("ReadVariableArray failed: %v", err)
			}
			if got == nil {
				t.Error("ReadVariableArray returned nil slice, want non-nil")
			}
			if diff := cmp.Diff(tt.items, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestVariableArray_EmptyEncodesZeroCount(t *testing.T) {
	p := New()
	WriteVariableArray[pair](p, nil)
	if !bytes.Equal(p.Bytes(), []byte{0, 0, 0, 0}) {
		t.Errorf("Bytes() = % x, want 00 00 00 00", p.Bytes())
	}
}

func TestVariableArray_ImplausibleCount(t *testing.T) {
	tests := []struct {
		name  string
		count uint32
		body  int
	}{
		{"one more than present", 3, 24},
		{"huge count", math.MaxUint32, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New()
			p.WriteUint32(tt.count)
			for range tt.body {
				p.WriteUint8(0)
			}

			_, err := ReadVariableArray[pair](p)
			var uerr *UnderflowError
			if !errors.As(err, &uerr) {
				t.Fatalf("err = %v, want *UnderflowError", err)
			}
			if uerr.Remaining != tt.body {
				t.Errorf("Remaining = %d, want %d", uerr.Remaining, tt.body)
			}
			if p.ReadPos() != 0 {
				t.Errorf("ReadPos() = %d, want 0 after rejected count", p.ReadPos())
			}
		})
	}
}

func TestVariableArray_UnsizedElements(t *testing.T) {
	p := New()
	p.WriteUint32(5)
	p.WriteUint8(1)
	p.WriteUint8(2)

	if _, err := ReadVariableArray[unsized](p); !IsUnderflow(err) {
		t.Errorf("err = %v, want underflow", err)
	}

	p = New()
	WriteVariableArray(p, []unsized{{1}, {2}})
	got, err := ReadVariableArray[unsized](p)
	if err != nil {
		t.Fatalf("ReadVariableArray failed: %v", err)
	}
	if diff := cmp.Diff([]unsized{{1}, {2}}, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}
