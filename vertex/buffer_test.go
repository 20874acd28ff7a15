package vertex

import (
	"errors"
	"testing"
)

func TestAllocateMonotonic(t *testing.T) {
	b := NewLinearBuffer32(64)
	sizes := []int{6, 12, 1, 24}
	prev := -1
	end := 0
	for _, n := range sizes {
		off := b.Allocate(n)
		if off <= prev {
			t.Errorf("Allocate(%d) = %d, want > %d", n, off, prev)
		}
		if off != end {
			t.Errorf("Allocate(%d) = %d, want %d (non-overlapping)", n, off, end)
		}
		prev = off
		end = off + n
	}
	if b.Len() != end {
		t.Errorf("Len() = %d, want %d", b.Len(), end)
	}

	b.Clear()
	if got := b.Allocate(3); got != 0 {
		t.Errorf("Allocate after Clear = %d, want 0", got)
	}
}

func TestClearKeepsMemory(t *testing.T) {
	b := NewLinearBuffer32(4)
	off := b.Allocate(1)
	b.SetFloat32(off, 3.5)
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", b.Len())
	}
	if got := b.Float32(0); got != 3.5 {
		t.Errorf("stale element = %v, want 3.5 (Clear must not zero)", got)
	}
	if len(b.UsedBytes()) != 0 {
		t.Errorf("UsedBytes() after Clear has %d bytes, want 0", len(b.UsedBytes()))
	}
}

func TestLinearBuffer32Views(t *testing.T) {
	b := NewLinearBuffer32(4)
	off := b.Allocate(2)
	b.SetFloat32(off, 1.25)
	b.SetUint32(off+1, 0xAABBCCDD)

	raw := b.UsedBytes()
	if len(raw) != 8 {
		t.Fatalf("len(UsedBytes) = %d, want 8", len(raw))
	}
	// little-endian word order
	if raw[4] != 0xDD || raw[7] != 0xAA {
		t.Errorf("uint32 bytes = % x, want dd cc bb aa", raw[4:8])
	}
	fs := b.UsedFloat32s(nil)
	if len(fs) != 2 || fs[0] != 1.25 {
		t.Errorf("UsedFloat32s = %v, want [1.25 ...]", fs)
	}
	us := b.UsedUint32s(nil)
	if us[1] != 0xAABBCCDD {
		t.Errorf("UsedUint32s[1] = %#x, want 0xaabbccdd", us[1])
	}
}

func TestLinearBuffer32Capacity(t *testing.T) {
	b := NewLinearBuffer32(8)
	if b.ByteCapacity() != 32 {
		t.Errorf("ByteCapacity() = %d, want 32", b.ByteCapacity())
	}
	if !b.Fits(8) || b.Fits(9) {
		t.Error("Fits boundary wrong for empty buffer of 8")
	}
	b.Allocate(8)
	if !b.IsFull() {
		t.Error("IsFull() = false after allocating full capacity")
	}
	if b.Remaining() != 0 {
		t.Errorf("Remaining() = %d, want 0", b.Remaining())
	}
}

func TestLinearBuffer16(t *testing.T) {
	b := NewLinearBuffer16(3)
	off := b.Allocate(3)
	for i := 0; i < 3; i++ {
		b.SetUint16(off+i, uint16(100+i))
	}
	got := b.UsedUint16s(nil)
	for i, v := range got {
		if v != uint16(100+i) {
			t.Errorf("index %d = %d, want %d", i, v, 100+i)
		}
	}
	if !b.IsFull() || b.ByteLength() != 6 {
		t.Errorf("IsFull=%v ByteLength=%d, want true 6", b.IsFull(), b.ByteLength())
	}
}

func TestQuadIndexPattern(t *testing.T) {
	p, err := NewQuadIndexPattern(500)
	if err != nil {
		t.Fatalf("NewQuadIndexPattern: %v", err)
	}
	if p.Len() != 500*6 {
		t.Fatalf("Len() = %d, want %d", p.Len(), 500*6)
	}
	for i := 0; i < p.Quads(); i++ {
		v := uint16(4 * i)
		want := [6]uint16{v, v + 1, v + 2, v, v + 2, v + 3}
		for k := 0; k < 6; k++ {
			if got := p.Index(6*i + k); got != want[k] {
				t.Fatalf("indices[%d] = %d, want %d", 6*i+k, got, want[k])
			}
		}
	}
	if len(p.Bytes()) != 500*6*2 {
		t.Errorf("len(Bytes) = %d, want %d", len(p.Bytes()), 500*6*2)
	}
}

func TestQuadIndexPatternLimits(t *testing.T) {
	if _, err := NewQuadIndexPattern(0); !errors.Is(err, ErrZeroCapacity) {
		t.Errorf("NewQuadIndexPattern(0) err = %v, want ErrZeroCapacity", err)
	}
	if _, err := NewQuadIndexPattern(MaxPrimitives(4) + 1); !errors.Is(err, ErrIndexRange) {
		t.Errorf("NewQuadIndexPattern(max+1) err = %v, want ErrIndexRange", err)
	}
	p, err := NewQuadIndexPattern(MaxPrimitives(4))
	if err != nil {
		t.Fatalf("NewQuadIndexPattern(max): %v", err)
	}
	if last := p.Index(p.Len() - 1); last != 65535 {
		t.Errorf("last index = %d, want 65535", last)
	}
}

func TestLayouts(t *testing.T) {
	tests := []struct {
		name   string
		layout Layout
		stride int
	}{
		{"sprite", SpriteLayout, 24},
		{"shape", ShapeLayout, 16},
		{"quad", QuadLayout, 24},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.layout.Stride != tt.stride {
				t.Errorf("Stride = %d, want %d", tt.layout.Stride, tt.stride)
			}
			if err := tt.layout.Validate(); err != nil {
				t.Errorf("Validate() = %v", err)
			}
		})
	}
	bad := Layout{Stride: 8, Elements: []Element{{Name: "p", Format: FormatFloat32x4}}}
	if bad.Validate() == nil {
		t.Error("Validate() accepted elements wider than stride")
	}
}

func TestPackRGB(t *testing.T) {
	c := PackRGB(0x112233)
	r, g, b, a := UnpackRGBA(c)
	if r != 0x11 || g != 0x22 || b != 0x33 || a != 0xFF {
		t.Errorf("UnpackRGBA(PackRGB(0x112233)) = %x %x %x %x", r, g, b, a)
	}
	buf := NewLinearBuffer32(1)
	buf.SetUint32(buf.Allocate(1), c)
	raw := buf.UsedBytes()
	if raw[0] != 0x11 || raw[1] != 0x22 || raw[2] != 0x33 || raw[3] != 0xFF {
		t.Errorf("memory order = % x, want 11 22 33 ff", raw)
	}
}
