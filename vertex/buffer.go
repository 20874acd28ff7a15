// Package vertex provides the CPU-side staging buffers, index patterns and
// vertex layouts used by the batches.
//
// Buffers are fixed-capacity byte slices with a write cursor. Element
// accessors encode little-endian values, so UsedBytes can be handed to the
// GPU without conversion.
package vertex

import (
	"encoding/binary"
	"errors"
	"math"
)

// Buffer errors.
var (
	// ErrOverflow is raised by debug builds when Allocate would move the
	// cursor past the buffer capacity.
	ErrOverflow = errors.New("vertex: allocation exceeds buffer capacity")

	// ErrZeroCapacity is returned when a buffer or pattern is requested
	// with no room for a single primitive.
	ErrZeroCapacity = errors.New("vertex: zero capacity")

	// ErrIndexRange is returned when a pattern would reference vertices
	// beyond the 16-bit index range.
	ErrIndexRange = errors.New("vertex: index pattern exceeds 16-bit range")
)

// LinearBuffer32 is a fixed-capacity buffer of 32-bit elements with a
// monotonically increasing cursor.
//
// Allocate performs no bounds check unless the binary is built with the
// batch2ddebug tag. Callers must check Fits or IsFull before writing.
type LinearBuffer32 struct {
	data   []byte
	length int
	cap    int
}

// NewLinearBuffer32 creates a buffer holding capacity 32-bit elements.
func NewLinearBuffer32(capacity int) *LinearBuffer32 {
	if capacity < 0 {
		capacity = 0
	}
	return &LinearBuffer32{
		data: make([]byte, capacity*4),
		cap:  capacity,
	}
}

// Allocate reserves n elements and returns the offset of the first one.
func (b *LinearBuffer32) Allocate(n int) int {
	if debugChecks && b.length+n > b.cap {
		panic(ErrOverflow)
	}
	off := b.length
	b.length += n
	return off
}

// Clear resets the cursor. The backing memory is not zeroed.
func (b *LinearBuffer32) Clear() { b.length = 0 }

// Len returns the number of allocated elements.
func (b *LinearBuffer32) Len() int { return b.length }

// Cap returns the capacity in elements.
func (b *LinearBuffer32) Cap() int { return b.cap }

// ByteLength returns the number of allocated bytes.
func (b *LinearBuffer32) ByteLength() int { return b.length * 4 }

// ByteCapacity returns the capacity in bytes.
func (b *LinearBuffer32) ByteCapacity() int { return b.cap * 4 }

// IsFull reports whether the used bytes have reached the capacity.
func (b *LinearBuffer32) IsFull() bool { return b.ByteLength() >= b.ByteCapacity() }

// Remaining returns the number of elements still available.
func (b *LinearBuffer32) Remaining() int { return b.cap - b.length }

// Fits reports whether n more elements can be allocated.
func (b *LinearBuffer32) Fits(n int) bool { return b.length+n <= b.cap }

// SetFloat32 writes v at element index i.
func (b *LinearBuffer32) SetFloat32(i int, v float32) {
	binary.LittleEndian.PutUint32(b.data[i*4:], math.Float32bits(v))
}

// Float32 reads the element at index i as a float32.
func (b *LinearBuffer32) Float32(i int) float32 {
	return math.Float32frombits(binary.LittleEndian.Uint32(b.data[i*4:]))
}

// SetUint32 writes v at element index i.
func (b *LinearBuffer32) SetUint32(i int, v uint32) {
	binary.LittleEndian.PutUint32(b.data[i*4:], v)
}

// Uint32 reads the element at index i as a uint32.
func (b *LinearBuffer32) Uint32(i int) uint32 {
	return binary.LittleEndian.Uint32(b.data[i*4:])
}

// UsedBytes returns the allocated prefix of the backing store. The slice
// aliases the buffer and is only valid until the next write.
func (b *LinearBuffer32) UsedBytes() []byte { return b.data[:b.length*4] }

// UsedFloat32s appends the allocated elements, read as float32, to dst.
func (b *LinearBuffer32) UsedFloat32s(dst []float32) []float32 {
	for i := 0; i < b.length; i++ {
		dst = append(dst, b.Float32(i))
	}
	return dst
}

// UsedUint32s appends the allocated elements, read as uint32, to dst.
func (b *LinearBuffer32) UsedUint32s(dst []uint32) []uint32 {
	for i := 0; i < b.length; i++ {
		dst = append(dst, b.Uint32(i))
	}
	return dst
}

// LinearBuffer16 is the 16-bit counterpart of LinearBuffer32, used for
// index data.
type LinearBuffer16 struct {
	data   []byte
	length int
	cap    int
}

// NewLinearBuffer16 creates a buffer holding capacity 16-bit elements.
func NewLinearBuffer16(capacity int) *LinearBuffer16 {
	if capacity < 0 {
		capacity = 0
	}
	return &LinearBuffer16{
		data: make([]byte, capacity*2),
		cap:  capacity,
	}
}

// Allocate reserves n elements and returns the offset of the first one.
func (b *LinearBuffer16) Allocate(n int) int {
	if debugChecks && b.length+n > b.cap {
		panic(ErrOverflow)
	}
	off := b.length
	b.length += n
	return off
}

// Clear resets the cursor.
func (b *LinearBuffer16) Clear() { b.length = 0 }

// Len returns the number of allocated elements.
func (b *LinearBuffer16) Len() int { return b.length }

// Cap returns the capacity in elements.
func (b *LinearBuffer16) Cap() int { return b.cap }

// ByteLength returns the number of allocated bytes.
func (b *LinearBuffer16) ByteLength() int { return b.length * 2 }

// ByteCapacity returns the capacity in bytes.
func (b *LinearBuffer16) ByteCapacity() int { return b.cap * 2 }

// IsFull reports whether the used bytes have reached the capacity.
func (b *LinearBuffer16) IsFull() bool { return b.ByteLength() >= b.ByteCapacity() }

// Fits reports whether n more elements can be allocated.
func (b *LinearBuffer16) Fits(n int) bool { return b.length+n <= b.cap }

// SetUint16 writes v at element index i.
func (b *LinearBuffer16) SetUint16(i int, v uint16) {
	binary.LittleEndian.PutUint16(b.data[i*2:], v)
}

// Uint16 reads the element at index i.
func (b *LinearBuffer16) Uint16(i int) uint16 {
	return binary.LittleEndian.Uint16(b.data[i*2:])
}

// UsedBytes returns the allocated prefix of the backing store.
func (b *LinearBuffer16) UsedBytes() []byte { return b.data[:b.length*2] }

// UsedUint16s appends the allocated elements to dst.
func (b *LinearBuffer16) UsedUint16s(dst []uint16) []uint16 {
	for i := 0; i < b.length; i++ {
		dst = append(dst, b.Uint16(i))
	}
	return dst
}
