package batch

import "errors"

// Kind identifies a batch variant.
type Kind uint8

const (
	KindNone Kind = iota
	KindSprite
	KindShape
	KindParticle
	KindGlyph
	KindQuad

	kindCount
)

var kindNames = [...]string{
	KindNone:     "none",
	KindSprite:   "sprite",
	KindShape:    "shape",
	KindParticle: "particle",
	KindGlyph:    "glyph",
	KindQuad:     "quad",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Batch is the contract shared by every batch variant.
type Batch interface {
	Kind() Kind
	// IsFull reports whether the staged bytes fill the vertex buffer.
	IsFull() bool
	// Flush emits the staged vertices as one upload and one draw, then
	// empties the batch. It is a no-op on an empty batch.
	Flush() error
	// Destroy releases the batch's backend resources.
	Destroy()
	// Count returns the staged element count: indices for indexed batches,
	// vertices otherwise.
	Count() int
}

// Errors.
var (
	// ErrPrimitiveTooLarge is returned for a primitive that needs more
	// vertices than an empty batch can hold.
	ErrPrimitiveTooLarge = errors.New("batch: primitive exceeds batch capacity")

	// ErrZeroCapacity is returned when a batch is configured without room.
	ErrZeroCapacity = errors.New("batch: zero capacity")

	// ErrCapacityTooLarge is returned when an indexed batch would address
	// vertices past the 16-bit index range.
	ErrCapacityTooLarge = errors.New("batch: capacity exceeds 16-bit index range")

	// ErrUnsupportedPrimitive is returned by Manager.Add for unknown types.
	ErrUnsupportedPrimitive = errors.New("batch: unsupported primitive")

	// ErrNoTexture is returned when a textured batch flushes with no
	// texture bound.
	ErrNoTexture = errors.New("batch: textured draw with no texture bound")

	// ErrDestroyed is returned by a Manager used after Destroy.
	ErrDestroyed = errors.New("batch: manager destroyed")
)
