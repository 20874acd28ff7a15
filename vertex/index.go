package vertex

// MaxIndexedVertices is the number of distinct vertices addressable by a
// 16-bit index buffer.
const MaxIndexedVertices = 1 << 16

// VerticesPerQuad and IndicesPerQuad describe the two-triangle quad.
const (
	VerticesPerQuad = 4
	IndicesPerQuad  = 6
)

// MaxPrimitives returns how many primitives of verticesPerPrimitive
// vertices fit in the 16-bit index range.
func MaxPrimitives(verticesPerPrimitive int) int {
	if verticesPerPrimitive <= 0 {
		return 0
	}
	return MaxIndexedVertices / verticesPerPrimitive
}

// IndexPattern is the write-once index buffer content for a run of quads:
// quad i uses indices [4i, 4i+1, 4i+2, 4i, 4i+2, 4i+3].
type IndexPattern struct {
	buf   *LinearBuffer16
	quads int
}

// NewQuadIndexPattern generates the pattern for quads quads.
func NewQuadIndexPattern(quads int) (*IndexPattern, error) {
	if quads <= 0 {
		return nil, ErrZeroCapacity
	}
	if quads*VerticesPerQuad > MaxIndexedVertices {
		return nil, ErrIndexRange
	}

	buf := NewLinearBuffer16(quads * IndicesPerQuad)
	for q := 0; q < quads; q++ {
		off := buf.Allocate(IndicesPerQuad)
		v := uint16(q * VerticesPerQuad) //nolint:gosec // bounded by MaxIndexedVertices above
		buf.SetUint16(off+0, v)
		buf.SetUint16(off+1, v+1)
		buf.SetUint16(off+2, v+2)
		buf.SetUint16(off+3, v)
		buf.SetUint16(off+4, v+2)
		buf.SetUint16(off+5, v+3)
	}
	return &IndexPattern{buf: buf, quads: quads}, nil
}

// Quads returns the number of quads covered by the pattern.
func (p *IndexPattern) Quads() int { return p.quads }

// Len returns the number of indices.
func (p *IndexPattern) Len() int { return p.buf.Len() }

// Index returns the i-th index.
func (p *IndexPattern) Index(i int) uint16 { return p.buf.Uint16(i) }

// Bytes returns the little-endian index data for upload.
func (p *IndexPattern) Bytes() []byte { return p.buf.UsedBytes() }
