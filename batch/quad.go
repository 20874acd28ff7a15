package batch

import "github.com/gogpu/batch2d/vertex"

// QuadBatch draws flat colored rectangles in surface pixels. Camera
// backgrounds, fades and flashes use it.
type QuadBatch struct {
	quadBase
}

func newQuadBatch(p *pipe, quads int) (*QuadBatch, error) {
	q, err := newQuadBase(p, KindQuad, quadShaderSource, vertex.QuadLayout, false, quads)
	if err != nil {
		return nil, err
	}
	return &QuadBatch{quadBase: q}, nil
}

// Add stages the rectangle (x, y, w, h) with straight RGBA color.
func (b *QuadBatch) Add(x, y, w, h float64, r, g, bl, a float32) error {
	if err := b.reserveQuads(1); err != nil {
		return err
	}
	buf := b.vertices
	off := buf.Allocate(vertex.VerticesPerQuad * vertex.QuadFloats)
	corners := [8]float64{x, y, x, y + h, x + w, y + h, x + w, y}
	for i := 0; i < vertex.VerticesPerQuad; i++ {
		o := off + i*vertex.QuadFloats
		buf.SetFloat32(o, float32(corners[2*i]))
		buf.SetFloat32(o+1, float32(corners[2*i+1]))
		buf.SetFloat32(o+2, r)
		buf.SetFloat32(o+3, g)
		buf.SetFloat32(o+4, bl)
		buf.SetFloat32(o+5, a)
	}
	b.count += vertex.IndicesPerQuad
	return nil
}

// AddRect stages r.
func (b *QuadBatch) AddRect(r *Rect) error {
	cr, cg, cb := vertex.RGBFloats(r.Color)
	return b.Add(r.X, r.Y, r.Width, r.Height, cr, cg, cb, float32(r.Alpha))
}
