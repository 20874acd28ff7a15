package batch

import (
	"fmt"

	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/vertex"
)

// SpriteBatch draws textured quads through the shared index pattern and
// textured meshes as plain triangle lists. Switching between the two modes
// flushes.
type SpriteBatch struct {
	quadBase
	mesh bool
}

func newSpriteBatch(p *pipe, quads int) (*SpriteBatch, error) {
	q, err := newQuadBase(p, KindSprite, spriteShaderSource, vertex.SpriteLayout, true, quads)
	if err != nil {
		return nil, err
	}
	return &SpriteBatch{quadBase: q}, nil
}

// Flush implements Batch.
func (b *SpriteBatch) Flush() error {
	if b.mesh {
		return b.flushArrays()
	}
	return b.flushElements()
}

func (b *SpriteBatch) setMesh(mesh bool) error {
	if b.mesh == mesh {
		return nil
	}
	if err := b.Flush(); err != nil {
		return err
	}
	b.mesh = mesh
	return nil
}

// AddSprite stages one sprite. The frame is placed around the sprite's
// origin and projected through ApplyITRS(sprite).Compose(cam).
func (b *SpriteBatch) AddSprite(s *Sprite, cam affine.Transform) error {
	w, h := s.Frame.Width, s.Frame.Height
	x0, y0 := -s.OriginX*w, -s.OriginY*h
	u0, v0, u1, v1 := s.Frame.UV()
	if s.FlipX {
		u0, u1 = u1, u0
	}
	if s.FlipY {
		v0, v1 = v1, v0
	}
	b.scratch.ApplyITRS(s.X, s.Y, s.Rotation, s.ScaleX, s.ScaleY).Compose(cam)
	return b.AddQuad(b.scratch, x0, y0, x0+w, y0+h, u0, v0, u1, v1, s.Tint, s.Alpha)
}

// AddQuad stages the local rectangle (x0, y0)-(x1, y1) projected through
// m, with explicit texture coordinates.
func (b *SpriteBatch) AddQuad(m affine.Transform, x0, y0, x1, y1 float64, u0, v0, u1, v1 float32, tint uint32, alpha float64) error {
	if err := b.setMesh(false); err != nil {
		return err
	}
	if err := b.reserveQuads(1); err != nil {
		return err
	}
	b.writeTexturedQuad(m.TransformQuad(x0, y0, x1, y1), u0, v0, u1, v1, vertex.PackRGB(tint), float32(alpha))
	return nil
}

// AddMesh stages a mesh, expanding its indices into a triangle list.
func (b *SpriteBatch) AddMesh(m *Mesh, cam affine.Transform) error {
	n := len(m.Indices)
	if n == 0 {
		return nil
	}
	if n%3 != 0 {
		return fmt.Errorf("batch: mesh has %d indices, not a multiple of 3", n)
	}
	if n > b.MaxVertices() {
		return fmt.Errorf("%w: mesh of %d vertices into a %d vertex sprite batch",
			ErrPrimitiveTooLarge, n, b.MaxVertices())
	}
	for _, idx := range m.Indices {
		if idx < 0 || 2*idx+1 >= len(m.Vertices) || 2*idx+1 >= len(m.UVs) {
			return fmt.Errorf("batch: mesh index %d out of range", idx)
		}
	}
	if err := b.setMesh(true); err != nil {
		return err
	}
	if !b.vertices.Fits(n * vertex.SpriteFloats) {
		if err := b.flushArrays(); err != nil {
			return err
		}
	}

	b.scratch.ApplyITRS(m.X, m.Y, m.Rotation, m.ScaleX, m.ScaleY).Compose(cam)
	color, alpha := vertex.PackRGB(m.Tint), float32(m.Alpha)
	off := b.vertices.Allocate(n * vertex.SpriteFloats)
	for k, idx := range m.Indices {
		x, y := b.scratch.TransformPoint(m.Vertices[2*idx], m.Vertices[2*idx+1])
		writeSpriteVertex(b.vertices, off+k*vertex.SpriteFloats, x, y,
			float32(m.UVs[2*idx]), float32(m.UVs[2*idx+1]), color, alpha)
	}
	b.count += n
	return nil
}
