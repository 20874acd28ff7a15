package batch

import (
	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/vertex"
)

// GlyphBatch draws text as one quad per positioned glyph.
type GlyphBatch struct {
	quadBase
}

func newGlyphBatch(p *pipe, quads int) (*GlyphBatch, error) {
	q, err := newQuadBase(p, KindGlyph, spriteShaderSource, vertex.SpriteLayout, true, quads)
	if err != nil {
		return nil, err
	}
	return &GlyphBatch{quadBase: q}, nil
}

// AddText stages the glyphs of t projected through
// ApplyITRS(text).Compose(cam). Blank glyphs emit nothing.
func (b *GlyphBatch) AddText(t *Text, cam affine.Transform) error {
	glyphs := t.Glyphs()
	if len(glyphs) == 0 {
		return nil
	}
	tw, th := t.Texture.Size()
	if tw == 0 || th == 0 {
		return nil
	}
	sx, sy := 1/float64(tw), 1/float64(th)
	color, alpha := vertex.PackRGB(t.Tint), float32(t.Alpha)
	b.scratch.ApplyITRS(t.X, t.Y, t.Rotation, t.ScaleX, t.ScaleY).Compose(cam)

	for i := range glyphs {
		g := &glyphs[i]
		fr := g.Glyph.Frame
		if fr.Empty() {
			continue
		}
		if err := b.reserveQuads(1); err != nil {
			return err
		}
		x0, y0 := g.X+g.Glyph.XOffset, g.Y+g.Glyph.YOffset
		x1, y1 := x0+float64(fr.Dx()), y0+float64(fr.Dy())
		b.writeTexturedQuad(b.scratch.TransformQuad(x0, y0, x1, y1),
			float32(float64(fr.Min.X)*sx), float32(float64(fr.Min.Y)*sy),
			float32(float64(fr.Max.X)*sx), float32(float64(fr.Max.Y)*sy),
			color, alpha)
	}
	return nil
}
