package batch

import (
	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/vertex"
)

// ParticleBatch draws the particles of emitters. All particles of one
// emitter share its frame and texture.
type ParticleBatch struct {
	quadBase
	world affine.Transform
}

func newParticleBatch(p *pipe, quads int) (*ParticleBatch, error) {
	q, err := newQuadBase(p, KindParticle, spriteShaderSource, vertex.SpriteLayout, true, quads)
	if err != nil {
		return nil, err
	}
	return &ParticleBatch{quadBase: q}, nil
}

// AddParticles stages every visible particle of e. Each particle quad is
// centered on the particle and projected through
// ApplyITRS(particle).Compose(ApplyITRS(emitter).Compose(cam)).
func (b *ParticleBatch) AddParticles(e *Emitter, cam affine.Transform) error {
	w, h := e.Frame.Width, e.Frame.Height
	x0, y0 := -w/2, -h/2
	u0, v0, u1, v1 := e.Frame.UV()
	b.world.ApplyITRS(e.X, e.Y, e.Rotation, e.ScaleX, e.ScaleY).Compose(cam)

	for i := range e.Particles {
		pt := &e.Particles[i]
		alpha := pt.Alpha * e.Alpha
		if alpha <= 0 {
			continue
		}
		if err := b.reserveQuads(1); err != nil {
			return err
		}
		b.scratch.ApplyITRS(pt.X, pt.Y, pt.Rotation, pt.ScaleX, pt.ScaleY).Compose(b.world)
		b.writeTexturedQuad(b.scratch.TransformQuad(x0, y0, x0+w, y0+h),
			u0, v0, u1, v1, vertex.PackRGB(pt.Tint), float32(alpha))
	}
	return nil
}
