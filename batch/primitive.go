package batch

import (
	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/glyph"
)

// Primitive is a resolved scene object accepted by Manager.Add. The set is
// closed: Sprite, Mesh, Graphics, Emitter, Text and Rect.
type Primitive interface {
	primitive()
}

// Transform is the flat object state every primitive carries.
type Transform struct {
	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64
	Alpha          float64
	BlendMode      command.BlendMode
}

// DefaultTransform returns unit scale, full alpha and NORMAL blending.
func DefaultTransform(x, y float64) Transform {
	return Transform{X: x, Y: y, ScaleX: 1, ScaleY: 1, Alpha: 1}
}

// Sprite is a textured quad.
type Sprite struct {
	Transform
	Frame Frame
	// OriginX and OriginY place the pivot in normalized frame space.
	OriginX, OriginY float64
	// Tint is 0xRRGGBB multiplied into the texture color.
	Tint         uint32
	FlipX, FlipY bool
}

// NewSprite returns a sprite centered on (x, y) with a white tint.
func NewSprite(frame Frame, x, y float64) *Sprite {
	return &Sprite{
		Transform: DefaultTransform(x, y),
		Frame:     frame,
		OriginX:   0.5,
		OriginY:   0.5,
		Tint:      0xFFFFFF,
	}
}

// Mesh is an indexed textured triangle mesh in local space.
type Mesh struct {
	Transform
	Texture *Texture
	// Vertices holds x, y pairs; UVs holds u, v pairs of the same count.
	Vertices []float64
	UVs      []float64
	Indices  []int
	Tint     uint32
}

// NewMesh returns a white-tinted mesh at (x, y).
func NewMesh(tex *Texture, vertices, uvs []float64, indices []int, x, y float64) *Mesh {
	return &Mesh{
		Transform: DefaultTransform(x, y),
		Texture:   tex,
		Vertices:  vertices,
		UVs:       uvs,
		Indices:   indices,
		Tint:      0xFFFFFF,
	}
}

// Particle is one particle of an Emitter, in emitter space.
type Particle struct {
	X, Y           float64
	ScaleX, ScaleY float64
	Rotation       float64
	Alpha          float64
	Tint           uint32
}

// Emitter is a set of particles sharing one texture frame.
type Emitter struct {
	Transform
	Frame     Frame
	Particles []Particle
}

// NewEmitter returns an empty emitter at (x, y).
func NewEmitter(frame Frame, x, y float64) *Emitter {
	return &Emitter{Transform: DefaultTransform(x, y), Frame: frame}
}

// Text is a string drawn from a glyph atlas. Texture must hold the font's
// atlas.
type Text struct {
	Transform
	Font    *glyph.Font
	Texture *Texture
	Tint    uint32
	Options glyph.Options

	text    string
	layout  []glyph.Positioned
	laidOut bool
	font    *glyph.Font
	opts    glyph.Options
}

// NewText returns a white text object with its top-left corner at (x, y).
func NewText(f *glyph.Font, tex *Texture, s string, x, y float64) *Text {
	return &Text{
		Transform: DefaultTransform(x, y),
		Font:      f,
		Texture:   tex,
		Tint:      0xFFFFFF,
		text:      s,
	}
}

// SetText replaces the string.
func (t *Text) SetText(s string) {
	if s != t.text {
		t.text = s
		t.laidOut = false
	}
}

// String returns the text.
func (t *Text) String() string { return t.text }

// Glyphs returns the laid out glyphs, recomputing them when the text, font
// or options changed.
func (t *Text) Glyphs() []glyph.Positioned {
	if !t.laidOut || t.font != t.Font || t.opts != t.Options {
		t.layout = glyph.Layout(t.text, t.Font, t.Options)
		t.font, t.opts = t.Font, t.Options
		t.laidOut = true
	}
	return t.layout
}

// Rect is a flat colored rectangle in surface pixels. It ignores cameras.
type Rect struct {
	X, Y, Width, Height float64
	// Color is 0xRRGGBB.
	Color uint32
	Alpha float64
	// BlendMode selects the blend state, NORMAL by default.
	BlendMode command.BlendMode
}

func (*Sprite) primitive()   {}
func (*Mesh) primitive()     {}
func (*Graphics) primitive() {}
func (*Emitter) primitive()  {}
func (*Text) primitive()     {}
func (*Rect) primitive()     {}

// NewParticle returns a white particle at (x, y) with unit scale and full
// alpha.
func NewParticle(x, y float64) Particle {
	return Particle{X: x, Y: y, ScaleX: 1, ScaleY: 1, Alpha: 1, Tint: 0xFFFFFF}
}
