// Package glyph builds bitmap font atlases and lays out text as positioned
// glyph quads for the glyph batch.
//
// A Font pairs an RGBA atlas with per-rune frames. Fonts are either built
// from an existing atlas (NewFont) or rasterized from any
// golang.org/x/image/font.Face (NewFontFromFace). Layout turns a string into
// positioned glyphs using a Shaper: AdvanceShaper uses font advances and
// kerning, GoTextShaper uses HarfBuzz shaping from go-text/typesetting.
package glyph

import (
	"errors"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Errors returned by font construction.
var (
	ErrNilFace  = errors.New("glyph: nil font face")
	ErrNoGlyphs = errors.New("glyph: face has none of the requested runes")
	ErrNilAtlas = errors.New("glyph: nil atlas image")
)

// Glyph locates one rune inside a font atlas.
type Glyph struct {
	// Frame is the glyph's pixel rectangle inside the atlas. Empty for
	// blank glyphs such as space.
	Frame image.Rectangle
	// XOffset and YOffset move the frame's top-left corner from the pen
	// position, where the pen sits at the top of the line box.
	XOffset, YOffset float64
	// XAdvance moves the pen to the next glyph.
	XAdvance float64
}

// Font is a bitmap font: an atlas image plus glyph metrics.
type Font struct {
	atlas      *image.RGBA
	glyphs     map[rune]Glyph
	kerning    map[[2]rune]float64
	lineHeight float64
	face       font.Face
}

// NewFont wraps an existing atlas. glyphs maps runes to their frames.
func NewFont(atlas *image.RGBA, glyphs map[rune]Glyph, lineHeight float64) (*Font, error) {
	if atlas == nil {
		return nil, ErrNilAtlas
	}
	g := make(map[rune]Glyph, len(glyphs))
	for r, gl := range glyphs {
		g[r] = gl
	}
	return &Font{
		atlas:      atlas,
		glyphs:     g,
		kerning:    make(map[[2]rune]float64),
		lineHeight: lineHeight,
	}, nil
}

// Atlas returns the premultiplied atlas image.
func (f *Font) Atlas() *image.RGBA { return f.atlas }

// LineHeight returns the distance between consecutive baselines.
func (f *Font) LineHeight() float64 { return f.lineHeight }

// Glyph returns the glyph for r.
func (f *Font) Glyph(r rune) (Glyph, bool) {
	g, ok := f.glyphs[r]
	return g, ok
}

// Len returns the number of glyphs in the font.
func (f *Font) Len() int { return len(f.glyphs) }

// SetKerning overrides the kerning adjustment between a and b.
func (f *Font) SetKerning(a, b rune, amount float64) {
	f.kerning[[2]rune{a, b}] = amount
}

// Kerning returns the horizontal adjustment applied between a and b.
// Explicit pairs take precedence over the source face's kerning table.
func (f *Font) Kerning(a, b rune) float64 {
	if k, ok := f.kerning[[2]rune{a, b}]; ok {
		return k
	}
	if f.face != nil {
		return fixedToFloat(f.face.Kern(a, b))
	}
	return 0
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
