package glyph

import (
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

const (
	atlasWidth   = 256
	atlasPadding = 1
)

type atlasCell struct {
	r       rune
	bounds  image.Rectangle // relative to the dot
	advance fixed.Int26_6
}

// NewFontFromFace rasterizes runes from face into a new atlas. Runes the
// face cannot render are left out. The face stays referenced for kerning.
func NewFontFromFace(face font.Face, runes []rune) (*Font, error) {
	if face == nil {
		return nil, ErrNilFace
	}
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	lineHeight := m.Height.Ceil()
	if lineHeight == 0 {
		lineHeight = ascent + m.Descent.Ceil()
	}

	cells := make([]atlasCell, 0, len(runes))
	seen := make(map[rune]struct{}, len(runes))
	for _, r := range runes {
		if _, dup := seen[r]; dup {
			continue
		}
		seen[r] = struct{}{}
		b, adv, ok := face.GlyphBounds(r)
		if !ok {
			continue
		}
		cells = append(cells, atlasCell{
			r:       r,
			bounds:  image.Rect(b.Min.X.Floor(), b.Min.Y.Floor(), b.Max.X.Ceil(), b.Max.Y.Ceil()),
			advance: adv,
		})
	}
	if len(cells) == 0 {
		return nil, ErrNoGlyphs
	}

	origins, width, height := packShelves(cells)
	atlas := image.NewRGBA(image.Rect(0, 0, width, height))
	d := &font.Drawer{Dst: atlas, Src: image.White, Face: face}

	glyphs := make(map[rune]Glyph, len(cells))
	for i, c := range cells {
		at := origins[i]
		if !c.bounds.Empty() {
			d.Dot = fixed.P(at.X-c.bounds.Min.X, at.Y-c.bounds.Min.Y)
			d.DrawString(string(c.r))
		}
		glyphs[c.r] = Glyph{
			Frame:    image.Rectangle{Min: at, Max: at.Add(c.bounds.Size())},
			XOffset:  float64(c.bounds.Min.X),
			YOffset:  float64(ascent + c.bounds.Min.Y),
			XAdvance: fixedToFloat(c.advance),
		}
	}

	f, err := NewFont(atlas, glyphs, float64(lineHeight))
	if err != nil {
		return nil, err
	}
	f.face = face
	return f, nil
}

// packShelves places cells left to right in rows and returns each cell's
// top-left corner and the atlas size.
func packShelves(cells []atlasCell) (origins []image.Point, width, height int) {
	width = atlasWidth
	for _, c := range cells {
		if w := c.bounds.Dx() + 2*atlasPadding; w > width {
			width = w
		}
	}

	origins = make([]image.Point, len(cells))
	x, y, rowHeight := atlasPadding, atlasPadding, 0
	for i, c := range cells {
		w, h := c.bounds.Dx(), c.bounds.Dy()
		if x+w+atlasPadding > width {
			x = atlasPadding
			y += rowHeight + atlasPadding
			rowHeight = 0
		}
		origins[i] = image.Pt(x, y)
		x += w + atlasPadding
		if h > rowHeight {
			rowHeight = h
		}
	}
	return origins, width, y + rowHeight + atlasPadding
}
