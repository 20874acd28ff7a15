package glyph

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/di"
	gtfont "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/batch2d/internal/cache"
)

// shapeCacheSize bounds the number of shaped lines a GoTextShaper keeps.
const shapeCacheSize = 256

// GoTextShaper shapes lines with HarfBuzz through go-text/typesetting,
// picking up ligature and kerning positioning from the font's OpenType
// tables. Glyph bitmaps still come from the Font atlas, looked up by the
// first rune of each cluster. Shaped lines are cached by content, so
// redrawing unchanged text does not reshape it.
//
// GoTextShaper is not safe for concurrent use.
type GoTextShaper struct {
	font   *gtfont.Font
	size   fixed.Int26_6
	shaper shaping.HarfbuzzShaper
	lines  *cache.Cache[string, []Position]
}

// NewGoTextShaper parses TrueType or OpenType data for shaping at size
// pixels per em. size must match the face the atlas was rasterized from.
func NewGoTextShaper(ttf []byte, size float64) (*GoTextShaper, error) {
	face, err := gtfont.ParseTTF(bytes.NewReader(ttf))
	if err != nil {
		return nil, fmt.Errorf("glyph: parse font: %w", err)
	}
	return &GoTextShaper{
		font:  face.Font,
		size:  fixed.Int26_6(size * 64),
		lines: cache.New[string, []Position](shapeCacheSize),
	}, nil
}

// CacheStats reports hits and misses of the shaped-line cache.
func (s *GoTextShaper) CacheStats() cache.Stats { return s.lines.Stats() }

// Shape implements Shaper. The returned slice is shared with the cache and
// must not be modified.
func (s *GoTextShaper) Shape(line []rune, _ *Font) []Position {
	if len(line) == 0 {
		return nil
	}
	return s.lines.GetOrCreate(string(line), func() []Position { return s.shape(line) })
}

func (s *GoTextShaper) shape(line []rune) []Position {
	input := shaping.Input{
		Text:      line,
		RunStart:  0,
		RunEnd:    len(line),
		Direction: di.DirectionLTR,
		Face:      gtfont.NewFace(s.font),
		Size:      s.size,
		Script:    detectScript(line),
		Language:  language.NewLanguage("en"),
	}
	output := s.shaper.Shape(input)

	out := make([]Position, 0, len(output.Glyphs))
	x := 0.0
	for _, g := range output.Glyphs {
		idx := g.TextIndex()
		if idx < 0 || idx >= len(line) {
			continue
		}
		adv := fixedToFloat(g.Advance)
		out = append(out, Position{
			Index:   idx,
			X:       x + fixedToFloat(g.XOffset),
			Y:       fixedToFloat(g.YOffset),
			Advance: adv,
		})
		x += adv
	}
	return out
}

func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}
