package glyph

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Position is a shaped glyph relative to the start of its line.
type Position struct {
	// Index is the rune index inside the line.
	Index   int
	X, Y    float64
	Advance float64
}

// Shaper positions the runes of a single line.
type Shaper interface {
	Shape(line []rune, f *Font) []Position
}

// AdvanceShaper positions runes by their font advances plus kerning.
type AdvanceShaper struct{}

// Shape implements Shaper.
func (AdvanceShaper) Shape(line []rune, f *Font) []Position {
	out := make([]Position, 0, len(line))
	x := 0.0
	for i, r := range line {
		if i > 0 {
			x += f.Kerning(line[i-1], r)
		}
		adv := 0.0
		if g, ok := f.Glyph(r); ok {
			adv = g.XAdvance
		}
		out = append(out, Position{Index: i, X: x, Advance: adv})
		x += adv
	}
	return out
}

// Options configures Layout.
type Options struct {
	// LetterSpacing is added after every glyph.
	LetterSpacing float64
	// LineSpacing is added between lines.
	LineSpacing float64
	// Shaper positions each line. Nil means AdvanceShaper.
	Shaper Shaper
}

// Positioned is one glyph placed in text space. X and Y locate the pen at
// the top of the line box.
type Positioned struct {
	Rune  rune
	X, Y  float64
	Glyph Glyph
}

// Layout normalizes text to NFC and places every rune the font knows.
// Lines are split on '\n'.
func Layout(text string, f *Font, opts Options) []Positioned {
	if f == nil || text == "" {
		return nil
	}
	shaper := opts.Shaper
	if shaper == nil {
		shaper = AdvanceShaper{}
	}
	text = norm.NFC.String(text)

	out := make([]Positioned, 0, len(text))
	y := 0.0
	for _, line := range strings.Split(text, "\n") {
		runes := []rune(strings.TrimSuffix(line, "\r"))
		for k, p := range shaper.Shape(runes, f) {
			r := runes[p.Index]
			g, ok := f.Glyph(r)
			if !ok {
				continue
			}
			out = append(out, Positioned{
				Rune:  r,
				X:     p.X + float64(k)*opts.LetterSpacing,
				Y:     y + p.Y,
				Glyph: g,
			})
		}
		y += f.LineHeight() + opts.LineSpacing
	}
	return out
}

// Measure returns the width of the widest line and the total height.
func Measure(text string, f *Font, opts Options) (width, height float64) {
	if f == nil || text == "" {
		return 0, 0
	}
	shaper := opts.Shaper
	if shaper == nil {
		shaper = AdvanceShaper{}
	}
	lines := strings.Split(norm.NFC.String(text), "\n")
	for _, line := range lines {
		pos := shaper.Shape([]rune(strings.TrimSuffix(line, "\r")), f)
		if len(pos) == 0 {
			continue
		}
		last := pos[len(pos)-1]
		w := last.X + last.Advance + float64(len(pos)-1)*opts.LetterSpacing
		if w > width {
			width = w
		}
	}
	height = float64(len(lines))*f.LineHeight() + float64(len(lines)-1)*opts.LineSpacing
	return width, height
}
