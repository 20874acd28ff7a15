package glyph

import (
	"errors"
	"testing"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

func newBasicFont(t *testing.T, runes string) *Font {
	t.Helper()
	f, err := NewFontFromFace(basicfont.Face7x13, []rune(runes))
	if err != nil {
		t.Fatalf("NewFontFromFace: %v", err)
	}
	return f
}

func newGoRegular(t *testing.T, size float64) font.Face {
	t.Helper()
	otf, err := opentype.Parse(goregular.TTF)
	if err != nil {
		t.Fatalf("opentype.Parse: %v", err)
	}
	face, err := opentype.NewFace(otf, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		t.Fatalf("opentype.NewFace: %v", err)
	}
	t.Cleanup(func() { _ = face.Close() })
	return face
}

func TestNewFontFromFace(t *testing.T) {
	f := newBasicFont(t, "AAB")
	if f.Len() != 2 {
		t.Errorf("Len() = %d, want 2", f.Len())
	}
	if f.LineHeight() != 13 {
		t.Errorf("LineHeight() = %v, want 13", f.LineHeight())
	}

	a, ok := f.Glyph('A')
	if !ok {
		t.Fatal("glyph A missing")
	}
	if a.XAdvance != 7 {
		t.Errorf("A.XAdvance = %v, want 7", a.XAdvance)
	}
	if a.Frame.Dy() != 13 {
		t.Errorf("A frame height = %d, want 13", a.Frame.Dy())
	}
	if a.YOffset != 0 {
		t.Errorf("A.YOffset = %v, want 0", a.YOffset)
	}

	b, _ := f.Glyph('B')
	if a.Frame.Overlaps(b.Frame) {
		t.Errorf("frames overlap: %v and %v", a.Frame, b.Frame)
	}
	if !a.Frame.In(f.Atlas().Bounds()) {
		t.Errorf("frame %v outside atlas %v", a.Frame, f.Atlas().Bounds())
	}

	inked := false
	for y := a.Frame.Min.Y; y < a.Frame.Max.Y; y++ {
		for x := a.Frame.Min.X; x < a.Frame.Max.X; x++ {
			if f.Atlas().RGBAAt(x, y).A != 0 {
				inked = true
			}
		}
	}
	if !inked {
		t.Error("glyph A left no pixels in the atlas")
	}
}

func TestNewFontErrors(t *testing.T) {
	if _, err := NewFontFromFace(nil, []rune("A")); !errors.Is(err, ErrNilFace) {
		t.Errorf("NewFontFromFace(nil) = %v, want ErrNilFace", err)
	}
	if _, err := NewFontFromFace(basicfont.Face7x13, nil); !errors.Is(err, ErrNoGlyphs) {
		t.Errorf("NewFontFromFace(no runes) = %v, want ErrNoGlyphs", err)
	}
	if _, err := NewFont(nil, nil, 10); !errors.Is(err, ErrNilAtlas) {
		t.Errorf("NewFont(nil) = %v, want ErrNilAtlas", err)
	}
}

func TestLayout(t *testing.T) {
	f := newBasicFont(t, "AB")

	tests := []struct {
		name string
		text string
		opts Options
		want []Positioned
	}{
		{
			name: "single line",
			text: "AB",
			want: []Positioned{{Rune: 'A', X: 0, Y: 0}, {Rune: 'B', X: 7, Y: 0}},
		},
		{
			name: "newline",
			text: "A\nB",
			want: []Positioned{{Rune: 'A', X: 0, Y: 0}, {Rune: 'B', X: 0, Y: 13}},
		},
		{
			name: "letter spacing",
			text: "ABA",
			opts: Options{LetterSpacing: 2},
			want: []Positioned{{Rune: 'A', X: 0}, {Rune: 'B', X: 9}, {Rune: 'A', X: 18}},
		},
		{
			name: "line spacing",
			text: "A\nA",
			opts: Options{LineSpacing: 3},
			want: []Positioned{{Rune: 'A', X: 0, Y: 0}, {Rune: 'A', X: 0, Y: 16}},
		},
		{
			name: "unknown runes skipped",
			text: "AzB",
			want: []Positioned{{Rune: 'A', X: 0}, {Rune: 'B', X: 7}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Layout(tt.text, f, tt.opts)
			if len(got) != len(tt.want) {
				t.Fatalf("Layout returned %d glyphs, want %d", len(got), len(tt.want))
			}
			for i, w := range tt.want {
				if got[i].Rune != w.Rune || got[i].X != w.X || got[i].Y != w.Y {
					t.Errorf("glyph %d = {%q %v %v}, want {%q %v %v}",
						i, got[i].Rune, got[i].X, got[i].Y, w.Rune, w.X, w.Y)
				}
			}
		})
	}
}

func TestLayoutKerningOverride(t *testing.T) {
	f := newBasicFont(t, "AV")
	f.SetKerning('A', 'V', -2)
	got := Layout("AV", f, Options{})
	if len(got) != 2 || got[1].X != 5 {
		t.Fatalf("Layout = %+v, want V at x=5", got)
	}
	if k := f.Kerning('V', 'A'); k != 0 {
		t.Errorf("Kerning(V, A) = %v, want 0", k)
	}
}

func TestLayoutNormalizesNFC(t *testing.T) {
	f, err := NewFontFromFace(newGoRegular(t, 16), []rune("é"))
	if err != nil {
		t.Fatalf("NewFontFromFace: %v", err)
	}
	got := Layout("e\u0301", f, Options{})
	if len(got) != 1 || got[0].Rune != 'é' {
		t.Fatalf("Layout(decomposed é) = %+v, want a single é", got)
	}
}

func TestMeasure(t *testing.T) {
	f := newBasicFont(t, "AB")
	w, h := Measure("AB\nA", f, Options{LetterSpacing: 1})
	if w != 15 || h != 26 {
		t.Errorf("Measure = (%v, %v), want (15, 26)", w, h)
	}
	if w, h := Measure("", f, Options{}); w != 0 || h != 0 {
		t.Errorf("Measure(\"\") = (%v, %v), want (0, 0)", w, h)
	}
}

func TestGoTextShaper(t *testing.T) {
	s, err := NewGoTextShaper(goregular.TTF, 16)
	if err != nil {
		t.Fatalf("NewGoTextShaper: %v", err)
	}
	f, err := NewFontFromFace(newGoRegular(t, 16), []rune("Helo"))
	if err != nil {
		t.Fatalf("NewFontFromFace: %v", err)
	}

	pos := s.Shape([]rune("Hello"), f)
	if len(pos) != 5 {
		t.Fatalf("Shape returned %d glyphs, want 5", len(pos))
	}
	if pos[0].X != 0 {
		t.Errorf("first glyph X = %v, want 0", pos[0].X)
	}
	for i := 1; i < len(pos); i++ {
		if pos[i].X <= pos[i-1].X {
			t.Errorf("glyph %d X = %v, not after %v", i, pos[i].X, pos[i-1].X)
		}
	}

	laid := Layout("Hello", f, Options{Shaper: s})
	if len(laid) != 5 || laid[4].Rune != 'o' {
		t.Errorf("Layout with GoTextShaper = %+v, want 5 glyphs ending in o", laid)
	}
	if st := s.CacheStats(); st.Hits != 1 || st.Misses != 1 {
		t.Errorf("CacheStats() = %+v, want the second Hello served from cache", st)
	}
}

func TestGoTextShaperRejectsGarbage(t *testing.T) {
	if _, err := NewGoTextShaper([]byte("not a font"), 12); err == nil {
		t.Error("NewGoTextShaper(garbage) succeeded")
	}
}
