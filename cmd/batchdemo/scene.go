package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"
	"os"
	"strconv"
	"strings"

	"golang.org/x/image/font/basicfont"
	"gopkg.in/yaml.v3"

	"github.com/gogpu/batch2d"
	"github.com/gogpu/batch2d/batch"
	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/glyph"
)

// Color is a 0xRRGGBB value written as "#rrggbb", "0xrrggbb" or a decimal
// integer.
type Color uint32

// UnmarshalYAML implements yaml.Unmarshaler for Color.
func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	s := strings.TrimSpace(value.Value)
	base := 10
	switch {
	case strings.HasPrefix(s, "#"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil || v > 0xFFFFFF {
		return fmt.Errorf("line %d: invalid color %q", value.Line, value.Value)
	}
	*c = Color(v)
	return nil
}

// Scene is a YAML scene file.
type Scene struct {
	Width           int                    `yaml:"width"`
	Height          int                    `yaml:"height"`
	Resolution      float64                `yaml:"resolution"`
	Background      Color                  `yaml:"background"`
	BackgroundAlpha *float64               `yaml:"background_alpha"`
	PixelArt        bool                   `yaml:"pixel_art"`
	Camera          *CameraSpec            `yaml:"camera"`
	Textures        map[string]TextureSpec `yaml:"textures"`
	Objects         []ObjectSpec           `yaml:"objects"`
}

// CameraSpec configures the scene camera. A zero size covers the surface.
// Rotation is in radians, like object rotation.
type CameraSpec struct {
	X               float64 `yaml:"x"`
	Y               float64 `yaml:"y"`
	Width           float64 `yaml:"width"`
	Height          float64 `yaml:"height"`
	ScrollX         float64 `yaml:"scroll_x"`
	ScrollY         float64 `yaml:"scroll_y"`
	Zoom            float64 `yaml:"zoom"`
	Rotation        float64 `yaml:"rotation"`
	Background      Color   `yaml:"background"`
	BackgroundAlpha float64 `yaml:"background_alpha"`
	Fade            Color   `yaml:"fade"`
	FadeAlpha       float64 `yaml:"fade_alpha"`
	Flash           Color   `yaml:"flash"`
	FlashAlpha      float64 `yaml:"flash_alpha"`
}

// TextureSpec generates a texture: a solid color, or a checkerboard of
// Color and Color2 when Checker is the cell size.
type TextureSpec struct {
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	Color   Color  `yaml:"color"`
	Color2  Color  `yaml:"color2"`
	Checker int    `yaml:"checker"`
	Filter  string `yaml:"filter"`
}

// ObjectSpec holds exactly one primitive.
type ObjectSpec struct {
	Rect      *RectSpec     `yaml:"rect"`
	Sprite    *SpriteSpec   `yaml:"sprite"`
	Shape     *ShapeSpec    `yaml:"shape"`
	Text      *TextSpec     `yaml:"text"`
	Particles *ParticleSpec `yaml:"particles"`
}

// RectSpec is a screen-space colored rectangle.
type RectSpec struct {
	X      float64  `yaml:"x"`
	Y      float64  `yaml:"y"`
	Width  float64  `yaml:"width"`
	Height float64  `yaml:"height"`
	Color  Color    `yaml:"color"`
	Alpha  *float64 `yaml:"alpha"`
	Blend  string   `yaml:"blend"`
}

// TransformSpec is the placement shared by world objects.
type TransformSpec struct {
	X        float64  `yaml:"x"`
	Y        float64  `yaml:"y"`
	ScaleX   *float64 `yaml:"scale_x"`
	ScaleY   *float64 `yaml:"scale_y"`
	Rotation float64  `yaml:"rotation"`
	Alpha    *float64 `yaml:"alpha"`
	Blend    string   `yaml:"blend"`
}

// SpriteSpec draws a texture.
type SpriteSpec struct {
	TransformSpec `yaml:",inline"`
	Texture       string `yaml:"texture"`
	Tint          *Color `yaml:"tint"`
	FlipX         bool   `yaml:"flip_x"`
	FlipY         bool   `yaml:"flip_y"`
}

// ShapeSpec draws a filled and optionally stroked shape: a rectangle, a
// circle or a polygon.
type ShapeSpec struct {
	TransformSpec `yaml:",inline"`
	Fill          *Color       `yaml:"fill"`
	FillAlpha     *float64     `yaml:"fill_alpha"`
	Line          Color        `yaml:"line"`
	LineWidth     float64      `yaml:"line_width"`
	LineAlpha     *float64     `yaml:"line_alpha"`
	Rect          []float64    `yaml:"rect"`
	Circle        float64      `yaml:"circle"`
	Points        [][2]float64 `yaml:"points"`
}

// TextSpec draws text in the built-in 7x13 bitmap font.
type TextSpec struct {
	TransformSpec `yaml:",inline"`
	Text          string  `yaml:"text"`
	Tint          *Color  `yaml:"tint"`
	LetterSpacing float64 `yaml:"letter_spacing"`
}

// ParticleSpec scatters Count particles of a texture around the emitter.
type ParticleSpec struct {
	TransformSpec `yaml:",inline"`
	Texture       string  `yaml:"texture"`
	Count         int     `yaml:"count"`
	Spread        float64 `yaml:"spread"`
	Seed          uint64  `yaml:"seed"`
	Tint          *Color  `yaml:"tint"`
}

// LoadScene reads and validates a scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	return ParseScene(data)
}

// ParseScene decodes a scene and fills in defaults.
func ParseScene(data []byte) (*Scene, error) {
	var sc Scene
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}
	if sc.Width == 0 {
		sc.Width = 320
	}
	if sc.Height == 0 {
		sc.Height = 240
	}
	if sc.Resolution == 0 {
		sc.Resolution = 1
	}
	for i, o := range sc.Objects {
		n := 0
		for _, set := range []bool{o.Rect != nil, o.Sprite != nil, o.Shape != nil, o.Text != nil, o.Particles != nil} {
			if set {
				n++
			}
		}
		if n != 1 {
			return nil, fmt.Errorf("object %d: want exactly one of rect, sprite, shape, text, particles; got %d", i, n)
		}
	}
	return &sc, nil
}

// Options returns the renderer options the scene asks for.
func (sc *Scene) Options() []batch2d.Option {
	alpha := 1.0
	if sc.BackgroundAlpha != nil {
		alpha = *sc.BackgroundAlpha
	}
	return []batch2d.Option{
		batch2d.WithWidth(sc.Width),
		batch2d.WithHeight(sc.Height),
		batch2d.WithResolution(sc.Resolution),
		batch2d.WithBackgroundColor(uint32(sc.Background), alpha),
		batch2d.WithPixelArt(sc.PixelArt),
	}
}

func or(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func colorOr(p *Color, def uint32) uint32 {
	if p == nil {
		return def
	}
	return uint32(*p)
}

func blendMode(name string) (command.BlendMode, error) {
	if name == "" {
		return command.BlendModeNormal, nil
	}
	want := strings.ToUpper(name)
	for m := command.BlendModeNormal; m <= command.BlendModeLuminosity; m++ {
		if m.String() == want {
			return m, nil
		}
	}
	return 0, fmt.Errorf("unknown blend mode %q", name)
}

func (t TransformSpec) apply(dst *batch.Transform) error {
	mode, err := blendMode(t.Blend)
	if err != nil {
		return err
	}
	*dst = batch.Transform{
		X:         t.X,
		Y:         t.Y,
		ScaleX:    or(t.ScaleX, 1),
		ScaleY:    or(t.ScaleY, 1),
		Rotation:  t.Rotation,
		Alpha:     or(t.Alpha, 1),
		BlendMode: mode,
	}
	return nil
}

func (ts TextureSpec) image() *image.RGBA {
	w, h := max(ts.Width, 1), max(ts.Height, 1)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	c1 := rgba(uint32(ts.Color))
	c2 := rgba(uint32(ts.Color2))
	for y := range h {
		for x := range w {
			c := c1
			if ts.Checker > 0 && (x/ts.Checker+y/ts.Checker)%2 == 1 {
				c = c2
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func rgba(rgb uint32) color.RGBA {
	return color.RGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xFF}
}

// builder turns a scene into primitives on a renderer.
type builder struct {
	r        *batch2d.Renderer
	textures map[string]*batch.Texture
	font     *glyph.Font
	fontTex  *batch.Texture
}

// Build uploads the scene's textures and returns its primitives and camera.
func (sc *Scene) Build(r *batch2d.Renderer) ([]batch.Primitive, *batch.Camera, error) {
	b := &builder{r: r, textures: make(map[string]*batch.Texture)}
	for name, ts := range sc.Textures {
		filter := command.FilterLinear
		if ts.Filter == "nearest" {
			filter = command.FilterNearest
		}
		tex, err := r.CreateTexture(ts.image(), filter)
		if err != nil {
			return nil, nil, fmt.Errorf("texture %q: %w", name, err)
		}
		b.textures[name] = tex
	}

	objects := make([]batch.Primitive, 0, len(sc.Objects))
	for i, o := range sc.Objects {
		p, err := b.object(o)
		if err != nil {
			return nil, nil, fmt.Errorf("object %d: %w", i, err)
		}
		objects = append(objects, p)
	}
	return objects, sc.camera(), nil
}

func (sc *Scene) camera() *batch.Camera {
	c := sc.Camera
	if c == nil {
		return batch.NewCamera(0, 0, float64(sc.Width), float64(sc.Height))
	}
	w, h := c.Width, c.Height
	if w == 0 || h == 0 {
		w, h = float64(sc.Width), float64(sc.Height)
	}
	cam := batch.NewCamera(c.X, c.Y, w, h)
	cam.ScrollX, cam.ScrollY = c.ScrollX, c.ScrollY
	if c.Zoom != 0 {
		cam.Zoom = c.Zoom
	}
	cam.Rotation = c.Rotation
	cam.BackgroundColor, cam.BackgroundAlpha = uint32(c.Background), c.BackgroundAlpha
	cam.FadeColor, cam.FadeAlpha = uint32(c.Fade), c.FadeAlpha
	cam.FlashColor, cam.FlashAlpha = uint32(c.Flash), c.FlashAlpha
	return cam
}

func (b *builder) texture(name string) (*batch.Texture, error) {
	t, ok := b.textures[name]
	if !ok {
		return nil, fmt.Errorf("unknown texture %q", name)
	}
	return t, nil
}

func (b *builder) object(o ObjectSpec) (batch.Primitive, error) {
	switch {
	case o.Rect != nil:
		return b.rect(o.Rect)
	case o.Sprite != nil:
		return b.sprite(o.Sprite)
	case o.Shape != nil:
		return b.shape(o.Shape)
	case o.Text != nil:
		return b.text(o.Text)
	default:
		return b.particles(o.Particles)
	}
}

func (b *builder) rect(s *RectSpec) (batch.Primitive, error) {
	mode, err := blendMode(s.Blend)
	if err != nil {
		return nil, err
	}
	return &batch.Rect{X: s.X, Y: s.Y, Width: s.Width, Height: s.Height,
		Color: uint32(s.Color), Alpha: or(s.Alpha, 1), BlendMode: mode}, nil
}

func (b *builder) sprite(s *SpriteSpec) (batch.Primitive, error) {
	tex, err := b.texture(s.Texture)
	if err != nil {
		return nil, err
	}
	sp := batch.NewSprite(batch.FullFrame(tex), 0, 0)
	if err := s.apply(&sp.Transform); err != nil {
		return nil, err
	}
	sp.Tint = colorOr(s.Tint, 0xFFFFFF)
	sp.FlipX, sp.FlipY = s.FlipX, s.FlipY
	return sp, nil
}

func (b *builder) shape(s *ShapeSpec) (batch.Primitive, error) {
	g := batch.NewGraphics(0, 0)
	if err := s.apply(&g.Transform); err != nil {
		return nil, err
	}
	fill := s.Fill != nil
	stroke := s.LineWidth > 0
	if fill {
		g.FillStyle(uint32(*s.Fill), or(s.FillAlpha, 1))
	}
	if stroke {
		g.LineStyle(s.LineWidth, uint32(s.Line), or(s.LineAlpha, 1))
	}
	switch {
	case len(s.Rect) == 4:
		x, y, w, h := s.Rect[0], s.Rect[1], s.Rect[2], s.Rect[3]
		if fill {
			g.FillRect(x, y, w, h)
		}
		if stroke {
			g.BeginPath().MoveTo(x, y).LineTo(x+w, y).LineTo(x+w, y+h).LineTo(x, y+h).ClosePath().StrokePath()
		}
		return g, nil
	case s.Circle > 0:
		g.BeginPath().Arc(0, 0, s.Circle, 0, 2*math.Pi, false).ClosePath()
	case len(s.Points) >= 3:
		g.BeginPath().MoveTo(s.Points[0][0], s.Points[0][1])
		for _, p := range s.Points[1:] {
			g.LineTo(p[0], p[1])
		}
		g.ClosePath()
	default:
		return nil, fmt.Errorf("shape needs rect, circle or at least 3 points")
	}
	if fill {
		g.FillPath()
	}
	if stroke {
		g.StrokePath()
	}
	return g, nil
}

func (b *builder) text(s *TextSpec) (batch.Primitive, error) {
	if b.font == nil {
		runes := make([]rune, 0, '~'-' '+1)
		for r := ' '; r <= '~'; r++ {
			runes = append(runes, r)
		}
		f, err := glyph.NewFontFromFace(basicfont.Face7x13, runes)
		if err != nil {
			return nil, err
		}
		tex, err := b.r.CreateTexture(f.Atlas(), command.FilterNearest)
		if err != nil {
			return nil, err
		}
		b.font, b.fontTex = f, tex
	}
	t := batch.NewText(b.font, b.fontTex, s.Text, 0, 0)
	if err := s.apply(&t.Transform); err != nil {
		return nil, err
	}
	t.Tint = colorOr(s.Tint, 0xFFFFFF)
	t.Options.LetterSpacing = s.LetterSpacing
	return t, nil
}

func (b *builder) particles(s *ParticleSpec) (batch.Primitive, error) {
	tex, err := b.texture(s.Texture)
	if err != nil {
		return nil, err
	}
	e := batch.NewEmitter(batch.FullFrame(tex), 0, 0)
	if err := s.apply(&e.Transform); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewPCG(s.Seed, s.Seed^0x9E3779B97F4A7C15))
	tint := colorOr(s.Tint, 0xFFFFFF)
	for range s.Count {
		angle := rng.Float64() * 2 * math.Pi
		dist := rng.Float64() * s.Spread
		p := batch.NewParticle(math.Cos(angle)*dist, math.Sin(angle)*dist)
		p.Rotation = rng.Float64() * 2 * math.Pi
		p.Alpha = 0.5 + rng.Float64()/2
		p.Tint = tint
		e.Particles = append(e.Particles, p)
	}
	return e, nil
}
