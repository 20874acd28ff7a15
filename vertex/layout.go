package vertex

import "fmt"

// Format is the encoding of a single vertex attribute.
type Format uint8

const (
	// FormatFloat32 is one little-endian float32.
	FormatFloat32 Format = iota
	// FormatFloat32x2 is two float32 values.
	FormatFloat32x2
	// FormatFloat32x4 is four float32 values.
	FormatFloat32x4
	// FormatUnorm8x4 is four normalized unsigned bytes packed in a uint32.
	FormatUnorm8x4
)

var formatNames = [...]string{
	FormatFloat32:   "float32",
	FormatFloat32x2: "float32x2",
	FormatFloat32x4: "float32x4",
	FormatUnorm8x4:  "unorm8x4",
}

// String returns the format name.
func (f Format) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("Format(%d)", f)
}

// Size returns the attribute size in bytes.
func (f Format) Size() int {
	switch f {
	case FormatFloat32, FormatUnorm8x4:
		return 4
	case FormatFloat32x2:
		return 8
	case FormatFloat32x4:
		return 16
	default:
		return 0
	}
}

// Element describes one attribute inside an interleaved vertex.
type Element struct {
	Name     string
	Format   Format
	Offset   int
	Location uint32
}

// Layout is the input-element layout of an interleaved vertex buffer.
type Layout struct {
	Stride   int
	Elements []Element
}

// Floats returns the vertex size in 32-bit words.
func (l Layout) Floats() int { return l.Stride / 4 }

// Element returns the element named name.
func (l Layout) Element(name string) (Element, bool) {
	for _, e := range l.Elements {
		if e.Name == name {
			return e, true
		}
	}
	return Element{}, false
}

// Validate checks that elements are 4-byte aligned, ordered, and fit
// inside the stride.
func (l Layout) Validate() error {
	end := 0
	for _, e := range l.Elements {
		if e.Offset%4 != 0 {
			return fmt.Errorf("vertex: element %q offset %d not 4-byte aligned", e.Name, e.Offset)
		}
		if e.Offset < end {
			return fmt.Errorf("vertex: element %q overlaps previous element", e.Name)
		}
		end = e.Offset + e.Format.Size()
	}
	if end > l.Stride {
		return fmt.Errorf("vertex: elements need %d bytes, stride is %d", end, l.Stride)
	}
	return nil
}

// Attribute names shared by the built-in layouts and shaders.
const (
	AttrPosition = "a_position"
	AttrTexCoord = "a_tex_coord"
	AttrColor    = "a_color"
	AttrAlpha    = "a_alpha"
	AttrRGBA     = "a_rgba"
)

// SpriteLayout is the 24-byte textured vertex:
//
//	offset  0  position  float32x2
//	offset  8  uv        float32x2
//	offset 16  color     unorm8x4 (R, G, B, A bytes)
//	offset 20  alpha     float32
var SpriteLayout = Layout{
	Stride: 24,
	Elements: []Element{
		{Name: AttrPosition, Format: FormatFloat32x2, Offset: 0, Location: 0},
		{Name: AttrTexCoord, Format: FormatFloat32x2, Offset: 8, Location: 1},
		{Name: AttrColor, Format: FormatUnorm8x4, Offset: 16, Location: 2},
		{Name: AttrAlpha, Format: FormatFloat32, Offset: 20, Location: 3},
	},
}

// ShapeLayout is the 16-byte untextured vertex:
//
//	offset  0  position  float32x2
//	offset  8  color     unorm8x4
//	offset 12  alpha     float32
var ShapeLayout = Layout{
	Stride: 16,
	Elements: []Element{
		{Name: AttrPosition, Format: FormatFloat32x2, Offset: 0, Location: 0},
		{Name: AttrColor, Format: FormatUnorm8x4, Offset: 8, Location: 1},
		{Name: AttrAlpha, Format: FormatFloat32, Offset: 12, Location: 2},
	},
}

// QuadLayout is the 24-byte axis-aligned tinted quad vertex:
//
//	offset  0  position  float32x2
//	offset  8  rgba      float32x4
var QuadLayout = Layout{
	Stride: 24,
	Elements: []Element{
		{Name: AttrPosition, Format: FormatFloat32x2, Offset: 0, Location: 0},
		{Name: AttrRGBA, Format: FormatFloat32x4, Offset: 8, Location: 1},
	},
}

// Words per vertex for the built-in layouts.
const (
	SpriteFloats = 6
	ShapeFloats  = 4
	QuadFloats   = 6
)
