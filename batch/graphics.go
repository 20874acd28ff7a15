package batch

// GraphicsOp identifies a recorded Graphics command.
type GraphicsOp uint8

const (
	OpFillStyle GraphicsOp = iota
	OpLineStyle
	OpBeginPath
	OpMoveTo
	OpLineTo
	OpArc
	OpClosePath
	OpFillPath
	OpStrokePath
	OpFillRect
	OpFillTriangle
	OpStrokeTriangle
	OpSave
	OpRestore
	OpTranslate
	OpScale
	OpRotate
)

var graphicsOpNames = [...]string{
	OpFillStyle:      "FillStyle",
	OpLineStyle:      "LineStyle",
	OpBeginPath:      "BeginPath",
	OpMoveTo:         "MoveTo",
	OpLineTo:         "LineTo",
	OpArc:            "Arc",
	OpClosePath:      "ClosePath",
	OpFillPath:       "FillPath",
	OpStrokePath:     "StrokePath",
	OpFillRect:       "FillRect",
	OpFillTriangle:   "FillTriangle",
	OpStrokeTriangle: "StrokeTriangle",
	OpSave:           "Save",
	OpRestore:        "Restore",
	OpTranslate:      "Translate",
	OpScale:          "Scale",
	OpRotate:         "Rotate",
}

// String returns the op name.
func (o GraphicsOp) String() string {
	if int(o) < len(graphicsOpNames) {
		return graphicsOpNames[o]
	}
	return "Unknown"
}

// GraphicsCommand is one recorded drawing command. Args hold the numeric
// operands in call order; Color and Flag are used by the style and arc ops.
type GraphicsCommand struct {
	Op    GraphicsOp
	Args  [6]float64
	Color uint32
	Flag  bool
}

// Graphics records vector drawing commands replayed by the ShapeBatch each
// frame. The builder methods mirror the 2D canvas API and return g for
// chaining.
type Graphics struct {
	Transform
	Commands []GraphicsCommand
}

// NewGraphics returns an empty Graphics object at (x, y).
func NewGraphics(x, y float64) *Graphics {
	return &Graphics{Transform: DefaultTransform(x, y)}
}

func (g *Graphics) push(op GraphicsOp, color uint32, flag bool, args ...float64) *Graphics {
	c := GraphicsCommand{Op: op, Color: color, Flag: flag}
	copy(c.Args[:], args)
	g.Commands = append(g.Commands, c)
	return g
}

// Clear drops every recorded command.
func (g *Graphics) Clear() *Graphics {
	g.Commands = g.Commands[:0]
	return g
}

// FillStyle sets the fill color (0xRRGGBB) and alpha.
func (g *Graphics) FillStyle(color uint32, alpha float64) *Graphics {
	return g.push(OpFillStyle, color, false, alpha)
}

// LineStyle sets the stroke width, color and alpha.
func (g *Graphics) LineStyle(width float64, color uint32, alpha float64) *Graphics {
	return g.push(OpLineStyle, color, false, width, alpha)
}

// BeginPath discards the current paths.
func (g *Graphics) BeginPath() *Graphics { return g.push(OpBeginPath, 0, false) }

// MoveTo starts a new sub-path at (x, y).
func (g *Graphics) MoveTo(x, y float64) *Graphics { return g.push(OpMoveTo, 0, false, x, y) }

// LineTo adds a straight segment to (x, y).
func (g *Graphics) LineTo(x, y float64) *Graphics { return g.push(OpLineTo, 0, false, x, y) }

// Arc adds a circular arc around (x, y).
func (g *Graphics) Arc(x, y, radius, start, end float64, anticlockwise bool) *Graphics {
	return g.push(OpArc, 0, anticlockwise, x, y, radius, start, end)
}

// ClosePath closes the current sub-path.
func (g *Graphics) ClosePath() *Graphics { return g.push(OpClosePath, 0, false) }

// FillPath fills every sub-path with the fill style.
func (g *Graphics) FillPath() *Graphics { return g.push(OpFillPath, 0, false) }

// StrokePath strokes every sub-path with the line style.
func (g *Graphics) StrokePath() *Graphics { return g.push(OpStrokePath, 0, false) }

// FillRect fills an axis-aligned rectangle.
func (g *Graphics) FillRect(x, y, w, h float64) *Graphics {
	return g.push(OpFillRect, 0, false, x, y, w, h)
}

// FillTriangle fills a triangle.
func (g *Graphics) FillTriangle(x0, y0, x1, y1, x2, y2 float64) *Graphics {
	return g.push(OpFillTriangle, 0, false, x0, y0, x1, y1, x2, y2)
}

// StrokeTriangle strokes a closed triangle outline.
func (g *Graphics) StrokeTriangle(x0, y0, x1, y1, x2, y2 float64) *Graphics {
	return g.push(OpStrokeTriangle, 0, false, x0, y0, x1, y1, x2, y2)
}

// Save pushes the current local transform.
func (g *Graphics) Save() *Graphics { return g.push(OpSave, 0, false) }

// Restore pops the local transform pushed by Save.
func (g *Graphics) Restore() *Graphics { return g.push(OpRestore, 0, false) }

// Translate moves the local transform.
func (g *Graphics) Translate(x, y float64) *Graphics { return g.push(OpTranslate, 0, false, x, y) }

// Scale scales the local transform.
func (g *Graphics) Scale(x, y float64) *Graphics { return g.push(OpScale, 0, false, x, y) }

// Rotate rotates the local transform by rad radians.
func (g *Graphics) Rotate(rad float64) *Graphics { return g.push(OpRotate, 0, false, rad) }
