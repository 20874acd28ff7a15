package batch

import (
	"fmt"
	"math"

	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/internal/earcut"
	"github.com/gogpu/batch2d/vertex"
)

// arcSteps is the number of segments used to flatten an arc.
const arcSteps = 100

// pathPoint is a path vertex in graphics space with the line style that
// was current when it was added.
type pathPoint struct {
	x, y  float64
	width float64
	color uint32
	alpha float64
}

type path struct {
	points []pathPoint
	closed bool
}

// lineQuad holds the four corners produced by AddLine: l0 and l2 at the
// segment end, l1 and l3 at its start.
type lineQuad [8]float64

// ShapeBatch draws filled and stroked vector shapes as plain triangle
// lists.
//
// Coordinates passed to the path methods are in graphics space: they are
// first mapped through the local transform (Translate, Scale, Rotate,
// Save, Restore) and later, when vertices are written, through the world
// transform set by SetTransform. Paths are cached until FillPath or
// StrokePath turns them into triangles.
type ShapeBatch struct {
	base

	world affine.Transform
	local affine.Transform
	stack []affine.Transform
	alpha float64

	fillColor uint32
	fillAlpha float64
	lineWidth float64
	lineColor uint32
	lineAlpha float64

	paths []path
	flat  []float64
	tri   []pathPoint
}

func newShapeBatch(p *pipe, maxVertices int) (*ShapeBatch, error) {
	b, err := newBase(p, KindShape, shapeShaderSource, vertex.ShapeLayout, false, maxVertices)
	if err != nil {
		return nil, err
	}
	s := &ShapeBatch{base: b}
	s.SetTransform(affine.Identity())
	return s, nil
}

// Flush implements Batch.
func (b *ShapeBatch) Flush() error { return b.flushArrays() }

// SetTransform sets the world transform, resets the local transform and
// the styles, and drops cached paths.
func (b *ShapeBatch) SetTransform(m affine.Transform) {
	b.world = m
	b.local.LoadIdentity()
	b.stack = b.stack[:0]
	b.alpha = 1
	b.fillColor, b.fillAlpha = 0xFFFFFF, 1
	b.lineWidth, b.lineColor, b.lineAlpha = 1, 0xFFFFFF, 1
	b.BeginPath()
}

// SetAlpha sets the alpha multiplied into every style.
func (b *ShapeBatch) SetAlpha(alpha float64) { b.alpha = alpha }

// SetFillStyle sets the fill color (0xRRGGBB) and alpha.
func (b *ShapeBatch) SetFillStyle(color uint32, alpha float64) {
	b.fillColor, b.fillAlpha = color, alpha
}

// SetLineStyle sets the stroke width, color and alpha for points added
// from now on.
func (b *ShapeBatch) SetLineStyle(width float64, color uint32, alpha float64) {
	b.lineWidth, b.lineColor, b.lineAlpha = width, color, alpha
}

// Save pushes the local transform.
func (b *ShapeBatch) Save() { b.stack = append(b.stack, b.local) }

// Restore pops the local transform. An unbalanced Restore is ignored.
func (b *ShapeBatch) Restore() {
	if n := len(b.stack); n > 0 {
		b.local = b.stack[n-1]
		b.stack = b.stack[:n-1]
	}
}

// Translate translates the local transform.
func (b *ShapeBatch) Translate(x, y float64) { b.local.Translate(x, y) }

// Scale scales the local transform.
func (b *ShapeBatch) Scale(x, y float64) { b.local.Scale(x, y) }

// Rotate rotates the local transform.
func (b *ShapeBatch) Rotate(rad float64) { b.local.Rotate(rad) }

func (b *ShapeBatch) point(x, y float64) pathPoint {
	x, y = b.local.TransformPoint(x, y)
	return pathPoint{x: x, y: y, width: b.lineWidth, color: b.lineColor, alpha: b.lineAlpha}
}

// BeginPath drops every cached path.
func (b *ShapeBatch) BeginPath() { b.paths = b.paths[:0] }

// MoveTo starts a new path at (x, y).
func (b *ShapeBatch) MoveTo(x, y float64) { b.startPath(b.point(x, y)) }

func (b *ShapeBatch) startPath(pt pathPoint) {
	n := len(b.paths)
	if n < cap(b.paths) {
		b.paths = b.paths[:n+1]
		b.paths[n].points = append(b.paths[n].points[:0], pt)
		b.paths[n].closed = false
		return
	}
	b.paths = append(b.paths, path{points: []pathPoint{pt}})
}

// LineTo extends the current path to (x, y). Without a current path it
// behaves like MoveTo; after ClosePath it starts a new path at the closed
// path's first point.
func (b *ShapeBatch) LineTo(x, y float64) {
	n := len(b.paths)
	if n == 0 {
		b.MoveTo(x, y)
		return
	}
	if cur := &b.paths[n-1]; cur.closed {
		start := cur.points[0]
		start.width, start.color, start.alpha = b.lineWidth, b.lineColor, b.lineAlpha
		b.startPath(start)
	}
	cur := &b.paths[len(b.paths)-1]
	cur.points = append(cur.points, b.point(x, y))
}

// Arc adds a circular arc of radius r around (x, y) from start to end
// radians, flattened into arcSteps segments including the end point. The
// arc connects to the current path with a straight line.
func (b *ShapeBatch) Arc(x, y, r, start, end float64, anticlockwise bool) {
	sweep := arcSweep(start, end, anticlockwise)
	for i := 0; i <= arcSteps; i++ {
		a := start + sweep*float64(i)/arcSteps
		b.LineTo(x+math.Cos(a)*r, y+math.Sin(a)*r)
	}
}

// arcSweep returns the signed angle swept from start to end, following the
// canvas arc rules.
func arcSweep(start, end float64, anticlockwise bool) float64 {
	const tau = 2 * math.Pi
	d := end - start
	if !anticlockwise {
		if d >= tau {
			return tau
		}
		if d < 0 {
			d = math.Mod(d, tau)
			if d < 0 {
				d += tau
			}
		}
		return d
	}
	if d <= -tau {
		return -tau
	}
	if d > 0 {
		d = math.Mod(d, tau)
		if d > 0 {
			d -= tau
		}
	}
	return d
}

// ClosePath closes the current path back to its first point.
func (b *ShapeBatch) ClosePath() {
	n := len(b.paths)
	if n == 0 {
		return
	}
	cur := &b.paths[n-1]
	if len(cur.points) < 2 {
		return
	}
	first, last := cur.points[0], cur.points[len(cur.points)-1]
	if first.x != last.x || first.y != last.y {
		cur.points = append(cur.points, first)
	}
	cur.closed = true
}

// PathCount returns the number of cached paths.
func (b *ShapeBatch) PathCount() int { return len(b.paths) }

// reserve makes room for n vertices.
func (b *ShapeBatch) reserve(n int) error {
	if n > b.MaxVertices() {
		return fmt.Errorf("%w: %d vertices into a %d vertex shape batch",
			ErrPrimitiveTooLarge, n, b.MaxVertices())
	}
	if !b.vertices.Fits(n * vertex.ShapeFloats) {
		return b.flushArrays()
	}
	return nil
}

// emit writes one graphics-space vertex through the world transform. Room
// must have been reserved.
func (b *ShapeBatch) emit(x, y float64, color uint32, alpha float32) {
	x, y = b.world.TransformPoint(x, y)
	buf := b.vertices
	off := buf.Allocate(vertex.ShapeFloats)
	buf.SetFloat32(off, float32(x))
	buf.SetFloat32(off+1, float32(y))
	buf.SetUint32(off+2, color)
	buf.SetFloat32(off+3, alpha)
	b.count++
}

func (b *ShapeBatch) triangle(x0, y0, x1, y1, x2, y2 float64, color uint32, alpha float32) error {
	if err := b.reserve(3); err != nil {
		return err
	}
	b.emit(x0, y0, color, alpha)
	b.emit(x1, y1, color, alpha)
	b.emit(x2, y2, color, alpha)
	return nil
}

// FillPath triangulates and fills every cached path with the fill style.
func (b *ShapeBatch) FillPath() error {
	for i := range b.paths {
		if err := b.fill(b.paths[i].points); err != nil {
			return err
		}
	}
	return nil
}

func (b *ShapeBatch) fill(pts []pathPoint) error {
	if len(pts) < 3 {
		return nil
	}
	b.flat = b.flat[:0]
	for _, pt := range pts {
		b.flat = append(b.flat, pt.x, pt.y)
	}
	tris := earcut.Triangulate(b.flat, nil, 2)
	color, alpha := vertex.PackRGB(b.fillColor), float32(b.fillAlpha*b.alpha)
	f := b.flat
	for i := 0; i+2 < len(tris); i += 3 {
		p0, p1, p2 := 2*tris[i], 2*tris[i+1], 2*tris[i+2]
		if err := b.triangle(f[p0], f[p0+1], f[p1], f[p1+1], f[p2], f[p2+1], color, alpha); err != nil {
			return err
		}
	}
	return nil
}

// StrokePath strokes every cached path with the per-point line styles.
func (b *ShapeBatch) StrokePath() error {
	for i := range b.paths {
		p := &b.paths[i]
		if err := b.stroke(p.points, p.closed); err != nil {
			return err
		}
	}
	return nil
}

// stroke expands consecutive point pairs into line quads and fills the
// gap between consecutive segments with a joint. A closed path, whose last
// point repeats the first, is also joined from its last segment back to
// its first. Open paths never wrap around.
func (b *ShapeBatch) stroke(pts []pathPoint, closed bool) error {
	var first, prev lineQuad
	segments := 0
	for i := 0; i+1 < len(pts); i++ {
		q, ok, err := b.addLine(pts[i], pts[i+1])
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if segments == 0 {
			first = q
		} else if err := b.joint(prev, q, pts[i]); err != nil {
			return err
		}
		prev = q
		segments++
	}
	if closed && segments > 1 {
		return b.joint(prev, first, pts[0])
	}
	return nil
}

// AddLine strokes the graphics-space segment a-b with per-end widths and
// colors.
func (b *ShapeBatch) AddLine(ax, ay, bx, by, aWidth, bWidth float64, aColor, bColor uint32, aAlpha, bAlpha float64) error {
	_, _, err := b.addLine(
		pathPoint{x: ax, y: ay, width: aWidth, color: aColor, alpha: aAlpha},
		pathPoint{x: bx, y: by, width: bWidth, color: bColor, alpha: bAlpha},
	)
	return err
}

// addLine writes the two triangles of a segment and returns its corners.
// Zero-length segments write nothing and report false.
func (b *ShapeBatch) addLine(a, c pathPoint) (lineQuad, bool, error) {
	dx, dy := c.x-a.x, c.y-a.y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return lineQuad{}, false, nil
	}
	if err := b.reserve(6); err != nil {
		return lineQuad{}, false, err
	}
	aw, cw := a.width/2, c.width/2
	al0, al1 := aw*dy/l, -aw*dx/l
	cl0, cl1 := cw*dy/l, -cw*dx/l
	q := lineQuad{
		c.x - cl0, c.y - cl1, // l0
		a.x - al0, a.y - al1, // l1
		c.x + cl0, c.y + cl1, // l2
		a.x + al0, a.y + al1, // l3
	}
	ac, aa := vertex.PackRGB(a.color), float32(a.alpha*b.alpha)
	cc, ca := vertex.PackRGB(c.color), float32(c.alpha*b.alpha)

	b.emit(q[0], q[1], cc, ca)
	b.emit(q[2], q[3], ac, aa)
	b.emit(q[4], q[5], cc, ca)
	b.emit(q[2], q[3], ac, aa)
	b.emit(q[6], q[7], ac, aa)
	b.emit(q[4], q[5], cc, ca)
	return q, true, nil
}

// joint fills the wedge between the end of prev and the start of next at
// point pt.
func (b *ShapeBatch) joint(prev, next lineQuad, pt pathPoint) error {
	if err := b.reserve(6); err != nil {
		return err
	}
	color, alpha := vertex.PackRGB(pt.color), float32(pt.alpha*b.alpha)
	b.emit(prev[4], prev[5], color, alpha)
	b.emit(prev[0], prev[1], color, alpha)
	b.emit(next[6], next[7], color, alpha)
	b.emit(prev[0], prev[1], color, alpha)
	b.emit(prev[4], prev[5], color, alpha)
	b.emit(next[2], next[3], color, alpha)
	return nil
}

// AddFillRect fills a rectangle with the fill style.
func (b *ShapeBatch) AddFillRect(x, y, w, h float64) error {
	if err := b.reserve(6); err != nil {
		return err
	}
	x0, y0 := b.local.TransformPoint(x, y)
	x1, y1 := b.local.TransformPoint(x, y+h)
	x2, y2 := b.local.TransformPoint(x+w, y+h)
	x3, y3 := b.local.TransformPoint(x+w, y)
	color, alpha := vertex.PackRGB(b.fillColor), float32(b.fillAlpha*b.alpha)
	b.emit(x0, y0, color, alpha)
	b.emit(x1, y1, color, alpha)
	b.emit(x2, y2, color, alpha)
	b.emit(x0, y0, color, alpha)
	b.emit(x2, y2, color, alpha)
	b.emit(x3, y3, color, alpha)
	return nil
}

// AddFillTriangle fills a triangle with the fill style.
func (b *ShapeBatch) AddFillTriangle(x0, y0, x1, y1, x2, y2 float64) error {
	x0, y0 = b.local.TransformPoint(x0, y0)
	x1, y1 = b.local.TransformPoint(x1, y1)
	x2, y2 = b.local.TransformPoint(x2, y2)
	return b.triangle(x0, y0, x1, y1, x2, y2, vertex.PackRGB(b.fillColor), float32(b.fillAlpha*b.alpha))
}

// AddStrokeTriangle strokes a closed triangle outline with the line style.
func (b *ShapeBatch) AddStrokeTriangle(x0, y0, x1, y1, x2, y2 float64) error {
	b.tri = append(b.tri[:0], b.point(x0, y0), b.point(x1, y1), b.point(x2, y2), b.point(x0, y0))
	return b.stroke(b.tri, true)
}

// AddGraphics replays the commands of g with the world transform
// ApplyITRS(g).Compose(cam).
func (b *ShapeBatch) AddGraphics(g *Graphics, cam affine.Transform) error {
	var world affine.Transform
	world.ApplyITRS(g.X, g.Y, g.Rotation, g.ScaleX, g.ScaleY).Compose(cam)
	b.SetTransform(world)
	b.SetAlpha(g.Alpha)

	for i := range g.Commands {
		c := &g.Commands[i]
		a := &c.Args
		var err error
		switch c.Op {
		case OpFillStyle:
			b.SetFillStyle(c.Color, a[0])
		case OpLineStyle:
			b.SetLineStyle(a[0], c.Color, a[1])
		case OpBeginPath:
			b.BeginPath()
		case OpMoveTo:
			b.MoveTo(a[0], a[1])
		case OpLineTo:
			b.LineTo(a[0], a[1])
		case OpArc:
			b.Arc(a[0], a[1], a[2], a[3], a[4], c.Flag)
		case OpClosePath:
			b.ClosePath()
		case OpFillPath:
			err = b.FillPath()
		case OpStrokePath:
			err = b.StrokePath()
		case OpFillRect:
			err = b.AddFillRect(a[0], a[1], a[2], a[3])
		case OpFillTriangle:
			err = b.AddFillTriangle(a[0], a[1], a[2], a[3], a[4], a[5])
		case OpStrokeTriangle:
			err = b.AddStrokeTriangle(a[0], a[1], a[2], a[3], a[4], a[5])
		case OpSave:
			b.Save()
		case OpRestore:
			b.Restore()
		case OpTranslate:
			b.Translate(a[0], a[1])
		case OpScale:
			b.Scale(a[0], a[1])
		case OpRotate:
			b.Rotate(a[0])
		}
		if err != nil {
			return fmt.Errorf("batch: graphics command %d (%s): %w", i, c.Op, err)
		}
	}
	return nil
}
