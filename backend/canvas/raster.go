package canvas

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/vertex"
)

// decoder reads vertex attributes by offset; -1 marks an absent attribute.
type decoder struct {
	stride                     int
	pos, uv, color, alpha, rgb int
	rgbaFloats                 bool
}

func newDecoder(l vertex.Layout) (decoder, error) {
	d := decoder{stride: l.Stride, pos: -1, uv: -1, color: -1, alpha: -1, rgb: -1}
	for _, e := range l.Elements {
		switch e.Name {
		case vertex.AttrPosition:
			d.pos = e.Offset
		case vertex.AttrTexCoord:
			d.uv = e.Offset
		case vertex.AttrColor:
			if e.Format != vertex.FormatUnorm8x4 {
				return d, fmt.Errorf("attribute %s must be %s, got %s", e.Name, vertex.FormatUnorm8x4, e.Format)
			}
			d.color = e.Offset
		case vertex.AttrAlpha:
			d.alpha = e.Offset
		case vertex.AttrRGBA:
			d.rgb = e.Offset
			d.rgbaFloats = true
		}
	}
	if d.pos < 0 {
		return d, fmt.Errorf("layout has no %s attribute", vertex.AttrPosition)
	}
	return d, nil
}

// point is a decoded vertex in target pixels with its premultiplied tint.
type point struct {
	x, y float64
	u, v float64
	tint [4]float64
}

func readFloat(buf []byte, off int) float64 {
	return float64(math.Float32frombits(binary.LittleEndian.Uint32(buf[off:])))
}

// decode reads vertex i of buf and maps it through view into a
// width x height target.
func (d *decoder) decode(buf []byte, i int, view *[16]float32, width, height int) (point, error) {
	base := i * d.stride
	if i < 0 || base+d.stride > len(buf) {
		return point{}, fmt.Errorf("canvas: vertex %d outside buffer of %d bytes", i, len(buf))
	}
	x, y := readFloat(buf, base+d.pos), readFloat(buf, base+d.pos+4)
	// clip = view * (x, y, 1, 1), column-major.
	m := view
	cx := float64(m[0])*x + float64(m[4])*y + float64(m[8]) + float64(m[12])
	cy := float64(m[1])*x + float64(m[5])*y + float64(m[9]) + float64(m[13])
	cw := float64(m[3])*x + float64(m[7])*y + float64(m[11]) + float64(m[15])
	if cw == 0 {
		cw = 1
	}
	p := point{
		x:    (cx/cw + 1) / 2 * float64(width),
		y:    (1 - cy/cw) / 2 * float64(height),
		tint: [4]float64{1, 1, 1, 1},
	}
	if d.uv >= 0 {
		p.u, p.v = readFloat(buf, base+d.uv), readFloat(buf, base+d.uv+4)
	}
	r, g, bl, a := 1.0, 1.0, 1.0, 1.0
	if d.color >= 0 {
		c := buf[base+d.color : base+d.color+4]
		r, g, bl = float64(c[0])/255, float64(c[1])/255, float64(c[2])/255
	}
	if d.alpha >= 0 {
		a = readFloat(buf, base+d.alpha)
	}
	if d.rgbaFloats {
		r, g, bl = readFloat(buf, base+d.rgb), readFloat(buf, base+d.rgb+4), readFloat(buf, base+d.rgb+8)
		a = readFloat(buf, base+d.rgb+12)
	}
	p.tint = [4]float64{r * a, g * a, bl * a, a}
	return p, nil
}

// Draw implements command.Backend.
func (b *Backend) Draw(cmd *command.DrawCommand) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	job, err := b.prepare(cmd.Shader, cmd.Topology, cmd.VertexBuffer, cmd.Textures, &cmd.Output)
	if err != nil {
		return err
	}
	var tri [3]point
	for i := 0; i+2 < cmd.VertexCount; i += 3 {
		for k := range tri {
			if tri[k], err = job.vertex(cmd.FirstVertex + i + k); err != nil {
				return err
			}
		}
		b.triangle(job, &tri)
	}
	return nil
}

// DrawIndexed implements command.Backend.
func (b *Backend) DrawIndexed(cmd *command.DrawIndexedCommand) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	ib, ok := b.buffers[cmd.IndexBuffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", command.ErrUnknownResource, cmd.IndexBuffer)
	}
	job, err := b.prepare(cmd.Shader, cmd.Topology, cmd.VertexBuffer, cmd.Textures, &cmd.Output)
	if err != nil {
		return err
	}
	size := cmd.IndexFormat.Size()
	if (cmd.FirstIndex+cmd.IndexCount)*size > len(ib) {
		return fmt.Errorf("canvas: draw reads past index buffer %d", cmd.IndexBuffer)
	}
	var tri [3]point
	for i := 0; i+2 < cmd.IndexCount; i += 3 {
		for k := range tri {
			off := (cmd.FirstIndex + i + k) * size
			var idx int
			if size == 2 {
				idx = int(binary.LittleEndian.Uint16(ib[off:]))
			} else {
				idx = int(binary.LittleEndian.Uint32(ib[off:]))
			}
			if tri[k], err = job.vertex(cmd.BaseVertex + idx); err != nil {
				return err
			}
		}
		b.triangle(job, &tri)
	}
	return nil
}

// drawJob is everything a draw's triangles share.
type drawJob struct {
	shader *shader
	vbuf   []byte
	tex    *texture
	dst    *image.RGBA
	clip   image.Rectangle
	blend  command.BlendState
}

func (j *drawJob) vertex(i int) (point, error) {
	r := j.dst.Bounds()
	return j.shader.decoder.decode(j.vbuf, i, &j.shader.view, r.Dx(), r.Dy())
}

func (b *Backend) prepare(id command.ShaderID, topo command.Topology, vbuf command.BufferID,
	textures command.TextureBindings, out *command.OutputStage) (*drawJob, error) {
	if out.DepthStencil.Enabled() {
		return nil, command.ErrDepthStencilUnsupported
	}
	if topo != command.TopologyTriangleList {
		return nil, fmt.Errorf("canvas: topology %s not supported", topo)
	}
	s, ok := b.shaders[id]
	if !ok {
		return nil, fmt.Errorf("%w: shader %d", command.ErrUnknownResource, id)
	}
	vb, ok := b.buffers[vbuf]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", command.ErrUnknownResource, vbuf)
	}
	dst, err := b.targetImage(out.Target)
	if err != nil {
		return nil, err
	}
	job := &drawJob{shader: s, vbuf: vb, dst: dst, clip: dst.Bounds(), blend: out.Blend}
	if out.ScissorEnabled {
		r := out.Scissor
		job.clip = job.clip.Intersect(image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height))
	}
	if s.desc.Textured {
		tid := textures.Primary()
		t, ok := b.textures[tid]
		if !ok {
			return nil, fmt.Errorf("%w: texture %d", command.ErrUnknownResource, tid)
		}
		if t.target != 0 && t.target == out.Target {
			return nil, ErrSelfSample
		}
		job.tex = t
	}
	return job, nil
}

// triangle rasterizes one triangle.
func (b *Backend) triangle(job *drawJob, tri *[3]point) {
	minX := math.Min(tri[0].x, math.Min(tri[1].x, tri[2].x))
	minY := math.Min(tri[0].y, math.Min(tri[1].y, tri[2].y))
	maxX := math.Max(tri[0].x, math.Max(tri[1].x, tri[2].x))
	maxY := math.Max(tri[0].y, math.Max(tri[1].y, tri[2].y))
	bounds := image.Rect(int(math.Floor(minX)), int(math.Floor(minY)), int(math.Ceil(maxX)), int(math.Ceil(maxY)))
	bounds = bounds.Intersect(job.clip)
	if bounds.Empty() {
		return
	}
	w, h := bounds.Dx(), bounds.Dy()
	ox, oy := float64(bounds.Min.X), float64(bounds.Min.Y)

	// Coverage in bounds-local coordinates.
	b.raster.Reset(w, h)
	b.raster.DrawOp = xdraw.Src
	b.raster.MoveTo(float32(tri[0].x-ox), float32(tri[0].y-oy))
	b.raster.LineTo(float32(tri[1].x-ox), float32(tri[1].y-oy))
	b.raster.LineTo(float32(tri[2].x-ox), float32(tri[2].y-oy))
	b.raster.ClosePath()
	mask := resetAlpha(&b.mask, w, h)
	b.raster.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})
	bary := newBarycentric(tri, ox, oy)
	bary.snap(mask)

	layer := resetRGBA(&b.layer, w, h)
	if job.tex != nil {
		if !b.sample(job.tex, tri, ox, oy, layer) {
			return
		}
		tintLayer(layer, tri, bary)
	} else {
		shadeLayer(layer, tri, bary)
	}
	composite(job.dst, bounds, layer, mask, job.blend)
}

// sample resamples the texture into layer so that each triangle corner
// lands on its UV. It reports false for degenerate UV mappings.
func (b *Backend) sample(t *texture, tri *[3]point, ox, oy float64, layer *image.RGBA) bool {
	tw, th := float64(t.img.Bounds().Dx()), float64(t.img.Bounds().Dy())
	var src, dst [3][2]float64
	for i := range tri {
		src[i] = [2]float64{tri[i].u * tw, tri[i].v * th}
		dst[i] = [2]float64{tri[i].x - ox, tri[i].y - oy}
	}
	s2d, ok := solveAffine(src, dst)
	if !ok {
		return false
	}
	var interp xdraw.Transformer = xdraw.ApproxBiLinear
	if t.filter == command.FilterNearest {
		interp = xdraw.NearestNeighbor
	}
	interp.Transform(layer, s2d, t.img, t.img.Bounds(), xdraw.Src, nil)
	return true
}

// solveAffine returns the affine map taking each src point to its dst
// point.
func solveAffine(src, dst [3][2]float64) (f64.Aff3, bool) {
	s := src
	det := s[0][0]*(s[1][1]-s[2][1]) - s[0][1]*(s[1][0]-s[2][0]) + (s[1][0]*s[2][1] - s[2][0]*s[1][1])
	if math.Abs(det) < 1e-12 {
		return f64.Aff3{}, false
	}
	row := func(d0, d1, d2 float64) (a, b, c float64) {
		a = (d0*(s[1][1]-s[2][1]) - s[0][1]*(d1-d2) + (d1*s[2][1] - d2*s[1][1])) / det
		b = (s[0][0]*(d1-d2) - d0*(s[1][0]-s[2][0]) + (s[1][0]*d2 - s[2][0]*d1)) / det
		c = (s[0][0]*(s[1][1]*d2-s[2][1]*d1) - s[0][1]*(s[1][0]*d2-s[2][0]*d1) + d0*(s[1][0]*s[2][1]-s[2][0]*s[1][1])) / det
		return a, b, c
	}
	a, bb, c := row(dst[0][0], dst[1][0], dst[2][0])
	d, e, f := row(dst[0][1], dst[1][1], dst[2][1])
	return f64.Aff3{a, bb, c, d, e, f}, true
}

// barycentric evaluates barycentric weights of pixel centers.
type barycentric struct {
	x0, y0, x1, y1, x2, y2 float64
	inv                    float64
	sign                   float64
	ok                     bool
}

func newBarycentric(tri *[3]point, ox, oy float64) barycentric {
	bc := barycentric{
		x0: tri[0].x - ox, y0: tri[0].y - oy,
		x1: tri[1].x - ox, y1: tri[1].y - oy,
		x2: tri[2].x - ox, y2: tri[2].y - oy,
	}
	area := (bc.y1-bc.y2)*(bc.x0-bc.x2) + (bc.x2-bc.x1)*(bc.y0-bc.y2)
	if area != 0 {
		bc.inv = 1 / area
		bc.sign = math.Copysign(1, area)
		bc.ok = true
	}
	return bc
}

// edge evaluates the edge function of a->b at (x, y), positive inside.
// On the edge itself only one of two triangles sharing it claims the
// point: the one whose inward gradient points right, or down when
// vertical.
func (bc *barycentric) edge(xa, ya, xb, yb, x, y float64) (inside bool) {
	gx, gy := (ya-yb)*bc.sign, (xb-xa)*bc.sign
	e := ((ya-yb)*(x-xb) + (xb-xa)*(y-yb)) * bc.sign
	if e != 0 {
		return e > 0
	}
	return gx > 0 || (gx == 0 && gy > 0)
}

// covers reports whether the center of pixel (px, py) lies inside the
// triangle.
func (bc *barycentric) covers(px, py int) bool {
	if !bc.ok {
		return false
	}
	x, y := float64(px)+0.5, float64(py)+0.5
	return bc.edge(bc.x1, bc.y1, bc.x2, bc.y2, x, y) &&
		bc.edge(bc.x2, bc.y2, bc.x0, bc.y0, x, y) &&
		bc.edge(bc.x0, bc.y0, bc.x1, bc.y1, x, y)
}

// snap turns partial coverage into all or nothing by pixel-center
// sampling, matching a single-sample GPU rasterizer. Triangles that share
// an edge then paint each pixel along it exactly once.
func (bc *barycentric) snap(mask *image.Alpha) {
	r := mask.Bounds()
	for y := 0; y < r.Dy(); y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+r.Dx()]
		for x, m := range row {
			if m == 0 || m == 0xff {
				continue
			}
			if bc.covers(x, y) {
				row[x] = 0xff
			} else {
				row[x] = 0
			}
		}
	}
}

func (bc *barycentric) at(px, py int) (w0, w1, w2 float64) {
	if !bc.ok {
		return 1, 0, 0
	}
	x, y := float64(px)+0.5, float64(py)+0.5
	w0 = ((bc.y1-bc.y2)*(x-bc.x2) + (bc.x2-bc.x1)*(y-bc.y2)) * bc.inv
	w1 = ((bc.y2-bc.y0)*(x-bc.x2) + (bc.x0-bc.x2)*(y-bc.y2)) * bc.inv
	return w0, w1, 1 - w0 - w1
}

// uniformTint reports whether all three corners share a tint.
func uniformTint(tri *[3]point) bool {
	return tri[0].tint == tri[1].tint && tri[1].tint == tri[2].tint
}

func (bc *barycentric) tint(tri *[3]point, px, py int) [4]float64 {
	w0, w1, w2 := bc.at(px, py)
	var c [4]float64
	for i := range c {
		c[i] = clamp01(w0*tri[0].tint[i] + w1*tri[1].tint[i] + w2*tri[2].tint[i])
	}
	return c
}

// shadeLayer fills layer with the interpolated vertex colors.
func shadeLayer(layer *image.RGBA, tri *[3]point, bc barycentric) {
	if uniformTint(tri) {
		c := tri[0].tint
		fill := color.RGBA{R: unorm(float32(c[0])), G: unorm(float32(c[1])), B: unorm(float32(c[2])), A: unorm(float32(c[3]))}
		xdraw.Draw(layer, layer.Bounds(), image.NewUniform(fill), image.Point{}, xdraw.Src)
		return
	}
	r := layer.Bounds()
	for y := 0; y < r.Dy(); y++ {
		row := layer.Pix[y*layer.Stride:]
		for x := 0; x < r.Dx(); x++ {
			c := bc.tint(tri, x, y)
			p := row[x*4 : x*4+4]
			p[0], p[1], p[2], p[3] = unorm(float32(c[0])), unorm(float32(c[1])), unorm(float32(c[2])), unorm(float32(c[3]))
		}
	}
}

// tintLayer multiplies the sampled texels by the interpolated tint.
func tintLayer(layer *image.RGBA, tri *[3]point, bc barycentric) {
	if uniformTint(tri) && tri[0].tint == [4]float64{1, 1, 1, 1} {
		return
	}
	r := layer.Bounds()
	for y := 0; y < r.Dy(); y++ {
		row := layer.Pix[y*layer.Stride:]
		for x := 0; x < r.Dx(); x++ {
			c := bc.tint(tri, x, y)
			p := row[x*4 : x*4+4]
			for i := range 4 {
				p[i] = uint8(float64(p[i])*c[i] + 0.5)
			}
		}
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// resetRGBA resizes img to w x h at the origin and clears it, reusing its
// pixel storage.
func resetRGBA(img *image.RGBA, w, h int) *image.RGBA {
	n := w * h * 4
	if cap(img.Pix) < n {
		img.Pix = make([]uint8, n)
	}
	img.Pix = img.Pix[:n]
	clear(img.Pix)
	img.Stride = w * 4
	img.Rect = image.Rect(0, 0, w, h)
	return img
}

// resetAlpha is resetRGBA for a coverage mask.
func resetAlpha(img *image.Alpha, w, h int) *image.Alpha {
	n := w * h
	if cap(img.Pix) < n {
		img.Pix = make([]uint8, n)
	}
	img.Pix = img.Pix[:n]
	clear(img.Pix)
	img.Stride = w
	img.Rect = image.Rect(0, 0, w, h)
	return img
}
