package batch

import (
	"fmt"
	"log/slog"

	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/vertex"
)

// pipe is the emission context the manager shares with its batches. Only
// the manager writes state; batches read it when they flush.
type pipe struct {
	backend command.Backend
	list    *command.List
	state   *StateCache
	blends  *command.BlendTable
	stats   *Stats
	logger  *slog.Logger
}

func (p *pipe) output() command.OutputStage {
	return command.OutputStage{
		Target:         p.state.Target,
		Blend:          p.state.BlendState,
		Scissor:        p.state.Scissor,
		ScissorEnabled: p.state.ScissorEnabled,
	}
}

// suppressed reports whether draws must be dropped because the current
// target is incomplete.
func (p *pipe) suppressed() bool {
	if p.state.targetIncomplete {
		p.stats.Suppressed++
		return true
	}
	return false
}

// base holds what every batch owns: a shader, a vertex buffer and its CPU
// staging copy.
type base struct {
	kind     Kind
	p        *pipe
	name     string
	shader   command.ShaderID
	vbuf     command.BufferID
	layout   vertex.Layout
	textured bool
	vertices *vertex.LinearBuffer32
	// count is indices for indexed draws and vertices otherwise.
	count   int
	scratch affine.Transform
}

func newBase(p *pipe, kind Kind, source string, layout vertex.Layout, textured bool, maxVertices int) (base, error) {
	name := kind.String()
	if maxVertices <= 0 {
		return base{}, fmt.Errorf("%w: %s batch", ErrZeroCapacity, name)
	}
	shader, err := p.backend.CreateShader(&command.ShaderDesc{
		Name:     name,
		Source:   source,
		Layout:   layout,
		Textured: textured,
	})
	if err != nil {
		return base{}, err
	}
	vbuf, err := p.backend.CreateBuffer(command.BufferDesc{
		Label: name + " vertices",
		Size:  maxVertices * layout.Stride,
		Usage: command.BufferUsageVertex,
	})
	if err != nil {
		p.backend.DestroyShader(shader)
		return base{}, fmt.Errorf("batch: create %s vertex buffer: %w", name, err)
	}
	return base{
		kind:     kind,
		p:        p,
		name:     name,
		shader:   shader,
		vbuf:     vbuf,
		layout:   layout,
		textured: textured,
		vertices: vertex.NewLinearBuffer32(maxVertices * layout.Floats()),
	}, nil
}

// Kind implements Batch.
func (b *base) Kind() Kind { return b.kind }

// IsFull implements Batch.
func (b *base) IsFull() bool { return b.vertices.IsFull() }

// Count implements Batch.
func (b *base) Count() int { return b.count }

// UsedFloats returns the number of staged 32-bit words.
func (b *base) UsedFloats() int { return b.vertices.Len() }

// Shader returns the batch's shader handle.
func (b *base) Shader() command.ShaderID { return b.shader }

// MaxVertices returns the vertex capacity.
func (b *base) MaxVertices() int { return b.vertices.Cap() / b.layout.Floats() }

// Destroy implements Batch.
func (b *base) Destroy() {
	if b.vbuf != 0 {
		b.p.backend.DestroyBuffer(b.vbuf)
		b.vbuf = 0
	}
	if b.shader != 0 {
		b.p.backend.DestroyShader(b.shader)
		b.shader = 0
	}
	b.reset()
}

// discard drops staged vertices.
func (b *base) discard() { b.reset() }

func (b *base) reset() {
	b.vertices.Clear()
	b.count = 0
}

func (b *base) bindings() (command.TextureBindings, error) {
	if !b.textured {
		return command.TextureBindings{}, nil
	}
	if b.p.state.Texture == 0 {
		return command.TextureBindings{}, fmt.Errorf("%w (%s batch)", ErrNoTexture, b.name)
	}
	return command.Bind(b.p.state.Texture), nil
}

// flushArrays emits the staged vertices as a non-indexed triangle list.
func (b *base) flushArrays() error {
	if b.count == 0 {
		return nil
	}
	b.p.stats.Flushes++
	defer b.reset()
	if b.p.suppressed() {
		return nil
	}
	tex, err := b.bindings()
	if err != nil {
		return err
	}
	b.p.list.UpdateBuffer(b.vbuf, 0, b.vertices.UsedBytes())
	b.p.list.AppendDraw(command.DrawCommand{
		Shader:       b.shader,
		Topology:     command.TopologyTriangleList,
		VertexBuffer: b.vbuf,
		VertexCount:  b.count,
		Textures:     tex,
		Output:       b.p.output(),
	})
	b.p.stats.recordDraw(b.kind)
	return nil
}

// quadBase is a base whose quads are drawn through a shared index pattern.
type quadBase struct {
	base
	ibuf     command.BufferID
	pattern  *vertex.IndexPattern
	uploaded bool
	maxQuads int
}

func newQuadBase(p *pipe, kind Kind, source string, layout vertex.Layout, textured bool, quads int) (quadBase, error) {
	if quads <= 0 {
		return quadBase{}, fmt.Errorf("%w: %s batch", ErrZeroCapacity, kind)
	}
	if quads*vertex.VerticesPerQuad > vertex.MaxIndexedVertices {
		return quadBase{}, fmt.Errorf("%w: %d %s quads, max %d",
			ErrCapacityTooLarge, quads, kind, vertex.MaxPrimitives(vertex.VerticesPerQuad))
	}
	pattern, err := vertex.NewQuadIndexPattern(quads)
	if err != nil {
		return quadBase{}, err
	}
	b, err := newBase(p, kind, source, layout, textured, quads*vertex.VerticesPerQuad)
	if err != nil {
		return quadBase{}, err
	}
	ibuf, err := p.backend.CreateBuffer(command.BufferDesc{
		Label: kind.String() + " indices",
		Size:  len(pattern.Bytes()),
		Usage: command.BufferUsageIndex,
	})
	if err != nil {
		b.Destroy()
		return quadBase{}, fmt.Errorf("batch: create %s index buffer: %w", kind, err)
	}
	return quadBase{base: b, ibuf: ibuf, pattern: pattern, maxQuads: quads}, nil
}

// MaxQuads returns the quad capacity.
func (q *quadBase) MaxQuads() int { return q.maxQuads }

// Destroy implements Batch.
func (q *quadBase) Destroy() {
	if q.ibuf != 0 {
		q.p.backend.DestroyBuffer(q.ibuf)
		q.ibuf = 0
	}
	q.base.Destroy()
}

// Flush implements Batch.
func (q *quadBase) Flush() error { return q.flushElements() }

// discard drops staged quads and queues the index pattern again.
func (q *quadBase) discard() {
	q.reset()
	q.uploaded = false
}

// requeue uploads the index pattern again with the next flush.
func (q *quadBase) requeue() { q.uploaded = false }

// reserveQuads makes room for n quads, flushing when they do not fit.
func (q *quadBase) reserveQuads(n int) error {
	if n > q.maxQuads {
		return fmt.Errorf("%w: %d quads into a %d quad %s batch", ErrPrimitiveTooLarge, n, q.maxQuads, q.kind)
	}
	if !q.vertices.Fits(n * vertex.VerticesPerQuad * q.layout.Floats()) {
		return q.flushElements()
	}
	return nil
}

func (q *quadBase) flushElements() error {
	if q.count == 0 {
		return nil
	}
	q.p.stats.Flushes++
	defer q.reset()
	if q.p.suppressed() {
		return nil
	}
	tex, err := q.bindings()
	if err != nil {
		return err
	}
	if !q.uploaded {
		q.p.list.UpdateBuffer(q.ibuf, 0, q.pattern.Bytes())
		q.uploaded = true
	}
	q.p.list.UpdateBuffer(q.vbuf, 0, q.vertices.UsedBytes())
	q.p.list.AppendDrawIndexed(command.DrawIndexedCommand{
		Shader:       q.shader,
		Topology:     command.TopologyTriangleList,
		VertexBuffer: q.vbuf,
		IndexBuffer:  q.ibuf,
		IndexFormat:  command.IndexFormatUint16,
		IndexCount:   q.count,
		Textures:     tex,
		Output:       q.p.output(),
	})
	q.p.stats.recordDraw(q.kind)
	return nil
}

// writeTexturedQuad appends one quad in the sprite layout. c holds the
// corners in TransformQuad order.
func (q *quadBase) writeTexturedQuad(c [8]float64, u0, v0, u1, v1 float32, color uint32, alpha float32) {
	buf := q.vertices
	off := buf.Allocate(vertex.VerticesPerQuad * vertex.SpriteFloats)
	writeSpriteVertex(buf, off, c[0], c[1], u0, v0, color, alpha)
	writeSpriteVertex(buf, off+vertex.SpriteFloats, c[2], c[3], u0, v1, color, alpha)
	writeSpriteVertex(buf, off+2*vertex.SpriteFloats, c[4], c[5], u1, v1, color, alpha)
	writeSpriteVertex(buf, off+3*vertex.SpriteFloats, c[6], c[7], u1, v0, color, alpha)
	q.count += vertex.IndicesPerQuad
}

func writeSpriteVertex(buf *vertex.LinearBuffer32, off int, x, y float64, u, v float32, color uint32, alpha float32) {
	buf.SetFloat32(off, float32(x))
	buf.SetFloat32(off+1, float32(y))
	buf.SetFloat32(off+2, u)
	buf.SetFloat32(off+3, v)
	buf.SetUint32(off+4, color)
	buf.SetFloat32(off+5, alpha)
}
