package command

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// CallOp identifies a recorded backend call.
type CallOp uint8

const (
	OpBeginFrame CallOp = iota
	OpWriteBuffer
	OpSetUniform
	OpClear
	OpDraw
	OpDrawIndexed
	OpEndFrame
)

var callOpNames = [...]string{
	OpBeginFrame:  "BeginFrame",
	OpWriteBuffer: "WriteBuffer",
	OpSetUniform:  "SetUniform",
	OpClear:       "Clear",
	OpDraw:        "Draw",
	OpDrawIndexed: "DrawIndexed",
	OpEndFrame:    "EndFrame",
}

// String returns the operation name.
func (o CallOp) String() string {
	if int(o) < len(callOpNames) {
		return callOpNames[o]
	}
	return "Unknown"
}

// Call is one recorded backend call.
type Call struct {
	Op          CallOp
	Shader      ShaderID
	Buffer      BufferID
	Target      TargetID
	Textures    TextureBindings
	Blend       BlendState
	Count       int // vertices or indices drawn, bytes written
	Uniform     [16]float32
	UniformName string
	// Vertices holds the vertex bytes referenced by a draw, captured when
	// the draw executed.
	Vertices []byte
	// Stride is the vertex stride of the draw's shader.
	Stride int
}

// VertexCount returns the number of vertices captured for a draw.
func (c Call) VertexCount() int {
	if c.Stride == 0 {
		return 0
	}
	return len(c.Vertices) / c.Stride
}

type recordedBuffer struct {
	desc BufferDesc
	data []byte
}

type recordedTarget struct {
	desc    TargetDesc
	texture TextureID
	status  FramebufferStatus
}

// Recorder is an in-memory Backend that records every execution call. It
// keeps buffer contents so draws can be inspected as the GPU would see
// them. Used by tests and for command-stream dumps.
type Recorder struct {
	// ShaderErrors makes CreateShader fail for the named shaders.
	ShaderErrors map[string]error

	Calls []Call

	shaders  map[ShaderID]*ShaderDesc
	buffers  map[BufferID]*recordedBuffer
	textures map[TextureID]*TextureDesc
	targets  map[TargetID]*recordedTarget
	nextID   uint32
	inFrame  bool
	closed   bool
	width    int
	height   int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		shaders:  make(map[ShaderID]*ShaderDesc),
		buffers:  make(map[BufferID]*recordedBuffer),
		textures: make(map[TextureID]*TextureDesc),
		targets:  make(map[TargetID]*recordedTarget),
	}
}

var _ Backend = (*Recorder)(nil)

func (r *Recorder) id() uint32 {
	r.nextID++
	return r.nextID
}

// Name implements Backend.
func (r *Recorder) Name() string { return "recorder" }

// CreateShader implements Backend.
func (r *Recorder) CreateShader(desc *ShaderDesc) (ShaderID, error) {
	if err, ok := r.ShaderErrors[desc.Name]; ok {
		return 0, &ShaderCompileError{Name: desc.Name, Err: err}
	}
	d := *desc
	id := ShaderID(r.id())
	r.shaders[id] = &d
	return id, nil
}

// DestroyShader implements Backend.
func (r *Recorder) DestroyShader(id ShaderID) { delete(r.shaders, id) }

// CreateBuffer implements Backend.
func (r *Recorder) CreateBuffer(desc BufferDesc) (BufferID, error) {
	if desc.Size <= 0 {
		return 0, fmt.Errorf("command: buffer %q has size %d", desc.Label, desc.Size)
	}
	id := BufferID(r.id())
	r.buffers[id] = &recordedBuffer{desc: desc, data: make([]byte, desc.Size)}
	return id, nil
}

// DestroyBuffer implements Backend.
func (r *Recorder) DestroyBuffer(id BufferID) { delete(r.buffers, id) }

// CreateTexture implements Backend.
func (r *Recorder) CreateTexture(desc *TextureDesc) (TextureID, error) {
	d := *desc
	if d.Image != nil {
		d.Width, d.Height = d.Image.Bounds().Dx(), d.Image.Bounds().Dy()
	}
	id := TextureID(r.id())
	r.textures[id] = &d
	return id, nil
}

// UpdateTexture implements Backend.
func (r *Recorder) UpdateTexture(id TextureID, img *image.RGBA) error {
	t, ok := r.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", ErrUnknownResource, id)
	}
	t.Image = img
	return nil
}

// DestroyTexture implements Backend.
func (r *Recorder) DestroyTexture(id TextureID) { delete(r.textures, id) }

// CreateRenderTarget implements Backend. Zero-sized targets are created
// but report FramebufferIncompleteDimensions.
func (r *Recorder) CreateRenderTarget(desc TargetDesc) (TargetID, TextureID, error) {
	tex, err := r.CreateTexture(&TextureDesc{Label: desc.Label, Width: desc.Width, Height: desc.Height})
	if err != nil {
		return 0, 0, err
	}
	status := FramebufferComplete
	if desc.Width <= 0 || desc.Height <= 0 {
		status = FramebufferIncompleteDimensions
	}
	id := TargetID(r.id())
	r.targets[id] = &recordedTarget{desc: desc, texture: tex, status: status}
	return id, tex, nil
}

// TargetStatus implements Backend.
func (r *Recorder) TargetStatus(id TargetID) FramebufferStatus {
	if id == DefaultTarget {
		return FramebufferComplete
	}
	t, ok := r.targets[id]
	if !ok {
		return FramebufferMissingAttachment
	}
	return t.status
}

// DestroyRenderTarget implements Backend.
func (r *Recorder) DestroyRenderTarget(id TargetID) {
	if t, ok := r.targets[id]; ok {
		delete(r.textures, t.texture)
		delete(r.targets, id)
	}
}

// BeginFrame implements Backend.
func (r *Recorder) BeginFrame(width, height int) error {
	if r.closed {
		return ErrBackendClosed
	}
	r.inFrame = true
	r.width, r.height = width, height
	r.Calls = append(r.Calls, Call{Op: OpBeginFrame, Count: width * height})
	return nil
}

func (r *Recorder) checkFrame() error {
	if r.closed {
		return ErrBackendClosed
	}
	if !r.inFrame {
		return ErrNoFrame
	}
	return nil
}

// WriteBuffer implements Backend.
func (r *Recorder) WriteBuffer(id BufferID, offset int, data []byte) error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	b, ok := r.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > len(b.data) {
		return fmt.Errorf("command: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, b.desc.Label, len(b.data))
	}
	copy(b.data[offset:], data)
	r.Calls = append(r.Calls, Call{Op: OpWriteBuffer, Buffer: id, Count: len(data)})
	return nil
}

// SetUniform implements Backend.
func (r *Recorder) SetUniform(shader ShaderID, name string, value [16]float32) error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	if _, ok := r.shaders[shader]; !ok {
		return fmt.Errorf("%w: shader %d", ErrUnknownResource, shader)
	}
	r.Calls = append(r.Calls, Call{Op: OpSetUniform, Shader: shader, UniformName: name, Uniform: value})
	return nil
}

// Clear implements Backend.
func (r *Recorder) Clear(target TargetID, _ [4]float32) error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	r.Calls = append(r.Calls, Call{Op: OpClear, Target: target})
	return nil
}

func (r *Recorder) checkTextures(t TextureBindings) error {
	for i := 0; i < t.Count; i++ {
		if _, ok := r.textures[t.Units[i]]; !ok {
			return fmt.Errorf("%w: texture %d", ErrUnknownResource, t.Units[i])
		}
	}
	return nil
}

// Draw implements Backend.
func (r *Recorder) Draw(cmd *DrawCommand) error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	sh, ok := r.shaders[cmd.Shader]
	if !ok {
		return fmt.Errorf("%w: shader %d", ErrUnknownResource, cmd.Shader)
	}
	vb, ok := r.buffers[cmd.VertexBuffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, cmd.VertexBuffer)
	}
	if err := r.checkTextures(cmd.Textures); err != nil {
		return err
	}
	stride := sh.Layout.Stride
	start, end := cmd.FirstVertex*stride, (cmd.FirstVertex+cmd.VertexCount)*stride
	if end > len(vb.data) {
		return fmt.Errorf("command: draw reads past vertex buffer %d", cmd.VertexBuffer)
	}
	r.Calls = append(r.Calls, Call{
		Op:       OpDraw,
		Shader:   cmd.Shader,
		Buffer:   cmd.VertexBuffer,
		Target:   cmd.Output.Target,
		Textures: cmd.Textures,
		Blend:    cmd.Output.Blend,
		Count:    cmd.VertexCount,
		Vertices: append([]byte(nil), vb.data[start:end]...),
		Stride:   stride,
	})
	return nil
}

// DrawIndexed implements Backend. The captured vertices span every vertex
// referenced by the drawn indices.
func (r *Recorder) DrawIndexed(cmd *DrawIndexedCommand) error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	sh, ok := r.shaders[cmd.Shader]
	if !ok {
		return fmt.Errorf("%w: shader %d", ErrUnknownResource, cmd.Shader)
	}
	vb, ok := r.buffers[cmd.VertexBuffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, cmd.VertexBuffer)
	}
	ib, ok := r.buffers[cmd.IndexBuffer]
	if !ok {
		return fmt.Errorf("%w: buffer %d", ErrUnknownResource, cmd.IndexBuffer)
	}
	if err := r.checkTextures(cmd.Textures); err != nil {
		return err
	}
	size := cmd.IndexFormat.Size()
	maxIndex := -1
	for i := cmd.FirstIndex; i < cmd.FirstIndex+cmd.IndexCount; i++ {
		off := i * size
		if off+size > len(ib.data) {
			return fmt.Errorf("command: draw reads past index buffer %d", cmd.IndexBuffer)
		}
		var v int
		if size == 2 {
			v = int(ib.data[off]) | int(ib.data[off+1])<<8
		} else {
			v = int(ib.data[off]) | int(ib.data[off+1])<<8 | int(ib.data[off+2])<<16 | int(ib.data[off+3])<<24
		}
		if v > maxIndex {
			maxIndex = v
		}
	}
	stride := sh.Layout.Stride
	start, end := cmd.BaseVertex*stride, (cmd.BaseVertex+maxIndex+1)*stride
	if end > len(vb.data) {
		return fmt.Errorf("command: draw reads past vertex buffer %d", cmd.VertexBuffer)
	}
	r.Calls = append(r.Calls, Call{
		Op:       OpDrawIndexed,
		Shader:   cmd.Shader,
		Buffer:   cmd.VertexBuffer,
		Target:   cmd.Output.Target,
		Textures: cmd.Textures,
		Blend:    cmd.Output.Blend,
		Count:    cmd.IndexCount,
		Vertices: append([]byte(nil), vb.data[start:end]...),
		Stride:   stride,
	})
	return nil
}

// EndFrame implements Backend.
func (r *Recorder) EndFrame() error {
	if err := r.checkFrame(); err != nil {
		return err
	}
	r.inFrame = false
	r.Calls = append(r.Calls, Call{Op: OpEndFrame})
	return nil
}

// Snapshot implements Backend. The recorder does not rasterize; it returns
// a transparent image of the target's size.
func (r *Recorder) Snapshot(target TargetID) (*image.RGBA, error) {
	w, h := r.width, r.height
	if target != DefaultTarget {
		t, ok := r.targets[target]
		if !ok {
			return nil, fmt.Errorf("%w: target %d", ErrUnknownResource, target)
		}
		w, h = t.desc.Width, t.desc.Height
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)
	return img, nil
}

// Close implements Backend.
func (r *Recorder) Close() error {
	r.closed = true
	return nil
}

// Shader returns the description a shader was created with.
func (r *Recorder) Shader(id ShaderID) (*ShaderDesc, bool) {
	d, ok := r.shaders[id]
	return d, ok
}

// Texture returns the description of a live texture.
func (r *Recorder) Texture(id TextureID) (*TextureDesc, bool) {
	d, ok := r.textures[id]
	return d, ok
}

// BufferData returns the current contents of a buffer.
func (r *Recorder) BufferData(id BufferID) []byte {
	if b, ok := r.buffers[id]; ok {
		return b.data
	}
	return nil
}

// Draws returns the recorded Draw and DrawIndexed calls in order.
func (r *Recorder) Draws() []Call {
	var out []Call
	for _, c := range r.Calls {
		if c.Op == OpDraw || c.Op == OpDrawIndexed {
			out = append(out, c)
		}
	}
	return out
}

// Live returns the number of live shaders, buffers, textures and targets.
func (r *Recorder) Live() (shaders, buffers, textures, targets int) {
	return len(r.shaders), len(r.buffers), len(r.textures), len(r.targets)
}

// Reset drops the recorded calls.
func (r *Recorder) Reset() { r.Calls = r.Calls[:0] }
