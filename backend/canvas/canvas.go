package canvas

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"log/slog"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/internal/logging"
)

// ErrSelfSample is returned for a draw that samples the target it renders
// into.
var ErrSelfSample = errors.New("canvas: draw samples its own render target")

func init() {
	command.Register("canvas", func(cfg command.BackendConfig) (command.Backend, error) {
		return New(cfg.Width, cfg.Height, nil), nil
	})
}

type shader struct {
	desc    command.ShaderDesc
	decoder decoder
	view    [16]float32
}

type texture struct {
	img    *image.RGBA
	filter command.FilterMode
	wrap   command.WrapMode
	target command.TargetID
}

type target struct {
	img     *image.RGBA
	texture command.TextureID
	status  command.FramebufferStatus
}

// Backend rasterizes command lists into images.
//
// Backend is not safe for concurrent use.
type Backend struct {
	logger *slog.Logger

	surface  *image.RGBA
	shaders  map[command.ShaderID]*shader
	buffers  map[command.BufferID][]byte
	textures map[command.TextureID]*texture
	targets  map[command.TargetID]*target
	nextID   uint32

	raster vector.Rasterizer
	mask   image.Alpha
	layer  image.RGBA

	inFrame bool
	closed  bool
}

var _ command.Backend = (*Backend)(nil)

// New returns a Backend whose default surface is width x height. A nil
// logger uses the shared logger.
func New(width, height int, logger *slog.Logger) *Backend {
	return &Backend{
		logger:   logging.Or(logger),
		surface:  image.NewRGBA(image.Rect(0, 0, max(width, 0), max(height, 0))),
		shaders:  make(map[command.ShaderID]*shader),
		buffers:  make(map[command.BufferID][]byte),
		textures: make(map[command.TextureID]*texture),
		targets:  make(map[command.TargetID]*target),
	}
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

// Name implements command.Backend.
func (b *Backend) Name() string { return "canvas" }

// Surface returns the default surface. It is replaced when BeginFrame
// changes the size.
func (b *Backend) Surface() *image.RGBA { return b.surface }

// CreateShader implements command.Backend. The WGSL source is ignored; the
// layout must name a position attribute.
func (b *Backend) CreateShader(desc *command.ShaderDesc) (command.ShaderID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	if err := desc.Layout.Validate(); err != nil {
		return 0, &command.ShaderCompileError{Name: desc.Name, Err: err}
	}
	dec, err := newDecoder(desc.Layout)
	if err != nil {
		return 0, &command.ShaderCompileError{Name: desc.Name, Err: err}
	}
	id := command.ShaderID(b.id())
	b.shaders[id] = &shader{desc: *desc, decoder: dec, view: identity}
	return id, nil
}

// DestroyShader implements command.Backend.
func (b *Backend) DestroyShader(id command.ShaderID) { delete(b.shaders, id) }

// CreateBuffer implements command.Backend.
func (b *Backend) CreateBuffer(desc command.BufferDesc) (command.BufferID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	if desc.Size <= 0 {
		return 0, fmt.Errorf("canvas: buffer %q has size %d", desc.Label, desc.Size)
	}
	id := command.BufferID(b.id())
	b.buffers[id] = make([]byte, desc.Size)
	return id, nil
}

// DestroyBuffer implements command.Backend.
func (b *Backend) DestroyBuffer(id command.BufferID) { delete(b.buffers, id) }

// CreateTexture implements command.Backend. The image is copied.
func (b *Backend) CreateTexture(desc *command.TextureDesc) (command.TextureID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	var img *image.RGBA
	if desc.Image != nil {
		img = cloneRGBA(desc.Image)
	} else {
		if desc.Width <= 0 || desc.Height <= 0 {
			return 0, fmt.Errorf("canvas: texture %q is %dx%d", desc.Label, desc.Width, desc.Height)
		}
		img = image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	}
	id := command.TextureID(b.id())
	b.textures[id] = &texture{img: img, filter: desc.Filter, wrap: desc.Wrap}
	return id, nil
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	r := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	xdraw.Draw(dst, dst.Bounds(), src, r.Min, xdraw.Src)
	return dst
}

// UpdateTexture implements command.Backend.
func (b *Backend) UpdateTexture(id command.TextureID, img *image.RGBA) error {
	if b.closed {
		return command.ErrBackendClosed
	}
	t, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: texture %d", command.ErrUnknownResource, id)
	}
	if t.target != 0 {
		xdraw.Draw(t.img, t.img.Bounds(), img, img.Bounds().Min, xdraw.Src)
		return nil
	}
	t.img = cloneRGBA(img)
	return nil
}

// DestroyTexture implements command.Backend. Textures backing a render
// target are destroyed with the target.
func (b *Backend) DestroyTexture(id command.TextureID) {
	if t, ok := b.textures[id]; ok && t.target == 0 {
		delete(b.textures, id)
	}
}

// CreateRenderTarget implements command.Backend. The target's texture
// shares its pixels. Zero-sized targets are created but report
// FramebufferIncompleteDimensions.
func (b *Backend) CreateRenderTarget(desc command.TargetDesc) (command.TargetID, command.TextureID, error) {
	if b.closed {
		return 0, 0, command.ErrBackendClosed
	}
	id := command.TargetID(b.id())
	if desc.Width <= 0 || desc.Height <= 0 {
		b.targets[id] = &target{status: command.FramebufferIncompleteDimensions}
		return id, 0, nil
	}
	img := image.NewRGBA(image.Rect(0, 0, desc.Width, desc.Height))
	tex := command.TextureID(b.id())
	b.textures[tex] = &texture{img: img, target: id}
	b.targets[id] = &target{img: img, texture: tex, status: command.FramebufferComplete}
	return id, tex, nil
}

// TargetStatus implements command.Backend.
func (b *Backend) TargetStatus(id command.TargetID) command.FramebufferStatus {
	if id == command.DefaultTarget {
		return command.FramebufferComplete
	}
	t, ok := b.targets[id]
	if !ok {
		return command.FramebufferMissingAttachment
	}
	return t.status
}

// DestroyRenderTarget implements command.Backend.
func (b *Backend) DestroyRenderTarget(id command.TargetID) {
	if t, ok := b.targets[id]; ok {
		delete(b.textures, t.texture)
		delete(b.targets, id)
	}
}

func (b *Backend) targetImage(id command.TargetID) (*image.RGBA, error) {
	if id == command.DefaultTarget {
		return b.surface, nil
	}
	t, ok := b.targets[id]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", command.ErrUnknownResource, id)
	}
	if t.status != command.FramebufferComplete {
		return nil, &command.FramebufferError{Target: id, Status: t.status}
	}
	return t.img, nil
}

// BeginFrame implements command.Backend. A size change replaces the
// default surface with a transparent one.
func (b *Backend) BeginFrame(width, height int) error {
	if b.closed {
		return command.ErrBackendClosed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas: invalid frame size %dx%d", width, height)
	}
	if r := b.surface.Bounds(); r.Dx() != width || r.Dy() != height {
		b.surface = image.NewRGBA(image.Rect(0, 0, width, height))
	}
	b.inFrame = true
	return nil
}

func (b *Backend) checkFrame() error {
	if b.closed {
		return command.ErrBackendClosed
	}
	if !b.inFrame {
		return command.ErrNoFrame
	}
	return nil
}

// WriteBuffer implements command.Backend.
func (b *Backend) WriteBuffer(id command.BufferID, offset int, data []byte) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	buf, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", command.ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > len(buf) {
		return fmt.Errorf("canvas: write of %d bytes at %d overflows buffer %d (%d bytes)",
			len(data), offset, id, len(buf))
	}
	copy(buf[offset:], data)
	return nil
}

// SetUniform implements command.Backend. Every built-in shader has one
// matrix uniform, the view matrix.
func (b *Backend) SetUniform(id command.ShaderID, name string, value [16]float32) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	s, ok := b.shaders[id]
	if !ok {
		return fmt.Errorf("%w: shader %d (uniform %s)", command.ErrUnknownResource, id, name)
	}
	s.view = value
	return nil
}

// Clear implements command.Backend. color is premultiplied.
func (b *Backend) Clear(id command.TargetID, c [4]float32) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	img, err := b.targetImage(id)
	if err != nil {
		return err
	}
	fill := color.RGBA{R: unorm(c[0]), G: unorm(c[1]), B: unorm(c[2]), A: unorm(c[3])}
	xdraw.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{}, xdraw.Src)
	return nil
}

// EndFrame implements command.Backend.
func (b *Backend) EndFrame() error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	b.inFrame = false
	return nil
}

// Snapshot implements command.Backend. It returns a copy of the target.
func (b *Backend) Snapshot(id command.TargetID) (*image.RGBA, error) {
	if b.closed {
		return nil, command.ErrBackendClosed
	}
	img, err := b.targetImage(id)
	if err != nil {
		return nil, err
	}
	return cloneRGBA(img), nil
}

// Close implements command.Backend.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	b.inFrame = false
	clear(b.shaders)
	clear(b.buffers)
	clear(b.textures)
	clear(b.targets)
	return nil
}

// Live returns the number of live shaders, buffers, textures and targets.
func (b *Backend) Live() (shaders, buffers, textures, targets int) {
	return len(b.shaders), len(b.buffers), len(b.textures), len(b.targets)
}

// unorm converts [0, 1] to a byte, clamping.
func unorm(v float32) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 1:
		return 255
	default:
		return uint8(v*255 + 0.5)
	}
}

var identity = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
