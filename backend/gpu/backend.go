//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/internal/logging"
	"github.com/gogpu/batch2d/vertex"
)

// surfaceFormat is the color format of every render target.
const surfaceFormat = gputypes.TextureFormatRGBA8Unorm

// uniformSize is one mat4x4<f32>.
const uniformSize = 64

// Options configures a Backend.
type Options struct {
	// Logger receives resource and frame diagnostics. Nil uses the shared
	// logger.
	Logger *slog.Logger

	// SubmitTimeout bounds each wait for the GPU. Zero means 5 seconds.
	SubmitTimeout time.Duration
}

type shaderRes struct {
	name      string
	layout    vertex.Layout
	textured  bool
	module    hal.ShaderModule
	uniform   hal.Buffer
	bindGroup hal.BindGroup
	pipelines map[command.BlendState]hal.RenderPipeline
	// busy is set once a recorded draw uses the uniform buffer.
	busy bool
}

type bufferRes struct {
	label string
	buf   hal.Buffer
	size  int
	usage command.BufferUsage
}

type textureRes struct {
	label     string
	tex       hal.Texture
	view      hal.TextureView
	width     int
	height    int
	filter    command.FilterMode
	wrap      command.WrapMode
	bindGroup hal.BindGroup
	// target is set for textures backing a render target.
	target command.TargetID
}

type targetRes struct {
	texture command.TextureID
	status  command.FramebufferStatus
	// sampled is set while the color texture is in shader-read usage.
	sampled bool
}

type samplerKey struct {
	filter command.FilterMode
	wrap   command.WrapMode
}

// Backend executes command lists on a HAL device.
//
// Backend is not safe for concurrent use.
type Backend struct {
	dev     *Device
	device  hal.Device
	queue   hal.Queue
	logger  *slog.Logger
	timeout time.Duration

	uniformLayout  hal.BindGroupLayout
	textureLayout  hal.BindGroupLayout
	plainLayout    hal.PipelineLayout
	texturedLayout hal.PipelineLayout

	shaders  map[command.ShaderID]*shaderRes
	buffers  map[command.BufferID]*bufferRes
	textures map[command.TextureID]*textureRes
	targets  map[command.TargetID]*targetRes
	samplers map[samplerKey]hal.Sampler
	nextID   uint32

	surface       *textureRes
	width, height int

	frame  *frameState
	closed bool
}

var _ command.Backend = (*Backend)(nil)

// New creates a Backend on dev. The backend does not take ownership of dev
// unless dev was returned by OpenDevice, in which case Close also closes it.
func New(dev *Device, opts Options) (*Backend, error) {
	if dev == nil || dev.Device == nil || dev.Queue == nil {
		return nil, ErrNilDevice
	}
	b := &Backend{
		dev:      dev,
		device:   dev.Device,
		queue:    dev.Queue,
		logger:   logging.Or(opts.Logger),
		timeout:  opts.SubmitTimeout,
		shaders:  make(map[command.ShaderID]*shaderRes),
		buffers:  make(map[command.BufferID]*bufferRes),
		textures: make(map[command.TextureID]*textureRes),
		targets:  make(map[command.TargetID]*targetRes),
		samplers: make(map[samplerKey]hal.Sampler),
	}
	if b.timeout <= 0 {
		b.timeout = 5 * time.Second
	}
	if err := b.createLayouts(); err != nil {
		b.destroyLayouts()
		return nil, err
	}
	b.logger.Debug("gpu: backend ready", "adapter", dev.Name)
	return b, nil
}

func (b *Backend) createLayouts() error {
	var err error
	b.uniformLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "batch_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{{
			Binding:    0,
			Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
			Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
		}},
	})
	if err != nil {
		return fmt.Errorf("gpu: create uniform layout: %w", err)
	}
	b.textureLayout, err = b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "batch_texture_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("gpu: create texture layout: %w", err)
	}
	b.plainLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "batch_plain_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create pipeline layout: %w", err)
	}
	b.texturedLayout, err = b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "batch_textured_pipeline_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.uniformLayout, b.textureLayout},
	})
	if err != nil {
		return fmt.Errorf("gpu: create textured pipeline layout: %w", err)
	}
	return nil
}

func (b *Backend) destroyLayouts() {
	if b.texturedLayout != nil {
		b.device.DestroyPipelineLayout(b.texturedLayout)
		b.texturedLayout = nil
	}
	if b.plainLayout != nil {
		b.device.DestroyPipelineLayout(b.plainLayout)
		b.plainLayout = nil
	}
	if b.textureLayout != nil {
		b.device.DestroyBindGroupLayout(b.textureLayout)
		b.textureLayout = nil
	}
	if b.uniformLayout != nil {
		b.device.DestroyBindGroupLayout(b.uniformLayout)
		b.uniformLayout = nil
	}
}

func (b *Backend) id() uint32 {
	b.nextID++
	return b.nextID
}

// Name implements command.Backend.
func (b *Backend) Name() string { return "gpu" }

// Size returns the default surface size of the current or last frame.
func (b *Backend) Size() (width, height int) { return b.width, b.height }

// CreateShader implements command.Backend. The WGSL source is compiled to
// SPIR-V; a compile failure returns a *command.ShaderCompileError.
func (b *Backend) CreateShader(desc *command.ShaderDesc) (command.ShaderID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	if err := desc.Layout.Validate(); err != nil {
		return 0, &command.ShaderCompileError{Name: desc.Name, Err: err}
	}
	code, err := compileWGSL(desc.Source)
	if err != nil {
		return 0, &command.ShaderCompileError{Name: desc.Name, Err: err}
	}
	module, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  desc.Name + "_shader",
		Source: hal.ShaderSource{SPIRV: code},
	})
	if err != nil {
		return 0, &command.ShaderCompileError{Name: desc.Name, Err: err}
	}
	s := &shaderRes{
		name:      desc.Name,
		layout:    desc.Layout,
		textured:  desc.Textured,
		module:    module,
		pipelines: make(map[command.BlendState]hal.RenderPipeline),
	}
	s.uniform, err = b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Name + "_uniform",
		Size:  uniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		b.destroyShader(s)
		return 0, fmt.Errorf("gpu: create %s uniform buffer: %w", desc.Name, err)
	}
	s.bindGroup, err = b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  desc.Name + "_uniform_bind",
		Layout: b.uniformLayout,
		Entries: []gputypes.BindGroupEntry{{
			Binding:  0,
			Resource: gputypes.BufferBinding{Buffer: s.uniform.NativeHandle(), Offset: 0, Size: uniformSize},
		}},
	})
	if err != nil {
		b.destroyShader(s)
		return 0, fmt.Errorf("gpu: create %s uniform bind group: %w", desc.Name, err)
	}
	id := command.ShaderID(b.id())
	b.shaders[id] = s
	return id, nil
}

func (b *Backend) destroyShader(s *shaderRes) {
	for key, p := range s.pipelines {
		b.device.DestroyRenderPipeline(p)
		delete(s.pipelines, key)
	}
	if s.bindGroup != nil {
		b.device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.uniform != nil {
		b.device.DestroyBuffer(s.uniform)
		s.uniform = nil
	}
	if s.module != nil {
		b.device.DestroyShaderModule(s.module)
		s.module = nil
	}
}

// DestroyShader implements command.Backend.
func (b *Backend) DestroyShader(id command.ShaderID) {
	s, ok := b.shaders[id]
	if !ok {
		return
	}
	b.retire()
	b.destroyShader(s)
	delete(b.shaders, id)
}

// CreateBuffer implements command.Backend.
func (b *Backend) CreateBuffer(desc command.BufferDesc) (command.BufferID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	if desc.Size <= 0 {
		return 0, fmt.Errorf("%w: buffer %q has size %d", ErrInvalidDimensions, desc.Label, desc.Size)
	}
	usage := gputypes.BufferUsageVertex
	if desc.Usage == command.BufferUsageIndex {
		usage = gputypes.BufferUsageIndex
	}
	// Queue writes must be a multiple of 4 bytes.
	size := (desc.Size + 3) &^ 3
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  uint64(size),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return 0, fmt.Errorf("gpu: create buffer %q: %w", desc.Label, err)
	}
	id := command.BufferID(b.id())
	b.buffers[id] = &bufferRes{label: desc.Label, buf: buf, size: size, usage: desc.Usage}
	return id, nil
}

// DestroyBuffer implements command.Backend.
func (b *Backend) DestroyBuffer(id command.BufferID) {
	r, ok := b.buffers[id]
	if !ok {
		return
	}
	b.retire()
	b.device.DestroyBuffer(r.buf)
	delete(b.buffers, id)
}

// CreateTexture implements command.Backend.
func (b *Backend) CreateTexture(desc *command.TextureDesc) (command.TextureID, error) {
	if b.closed {
		return 0, command.ErrBackendClosed
	}
	w, h := desc.Width, desc.Height
	if desc.Image != nil {
		w, h = desc.Image.Bounds().Dx(), desc.Image.Bounds().Dy()
	}
	t, err := b.newTexture(desc.Label, w, h,
		gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopyDst)
	if err != nil {
		return 0, err
	}
	t.filter, t.wrap = desc.Filter, desc.Wrap
	if desc.Image != nil {
		if err := b.writeTexture(t, desc.Image); err != nil {
			b.destroyTexture(t)
			return 0, err
		}
	}
	id := command.TextureID(b.id())
	b.textures[id] = t
	return id, nil
}

func (b *Backend) newTexture(label string, w, h int, usage gputypes.TextureUsage) (*textureRes, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidDimensions, label, w, h)
	}
	tex, err := b.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        surfaceFormat,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create texture %q: %w", label, err)
	}
	view, err := b.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        surfaceFormat,
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		b.device.DestroyTexture(tex)
		return nil, fmt.Errorf("gpu: create texture view %q: %w", label, err)
	}
	return &textureRes{label: label, tex: tex, view: view, width: w, height: h}, nil
}

func (b *Backend) destroyTexture(t *textureRes) {
	if t.bindGroup != nil {
		b.device.DestroyBindGroup(t.bindGroup)
		t.bindGroup = nil
	}
	if t.view != nil {
		b.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		b.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// writeTexture uploads img, which must match the texture size.
func (b *Backend) writeTexture(t *textureRes, img *image.RGBA) error {
	data := tightPixels(img)
	err := b.queue.WriteTexture(
		&hal.ImageCopyTexture{Texture: t.tex, MipLevel: 0},
		data,
		&hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(t.width * 4), RowsPerImage: uint32(t.height)},
		&hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("gpu: write texture %q: %w", t.label, err)
	}
	return nil
}

// tightPixels returns the pixels of img without row padding.
func tightPixels(img *image.RGBA) []byte {
	r := img.Bounds()
	w, h := r.Dx(), r.Dy()
	row := w * 4
	start := img.PixOffset(r.Min.X, r.Min.Y)
	if img.Stride == row {
		return img.Pix[start : start+row*h]
	}
	out := make([]byte, row*h)
	for y := 0; y < h; y++ {
		off := start + y*img.Stride
		copy(out[y*row:], img.Pix[off:off+row])
	}
	return out
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
	if img.Bounds().Dx() != t.width || img.Bounds().Dy() != t.height {
		return fmt.Errorf("%w: image is %dx%d, texture %q is %dx%d", ErrInvalidDimensions,
			img.Bounds().Dx(), img.Bounds().Dy(), t.label, t.width, t.height)
	}
	if b.frame != nil && b.frame.usesTexture(id) {
		if err := b.submitPending(); err != nil {
			return err
		}
	}
	return b.writeTexture(t, img)
}

// DestroyTexture implements command.Backend. Textures backing a render
// target are destroyed with the target.
func (b *Backend) DestroyTexture(id command.TextureID) {
	t, ok := b.textures[id]
	if !ok || t.target != 0 {
		return
	}
	b.retire()
	b.destroyTexture(t)
	delete(b.textures, id)
}

// CreateRenderTarget implements command.Backend. Zero-sized targets are
// created but report FramebufferIncompleteDimensions.
func (b *Backend) CreateRenderTarget(desc command.TargetDesc) (command.TargetID, command.TextureID, error) {
	if b.closed {
		return 0, 0, command.ErrBackendClosed
	}
	id := command.TargetID(b.id())
	if desc.Width <= 0 || desc.Height <= 0 {
		b.targets[id] = &targetRes{status: command.FramebufferIncompleteDimensions}
		return id, 0, nil
	}
	t, err := b.newTexture(desc.Label, desc.Width, desc.Height,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|
			gputypes.TextureUsageCopySrc|gputypes.TextureUsageCopyDst)
	if err != nil {
		return 0, 0, err
	}
	t.target = id
	tex := command.TextureID(b.id())
	b.textures[tex] = t
	b.targets[id] = &targetRes{texture: tex, status: command.FramebufferComplete}
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
	t, ok := b.targets[id]
	if !ok {
		return
	}
	b.retire()
	if tex, ok := b.textures[t.texture]; ok {
		b.destroyTexture(tex)
		delete(b.textures, t.texture)
	}
	delete(b.targets, id)
}

// sampler returns the shared sampler for filter and wrap.
func (b *Backend) sampler(filter command.FilterMode, wrap command.WrapMode) (hal.Sampler, error) {
	key := samplerKey{filter, wrap}
	if s, ok := b.samplers[key]; ok {
		return s, nil
	}
	mode := gputypes.FilterModeLinear
	if filter == command.FilterNearest {
		mode = gputypes.FilterModeNearest
	}
	address := gputypes.AddressModeClampToEdge
	if wrap == command.WrapRepeat {
		address = gputypes.AddressModeRepeat
	}
	s, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "batch_sampler",
		AddressModeU: address,
		AddressModeV: address,
		AddressModeW: address,
		MagFilter:    mode,
		MinFilter:    mode,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create sampler: %w", err)
	}
	b.samplers[key] = s
	return s, nil
}

// textureBindGroup returns the bind group sampling t, creating it on first
// use.
func (b *Backend) textureBindGroup(t *textureRes) (hal.BindGroup, error) {
	if t.bindGroup != nil {
		return t.bindGroup, nil
	}
	s, err := b.sampler(t.filter, t.wrap)
	if err != nil {
		return nil, err
	}
	bg, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  t.label + "_bind",
		Layout: b.textureLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: t.view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: s.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create bind group for %q: %w", t.label, err)
	}
	t.bindGroup = bg
	return bg, nil
}

// ensureSurface sizes the default surface for a frame.
func (b *Backend) ensureSurface(w, h int) error {
	if b.surface != nil && b.surface.width == w && b.surface.height == h {
		return nil
	}
	if b.surface != nil {
		b.destroyTexture(b.surface)
		b.surface = nil
	}
	t, err := b.newTexture("batch_surface", w, h,
		gputypes.TextureUsageRenderAttachment|gputypes.TextureUsageTextureBinding|gputypes.TextureUsageCopySrc)
	if err != nil {
		return err
	}
	b.surface = t
	return nil
}

// Close implements command.Backend. Pending work is discarded and every
// resource is released. Close is idempotent.
func (b *Backend) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	if b.frame != nil {
		b.frame.discard()
		b.frame = nil
	}
	for id, s := range b.shaders {
		b.destroyShader(s)
		delete(b.shaders, id)
	}
	for id, r := range b.buffers {
		b.device.DestroyBuffer(r.buf)
		delete(b.buffers, id)
	}
	for id, t := range b.textures {
		b.destroyTexture(t)
		delete(b.textures, id)
	}
	clear(b.targets)
	for key, s := range b.samplers {
		b.device.DestroySampler(s)
		delete(b.samplers, key)
	}
	if b.surface != nil {
		b.destroyTexture(b.surface)
		b.surface = nil
	}
	b.destroyLayouts()
	if b.dev.Owned() {
		b.dev.Close()
	}
	return nil
}
