package batch2d

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"

	"github.com/gogpu/batch2d/backend/canvas"
	"github.com/gogpu/batch2d/batch"
	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/internal/logging"
	"github.com/gogpu/batch2d/vertex"
)

// Renderer draws frames of primitives through a batch.Manager into a
// command.Backend.
//
// A Renderer owns its backend and closes it in Destroy. It is not safe for
// concurrent use; drive it from one render goroutine.
type Renderer struct {
	backend command.Backend
	list    *command.List
	manager *batch.Manager
	blends  *command.BlendTable
	logger  *slog.Logger
	opts    options

	width, height int
	resolution    float64
	background    [4]float32

	textures map[*batch.Texture]*textureSource
	targets  map[*RenderTarget]struct{}

	snapshot   func(*image.RGBA, error)
	onLost     []func()
	onRestored []func()
	lost       bool
	destroyed  bool
	frames     uint64
}

// NewRenderer creates a Renderer on backend and takes ownership of it.
func NewRenderer(backend command.Backend, opts ...Option) (*Renderer, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	o := buildOptions(opts)
	if o.width <= 0 || o.height <= 0 {
		return nil, fmt.Errorf("batch2d: invalid size %dx%d", o.width, o.height)
	}
	if o.resolution <= 0 {
		o.resolution = 1
	}
	r := &Renderer{
		backend:    backend,
		list:       command.NewList(),
		blends:     command.NewBlendTable(),
		logger:     logging.Or(o.logger),
		opts:       o,
		width:      o.width,
		height:     o.height,
		resolution: o.resolution,
		textures:   make(map[*batch.Texture]*textureSource),
		targets:    make(map[*RenderTarget]struct{}),
	}
	r.SetBackgroundColor(o.background, o.backgroundAlpha)
	if err := r.init(); err != nil {
		return nil, err
	}
	r.logger.Debug("batch2d: renderer created",
		"backend", backend.Name(), "width", o.width, "height", o.height, "resolution", o.resolution)
	return r, nil
}

// NewCanvasRenderer creates a Renderer on a software canvas backend.
func NewCanvasRenderer(opts ...Option) (*Renderer, error) {
	o := buildOptions(opts)
	res := o.resolution
	if res <= 0 {
		res = 1
	}
	w, h := surfaceSize(o.width, o.height, res)
	return NewRenderer(canvas.New(w, h, o.logger), opts...)
}

// init builds the manager and pushes the projection.
func (r *Renderer) init() error {
	cfg := r.opts.batch
	cfg.Blends = r.blends
	if cfg.Logger == nil {
		cfg.Logger = r.logger
	}
	m, err := batch.NewManager(r.backend, r.list, cfg)
	if err != nil {
		return err
	}
	if err := m.Resize(r.width, r.height, r.resolution); err != nil {
		m.Destroy()
		return err
	}
	r.manager = m
	return nil
}

func surfaceSize(width, height int, resolution float64) (int, int) {
	return int(math.Round(float64(width) * resolution)), int(math.Round(float64(height) * resolution))
}

// Backend returns the backend the renderer draws with.
func (r *Renderer) Backend() command.Backend { return r.backend }

// Manager returns the batch manager, or nil while the context is lost.
func (r *Renderer) Manager() *batch.Manager { return r.manager }

// Size returns the logical surface size.
func (r *Renderer) Size() (width, height int) { return r.width, r.height }

// Resolution returns the ratio of backend pixels to logical pixels.
func (r *Renderer) Resolution() float64 { return r.resolution }

// SurfaceSize returns the backend surface size in pixels.
func (r *Renderer) SurfaceSize() (width, height int) {
	return surfaceSize(r.width, r.height, r.resolution)
}

// Frames returns the number of frames rendered.
func (r *Renderer) Frames() uint64 { return r.frames }

// Stats returns the manager counters for the last frame.
func (r *Renderer) Stats() batch.Stats {
	if r.manager == nil {
		return batch.Stats{}
	}
	return r.manager.Stats()
}

// Resize changes the logical size and resolution. The new projection is
// applied from the next frame.
func (r *Renderer) Resize(width, height int, resolution float64) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("batch2d: invalid size %dx%d", width, height)
	}
	if resolution <= 0 {
		resolution = 1
	}
	r.width, r.height, r.resolution = width, height, resolution
	if r.manager == nil {
		return nil
	}
	r.logger.Debug("batch2d: resize", "width", width, "height", height, "resolution", resolution)
	return r.manager.Resize(width, height, resolution)
}

// SetBackgroundColor sets the frame clear color as 0xRRGGBB and alpha.
func (r *Renderer) SetBackgroundColor(rgb uint32, alpha float64) {
	cr, cg, cb := vertex.RGBFloats(rgb)
	a := float32(max(0, min(1, alpha)))
	r.background = [4]float32{cr * a, cg * a, cb * a, a}
}

// Snapshot requests a copy of the surface after the next rendered frame.
// cb runs once, on the render goroutine, at the end of that frame. A later
// request replaces an earlier one that has not run yet.
func (r *Renderer) Snapshot(cb func(*image.RGBA, error)) {
	r.snapshot = cb
}

// Render draws objects through cam into the backend surface. A nil camera
// covers the whole surface. Frames are skipped while the context is lost.
func (r *Renderer) Render(objects []batch.Primitive, cam *batch.Camera) error {
	return r.RenderTo(nil, objects, cam)
}

// RenderTo is Render into a render target. A nil target is the surface.
// Snapshot requests are served only by frames drawn to the surface.
func (r *Renderer) RenderTo(target *RenderTarget, objects []batch.Primitive, cam *batch.Camera) error {
	if r.destroyed {
		return ErrDestroyed
	}
	if r.lost {
		return nil
	}
	w, h := r.SurfaceSize()
	if err := r.backend.BeginFrame(w, h); err != nil {
		return fmt.Errorf("batch2d: begin frame: %w", err)
	}
	r.manager.ResetStats()
	err := r.drawFrame(target, objects, cam)
	if err != nil {
		r.discard()
	}
	if endErr := r.backend.EndFrame(); err == nil && endErr != nil {
		err = fmt.Errorf("batch2d: end frame: %w", endErr)
	}
	r.frames++
	if target == nil && r.snapshot != nil {
		cb := r.snapshot
		r.snapshot = nil
		if err != nil {
			cb(nil, err)
		} else {
			cb(r.backend.Snapshot(command.DefaultTarget))
		}
	}
	return err
}

func (r *Renderer) drawFrame(target *RenderTarget, objects []batch.Primitive, cam *batch.Camera) error {
	m := r.manager
	id := command.DefaultTarget
	if target != nil {
		if _, ok := r.targets[target]; !ok {
			return fmt.Errorf("%w: render target", ErrForeignTexture)
		}
		id = target.ID
	}
	if err := m.SetRenderTarget(id); err != nil {
		return err
	}
	if r.opts.clearBeforeRender && !m.State().TargetIncomplete() {
		r.list.AppendClear(command.ClearCommand{Target: id, Color: r.background})
	}
	if err := m.SetBlendMode(command.BlendModeNormal); err != nil {
		return err
	}

	if cam != nil && !cam.CoversSurface(r.width, r.height) {
		v := cam.Viewport()
		res := r.resolution
		scissor := command.Rect{
			X:      int(math.Round(float64(v.X) * res)),
			Y:      int(math.Round(float64(v.Y) * res)),
			Width:  int(math.Round(float64(v.Width) * res)),
			Height: int(math.Round(float64(v.Height) * res)),
		}
		if err := m.SetScissor(scissor, true); err != nil {
			return err
		}
	}

	if cam != nil && cam.BackgroundAlpha > 0 {
		bg := &batch.Rect{X: cam.X, Y: cam.Y, Width: cam.Width, Height: cam.Height,
			Color: cam.BackgroundColor, Alpha: cam.BackgroundAlpha}
		if err := m.Add(bg, nil); err != nil {
			return err
		}
	}

	for i, o := range objects {
		if err := m.Add(o, cam); err != nil {
			return fmt.Errorf("batch2d: object %d: %w", i, err)
		}
	}
	if err := m.Flush(); err != nil {
		return err
	}

	if cam != nil {
		for _, fx := range [...]struct {
			color uint32
			alpha float64
		}{{cam.FadeColor, cam.FadeAlpha}, {cam.FlashColor, cam.FlashAlpha}} {
			if fx.alpha <= 0 {
				continue
			}
			q := &batch.Rect{X: cam.X, Y: cam.Y, Width: cam.Width, Height: cam.Height,
				Color: fx.color, Alpha: fx.alpha}
			if err := m.Add(q, nil); err != nil {
				return err
			}
		}
		if err := m.Flush(); err != nil {
			return err
		}
	}

	if err := m.SetScissor(command.Rect{}, false); err != nil {
		return err
	}
	if err := m.Dispatch(); err != nil {
		return err
	}
	st := m.Stats()
	r.logger.Debug("batch2d: frame",
		"frame", r.frames, "objects", len(objects), "draws", st.DrawCalls, "skipped", st.Skipped)
	return nil
}

// discard drops the work of a failed frame.
func (r *Renderer) discard() {
	if err := r.manager.Discard(); err != nil {
		r.logger.Warn("batch2d: discard frame", "err", err)
	}
}

// AddBlendMode registers a custom blend state and returns its mode.
func (r *Renderer) AddBlendMode(s command.BlendState) command.BlendMode {
	return r.blends.Add(s)
}

// UpdateBlendMode replaces the state of mode.
func (r *Renderer) UpdateBlendMode(mode command.BlendMode, s command.BlendState) error {
	return r.blends.Update(mode, s)
}

// RemoveBlendMode removes a custom blend mode. Built-in modes cannot be
// removed.
func (r *Renderer) RemoveBlendMode(mode command.BlendMode) error {
	return r.blends.Remove(mode)
}

// OnContextLost registers fn to run when the device context is lost.
func (r *Renderer) OnContextLost(fn func()) {
	r.onLost = append(r.onLost, fn)
}

// OnContextRestored registers fn to run after the context is restored and
// every texture has been uploaded again.
func (r *Renderer) OnContextRestored(fn func()) {
	r.onRestored = append(r.onRestored, fn)
}

// ContextLost reports whether the renderer is waiting for RestoreContext.
func (r *Renderer) ContextLost() bool { return r.lost }

// LoseContext releases every backend resource the renderer created, as
// happens when a device is lost. Textures become pending and frames are
// skipped until RestoreContext.
func (r *Renderer) LoseContext() {
	if r.lost || r.destroyed {
		return
	}
	r.logger.Warn("batch2d: device context lost", "backend", r.backend.Name())
	r.manager.Destroy()
	r.manager = nil
	for t := range r.textures {
		if t.Ready() {
			r.backend.DestroyTexture(t.ID())
		}
		t.Invalidate()
	}
	for rt := range r.targets {
		r.backend.DestroyRenderTarget(rt.ID)
		rt.ID = 0
		rt.Texture.Invalidate()
	}
	r.lost = true
	for _, fn := range r.onLost {
		fn()
	}
}

// RestoreContext recreates the batches, render targets and textures after
// LoseContext and then runs the OnContextRestored callbacks.
func (r *Renderer) RestoreContext() error {
	if r.destroyed {
		return ErrDestroyed
	}
	if !r.lost {
		return nil
	}
	if err := r.init(); err != nil {
		return fmt.Errorf("batch2d: restore context: %w", err)
	}
	var errs []error
	for rt := range r.targets {
		if err := r.createTarget(rt); err != nil {
			errs = append(errs, err)
		}
	}
	for t, src := range r.textures {
		if src.img == nil {
			continue
		}
		if err := r.upload(t, src); err != nil {
			errs = append(errs, err)
		}
	}
	r.lost = false
	r.logger.Info("batch2d: device context restored",
		"textures", len(r.textures), "targets", len(r.targets))
	for _, fn := range r.onRestored {
		fn()
	}
	return errors.Join(errs...)
}

// Destroy releases every resource and closes the backend. The renderer is
// unusable afterwards.
func (r *Renderer) Destroy() {
	if r.destroyed {
		return
	}
	if r.manager != nil {
		r.manager.Destroy()
		r.manager = nil
	}
	for t := range r.textures {
		if t.Ready() {
			r.backend.DestroyTexture(t.ID())
		}
		t.Invalidate()
	}
	clear(r.textures)
	for rt := range r.targets {
		r.backend.DestroyRenderTarget(rt.ID)
		rt.Texture.Invalidate()
	}
	clear(r.targets)
	if err := r.backend.Close(); err != nil {
		r.logger.Warn("batch2d: close backend", "err", err)
	}
	r.destroyed = true
}
