package batch

import (
	"errors"
	"fmt"

	"github.com/gogpu/batch2d/command"
	"github.com/gogpu/batch2d/internal/logging"
)

// Manager owns one batch per kind and the state cache. It routes each
// primitive to its batch, flushing the active batch whenever the batch,
// texture, blend mode, render target or scissor changes.
//
// A Manager is not safe for concurrent use.
type Manager struct {
	pipe

	state StateCache
	stats Stats

	sprites   *SpriteBatch
	shapes    *ShapeBatch
	particles *ParticleBatch
	glyphs    *GlyphBatch
	quads     *QuadBatch
	batches   [kindCount]Batch
	active    Batch

	width, height int
	resolution    float64
	destroyed     bool
}

// NewManager creates every batch on backend. Commands are appended to list;
// Dispatch drains it. Resources created before a failure are released.
func NewManager(backend command.Backend, list *command.List, cfg Config) (*Manager, error) {
	m := &Manager{resolution: 1}
	m.state.Blend = command.BlendModeNormal
	m.state.BlendState = command.BlendNormal
	blends := cfg.Blends
	if blends == nil {
		blends = command.NewBlendTable()
	}
	m.pipe = pipe{
		backend: backend,
		list:    list,
		state:   &m.state,
		blends:  blends,
		stats:   &m.stats,
		logger:  logging.Or(cfg.Logger),
	}

	var err error
	if m.sprites, err = newSpriteBatch(&m.pipe, cfg.SpriteQuads); err != nil {
		return nil, m.fail(err)
	}
	m.batches[KindSprite] = m.sprites
	if m.shapes, err = newShapeBatch(&m.pipe, cfg.ShapeVertices); err != nil {
		return nil, m.fail(err)
	}
	m.batches[KindShape] = m.shapes
	if m.particles, err = newParticleBatch(&m.pipe, cfg.ParticleQuads); err != nil {
		return nil, m.fail(err)
	}
	m.batches[KindParticle] = m.particles
	if m.glyphs, err = newGlyphBatch(&m.pipe, cfg.GlyphQuads); err != nil {
		return nil, m.fail(err)
	}
	m.batches[KindGlyph] = m.glyphs
	if m.quads, err = newQuadBatch(&m.pipe, cfg.AAQuads); err != nil {
		return nil, m.fail(err)
	}
	m.batches[KindQuad] = m.quads
	return m, nil
}

func (m *Manager) fail(err error) error {
	m.Destroy()
	return fmt.Errorf("batch: create manager: %w", err)
}

// Blends returns the blend table used to resolve blend modes.
func (m *Manager) Blends() *command.BlendTable { return m.blends }

// State returns a copy of the state cache.
func (m *Manager) State() StateCache { return m.state }

// Stats returns the counters accumulated since the last ResetStats.
func (m *Manager) Stats() Stats { return m.stats }

// ResetStats zeroes the counters.
func (m *Manager) ResetStats() { m.stats = Stats{} }

// Sprites returns the sprite batch.
func (m *Manager) Sprites() *SpriteBatch { return m.sprites }

// Shapes returns the shape batch.
func (m *Manager) Shapes() *ShapeBatch { return m.shapes }

// Particles returns the particle batch.
func (m *Manager) Particles() *ParticleBatch { return m.particles }

// Glyphs returns the glyph batch.
func (m *Manager) Glyphs() *GlyphBatch { return m.glyphs }

// Quads returns the AA quad batch.
func (m *Manager) Quads() *QuadBatch { return m.quads }

// Batch returns the batch of kind k, or nil.
func (m *Manager) Batch(k Kind) Batch {
	if k >= kindCount {
		return nil
	}
	return m.batches[k]
}

// Size returns the logical surface size set by the last Resize.
func (m *Manager) Size() (width, height int) { return m.width, m.height }

// Resolution returns the resolution set by the last Resize.
func (m *Manager) Resolution() float64 { return m.resolution }

func (m *Manager) flushActive() error {
	if m.active == nil || m.active.Count() == 0 {
		return nil
	}
	return m.active.Flush()
}

// SetBatch makes the batch of kind k active.
func (m *Manager) SetBatch(k Kind) error {
	if m.state.Batch == k {
		return nil
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.state.Batch = k
	m.active = m.Batch(k)
	m.state.Shader = 0
	if b, ok := m.active.(interface{ Shader() command.ShaderID }); ok {
		m.state.Shader = b.Shader()
	}
	return nil
}

// SetTexture binds id for the following textured draws.
func (m *Manager) SetTexture(id command.TextureID) error {
	if m.state.Texture == id {
		return nil
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.state.Texture = id
	return nil
}

// SetBlendMode selects a blend mode. BlendModeSkipCheck leaves the current
// mode unchanged; unknown modes are logged and replaced by NORMAL. The mode
// is resolved through the blend table now, so a mode whose table entry
// changed since it was selected flushes like a mode switch.
func (m *Manager) SetBlendMode(mode command.BlendMode) error {
	if mode == command.BlendModeSkipCheck {
		return nil
	}
	s, ok := m.blends.State(mode)
	if !ok {
		m.logger.Warn("batch: unknown blend mode, using NORMAL", "mode", mode.String())
		mode, s = command.BlendModeNormal, command.BlendNormal
		if ns, ok := m.blends.State(mode); ok {
			s = ns
		}
	}
	if m.state.Blend == mode && m.state.BlendState == s {
		return nil
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.state.Blend = mode
	m.state.BlendState = s
	return nil
}

// SetRenderTarget directs the following draws at id. An incomplete target
// is logged and every draw aimed at it is dropped until the target changes.
func (m *Manager) SetRenderTarget(id command.TargetID) error {
	if m.state.Target == id {
		return nil
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.state.Target = id
	m.state.targetIncomplete = false
	if status := m.backend.TargetStatus(id); status != command.FramebufferComplete {
		m.state.targetIncomplete = true
		m.logger.Warn("batch: render target incomplete, suppressing draws",
			"error", (&command.FramebufferError{Target: id, Status: status}).Error())
	}
	return nil
}

// SetScissor enables or disables the scissor rectangle r.
func (m *Manager) SetScissor(r command.Rect, enabled bool) error {
	if m.state.ScissorEnabled == enabled && (!enabled || m.state.Scissor == r) {
		return nil
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.state.Scissor = r
	m.state.ScissorEnabled = enabled
	return nil
}

// Add routes p to its batch. Textured primitives whose texture is still
// pending are skipped and counted in Stats.Skipped. A nil camera uses the
// identity view.
func (m *Manager) Add(p Primitive, cam *Camera) error {
	if m.destroyed {
		return ErrDestroyed
	}
	view := cam.Matrix()
	switch o := p.(type) {
	case *Sprite:
		if err := m.prepareTextured(o.BlendMode, KindSprite, o.Frame.Texture); err != nil {
			return ignoreSkip(err)
		}
		return m.sprites.AddSprite(o, view)
	case *Mesh:
		if err := m.prepareTextured(o.BlendMode, KindSprite, o.Texture); err != nil {
			return ignoreSkip(err)
		}
		return m.sprites.AddMesh(o, view)
	case *Emitter:
		if err := m.prepareTextured(o.BlendMode, KindParticle, o.Frame.Texture); err != nil {
			return ignoreSkip(err)
		}
		return m.particles.AddParticles(o, view)
	case *Text:
		if err := m.prepareTextured(o.BlendMode, KindGlyph, o.Texture); err != nil {
			return ignoreSkip(err)
		}
		return m.glyphs.AddText(o, view)
	case *Graphics:
		if err := m.prepare(o.BlendMode, KindShape); err != nil {
			return err
		}
		return m.shapes.AddGraphics(o, view)
	case *Rect:
		if err := m.prepare(o.BlendMode, KindQuad); err != nil {
			return err
		}
		return m.quads.AddRect(o)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedPrimitive, p)
	}
}

// errSkip marks a primitive dropped for a pending texture.
var errSkip = errors.New("batch: texture pending")

func ignoreSkip(err error) error {
	if err == errSkip {
		return nil
	}
	return err
}

func (m *Manager) prepare(mode command.BlendMode, k Kind) error {
	if err := m.SetBlendMode(mode); err != nil {
		return err
	}
	return m.SetBatch(k)
}

func (m *Manager) prepareTextured(mode command.BlendMode, k Kind, tex *Texture) error {
	if !tex.Ready() {
		m.stats.Skipped++
		return errSkip
	}
	if err := m.prepare(mode, k); err != nil {
		return err
	}
	return m.SetTexture(tex.ID())
}

// Projection returns the column-major matrix mapping a width x height
// pixel space, y down, to clip space.
func Projection(width, height float64) [16]float32 {
	return [16]float32{
		float32(2 / width), 0, 0, 0,
		0, float32(-2 / height), 0, 0,
		0, 0, 1, 1,
		-1, 1, 0, 0,
	}
}

// Resize flushes and pushes the projection for a width x height logical
// surface to every shader. The backend surface is width*resolution by
// height*resolution pixels.
func (m *Manager) Resize(width, height int, resolution float64) error {
	if m.destroyed {
		return ErrDestroyed
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("batch: invalid size %dx%d", width, height)
	}
	if resolution <= 0 {
		resolution = 1
	}
	if err := m.flushActive(); err != nil {
		return err
	}
	m.width, m.height, m.resolution = width, height, resolution
	proj := Projection(float64(width), float64(height))
	for _, b := range m.batches {
		s, ok := b.(interface{ Shader() command.ShaderID })
		if !ok {
			continue
		}
		m.list.AppendUniform(command.UpdateUniformCommand{
			Shader: s.Shader(),
			Name:   UniformViewMatrix,
			Value:  proj,
		})
	}
	return nil
}

// Flush flushes the active batch.
func (m *Manager) Flush() error {
	if m.destroyed {
		return ErrDestroyed
	}
	return m.flushActive()
}

// Dispatch executes the pending commands against the backend and empties
// the list, also after an error.
func (m *Manager) Dispatch() error {
	if m.destroyed {
		return ErrDestroyed
	}
	defer m.list.Reset()
	err := m.list.Dispatch(m.backend)
	if err != nil {
		m.requeue()
	}
	return err
}

// requeue marks every index pattern for upload with the next flush.
func (m *Manager) requeue() {
	for _, b := range m.batches {
		if q, ok := b.(interface{ requeue() }); ok {
			q.requeue()
		}
	}
}

// Discard drops staged vertices and pending commands, for example after a
// failed frame, and queues the projection again.
func (m *Manager) Discard() error {
	if m.destroyed {
		return ErrDestroyed
	}
	for _, b := range m.batches {
		if q, ok := b.(interface{ discard() }); ok {
			q.discard()
		}
	}
	m.list.Reset()
	if m.width == 0 || m.height == 0 {
		return nil
	}
	return m.Resize(m.width, m.height, m.resolution)
}

// Destroy releases every batch. The manager is unusable afterwards.
func (m *Manager) Destroy() {
	if m.destroyed {
		return
	}
	m.destroyed = true
	for i, b := range m.batches {
		if b != nil {
			b.Destroy()
			m.batches[i] = nil
		}
	}
	m.active = nil
	m.list.Reset()
}
