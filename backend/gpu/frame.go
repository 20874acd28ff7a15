//go:build !nogpu

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/command"
)

// frameState is the encoder and pass bookkeeping between BeginFrame and
// EndFrame.
type frameState struct {
	b       *Backend
	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	// passTarget is the target the open pass renders into.
	passTarget command.TargetID
	// recorded is set once the encoder holds work.
	recorded bool

	buffers  map[command.BufferID]struct{}
	textures map[command.TextureID]struct{}
	shaders  []*shaderRes
}

func (f *frameState) usesBuffer(id command.BufferID) bool {
	_, ok := f.buffers[id]
	return ok
}

func (f *frameState) usesTexture(id command.TextureID) bool {
	_, ok := f.textures[id]
	return ok
}

func (f *frameState) begin() error {
	encoder, err := f.b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "batch_frame_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("batch_frame"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	f.encoder = encoder
	return nil
}

func (f *frameState) endPass() {
	if f.pass == nil {
		return
	}
	f.pass.End()
	f.pass = nil
	if t, ok := f.b.targets[f.passTarget]; ok && f.passTarget != command.DefaultTarget {
		// Later passes may sample the target.
		if tex, ok := f.b.textures[t.texture]; ok {
			f.encoder.TransitionTextures([]hal.TextureBarrier{{
				Texture: tex.tex,
				Usage: hal.TextureUsageTransition{
					OldUsage: gputypes.TextureUsageRenderAttachment,
					NewUsage: gputypes.TextureUsageTextureBinding,
				},
			}})
			t.sampled = true
		}
	}
}

// openPass makes target the pass destination. A clear color starts a new
// pass that clears; otherwise the current pass is reused when it already
// renders into target.
func (f *frameState) openPass(target command.TargetID, clearColor *[4]float32) error {
	if f.pass != nil && f.passTarget == target && clearColor == nil {
		return nil
	}
	f.endPass()

	tex, err := f.b.targetTexture(target)
	if err != nil {
		return err
	}
	if t, ok := f.b.targets[target]; ok && t.sampled {
		f.encoder.TransitionTextures([]hal.TextureBarrier{{
			Texture: tex.tex,
			Usage: hal.TextureUsageTransition{
				OldUsage: gputypes.TextureUsageTextureBinding,
				NewUsage: gputypes.TextureUsageRenderAttachment,
			},
		}})
		t.sampled = false
	}

	attachment := hal.RenderPassColorAttachment{
		View:    tex.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if clearColor != nil {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = gputypes.Color{
			R: float64(clearColor[0]),
			G: float64(clearColor[1]),
			B: float64(clearColor[2]),
			A: float64(clearColor[3]),
		}
	}
	f.pass = f.encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label:            "batch_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	})
	f.passTarget = target
	f.recorded = true
	return nil
}

// finish ends encoding and returns the command buffer.
func (f *frameState) finish() (hal.CommandBuffer, error) {
	f.endPass()
	cmdBuf, err := f.encoder.EndEncoding()
	f.encoder = nil
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	return cmdBuf, nil
}

func (f *frameState) discard() {
	if f.pass != nil {
		f.pass.End()
		f.pass = nil
	}
	if f.encoder != nil {
		f.encoder.DiscardEncoding()
		f.encoder = nil
	}
}

// forget drops the resource references of submitted work.
func (f *frameState) forget() {
	clear(f.buffers)
	clear(f.textures)
	for _, s := range f.shaders {
		s.busy = false
	}
	f.shaders = f.shaders[:0]
	f.recorded = false
}

// targetTexture returns the color texture of target.
func (b *Backend) targetTexture(target command.TargetID) (*textureRes, error) {
	if target == command.DefaultTarget {
		if b.surface == nil {
			return nil, command.ErrNoFrame
		}
		return b.surface, nil
	}
	t, ok := b.targets[target]
	if !ok {
		return nil, fmt.Errorf("%w: target %d", command.ErrUnknownResource, target)
	}
	if t.status != command.FramebufferComplete {
		return nil, &command.FramebufferError{Target: target, Status: t.status}
	}
	tex, ok := b.textures[t.texture]
	if !ok {
		return nil, &command.FramebufferError{Target: target, Status: command.FramebufferMissingAttachment}
	}
	return tex, nil
}

// submit runs cmdBuf and waits for it to finish. A command buffer still
// executing after the timeout is not freed.
func (b *Backend) submit(cmdBuf hal.CommandBuffer) error {
	index, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		b.device.FreeCommandBuffer(cmdBuf)
		return fmt.Errorf("gpu: submit: %w", err)
	}
	if err := b.wait(index); err != nil {
		return err
	}
	b.device.FreeCommandBuffer(cmdBuf)
	return nil
}

// pollInterval is the sleep between completion polls.
const pollInterval = 50 * time.Microsecond

// wait blocks until submission index has completed or the submit timeout
// elapses.
func (b *Backend) wait(index uint64) error {
	deadline := time.Now().Add(b.timeout)
	for b.queue.PollCompleted() < index {
		if time.Now().After(deadline) {
			return fmt.Errorf("%w: submission %d", ErrSubmitTimeout, index)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// submitPending submits the work recorded so far and reopens the encoder.
// The next pass on the same target loads its contents.
func (b *Backend) submitPending() error {
	f := b.frame
	if f == nil || !f.recorded {
		return nil
	}
	cmdBuf, err := f.finish()
	if err != nil {
		return err
	}
	if err := b.submit(cmdBuf); err != nil {
		return err
	}
	f.forget()
	return f.begin()
}

// retire submits pending work before a resource it may reference is
// destroyed.
func (b *Backend) retire() {
	if err := b.submitPending(); err != nil {
		b.logger.Warn("gpu: submit before destroy failed", "error", err)
	}
}

// BeginFrame implements command.Backend.
func (b *Backend) BeginFrame(width, height int) error {
	if b.closed {
		return command.ErrBackendClosed
	}
	if b.frame != nil {
		return ErrFrameInProgress
	}
	if err := b.ensureSurface(width, height); err != nil {
		return err
	}
	b.width, b.height = width, height
	f := &frameState{
		b:        b,
		buffers:  make(map[command.BufferID]struct{}),
		textures: make(map[command.TextureID]struct{}),
	}
	if err := f.begin(); err != nil {
		return err
	}
	b.frame = f
	return nil
}

func (b *Backend) checkFrame() error {
	if b.closed {
		return command.ErrBackendClosed
	}
	if b.frame == nil {
		return command.ErrNoFrame
	}
	return nil
}

// WriteBuffer implements command.Backend.
func (b *Backend) WriteBuffer(id command.BufferID, offset int, data []byte) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	r, ok := b.buffers[id]
	if !ok {
		return fmt.Errorf("%w: buffer %d", command.ErrUnknownResource, id)
	}
	if offset < 0 || offset+len(data) > r.size {
		return fmt.Errorf("gpu: write of %d bytes at %d overflows buffer %q (%d bytes)",
			len(data), offset, r.label, r.size)
	}
	if len(data) == 0 {
		return nil
	}
	if b.frame.usesBuffer(id) {
		if err := b.submitPending(); err != nil {
			return err
		}
	}
	if pad := len(data) % 4; pad != 0 {
		data = append(append(make([]byte, 0, len(data)+4-pad), data...), make([]byte, 4-pad)...)
		if offset+len(data) > r.size {
			return fmt.Errorf("gpu: padded write overflows buffer %q", r.label)
		}
	}
	if err := b.queue.WriteBuffer(r.buf, uint64(offset), data); err != nil {
		return fmt.Errorf("gpu: write buffer %q: %w", r.label, err)
	}
	return nil
}

// SetUniform implements command.Backend. Every shader has the single
// view matrix uniform, so name is only used in errors.
func (b *Backend) SetUniform(shader command.ShaderID, name string, value [16]float32) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	s, ok := b.shaders[shader]
	if !ok {
		return fmt.Errorf("%w: shader %d (uniform %s)", command.ErrUnknownResource, shader, name)
	}
	if s.busy {
		if err := b.submitPending(); err != nil {
			return err
		}
	}
	if err := b.queue.WriteBuffer(s.uniform, 0, matrixBytes(value)); err != nil {
		return fmt.Errorf("gpu: write %s uniform %s: %w", s.name, name, err)
	}
	return nil
}

func matrixBytes(m [16]float32) []byte {
	out := make([]byte, 0, uniformSize)
	for _, v := range m {
		out = binary.LittleEndian.AppendUint32(out, math.Float32bits(v))
	}
	return out
}

// Clear implements command.Backend.
func (b *Backend) Clear(target command.TargetID, color [4]float32) error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	return b.frame.openPass(target, &color)
}

// drawSetup binds everything a draw needs and returns the open pass.
func (b *Backend) drawSetup(shader command.ShaderID, vbuf command.BufferID,
	textures command.TextureBindings, out *command.OutputStage) (hal.RenderPassEncoder, error) {
	if err := b.checkFrame(); err != nil {
		return nil, err
	}
	if out.DepthStencil.Enabled() {
		return nil, command.ErrDepthStencilUnsupported
	}
	s, ok := b.shaders[shader]
	if !ok {
		return nil, fmt.Errorf("%w: shader %d", command.ErrUnknownResource, shader)
	}
	vb, ok := b.buffers[vbuf]
	if !ok {
		return nil, fmt.Errorf("%w: buffer %d", command.ErrUnknownResource, vbuf)
	}
	var texBind hal.BindGroup
	if s.textured {
		id := textures.Primary()
		t, ok := b.textures[id]
		if !ok {
			return nil, fmt.Errorf("%w: texture %d", command.ErrUnknownResource, id)
		}
		if t.target != 0 && t.target == out.Target {
			return nil, fmt.Errorf("gpu: target %d samples itself", out.Target)
		}
		bg, err := b.textureBindGroup(t)
		if err != nil {
			return nil, err
		}
		texBind = bg
		b.frame.textures[id] = struct{}{}
	}
	pipeline, err := b.pipeline(s, out.Blend)
	if err != nil {
		return nil, err
	}
	f := b.frame
	if err := f.openPass(out.Target, nil); err != nil {
		return nil, err
	}
	tex, err := b.targetTexture(out.Target)
	if err != nil {
		return nil, err
	}

	rp := f.pass
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, s.bindGroup, nil)
	if texBind != nil {
		rp.SetBindGroup(1, texBind, nil)
	}
	rp.SetVertexBuffer(0, vb.buf, 0)
	x, y, w, h := scissorRect(out, tex.width, tex.height)
	rp.SetScissorRect(x, y, w, h)

	f.buffers[vbuf] = struct{}{}
	if !s.busy {
		s.busy = true
		f.shaders = append(f.shaders, s)
	}
	return rp, nil
}

// scissorRect clamps the draw's scissor to the target; a disabled scissor
// covers the whole target.
func scissorRect(out *command.OutputStage, width, height int) (x, y, w, h uint32) {
	if !out.ScissorEnabled {
		return 0, 0, uint32(width), uint32(height)
	}
	r := out.Scissor
	x0, y0 := max(r.X, 0), max(r.Y, 0)
	x1, y1 := min(r.X+r.Width, width), min(r.Y+r.Height, height)
	if x1 <= x0 || y1 <= y0 {
		return 0, 0, 0, 0
	}
	return uint32(x0), uint32(y0), uint32(x1 - x0), uint32(y1 - y0)
}

// Draw implements command.Backend.
func (b *Backend) Draw(cmd *command.DrawCommand) error {
	rp, err := b.drawSetup(cmd.Shader, cmd.VertexBuffer, cmd.Textures, &cmd.Output)
	if err != nil {
		return err
	}
	rp.Draw(uint32(cmd.VertexCount), 1, uint32(cmd.FirstVertex), 0)
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
	rp, err := b.drawSetup(cmd.Shader, cmd.VertexBuffer, cmd.Textures, &cmd.Output)
	if err != nil {
		return err
	}
	format := gputypes.IndexFormatUint16
	if cmd.IndexFormat == command.IndexFormatUint32 {
		format = gputypes.IndexFormatUint32
	}
	rp.SetIndexBuffer(ib.buf, format, 0)
	rp.DrawIndexed(uint32(cmd.IndexCount), 1, uint32(cmd.FirstIndex), int32(cmd.BaseVertex), 0)
	b.frame.buffers[cmd.IndexBuffer] = struct{}{}
	return nil
}

// EndFrame implements command.Backend. It submits the frame and waits for
// the GPU to finish.
func (b *Backend) EndFrame() error {
	if err := b.checkFrame(); err != nil {
		return err
	}
	f := b.frame
	b.frame = nil
	if !f.recorded {
		f.discard()
		return nil
	}
	cmdBuf, err := f.finish()
	if err != nil {
		return err
	}
	err = b.submit(cmdBuf)
	f.forget()
	return err
}
