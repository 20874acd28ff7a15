package batch2d

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/batch2d/batch"
	"github.com/gogpu/batch2d/command"
)

// textureSource is what the renderer needs to upload a texture again after
// a lost context.
type textureSource struct {
	img    *image.RGBA
	filter command.FilterMode
	wrap   command.WrapMode
}

// RenderTarget is an offscreen surface. Texture samples its contents and
// can be drawn by sprites once a frame has been rendered into it.
type RenderTarget struct {
	ID            command.TargetID
	Texture       *batch.Texture
	Width, Height int
}

// toRGBA converts img to premultiplied RGBA at the origin. Images that are
// already in that form are returned as is.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(dst, dst.Bounds(), img, b.Min, xdraw.Src)
	return dst
}

func (r *Renderer) filter(f command.FilterMode) command.FilterMode {
	if r.opts.pixelArt {
		return command.FilterNearest
	}
	return f
}

// CreateTexture uploads img with the given filter. The renderer keeps img
// to upload it again after a lost context, so it must not be modified
// afterwards; use UploadTexture instead.
func (r *Renderer) CreateTexture(img image.Image, filter command.FilterMode) (*batch.Texture, error) {
	if r.destroyed {
		return nil, ErrDestroyed
	}
	if img == nil {
		return nil, fmt.Errorf("batch2d: nil texture image")
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	t := batch.NewPendingTexture(b.Dx(), b.Dy())
	src := &textureSource{img: rgba, filter: r.filter(filter)}
	r.textures[t] = src
	if r.lost {
		return t, nil
	}
	if err := r.upload(t, src); err != nil {
		delete(r.textures, t)
		return nil, err
	}
	return t, nil
}

// NewPendingTexture returns a texture of the expected size whose pixels
// arrive later through UploadTexture. Primitives using it are skipped until
// then.
func (r *Renderer) NewPendingTexture(width, height int) *batch.Texture {
	t := batch.NewPendingTexture(width, height)
	r.textures[t] = &textureSource{filter: r.filter(command.FilterLinear)}
	return t
}

// UploadTexture replaces the pixels of t, resolving it if it was pending.
// A size change reallocates the backend texture.
func (r *Renderer) UploadTexture(t *batch.Texture, img image.Image) error {
	if r.destroyed {
		return ErrDestroyed
	}
	src, ok := r.textures[t]
	if !ok {
		return ErrForeignTexture
	}
	rgba := toRGBA(img)
	src.img = rgba
	if r.lost {
		return nil
	}
	if t.Ready() {
		w, h := t.Size()
		b := rgba.Bounds()
		if b.Dx() == w && b.Dy() == h {
			return r.backend.UpdateTexture(t.ID(), rgba)
		}
		r.release(t)
	}
	return r.upload(t, src)
}

// SetTextureFilter changes the sampling filter of t.
func (r *Renderer) SetTextureFilter(t *batch.Texture, filter command.FilterMode) error {
	src, ok := r.textures[t]
	if !ok {
		return ErrForeignTexture
	}
	filter = r.filter(filter)
	if src.filter == filter {
		return nil
	}
	src.filter = filter
	if !t.Ready() || src.img == nil {
		return nil
	}
	r.release(t)
	return r.upload(t, src)
}

// DestroyTexture releases t. Primitives still using it are skipped.
func (r *Renderer) DestroyTexture(t *batch.Texture) {
	if _, ok := r.textures[t]; !ok {
		return
	}
	r.release(t)
	delete(r.textures, t)
}

// release flushes anything drawn with t and frees its backend texture.
func (r *Renderer) release(t *batch.Texture) {
	if !t.Ready() {
		return
	}
	if r.manager != nil && r.manager.State().Texture == t.ID() {
		if err := r.manager.Flush(); err != nil {
			r.logger.Warn("batch2d: flush before texture release", "err", err)
		}
	}
	r.backend.DestroyTexture(t.ID())
	t.Invalidate()
}

func (r *Renderer) upload(t *batch.Texture, src *textureSource) error {
	b := src.img.Bounds()
	id, err := r.backend.CreateTexture(&command.TextureDesc{
		Width:  b.Dx(),
		Height: b.Dy(),
		Filter: src.filter,
		Wrap:   src.wrap,
		Image:  src.img,
	})
	if err != nil {
		return fmt.Errorf("batch2d: create texture: %w", err)
	}
	t.Resolve(id, b.Dx(), b.Dy())
	return nil
}

// CreateRenderTarget creates an offscreen target of width x height pixels.
// A target with an incomplete status is still returned; frames rendered
// into it draw nothing.
func (r *Renderer) CreateRenderTarget(width, height int) (*RenderTarget, error) {
	if r.destroyed {
		return nil, ErrDestroyed
	}
	rt := &RenderTarget{Width: width, Height: height, Texture: batch.NewPendingTexture(width, height)}
	if !r.lost {
		if err := r.createTarget(rt); err != nil {
			return nil, err
		}
	}
	r.targets[rt] = struct{}{}
	return rt, nil
}

func (r *Renderer) createTarget(rt *RenderTarget) error {
	id, tex, err := r.backend.CreateRenderTarget(command.TargetDesc{Width: rt.Width, Height: rt.Height})
	if err != nil {
		return fmt.Errorf("batch2d: create render target: %w", err)
	}
	rt.ID = id
	rt.Texture.Resolve(tex, rt.Width, rt.Height)
	if status := r.backend.TargetStatus(id); status != command.FramebufferComplete {
		r.logger.Warn("batch2d: render target incomplete",
			"width", rt.Width, "height", rt.Height, "status", status.String())
	}
	return nil
}

// DestroyRenderTarget releases rt and its texture.
func (r *Renderer) DestroyRenderTarget(rt *RenderTarget) {
	if _, ok := r.targets[rt]; !ok {
		return
	}
	if r.manager != nil && r.manager.State().Target == rt.ID {
		if err := r.manager.SetRenderTarget(command.DefaultTarget); err != nil {
			r.logger.Warn("batch2d: leave render target", "err", err)
		}
	}
	if rt.ID != 0 {
		r.backend.DestroyRenderTarget(rt.ID)
	}
	rt.ID = 0
	rt.Texture.Invalidate()
	delete(r.targets, rt)
}
