package batch

import "github.com/gogpu/batch2d/command"

// Texture is a backend texture as seen by primitives. A pending texture is
// one whose pixels have not been uploaded yet; primitives using it are
// skipped until Resolve is called.
type Texture struct {
	id     command.TextureID
	width  int
	height int
	ready  bool
}

// NewTexture wraps an uploaded backend texture.
func NewTexture(id command.TextureID, width, height int) *Texture {
	return &Texture{id: id, width: width, height: height, ready: id != 0}
}

// NewPendingTexture returns a texture of the expected size that is not
// ready yet.
func NewPendingTexture(width, height int) *Texture {
	return &Texture{width: width, height: height}
}

// Resolve marks t as uploaded under id.
func (t *Texture) Resolve(id command.TextureID, width, height int) {
	t.id, t.width, t.height = id, width, height
	t.ready = id != 0
}

// Invalidate marks t as pending again, for example after a lost context.
func (t *Texture) Invalidate() {
	t.id = 0
	t.ready = false
}

// ID returns the backend handle, 0 while pending.
func (t *Texture) ID() command.TextureID { return t.id }

// Size returns the texture size in pixels.
func (t *Texture) Size() (width, height int) { return t.width, t.height }

// Ready reports whether the texture can be sampled.
func (t *Texture) Ready() bool { return t != nil && t.ready }

// Frame is a sub-rectangle of a texture, in pixels.
type Frame struct {
	Texture             *Texture
	X, Y, Width, Height float64
}

// FullFrame returns the frame covering all of t.
func FullFrame(t *Texture) Frame {
	return Frame{Texture: t, Width: float64(t.width), Height: float64(t.height)}
}

// UV returns the frame's normalized texture coordinates.
func (f Frame) UV() (u0, v0, u1, v1 float32) {
	if f.Texture == nil || f.Texture.width == 0 || f.Texture.height == 0 {
		return 0, 0, 1, 1
	}
	tw, th := float64(f.Texture.width), float64(f.Texture.height)
	return float32(f.X / tw), float32(f.Y / th),
		float32((f.X + f.Width) / tw), float32((f.Y + f.Height) / th)
}
