package batch

import (
	"github.com/gogpu/batch2d/affine"
	"github.com/gogpu/batch2d/command"
)

// Camera maps world coordinates into a viewport of the render surface.
//
// The view matrix is
//
//	T(X+W/2, Y+H/2) · R(Rotation) · S(Zoom) · T(-W/2, -H/2) · T(-ScrollX, -ScrollY)
//
// so zoom and rotation pivot on the viewport center.
type Camera struct {
	// Viewport in surface pixels.
	X, Y, Width, Height float64

	ScrollX, ScrollY float64
	// Zoom scales the view around the viewport center. Zero means 1.
	Zoom             float64
	Rotation         float64

	// BackgroundColor (0xRRGGBB) fills the viewport before the scene when
	// BackgroundAlpha is positive.
	BackgroundColor uint32
	BackgroundAlpha float64

	// Fade and flash overlays drawn after the scene.
	FadeColor  uint32
	FadeAlpha  float64
	FlashColor uint32
	FlashAlpha float64

	matrix affine.Transform
}

// NewCamera returns a camera with zoom 1 covering the given viewport.
func NewCamera(x, y, width, height float64) *Camera {
	return &Camera{X: x, Y: y, Width: width, Height: height, Zoom: 1}
}

// Matrix recomputes and returns the view matrix. A nil camera yields the
// identity.
func (c *Camera) Matrix() affine.Transform {
	if c == nil {
		return affine.Identity()
	}
	zoom := c.Zoom
	if zoom == 0 {
		zoom = 1
	}
	ox, oy := c.Width/2, c.Height/2
	c.matrix.LoadIdentity().
		Translate(c.X+ox, c.Y+oy).
		Rotate(c.Rotation).
		Scale(zoom, zoom).
		Translate(-ox, -oy).
		Translate(-c.ScrollX, -c.ScrollY)
	return c.matrix
}

// Viewport returns the camera viewport as an integer rectangle.
func (c *Camera) Viewport() command.Rect {
	return command.Rect{X: int(c.X), Y: int(c.Y), Width: int(c.Width), Height: int(c.Height)}
}

// CoversSurface reports whether the viewport matches a width x height surface.
func (c *Camera) CoversSurface(width, height int) bool {
	v := c.Viewport()
	return v.X == 0 && v.Y == 0 && v.Width == width && v.Height == height
}
