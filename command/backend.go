package command

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/batch2d/vertex"
)

// Backend errors.
var (
	// ErrUnknownResource is returned when a handle does not name a live
	// resource of the expected kind.
	ErrUnknownResource = errors.New("command: unknown resource handle")

	// ErrNoFrame is returned by execution methods called outside
	// BeginFrame/EndFrame.
	ErrNoFrame = errors.New("command: no frame in progress")

	// ErrBackendClosed is returned after Close.
	ErrBackendClosed = errors.New("command: backend closed")

	// ErrDepthStencilUnsupported is returned for draws that request depth or
	// stencil testing from a backend without those attachments.
	ErrDepthStencilUnsupported = errors.New("command: depth/stencil state not supported by backend")
)

// ShaderDesc describes a shader program. Source is WGSL; backends that do
// not compile shaders still use Layout to decode vertices.
type ShaderDesc struct {
	Name     string
	Source   string
	Layout   vertex.Layout
	Textured bool
}

// ShaderCompileError reports a shader that failed to compile or link. The
// shader is unusable; other shaders are unaffected.
type ShaderCompileError struct {
	Name string
	Err  error
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("command: shader %q failed to compile: %v", e.Name, e.Err)
}

func (e *ShaderCompileError) Unwrap() error { return e.Err }

// BufferUsage says how a buffer is bound.
type BufferUsage uint8

const (
	BufferUsageVertex BufferUsage = iota
	BufferUsageIndex
)

// BufferDesc describes a GPU buffer.
type BufferDesc struct {
	Label string
	Size  int
	Usage BufferUsage
}

// FilterMode selects texture sampling.
type FilterMode uint8

const (
	FilterLinear FilterMode = iota
	FilterNearest
)

// WrapMode selects texture addressing outside [0, 1].
type WrapMode uint8

const (
	WrapClamp WrapMode = iota
	WrapRepeat
)

// TextureDesc describes a 2D RGBA8 texture. Image holds premultiplied
// pixels and may be nil for an uninitialised texture of Width x Height.
type TextureDesc struct {
	Label  string
	Width  int
	Height int
	Filter FilterMode
	Wrap   WrapMode
	Image  *image.RGBA
}

// TargetDesc describes an offscreen render target.
type TargetDesc struct {
	Label  string
	Width  int
	Height int
}

// FramebufferStatus is the completeness of a render target.
type FramebufferStatus uint8

const (
	FramebufferComplete FramebufferStatus = iota
	FramebufferIncompleteAttachment
	FramebufferMissingAttachment
	FramebufferIncompleteDimensions
	FramebufferUnsupported
)

var framebufferStatusText = [...]string{
	FramebufferComplete:             "framebuffer complete",
	FramebufferIncompleteAttachment: "incomplete attachment: an attachment is not renderable",
	FramebufferMissingAttachment:    "missing attachment: the target has no color attachment",
	FramebufferIncompleteDimensions: "incomplete dimensions: attachments have zero or mismatched size",
	FramebufferUnsupported:          "unsupported: the attachment format combination is not supported",
}

// String returns a human readable description.
func (s FramebufferStatus) String() string {
	if int(s) < len(framebufferStatusText) {
		return framebufferStatusText[s]
	}
	return fmt.Sprintf("framebuffer status %d", s)
}

// FramebufferError reports an incomplete render target.
type FramebufferError struct {
	Target TargetID
	Status FramebufferStatus
}

func (e *FramebufferError) Error() string {
	return fmt.Sprintf("command: render target %d: %s", e.Target, e.Status)
}

// Backend executes commands and owns the GPU resources they reference.
//
// All methods are called from the render thread; implementations need not
// be safe for concurrent use. Execution methods are only valid between
// BeginFrame and EndFrame.
type Backend interface {
	// Name identifies the backend in logs.
	Name() string

	CreateShader(desc *ShaderDesc) (ShaderID, error)
	DestroyShader(id ShaderID)

	CreateBuffer(desc BufferDesc) (BufferID, error)
	DestroyBuffer(id BufferID)

	CreateTexture(desc *TextureDesc) (TextureID, error)
	UpdateTexture(id TextureID, img *image.RGBA) error
	DestroyTexture(id TextureID)

	// CreateRenderTarget returns the target and the texture that samples
	// its contents.
	CreateRenderTarget(desc TargetDesc) (TargetID, TextureID, error)
	TargetStatus(id TargetID) FramebufferStatus
	DestroyRenderTarget(id TargetID)

	// BeginFrame starts a frame whose default surface is width x height.
	BeginFrame(width, height int) error
	WriteBuffer(id BufferID, offset int, data []byte) error
	SetUniform(shader ShaderID, name string, value [16]float32) error
	Clear(target TargetID, color [4]float32) error
	Draw(cmd *DrawCommand) error
	DrawIndexed(cmd *DrawIndexedCommand) error
	// EndFrame submits all work recorded since BeginFrame.
	EndFrame() error

	// Snapshot reads back the contents of a target.
	Snapshot(target TargetID) (*image.RGBA, error)

	Close() error
}
