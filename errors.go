package batch2d

import "errors"

var (
	// ErrUnsupportedContext is returned when a renderer cannot be built on
	// the given device context. There is no automatic fallback to the
	// canvas backend.
	ErrUnsupportedContext = errors.New("batch2d: unsupported device context")

	// ErrDestroyed is returned by a Renderer after Destroy.
	ErrDestroyed = errors.New("batch2d: renderer destroyed")

	// ErrNilBackend is returned by NewRenderer for a nil backend.
	ErrNilBackend = errors.New("batch2d: nil backend")

	// ErrForeignTexture is returned for textures the renderer did not create.
	ErrForeignTexture = errors.New("batch2d: texture not created by this renderer")
)
