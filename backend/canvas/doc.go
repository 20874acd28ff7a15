// Package canvas implements command.Backend in software on *image.RGBA.
//
// Vertices are decoded through the shader's vertex.Layout by attribute
// name, so the backend understands every built-in batch without parsing
// WGSL. Triangle coverage comes from golang.org/x/image/vector, with edge
// pixels resolved by sampling their centers the way a GPU does; textured
// triangles are resampled with golang.org/x/image/draw affine transforms
// and masked by that coverage.
//
// Premultiplied source-over blending uses draw.Over. Any other blend state
// is evaluated per pixel from its factors and operation, so the canvas
// honours custom blend modes too.
//
// Register the backend by importing the package:
//
//	import _ "github.com/gogpu/batch2d/backend/canvas"
//
//	b, err := command.OpenBackend("canvas", command.BackendConfig{Width: 800, Height: 600})
package canvas
