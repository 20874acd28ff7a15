package batch

import (
	_ "embed"
)

// Uniform names shared by every shader.
const (
	UniformViewMatrix = "u_view_matrix"
)

var (
	//go:embed shaders/sprite.wgsl
	spriteShaderSource string

	//go:embed shaders/shape.wgsl
	shapeShaderSource string

	//go:embed shaders/quad.wgsl
	quadShaderSource string
)
