package batch

import (
	"log/slog"

	"github.com/gogpu/batch2d/command"
)

// Config sizes the batches a Manager creates.
type Config struct {
	// SpriteQuads, ParticleQuads, GlyphQuads and AAQuads are quad
	// capacities of the indexed batches. Each is limited to 16384 by the
	// 16-bit index range.
	SpriteQuads   int
	ParticleQuads int
	GlyphQuads    int
	AAQuads       int

	// ShapeVertices is the vertex capacity of the shape batch.
	ShapeVertices int

	// Blends is the blend table the manager resolves modes against. Nil
	// creates a table holding only the built-in modes.
	Blends *command.BlendTable

	// Logger receives warnings about incomplete targets and unknown blend
	// modes. Nil uses the shared batch2d logger.
	Logger *slog.Logger
}

// DefaultConfig returns the stock batch sizes.
func DefaultConfig() Config {
	return Config{
		SpriteQuads:   2000,
		ParticleQuads: 2000,
		GlyphQuads:    2000,
		AAQuads:       256,
		ShapeVertices: 12000,
	}
}
