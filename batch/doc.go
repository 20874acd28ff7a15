// Package batch turns resolved scene primitives into the minimum number of
// draw commands.
//
// Each primitive category has a batch that stages vertices in a fixed
// capacity vertex.LinearBuffer32 and flushes them as one upload plus one
// draw:
//
//   - SpriteBatch: textured quads and meshes
//   - ShapeBatch: filled and stroked vector paths
//   - ParticleBatch: particle quads sharing one texture
//   - GlyphBatch: text quads from a glyph atlas
//   - QuadBatch: flat colored screen-space rectangles
//
// The Manager owns every batch and the StateCache. It is the only place that
// switches the active batch, texture, blend mode, render target or scissor,
// and it always flushes pending vertices before such a switch, so a draw
// never mixes primitives recorded under different state. Batches flush
// themselves only when they run out of room.
//
// Vertices are projected on the CPU through
// ApplyITRS(object).Compose(camera) and the shaders only apply the
// u_view_matrix orthographic projection.
package batch
