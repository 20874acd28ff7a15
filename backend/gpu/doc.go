//go:build !nogpu

// Package gpu implements command.Backend on a gogpu/wgpu HAL device.
//
// Every frame is recorded into one command encoder and submitted at
// EndFrame. Shaders are WGSL compiled to SPIR-V with naga; each shader owns
// a uniform buffer (bind group 0) and textured shaders sample a per-texture
// bind group (bind group 1). Render pipelines are created lazily per
// (shader, blend state).
//
// Buffer writes go through the queue and therefore land before any work in
// the open encoder executes. When a buffer already referenced by a recorded
// draw is written again, the pending work is submitted first so the earlier
// draw still sees the earlier contents.
//
// The default surface is an offscreen RGBA8 texture sized at BeginFrame and
// read back by Snapshot. Build with the nogpu tag to exclude this package.
package gpu
