// Package batch2d renders 2D scenes by batching sprites, shapes, particles,
// text and solid quads into as few GPU draw calls as possible.
//
// # Overview
//
// A frame is a list of primitives drawn through a camera. The Renderer routes
// each primitive to the batch for its kind (see package batch). A batch
// accumulates vertices in a CPU-side buffer and is flushed into a command list
// when it fills up or when the GPU state it depends on changes: texture, blend
// mode, render target or scissor. The command list is then executed by a
// backend.
//
// # Quick Start
//
//	r, err := batch2d.NewCanvasRenderer(batch2d.WithWidth(320), batch2d.WithHeight(240))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Destroy()
//
//	tex, _ := r.CreateTexture(img, command.FilterLinear)
//	cam := batch.NewCamera(0, 0, 320, 240)
//	r.Snapshot(func(img *image.RGBA, err error) { ... })
//	err = r.Render([]batch.Primitive{batch.NewSprite(batch.FullFrame(tex), 160, 120)}, cam)
//
// # Backends
//
// Two backends implement command.Backend:
//
//   - backend/gpu drives a gogpu/wgpu HAL device. Create one with
//     NewGPURenderer and a RenderDeviceContext.
//   - backend/canvas rasterizes on the CPU into an *image.RGBA. It needs no
//     GPU and is what NewCanvasRenderer uses.
//
// The GPU backend is excluded by the nogpu build tag.
//
// # Logging
//
// batch2d logs through log/slog and is silent by default. See SetLogger.
//
// # Coordinates
//
// Positions are logical pixels with the origin at the top-left and y down.
// The backend surface is the logical size multiplied by the resolution.
package batch2d
