//go:build !nogpu

package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/command"
)

// copyPitchAlignment is the required BytesPerRow alignment of
// texture-to-buffer copies.
const copyPitchAlignment = 256

// alignedRowBytes returns the padded row pitch for width RGBA8 pixels.
func alignedRowBytes(width int) int {
	return (width*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
}

// unpadRows copies height rows of width RGBA8 pixels from a buffer whose
// rows are pitch bytes apart into dst.
func unpadRows(dst *image.RGBA, src []byte, pitch int) {
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	row := w * 4
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+row], src[y*pitch:y*pitch+row])
	}
}

// Snapshot implements command.Backend. It copies target into a staging
// buffer, waits for the copy and reads the mapped buffer back. Snapshot is
// invalid while a frame is being recorded.
func (b *Backend) Snapshot(target command.TargetID) (*image.RGBA, error) {
	if b.closed {
		return nil, command.ErrBackendClosed
	}
	if b.frame != nil {
		return nil, ErrFrameInProgress
	}
	tex, err := b.targetTexture(target)
	if err != nil {
		return nil, err
	}
	var sampled *targetRes
	if t, ok := b.targets[target]; ok && t.sampled {
		sampled = t
	}

	w, h := tex.width, tex.height
	pitch := alignedRowBytes(w)
	size := uint64(pitch) * uint64(h)
	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "batch_snapshot_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("gpu: create staging buffer: %w", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "batch_snapshot_encoder"})
	if err != nil {
		return nil, fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("batch_snapshot"); err != nil {
		return nil, fmt.Errorf("gpu: begin encoding: %w", err)
	}

	from := gputypes.TextureUsageRenderAttachment
	if sampled != nil {
		from = gputypes.TextureUsageTextureBinding
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.tex,
		Usage:   hal.TextureUsageTransition{OldUsage: from, NewUsage: gputypes.TextureUsageCopySrc},
	}})
	encoder.CopyTextureToBuffer(tex.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: uint32(pitch), RowsPerImage: uint32(h)},
		TextureBase:  hal.ImageCopyTexture{Texture: tex.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: tex.tex,
		Usage:   hal.TextureUsageTransition{OldUsage: gputypes.TextureUsageCopySrc, NewUsage: from},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("gpu: end encoding: %w", err)
	}
	if err := b.submit(cmdBuf); err != nil {
		return nil, err
	}

	mapping, err := b.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("gpu: map staging buffer: %w", err)
	}
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	unpadRows(img, unsafe.Slice((*byte)(mapping.Ptr), size), pitch)
	if err := b.device.UnmapBuffer(staging); err != nil {
		return nil, fmt.Errorf("gpu: unmap staging buffer: %w", err)
	}
	return img, nil
}
