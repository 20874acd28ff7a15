//go:build !nogpu

package batch2d

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/batch2d/backend/gpu"
)

// ErrContextClosed is returned when a closed RenderDeviceContext is used.
var ErrContextClosed = errors.New("batch2d: device context closed")

// RenderDeviceContext is the GPU device and queue renderers draw with. It
// is created explicitly and passed to NewGPURenderer; there is no global
// device. Several renderers may share one context.
type RenderDeviceContext struct {
	dev    *gpu.Device
	closed bool
}

// OpenDeviceContext opens the first discrete or integrated GPU, falling
// back to any adapter. Close releases the device.
func OpenDeviceContext() (*RenderDeviceContext, error) {
	dev, err := gpu.OpenDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedContext, err)
	}
	Logger().Info("batch2d: GPU device opened", "adapter", dev.Name)
	return &RenderDeviceContext{dev: dev}, nil
}

// NewDeviceContextFromHAL wraps a device and queue owned by the caller.
// Close does not destroy them.
func NewDeviceContextFromHAL(device hal.Device, queue hal.Queue) (*RenderDeviceContext, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("%w: nil HAL device or queue", ErrUnsupportedContext)
	}
	return &RenderDeviceContext{dev: gpu.WrapDevice(device, queue)}, nil
}

// NewDeviceContext shares the device of a host application such as a
// gogpu window. The provider must also expose its HAL objects through
// HalDevice() any and HalQueue() any.
func NewDeviceContext(provider gpucontext.DeviceProvider) (*RenderDeviceContext, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: nil provider", ErrUnsupportedContext)
	}
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("%w: provider does not expose HAL types", ErrUnsupportedContext)
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: provider HalDevice is not hal.Device", ErrUnsupportedContext)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: provider HalQueue is not hal.Queue", ErrUnsupportedContext)
	}
	return NewDeviceContextFromHAL(device, queue)
}

// Name returns the adapter name when the context opened the device itself.
func (c *RenderDeviceContext) Name() string { return c.dev.Name }

// Closed reports whether Close has been called.
func (c *RenderDeviceContext) Closed() bool { return c.closed }

// Close releases the device if the context opened it. Renderers using the
// context must be destroyed first.
func (c *RenderDeviceContext) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.dev.Close()
}

// NewGPURenderer creates a Renderer on ctx. Any failure to build the GPU
// backend, shader compilation included, is reported as
// ErrUnsupportedContext.
func NewGPURenderer(ctx *RenderDeviceContext, opts ...Option) (*Renderer, error) {
	if ctx == nil {
		return nil, fmt.Errorf("%w: nil context", ErrUnsupportedContext)
	}
	if ctx.closed {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedContext, ErrContextClosed)
	}
	o := buildOptions(opts)
	// The renderer closes its backend; the device stays with ctx.
	b, err := gpu.New(gpu.WrapDevice(ctx.dev.Device, ctx.dev.Queue), gpu.Options{Logger: o.logger})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedContext, err)
	}
	r, err := NewRenderer(b, opts...)
	if err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedContext, err)
	}
	return r, nil
}
