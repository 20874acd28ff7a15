//go:build !nogpu

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Device is an opened HAL device and its queue.
type Device struct {
	Device hal.Device
	Queue  hal.Queue
	// Name is the adapter name.
	Name string

	instance hal.Instance
	owned    bool
}

// OpenDevice opens the first discrete or integrated GPU exposed by the
// Vulkan HAL backend, falling back to the first adapter.
func OpenDevice() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not available", ErrNoAdapter)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("gpu: create instance: %w", err)
	}
	return openFromInstance(instance)
}

func openFromInstance(instance hal.Instance) (*Device, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, ErrNoAdapter
	}
	var selected *hal.ExposedAdapter
	for _, want := range []gputypes.DeviceType{gputypes.DeviceTypeDiscreteGPU, gputypes.DeviceTypeIntegratedGPU} {
		for i := range adapters {
			if adapters[i].Info.DeviceType == want {
				selected = &adapters[i]
				break
			}
		}
		if selected != nil {
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}
	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("gpu: open device: %w", err)
	}
	return &Device{
		Device:   openDev.Device,
		Queue:    openDev.Queue,
		Name:     selected.Info.Name,
		instance: instance,
		owned:    true,
	}, nil
}

// WrapDevice returns a Device for a device and queue owned elsewhere.
// Close on the result releases nothing.
func WrapDevice(device hal.Device, queue hal.Queue) *Device {
	return &Device{Device: device, Queue: queue}
}

// Owned reports whether Close destroys the device.
func (d *Device) Owned() bool { return d.owned }

// Close destroys the device and instance if they were opened by
// OpenDevice.
func (d *Device) Close() {
	if !d.owned {
		d.Device, d.Queue = nil, nil
		return
	}
	if d.Device != nil {
		d.Device.Destroy()
		d.Device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
	d.Queue = nil
}
