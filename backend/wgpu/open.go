// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package wgpu

import (
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/heat/backend"
	"github.com/gogpu/heat/gpucore"
	"github.com/gogpu/heat/internal/logger"
)

func init() {
	backend.Register(backend.WGPU, func() (gpucore.Adapter, error) {
		a, err := Open()
		if err != nil {
			return nil, err
		}
		return a, nil
	})
}

// Open creates a standalone Vulkan device for compute. Discrete and
// integrated GPUs are preferred over software and virtual adapters.
func Open() (*Adapter, error) {
	b, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, ErrNoBackend
	}
	instance, err := b.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	a, err := openInstance(instance)
	if err != nil {
		instance.Destroy()
		return nil, err
	}
	return a, nil
}

func openInstance(instance hal.Instance) (*Adapter, error) {
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return nil, ErrNoAdapter
	}

	selected := &adapters[0]
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		return nil, fmt.Errorf("wgpu: open device %q: %w", selected.Info.Name, err)
	}

	a := newAdapter(openDev.Device, openDev.Queue, selected.Info.Name, limits)
	a.instance = instance
	if err := a.init(); err != nil {
		openDev.Device.Destroy()
		return nil, err
	}
	logger.Get().Info("wgpu: device opened", "adapter", selected.Info.Name, "type", selected.Info.DeviceType)
	return a, nil
}

// FromProvider wraps the device of a host application, such as a gogpu
// window. The provider must implement HalDevice() any and HalQueue() any
// returning hal.Device and hal.Queue. The device stays owned by the
// provider.
func FromProvider(provider gpucontext.DeviceProvider) (*Adapter, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("wgpu: provider HalDevice is not hal.Device: %w", ErrNilDevice)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("wgpu: provider HalQueue is not hal.Queue: %w", ErrNilDevice)
	}
	return New(device, queue)
}
