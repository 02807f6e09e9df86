// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"
	"sync/atomic"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/surface"
)

// CanMap reports whether memory in loc is CPU visible.
func (d *Device) CanMap(loc surface.Location) bool {
	return loc != surface.LocationDeviceLocal || !d.vidmemNoMap
}

// Map makes size bytes at offset of s's allocation on subdev CPU visible.
// Compressed tiles in the window are resolved first.
func (d *Device) Map(s *surface.Surface, subdev int, offset, size uint64) (hal.Mapping, error) {
	if !d.CanMap(s.Location) {
		return nil, fmt.Errorf("%w: %v memory", hal.ErrNotMappable, s.Location)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	a, err := d.lookup(s, subdev)
	if err != nil {
		return nil, err
	}
	mem := a.mem[subdev]
	end := offset + size
	if end > uint64(len(mem)) || end < offset {
		return nil, fmt.Errorf("%w: map [%#x, +%#x)", ErrBadAddress, offset, size)
	}
	if err := a.resolve(subdev, offset, end, d.table); err != nil {
		return nil, err
	}
	d.cpuMappings.Add(1)
	return &cpuMapping{buf: mem[offset:end:end], offset: offset}, nil
}

type cpuMapping struct {
	buf    []byte
	offset uint64
	gone   atomic.Bool
}

func (m *cpuMapping) Bytes() []byte { return m.buf }

func (m *cpuMapping) Offset() uint64 { return m.offset }

func (m *cpuMapping) Unmap() error {
	if m.gone.Swap(true) {
		return hal.ErrFreed
	}
	m.buf = nil
	return nil
}
