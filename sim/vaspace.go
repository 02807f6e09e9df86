// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"fmt"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/surface"
)

// vaMapping is a surface allocation mapped at a virtual address.
type vaMapping struct {
	base  uint64
	size  uint64
	alloc *allocation
	owner *vaSpace
}

// vaSpace groups the mappings created through one hal.VASpace.
type vaSpace struct {
	dev   *Device
	bases map[uint64]struct{}
	freed bool
}

// AllocVASpace creates an engine virtual address space.
func (d *Device) AllocVASpace() (hal.VASpace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	return &vaSpace{dev: d, bases: make(map[uint64]struct{})}, nil
}

func (v *vaSpace) Map(s *surface.Surface) (uint64, error) {
	d := v.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if v.freed {
		return 0, hal.ErrFreed
	}
	a, ok := d.allocs[s.Handle]
	if !ok || a.surf != s {
		return 0, fmt.Errorf("%w: %v", hal.ErrUnknownSurface, s)
	}
	size := s.AllocSize()
	va := d.allocVA(size)
	d.mappings[va] = &vaMapping{base: va, size: size, alloc: a, owner: v}
	v.bases[va] = struct{}{}
	return va, nil
}

func (v *vaSpace) Unmap(va uint64) error {
	d := v.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := v.bases[va]; !ok {
		return fmt.Errorf("%w: va %#x not mapped", ErrBadAddress, va)
	}
	delete(v.bases, va)
	delete(d.mappings, va)
	return nil
}

func (v *vaSpace) Free() error {
	d := v.dev
	d.mu.Lock()
	defer d.mu.Unlock()

	if v.freed {
		return nil
	}
	for va := range v.bases {
		delete(d.mappings, va)
	}
	v.bases = nil
	v.freed = true
	return nil
}

// translate returns the allocation and allocation offset of [va, va+size).
// Caller must hold d.mu.
func (d *Device) translate(va, size uint64) (*allocation, uint64, error) {
	for base, m := range d.mappings {
		if va >= base && va-base <= m.size && size <= m.size-(va-base) {
			return m.alloc, va - base, nil
		}
	}
	return nil, 0, fmt.Errorf("%w: [%#x, +%#x)", ErrBadAddress, va, size)
}
