// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"sync/atomic"

	"github.com/gogpu/surfacefill/hal"
)

// semaphoreSize is the VA footprint of one semaphore.
const semaphoreSize = 16

type semaphore struct {
	dev     *Device
	addr    uint64
	subdev  int
	payload atomic.Uint32
	freed   atomic.Bool
}

// AllocSemaphore allocates a semaphore on device instance subdev.
func (d *Device) AllocSemaphore(_ hal.Channel, subdev int) (hal.Semaphore, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if subdev < 0 || subdev >= d.subdevices {
		return nil, hal.ErrOutOfResources
	}
	s := &semaphore{dev: d, addr: d.allocVA(semaphoreSize), subdev: subdev}
	d.semaphores[s.addr] = s
	return s, nil
}

func (s *semaphore) Address() uint64 { return s.addr }

func (s *semaphore) Value() uint32 { return s.payload.Load() }

func (s *semaphore) Free() error {
	if s.freed.Swap(true) {
		return nil
	}
	d := s.dev
	d.mu.Lock()
	delete(d.semaphores, s.addr)
	d.mu.Unlock()
	return nil
}

// release writes payload to the semaphore at addr if it lives on subdev.
// Caller must hold d.mu.
func (d *Device) release(subdev int, addr uint64, payload uint32) {
	s, ok := d.semaphores[addr]
	if !ok {
		d.fault(ErrBadAddress)
		return
	}
	if s.subdev != subdev {
		return
	}
	s.payload.Store(payload)
	d.releases[subdev].Add(1)
}
