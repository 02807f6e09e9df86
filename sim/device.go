// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/internal/parallel"
	"github.com/gogpu/surfacefill/surface"
)

// Device errors.
var (
	// ErrClosed is returned when using a device after Close.
	ErrClosed = errors.New("sim: device closed")

	// ErrAlreadyAllocated is returned by Alloc for a surface with a handle.
	ErrAlreadyAllocated = errors.New("sim: surface already allocated")

	// ErrBadAddress is reported when an engine addresses unmapped memory.
	ErrBadAddress = errors.New("sim: bad address")

	// ErrMalformedSegment is reported for a truncated or unknown method header.
	ErrMalformedSegment = errors.New("sim: malformed segment")

	// ErrBadClear is reported for a clear the raster engine cannot execute.
	ErrBadClear = errors.New("sim: invalid clear")
)

// Limits and defaults.
const (
	// MaxSubdevices is the largest broadcast group the subdevice mask can select.
	MaxSubdevices = 12

	// DefaultClearTableSlots is the default number of clear-color table entries.
	DefaultClearTableSlots = 4

	// DefaultName is the adapter name reported by Info.
	DefaultName = "surfacefill software accelerator"

	// vaBase is the first virtual address handed out.
	vaBase = 0x1_0000_0000

	// vaAlign is the alignment of every virtual address range.
	vaAlign = 1 << 16
)

// Config holds configuration for creating a Device.
type Config struct {
	// Name is the adapter name. Defaults to DefaultName.
	Name string

	// Subdevices is the number of device instances. Defaults to 1 if <= 0,
	// capped at MaxSubdevices.
	Subdevices int

	// Classes lists the available engine classes. nil means every class.
	Classes []hal.ClassID

	// ClearTableSlots is the number of clear-color table entries.
	// 0 means DefaultClearTableSlots; negative means no table.
	ClearTableSlots int

	// Latency delays execution of every flushed segment.
	Latency time.Duration

	// VidmemNotMappable makes device-local memory invisible to the CPU.
	VidmemNotMappable bool
}

// Stats counts executed work.
type Stats struct {
	// Segments is the number of flushed segments executed.
	Segments uint64

	// Abandoned is the number of flushed segments dropped by Abandon.
	Abandoned uint64

	// CopyLaunches is the number of copy-engine launches with a data transfer.
	CopyLaunches uint64

	// Clears is the number of clear commands, FastClears the tag-only ones.
	Clears     uint64
	FastClears uint64

	// Releases is the number of semaphore releases per device instance.
	Releases []uint64

	// Faults is the number of methods that could not be executed.
	Faults uint64

	// Mappings is the number of CPU mappings created.
	Mappings uint64
}

// Device is a software accelerator.
//
// Device is safe for concurrent use.
type Device struct {
	name        string
	subdevices  int
	classes     map[hal.ClassID]bool
	latency     time.Duration
	vidmemNoMap bool
	table       *clearTable

	// pool runs the per-instance work of broadcast methods. nil for a
	// single instance.
	pool *parallel.Pool

	// gate is held for reading while executing and for writing by Pause
	// while it waits for admitted work.
	gate sync.RWMutex

	pauseMu sync.Mutex
	resumed chan struct{} // non-nil while paused

	mu          sync.Mutex
	closed      bool
	nextHandle  uint64
	nextVA      uint64
	allocs      map[uint64]*allocation
	mappings    map[uint64]*vaMapping // by base VA
	semaphores  map[uint64]*semaphore // by address
	channels    map[*channel]struct{}
	releases    []atomic.Uint64
	segments    atomic.Uint64
	abandoned   atomic.Uint64
	launches    atomic.Uint64
	clears      atomic.Uint64
	fastClears  atomic.Uint64
	faults      atomic.Uint64
	cpuMappings atomic.Uint64
}

// New creates a device.
func New(config Config) *Device {
	n := config.Subdevices
	if n <= 0 {
		n = 1
	}
	if n > MaxSubdevices {
		n = MaxSubdevices
	}

	name := config.Name
	if name == "" {
		name = DefaultName
	}

	classes := make(map[hal.ClassID]bool)
	if config.Classes == nil {
		classes[hal.ClassCopyEngine] = true
		classes[hal.ClassRaster] = true
	}
	for _, c := range config.Classes {
		classes[c] = true
	}

	d := &Device{
		name:        name,
		subdevices:  n,
		classes:     classes,
		latency:     config.Latency,
		vidmemNoMap: config.VidmemNotMappable,
		nextHandle:  1,
		nextVA:      vaBase,
		allocs:      make(map[uint64]*allocation),
		mappings:    make(map[uint64]*vaMapping),
		semaphores:  make(map[uint64]*semaphore),
		channels:    make(map[*channel]struct{}),
		releases:    make([]atomic.Uint64, n),
	}

	slots := config.ClearTableSlots
	if slots == 0 {
		slots = DefaultClearTableSlots
	}
	if slots > 0 {
		d.table = newClearTable(slots)
	}
	if n > 1 {
		d.pool = parallel.NewPool(n)
	}
	return d
}

// Info describes the adapter.
func (d *Device) Info() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.name, Type: gpucontext.AdapterTypeSoftware}
}

// NumSubdevices returns the number of device instances.
func (d *Device) NumSubdevices() int { return d.subdevices }

// HasClass reports whether the engine class is available.
func (d *Device) HasClass(c hal.ClassID) bool { return d.classes[c] }

// ClearColorTable returns the clear-color table, or nil when disabled.
func (d *Device) ClearColorTable() hal.ClearColorTable {
	if d.table == nil {
		return nil
	}
	return d.table
}

// Alloc allocates memory for s on every device instance and sets s.Handle.
// Memory starts zeroed.
func (d *Device) Alloc(s *surface.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return ErrClosed
	}
	if s.Handle != 0 {
		return fmt.Errorf("%w: handle %d", ErrAlreadyAllocated, s.Handle)
	}
	s.Handle = d.nextHandle
	d.nextHandle++
	d.allocs[s.Handle] = newAllocation(s, d.subdevices)
	return nil
}

// Free releases the memory of s and clears its handle.
func (d *Device) Free(s *surface.Surface) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.allocs[s.Handle]; !ok {
		return fmt.Errorf("%w: handle %d", hal.ErrUnknownSurface, s.Handle)
	}
	delete(d.allocs, s.Handle)
	s.Handle = 0
	return nil
}

// ReadBack returns a copy of the allocation of s on device instance subdev,
// with compressed tiles resolved.
func (d *Device) ReadBack(s *surface.Surface, subdev int) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, err := d.lookup(s, subdev)
	if err != nil {
		return nil, err
	}
	size := uint64(len(a.mem[subdev]))
	if err := a.resolve(subdev, 0, size, d.table); err != nil {
		return nil, err
	}
	out := make([]byte, size)
	copy(out, a.mem[subdev])
	return out, nil
}

// Write stores data at offset of s's allocation on device instance subdev,
// bypassing the engines.
func (d *Device) Write(s *surface.Surface, subdev int, offset uint64, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, err := d.lookup(s, subdev)
	if err != nil {
		return err
	}
	end := offset + uint64(len(data))
	if end > uint64(len(a.mem[subdev])) || end < offset {
		return fmt.Errorf("%w: [%#x, +%#x)", ErrBadAddress, offset, len(data))
	}
	if err := a.resolve(subdev, offset, end, d.table); err != nil {
		return err
	}
	copy(a.mem[subdev][offset:end], data)
	return nil
}

// Tagged returns the number of GOBs of s on subdev whose content lives in
// the clear-color table instead of memory.
func (d *Device) Tagged(s *surface.Surface, subdev int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	a, err := d.lookup(s, subdev)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, t := range a.tags[subdev] {
		if t >= 0 {
			n++
		}
	}
	return n, nil
}

// Pause stops execution of flushed work until Resume. It returns once work
// already executing completes.
func (d *Device) Pause() {
	d.pauseMu.Lock()
	if d.resumed == nil {
		d.resumed = make(chan struct{})
	}
	d.pauseMu.Unlock()

	d.gate.Lock()
	d.gate.Unlock()
}

// Resume restarts execution after Pause.
func (d *Device) Resume() {
	d.pauseMu.Lock()
	defer d.pauseMu.Unlock()

	if d.resumed != nil {
		close(d.resumed)
		d.resumed = nil
	}
}

// enter blocks while the device is paused, then takes d.gate for reading.
// It returns false if quit is closed first.
func (d *Device) enter(quit <-chan struct{}) bool {
	for {
		d.pauseMu.Lock()
		resumed := d.resumed
		if resumed == nil {
			d.gate.RLock()
			d.pauseMu.Unlock()
			return true
		}
		d.pauseMu.Unlock()

		select {
		case <-resumed:
		case <-quit:
			return false
		}
	}
}

// Stats returns counters of executed work.
func (d *Device) Stats() Stats {
	s := Stats{
		Segments:     d.segments.Load(),
		Abandoned:    d.abandoned.Load(),
		CopyLaunches: d.launches.Load(),
		Clears:       d.clears.Load(),
		FastClears:   d.fastClears.Load(),
		Faults:       d.faults.Load(),
		Mappings:     d.cpuMappings.Load(),
		Releases:     make([]uint64, d.subdevices),
	}
	for i := range d.releases {
		s.Releases[i] = d.releases[i].Load()
	}
	return s
}

// Close frees every channel, waiting for submitted work to drain.
func (d *Device) Close() error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return nil
	}
	d.closed = true
	chans := make([]*channel, 0, len(d.channels))
	for ch := range d.channels {
		chans = append(chans, ch)
	}
	d.mu.Unlock()

	var errs []error
	for _, ch := range chans {
		errs = append(errs, ch.Free())
	}
	if d.pool != nil {
		d.pool.Close()
	}
	return errors.Join(errs...)
}

// lookup returns the allocation of s. Caller must hold d.mu.
func (d *Device) lookup(s *surface.Surface, subdev int) (*allocation, error) {
	a, ok := d.allocs[s.Handle]
	if !ok || a.surf != s {
		return nil, fmt.Errorf("%w: %v", hal.ErrUnknownSurface, s)
	}
	if subdev < 0 || subdev >= d.subdevices {
		return nil, fmt.Errorf("%w: subdevice %d", hal.ErrOutOfResources, subdev)
	}
	return a, nil
}

// allocVA reserves size bytes of virtual address space. Caller must hold d.mu.
func (d *Device) allocVA(size uint64) uint64 {
	va := d.nextVA
	d.nextVA += (size + vaAlign - 1) / vaAlign * vaAlign
	if size == 0 {
		d.nextVA += vaAlign
	}
	return va
}

// fault records a method that could not be executed.
func (d *Device) fault(err error) {
	d.faults.Add(1)
	slogger().Warn("sim: fault", "err", err)
}

// Compile-time interface check.
var _ hal.Device = (*Device)(nil)
