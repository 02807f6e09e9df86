// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package hal

import (
	"errors"
	"fmt"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/surface"
)

// Collaborator errors.
var (
	// ErrNotMappable is returned when a surface cannot be CPU-mapped.
	ErrNotMappable = errors.New("hal: surface not mappable")

	// ErrUnknownSurface is returned for surfaces the device did not allocate.
	ErrUnknownSurface = errors.New("hal: unknown surface")

	// ErrFreed is returned when using an object after Free.
	ErrFreed = errors.New("hal: object already freed")

	// ErrOutOfResources is returned when an allocation cannot be satisfied.
	ErrOutOfResources = errors.New("hal: out of resources")
)

// ClassID identifies an engine class that can be bound on a subchannel.
type ClassID uint32

// Engine classes.
const (
	// ClassCopyEngine is the DMA copy engine with constant-remap fills.
	ClassCopyEngine ClassID = 0xC0B5

	// ClassRaster is the 3D raster engine used for surface clears.
	ClassRaster ClassID = 0xC097
)

// String returns the class name.
func (c ClassID) String() string {
	switch c {
	case ClassCopyEngine:
		return "CopyEngine"
	case ClassRaster:
		return "Raster"
	default:
		return fmt.Sprintf("Class(%#x)", uint32(c))
	}
}

// Subchannel assignments used by fillers.
const (
	SubchannelRaster     uint32 = 0
	SubchannelCopyEngine uint32 = 4
)

// Device is a logical accelerator.
type Device interface {
	Mapper

	// Info describes the adapter.
	Info() gpucontext.AdapterInfo

	// NumSubdevices returns the number of device instances in the group (>= 1).
	NumSubdevices() int

	// HasClass reports whether the engine class is available.
	HasClass(ClassID) bool

	// AllocChannel creates a submission channel.
	AllocChannel() (Channel, error)

	// AllocVASpace creates an engine virtual address space.
	AllocVASpace() (VASpace, error)

	// AllocSemaphore allocates a semaphore on device instance subdev,
	// visible to work submitted on ch.
	AllocSemaphore(ch Channel, subdev int) (Semaphore, error)

	// ClearColorTable returns the compression clear-color table, or nil
	// when the device has none.
	ClearColorTable() ClearColorTable
}

// Channel is an ordered method stream to the device. Methods written after
// Flush are not executed until the next Flush.
type Channel interface {
	// SetObject binds an engine class to a subchannel.
	SetObject(subch uint32, class ClassID)

	// Write appends an incrementing-method write of data starting at method.
	Write(subch, method uint32, data ...uint32)

	// SetSubdeviceMask restricts following methods to the device instances
	// whose bits are set in mask.
	SetSubdeviceMask(mask uint32)

	// Flush submits the methods written so far.
	Flush() error

	// Free waits for submitted work to drain and releases the channel.
	Free() error

	// Abandon releases the channel, discarding submitted work that has not
	// started executing. It returns once work already running completes.
	Abandon() error
}

// VASpace maps surfaces into an engine-visible address space.
type VASpace interface {
	// Map returns the virtual address of the start of s's allocation.
	Map(s *surface.Surface) (uint64, error)

	// Unmap releases a mapping returned by Map.
	Unmap(va uint64) error

	// Free releases the space and every remaining mapping.
	Free() error
}

// Semaphore is a 32-bit memory word the device releases on completion.
type Semaphore interface {
	// Address returns the engine-visible address of the payload.
	Address() uint64

	// Value returns the current payload.
	Value() uint32

	// Free releases the semaphore.
	Free() error
}

// Mapper provides CPU access to surface memory.
type Mapper interface {
	// CanMap reports whether memory in the given location can be CPU-mapped.
	CanMap(surface.Location) bool

	// Map makes size bytes at offset of s's allocation on device instance
	// subdev visible to the CPU.
	Map(s *surface.Surface, subdev int, offset, size uint64) (Mapping, error)
}

// Mapping is a CPU window into surface memory.
type Mapping interface {
	// Bytes returns the mapped window. Writes land in surface memory.
	Bytes() []byte

	// Offset returns the allocation offset of the first mapped byte.
	Offset() uint64

	// Unmap releases the window. The slice returned by Bytes becomes invalid.
	Unmap() error
}

// ClearColorTable holds the clear colors compressed surfaces may reference.
type ClearColorTable interface {
	// Acquire returns a slot holding raw for the given format, reusing an
	// existing slot or claiming a free one. ok is false when the table is full.
	Acquire(raw [4]uint32, format gputypes.TextureFormat) (index uint32, ok bool)
}

// BroadcastMask returns the subdevice mask selecting all n device instances.
func BroadcastMask(n int) uint32 {
	if n >= 32 {
		return ^uint32(0)
	}
	return uint32(1)<<uint(n) - 1
}
