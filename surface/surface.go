// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"

	"github.com/gogpu/gputypes"
)

// Descriptor errors.
var (
	// ErrInvalidDimensions is returned when width, height, depth or array size is zero.
	ErrInvalidDimensions = errors.New("surface: invalid dimensions")

	// ErrInvalidPixelWidth is returned when neither a known format nor BytesPerPixel is given.
	ErrInvalidPixelWidth = errors.New("surface: invalid pixel width")

	// ErrInvalidPitch is returned when an explicit pitch is too small or misaligned.
	ErrInvalidPitch = errors.New("surface: invalid pitch")

	// ErrInvalidTiling is returned when tiling exponents are out of range.
	ErrInvalidTiling = errors.New("surface: invalid tiling parameters")

	// ErrRangeNotAligned is returned by Regions when a tiled range is not GOB aligned.
	ErrRangeNotAligned = errors.New("surface: range not aligned to tiling granularity")

	// ErrRangeOutOfBounds is returned when a byte range leaves the fillable range.
	ErrRangeOutOfBounds = errors.New("surface: range out of bounds")
)

// Layout is the memory arrangement of a surface.
type Layout uint8

const (
	// LayoutLinear stores rows consecutively (pitch-linear).
	LayoutLinear Layout = iota

	// LayoutTiled stores GOBs grouped into blocks (block-linear).
	LayoutTiled
)

// String returns the layout name.
func (l Layout) String() string {
	switch l {
	case LayoutLinear:
		return "Linear"
	case LayoutTiled:
		return "Tiled"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// Location is the memory-location class of a surface.
type Location uint8

const (
	// LocationDeviceLocal is accelerator-local video memory.
	LocationDeviceLocal Location = iota

	// LocationCoherent is host-visible, coherent system memory.
	LocationCoherent
)

// String returns the location name.
func (l Location) String() string {
	switch l {
	case LocationDeviceLocal:
		return "DeviceLocal"
	case LocationCoherent:
		return "Coherent"
	default:
		return fmt.Sprintf("Location(%d)", int(l))
	}
}

// Maximum tiling exponent (in GOBs) for any block dimension.
const MaxLogBlock = 5

// linearPitchAlign is the default pitch alignment of linear surfaces.
const linearPitchAlign = 64

// Descriptor describes a surface to construct with New.
type Descriptor struct {
	// Label is an optional debug label.
	Label string

	// Size is width, height and array layers. DepthOrArrayLayers is the
	// array size; use Depth for volume surfaces.
	Size gputypes.Extent3D

	// Depth is the number of slices of a volume surface (0 means 1).
	Depth uint32

	// Format determines BytesPerPixel when it is a known format.
	Format gputypes.TextureFormat

	// BytesPerPixel is the native pixel width when Format is undefined.
	BytesPerPixel uint32

	// Usage marks an image surface. Render attachment or texture binding
	// usage makes the surface renderable/sampleable.
	Usage gputypes.TextureUsage

	// BufferUsage marks a generic buffer. Non-zero BufferUsage wins over Usage.
	BufferUsage gputypes.BufferUsage

	Layout   Layout
	Location Location

	// Pitch overrides the computed row pitch of a linear surface (0 = computed).
	Pitch uint32

	// HiddenSize and ExtraSize are prefix bytes fills never touch.
	HiddenSize uint64
	ExtraSize  uint64

	// Tiling exponents in GOBs, used when Layout is LayoutTiled.
	LogBlockWidth  uint32
	LogBlockHeight uint32
	LogBlockDepth  uint32

	// Compressed marks compressible memory eligible for fast clears.
	Compressed bool
}

// Surface is an allocated memory region seen through its geometry.
//
// A Surface is immutable after New except for Handle, which the owning
// allocator sets once.
type Surface struct {
	// Handle identifies the allocation to the owning device (0 = unallocated).
	Handle uint64

	Label string

	Width, Height, Depth, ArraySize uint32

	// BytesPerPixel is the native pixel width in bytes.
	BytesPerPixel uint32

	Format      gputypes.TextureFormat
	Usage       gputypes.TextureUsage
	BufferUsage gputypes.BufferUsage

	Layout   Layout
	Location Location

	HiddenSize uint64
	ExtraSize  uint64

	LogBlockWidth, LogBlockHeight, LogBlockDepth uint32

	Compressed bool

	// Pitch is the row pitch in bytes (block-width aligned when tiled).
	Pitch uint32

	// AlignedHeight and AlignedDepth are rows and slices including tiling padding.
	AlignedHeight uint32
	AlignedDepth  uint32

	// ArrayPitch is the byte distance between array layers.
	ArrayPitch uint64
}

// New validates d and computes the surface geometry.
func New(d Descriptor) (*Surface, error) {
	if d.Size.Width == 0 || d.Size.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Size.Width, d.Size.Height)
	}
	layers := d.Size.DepthOrArrayLayers
	if layers == 0 {
		layers = 1
	}
	depth := d.Depth
	if depth == 0 {
		depth = 1
	}

	bpp := BytesPerPixel(d.Format)
	if bpp == 0 {
		bpp = d.BytesPerPixel
	}
	if bpp == 0 {
		return nil, fmt.Errorf("%w: format %v", ErrInvalidPixelWidth, d.Format)
	}

	s := &Surface{
		Label:          d.Label,
		Width:          d.Size.Width,
		Height:         d.Size.Height,
		Depth:          depth,
		ArraySize:      layers,
		BytesPerPixel:  bpp,
		Format:         d.Format,
		Usage:          d.Usage,
		BufferUsage:    d.BufferUsage,
		Layout:         d.Layout,
		Location:       d.Location,
		HiddenSize:     d.HiddenSize,
		ExtraSize:      d.ExtraSize,
		LogBlockWidth:  d.LogBlockWidth,
		LogBlockHeight: d.LogBlockHeight,
		LogBlockDepth:  d.LogBlockDepth,
		Compressed:     d.Compressed,
	}

	rowBytes := d.Size.Width * bpp
	switch d.Layout {
	case LayoutLinear:
		s.LogBlockWidth, s.LogBlockHeight, s.LogBlockDepth = 0, 0, 0
		s.Pitch = alignUp32(rowBytes, linearPitchAlign)
		if d.Pitch != 0 {
			if d.Pitch < rowBytes || d.Pitch%bpp != 0 {
				return nil, fmt.Errorf("%w: %d for row of %d bytes", ErrInvalidPitch, d.Pitch, rowBytes)
			}
			s.Pitch = d.Pitch
		}
		s.AlignedHeight = s.Height
		s.AlignedDepth = s.Depth
	case LayoutTiled:
		if d.LogBlockWidth > MaxLogBlock || d.LogBlockHeight > MaxLogBlock || d.LogBlockDepth > MaxLogBlock {
			return nil, fmt.Errorf("%w: block exponents %d/%d/%d",
				ErrInvalidTiling, d.LogBlockWidth, d.LogBlockHeight, d.LogBlockDepth)
		}
		g := s.Geometry()
		s.Pitch = alignUp32(rowBytes, g.BlockWidthBytes())
		s.AlignedHeight = alignUp32(s.Height, g.BlockHeightRows())
		s.AlignedDepth = alignUp32(s.Depth, g.BlockDepthSlices())
	default:
		return nil, fmt.Errorf("%w: unknown layout %v", ErrInvalidTiling, d.Layout)
	}

	s.ArrayPitch = uint64(s.Pitch) * uint64(s.AlignedHeight) * uint64(s.AlignedDepth)
	return s, nil
}

// BitsPerPixel returns the native pixel width in bits.
func (s *Surface) BitsPerPixel() uint32 {
	return s.BytesPerPixel * 8
}

// Extent returns the surface size in pixels and array layers.
func (s *Surface) Extent() gputypes.Extent3D {
	return gputypes.NewExtent3D(s.Width, s.Height, s.ArraySize)
}

// DataOffset returns the byte offset of the first pixel (the unfilled prefix).
func (s *Surface) DataOffset() uint64 {
	return s.HiddenSize + s.ExtraSize
}

// DataSize returns the number of pixel-data bytes across all array layers.
func (s *Surface) DataSize() uint64 {
	return s.ArrayPitch * uint64(s.ArraySize)
}

// AllocSize returns the total allocation size including the prefix.
func (s *Surface) AllocSize() uint64 {
	return s.DataOffset() + s.DataSize()
}

// FillableRange returns the half-open byte range fills may address.
func (s *Surface) FillableRange() (start, end uint64) {
	start = s.DataOffset()
	return start, start + s.DataSize()
}

// Contains reports whether [offset, offset+size) lies inside the fillable range.
func (s *Surface) Contains(offset, size uint64) bool {
	start, end := s.FillableRange()
	if offset < start || offset > end {
		return false
	}
	return size <= end-offset
}

// IsImage reports whether the surface is renderable or sampleable image data.
func (s *Surface) IsImage() bool {
	if s.BufferUsage != gputypes.BufferUsageNone {
		return false
	}
	return s.Usage.Contains(gputypes.TextureUsageRenderAttachment) ||
		s.Usage.Contains(gputypes.TextureUsageTextureBinding)
}

// IsTiled reports whether the surface uses the block-linear layout.
func (s *Surface) IsTiled() bool {
	return s.Layout == LayoutTiled
}

// Alignment returns the natural fill alignment: the GOB size when tiled,
// the pitch when linear.
func (s *Surface) Alignment() uint64 {
	if s.IsTiled() {
		return GOBSize
	}
	return uint64(s.Pitch)
}

// Geometry returns the addressing geometry of one array layer.
func (s *Surface) Geometry() Geometry {
	return Geometry{
		Layout:         s.Layout,
		Pitch:          s.Pitch,
		Rows:           s.AlignedHeight,
		Slices:         s.AlignedDepth,
		LogBlockWidth:  s.LogBlockWidth,
		LogBlockHeight: s.LogBlockHeight,
		LogBlockDepth:  s.LogBlockDepth,
	}
}

// PixelOffset returns the allocation byte offset of pixel (x, y, z) in layer.
func (s *Surface) PixelOffset(x, y, z, layer uint32) uint64 {
	return s.DataOffset() + uint64(layer)*s.ArrayPitch +
		s.Geometry().Offset(x*s.BytesPerPixel, y, z)
}

// String returns a short human-readable description.
func (s *Surface) String() string {
	return fmt.Sprintf("Surface[%q %dx%dx%d[%d] %dB/px %v %v]",
		s.Label, s.Width, s.Height, s.Depth, s.ArraySize, s.BytesPerPixel, s.Layout, s.Location)
}

func alignUp32(v, a uint32) uint32 {
	if a == 0 {
		return v
	}
	return (v + a - 1) / a * a
}
