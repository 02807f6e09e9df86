// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/surface"
)

// noTag marks a GOB whose content is in memory.
const noTag = -1

// allocation is the memory of one surface on every device instance.
type allocation struct {
	surf *surface.Surface
	mem  [][]byte

	// tags holds one clear-color index per data GOB, per device instance.
	// nil unless the surface is tiled and compressed.
	tags [][]int32
}

func newAllocation(s *surface.Surface, subdevices int) *allocation {
	a := &allocation{
		surf: s,
		mem:  make([][]byte, subdevices),
	}
	size := s.AllocSize()
	for i := range a.mem {
		a.mem[i] = make([]byte, size)
	}
	if s.Compressed && s.IsTiled() {
		gobs := s.DataSize() / surface.GOBSize
		a.tags = make([][]int32, subdevices)
		for i := range a.tags {
			t := make([]int32, gobs)
			for g := range t {
				t[g] = noTag
			}
			a.tags[i] = t
		}
	}
	return a
}

// gobRange returns the data GOB indexes intersecting [start, end).
func (a *allocation) gobRange(start, end uint64) (first, last uint64, ok bool) {
	data := a.surf.DataOffset()
	if a.tags == nil || end <= data || start >= end {
		return 0, 0, false
	}
	if start < data {
		start = data
	}
	first = (start - data) / surface.GOBSize
	last = (end - data + surface.GOBSize - 1) / surface.GOBSize
	if n := uint64(len(a.tags[0])); last > n {
		last = n
	}
	return first, last, first < last
}

// resolve writes the clear color of every tagged GOB intersecting
// [start, end) on subdev back to memory and clears the tags.
func (a *allocation) resolve(subdev int, start, end uint64, table *clearTable) error {
	first, last, ok := a.gobRange(start, end)
	if !ok {
		return nil
	}
	tags := a.tags[subdev]
	data := a.surf.DataOffset()
	for g := first; g < last; g++ {
		if tags[g] == noTag {
			continue
		}
		if table == nil {
			return fmt.Errorf("%w: tagged GOB %d without clear table", ErrBadAddress, g)
		}
		raw, format, ok := table.lookup(uint32(tags[g]))
		if !ok {
			return fmt.Errorf("%w: clear table index %d", ErrBadAddress, tags[g])
		}
		off := data + g*surface.GOBSize
		fillPattern(a.mem[subdev][off:off+surface.GOBSize], pixelBytes(raw, format))
		tags[g] = noTag
	}
	return nil
}

// setTag points the data GOB containing offset at clear-table index idx.
func (a *allocation) setTag(subdev int, offset uint64, idx uint32) bool {
	first, _, ok := a.gobRange(offset, offset+1)
	if !ok {
		return false
	}
	a.tags[subdev][first] = int32(idx)
	return true
}

// pixelBytes returns the little-endian bytes of one pixel of format whose
// components are raw.
func pixelBytes(raw [4]uint32, format gputypes.TextureFormat) []byte {
	bpp := surface.BytesPerPixel(format)
	if bpp == 0 {
		bpp = 4
	}
	comp := min(bpp, 4)
	out := make([]byte, bpp)
	var word [4]byte
	for i := uint32(0); i < bpp/comp; i++ {
		binary.LittleEndian.PutUint32(word[:], raw[i])
		copy(out[i*comp:], word[:comp])
	}
	return out
}

// fillPattern repeats pattern over dst.
func fillPattern(dst, pattern []byte) {
	if len(pattern) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}
