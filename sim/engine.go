// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package sim

import (
	"encoding/binary"
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/internal/class"
	"github.com/gogpu/surfacefill/surface"
)

// launchDma executes a copy-engine launch on every selected instance.
// Caller holds d.mu.
func (d *Device) launchDma(mask uint32, regs map[uint32]uint32, l class.LaunchDma) {
	if l.DataTransfer != class.DataTransferNone {
		d.launches.Add(1)
	}
	d.forEach(mask, func(sub int) {
		if l.DataTransfer != class.DataTransferNone {
			if err := d.copyLines(sub, regs, l); err != nil {
				d.fault(err)
			}
		}
		if l.SemaphoreType == class.SemaphoreReleaseOneWord {
			addr := uint64(regs[class.CopySetSemaphoreA])<<32 | uint64(regs[class.CopySetSemaphoreB])
			d.release(sub, addr, regs[class.CopySetSemaphorePayload])
		}
	})
}

// copyLines performs the data transfer of a launch. With remapping enabled
// every destination element is assembled from the remap constants and the
// line length counts elements; otherwise it counts bytes copied from the
// source.
func (d *Device) copyLines(sub int, regs map[uint32]uint32, l class.LaunchDma) error {
	dstVA := uint64(regs[class.CopyOffsetOutUpper])<<32 | uint64(regs[class.CopyOffsetOutLower])
	lineLen := uint64(regs[class.CopyLineLengthIn])
	lines := uint64(1)
	if l.MultiLine {
		lines = uint64(regs[class.CopyLineCount])
	}
	pitchOut := uint64(regs[class.CopyPitchOut])
	if lineLen == 0 || lines == 0 {
		return nil
	}

	var elem []byte
	lineBytes := lineLen
	if l.RemapEnable {
		rc := class.DecodeRemapComponents(regs[class.CopySetRemapComponents])
		var err error
		if elem, err = remapElement(rc, regs[class.CopySetRemapConstA], regs[class.CopySetRemapConstB]); err != nil {
			return err
		}
		lineBytes = lineLen * uint64(rc.ElementSize())
	}
	span := (lines-1)*pitchOut + lineBytes

	dst, dstOff, err := d.translate(dstVA, span)
	if err != nil {
		return err
	}
	if err := dst.resolve(sub, dstOff, dstOff+span, d.table); err != nil {
		return err
	}
	mem := dst.mem[sub]

	if l.RemapEnable {
		for i := uint64(0); i < lines; i++ {
			o := dstOff + i*pitchOut
			fillPattern(mem[o:o+lineBytes], elem)
		}
		return nil
	}

	srcVA := uint64(regs[class.CopyOffsetInUpper])<<32 | uint64(regs[class.CopyOffsetInLower])
	pitchIn := uint64(regs[class.CopyPitchIn])
	src, srcOff, err := d.translate(srcVA, (lines-1)*pitchIn+lineBytes)
	if err != nil {
		return err
	}
	if err := src.resolve(sub, srcOff, srcOff+(lines-1)*pitchIn+lineBytes, d.table); err != nil {
		return err
	}
	for i := uint64(0); i < lines; i++ {
		s := srcOff + i*pitchIn
		o := dstOff + i*pitchOut
		copy(mem[o:o+lineBytes], src.mem[sub][s:s+lineBytes])
	}
	return nil
}

// remapElement builds the bytes of one destination element. Components
// marked no-write are not supported for fills and are rejected.
func remapElement(rc class.RemapComponents, constA, constB uint32) ([]byte, error) {
	var word [4]byte
	out := make([]byte, 0, rc.ElementSize())
	dsts := []uint32{rc.DstX, rc.DstY, rc.DstZ, rc.DstW}
	for i := uint32(0); i < rc.NumDst; i++ {
		switch dsts[i] {
		case class.RemapConstA:
			binary.LittleEndian.PutUint32(word[:], constA)
		case class.RemapConstB:
			binary.LittleEndian.PutUint32(word[:], constB)
		default:
			return nil, fmt.Errorf("%w: remap source %d without source buffer", ErrBadAddress, dsts[i])
		}
		out = append(out, word[:rc.ComponentSize]...)
	}
	return out, nil
}

// clearSurface executes a raster clear on every selected instance.
// Caller holds d.mu.
func (d *Device) clearSurface(mask uint32, regs map[uint32]uint32, cs class.ClearSurface) {
	d.clears.Add(1)
	if cs.Fast {
		d.fastClears.Add(1)
	}
	d.forEach(mask, func(sub int) {
		if err := d.clearTarget(sub, regs, cs); err != nil {
			d.fault(err)
		}
	})
}

func (d *Device) clearTarget(sub int, regs map[uint32]uint32, cs class.ClearSurface) error {
	va := uint64(regs[class.RasterSetColorTargetA])<<32 | uint64(regs[class.RasterSetColorTargetB])
	format := gputypes.TextureFormat(regs[class.RasterSetColorTargetFormat])
	mem := class.DecodeColorTargetMemory(regs[class.RasterSetColorTargetMemory])
	width := regs[class.RasterSetColorTargetWidth]
	height := regs[class.RasterSetColorTargetHeight]
	depth := max(regs[class.RasterSetColorTargetDepth], 1)

	bpp := surface.BytesPerPixel(format)
	if bpp == 0 {
		return fmt.Errorf("%w: format %v", ErrBadClear, format)
	}

	geo := surface.Geometry{
		Layout:         surface.LayoutTiled,
		Pitch:          regs[class.RasterSetColorTargetPitch],
		Rows:           height,
		Slices:         depth,
		LogBlockWidth:  mem.LogBlockWidth,
		LogBlockHeight: mem.LogBlockHeight,
		LogBlockDepth:  mem.LogBlockDepth,
	}
	if mem.PitchLinear {
		geo.Layout = surface.LayoutLinear
		geo.LogBlockWidth, geo.LogBlockHeight, geo.LogBlockDepth = 0, 0, 0
	}
	if width*bpp > geo.Pitch {
		return fmt.Errorf("%w: %d pixels of %d bytes exceed pitch %d", ErrBadClear, width, bpp, geo.Pitch)
	}

	x0, w := class.DecodeClip(regs[class.RasterSetClipHorizontal])
	y0, h := class.DecodeClip(regs[class.RasterSetClipVertical])
	if x0+w > width || y0+h > height || cs.ZSlice >= depth {
		return fmt.Errorf("%w: clip %d+%d x %d+%d z %d outside %dx%dx%d",
			ErrBadClear, x0, w, y0, h, cs.ZSlice, width, height, depth)
	}

	alloc, base, err := d.translate(va, geo.LayerSize())
	if err != nil {
		return err
	}

	if cs.Fast {
		return d.fastClear(sub, alloc, base, geo, bpp, regs[class.RasterSetClearColorIndex], x0, y0, w, h, cs.ZSlice)
	}

	raw := [4]uint32{
		regs[class.RasterSetClearRaw0], regs[class.RasterSetClearRaw0+4],
		regs[class.RasterSetClearRaw0+8], regs[class.RasterSetClearRaw0+12],
	}
	pixel := pixelBytes(raw, format)
	comp := min(bpp, 4)
	enabled := []bool{cs.R, cs.G, cs.B, cs.A}

	buf := alloc.mem[sub]
	for y := y0; y < y0+h; y++ {
		for x := x0; x < x0+w; x++ {
			off := base + geo.Offset(x*bpp, y, cs.ZSlice)
			if err := alloc.resolve(sub, off, off+uint64(bpp), d.table); err != nil {
				return err
			}
			for c := uint32(0); c < bpp/comp; c++ {
				if enabled[c] {
					o := off + uint64(c*comp)
					copy(buf[o:o+uint64(comp)], pixel[c*comp:(c+1)*comp])
				}
			}
		}
	}
	return nil
}

// fastClear points every GOB of the clip rectangle at the clear table entry.
func (d *Device) fastClear(sub int, alloc *allocation, base uint64, geo surface.Geometry,
	bpp, idx, x0, y0, w, h, z uint32) error {
	if alloc.tags == nil || geo.Layout != surface.LayoutTiled {
		return fmt.Errorf("%w: fast clear of uncompressed surface", ErrBadClear)
	}
	xb, wb := x0*bpp, w*bpp
	if xb%surface.GOBWidth != 0 || wb%surface.GOBWidth != 0 || y0%surface.GOBHeight != 0 || h%surface.GOBHeight != 0 {
		return fmt.Errorf("%w: fast clear not GOB aligned", ErrBadClear)
	}
	if d.table == nil {
		return fmt.Errorf("%w: no clear table", ErrBadClear)
	}
	if _, _, ok := d.table.lookup(idx); !ok {
		return fmt.Errorf("%w: clear table index %d", ErrBadClear, idx)
	}
	for y := y0; y < y0+h; y += surface.GOBHeight {
		for x := xb; x < xb+wb; x += surface.GOBWidth {
			if !alloc.setTag(sub, base+geo.Offset(x, y, z), idx) {
				return fmt.Errorf("%w: GOB outside tagged range", ErrBadClear)
			}
		}
	}
	return nil
}
