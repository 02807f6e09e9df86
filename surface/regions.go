// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import "fmt"

// Region is a rectangle of one slice of one array layer, in bytes and rows.
type Region struct {
	Layer, Z uint32

	// X and Width are in bytes; Y and Height in rows.
	X, Y          uint32
	Width, Height uint32
}

// Regions decomposes the allocation byte range [offset, offset+size) into
// the rectangles it covers. Tiled ranges must be GOB aligned relative to the
// data offset; linear ranges may start and end mid-row.
//
// The rectangles cover exactly the range, each byte once.
func (s *Surface) Regions(offset, size uint64) ([]Region, error) {
	if !s.Contains(offset, size) {
		return nil, fmt.Errorf("%w: [%#x, +%#x)", ErrRangeOutOfBounds, offset, size)
	}
	rel := offset - s.DataOffset()
	if size == 0 {
		return nil, nil
	}
	if s.IsTiled() {
		if rel%GOBSize != 0 || size%GOBSize != 0 {
			return nil, fmt.Errorf("%w: [%#x, +%#x)", ErrRangeNotAligned, offset, size)
		}
		return s.tiledRegions(rel/GOBSize, (rel+size)/GOBSize), nil
	}
	return s.linearRegions(rel, rel+size), nil
}

func (s *Surface) linearRegions(start, end uint64) []Region {
	var out []Region
	pitch := uint64(s.Pitch)
	rows := uint64(s.AlignedHeight)
	for o := start; o < end; {
		layer := o / s.ArrayPitch
		lo := o % s.ArrayPitch
		row := lo / pitch
		x := lo % pitch
		z := row / rows
		y := row % rows

		if x != 0 || end-o < pitch {
			w := min(pitch-x, end-o)
			out = append(out, Region{
				Layer: uint32(layer), Z: uint32(z),
				X: uint32(x), Y: uint32(y), Width: uint32(w), Height: 1,
			})
			o += w
			continue
		}

		n := min((end-o)/pitch, rows-y)
		out = append(out, Region{
			Layer: uint32(layer), Z: uint32(z),
			Y: uint32(y), Width: s.Pitch, Height: uint32(n),
		})
		o += n * pitch
	}
	return out
}

// tiledRegions walks GOB indexes [g, end). Runs of whole block rows become
// full-pitch rectangles; everything else becomes GOB columns.
func (s *Surface) tiledRegions(g, end uint64) []Region {
	geo := s.Geometry()
	gx := uint64(1) << s.LogBlockWidth
	gy := uint64(1) << s.LogBlockHeight
	gz := uint64(1) << s.LogBlockDepth
	gobsPerBlock := gx * gy * gz
	blocksPerRow := uint64(s.Pitch / geo.BlockWidthBytes())
	blocksPerCol := uint64(s.AlignedHeight / geo.BlockHeightRows())
	gobsPerBlockRow := gobsPerBlock * blocksPerRow
	gobsPerLayer := s.ArrayPitch / GOBSize
	blockRows := uint64(geo.BlockHeightRows())

	var out []Region
	for g < end {
		layer := g / gobsPerLayer
		gl := g % gobsPerLayer
		block := gl / gobsPerBlock
		gib := gl % gobsPerBlock
		bx := block % blocksPerRow
		by := (block / blocksPerRow) % blocksPerCol
		bz := block / blocksPerRow / blocksPerCol

		if gib == 0 && bx == 0 && end-g >= gobsPerBlockRow {
			n := min((end-g)/gobsPerBlockRow, blocksPerCol-by)
			for zz := uint64(0); zz < gz; zz++ {
				out = append(out, Region{
					Layer: uint32(layer), Z: uint32(bz*gz + zz),
					Y: uint32(by * blockRows), Width: s.Pitch, Height: uint32(n * blockRows),
				})
			}
			g += n * gobsPerBlockRow
			continue
		}

		gobY := gib % gy
		col := gib / gy
		gobZ := col % gz
		gobX := col / gz
		run := min(gy-gobY, end-g)
		out = append(out, Region{
			Layer: uint32(layer),
			Z:     uint32(bz*gz + gobZ),
			X:     uint32(bx*uint64(geo.BlockWidthBytes()) + gobX*GOBWidth),
			Y:     uint32(by*blockRows + gobY*GOBHeight),
			Width: GOBWidth, Height: uint32(run * GOBHeight),
		})
		g += run
	}
	return out
}
