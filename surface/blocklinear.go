// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

// GOB geometry: the minimal addressable block of the tiled layout.
const (
	GOBWidth  = 64 // bytes
	GOBHeight = 8  // rows
	GOBSize   = GOBWidth * GOBHeight
)

// Geometry addresses the pixels of one array layer.
type Geometry struct {
	Layout Layout

	// Pitch is the row pitch in bytes.
	Pitch uint32

	// Rows and Slices are the padded height and depth.
	Rows   uint32
	Slices uint32

	LogBlockWidth, LogBlockHeight, LogBlockDepth uint32
}

// BlockWidthBytes returns the width of a block in bytes.
func (g Geometry) BlockWidthBytes() uint32 { return GOBWidth << g.LogBlockWidth }

// BlockHeightRows returns the height of a block in rows.
func (g Geometry) BlockHeightRows() uint32 { return GOBHeight << g.LogBlockHeight }

// BlockDepthSlices returns the depth of a block in slices.
func (g Geometry) BlockDepthSlices() uint32 { return 1 << g.LogBlockDepth }

// BlockSize returns the size of a block in bytes.
func (g Geometry) BlockSize() uint64 {
	return uint64(GOBSize) << (g.LogBlockWidth + g.LogBlockHeight + g.LogBlockDepth)
}

// RowGranularity returns the number of rows a clear rectangle must be
// aligned to so it never splits a tiling row.
func (g Geometry) RowGranularity() uint32 {
	if g.Layout == LayoutTiled {
		return g.BlockHeightRows()
	}
	return 1
}

// LayerSize returns the bytes of one array layer.
func (g Geometry) LayerSize() uint64 {
	return uint64(g.Pitch) * uint64(g.Rows) * uint64(g.Slices)
}

// Offset returns the byte offset of byte column x in row y of slice z,
// relative to the start of the layer.
func (g Geometry) Offset(x, y, z uint32) uint64 {
	if g.Layout != LayoutTiled {
		return (uint64(z)*uint64(g.Rows)+uint64(y))*uint64(g.Pitch) + uint64(x)
	}

	gx := uint32(1) << g.LogBlockWidth
	gy := uint32(1) << g.LogBlockHeight
	gz := uint32(1) << g.LogBlockDepth

	blocksPerRow := uint64(g.Pitch / g.BlockWidthBytes())
	blocksPerCol := uint64(g.Rows / g.BlockHeightRows())

	bx := uint64(x / g.BlockWidthBytes())
	by := uint64(y / g.BlockHeightRows())
	bz := uint64(z / gz)
	block := (bz*blocksPerCol+by)*blocksPerRow + bx

	gobX := (x / GOBWidth) % gx
	gobY := (y / GOBHeight) % gy
	gobZ := z % gz
	gob := (gobX*gz+gobZ)*gy + gobY

	gobsPerBlock := uint64(gx * gy * gz)
	return (block*gobsPerBlock+uint64(gob))*GOBSize + uint64(gobOffset(x%GOBWidth, y%GOBHeight))
}

// gobOffset swizzles a byte inside one GOB: 16-byte sectors of two rows,
// interleaved in 32-byte halves.
func gobOffset(x, y uint32) uint32 {
	return (x/32)*256 + (y/2)*64 + ((x%32)/16)*32 + (y%2)*16 + x%16
}
