// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface describes memory surfaces owned by a graphics accelerator.
//
// A Surface is a descriptor, not an allocation: it records the geometry of an
// allocated region (width, height, depth, array size, native pixel width), its
// memory layout and location, and the prefix bytes that precede the pixel data.
// The allocator that owns the memory assigns the Handle; fill engines only read
// the descriptor.
//
// # Layouts
//
// Two layouts are supported:
//
//   - LayoutLinear: rows stored one after another, Pitch bytes apart.
//   - LayoutTiled: block-linear storage built from GOBs (64 bytes x 8 rows).
//     GOBs are grouped into blocks of (1<<LogBlockWidth) x (1<<LogBlockHeight)
//     x (1<<LogBlockDepth) GOBs and blocks are stored row by row.
//
// # Addressing
//
// Fill offsets are raw allocation byte offsets, in linear address order, for
// both layouts. Geometry.Offset maps a pixel coordinate to its byte offset and
// Surface.Regions maps a GOB-aligned byte range back to the pixel rectangles
// it covers, which is what a raster engine needs to clear exactly that range.
//
//	s, err := surface.New(surface.Descriptor{
//	    Size:   gputypes.NewExtent2D(256, 256),
//	    Format: gputypes.TextureFormatRGBA8Unorm,
//	    Layout: surface.LayoutTiled,
//	    LogBlockHeight: 4,
//	})
//	start, end := s.FillableRange()
package surface
