// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

// expand returns every allocation byte offset covered by regions.
func expand(s *Surface, regions []Region) map[uint64]int {
	geo := s.Geometry()
	seen := make(map[uint64]int)
	for _, r := range regions {
		base := s.DataOffset() + uint64(r.Layer)*s.ArrayPitch
		for y := r.Y; y < r.Y+r.Height; y++ {
			for x := r.X; x < r.X+r.Width; x++ {
				seen[base+geo.Offset(x, y, r.Z)]++
			}
		}
	}
	return seen
}

func checkCoverage(t *testing.T, s *Surface, offset, size uint64) {
	t.Helper()
	regions, err := s.Regions(offset, size)
	if err != nil {
		t.Fatalf("Regions(%#x, %#x): %v", offset, size, err)
	}
	seen := expand(s, regions)
	if uint64(len(seen)) != size {
		t.Fatalf("Regions(%#x, %#x) covers %d bytes, want %d", offset, size, len(seen), size)
	}
	for o, n := range seen {
		if o < offset || o >= offset+size {
			t.Fatalf("Regions(%#x, %#x) covers %#x outside range", offset, size, o)
		}
		if n != 1 {
			t.Fatalf("Regions(%#x, %#x) covers %#x %d times", offset, size, o, n)
		}
	}
}

func TestGeometryOffsetBijective(t *testing.T) {
	descs := []Descriptor{
		{Size: gputypes.NewExtent2D(40, 5), BytesPerPixel: 4},
		{Size: gputypes.NewExtent2D(32, 16), BytesPerPixel: 4, Layout: LayoutTiled},
		{Size: gputypes.NewExtent2D(64, 40), BytesPerPixel: 2, Layout: LayoutTiled, LogBlockWidth: 1, LogBlockHeight: 1},
		{Size: gputypes.NewExtent2D(16, 8), Depth: 4, BytesPerPixel: 4, Layout: LayoutTiled, LogBlockDepth: 1},
	}
	for _, d := range descs {
		s, err := New(d)
		if err != nil {
			t.Fatal(err)
		}
		geo := s.Geometry()
		size := geo.LayerSize()
		seen := make([]bool, size)
		for z := uint32(0); z < s.AlignedDepth; z++ {
			for y := uint32(0); y < s.AlignedHeight; y++ {
				for x := uint32(0); x < s.Pitch; x++ {
					o := geo.Offset(x, y, z)
					if o >= size {
						t.Fatalf("%v: Offset(%d,%d,%d) = %d beyond layer size %d", s, x, y, z, o, size)
					}
					if seen[o] {
						t.Fatalf("%v: Offset(%d,%d,%d) = %d visited twice", s, x, y, z, o)
					}
					seen[o] = true
				}
			}
		}
	}
}

func TestGOBOffset(t *testing.T) {
	tests := []struct {
		x, y uint32
		want uint32
	}{
		{0, 0, 0},
		{15, 0, 15},
		{0, 1, 16},
		{16, 0, 32},
		{0, 2, 64},
		{32, 0, 256},
		{63, 7, 511},
	}
	for _, tt := range tests {
		if got := gobOffset(tt.x, tt.y); got != tt.want {
			t.Errorf("gobOffset(%d, %d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestRegionsLinear(t *testing.T) {
	s, err := New(Descriptor{
		Size:          gputypes.NewExtent3D(20, 6, 2),
		Depth:         2,
		BytesPerPixel: 4,
		HiddenSize:    64,
	})
	if err != nil {
		t.Fatal(err)
	}
	start, end := s.FillableRange()

	ranges := []struct{ off, size uint64 }{
		{start, end - start},
		{start + 3, 1},
		{start + 5, uint64(s.Pitch) * 3},
		{start + uint64(s.Pitch), uint64(s.Pitch) * 7},
		{end - 100, 100},
		{start + s.ArrayPitch - 10, 20},
	}
	for _, r := range ranges {
		checkCoverage(t, s, r.off, r.size)
	}
}

func TestRegionsTiled(t *testing.T) {
	descs := []Descriptor{
		{Size: gputypes.NewExtent2D(64, 64), BytesPerPixel: 4, Layout: LayoutTiled, LogBlockHeight: 1},
		{Size: gputypes.NewExtent3D(32, 24, 2), BytesPerPixel: 4, Layout: LayoutTiled, LogBlockWidth: 1, ExtraSize: 512},
		{Size: gputypes.NewExtent2D(16, 16), Depth: 4, BytesPerPixel: 4, Layout: LayoutTiled, LogBlockDepth: 1, LogBlockHeight: 1},
	}
	for _, d := range descs {
		s, err := New(d)
		if err != nil {
			t.Fatal(err)
		}
		start, end := s.FillableRange()
		total := (end - start) / GOBSize
		for first := uint64(0); first < total; first += 3 {
			for _, n := range []uint64{1, 2, 5, total - first} {
				if first+n > total {
					continue
				}
				checkCoverage(t, s, start+first*GOBSize, n*GOBSize)
			}
		}
	}
}

func TestRegionsErrors(t *testing.T) {
	tiled, err := New(Descriptor{Size: gputypes.NewExtent2D(64, 8), BytesPerPixel: 4, Layout: LayoutTiled})
	if err != nil {
		t.Fatal(err)
	}
	start, end := tiled.FillableRange()

	tests := []struct {
		name      string
		off, size uint64
		want      error
	}{
		{"unaligned offset", start + 4, GOBSize, ErrRangeNotAligned},
		{"unaligned size", start, 100, ErrRangeNotAligned},
		{"past end", start, end - start + GOBSize, ErrRangeOutOfBounds},
		{"before start", start - 1, 1, ErrRangeOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tiled.Regions(tt.off, tt.size); !errors.Is(err, tt.want) {
				t.Errorf("Regions() error = %v, want %v", err, tt.want)
			}
		})
	}

	regions, err := tiled.Regions(start, 0)
	if err != nil || regions != nil {
		t.Errorf("Regions(start, 0) = %v, %v; want nil, nil", regions, err)
	}
}
