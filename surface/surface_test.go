// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name           string
		desc           Descriptor
		wantErr        error
		wantBpp        uint32
		wantPitch      uint32
		wantRows       uint32
		wantArrayPitch uint64
	}{
		{
			name: "linear RGBA8",
			desc: Descriptor{
				Size:   gputypes.NewExtent2D(100, 10),
				Format: gputypes.TextureFormatRGBA8Unorm,
			},
			wantBpp:        4,
			wantPitch:      448, // 400 aligned to 64
			wantRows:       10,
			wantArrayPitch: 4480,
		},
		{
			name: "linear explicit pitch",
			desc: Descriptor{
				Size:          gputypes.NewExtent2D(16, 4),
				BytesPerPixel: 2,
				Pitch:         40,
			},
			wantBpp:        2,
			wantPitch:      40,
			wantRows:       4,
			wantArrayPitch: 160,
		},
		{
			name: "tiled pads to block",
			desc: Descriptor{
				Size:           gputypes.NewExtent2D(256, 100),
				Format:         gputypes.TextureFormatR32Uint,
				Layout:         LayoutTiled,
				LogBlockHeight: 2, // 32 rows
			},
			wantBpp:        4,
			wantPitch:      1024,
			wantRows:       128,
			wantArrayPitch: 1024 * 128,
		},
		{
			name:    "zero width",
			desc:    Descriptor{Size: gputypes.NewExtent2D(0, 10), BytesPerPixel: 4},
			wantErr: ErrInvalidDimensions,
		},
		{
			name:    "no pixel width",
			desc:    Descriptor{Size: gputypes.NewExtent2D(4, 4)},
			wantErr: ErrInvalidPixelWidth,
		},
		{
			name:    "pitch too small",
			desc:    Descriptor{Size: gputypes.NewExtent2D(16, 4), BytesPerPixel: 4, Pitch: 32},
			wantErr: ErrInvalidPitch,
		},
		{
			name: "block too tall",
			desc: Descriptor{
				Size: gputypes.NewExtent2D(16, 4), BytesPerPixel: 4,
				Layout: LayoutTiled, LogBlockHeight: MaxLogBlock + 1,
			},
			wantErr: ErrInvalidTiling,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.desc)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() unexpected error: %v", err)
			}
			if s.BytesPerPixel != tt.wantBpp {
				t.Errorf("BytesPerPixel = %d, want %d", s.BytesPerPixel, tt.wantBpp)
			}
			if s.Pitch != tt.wantPitch {
				t.Errorf("Pitch = %d, want %d", s.Pitch, tt.wantPitch)
			}
			if s.AlignedHeight != tt.wantRows {
				t.Errorf("AlignedHeight = %d, want %d", s.AlignedHeight, tt.wantRows)
			}
			if s.ArrayPitch != tt.wantArrayPitch {
				t.Errorf("ArrayPitch = %d, want %d", s.ArrayPitch, tt.wantArrayPitch)
			}
		})
	}
}

func TestFillableRange(t *testing.T) {
	s, err := New(Descriptor{
		Size:          gputypes.NewExtent3D(64, 8, 2),
		BytesPerPixel: 1,
		HiddenSize:    1024,
		ExtraSize:     512,
	})
	if err != nil {
		t.Fatal(err)
	}

	start, end := s.FillableRange()
	if start != 1536 {
		t.Errorf("start = %d, want 1536", start)
	}
	if end != 1536+2*64*8 {
		t.Errorf("end = %d, want %d", end, 1536+2*64*8)
	}
	if s.AllocSize() != end {
		t.Errorf("AllocSize = %d, want %d", s.AllocSize(), end)
	}

	cases := []struct {
		off, size uint64
		want      bool
	}{
		{start, end - start, true},
		{start, 0, true},
		{end, 0, true},
		{start - 1, 1, false},
		{end - 1, 2, false},
		{end + 1, 0, false},
		{start, ^uint64(0), false},
	}
	for _, c := range cases {
		if got := s.Contains(c.off, c.size); got != c.want {
			t.Errorf("Contains(%d, %d) = %v, want %v", c.off, c.size, got, c.want)
		}
	}
}

func TestIsImage(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		want bool
	}{
		{"render target", Descriptor{Usage: gputypes.TextureUsageRenderAttachment}, true},
		{"sampled", Descriptor{Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst}, true},
		{"copy only", Descriptor{Usage: gputypes.TextureUsageCopyDst}, false},
		{"buffer", Descriptor{
			Usage:       gputypes.TextureUsageRenderAttachment,
			BufferUsage: gputypes.BufferUsageStorage,
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.desc.Size = gputypes.NewExtent2D(4, 4)
			tt.desc.BytesPerPixel = 4
			s, err := New(tt.desc)
			if err != nil {
				t.Fatal(err)
			}
			if got := s.IsImage(); got != tt.want {
				t.Errorf("IsImage() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBytesPerPixel(t *testing.T) {
	tests := []struct {
		format gputypes.TextureFormat
		want   uint32
	}{
		{gputypes.TextureFormatR8Unorm, 1},
		{gputypes.TextureFormatRG8Uint, 2},
		{gputypes.TextureFormatBGRA8Unorm, 4},
		{gputypes.TextureFormatRGBA16Float, 8},
		{gputypes.TextureFormatRGBA32Float, 16},
		{gputypes.TextureFormatDepth24PlusStencil8, 0},
		{gputypes.TextureFormatUndefined, 0},
	}
	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			if got := BytesPerPixel(tt.format); got != tt.want {
				t.Errorf("BytesPerPixel(%v) = %d, want %d", tt.format, got, tt.want)
			}
		})
	}
}

func TestClearFormat(t *testing.T) {
	for _, bits := range []uint32{8, 16, 32, 64} {
		f, n := ClearFormat(bits)
		if f == gputypes.TextureFormatUndefined {
			t.Fatalf("ClearFormat(%d) undefined", bits)
		}
		if BytesPerPixel(f)*8 != bits {
			t.Errorf("ClearFormat(%d) = %v with %d bytes", bits, f, BytesPerPixel(f))
		}
		wantN := 1
		if bits == 64 {
			wantN = 2
		}
		if n != wantN {
			t.Errorf("ClearFormat(%d) components = %d, want %d", bits, n, wantN)
		}
	}
	if f, _ := ClearFormat(24); f != gputypes.TextureFormatUndefined {
		t.Errorf("ClearFormat(24) = %v, want undefined", f)
	}
}
