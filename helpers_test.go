package surfacefill

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/sim"
	"github.com/gogpu/surfacefill/surface"
)

const poison = 0x5A

func newDevice(t *testing.T, cfg sim.Config) *sim.Device {
	t.Helper()
	d := sim.New(cfg)
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return d
}

// newPoisoned allocates a surface on d and fills every instance with poison.
func newPoisoned(t *testing.T, d *sim.Device, desc surface.Descriptor) *surface.Surface {
	t.Helper()
	s, err := surface.New(desc)
	if err != nil {
		t.Fatalf("surface.New: %v", err)
	}
	if err := d.Alloc(s); err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	junk := bytes.Repeat([]byte{poison}, int(s.AllocSize()))
	for i := 0; i < d.NumSubdevices(); i++ {
		if err := d.Write(s, i, 0, junk); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}
	return s
}

// expected returns the allocation contents after filling r over base.
func expected(base []byte, r Request) []byte {
	out := bytes.Clone(base)
	p := r.PatternBytes()
	for i := r.Offset; i < r.Offset+r.Size; i++ {
		out[i] = byte(r.Value >> (8 * ((i - r.Offset) % p)))
	}
	return out
}

// checkMemory compares the allocation of s on instance sub against want.
func checkMemory(t *testing.T, d *sim.Device, s *surface.Surface, sub int, want []byte) {
	t.Helper()
	got, err := d.ReadBack(s, sub)
	if err != nil {
		t.Fatalf("ReadBack: %v", err)
	}
	if i := firstDiff(got, want); i >= 0 {
		t.Fatalf("instance %d byte %#x = %#x, want %#x", sub, i, got[i], want[i])
	}
}

func firstDiff(a, b []byte) int {
	for i := range min(len(a), len(b)) {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return min(len(a), len(b))
	}
	return -1
}

func poisoned(s *surface.Surface) []byte {
	return bytes.Repeat([]byte{poison}, int(s.AllocSize()))
}

// Common surface shapes.
var (
	linearImage = surface.Descriptor{
		Label:  "linear",
		Size:   gputypes.NewExtent2D(100, 12),
		Format: gputypes.TextureFormatRGBA8Unorm,
		Usage:  gputypes.TextureUsageRenderAttachment,
	}
	tiledImage = surface.Descriptor{
		Label:          "tiled",
		Size:           gputypes.NewExtent3D(64, 40, 2),
		Format:         gputypes.TextureFormatRG32Uint,
		Usage:          gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
		Layout:         surface.LayoutTiled,
		LogBlockHeight: 1,
		ExtraSize:      512,
	}
	compressedImage = surface.Descriptor{
		Label:          "compressed",
		Size:           gputypes.NewExtent2D(256, 256),
		Format:         gputypes.TextureFormatR32Uint,
		Usage:          gputypes.TextureUsageRenderAttachment,
		Layout:         surface.LayoutTiled,
		LogBlockHeight: 4,
		Compressed:     true,
	}
	coherentBuffer = surface.Descriptor{
		Label:         "buffer",
		Size:          gputypes.NewExtent2D(333, 3),
		BytesPerPixel: 3,
		BufferUsage:   gputypes.BufferUsageStorage,
		Location:      surface.LocationCoherent,
		HiddenSize:    17,
	}
)

func describe(r Request) string {
	return fmt.Sprintf("%d-bit @%#x+%#x", r.BitWidth, r.Offset, r.Size)
}
