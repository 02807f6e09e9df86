package commands

import (
	"bytes"
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/spf13/pflag"

	"github.com/gogpu/surfacefill/sim"
	"github.com/gogpu/surfacefill/surface"
)

// surfaceFlags describe the surface a command allocates.
type surfaceFlags struct {
	width, height, layers uint32
	bpp                   uint32
	tiled                 bool
	logBlockHeight        uint32
	compressed            bool
	buffer                bool
	coherent              bool
	hidden, extra         uint64
	poison                uint8
}

func (f *surfaceFlags) register(fs *pflag.FlagSet) {
	fs.Uint32Var(&f.width, "width", 256, "surface width in pixels")
	fs.Uint32Var(&f.height, "height", 256, "surface height in pixels")
	fs.Uint32Var(&f.layers, "layers", 1, "array layers")
	fs.Uint32Var(&f.bpp, "bpp", 4, "bytes per pixel")
	fs.BoolVar(&f.tiled, "tiled", false, "block-linear layout")
	fs.Uint32Var(&f.logBlockHeight, "log-block-height", 4, "block height exponent in GOBs (tiled)")
	fs.BoolVar(&f.compressed, "compressed", false, "compressible memory")
	fs.BoolVar(&f.buffer, "buffer", false, "generic buffer instead of an image")
	fs.BoolVar(&f.coherent, "coherent", false, "coherent system memory instead of device-local")
	fs.Uint64Var(&f.hidden, "hidden", 0, "hidden prefix bytes")
	fs.Uint64Var(&f.extra, "extra", 0, "extra prefix bytes")
	fs.Uint8Var(&f.poison, "poison", 0, "initial byte value of the allocation")
}

func (f *surfaceFlags) descriptor() surface.Descriptor {
	d := surface.Descriptor{
		Label:         "cli",
		Size:          gputypes.Extent3D{Width: f.width, Height: f.height, DepthOrArrayLayers: f.layers},
		BytesPerPixel: f.bpp,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageTextureBinding,
		Layout:        surface.LayoutLinear,
		Location:      surface.LocationDeviceLocal,
		HiddenSize:    f.hidden,
		ExtraSize:     f.extra,
		Compressed:    f.compressed,
	}
	if f.tiled {
		d.Layout = surface.LayoutTiled
		d.LogBlockHeight = f.logBlockHeight
	}
	if f.buffer {
		d.BufferUsage = gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	}
	if f.coherent {
		d.Location = surface.LocationCoherent
	}
	return d
}

// allocate creates the surface on dev and writes the poison byte to every
// device instance.
func (f *surfaceFlags) allocate(dev *sim.Device) (*surface.Surface, error) {
	s, err := surface.New(f.descriptor())
	if err != nil {
		return nil, err
	}
	if err := dev.Alloc(s); err != nil {
		return nil, fmt.Errorf("allocating %v: %w", s, err)
	}
	if f.poison != 0 {
		junk := bytes.Repeat([]byte{f.poison}, int(s.AllocSize()))
		for i := range dev.NumSubdevices() {
			if err := dev.Write(s, i, 0, junk); err != nil {
				return nil, err
			}
		}
	}
	return s, nil
}
