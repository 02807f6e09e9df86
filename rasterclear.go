package surfacefill

import (
	"context"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/internal/class"
	"github.com/gogpu/surfacefill/surface"
)

// Raster engine limits on a color target.
const (
	maxClipOrigin = 0xFFFF
	maxZSlice     = 0xFFF
)

// RasterClearFiller fills image surfaces by clearing the pixel rectangles
// covering the range with the raster engine. On compressed tiled surfaces
// all-zero and all-one values use fast clears, which only update
// compression tags.
type RasterClearFiller struct {
	engineFiller
}

// NewRasterClearFiller creates a raster-clear filler for dev. The filler
// supports nothing unless Config.EnableRasterClear is set.
func NewRasterClearFiller(dev hal.Device, cfg Config) *RasterClearFiller {
	return &RasterClearFiller{
		engineFiller: newEngineFiller(dev, cfg, hal.ClassRaster, hal.SubchannelRaster),
	}
}

// Name returns StrategyRasterClear.
func (f *RasterClearFiller) Name() string { return StrategyRasterClear }

// IsSupported reports whether r covers whole GOBs of an image surface the
// raster engine can clear.
func (f *RasterClearFiller) IsSupported(s *surface.Surface, r Request) bool {
	if !f.cfg.EnableRasterClear || !f.dev.HasClass(hal.ClassRaster) {
		return false
	}
	if validateRequest(s, r) != nil || !s.IsImage() {
		return false
	}
	if s.Layout != surface.LayoutLinear && s.Layout != surface.LayoutTiled {
		return false
	}
	_, bits, err := ResizeFillValue(r.Value, r.BitWidth, s.BitsPerPixel())
	if err != nil {
		return false
	}
	if format, _ := surface.ClearFormat(bits); format == gputypes.TextureFormatUndefined {
		return false
	}
	bpp := uint64(s.BytesPerPixel)
	if r.Size%bpp != 0 {
		return false
	}
	if s.DataOffset()%surface.GOBSize != 0 || r.Offset%surface.GOBSize != 0 || r.Size%surface.GOBSize != 0 {
		return false
	}
	return s.Pitch/s.BytesPerPixel <= maxClipOrigin &&
		s.AlignedHeight <= maxClipOrigin &&
		s.AlignedDepth <= maxZSlice+1
}

// FillRange clears the rectangles covering the range.
func (f *RasterClearFiller) FillRange(ctx context.Context, s *surface.Surface, r Request) error {
	if err := validateRequest(s, r); err != nil {
		return err
	}
	if !f.IsSupported(s, r) {
		return unsupported(f, s, r)
	}
	if r.Size == 0 {
		return nil
	}

	value, bits, err := ResizeFillValue(r.Value, r.BitWidth, s.BitsPerPixel())
	if err != nil {
		return err
	}
	format, comps := surface.ClearFormat(bits)
	regions, err := s.Regions(r.Offset, r.Size)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSoftware, err)
	}

	va, err := f.begin(ctx, s)
	if err != nil {
		return err
	}

	raw, color := clearColors(value, bits)
	fast, index := f.fastClear(s, value, bits, raw, format)

	ch, sub := f.ch, f.subch
	ch.Write(sub, class.RasterSetClearRaw0, raw[:]...)
	ch.Write(sub, class.RasterSetClearFloat0,
		math.Float32bits(float32(color.R)), math.Float32bits(float32(color.G)),
		math.Float32bits(float32(color.B)), math.Float32bits(float32(color.A)))
	if fast {
		ch.Write(sub, class.RasterSetClearColorIndex, index)
	}

	bpp := s.BytesPerPixel
	chunkW, chunkH := f.chunkSize(s)
	clear := class.ClearSurface{R: true, G: comps == 2, Fast: fast}

	layer := uint32(math.MaxUint32)
	rects := 0
	for _, reg := range regions {
		if reg.Layer != layer {
			layer = reg.Layer
			f.setColorTarget(s, va+s.DataOffset()+uint64(layer)*s.ArrayPitch, format)
		}
		clear.ZSlice = reg.Z
		x0, w := reg.X/bpp, reg.Width/bpp
		for y := reg.Y; y < reg.Y+reg.Height; y += chunkH {
			h := min(chunkH, reg.Y+reg.Height-y)
			for x := x0; x < x0+w; x += chunkW {
				cw := min(chunkW, x0+w-x)
				ch.Write(sub, class.RasterSetClipHorizontal, class.Clip(x, cw), class.Clip(y, h))
				ch.Write(sub, class.RasterClearSurface, clear.Encode())
				rects++
			}
		}
	}
	Logger().Debug("surfacefill: raster clear fill",
		"surface", s.Label, "request", r, "rects", rects, "fast", fast)

	return f.finish(ctx, func(addr uint64, payload uint32) {
		ch.Write(sub, class.RasterSetReportSemaphoreA,
			uint32(addr>>32), uint32(addr), payload, class.ReportSemaphoreRelease)
	})
}

// fastClear decides whether the fill can use tag-only clears and acquires
// the clear-table slot. A full table falls back to ordinary clears.
func (f *RasterClearFiller) fastClear(s *surface.Surface, value uint64, bits uint32,
	raw [4]uint32, format gputypes.TextureFormat) (bool, uint32) {
	if !s.Compressed || !s.IsTiled() {
		return false, 0
	}
	if value != 0 && value != widthMask(bits) {
		return false, 0
	}
	table := f.dev.ClearColorTable()
	if table == nil {
		return false, 0
	}
	index, ok := table.Acquire(raw, format)
	if !ok {
		Logger().Debug("surfacefill: clear color table full, using ordinary clears",
			"surface", s.Label, "value", value)
		return false, 0
	}
	return true, index
}

// setColorTarget programs the color target as the array layer at va.
func (f *RasterClearFiller) setColorTarget(s *surface.Surface, va uint64, format gputypes.TextureFormat) {
	mem := class.ColorTargetMemory{
		PitchLinear: !s.IsTiled(),
		Compressed:  s.Compressed,
	}
	if s.IsTiled() {
		mem.LogBlockWidth = s.LogBlockWidth
		mem.LogBlockHeight = s.LogBlockHeight
		mem.LogBlockDepth = s.LogBlockDepth
	}
	f.ch.Write(f.subch, class.RasterSetColorTargetA,
		uint32(va>>32), uint32(va),
		s.Pitch/s.BytesPerPixel,
		s.AlignedHeight,
		uint32(format),
		mem.Encode(),
		s.AlignedDepth,
		s.Pitch)
}

// chunkSize returns the largest clear rectangle in pixels. On tiled
// surfaces the width keeps whole GOBs and the height whole block rows.
func (f *RasterClearFiller) chunkSize(s *surface.Surface) (w, h uint32) {
	w, h = f.cfg.MaxClearWidth, f.cfg.MaxClearHeight
	if s.IsTiled() {
		gobPixels := surface.GOBWidth / s.BytesPerPixel
		w = max(w/gobPixels, 1) * gobPixels
	}
	g := s.Geometry().RowGranularity()
	h = max(h/g, 1) * g
	return w, h
}

// clearColors returns the raw clear components and their normalized float
// equivalents for a value of the given width.
func clearColors(value uint64, bits uint32) ([4]uint32, gputypes.Color) {
	var raw [4]uint32
	var color gputypes.Color
	switch bits {
	case 64:
		raw[0], raw[1] = uint32(value), uint32(value>>32)
		color.R = float64(raw[0]) / math.MaxUint32
		color.G = float64(raw[1]) / math.MaxUint32
	default:
		raw[0] = uint32(value)
		color.R = float64(raw[0]) / float64(widthMask(bits))
	}
	return raw, color
}

var _ Filler = (*RasterClearFiller)(nil)
