package class

// Raster class methods.
const (
	RasterSetReportSemaphoreA = 0x1B00
	RasterSetReportSemaphoreB = 0x1B04
	RasterSetReportSemaphoreC = 0x1B08
	RasterSetReportSemaphoreD = 0x1B0C

	RasterSetColorTargetA      = 0x0800 // address upper
	RasterSetColorTargetB      = 0x0804 // address lower
	RasterSetColorTargetWidth  = 0x0808
	RasterSetColorTargetHeight = 0x080C
	RasterSetColorTargetFormat = 0x0810
	RasterSetColorTargetMemory = 0x0814
	RasterSetColorTargetDepth  = 0x0818
	RasterSetColorTargetPitch  = 0x081C

	RasterSetClipHorizontal = 0x0CC0
	RasterSetClipVertical   = 0x0CC4

	RasterSetClearRaw0   = 0x0D80
	RasterSetClearFloat0 = 0x0D90

	RasterSetClearColorIndex = 0x0DA0
	RasterClearSurface       = 0x19D0
)

// ReportSemaphoreRelease is the D-word operation releasing the payload.
const ReportSemaphoreRelease = 0

// ColorTargetMemory describes the layout of a color target.
type ColorTargetMemory struct {
	PitchLinear                   bool
	LogBlockWidth, LogBlockHeight uint32
	LogBlockDepth                 uint32
	Compressed                    bool
}

// Encode packs the memory description.
func (m ColorTargetMemory) Encode() uint32 {
	return m.LogBlockWidth&0xF |
		(m.LogBlockHeight&0xF)<<4 |
		(m.LogBlockDepth&0xF)<<8 |
		flag(m.PitchLinear, 12) |
		flag(m.Compressed, 13)
}

// DecodeColorTargetMemory unpacks method data.
func DecodeColorTargetMemory(w uint32) ColorTargetMemory {
	return ColorTargetMemory{
		LogBlockWidth:  w & 0xF,
		LogBlockHeight: (w >> 4) & 0xF,
		LogBlockDepth:  (w >> 8) & 0xF,
		PitchLinear:    w&(1<<12) != 0,
		Compressed:     w&(1<<13) != 0,
	}
}

// Clip packs an origin and extent for SetClipHorizontal/Vertical.
func Clip(origin, extent uint32) uint32 {
	return origin&0xFFFF | extent<<16
}

// DecodeClip unpacks a clip word.
func DecodeClip(w uint32) (origin, extent uint32) {
	return w & 0xFFFF, w >> 16
}

// ClearSurface describes a clear command.
type ClearSurface struct {
	R, G, B, A bool
	ZSlice     uint32
	// Fast clears only update compression tags to the selected clear color index.
	Fast bool
}

// Encode packs the clear command.
func (c ClearSurface) Encode() uint32 {
	return flag(c.R, 0) | flag(c.G, 1) | flag(c.B, 2) | flag(c.A, 3) |
		(c.ZSlice&0xFFF)<<4 |
		flag(c.Fast, 31)
}

// DecodeClearSurface unpacks method data.
func DecodeClearSurface(w uint32) ClearSurface {
	return ClearSurface{
		R:      w&1 != 0,
		G:      w&2 != 0,
		B:      w&4 != 0,
		A:      w&8 != 0,
		ZSlice: (w >> 4) & 0xFFF,
		Fast:   w&(1<<31) != 0,
	}
}

// Components returns the number of enabled channels.
func (c ClearSurface) Components() int {
	n := 0
	for _, b := range []bool{c.R, c.G, c.B, c.A} {
		if b {
			n++
		}
	}
	return n
}
