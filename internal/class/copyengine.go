package class

// Copy-engine methods.
const (
	CopySetSemaphoreA       = 0x0240
	CopySetSemaphoreB       = 0x0244
	CopySetSemaphorePayload = 0x0248
	CopyLaunchDma           = 0x0300
	CopyOffsetInUpper       = 0x0400
	CopyOffsetInLower       = 0x0404
	CopyOffsetOutUpper      = 0x0408
	CopyOffsetOutLower      = 0x040C
	CopyPitchIn             = 0x0410
	CopyPitchOut            = 0x0414
	CopyLineLengthIn        = 0x0418
	CopyLineCount           = 0x041C
	CopySetRemapConstA      = 0x0700
	CopySetRemapConstB      = 0x0704
	CopySetRemapComponents  = 0x0708
)

// LaunchDma fields.
const (
	DataTransferNone         = 0
	DataTransferPipelined    = 1
	DataTransferNonPipelined = 2

	SemaphoreNone           = 0
	SemaphoreReleaseOneWord = 1
)

// LaunchDma describes a copy-engine launch.
type LaunchDma struct {
	DataTransfer  uint32
	FlushEnable   bool
	SemaphoreType uint32
	SrcPitch      bool
	DstPitch      bool
	MultiLine     bool
	RemapEnable   bool
}

// Encode packs the launch into its method data.
func (l LaunchDma) Encode() uint32 {
	w := l.DataTransfer&3 | (l.SemaphoreType&3)<<3
	w |= flag(l.FlushEnable, 2)
	w |= flag(l.SrcPitch, 7)
	w |= flag(l.DstPitch, 8)
	w |= flag(l.MultiLine, 9)
	w |= flag(l.RemapEnable, 10)
	return w
}

// DecodeLaunchDma unpacks method data.
func DecodeLaunchDma(w uint32) LaunchDma {
	return LaunchDma{
		DataTransfer:  w & 3,
		FlushEnable:   w&(1<<2) != 0,
		SemaphoreType: (w >> 3) & 3,
		SrcPitch:      w&(1<<7) != 0,
		DstPitch:      w&(1<<8) != 0,
		MultiLine:     w&(1<<9) != 0,
		RemapEnable:   w&(1<<10) != 0,
	}
}

// Remap component sources.
const (
	RemapSrcX    = 0
	RemapSrcY    = 1
	RemapSrcZ    = 2
	RemapSrcW    = 3
	RemapConstA  = 4
	RemapConstB  = 5
	RemapNoWrite = 6
)

// RemapComponents describes how each output element is assembled.
type RemapComponents struct {
	DstX, DstY, DstZ, DstW uint32
	// ComponentSize is the component width in bytes: 1, 2, 3 or 4.
	ComponentSize uint32
	NumSrc        uint32
	NumDst        uint32
}

// Encode packs the remap description.
func (r RemapComponents) Encode() uint32 {
	return r.DstX&7 |
		(r.DstY&7)<<4 |
		(r.DstZ&7)<<8 |
		(r.DstW&7)<<12 |
		((r.ComponentSize-1)&3)<<16 |
		((r.NumSrc-1)&3)<<20 |
		((r.NumDst-1)&3)<<24
}

// DecodeRemapComponents unpacks method data.
func DecodeRemapComponents(w uint32) RemapComponents {
	return RemapComponents{
		DstX:          w & 7,
		DstY:          (w >> 4) & 7,
		DstZ:          (w >> 8) & 7,
		DstW:          (w >> 12) & 7,
		ComponentSize: (w>>16)&3 + 1,
		NumSrc:        (w>>20)&3 + 1,
		NumDst:        (w>>24)&3 + 1,
	}
}

// ElementSize returns the bytes written per element.
func (r RemapComponents) ElementSize() uint32 {
	return r.ComponentSize * r.NumDst
}

func flag(b bool, bit uint) uint32 {
	if b {
		return 1 << bit
	}
	return 0
}
