package surfacefill

import (
	"context"
	"math"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/internal/class"
	"github.com/gogpu/surfacefill/surface"
)

// CopyEngineFiller fills by launching the copy engine with remapping
// enabled, so every destination element is assembled from constants.
type CopyEngineFiller struct {
	engineFiller
}

// NewCopyEngineFiller creates a copy-engine filler for dev. Resources are
// allocated on first use.
func NewCopyEngineFiller(dev hal.Device, cfg Config) *CopyEngineFiller {
	return &CopyEngineFiller{
		engineFiller: newEngineFiller(dev, cfg, hal.ClassCopyEngine, hal.SubchannelCopyEngine),
	}
}

// Name returns StrategyCopyEngine.
func (f *CopyEngineFiller) Name() string { return StrategyCopyEngine }

// IsSupported reports whether r can be written with remap constants:
// widths of 8, 16, 32 or 64 bits on a device with a copy engine.
func (f *CopyEngineFiller) IsSupported(s *surface.Surface, r Request) bool {
	if validateRequest(s, r) != nil {
		return false
	}
	if r.BitWidth == 24 {
		return false
	}
	return f.dev.HasClass(hal.ClassCopyEngine)
}

// FillRange submits the fill in chunks of at most Config.MaxCopyChunk bytes.
func (f *CopyEngineFiller) FillRange(ctx context.Context, s *surface.Surface, r Request) error {
	if err := validateRequest(s, r); err != nil {
		return err
	}
	if !f.IsSupported(s, r) {
		return unsupported(f, s, r)
	}
	if r.Size == 0 {
		return nil
	}

	va, err := f.begin(ctx, s)
	if err != nil {
		return err
	}

	constA, constB, rc := remapFor(r)
	ch, sub := f.ch, f.subch
	if r.BitWidth == 64 {
		ch.Write(sub, class.CopySetRemapConstA, constA, constB)
	} else {
		ch.Write(sub, class.CopySetRemapConstA, constA)
	}
	ch.Write(sub, class.CopySetRemapComponents, rc.Encode())

	elem := r.PatternBytes()
	chunk := min(f.cfg.MaxCopyChunk, elem*math.MaxUint32) / elem * elem
	if chunk == 0 {
		chunk = elem
	}
	launch := class.LaunchDma{
		DataTransfer: class.DataTransferNonPipelined,
		FlushEnable:  true,
		SrcPitch:     true,
		DstPitch:     true,
		RemapEnable:  true,
	}.Encode()

	chunks := 0
	end := r.Offset + r.Size
	for off := r.Offset; off < end; {
		n := min(chunk, end-off)
		dst := va + off
		ch.Write(sub, class.CopyOffsetOutUpper, uint32(dst>>32), uint32(dst))
		ch.Write(sub, class.CopyLineLengthIn, uint32(n/elem), 1)
		ch.Write(sub, class.CopyLaunchDma, launch)
		off += n
		chunks++
	}
	Logger().Debug("surfacefill: copy engine fill", "surface", s.Label, "request", r, "chunks", chunks)

	return f.finish(ctx, func(addr uint64, payload uint32) {
		ch.Write(sub, class.CopySetSemaphoreA, uint32(addr>>32), uint32(addr), payload)
		ch.Write(sub, class.CopyLaunchDma, class.LaunchDma{
			DataTransfer:  class.DataTransferNone,
			FlushEnable:   true,
			SemaphoreType: class.SemaphoreReleaseOneWord,
		}.Encode())
	})
}

// remapFor returns the remap constants and component layout writing r's
// value once per element.
func remapFor(r Request) (constA, constB uint32, rc class.RemapComponents) {
	rc = class.RemapComponents{
		DstX:   class.RemapConstA,
		DstY:   class.RemapNoWrite,
		DstZ:   class.RemapNoWrite,
		DstW:   class.RemapNoWrite,
		NumSrc: 1,
		NumDst: 1,
	}
	constA = uint32(r.Value)
	switch r.BitWidth {
	case 8:
		rc.ComponentSize = 1
	case 16:
		rc.ComponentSize = 2
	case 32:
		rc.ComponentSize = 4
	case 64:
		constB = uint32(r.Value >> 32)
		rc.ComponentSize = 4
		rc.DstY = class.RemapConstB
		rc.NumSrc, rc.NumDst = 2, 2
	}
	return constA, constB, rc
}

var _ Filler = (*CopyEngineFiller)(nil)
