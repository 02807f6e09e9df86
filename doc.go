// Package surfacefill writes repeating bit patterns into accelerator
// surfaces.
//
// # Overview
//
// A fill is described by a [Request]: a value of 8, 16, 24, 32 or 64 bits
// repeated over a byte range of a [surface.Surface]. Three strategies can
// execute it:
//
//   - [MappedFiller] writes through a CPU mapping of the surface memory.
//   - [CopyEngineFiller] programs the copy engine to write remap constants.
//   - [RasterClearFiller] clears the covered pixel rectangles with the
//     raster engine, using tag-only fast clears on compressed surfaces.
//
// [OptimalFiller] validates the request and picks the first strategy that
// supports it, in the order configured by [Config.Strategies].
//
// # Quick Start
//
//	f := surfacefill.NewOptimalFiller(dev, surfacefill.DefaultConfig())
//	defer f.Cleanup()
//
//	start, end := s.FillableRange()
//	err := f.FillRange(ctx, s, surfacefill.Request{
//	    Value:    0xFF00FF00,
//	    BitWidth: 32,
//	    Offset:   start,
//	    Size:     end - start,
//	})
//
// # Completion
//
// Engine fillers are asynchronous: FillRange returns after submitting work,
// and the accelerator releases a completion semaphore per device instance
// when it finishes. With auto-wait enabled (the default) FillRange blocks
// until then; otherwise call Wait.
//
// # Device Instances
//
// A device may consist of several linked instances. [Broadcast] (the
// default target) fills every instance; [Subdevice] selects one.
//
// # Logging
//
// The package is silent by default. See [SetLogger].
package surfacefill
