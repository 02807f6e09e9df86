package surfacefill

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/internal/cache"
	"github.com/gogpu/surfacefill/surface"
)

// engineFiller holds the state shared by fillers that submit work through a
// channel: the channel with one engine class bound, an address space with a
// cache of mapped surfaces, and the completion tracker.
type engineFiller struct {
	dev      hal.Device
	cfg      Config
	class    hal.ClassID
	subch    uint32
	target   Target
	autoWait bool

	allocated bool
	ch        hal.Channel
	vas       hal.VASpace
	mapped    *cache.LRU[uint64, uint64] // surface handle -> VA
	track     *tracker
}

func newEngineFiller(dev hal.Device, cfg Config, class hal.ClassID, subch uint32) engineFiller {
	cfg = cfg.withDefaults()
	return engineFiller{
		dev:      dev,
		cfg:      cfg,
		class:    class,
		subch:    subch,
		target:   Broadcast,
		autoWait: !cfg.DisableAutoWait,
	}
}

// Alloc acquires the address space, channel and completion semaphores.
func (e *engineFiller) Alloc() error {
	if e.allocated {
		return nil
	}
	vas, err := e.dev.AllocVASpace()
	if err != nil {
		return fmt.Errorf("%w: allocate address space: %w", ErrSoftware, err)
	}
	ch, err := e.dev.AllocChannel()
	if err != nil {
		_ = vas.Free()
		return fmt.Errorf("%w: allocate channel: %w", ErrSoftware, err)
	}
	track := newTracker(e.dev)
	if err := track.ensure(ch); err != nil {
		_ = ch.Free()
		_ = vas.Free()
		return fmt.Errorf("%w: %w", ErrSoftware, err)
	}
	ch.SetObject(e.subch, e.class)

	e.vas = vas
	e.ch = ch
	e.track = track
	e.mapped = cache.NewLRU[uint64, uint64](e.cfg.MappingCacheSize, func(handle, va uint64) {
		if err := vas.Unmap(va); err != nil {
			Logger().Warn("surfacefill: unmap failed", "handle", handle, "err", err)
		}
	})
	e.allocated = true
	return nil
}

// SetTarget waits for outstanding work, then selects t.
func (e *engineFiller) SetTarget(t Target) error {
	if err := t.validate(e.dev.NumSubdevices()); err != nil {
		return err
	}
	if err := e.Wait(context.Background()); err != nil {
		return err
	}
	e.target = t
	return nil
}

// SetAutoWait sets whether FillRange waits for completion.
func (e *engineFiller) SetAutoWait(enabled bool) { e.autoWait = enabled }

// Wait blocks until all submitted work has completed or the configured
// timeout elapses.
func (e *engineFiller) Wait(ctx context.Context) error {
	if !e.allocated {
		return nil
	}
	return e.track.wait(ctx, e.cfg.WaitTimeout)
}

// Cleanup waits for outstanding work and releases all resources.
func (e *engineFiller) Cleanup() error {
	if !e.allocated {
		return nil
	}
	var errs []error
	release := e.ch.Free
	if err := e.Wait(context.Background()); err != nil {
		// Work that never completed is dropped, not waited for.
		errs = append(errs, err)
		release = e.ch.Abandon
	}
	// The channel is released before its semaphores.
	errs = append(errs, release(), e.track.free())
	e.mapped.Purge()
	errs = append(errs, e.vas.Free())

	e.allocated = false
	e.ch, e.vas, e.mapped, e.track = nil, nil, nil, nil

	err := errors.Join(errs...)
	if err != nil {
		Logger().Warn("surfacefill: cleanup", "class", e.class, "err", err)
	}
	return err
}

// mapSurface returns the address of s in the filler's address space. When
// the mapping cache is full the least recently used surface is unmapped,
// after waiting for work that may still reference it.
func (e *engineFiller) mapSurface(ctx context.Context, s *surface.Surface) (uint64, error) {
	if va, ok := e.mapped.Get(s.Handle); ok {
		return va, nil
	}
	if e.mapped.Full() {
		if err := e.Wait(ctx); err != nil {
			return 0, err
		}
	}
	va, err := e.vas.Map(s)
	if err != nil {
		return 0, fmt.Errorf("%w: map %v: %w", ErrSoftware, s, err)
	}
	e.mapped.Add(s.Handle, va)
	return va, nil
}

// begin prepares a submission: resources, surface address and mask.
func (e *engineFiller) begin(ctx context.Context, s *surface.Surface) (uint64, error) {
	if err := e.Alloc(); err != nil {
		return 0, err
	}
	va, err := e.mapSurface(ctx, s)
	if err != nil {
		return 0, err
	}
	e.ch.SetSubdeviceMask(e.target.mask(e.dev.NumSubdevices()))
	return va, nil
}

// finish emits the completion releases, flushes and, with auto-wait,
// waits for completion.
func (e *engineFiller) finish(ctx context.Context, release releaseFunc) error {
	e.track.emit(e.ch, e.target.subdevices(e.dev.NumSubdevices()), release)
	if err := e.ch.Flush(); err != nil {
		return fmt.Errorf("%w: flush: %w", ErrSoftware, err)
	}
	if e.autoWait {
		return e.Wait(ctx)
	}
	return nil
}
