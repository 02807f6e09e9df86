package surfacefill

import (
	"context"

	"github.com/gogpu/surfacefill/surface"
)

// Filler executes fill requests with one strategy.
//
// A Filler is used from one goroutine at a time. Resources are acquired
// lazily by the first fill (or Alloc) and released by Cleanup; a cleaned
// up filler may be used again.
type Filler interface {
	// Name returns the strategy name.
	Name() string

	// IsSupported reports whether the filler can execute r on s. It never
	// fails and has no side effects.
	IsSupported(s *surface.Surface, r Request) bool

	// FillRange validates r and fills. Engine fillers return after
	// submission unless auto-wait is enabled.
	FillRange(ctx context.Context, s *surface.Surface, r Request) error

	// SetTarget selects the device instances later fills write. Outstanding
	// work is waited for first.
	SetTarget(t Target) error

	// SetAutoWait sets whether FillRange waits for completion.
	SetAutoWait(enabled bool)

	// Wait blocks until all submitted work has completed.
	Wait(ctx context.Context) error

	// Cleanup waits for outstanding work and releases every resource.
	// It is idempotent.
	Cleanup() error

	// Alloc acquires the filler's resources ahead of the first fill.
	Alloc() error
}
