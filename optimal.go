package surfacefill

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/surface"
)

// OptimalFiller validates requests and dispatches each to the first
// strategy, in Config.Strategies order, that supports it.
//
// Strategies are created from named factories and kept from their first
// fill until Cleanup. Wait and Cleanup apply to every strategy kept so far.
// Strategy and IsSupported keep nothing.
type OptimalFiller struct {
	dev      hal.Device
	cfg      Config
	order    []string
	registry *gpucontext.Registry[Filler]
	fillers  map[string]Filler
	target   Target
	autoWait bool
}

// NewOptimalFiller creates a filler choosing among the raster-clear,
// copy-engine and mapped strategies for dev.
func NewOptimalFiller(dev hal.Device, cfg Config) *OptimalFiller {
	cfg = cfg.withDefaults()
	f := &OptimalFiller{
		dev:      dev,
		cfg:      cfg,
		order:    slices.Clone(cfg.Strategies),
		registry: gpucontext.NewRegistry[Filler](),
		fillers:  make(map[string]Filler),
		target:   Broadcast,
		autoWait: !cfg.DisableAutoWait,
	}
	f.registry.Register(StrategyRasterClear, func() Filler { return NewRasterClearFiller(dev, cfg) })
	f.registry.Register(StrategyCopyEngine, func() Filler { return NewCopyEngineFiller(dev, cfg) })
	f.registry.Register(StrategyMapped, func() Filler { return NewMappedFiller(dev, cfg) })
	return f
}

// Register adds or replaces a named strategy. Names not yet in the
// strategy order are appended to it. Replacing a strategy that was already
// created cleans up the old instance.
func (f *OptimalFiller) Register(name string, factory func() Filler) error {
	if old, ok := f.fillers[name]; ok {
		if err := old.Cleanup(); err != nil {
			return err
		}
		delete(f.fillers, name)
	}
	f.registry.Register(name, factory)
	if !slices.Contains(f.order, name) {
		f.order = append(f.order, name)
	}
	return nil
}

// Strategies returns the strategy order.
func (f *OptimalFiller) Strategies() []string {
	return slices.Clone(f.order)
}

// Name returns "optimal".
func (f *OptimalFiller) Name() string { return "optimal" }

// Strategy returns the name of the strategy that would execute r on s.
func (f *OptimalFiller) Strategy(s *surface.Surface, r Request) (string, error) {
	name, _, err := f.choose(s, r)
	return name, err
}

// IsSupported reports whether any strategy supports r on s.
func (f *OptimalFiller) IsSupported(s *surface.Surface, r Request) bool {
	_, err := f.Strategy(s, r)
	return err == nil
}

// FillRange validates r and executes it with the first supporting strategy.
func (f *OptimalFiller) FillRange(ctx context.Context, s *surface.Surface, r Request) error {
	name, fl, err := f.choose(s, r)
	if err != nil {
		return err
	}
	if err := f.keep(name, fl); err != nil {
		return err
	}
	Logger().Debug("surfacefill: strategy selected", "strategy", name, "surface", s.Label, "request", r)
	return fl.FillRange(ctx, s, r)
}

// SetTarget forwards t to every created strategy and to strategies created
// later.
func (f *OptimalFiller) SetTarget(t Target) error {
	if err := t.validate(f.dev.NumSubdevices()); err != nil {
		return err
	}
	for _, name := range f.created() {
		if err := f.fillers[name].SetTarget(t); err != nil {
			return err
		}
	}
	f.target = t
	return nil
}

// SetAutoWait forwards the setting to every created strategy and to
// strategies created later.
func (f *OptimalFiller) SetAutoWait(enabled bool) {
	f.autoWait = enabled
	for _, fl := range f.fillers {
		fl.SetAutoWait(enabled)
	}
}

// Wait waits for every created strategy.
func (f *OptimalFiller) Wait(ctx context.Context) error {
	var errs []error
	for _, name := range f.created() {
		if err := f.fillers[name].Wait(ctx); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Cleanup releases every created strategy. It is idempotent.
func (f *OptimalFiller) Cleanup() error {
	var errs []error
	for _, name := range f.created() {
		if err := f.fillers[name].Cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	clear(f.fillers)
	return errors.Join(errs...)
}

// Alloc acquires nothing: strategies allocate on first use.
func (f *OptimalFiller) Alloc() error { return nil }

// choose validates r and returns the first strategy in order that supports
// it. Strategies not yet kept are created for the check only.
func (f *OptimalFiller) choose(s *surface.Surface, r Request) (string, Filler, error) {
	if err := validateRequest(s, r); err != nil {
		return "", nil, err
	}
	for _, name := range f.order {
		fl, ok := f.fillers[name]
		if !ok && f.registry.Has(name) {
			fl = f.registry.Get(name)
		}
		if fl != nil && fl.IsSupported(s, r) {
			return name, fl, nil
		}
	}
	return "", nil, fmt.Errorf("%w: no strategy can fill %v with %v", ErrUnsupportedHardwareFeature, s, r)
}

// keep stores fl as the strategy called name, applying the current target
// and auto-wait setting the first time.
func (f *OptimalFiller) keep(name string, fl Filler) error {
	if _, ok := f.fillers[name]; ok {
		return nil
	}
	fl.SetAutoWait(f.autoWait)
	if err := fl.SetTarget(f.target); err != nil {
		return fmt.Errorf("strategy %s: %w", name, err)
	}
	f.fillers[name] = fl
	return nil
}

// created returns the names of created strategies in strategy order.
func (f *OptimalFiller) created() []string {
	names := make([]string, 0, len(f.fillers))
	for _, name := range f.order {
		if _, ok := f.fillers[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

var _ Filler = (*OptimalFiller)(nil)
