package surfacefill

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/surface"
)

// minTemplateSize is the smallest template the mapped filler copies from.
const minTemplateSize = 4096

// templateSentinel pads the tail of a template that holds no whole pattern.
const templateSentinel = 0xDEADBEEF

// MappedFiller fills by writing through CPU mappings of the surface. It is
// synchronous: FillRange returns after the last byte is written.
type MappedFiller struct {
	dev    hal.Device
	cfg    Config
	target Target
}

// NewMappedFiller creates a mapped-write filler for dev.
func NewMappedFiller(dev hal.Device, cfg Config) *MappedFiller {
	return &MappedFiller{dev: dev, cfg: cfg.withDefaults(), target: Broadcast}
}

// Name returns StrategyMapped.
func (f *MappedFiller) Name() string { return StrategyMapped }

// IsSupported reports whether the surface memory is CPU mappable. 24-bit
// patterns do not tile GOBs evenly and are rejected on tiled surfaces.
func (f *MappedFiller) IsSupported(s *surface.Surface, r Request) bool {
	if validateRequest(s, r) != nil {
		return false
	}
	if r.BitWidth == 24 && s.IsTiled() {
		return false
	}
	return f.dev.CanMap(s.Location)
}

// FillRange writes the pattern into every targeted device instance.
func (f *MappedFiller) FillRange(_ context.Context, s *surface.Surface, r Request) error {
	if err := validateRequest(s, r); err != nil {
		return err
	}
	if !f.IsSupported(s, r) {
		return unsupported(f, s, r)
	}
	if r.Size == 0 {
		return nil
	}

	tmpl := newTemplate(r, s.Alignment())
	for _, sub := range f.target.subdevices(f.dev.NumSubdevices()) {
		if err := f.fillInstance(s, sub, r, tmpl); err != nil {
			return err
		}
	}
	Logger().Debug("surfacefill: mapped fill", "surface", s.Label, "request", r, "target", f.target)
	return nil
}

func (f *MappedFiller) fillInstance(s *surface.Surface, sub int, r Request, tmpl template) (err error) {
	w := &mapWindow{mapper: f.dev, surf: s, subdev: sub, size: f.cfg.MappingWindow, end: r.Offset + r.Size}
	defer func() {
		if uerr := w.unmap(); uerr != nil && err == nil {
			err = uerr
		}
	}()

	for dst := r.Offset; dst < w.end; {
		buf, err := w.at(dst)
		if err != nil {
			return err
		}
		for len(buf) > 0 {
			n := copy(buf, tmpl.from(dst-r.Offset))
			buf = buf[n:]
			dst += uint64(n)
		}
	}
	return nil
}

// SetTarget selects the device instances later fills write.
func (f *MappedFiller) SetTarget(t Target) error {
	if err := t.validate(f.dev.NumSubdevices()); err != nil {
		return err
	}
	f.target = t
	return nil
}

// SetAutoWait has no effect: mapped fills complete synchronously.
func (f *MappedFiller) SetAutoWait(bool) {}

// Wait returns immediately.
func (f *MappedFiller) Wait(context.Context) error { return nil }

// Cleanup has nothing to release.
func (f *MappedFiller) Cleanup() error { return nil }

// Alloc has nothing to acquire.
func (f *MappedFiller) Alloc() error { return nil }

// template is a buffer repeating the fill pattern over period bytes,
// followed by sentinel padding up to a multiple of the surface alignment.
type template struct {
	buf    []byte
	period uint64
}

func newTemplate(r Request, align uint64) template {
	size := uint64(minTemplateSize)
	if align > 0 {
		size = (size + align - 1) / align * align
	}
	p := r.PatternBytes()
	period := size / p * p

	var pattern [8]byte
	binary.LittleEndian.PutUint64(pattern[:], r.Value)

	buf := make([]byte, size)
	for i := uint64(0); i < period; i += p {
		copy(buf[i:i+p], pattern[:p])
	}
	var pad [4]byte
	binary.BigEndian.PutUint32(pad[:], templateSentinel)
	for i := period; i < size; i++ {
		buf[i] = pad[(i-period)%4]
	}
	return template{buf: buf, period: period}
}

// from returns the template bytes continuing the pattern at byte distance
// rel from the start of the fill. The sentinel tail is never included.
func (t template) from(rel uint64) []byte {
	phase := rel % t.period
	return t.buf[phase:t.period]
}

// mapWindow maps at most size bytes of one surface instance at a time,
// moving the window on demand.
type mapWindow struct {
	mapper hal.Mapper
	surf   *surface.Surface
	subdev int
	size   uint64
	end    uint64

	cur hal.Mapping
}

// at returns the mapped bytes from dst to the end of the current window,
// remapping when dst lies outside it.
func (w *mapWindow) at(dst uint64) ([]byte, error) {
	if w.cur != nil {
		start := w.cur.Offset()
		if dst >= start && dst < start+uint64(len(w.cur.Bytes())) {
			return w.cur.Bytes()[dst-start:], nil
		}
		if err := w.unmap(); err != nil {
			return nil, err
		}
	}
	n := min(w.size, w.end-dst)
	m, err := w.mapper.Map(w.surf, w.subdev, dst, n)
	if err != nil {
		if errors.Is(err, hal.ErrNotMappable) {
			return nil, fmt.Errorf("%w: %w", ErrUnsupportedHardwareFeature, err)
		}
		return nil, fmt.Errorf("%w: map instance %d [%#x, +%#x): %w", ErrSoftware, w.subdev, dst, n, err)
	}
	w.cur = m
	return m.Bytes(), nil
}

func (w *mapWindow) unmap() error {
	if w.cur == nil {
		return nil
	}
	m := w.cur
	w.cur = nil
	if err := m.Unmap(); err != nil {
		return fmt.Errorf("%w: unmap: %w", ErrSoftware, err)
	}
	return nil
}

var _ Filler = (*MappedFiller)(nil)
