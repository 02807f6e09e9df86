package surfacefill

import (
	"fmt"

	"github.com/gogpu/surfacefill/hal"
	"github.com/gogpu/surfacefill/surface"
)

// Request describes one fill: Value, taken as BitWidth bits, repeated over
// the allocation bytes [Offset, Offset+Size).
type Request struct {
	Value    uint64
	BitWidth uint32
	Offset   uint64
	Size     uint64
}

// PatternBytes returns the size of one repetition of the value.
func (r Request) PatternBytes() uint64 {
	return uint64(r.BitWidth / 8)
}

// String returns a short human-readable description.
func (r Request) String() string {
	return fmt.Sprintf("Request[%#x/%d @%#x +%#x]", r.Value, r.BitWidth, r.Offset, r.Size)
}

// validBitWidth reports whether bits is a supported fill width.
func validBitWidth(bits uint32) bool {
	switch bits {
	case 8, 16, 24, 32, 64:
		return true
	}
	return false
}

// validateRequest checks r against s. A zero Size is valid.
func validateRequest(s *surface.Surface, r Request) error {
	if s == nil {
		return fmt.Errorf("%w: nil surface", ErrBadParameter)
	}
	if s.Handle == 0 {
		return fmt.Errorf("%w: surface %q not allocated", ErrBadParameter, s.Label)
	}
	if !validBitWidth(r.BitWidth) {
		return fmt.Errorf("%w: bit width %d", ErrBadParameter, r.BitWidth)
	}
	if s.BitsPerPixel()%r.BitWidth != 0 {
		return fmt.Errorf("%w: bit width %d does not divide pixel width %d",
			ErrBadParameter, r.BitWidth, s.BitsPerPixel())
	}
	if r.BitWidth < 64 && r.Value>>r.BitWidth != 0 {
		return fmt.Errorf("%w: value %#x exceeds %d bits", ErrBadParameter, r.Value, r.BitWidth)
	}
	if r.Size%r.PatternBytes() != 0 {
		return fmt.Errorf("%w: size %d not a multiple of %d bytes", ErrBadParameter, r.Size, r.PatternBytes())
	}
	if !s.Contains(r.Offset, r.Size) {
		start, end := s.FillableRange()
		return fmt.Errorf("%w: range [%#x, +%#x) outside [%#x, %#x)",
			ErrBadParameter, r.Offset, r.Size, start, end)
	}
	return nil
}

// Target selects the device instances a fill writes.
type Target int

// Broadcast targets every device instance.
const Broadcast Target = -1

// Subdevice targets the single device instance i.
func Subdevice(i int) Target { return Target(i) }

// String returns "broadcast" or the instance index.
func (t Target) String() string {
	if t == Broadcast {
		return "broadcast"
	}
	return fmt.Sprintf("subdevice %d", int(t))
}

// validate checks t against a device with n instances.
func (t Target) validate(n int) error {
	if t == Broadcast || (t >= 0 && int(t) < n) {
		return nil
	}
	return fmt.Errorf("%w: target %d with %d device instances", ErrBadParameter, int(t), n)
}

// subdevices returns the instance indexes selected by t.
func (t Target) subdevices(n int) []int {
	if t != Broadcast {
		return []int{int(t)}
	}
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// mask returns the subdevice mask selecting t.
func (t Target) mask(n int) uint32 {
	if t == Broadcast {
		return hal.BroadcastMask(n)
	}
	return 1 << uint(t)
}
