package surfacefill

import (
	"errors"
	"fmt"

	"github.com/gogpu/surfacefill/surface"
)

var (
	// ErrBadParameter is returned for malformed requests or targets.
	ErrBadParameter = errors.New("surfacefill: bad parameter")

	// ErrUnsupportedHardwareFeature is returned when no strategy can
	// execute a request on the given surface and device.
	ErrUnsupportedHardwareFeature = errors.New("surfacefill: unsupported hardware feature")

	// ErrSoftware is returned for internal failures such as an unexpected
	// collaborator error.
	ErrSoftware = errors.New("surfacefill: internal error")

	// ErrTimeout is returned when outstanding work does not complete in time.
	ErrTimeout = errors.New("surfacefill: timeout waiting for completion")
)

// unsupported returns the error of a filler asked to execute a request it
// does not support.
func unsupported(f Filler, s *surface.Surface, r Request) error {
	return fmt.Errorf("%w: %s cannot fill %v with %v", ErrUnsupportedHardwareFeature, f.Name(), s, r)
}
