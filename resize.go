package surfacefill

import "fmt"

// ResizeFillValue widens value, taken as bitWidth bits, to nativeBits by
// repeating it. It returns the widened value and its width.
//
// nativeBits must be a non-zero multiple of bitWidth and at most 64.
func ResizeFillValue(value uint64, bitWidth, nativeBits uint32) (uint64, uint32, error) {
	if bitWidth == 0 || bitWidth > 64 {
		return 0, 0, fmt.Errorf("%w: bit width %d", ErrBadParameter, bitWidth)
	}
	if nativeBits == 0 || nativeBits%bitWidth != 0 {
		return 0, 0, fmt.Errorf("%w: pixel width %d not a multiple of %d", ErrBadParameter, nativeBits, bitWidth)
	}
	if nativeBits > 64 {
		return 0, 0, fmt.Errorf("%w: pixel width %d exceeds 64 bits", ErrBadParameter, nativeBits)
	}

	value &= widthMask(bitWidth)
	out := value
	for w := bitWidth; w < nativeBits; w += bitWidth {
		out |= value << w
	}
	return out, nativeBits, nil
}

// widthMask returns a mask of the low bits bits.
func widthMask(bits uint32) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return 1<<bits - 1
}
