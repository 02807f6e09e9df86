package class

// Header opcodes (bits 31:29).
const (
	OpIncMethods       = 1
	OpSetSubdeviceMask = 5
)

const (
	maxCount = 1<<13 - 1
	maxMask  = 1<<12 - 1
)

// MethodSetObject binds a class to a subchannel. Its data is the class ID.
const MethodSetObject = 0x0000

// IncHeader returns the header of an incrementing write of count words
// starting at method on subch.
func IncHeader(subch, method uint32, count int) uint32 {
	return OpIncMethods<<29 |
		(uint32(count)&maxCount)<<16 |
		(subch&7)<<13 |
		(method>>2)&0x1FFF
}

// SubdeviceMaskHeader returns the header restricting following methods to
// the device instances in mask.
func SubdeviceMaskHeader(mask uint32) uint32 {
	return OpSetSubdeviceMask<<29 | mask&maxMask
}

// Header is a decoded pushbuffer header.
type Header struct {
	Op     uint32
	Count  int
	Subch  uint32
	Method uint32
	Mask   uint32
}

// DecodeHeader splits a header word into its fields.
func DecodeHeader(w uint32) Header {
	h := Header{Op: w >> 29}
	if h.Op == OpSetSubdeviceMask {
		h.Mask = w & maxMask
		return h
	}
	h.Count = int((w >> 16) & maxCount)
	h.Subch = (w >> 13) & 7
	h.Method = (w & 0x1FFF) << 2
	return h
}

// Method is one decoded method write.
type Method struct {
	Subch  uint32
	Method uint32
	Data   uint32
	// Mask is the subdevice mask in effect.
	Mask uint32
}

// Decode walks a pushbuffer segment and calls fn for each method write.
// mask is the subdevice mask in effect at the start of the segment; the
// mask in effect at the end is returned. Decoding stops at the first
// truncated or unknown header and returns false.
func Decode(words []uint32, mask uint32, fn func(Method)) (uint32, bool) {
	for i := 0; i < len(words); {
		h := DecodeHeader(words[i])
		i++
		switch h.Op {
		case OpSetSubdeviceMask:
			mask = h.Mask
		case OpIncMethods:
			if i+h.Count > len(words) {
				return mask, false
			}
			for k := 0; k < h.Count; k++ {
				fn(Method{Subch: h.Subch, Method: h.Method + uint32(k)*4, Data: words[i+k], Mask: mask})
			}
			i += h.Count
		default:
			return mask, false
		}
	}
	return mask, true
}
