package util

import "math"

// PackedFormat names the two ways a sequence of fixed-bit-width integers is
// laid out in bytes: tightly bit-packed end to end (PACKED), or packed into
// whole 64-bit blocks with the remainder of each block left unused
// (PACKED_SINGLE_BLOCK, which trades a little space for branch-free
// decoding). No other package in this module uses it.
type PackedFormat int32

const (
	PACKED              PackedFormat = 0
	PACKED_SINGLE_BLOCK PackedFormat = 1

	PACKED_VERSION_START   = 0
	PACKED_VERSION_CURRENT = PACKED_VERSION_START
)

// ByteCount returns the number of bytes needed to hold valueCount values of
// bitsPerValue bits each, laid out per this format.
func (f PackedFormat) ByteCount(packedVersion int32, valueCount int32, bitsPerValue uint32) int64 {
	switch f {
	case PACKED_SINGLE_BLOCK:
		return 8 * f.longCount(packedVersion, valueCount, bitsPerValue)
	default: // PACKED
		return int64(math.Ceil(float64(valueCount) * float64(bitsPerValue) / 8.0))
	}
}

// longCount returns the number of 64-bit blocks needed to hold valueCount
// values of bitsPerValue bits each, laid out per this format.
func (f PackedFormat) longCount(packedVersion int32, valueCount int32, bitsPerValue uint32) int64 {
	switch f {
	case PACKED_SINGLE_BLOCK:
		valuesPerBlock := 64 / bitsPerValue
		return int64(math.Ceil(float64(valueCount) / float64(valuesPerBlock)))
	default: // PACKED
		byteCount := f.ByteCount(packedVersion, valueCount, bitsPerValue)
		if byteCount%8 == 0 {
			return byteCount / 8
		}
		return byteCount/8 + 1
	}
}

func (f PackedFormat) String() string {
	if f == PACKED_SINGLE_BLOCK {
		return "PACKED_SINGLE_BLOCK"
	}
	return "PACKED"
}
