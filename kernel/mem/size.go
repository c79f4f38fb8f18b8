package mem

import (
	"math"
	"math/bits"
	"unsafe"
)

// Size represents a memory block size in bytes.
type Size uint64

// Common memory block sizes.
const (
	Byte Size = 1
	Kb        = 1024 * Byte
	Mb        = 1024 * Kb
	Gb        = 1024 * Mb
)

const (
	// PointerSize is the size of a pointer-sized slot on this platform.
	PointerSize = Size(unsafe.Sizeof(uintptr(0)))

	// MaxAllocSize is the largest size that can be requested from a Pool.
	// Allocations are backed by Go slices so the limit is the largest
	// value that fits in an int.
	MaxAllocSize = Size(math.MaxInt)
)

// MulAdd returns base + count*elemSize. If the product or the sum overflows
// or exceeds MaxAllocSize, MulAdd returns false.
func MulAdd(base, count, elemSize Size) (Size, bool) {
	hi, product := bits.Mul64(uint64(count), uint64(elemSize))
	if hi != 0 {
		return 0, false
	}

	sum, carry := bits.Add64(uint64(base), product, 0)
	if carry != 0 || Size(sum) > MaxAllocSize {
		return 0, false
	}

	return Size(sum), true
}

// AlignUp rounds s up to the next multiple of align, which must be a power
// of 2.
func AlignUp(s, align Size) Size {
	return (s + align - 1) &^ (align - 1)
}
