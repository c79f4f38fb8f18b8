package mem

import (
	"math"
	"testing"
)

func TestMulAdd(t *testing.T) {
	specs := []struct {
		base, count, elemSize Size
		exp                   Size
		expOK                 bool
	}{
		{16, 0, 48, 16, true},
		{16, 4, 48, 208, true},
		{0, 3, PointerSize, 3 * PointerSize, true},
		// product overflows 64 bits
		{16, math.MaxUint64 / 2, 48, 0, false},
		// sum overflows 64 bits
		{math.MaxUint64, 1, 1, 0, false},
		// result does not fit in an int
		{48, MaxAllocSize / 48, 48, 0, false},
		{0, MaxAllocSize, 1, MaxAllocSize, true},
		{1, MaxAllocSize, 1, 0, false},
	}

	for specIndex, spec := range specs {
		got, ok := MulAdd(spec.base, spec.count, spec.elemSize)
		if ok != spec.expOK {
			t.Errorf("[spec %d] expected ok to be %t; got %t", specIndex, spec.expOK, ok)
			continue
		}

		if got != spec.exp {
			t.Errorf("[spec %d] expected result %d; got %d", specIndex, spec.exp, got)
		}
	}
}

func TestAlignUp(t *testing.T) {
	specs := []struct {
		in, align, exp Size
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{4095, 4096, 4096},
	}

	for specIndex, spec := range specs {
		if got := AlignUp(spec.in, spec.align); got != spec.exp {
			t.Errorf("[spec %d] expected AlignUp(%d, %d) to return %d; got %d", specIndex, spec.in, spec.align, spec.exp, got)
		}
	}
}
