package mem

import "testing"

func TestBootPool(t *testing.T) {
	pool := NewBootPool(make([]byte, 64))

	specs := []struct {
		size     Size
		expErr   bool
		expAlloc int
		expFree  Size
	}{
		{3, false, 1, 61},
		// next block starts at the following 8-byte boundary
		{16, false, 2, 40},
		{40, false, 3, 0},
		{1, true, 3, 0},
	}

	for specIndex, spec := range specs {
		block, err := pool.AllocatePool(RuntimeServicesData, spec.size)
		switch {
		case spec.expErr && err != errPoolOutOfMemory:
			t.Errorf("[spec %d] expected errPoolOutOfMemory; got %v", specIndex, err)
		case !spec.expErr && err != nil:
			t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
		case !spec.expErr && Size(len(block)) != spec.size:
			t.Errorf("[spec %d] expected block of %d bytes; got %d", specIndex, spec.size, len(block))
		case !spec.expErr && Size(cap(block)) != spec.size:
			t.Errorf("[spec %d] expected block capacity to be capped at %d; got %d", specIndex, spec.size, cap(block))
		}

		if got := pool.AllocCount(); got != spec.expAlloc {
			t.Errorf("[spec %d] expected alloc count %d; got %d", specIndex, spec.expAlloc, got)
		}

		if got := pool.Free(); got != spec.expFree {
			t.Errorf("[spec %d] expected %d free bytes; got %d", specIndex, spec.expFree, got)
		}
	}
}

func TestBootPoolZeroSize(t *testing.T) {
	pool := NewBootPool(make([]byte, 8))
	if _, err := pool.AllocatePool(RuntimeServicesData, 0); err != errPoolZeroSize {
		t.Fatalf("expected errPoolZeroSize; got %v", err)
	}
}

func TestBootPoolPoison(t *testing.T) {
	pool := NewBootPool(make([]byte, 32))
	pool.Poison = true

	block, err := pool.AllocatePool(BootServicesData, 16)
	if err != nil {
		t.Fatal(err)
	}

	for i, b := range block {
		if b != poolPoisonByte {
			t.Fatalf("expected byte %d to be poisoned; got 0x%x", i, b)
		}
	}
}
