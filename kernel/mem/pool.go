package mem

import "standalonemm/kernel"

// MemoryType classifies a pool allocation.
type MemoryType uint32

// Memory types used by the driver.
const (
	BootServicesData    MemoryType = 4
	RuntimeServicesData MemoryType = 6
)

// poolAlignment is the alignment of every block returned by BootPool.
const poolAlignment = 8 * Byte

// poolPoisonByte fills freshly allocated blocks when poisoning is enabled so
// that readers of uninitialized memory are easy to spot.
const poolPoisonByte = 0xaf

var (
	errPoolOutOfMemory = &kernel.Error{Module: "pool", Message: "out of memory", Status: kernel.StatusOutOfResources}
	errPoolZeroSize    = &kernel.Error{Module: "pool", Message: "zero-sized allocation", Status: kernel.StatusInvalidParameter}
)

// Pool is implemented by memory services that hand out blocks which stay
// allocated for the lifetime of the execution environment.
type Pool interface {
	// AllocatePool reserves a block of exactly size bytes.
	AllocatePool(memType MemoryType, size Size) ([]byte, *kernel.Error)
}

// BootPool implements a rudimentary pool allocator on top of a fixed arena.
//
// Allocations are carved sequentially from the arena; it is not possible to
// free allocated blocks. This matches the lifetime of the driver state, which
// is torn down together with the whole execution context.
type BootPool struct {
	arena []byte

	// next is the offset of the first free byte in the arena.
	next Size

	// allocCount tracks the total number of successful allocations.
	allocCount int

	// Poison fills each new block with a non-zero pattern.
	Poison bool
}

// NewBootPool returns a BootPool that serves allocations from arena.
func NewBootPool(arena []byte) *BootPool {
	return &BootPool{arena: arena}
}

// AllocatePool implements Pool.
func (p *BootPool) AllocatePool(_ MemoryType, size Size) ([]byte, *kernel.Error) {
	if size == 0 {
		return nil, errPoolZeroSize
	}

	start := AlignUp(p.next, poolAlignment)
	end, ok := MulAdd(start, size, Byte)
	if !ok || start > Size(len(p.arena)) || end > Size(len(p.arena)) {
		return nil, errPoolOutOfMemory
	}

	block := p.arena[start:end:end]
	if p.Poison {
		for i := range block {
			block[i] = poolPoisonByte
		}
	}

	p.next = end
	p.allocCount++
	return block, nil
}

// AllocCount returns the number of successful allocations.
func (p *BootPool) AllocCount() int {
	return p.allocCount
}

// Free returns the number of bytes left in the arena.
func (p *BootPool) Free() Size {
	return Size(len(p.arena)) - p.next
}
