package mmcpu

import (
	"unsafe"

	"standalonemm/kernel"
	"standalonemm/kernel/mem"
)

var (
	errContextTableOverflow = &kernel.Error{Module: "mm_cpu", Message: "per-CPU context table size overflows", Status: kernel.StatusCompromisedData}
	errInvalidCpu           = &kernel.Error{Module: "mm_cpu", Message: "CPU number out of range", Status: kernel.StatusInvalidParameter}
	errNullCommBuffer       = &kernel.Error{Module: "mm_cpu", Message: "null communication buffer address", Status: kernel.StatusInvalidParameter}
	errShortAllocation      = &kernel.Error{Module: "mm_cpu", Message: "memory service returned a short block", Status: kernel.StatusOutOfResources}
)

// ContextTable holds one pointer-sized slot per enabled processor. Each slot
// receives the address of the communication header passed to that processor
// when it enters MM. A zero slot is unset.
//
// The slots live in memory obtained from the environment's memory service.
// The table is allocated once and never resized or freed.
type ContextTable struct {
	slots []uintptr
}

// AllocateContextTable allocates a table with enabled slots from pool and
// clears every slot. A zero count yields an empty table without touching the
// pool.
func AllocateContextTable(pool mem.Pool, enabled uint64) (*ContextTable, *kernel.Error) {
	if enabled == 0 {
		return &ContextTable{}, nil
	}

	size, ok := mem.MulAdd(0, mem.Size(enabled), mem.PointerSize)
	if !ok {
		return nil, errContextTableOverflow
	}

	buf, err := pool.AllocatePool(mem.RuntimeServicesData, size)
	if err != nil {
		return nil, err
	}

	if mem.Size(len(buf)) < size {
		return nil, errShortAllocation
	}

	// The pool guarantees 8-byte alignment, which covers uintptr.
	slots := unsafe.Slice((*uintptr)(unsafe.Pointer(&buf[0])), int(enabled))
	for i := range slots {
		slots[i] = 0
	}

	return &ContextTable{slots: slots}, nil
}

// Len returns the number of slots.
func (t *ContextTable) Len() uint64 {
	return uint64(len(t.slots))
}

// Slot returns the address stored for cpu. It returns false if the slot is
// unset or cpu is out of range.
func (t *ContextTable) Slot(cpu uint64) (uintptr, bool) {
	if cpu >= t.Len() || t.slots[cpu] == 0 {
		return 0, false
	}
	return t.slots[cpu], true
}

// SetSlot stores addr in the slot for cpu.
func (t *ContextTable) SetSlot(cpu uint64, addr uintptr) *kernel.Error {
	switch {
	case cpu >= t.Len():
		return errInvalidCpu
	case addr == 0:
		return errNullCommBuffer
	}

	t.slots[cpu] = addr
	return nil
}

// ClearSlot resets the slot for cpu. Out of range values are ignored.
func (t *ContextTable) ClearSlot(cpu uint64) {
	if cpu < t.Len() {
		t.slots[cpu] = 0
	}
}
