package mmcpu

import (
	"standalonemm/kernel"
	"standalonemm/kernel/kfmt"
)

// commHeaderSize is the size of the communication header (a GUID followed
// by a 64-bit message length) that must fit in the non-secure buffer.
const commHeaderSize = 24

var (
	errNotReady          = &kernel.Error{Module: "mm_cpu", Message: "driver is not ready", Status: kernel.StatusNotReady}
	errNoFoundationEntry = &kernel.Error{Module: "mm_cpu", Message: "MM foundation entry point not registered", Status: kernel.StatusNotReady}
	errCommBufferDenied  = &kernel.Error{Module: "mm_cpu", Message: "communication buffer outside the non-secure buffer", Status: kernel.StatusAccessDenied}
	errNoCommBuffer      = &kernel.Error{Module: "mm_cpu", Message: "no communication buffer for the executing CPU", Status: kernel.StatusNotFound}
)

// entry backs EntryPointProtocol.Entry. It records the communication buffer
// of cpuNumber in the context table for the duration of the foundation entry
// call.
func (d *Driver) entry(eventID, cpuNumber uint64, commBufferAddr uintptr) *kernel.Error {
	if d.state != StateReady {
		return errNotReady
	}

	if d.foundationEntry == nil {
		return errNoFoundationEntry
	}

	if cpuNumber >= d.contextTable.Len() {
		kfmt.Debugf(kfmt.DebugError, "[mm_cpu] event 0x%x: CPU number %d out of range\n", eventID, cpuNumber)
		return errInvalidCpu
	}

	if commBufferAddr == 0 {
		return errNullCommBuffer
	}

	if d.commBuffer != nil && !d.commBuffer.Contains(uint64(commBufferAddr), commHeaderSize) {
		kfmt.Debugf(kfmt.DebugError, "[mm_cpu] event 0x%x: buffer 0x%x outside non-secure buffer\n", eventID, uint64(commBufferAddr))
		return errCommBufferDenied
	}

	if err := d.contextTable.SetSlot(cpuNumber, commBufferAddr); err != nil {
		return err
	}
	defer d.contextTable.ClearSlot(cpuNumber)

	return d.foundationEntry(&EntryContext{
		CurrentlyExecutingCpu: cpuNumber,
		NumberOfCpus:          d.contextTable.Len(),
	})
}

// rootMmiHandler is registered as the root MMI handler. It consumes the
// communication buffer recorded for the executing CPU.
func (d *Driver) rootMmiHandler(_ DispatchHandle, _ interface{}, _ []byte) *kernel.Error {
	if d.contextTable == nil {
		return errNotReady
	}

	cpu := d.st.CurrentlyExecutingCpu()
	if _, ok := d.contextTable.Slot(cpu); !ok {
		return errNoCommBuffer
	}

	d.contextTable.ClearSlot(cpu)
	return nil
}
