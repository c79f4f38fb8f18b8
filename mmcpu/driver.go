// Package mmcpu implements the bring-up of the Standalone MM CPU driver. It
// publishes the driver's protocols, locates the HOB list, copies the
// multiprocessor topology and allocates the per-CPU context table that the
// event path uses once the driver is ready.
package mmcpu

import (
	"bytes"

	"standalonemm/hob"
	"standalonemm/kernel"
	"standalonemm/kernel/kfmt"
	"standalonemm/mpinfo"
)

// State describes the progress of the driver initialization.
type State uint8

// nolint
const (
	StateNotStarted State = iota
	StateRegisteringCapabilities
	StateLocatingHobList
	StateExtractingMpInfo
	StateAllocatingContextTable
	StateReady
	StateFailed
)

// String implements fmt.Stringer for State.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not started"
	case StateRegisteringCapabilities:
		return "registering capabilities"
	case StateLocatingHobList:
		return "locating HOB list"
	case StateExtractingMpInfo:
		return "extracting MP information"
	case StateAllocatingContextTable:
		return "allocating context table"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	// ErrInvalidParameter is returned when the environment passes a nil
	// system table and assertions are not fatal.
	ErrInvalidParameter = &kernel.Error{Module: "mm_cpu", Message: "invalid system table", Status: kernel.StatusInvalidParameter}

	// ErrHobListNotFound is returned when the configuration table does not
	// reference the HOB list.
	ErrHobListNotFound = &kernel.Error{Module: "mm_cpu", Message: "HOB list not found", Status: kernel.StatusNotFound}

	// ErrAlreadyStarted is returned by any Init call after the first one.
	ErrAlreadyStarted = &kernel.Error{Module: "mm_cpu", Message: "driver initialization already ran", Status: kernel.StatusAlreadyStarted}
)

// mmCpu is the driver instance initialized by the environment loader.
var mmCpu Driver

// Initialize is the entry point invoked by the environment loader. It runs the
// driver initialization exactly once per process; later calls are rejected
// with StatusAlreadyStarted.
func Initialize(image Handle, st SystemTable) kernel.Status {
	return kernel.StatusOf(mmCpu.Init(image, st))
}

// Default returns the driver instance initialized by Initialize.
func Default() *Driver {
	return &mmCpu
}

// Driver holds the state produced by the driver initialization. The zero value
// is ready for a call to Init.
type Driver struct {
	state State
	err   *kernel.Error

	st             SystemTable
	image          Handle
	handle         Handle
	dispatchHandle DispatchHandle

	configProtocol ConfigurationProtocol
	entryProtocol  EntryPointProtocol

	// foundationEntry is registered by the MM core through the
	// configuration protocol.
	foundationEntry FoundationEntry

	mpInfo       *mpinfo.Information
	contextTable *ContextTable
	commBuffer   *CommBufferDescriptor
}

// Init runs the initialization sequence:
//
//   NotStarted -> RegisteringCapabilities -> LocatingHobList ->
//   ExtractingMpInfo -> AllocatingContextTable -> Ready
//
// The first failure moves the driver to the Failed state and is returned
// unchanged. There is no retry and no partial success. Init may only run once;
// subsequent calls return ErrAlreadyStarted without changing the state.
//
// Protocols are published before the HOB list is inspected. If a later step
// fails the protocols stay installed, which lets the environment observe that
// the driver attempted to register.
func (d *Driver) Init(image Handle, st SystemTable) *kernel.Error {
	kfmt.Assert(st != nil, "MM system table is nil")
	if st == nil {
		return ErrInvalidParameter
	}

	if d.state != StateNotStarted {
		return ErrAlreadyStarted
	}

	d.st, d.image = st, image

	d.state = StateRegisteringCapabilities
	if err := d.register(); err != nil {
		return d.fail(err)
	}

	d.state = StateLocatingHobList
	list, err := locateHobList(st.ConfigurationTable())
	if err != nil {
		kfmt.Debugf(kfmt.DebugError, "[mm_cpu] HOB list not found - 0x%x\n", len(st.ConfigurationTable()))
		return d.fail(err)
	}

	if d.commBuffer, err = findCommBuffer(list); err != nil {
		kfmt.Debugf(kfmt.DebugWarn, "[mm_cpu] non-secure buffer HOB unavailable: %s\n", err.Message)
	}

	d.state = StateExtractingMpInfo
	if d.mpInfo, err = mpinfo.Extract(list, st); err != nil {
		kfmt.Debugf(kfmt.DebugError, "[mm_cpu] MP information HOB extraction failed - 0x%x\n", uint64(err.Status))
		return d.fail(err)
	}

	d.state = StateAllocatingContextTable
	if d.contextTable, err = AllocateContextTable(st, d.mpInfo.EnabledProcessorCount()); err != nil {
		kfmt.Debugf(kfmt.DebugError, "[mm_cpu] per-CPU context table allocation failed - 0x%x\n", uint64(err.Status))
		return d.fail(err)
	}

	d.state = StateReady
	return nil
}

func (d *Driver) fail(err *kernel.Error) *kernel.Error {
	d.state, d.err = StateFailed, err
	return err
}

// locateHobList scans the configuration table for the HOB list entry. The
// first matching entry wins.
func locateHobList(entries []ConfigurationTable) (hob.List, *kernel.Error) {
	for index := range entries {
		if bytes.Equal(entries[index].VendorGuid[:], HobListGuid[:]) {
			return hob.List(entries[index].VendorTable), nil
		}
	}

	return nil, ErrHobListNotFound
}

// State returns the current initialization state.
func (d *Driver) State() State {
	return d.state
}

// Err returns the error that moved the driver to the Failed state or nil.
func (d *Driver) Err() *kernel.Error {
	return d.err
}

// Handle returns the handle the driver protocols are installed on.
func (d *Driver) Handle() Handle {
	return d.handle
}

// MpInformation returns the driver's copy of the MP information or nil if
// extraction has not completed.
func (d *Driver) MpInformation() *mpinfo.Information {
	return d.mpInfo
}

// ContextTable returns the per-CPU context table or nil if it has not been
// allocated.
func (d *Driver) ContextTable() *ContextTable {
	return d.contextTable
}

// CommBuffer returns the non-secure buffer descriptor or nil if the HOB list
// does not publish one.
func (d *Driver) CommBuffer() *CommBufferDescriptor {
	return d.commBuffer
}
