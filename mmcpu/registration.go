package mmcpu

import "standalonemm/kernel"

// EntryContext describes the processor on whose behalf the foundation entry
// point is invoked.
type EntryContext struct {
	CurrentlyExecutingCpu uint64
	NumberOfCpus          uint64
}

// FoundationEntry is the MM core entry point invoked for each event.
type FoundationEntry func(ctx *EntryContext) *kernel.Error

// ConfigurationProtocol is published so the MM core can register its
// foundation entry point with the driver.
type ConfigurationProtocol struct {
	RegisterMmEntry func(entry FoundationEntry) *kernel.Error
}

// EntryPointProtocol is published so the event loop can hand events to the
// driver.
type EntryPointProtocol struct {
	Entry func(eventID, cpuNumber uint64, commBufferAddr uintptr) *kernel.Error
}

var errNilFoundationEntry = &kernel.Error{Module: "mm_cpu", Message: "nil foundation entry point", Status: kernel.StatusInvalidParameter}

// register publishes the configuration protocol, then the entry point
// protocol and finally registers the root MMI handler. The order is fixed:
// the MM core polls for the configuration protocol as a readiness signal.
func (d *Driver) register() *kernel.Error {
	d.configProtocol = ConfigurationProtocol{RegisterMmEntry: d.registerMmEntry}
	d.entryProtocol = EntryPointProtocol{Entry: d.entry}

	if err := d.st.InstallProtocolInterface(&d.handle, MmConfigurationProtocolGuid, &d.configProtocol); err != nil {
		return registrationFailed("could not install MM configuration protocol", err)
	}

	if err := d.st.InstallProtocolInterface(&d.handle, PiMmCpuDriverEpProtocolGuid, &d.entryProtocol); err != nil {
		return registrationFailed("could not install CPU driver entry point protocol", err)
	}

	dispatchHandle, err := d.st.MmiHandlerRegister(d.rootMmiHandler, nil)
	if err != nil {
		return registrationFailed("could not register root MMI handler", err)
	}

	d.dispatchHandle = dispatchHandle
	return nil
}

// registrationFailed reports a rejected registry call. The status of the
// rejected call is passed through to the loader.
func registrationFailed(msg string, cause *kernel.Error) *kernel.Error {
	return &kernel.Error{
		Module:  "mm_cpu",
		Message: msg,
		Status:  cause.Status,
		Cause:   cause,
	}
}

// registerMmEntry backs ConfigurationProtocol.RegisterMmEntry.
func (d *Driver) registerMmEntry(entry FoundationEntry) *kernel.Error {
	if entry == nil {
		return errNilFoundationEntry
	}

	d.foundationEntry = entry
	return nil
}
