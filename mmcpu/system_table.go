package mmcpu

import (
	"github.com/linuxboot/fiano/pkg/guid"

	"standalonemm/kernel"
	"standalonemm/kernel/mem"
)

// Well-known identifiers used by the driver.
var (
	// HobListGuid tags the configuration table entry that points to the
	// HOB list.
	HobListGuid = guid.MustParse("7739F24C-93D7-11D4-9A3A-0090273FC14D")

	// MmConfigurationProtocolGuid names the protocol through which the MM
	// core registers its foundation entry point.
	MmConfigurationProtocolGuid = guid.MustParse("26EEB3DE-B689-492E-80F0-BE8BD7DA4BA7")

	// PiMmCpuDriverEpProtocolGuid names the protocol exposing the driver
	// entry point to the event loop.
	PiMmCpuDriverEpProtocolGuid = guid.MustParse("6ECBD5A1-C0F8-4702-8301-4FC2C5470A51")

	// NonSecureBufferHobGuid names the HOB describing the buffer shared
	// with the non-secure world.
	NonSecureBufferHobGuid = guid.MustParse("F00497E3-BFA2-41A1-9D29-54C2E93721C5")
)

// Handle identifies a set of protocol interfaces in the service registry. The
// zero value requests a new handle.
type Handle uintptr

// DispatchHandle identifies a registered MMI handler.
type DispatchHandle uintptr

// MmiHandler is invoked by the environment when an MMI of the type it was
// registered for is being processed.
type MmiHandler func(dispatchHandle DispatchHandle, context interface{}, commBuffer []byte) *kernel.Error

// ConfigurationTable is an entry of the environment's configuration table.
type ConfigurationTable struct {
	VendorGuid guid.GUID

	// VendorTable is a caller-owned view of the table contents.
	VendorTable []byte
}

// SystemTable is implemented by the environment hosting the driver. It
// provides the memory service, the service registry and the configuration
// table.
type SystemTable interface {
	mem.Pool

	// InstallProtocolInterface publishes iface under protocol on the
	// handle pointed to by handle. If *handle is zero, a new handle is
	// created and stored in *handle.
	InstallProtocolInterface(handle *Handle, protocol *guid.GUID, iface interface{}) *kernel.Error

	// MmiHandlerRegister registers handler for MMIs of handlerType. A nil
	// handlerType registers a root handler.
	MmiHandlerRegister(handler MmiHandler, handlerType *guid.GUID) (DispatchHandle, *kernel.Error)

	// ConfigurationTable returns the configuration table entries.
	ConfigurationTable() []ConfigurationTable

	// CurrentlyExecutingCpu returns the index of the processor that is
	// executing in MM.
	CurrentlyExecutingCpu() uint64
}
