// Package mmst provides an in-memory MM system table: a service registry, an
// MMI handler registry, a configuration table and a pool allocator. It hosts
// the CPU driver outside of firmware, e.g. in host tooling and tests.
package mmst

import (
	"bytes"

	"github.com/linuxboot/fiano/pkg/guid"

	"standalonemm/kernel"
	"standalonemm/kernel/mem"
	"standalonemm/mmcpu"
)

var (
	errInvalidParameter = &kernel.Error{Module: "mmst", Message: "invalid parameter", Status: kernel.StatusInvalidParameter}
	errProtocolExists   = &kernel.Error{Module: "mmst", Message: "protocol already installed on handle", Status: kernel.StatusInvalidParameter}
	errNotFound         = &kernel.Error{Module: "mmst", Message: "not found", Status: kernel.StatusNotFound}
)

type protocolEntry struct {
	handle   mmcpu.Handle
	protocol guid.GUID
	iface    interface{}
}

type handlerEntry struct {
	dispatchHandle mmcpu.DispatchHandle
	handlerType    *guid.GUID
	handler        mmcpu.MmiHandler
}

// Table implements mmcpu.SystemTable. Failure hooks allow callers to make
// individual services fail.
type Table struct {
	pool *mem.BootPool

	protocols    []protocolEntry
	handlers     []handlerEntry
	config       []mmcpu.ConfigurationTable
	lastHandle   mmcpu.Handle
	lastDispatch mmcpu.DispatchHandle
	currentCpu   uint64
	allocCalls   int

	// InstallProtocolHook, if set, is consulted before a protocol is
	// installed; a non-nil error rejects the call.
	InstallProtocolHook func(protocol *guid.GUID) *kernel.Error

	// HandlerRegisterHook, if set, is consulted before an MMI handler is
	// registered; a non-nil error rejects the call.
	HandlerRegisterHook func(handlerType *guid.GUID) *kernel.Error

	// AllocateHook, if set, is consulted before memory is allocated; a
	// non-nil error rejects the call.
	AllocateHook func(size mem.Size) *kernel.Error
}

// New returns a Table whose pool serves allocations from an arena of
// arenaSize bytes.
func New(arenaSize mem.Size) *Table {
	return &Table{pool: mem.NewBootPool(make([]byte, arenaSize))}
}

// AllocatePool implements mem.Pool.
func (t *Table) AllocatePool(memType mem.MemoryType, size mem.Size) ([]byte, *kernel.Error) {
	t.allocCalls++
	if t.AllocateHook != nil {
		if err := t.AllocateHook(size); err != nil {
			return nil, err
		}
	}

	return t.pool.AllocatePool(memType, size)
}

// AllocCalls returns the number of AllocatePool calls, including failed ones.
func (t *Table) AllocCalls() int {
	return t.allocCalls
}

// InstallProtocolInterface implements mmcpu.SystemTable.
func (t *Table) InstallProtocolInterface(handle *mmcpu.Handle, protocol *guid.GUID, iface interface{}) *kernel.Error {
	if handle == nil || protocol == nil {
		return errInvalidParameter
	}

	if t.InstallProtocolHook != nil {
		if err := t.InstallProtocolHook(protocol); err != nil {
			return err
		}
	}

	if *handle != 0 {
		for _, entry := range t.protocols {
			if entry.handle == *handle && entry.protocol == *protocol {
				return errProtocolExists
			}
		}
	} else {
		t.lastHandle++
		*handle = t.lastHandle
	}

	t.protocols = append(t.protocols, protocolEntry{handle: *handle, protocol: *protocol, iface: iface})
	return nil
}

// LocateProtocol returns the first interface installed for protocol.
func (t *Table) LocateProtocol(protocol *guid.GUID) (interface{}, *kernel.Error) {
	if protocol == nil {
		return nil, errInvalidParameter
	}

	for _, entry := range t.protocols {
		if entry.protocol == *protocol {
			return entry.iface, nil
		}
	}

	return nil, errNotFound
}

// InstalledProtocols returns the installed protocol identifiers in
// installation order.
func (t *Table) InstalledProtocols() []guid.GUID {
	list := make([]guid.GUID, 0, len(t.protocols))
	for _, entry := range t.protocols {
		list = append(list, entry.protocol)
	}
	return list
}

// MmiHandlerRegister implements mmcpu.SystemTable.
func (t *Table) MmiHandlerRegister(handler mmcpu.MmiHandler, handlerType *guid.GUID) (mmcpu.DispatchHandle, *kernel.Error) {
	if handler == nil {
		return 0, errInvalidParameter
	}

	if t.HandlerRegisterHook != nil {
		if err := t.HandlerRegisterHook(handlerType); err != nil {
			return 0, err
		}
	}

	t.lastDispatch++
	t.handlers = append(t.handlers, handlerEntry{
		dispatchHandle: t.lastDispatch,
		handlerType:    handlerType,
		handler:        handler,
	})

	return t.lastDispatch, nil
}

// MmiManage invokes the handlers registered for handlerType, or the root
// handlers if handlerType is nil. It returns the first handler error, or
// errNotFound if no handler is registered.
func (t *Table) MmiManage(handlerType *guid.GUID, context interface{}, commBuffer []byte) *kernel.Error {
	var invoked bool
	for _, entry := range t.handlers {
		switch {
		case handlerType == nil && entry.handlerType != nil:
			continue
		case handlerType != nil && (entry.handlerType == nil || *entry.handlerType != *handlerType):
			continue
		}

		invoked = true
		if err := entry.handler(entry.dispatchHandle, context, commBuffer); err != nil {
			return err
		}
	}

	if !invoked {
		return errNotFound
	}
	return nil
}

// InstallConfigurationTable adds, replaces or (for a nil table) removes the
// configuration table entry tagged vendorGuid.
func (t *Table) InstallConfigurationTable(vendorGuid *guid.GUID, table []byte) *kernel.Error {
	if vendorGuid == nil {
		return errInvalidParameter
	}

	for index := range t.config {
		if !bytes.Equal(t.config[index].VendorGuid[:], vendorGuid[:]) {
			continue
		}

		if table == nil {
			t.config = append(t.config[:index], t.config[index+1:]...)
			return nil
		}

		t.config[index].VendorTable = table
		return nil
	}

	if table == nil {
		return errNotFound
	}

	t.config = append(t.config, mmcpu.ConfigurationTable{VendorGuid: *vendorGuid, VendorTable: table})
	return nil
}

// ConfigurationTable implements mmcpu.SystemTable.
func (t *Table) ConfigurationTable() []mmcpu.ConfigurationTable {
	return t.config
}

// SetCurrentCpu selects the processor reported by CurrentlyExecutingCpu.
func (t *Table) SetCurrentCpu(cpu uint64) {
	t.currentCpu = cpu
}

// CurrentlyExecutingCpu implements mmcpu.SystemTable.
func (t *Table) CurrentlyExecutingCpu() uint64 {
	return t.currentCpu
}
