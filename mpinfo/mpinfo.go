// Package mpinfo extracts the multiprocessor topology that the platform
// publishes in the HOB list and keeps a private copy of it.
package mpinfo

import (
	"encoding/binary"

	"github.com/linuxboot/fiano/pkg/guid"

	"standalonemm/hob"
	"standalonemm/kernel"
	"standalonemm/kernel/kfmt"
	"standalonemm/kernel/mem"
)

// HobGuid names the GUID extension HOB carrying the MP information.
var HobGuid = guid.MustParse("BA33F15D-4000-45C1-8E88-F91692D457E3")

const (
	// HeaderSize is the size of the MP information header: the processor
	// count followed by the enabled processor count, both 64-bit.
	HeaderSize = mem.Size(16)

	// ProcessorInfoSize is the size of a single processor record.
	ProcessorInfoSize = mem.Size(48)
)

var (
	// ErrConfigurationMissing is returned when the HOB list does not
	// contain the MP information HOB.
	ErrConfigurationMissing = &kernel.Error{Module: "mp_info", Message: "MP information HOB not found", Status: kernel.StatusNotFound}

	// ErrInvalidData is returned when the MP information payload is
	// truncated or internally inconsistent.
	ErrInvalidData = &kernel.Error{Module: "mp_info", Message: "malformed MP information", Status: kernel.StatusCompromisedData}

	// ErrSizeOverflow is returned when the reported processor count
	// yields a size that cannot be represented.
	ErrSizeOverflow = &kernel.Error{Module: "mp_info", Message: "MP information size overflows", Status: kernel.StatusCompromisedData}
)

// StatusFlag describes the state of a processor.
type StatusFlag uint32

const (
	// ProcessorAsBSP is set for the bootstrap processor.
	ProcessorAsBSP StatusFlag = 1 << iota

	// ProcessorEnabled is set for processors that are enabled.
	ProcessorEnabled

	// ProcessorHealthy is set for processors that passed self-test.
	ProcessorHealthy
)

// Location describes where a processor sits in the topology.
type Location struct {
	Package uint32
	Core    uint32
	Thread  uint32
}

// ExtendedLocation describes the processor location on platforms with a
// deeper topology hierarchy.
type ExtendedLocation struct {
	Package uint32
	Module  uint32
	Tile    uint32
	Die     uint32
	Core    uint32
	Thread  uint32
}

// Processor is a single processor record.
type Processor struct {
	// ID is the platform identifier of the processor, e.g. its MPIDR.
	ID uint64

	StatusFlag StatusFlag

	Location Location

	ExtendedLocation ExtendedLocation
}

// Information is an owned copy of the MP information HOB. The copy is
// immutable and lives for the lifetime of the execution environment.
type Information struct {
	raw []byte
}

// ProcessorCount returns the number of processor records.
func (info *Information) ProcessorCount() uint64 {
	return binary.LittleEndian.Uint64(info.raw[0:])
}

// EnabledProcessorCount returns the number of enabled processors.
func (info *Information) EnabledProcessorCount() uint64 {
	return binary.LittleEndian.Uint64(info.raw[8:])
}

// Processor returns the record at index or false if index is out of range.
func (info *Information) Processor(index uint64) (Processor, bool) {
	if index >= info.ProcessorCount() {
		return Processor{}, false
	}

	rec := info.raw[HeaderSize+mem.Size(index)*ProcessorInfoSize:]
	return Processor{
		ID:         binary.LittleEndian.Uint64(rec[0:]),
		StatusFlag: StatusFlag(binary.LittleEndian.Uint32(rec[8:])),
		Location: Location{
			Package: binary.LittleEndian.Uint32(rec[12:]),
			Core:    binary.LittleEndian.Uint32(rec[16:]),
			Thread:  binary.LittleEndian.Uint32(rec[20:]),
		},
		ExtendedLocation: ExtendedLocation{
			Package: binary.LittleEndian.Uint32(rec[24:]),
			Module:  binary.LittleEndian.Uint32(rec[28:]),
			Tile:    binary.LittleEndian.Uint32(rec[32:]),
			Die:     binary.LittleEndian.Uint32(rec[36:]),
			Core:    binary.LittleEndian.Uint32(rec[40:]),
			Thread:  binary.LittleEndian.Uint32(rec[44:]),
		},
	}, true
}

// Bytes returns the raw copy: the header followed by all processor records.
// Callers must not modify it.
func (info *Information) Bytes() []byte {
	return info.raw
}

// Extract locates the MP information HOB in list, validates it and copies
// the header and exactly ProcessorCount records into a block allocated from
// pool. The HOB payload is never read past the last record even if the
// payload is larger.
func Extract(list hob.List, pool mem.Pool) (*Information, *kernel.Error) {
	payload, err := hob.FindGuid(list, HobGuid)
	switch {
	case err == hob.ErrNotFound:
		return nil, ErrConfigurationMissing
	case err != nil:
		return nil, err
	}

	if mem.Size(len(payload)) < HeaderSize {
		return nil, ErrInvalidData
	}

	var (
		count   = binary.LittleEndian.Uint64(payload[0:])
		enabled = binary.LittleEndian.Uint64(payload[8:])
	)

	size, ok := mem.MulAdd(HeaderSize, mem.Size(count), ProcessorInfoSize)
	if !ok {
		return nil, ErrSizeOverflow
	}

	if mem.Size(len(payload)) < size || enabled > count {
		return nil, ErrInvalidData
	}

	buf, err := pool.AllocatePool(mem.RuntimeServicesData, size)
	if err != nil {
		kfmt.Debugf(kfmt.DebugError, "[mp_info] MP information allocation failed: %s\n", err.Message)
		return nil, err
	}

	copy(buf, payload[:size])
	info := &Information{raw: buf[:size:size]}
	info.dump()

	return info, nil
}

// dump prints the processor count and one line per processor.
func (info *Information) dump() {
	kfmt.Debugf(kfmt.DebugInfo, "[mp_info] processors: 0x%16x - enabled: 0x%x\n",
		info.ProcessorCount(),
		info.EnabledProcessorCount(),
	)

	for index := uint64(0); index < info.ProcessorCount(); index++ {
		proc, _ := info.Processor(index)
		kfmt.Debugf(kfmt.DebugInfo, "[mp_info] processor[0x%x]: %d, %d, %d\n",
			proc.ID,
			proc.Location.Package,
			proc.Location.Core,
			proc.Location.Thread,
		)
	}
}
