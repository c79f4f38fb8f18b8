package mmcpu

import (
	"encoding/binary"

	"standalonemm/hob"
	"standalonemm/kernel"
)

// commBufferDescriptorSize is the size of the MMRAM descriptor payload.
const commBufferDescriptorSize = 32

var errInvalidCommBufferHob = &kernel.Error{Module: "mm_cpu", Message: "malformed non-secure buffer HOB", Status: kernel.StatusCompromisedData}

// CommBufferDescriptor describes the memory region shared with the
// non-secure world.
type CommBufferDescriptor struct {
	PhysicalStart uint64
	CpuStart      uint64
	PhysicalSize  uint64
	RegionState   uint64
}

// Contains returns true if the size bytes starting at addr fall entirely
// within the described region.
func (d *CommBufferDescriptor) Contains(addr, size uint64) bool {
	end := d.PhysicalStart + d.PhysicalSize
	if end < d.PhysicalStart || addr < d.PhysicalStart || addr+size < addr {
		return false
	}
	return addr+size <= end
}

// findCommBuffer returns the non-secure buffer descriptor published in list.
func findCommBuffer(list hob.List) (*CommBufferDescriptor, *kernel.Error) {
	payload, err := hob.FindGuid(list, NonSecureBufferHobGuid)
	if err != nil {
		return nil, err
	}

	if len(payload) < commBufferDescriptorSize {
		return nil, errInvalidCommBufferHob
	}

	return &CommBufferDescriptor{
		PhysicalStart: binary.LittleEndian.Uint64(payload[0:]),
		CpuStart:      binary.LittleEndian.Uint64(payload[8:]),
		PhysicalSize:  binary.LittleEndian.Uint64(payload[16:]),
		RegionState:   binary.LittleEndian.Uint64(payload[24:]),
	}, nil
}

// EncodeCommBuffer serializes d in the non-secure buffer HOB payload layout.
func EncodeCommBuffer(d CommBufferDescriptor) []byte {
	buf := make([]byte, commBufferDescriptorSize)
	binary.LittleEndian.PutUint64(buf[0:], d.PhysicalStart)
	binary.LittleEndian.PutUint64(buf[8:], d.CpuStart)
	binary.LittleEndian.PutUint64(buf[16:], d.PhysicalSize)
	binary.LittleEndian.PutUint64(buf[24:], d.RegionState)
	return buf
}
