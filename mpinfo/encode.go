package mpinfo

import (
	"encoding/binary"

	"standalonemm/kernel/mem"
)

// Encode serializes a topology in the MP information HOB payload layout.
// It is used to publish synthetic topologies, e.g. by host tooling.
func Encode(enabled uint64, processors []Processor) []byte {
	buf := make([]byte, HeaderSize+mem.Size(len(processors))*ProcessorInfoSize)
	binary.LittleEndian.PutUint64(buf[0:], uint64(len(processors)))
	binary.LittleEndian.PutUint64(buf[8:], enabled)

	for index, proc := range processors {
		rec := buf[HeaderSize+mem.Size(index)*ProcessorInfoSize:]
		binary.LittleEndian.PutUint64(rec[0:], proc.ID)
		binary.LittleEndian.PutUint32(rec[8:], uint32(proc.StatusFlag))
		binary.LittleEndian.PutUint32(rec[12:], proc.Location.Package)
		binary.LittleEndian.PutUint32(rec[16:], proc.Location.Core)
		binary.LittleEndian.PutUint32(rec[20:], proc.Location.Thread)
		binary.LittleEndian.PutUint32(rec[24:], proc.ExtendedLocation.Package)
		binary.LittleEndian.PutUint32(rec[28:], proc.ExtendedLocation.Module)
		binary.LittleEndian.PutUint32(rec[32:], proc.ExtendedLocation.Tile)
		binary.LittleEndian.PutUint32(rec[36:], proc.ExtendedLocation.Die)
		binary.LittleEndian.PutUint32(rec[40:], proc.ExtendedLocation.Core)
		binary.LittleEndian.PutUint32(rec[44:], proc.ExtendedLocation.Thread)
	}

	return buf
}

// Topology returns count processors laid out as one package with a single
// thread per core. The first processor is the bootstrap processor and the
// first enabled processors carry the enabled flag.
func Topology(count, enabled uint64) []Processor {
	procs := make([]Processor, count)
	for index := range procs {
		flags := ProcessorHealthy
		if uint64(index) < enabled {
			flags |= ProcessorEnabled
		}
		if index == 0 {
			flags |= ProcessorAsBSP
		}

		procs[index] = Processor{
			ID:         uint64(index),
			StatusFlag: flags,
			Location:   Location{Core: uint32(index)},
			ExtendedLocation: ExtendedLocation{
				Core: uint32(index),
			},
		}
	}

	return procs
}
