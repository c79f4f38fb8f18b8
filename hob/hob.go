// Package hob provides read-only access to a hand-off block (HOB) list: the
// sequence of tagged, variable-length records that an earlier boot stage
// passes to the Standalone MM environment.
package hob

import (
	"bytes"
	"encoding/binary"

	"github.com/linuxboot/fiano/pkg/guid"

	"standalonemm/kernel"
)

// Type identifies the kind of a HOB record.
type Type uint16

// nolint
const (
	TypeHandoff            Type = 0x0001
	TypeMemoryAllocation   Type = 0x0002
	TypeResourceDescriptor Type = 0x0003
	TypeGuidExtension      Type = 0x0004
	TypeFirmwareVolume     Type = 0x0005
	TypeCPU                Type = 0x0006
	TypeMemoryPool         Type = 0x0007
	TypeFirmwareVolume2    Type = 0x0009
	TypeLoadPEIMUnused     Type = 0x000a
	TypeUEFICapsule        Type = 0x000b
	TypeFirmwareVolume3    Type = 0x000c
	TypeUnused             Type = 0xfffe
	TypeEndOfHobList       Type = 0xffff
)

const (
	// headerSize is the size of the generic header that precedes each
	// record: type (2 bytes), length (2 bytes) and 4 reserved bytes.
	headerSize = 8

	// guidHeaderSize is the size of the header of a GUID extension
	// record: the generic header followed by the 16-byte record name.
	guidHeaderSize = headerSize + guid.Size
)

var (
	// ErrInvalidParameter is returned when a nil list or name is supplied.
	ErrInvalidParameter = &kernel.Error{Module: "hob", Message: "invalid HOB list or GUID", Status: kernel.StatusInvalidParameter}

	// ErrNotFound is returned when no GUID extension record with a
	// non-empty payload matches the requested name.
	ErrNotFound = &kernel.Error{Module: "hob", Message: "GUID HOB not found", Status: kernel.StatusNotFound}

	// ErrMalformedList is returned when a record header describes a
	// record that does not fit in the list or when the list is not
	// terminated.
	ErrMalformedList = &kernel.Error{Module: "hob", Message: "malformed HOB list", Status: kernel.StatusCompromisedData}
)

// List is a read-only view of a HOB list. The underlying bytes are owned by
// the caller and are never modified or copied.
type List []byte

// Record describes a single record of a HOB list.
type Record struct {
	// The type of the record.
	Type Type

	// Offset of the record header from the start of the list.
	Offset int

	// raw holds the record including its header.
	raw []byte
}

// Length returns the length of the record including its header.
func (r Record) Length() int {
	return len(r.raw)
}

// Name returns the name of a GUID extension record or nil for any other
// record type.
func (r Record) Name() *guid.GUID {
	if r.Type != TypeGuidExtension {
		return nil
	}

	var name guid.GUID
	copy(name[:], r.raw[headerSize:guidHeaderSize])
	return &name
}

// Payload returns the record contents that follow its header. For GUID
// extension records the name is considered part of the header. The returned
// slice aliases the list.
func (r Record) Payload() []byte {
	if r.Type == TypeGuidExtension {
		return r.raw[guidHeaderSize:len(r.raw):len(r.raw)]
	}
	return r.raw[headerSize:len(r.raw):len(r.raw)]
}

// Visitor defines a visitor function that gets invoked by Visit for each
// record in the list. The visitor must return true to continue or false to
// abort the scan.
type Visitor func(Record) bool

// Visit invokes visitor for each record in list, in list order, stopping at
// the end-of-list record. Visit returns ErrMalformedList if a record header is
// inconsistent with the list contents; records preceding the malformed one
// have already been visited by then.
func Visit(list List, visitor Visitor) *kernel.Error {
	for offset := 0; ; {
		if len(list)-offset < headerSize {
			return ErrMalformedList
		}

		var (
			recType = Type(binary.LittleEndian.Uint16(list[offset:]))
			recLen  = int(binary.LittleEndian.Uint16(list[offset+2:]))
		)

		if recType == TypeEndOfHobList {
			return nil
		}

		// A zero length would make the scan loop forever.
		if recLen < headerSize || recLen > len(list)-offset {
			return ErrMalformedList
		}

		if recType == TypeGuidExtension && recLen < guidHeaderSize {
			return ErrMalformedList
		}

		rec := Record{
			Type:   recType,
			Offset: offset,
			raw:    list[offset : offset+recLen : offset+recLen],
		}
		if !visitor(rec) {
			return nil
		}

		offset += recLen
	}
}

// FindGuid scans list for the first GUID extension record whose name matches
// name and returns its payload. The payload aliases the list; no data is
// copied.
//
// FindGuid returns ErrNotFound if no record matches or if the first matching
// record carries an empty payload.
func FindGuid(list List, name *guid.GUID) ([]byte, *kernel.Error) {
	if list == nil || name == nil {
		return nil, ErrInvalidParameter
	}

	var (
		payload []byte
		found   bool
	)

	err := Visit(list, func(rec Record) bool {
		if rec.Type != TypeGuidExtension || !bytes.Equal(rec.raw[headerSize:guidHeaderSize], name[:]) {
			return true
		}

		payload, found = rec.Payload(), true
		return false
	})

	switch {
	case found && len(payload) == 0:
		return nil, ErrNotFound
	case found:
		return payload, nil
	case err != nil:
		return nil, err
	default:
		return nil, ErrNotFound
	}
}
