package hob

import (
	"encoding/binary"
	"math"

	"github.com/linuxboot/fiano/pkg/guid"
)

// recordAlignment is the alignment of every record appended by a Builder.
const recordAlignment = 8

// Builder assembles a HOB list in memory. Record payloads are zero-padded so
// that each record length is a multiple of 8 bytes.
type Builder struct {
	buf []byte
}

// Add appends a record of type t carrying payload. Payloads that would not
// fit in a single record are truncated.
func (b *Builder) Add(t Type, payload []byte) *Builder {
	return b.add(t, nil, payload)
}

// AddGuid appends a GUID extension record named name carrying payload.
func (b *Builder) AddGuid(name *guid.GUID, payload []byte) *Builder {
	return b.add(TypeGuidExtension, name, payload)
}

func (b *Builder) add(t Type, name *guid.GUID, payload []byte) *Builder {
	hdrLen := headerSize
	if name != nil {
		hdrLen = guidHeaderSize
	}

	maxPayload := (math.MaxUint16 &^ (recordAlignment - 1)) - hdrLen
	if len(payload) > maxPayload {
		payload = payload[:maxPayload]
	}

	recLen := (hdrLen + len(payload) + recordAlignment - 1) &^ (recordAlignment - 1)
	rec := make([]byte, recLen)
	binary.LittleEndian.PutUint16(rec[0:], uint16(t))
	binary.LittleEndian.PutUint16(rec[2:], uint16(recLen))
	if name != nil {
		copy(rec[headerSize:], name[:])
	}
	copy(rec[hdrLen:], payload)

	b.buf = append(b.buf, rec...)
	return b
}

// List returns the assembled records followed by an end-of-list record. The
// builder can keep appending records afterwards; the returned list is not
// affected.
func (b *Builder) List() List {
	list := make(List, len(b.buf)+headerSize)
	copy(list, b.buf)
	binary.LittleEndian.PutUint16(list[len(b.buf):], uint16(TypeEndOfHobList))
	binary.LittleEndian.PutUint16(list[len(b.buf)+2:], headerSize)
	return list
}
