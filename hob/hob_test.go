package hob

import (
	"bytes"
	"testing"

	"github.com/linuxboot/fiano/pkg/guid"
)

var (
	testGuidA = guid.MustParse("BA33F15D-4000-45C1-8E88-F91692D457E3")
	testGuidB = guid.MustParse("F00497E3-BFA2-41A1-9D29-54C2E93721C5")
	testGuidC = guid.MustParse("7739F24C-93D7-11D4-9A3A-0090273FC14D")
)

func TestVisit(t *testing.T) {
	list := new(Builder).
		Add(TypeHandoff, make([]byte, 48)).
		AddGuid(testGuidA, []byte{1, 2, 3}).
		Add(TypeResourceDescriptor, make([]byte, 40)).
		List()

	specs := []struct {
		expType   Type
		expOffset int
		expLen    int
	}{
		{TypeHandoff, 0, 56},
		{TypeGuidExtension, 56, 32},
		{TypeResourceDescriptor, 88, 48},
	}

	var visitCount int
	err := Visit(list, func(rec Record) bool {
		if visitCount >= len(specs) {
			t.Fatalf("unexpected record %d", visitCount)
		}

		spec := specs[visitCount]
		if rec.Type != spec.expType {
			t.Errorf("[record %d] expected type 0x%x; got 0x%x", visitCount, spec.expType, rec.Type)
		}
		if rec.Offset != spec.expOffset {
			t.Errorf("[record %d] expected offset %d; got %d", visitCount, spec.expOffset, rec.Offset)
		}
		if rec.Length() != spec.expLen {
			t.Errorf("[record %d] expected length %d; got %d", visitCount, spec.expLen, rec.Length())
		}

		visitCount++
		return true
	})

	if err != nil {
		t.Fatal(err)
	}

	if visitCount != len(specs) {
		t.Fatalf("expected the visitor to be invoked %d times; got %d", len(specs), visitCount)
	}
}

func TestVisitAbort(t *testing.T) {
	list := new(Builder).
		AddGuid(testGuidA, []byte{1}).
		AddGuid(testGuidB, []byte{2}).
		List()

	var visitCount int
	if err := Visit(list, func(Record) bool {
		visitCount++
		return false
	}); err != nil {
		t.Fatal(err)
	}

	if visitCount != 1 {
		t.Fatalf("expected the scan to stop after the first record; visited %d", visitCount)
	}
}

func TestRecordAccessors(t *testing.T) {
	list := new(Builder).
		Add(TypeCPU, []byte{0xaa, 0xbb}).
		AddGuid(testGuidC, []byte{0xcc}).
		List()

	var recs []Record
	Visit(list, func(rec Record) bool {
		recs = append(recs, rec)
		return true
	})

	if len(recs) != 2 {
		t.Fatalf("expected 2 records; got %d", len(recs))
	}

	if recs[0].Name() != nil {
		t.Error("expected Name() to return nil for a non-GUID record")
	}

	if exp, got := []byte{0xaa, 0xbb, 0, 0, 0, 0, 0, 0}, recs[0].Payload(); !bytes.Equal(got, exp) {
		t.Errorf("expected payload %v; got %v", exp, got)
	}

	if got := recs[1].Name(); got == nil || *got != *testGuidC {
		t.Errorf("expected Name() to return %s; got %v", testGuidC, got)
	}

	if exp, got := []byte{0xcc, 0, 0, 0, 0, 0, 0, 0}, recs[1].Payload(); !bytes.Equal(got, exp) {
		t.Errorf("expected payload %v; got %v", exp, got)
	}
}

func TestFindGuid(t *testing.T) {
	list := new(Builder).
		Add(TypeHandoff, make([]byte, 48)).
		AddGuid(testGuidB, []byte{0xb0}).
		AddGuid(testGuidA, []byte{0xa1, 0xa1}).
		AddGuid(testGuidA, []byte{0xa2}).
		List()

	payload, err := FindGuid(list, testGuidA)
	if err != nil {
		t.Fatal(err)
	}

	// First match wins
	if payload[0] != 0xa1 || payload[1] != 0xa1 {
		t.Fatalf("expected payload of the first matching record; got %v", payload)
	}

	// The payload aliases the list
	payload[0] = 0xff
	if again, _ := FindGuid(list, testGuidA); again[0] != 0xff {
		t.Fatal("expected FindGuid to return a view into the list rather than a copy")
	}

	if _, err := FindGuid(list, testGuidC); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound for a missing GUID; got %v", err)
	}
}

func TestFindGuidErrors(t *testing.T) {
	validList := new(Builder).AddGuid(testGuidA, []byte{1}).List()

	truncated := validList[:len(validList)-headerSize]

	zeroLen := new(Builder).AddGuid(testGuidB, []byte{1}).List()
	zeroLen[2], zeroLen[3] = 0, 0

	overrun := new(Builder).AddGuid(testGuidB, []byte{1}).List()
	overrun[2], overrun[3] = 0xf0, 0x00

	shortGuid := new(Builder).Add(TypeGuidExtension, []byte{1, 2}).List()

	specs := []struct {
		list   List
		name   *guid.GUID
		expErr error
	}{
		{nil, testGuidA, ErrInvalidParameter},
		{validList, nil, ErrInvalidParameter},
		{new(Builder).AddGuid(testGuidA, nil).List(), testGuidA, ErrNotFound},
		{truncated, testGuidC, ErrMalformedList},
		{zeroLen, testGuidA, ErrMalformedList},
		{overrun, testGuidA, ErrMalformedList},
		{shortGuid, testGuidA, ErrMalformedList},
		// a match located before the malformed part is still returned
		{truncated, testGuidA, nil},
	}

	for specIndex, spec := range specs {
		_, err := FindGuid(spec.list, spec.name)
		if spec.expErr == nil {
			if err != nil {
				t.Errorf("[spec %d] unexpected error: %v", specIndex, err)
			}
			continue
		}

		if err != spec.expErr {
			t.Errorf("[spec %d] expected error %v; got %v", specIndex, spec.expErr, err)
		}
	}
}
