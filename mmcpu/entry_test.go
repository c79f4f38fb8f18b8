package mmcpu_test

import (
	"testing"

	"standalonemm/kernel"
	"standalonemm/mmcpu"
	"standalonemm/mmst"
)

func readyDriver(t *testing.T) (*mmcpu.Driver, *mmst.Table, *mmcpu.ConfigurationProtocol, *mmcpu.EntryPointProtocol) {
	silenceOutput(t)

	st := newEnvironment(t, 4, 3)
	d := new(mmcpu.Driver)
	if err := d.Init(1, st); err != nil {
		t.Fatal(err)
	}

	config, err := st.LocateProtocol(mmcpu.MmConfigurationProtocolGuid)
	if err != nil {
		t.Fatal(err)
	}

	entry, err := st.LocateProtocol(mmcpu.PiMmCpuDriverEpProtocolGuid)
	if err != nil {
		t.Fatal(err)
	}

	return d, st, config.(*mmcpu.ConfigurationProtocol), entry.(*mmcpu.EntryPointProtocol)
}

func TestEntry(t *testing.T) {
	d, st, config, ep := readyDriver(t)

	const commBuffer = uintptr(0x80000100)

	var calls int
	err := config.RegisterMmEntry(func(ctx *mmcpu.EntryContext) *kernel.Error {
		calls++

		if ctx.CurrentlyExecutingCpu != 2 || ctx.NumberOfCpus != 3 {
			t.Errorf("unexpected entry context: %+v", *ctx)
		}

		if addr, ok := d.ContextTable().Slot(2); !ok || addr != commBuffer {
			t.Errorf("expected slot 2 to hold 0x%x; got 0x%x, %t", commBuffer, addr, ok)
		}

		// The MM core dispatches the event to the root handlers.
		st.SetCurrentCpu(ctx.CurrentlyExecutingCpu)
		return st.MmiManage(nil, nil, nil)
	})
	if err != nil {
		t.Fatal(err)
	}

	if err = ep.Entry(0x10, 2, commBuffer); err != nil {
		t.Fatal(err)
	}

	if calls != 1 {
		t.Fatalf("expected the foundation entry to be called once; got %d", calls)
	}

	if _, ok := d.ContextTable().Slot(2); ok {
		t.Fatal("expected slot 2 to be cleared after the event")
	}

	// The slot was consumed by the root handler; a second dispatch finds
	// nothing to process.
	if err = st.MmiManage(nil, nil, nil); err == nil || err.Status != kernel.StatusNotFound {
		t.Fatalf("expected a not found status; got %v", err)
	}
}

func TestEntryErrors(t *testing.T) {
	_, _, config, ep := readyDriver(t)

	if err := ep.Entry(0, 0, 0x80000000); err == nil || err.Status != kernel.StatusNotReady {
		t.Fatalf("expected a not ready status before the foundation entry is registered; got %v", err)
	}

	if err := config.RegisterMmEntry(nil); err == nil || err.Status != kernel.StatusInvalidParameter {
		t.Fatalf("expected an invalid parameter status for a nil entry; got %v", err)
	}

	foundationErr := &kernel.Error{Module: "test", Message: "core failure", Status: kernel.StatusDeviceError}
	if err := config.RegisterMmEntry(func(*mmcpu.EntryContext) *kernel.Error { return foundationErr }); err != nil {
		t.Fatal(err)
	}

	specs := []struct {
		cpu        uint64
		commBuffer uintptr
		expStatus  kernel.Status
	}{
		{3, 0x80000000, kernel.StatusInvalidParameter},
		{0, 0, kernel.StatusInvalidParameter},
		{0, 0x7fffffff, kernel.StatusAccessDenied},
		{0, 0x8000fff0, kernel.StatusAccessDenied},
		{0, 0x80000000, kernel.StatusDeviceError},
	}

	for specIndex, spec := range specs {
		if err := ep.Entry(0, spec.cpu, spec.commBuffer); kernel.StatusOf(err) != spec.expStatus {
			t.Errorf("[spec %d] expected status %s; got %s", specIndex, spec.expStatus, kernel.StatusOf(err))
		}
	}
}

func TestEntryBeforeReady(t *testing.T) {
	silenceOutput(t)

	st := mmst.New(1024)
	var d mmcpu.Driver
	if err := d.Init(1, st); err != mmcpu.ErrHobListNotFound {
		t.Fatalf("expected ErrHobListNotFound; got %v", err)
	}

	entry, err := st.LocateProtocol(mmcpu.PiMmCpuDriverEpProtocolGuid)
	if err != nil {
		t.Fatal(err)
	}

	if err := entry.(*mmcpu.EntryPointProtocol).Entry(0, 0, 0x80000000); err == nil || err.Status != kernel.StatusNotReady {
		t.Fatalf("expected a not ready status; got %v", err)
	}

	// The root handler is registered before the HOB list is located and
	// must cope with the missing context table.
	if err := st.MmiManage(nil, nil, nil); err == nil || err.Status != kernel.StatusNotReady {
		t.Fatalf("expected a not ready status from the root handler; got %v", err)
	}
}
