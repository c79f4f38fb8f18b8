package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"standalonemm/hob"
	"standalonemm/kernel"
	"standalonemm/kernel/kfmt"
	"standalonemm/kernel/mem"
	"standalonemm/mmcpu"
	"standalonemm/mmst"
	"standalonemm/mpinfo"
)

var (
	arenaSize  = flag.Uint64("arena", uint64(64*mem.Kb), "size of the memory pool used by the driver")
	count      = flag.Uint64("count", 4, "gen: number of processors")
	enabled    = flag.Uint64("enabled", 4, "gen: number of enabled processors")
	nsBase     = flag.Uint64("ns-base", 0x80000000, "gen: base address of the non-secure buffer")
	nsSize     = flag.Uint64("ns-size", 0x10000, "gen: size of the non-secure buffer")
	verbose    = flag.Bool("verbose", false, "emit verbose driver diagnostics")
)

func exit(err error) {
	fmt.Fprintf(os.Stderr, "[hobdump] error: %s\n", err.Error())
	os.Exit(1)
}

// mapImage maps the HOB image stored in path. The returned function unmaps
// it.
func mapImage(path string) (hob.List, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, nil, err
	}

	if info.Size() == 0 {
		return nil, nil, fmt.Errorf("%s: empty HOB image", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(info.Size()), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: mmap failed: %w", path, err)
	}

	return hob.List(data), func() { unix.Munmap(data) }, nil
}

func dumpRecords(list hob.List) error {
	var records int
	err := hob.Visit(list, func(rec hob.Record) bool {
		records++
		if name := rec.Name(); name != nil {
			fmt.Printf("0x%06x type 0x%04x len 0x%04x guid %s\n", rec.Offset, uint16(rec.Type), rec.Length(), name.String())
			return true
		}

		fmt.Printf("0x%06x type 0x%04x len 0x%04x\n", rec.Offset, uint16(rec.Type), rec.Length())
		return true
	})

	fmt.Printf("%d records\n", records)
	return kernelErr(err)
}

// runDriver initializes the CPU driver against an in-memory system table
// whose configuration table points to list.
func runDriver(list hob.List) error {
	st := mmst.New(mem.Size(*arenaSize))
	if err := st.InstallConfigurationTable(mmcpu.HobListGuid, list); err != nil {
		return err
	}

	if status := mmcpu.Initialize(0, st); status.IsError() {
		return fmt.Errorf("driver initialization failed with status %s: %w", status, mmcpu.Default().Err())
	}

	drv := mmcpu.Default()
	info := drv.MpInformation()
	fmt.Printf("driver %s: %d processors, %d enabled, %d context slots\n",
		drv.State(), info.ProcessorCount(), info.EnabledProcessorCount(), drv.ContextTable().Len())

	for index := uint64(0); index < info.ProcessorCount(); index++ {
		proc, _ := info.Processor(index)
		fmt.Printf("  cpu %d: id 0x%x flags 0x%x package %d core %d thread %d\n",
			index, proc.ID, uint32(proc.StatusFlag), proc.Location.Package, proc.Location.Core, proc.Location.Thread)
	}

	if desc := drv.CommBuffer(); desc != nil {
		fmt.Printf("non-secure buffer: 0x%x - 0x%x\n", desc.PhysicalStart, desc.PhysicalStart+desc.PhysicalSize)
	}

	return nil
}

func genImage(path string) error {
	if *enabled > *count {
		return fmt.Errorf("enabled processor count %d exceeds processor count %d", *enabled, *count)
	}

	list := new(hob.Builder).
		Add(hob.TypeHandoff, make([]byte, 48)).
		AddGuid(mmcpu.NonSecureBufferHobGuid, mmcpu.EncodeCommBuffer(mmcpu.CommBufferDescriptor{
			PhysicalStart: *nsBase,
			CpuStart:      *nsBase,
			PhysicalSize:  *nsSize,
		})).
		AddGuid(mpinfo.HobGuid, mpinfo.Encode(*enabled, mpinfo.Topology(*count, *enabled))).
		List()

	return os.WriteFile(path, list, 0644)
}

// kernelErr converts a possibly nil *kernel.Error into an error without
// producing a non-nil interface holding a nil pointer.
func kernelErr(err *kernel.Error) error {
	if err == nil {
		return nil
	}
	return err
}

func main() {
	flag.Parse()
	if len(flag.Args()) != 2 {
		exit(errors.New("usage: hobdump [flags] dump|init|gen hob-image"))
	}

	if *verbose {
		kfmt.SetDebugMask(kfmt.DebugError | kfmt.DebugWarn | kfmt.DebugInfo | kfmt.DebugVerbose)
	}
	kfmt.SetOutputSink(&kfmt.PrefixWriter{Sink: os.Stderr, Prefix: []byte("[hobdump] ")})

	cmd, imgFile := flag.Arg(0), flag.Arg(1)
	if cmd == "gen" {
		if err := genImage(imgFile); err != nil {
			exit(err)
		}
		return
	}

	list, unmap, err := mapImage(imgFile)
	if err != nil {
		exit(err)
	}
	defer unmap()

	switch cmd {
	case "dump":
		err = dumpRecords(list)
	case "init":
		err = runDriver(list)
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}

	if err != nil {
		unmap()
		exit(err)
	}
}
