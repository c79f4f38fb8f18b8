// Package tpm routes TPM 2.0 commands to one of two backends: the regular
// platform TPM profile (PTP) device or a virtual TPM hosted by the secure VM
// service module (SVSM). The backend is selected once, by probing for the
// SVSM vTPM, and never changes afterwards.
package tpm

import (
	"io"

	"github.com/linuxboot/fiano/pkg/guid"

	"standalonemm/kernel"
	"standalonemm/kernel/kfmt"
)

// DTpm20InstanceGuid identifies the discrete TPM 2.0 device interface.
var DTpm20InstanceGuid = guid.MustParse("286BF25A-C2C3-408C-B3B4-25E6758B7317")

var errNoBackend = &kernel.Error{Module: "tpm", Message: "no TPM backend", Status: kernel.StatusNotFound}

// Backend is implemented by TPM transports.
type Backend interface {
	// SubmitCommand sends the command in in to the TPM and writes the
	// response to out. It returns the response length.
	SubmitCommand(in, out []byte) (int, *kernel.Error)

	// RequestUse requests access to the TPM.
	RequestUse() *kernel.Error
}

// Initializer is implemented by backends that must be set up before use.
// Output written to w is prefixed with the backend name.
type Initializer interface {
	DriverInit(w io.Writer) *kernel.Error
}

// Probe reports whether the alternate backend is present.
type Probe func() bool

// Router dispatches to the selected backend.
type Router struct {
	ptp  Backend
	svsm Backend

	decided      bool
	useAlternate bool
}

// NewRouter returns a Router that uses svsm if probe reports it as present
// and ptp otherwise. The probe runs exactly once.
func NewRouter(ptp, svsm Backend, probe Probe) *Router {
	r := &Router{ptp: ptp, svsm: svsm}
	r.decide(probe)
	return r
}

// decide runs probe on the first call and caches the result. Until decide is
// called the router uses the regular backend.
func (r *Router) decide(probe Probe) bool {
	if !r.decided {
		r.decided = true
		r.useAlternate = r.svsm != nil && probe != nil && probe()
	}
	return r.useAlternate
}

// UsingAlternate returns true if commands are routed to the SVSM vTPM.
func (r *Router) UsingAlternate() bool {
	return r.useAlternate
}

// SubmitCommand forwards the command to the selected backend.
func (r *Router) SubmitCommand(in, out []byte) (int, *kernel.Error) {
	backend := r.backend()
	if backend == nil {
		return 0, errNoBackend
	}
	return backend.SubmitCommand(in, out)
}

// RequestUse forwards the request to the regular backend. The SVSM vTPM is
// always available so the request succeeds immediately.
func (r *Router) RequestUse() *kernel.Error {
	if r.useAlternate {
		return nil
	}

	if r.ptp == nil {
		return errNoBackend
	}
	return r.ptp.RequestUse()
}

func (r *Router) backend() Backend {
	if r.useAlternate {
		return r.svsm
	}
	return r.ptp
}

// Device describes a TPM device instance offered to a Registry.
type Device struct {
	InterfaceType guid.GUID
	SubmitCommand func(in, out []byte) (int, *kernel.Error)
	RequestUse    func() *kernel.Error
}

// Registry accepts TPM device instances. A registry that is configured not
// to use an instance rejects it with kernel.StatusUnsupported.
type Registry interface {
	RegisterDevice(dev *Device) *kernel.Error
}

// Instance describes the backends of a dTPM 2.0 device instance.
type Instance struct {
	Ptp   Backend
	Svsm  Backend
	Probe Probe
}

// RegisterInstance offers the dTPM 2.0 instance to reg. If reg accepts it,
// the SVSM vTPM is probed and the regular backend is initialized when the
// probe fails. A registry reply of kernel.StatusUnsupported means the
// platform does not use this instance; it is not an error and no probing
// takes place.
func RegisterInstance(reg Registry, inst Instance) (*Router, *kernel.Error) {
	r := &Router{ptp: inst.Ptp, svsm: inst.Svsm}

	err := reg.RegisterDevice(&Device{
		InterfaceType: *DTpm20InstanceGuid,
		SubmitCommand: r.SubmitCommand,
		RequestUse:    r.RequestUse,
	})

	switch {
	case err == nil:
	case err.Status == kernel.StatusUnsupported:
		return r, nil
	default:
		return nil, err
	}

	if r.decide(inst.Probe) {
		kfmt.Debugf(kfmt.DebugInfo, "[tpm] found SVSM vTPM\n")
		return r, nil
	}

	if initializer, ok := inst.Ptp.(Initializer); ok {
		w := kfmt.PrefixWriter{Sink: kfmt.ActiveWriter(), Prefix: []byte("[tpm] ptp: ")}
		if err := initializer.DriverInit(&w); err != nil {
			kfmt.Fprintf(&w, "init failed: %s\n", err.Message)
		}
	}

	return r, nil
}
