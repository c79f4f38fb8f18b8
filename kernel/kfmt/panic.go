package kfmt

import "standalonemm/kernel"

var (
	// haltFn is invoked by Panic once the panic banner has been printed.
	// Tests replace it to observe calls to Panic.
	haltFn = func(err *kernel.Error) { panic(err) }

	errRuntimePanic  = &kernel.Error{Module: "rt", Message: "unknown cause"}
	errAssertFailure = &kernel.Error{Module: "assert", Message: "assertion failed"}
)

// Panic outputs the supplied error (if not nil) and halts execution. It is
// reserved for contract breaches that can only happen if the environment
// itself is broken.
func Panic(e interface{}) {
	var err *kernel.Error

	switch t := e.(type) {
	case *kernel.Error:
		err = t
	case string:
		errRuntimePanic.Message = t
		err = errRuntimePanic
	case error:
		errRuntimePanic.Message = t.Error()
		err = errRuntimePanic
	}

	Printf("\n-----------------------------------\n")
	if err != nil {
		Printf("[%s] unrecoverable error: %s\n", err.Module, err.Message)
	}
	Printf("*** standalone mm panic: execution halted ***")
	Printf("\n-----------------------------------\n")

	haltFn(err)
}

// Assert panics with the supplied message if cond is false.
func Assert(cond bool, msg string) {
	if cond {
		return
	}

	errAssertFailure.Message = msg
	Panic(errAssertFailure)
}
