package kernel

// Error describes a driver error. Errors are defined as global variables that
// are pointers to the Error structure so that callers can compare them by
// identity. An error that is raised because a lower layer failed links to that
// failure through Cause.
type Error struct {
	// The module where the error occurred.
	Module string

	// The error message
	Message string

	// The status code reported to the environment loader.
	Status Status

	// The lower-layer error that triggered this one, if any.
	Cause *Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap returns the lower-layer error or nil.
func (e *Error) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// StatusOf returns the status code for err. A nil error maps to StatusSuccess.
func StatusOf(err *Error) Status {
	if err == nil {
		return StatusSuccess
	}
	return err.Status
}
