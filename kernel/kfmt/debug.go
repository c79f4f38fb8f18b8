package kfmt

// DebugLevel classifies a diagnostic message. Levels are OR-able so that a
// mask can enable any combination of them.
type DebugLevel uint32

const (
	// DebugError marks messages describing a failure.
	DebugError DebugLevel = 1 << iota

	// DebugWarn marks messages describing a recoverable anomaly.
	DebugWarn

	// DebugInfo marks informational messages.
	DebugInfo

	// DebugVerbose marks detailed tracing output.
	DebugVerbose
)

// debugMask selects the levels that Debugf emits.
var debugMask = DebugError | DebugWarn | DebugInfo

// SetDebugMask sets the mask of levels that are emitted by Debugf and returns
// the previous mask.
func SetDebugMask(mask DebugLevel) DebugLevel {
	prev := debugMask
	debugMask = mask
	return prev
}

// Debugf behaves like Printf but only emits the message if level is enabled
// by the debug mask.
func Debugf(level DebugLevel, format string, args ...interface{}) {
	if debugMask&level == 0 {
		return
	}

	Fprintf(outputSink, format, args...)
}
