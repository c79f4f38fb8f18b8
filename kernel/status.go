package kernel

// Status is a status code as returned to the environment loader. Error codes
// have the most significant bit set.
type Status uint64

const errBit Status = 1 << 63

// The status codes used by the driver and its collaborators.
const (
	StatusSuccess          Status = 0
	StatusLoadError               = errBit | 1
	StatusInvalidParameter        = errBit | 2
	StatusUnsupported             = errBit | 3
	StatusBadBufferSize           = errBit | 4
	StatusBufferTooSmall          = errBit | 5
	StatusNotReady                = errBit | 6
	StatusDeviceError             = errBit | 7
	StatusOutOfResources          = errBit | 9
	StatusNotFound                = errBit | 14
	StatusAccessDenied            = errBit | 15
	StatusAlreadyStarted          = errBit | 20
	StatusCompromisedData         = errBit | 33
)

// IsError returns true if s describes a failure.
func (s Status) IsError() bool {
	return s&errBit != 0
}

// String implements fmt.Stringer for Status.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusLoadError:
		return "load error"
	case StatusInvalidParameter:
		return "invalid parameter"
	case StatusUnsupported:
		return "unsupported"
	case StatusBadBufferSize:
		return "bad buffer size"
	case StatusBufferTooSmall:
		return "buffer too small"
	case StatusNotReady:
		return "not ready"
	case StatusDeviceError:
		return "device error"
	case StatusOutOfResources:
		return "out of resources"
	case StatusNotFound:
		return "not found"
	case StatusAccessDenied:
		return "access denied"
	case StatusAlreadyStarted:
		return "already started"
	case StatusCompromisedData:
		return "compromised data"
	default:
		return "unknown"
	}
}
