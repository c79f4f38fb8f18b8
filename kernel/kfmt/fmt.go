package kfmt

import (
	"io"
	"strconv"
)

var (
	errMissingArg   = []byte("(MISSING)")
	errWrongArgType = []byte("%!(WRONGTYPE)")
	errNoVerb       = []byte("%!(NOVERB)")
	errExtraArg     = []byte("%!(EXTRA)")
	trueValue       = []byte("true")
	falseValue      = []byte("false")

	// earlyPrintBuffer is a ring buffer that stores Printf output before an
	// output sink is attached.
	earlyPrintBuffer ringBuffer

	// outputSink is a io.Writer where Printf will send its output. If set
	// to nil, then the output will be redirected to the earlyPrintBuffer.
	outputSink io.Writer
)

// SetOutputSink sets the default target for calls to Printf to w and copies
// any data accumulated in the earlyPrintBuffer to it.
func SetOutputSink(w io.Writer) {
	outputSink = w
	if w != nil {
		io.Copy(w, &earlyPrintBuffer)
	}
}

// GetOutputSink returns the currently active output sink or nil if output is
// still being buffered.
func GetOutputSink() io.Writer {
	return outputSink
}

// ActiveWriter returns the active output sink or, if no sink is attached yet,
// the buffer that collects early output.
func ActiveWriter() io.Writer {
	if outputSink != nil {
		return outputSink
	}
	return &earlyPrintBuffer
}

// Printf provides a minimal Printf implementation for the driver's diagnostic
// output. It supports the following subset of formatting verbs:
//
// Strings:
//		%s the uninterpreted bytes of the string or byte slice
//
// Integers:
//              %o base 8
//              %d base 10
//              %x base 16, with lower-case letters for a-f
//
// Booleans:
//              %t "true" or "false"
//
// Width is specified by an optional decimal number immediately preceding the
// verb. Strings and base-10 integers are left-padded with spaces; base-8 and
// base-16 integers are left-padded with zeroes.
//
// The output of Printf is written to the active output sink. If no sink is
// attached, the output is buffered into a ring-buffer and flushed to the
// first sink passed to SetOutputSink.
func Printf(format string, args ...interface{}) {
	Fprintf(outputSink, format, args...)
}

// Fprintf behaves exactly like Printf but it writes the formatted output to
// the specified io.Writer.
func Fprintf(w io.Writer, format string, args ...interface{}) {
	var (
		out          = make([]byte, 0, len(format)+16)
		nextArgIndex int
		padLen       int
	)

	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			out = append(out, format[i])
			continue
		}

		padLen = 0
	parseFmt:
		for i++; ; i++ {
			if i >= len(format) {
				out = append(out, errNoVerb...)
				break
			}

			switch ch := format[i]; {
			case ch == '%':
				out = append(out, '%')
				break parseFmt
			case ch >= '0' && ch <= '9':
				padLen = padLen*10 + int(ch-'0')
			case ch == 'd' || ch == 'x' || ch == 'o' || ch == 's' || ch == 't':
				if nextArgIndex >= len(args) {
					out = append(out, errMissingArg...)
					break parseFmt
				}

				switch ch {
				case 'o':
					out = fmtInt(out, args[nextArgIndex], 8, padLen)
				case 'd':
					out = fmtInt(out, args[nextArgIndex], 10, padLen)
				case 'x':
					out = fmtInt(out, args[nextArgIndex], 16, padLen)
				case 's':
					out = fmtString(out, args[nextArgIndex], padLen)
				case 't':
					out = fmtBool(out, args[nextArgIndex])
				}

				nextArgIndex++
				break parseFmt
			default:
				out = append(out, errNoVerb...)
				break parseFmt
			}
		}
	}

	for ; nextArgIndex < len(args); nextArgIndex++ {
		out = append(out, errExtraArg...)
	}

	doWrite(w, out)
}

func fmtBool(out []byte, v interface{}) []byte {
	bVal, ok := v.(bool)
	switch {
	case !ok:
		return append(out, errWrongArgType...)
	case bVal:
		return append(out, trueValue...)
	default:
		return append(out, falseValue...)
	}
}

// fmtString appends a formatted version of a string, []byte or error value
// v, applying the padding specified by padLen.
func fmtString(out []byte, v interface{}, padLen int) []byte {
	var str string
	switch castedVal := v.(type) {
	case string:
		str = castedVal
	case []byte:
		str = string(castedVal)
	case error:
		str = castedVal.Error()
	default:
		return append(out, errWrongArgType...)
	}

	out = fmtRepeat(out, ' ', padLen-len(str))
	return append(out, str...)
}

func fmtRepeat(out []byte, ch byte, count int) []byte {
	for ; count > 0; count-- {
		out = append(out, ch)
	}
	return out
}

// fmtInt appends a formatted version of v in the requested base, applying the
// padding specified by padLen. All built-in signed and unsigned integer types
// are supported.
func fmtInt(out []byte, v interface{}, base, padLen int) []byte {
	var (
		uval uint64
		neg  bool
	)

	switch t := v.(type) {
	case uint8:
		uval = uint64(t)
	case uint16:
		uval = uint64(t)
	case uint32:
		uval = uint64(t)
	case uint64:
		uval = t
	case uint:
		uval = uint64(t)
	case uintptr:
		uval = uint64(t)
	case int8, int16, int32, int64, int:
		sval := toInt64(t)
		if neg = sval < 0; neg {
			uval = uint64(-sval)
		} else {
			uval = uint64(sval)
		}
	default:
		return append(out, errWrongArgType...)
	}

	digits := strconv.FormatUint(uval, base)
	if neg {
		padLen--
	}

	// Zero padding goes after the sign; space padding before it.
	if base == 10 {
		out = fmtRepeat(out, ' ', padLen-len(digits))
		if neg {
			out = append(out, '-')
		}
	} else {
		if neg {
			out = append(out, '-')
		}
		out = fmtRepeat(out, '0', padLen-len(digits))
	}

	return append(out, digits...)
}

func toInt64(v interface{}) int64 {
	switch t := v.(type) {
	case int8:
		return int64(t)
	case int16:
		return int64(t)
	case int32:
		return int64(t)
	case int64:
		return t
	default:
		return int64(t.(int))
	}
}

func doWrite(w io.Writer, p []byte) {
	if w != nil {
		w.Write(p)
	} else {
		earlyPrintBuffer.Write(p)
	}
}
