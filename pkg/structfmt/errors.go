package structfmt

import (
	"errors"
	"fmt"
)

var (
	// ErrBufferOverflow is returned when packed output would exceed the
	// codec's staging capacity.
	ErrBufferOverflow = errors.New("structfmt: buffer overflow")
	// ErrInsufficientData is returned when unpacking runs out of input.
	ErrInsufficientData = errors.New("structfmt: not enough data in the buffer")
	// ErrStringTooLong is returned when an s value exceeds 65534 bytes.
	ErrStringTooLong = errors.New("structfmt: string is too long")
	// ErrMissingArgument is returned when the format needs more arguments
	// than were supplied.
	ErrMissingArgument = errors.New("structfmt: missing argument")
	// ErrBadArgument is returned when an argument cannot be coerced to the
	// type its directive requires.
	ErrBadArgument = errors.New("structfmt: bad argument")
	// ErrNegativeStart is returned by PackFrom for a start index below 0.
	ErrNegativeStart = errors.New("structfmt: negative argument start index")
	// ErrVariableSize is returned by Size for formats containing s.
	ErrVariableSize = errors.New("structfmt: format has variable size")
)

// FormatError reports a malformed format string.
type FormatError struct {
	Format string // the full format string
	Offset int    // byte offset of the offending option
	Option byte   // the offending option character
	Msg    string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("structfmt: %s %q at offset %d", e.Msg, e.Option, e.Offset)
}

// ArgError reports an argument that could not be packed.
type ArgError struct {
	Index  int  // position of the argument in the argument list
	Option byte // directive the argument was meant for
	Err    error
}

func (e *ArgError) Error() string {
	return fmt.Sprintf("structfmt: bad argument #%d for option %q: %v", e.Index, e.Option, e.Err)
}

func (e *ArgError) Unwrap() error {
	return e.Err
}

// IOError wraps a failure of the destination writer in PackTo.
type IOError struct {
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("structfmt: i/o error: %v", e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
