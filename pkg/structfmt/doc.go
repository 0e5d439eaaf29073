// Package structfmt packs and unpacks binary records described by a compact
// format string.
//
// The format language is byte-for-byte compatible with the struct
// mini-language used by embedded scripting runtimes, so payloads written by
// scripts remain readable from Go and the other way around.
//
// # Format Directives
//
// A format string is read left to right. Each directive produces or consumes
// exactly one value, except for the byte-order switches and spaces:
//
//	b / B   signed / unsigned 8-bit integer        (1 byte)
//	h / H   signed / unsigned 16-bit integer       (2 bytes)
//	l / L   signed / unsigned 32-bit integer       (4 bytes)
//	T       unsigned 64-bit integer                (8 bytes)
//	f       32-bit float                           (4 bytes)
//	d / n   64-bit float                           (8 bytes)
//	c<N>    fixed block of exactly N bytes         (N bytes)
//	s       u16 length prefix followed by data     (2 + len bytes)
//	<       little-endian for following directives
//	>       big-endian for following directives
//	=       native byte order for following directives (the default)
//	' '     ignored
//
// The T directive was pointer-sized in older implementations. It is fixed at
// 64 bits here so that payloads do not change shape between platforms.
//
// # Packing
//
//	blob, err := structfmt.Pack("<H s c4", 7, "hello", []byte("ab"))
//	// blob = 07 00 | 05 00 'h' 'e' 'l' 'l' 'o' | 'a' 'b' 00 00
//
// Arguments are coerced the way a dynamically typed caller expects: integer
// directives accept any Go integer, integral floats, json.Number and numeric
// strings; float directives accept any number or numeric string; c and s
// accept []byte, string or a number (written in decimal). A c<N> value longer
// than N is truncated and a shorter one is zero padded. An s value may be at
// most 65534 bytes.
//
// Every call returns a freshly allocated blob. AppendPack appends to a caller
// supplied slice instead, and PackTo writes the blob to an io.Writer.
//
// # Unpacking
//
//	values, err := structfmt.Unpack("<H s c4", blob)
//	// values = []any{uint16(7), []byte("hello"), []byte("ab\x00\x00")}
//
// Values come back as the Go type matching the directive: int8, uint8, int16,
// uint16, int32, uint32, uint64, float32, float64 or []byte.
//
// # Errors
//
// A failed call never returns partial output. Inspect failures with
// errors.As for *FormatError, *ArgError and *IOError, or errors.Is for
// ErrBufferOverflow, ErrInsufficientData, ErrStringTooLong,
// ErrMissingArgument and ErrBadArgument.
//
// # Thread Safety
//
// A Codec holds no mutable state and is safe for concurrent use.
package structfmt
