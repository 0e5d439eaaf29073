package structfmt

import (
	"fmt"
	"io"
	"math"
)

// Pack encodes args according to format into a new byte slice.
func (c *Codec) Pack(format string, args ...any) ([]byte, error) {
	return c.PackFrom(format, args, 0)
}

// PackFrom encodes args[start:] according to format. Argument indexes in
// returned errors are positions in args, not offsets from start.
func (c *Codec) PackFrom(format string, args []any, start int) ([]byte, error) {
	out, err := c.appendPack(nil, format, args, start)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []byte{}
	}
	return out, nil
}

// AppendPack appends the encoding of args to dst and returns the extended
// slice. The staging capacity applies to the appended part only. On error
// dst is returned unchanged.
func (c *Codec) AppendPack(dst []byte, format string, args ...any) ([]byte, error) {
	out, err := c.appendPack(dst, format, args, 0)
	if err != nil {
		return dst, err
	}
	return out, nil
}

// PackTo encodes args and writes the result to w in a single Write call.
func (c *Codec) PackTo(w io.Writer, format string, args ...any) (int, error) {
	out, err := c.Pack(format, args...)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(out)
	if err != nil {
		return n, &IOError{Err: err}
	}
	return n, nil
}

func (c *Codec) appendPack(dst []byte, format string, args []any, start int) ([]byte, error) {
	if start < 0 {
		return nil, fmt.Errorf("%w: %d", ErrNegativeStart, start)
	}
	base := len(dst)
	out := dst
	arg := start

	sc := newScanner(format)
	for {
		d, ok, err := sc.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}

		remaining := c.maxPackSize - (len(out) - base)
		if remaining < d.Size {
			return nil, fmt.Errorf("%w: option %q at offset %d needs %d bytes, %d remaining",
				ErrBufferOverflow, d.Option, d.Offset, d.Size, remaining)
		}
		if arg >= len(args) {
			return nil, &ArgError{Index: arg, Option: d.Option, Err: ErrMissingArgument}
		}

		out, err = packValue(out, d, args[arg], arg, remaining)
		if err != nil {
			return nil, err
		}
		arg++
	}
}

func packValue(out []byte, d Directive, value any, index, remaining int) ([]byte, error) {
	argError := func(err error) error {
		return &ArgError{Index: index, Option: d.Option, Err: err}
	}

	switch d.Kind.Class() {
	case ClassInteger:
		bits, err := integerBits(value)
		if err != nil {
			return nil, argError(err)
		}
		return appendInteger(out, d, bits), nil

	case ClassFloat:
		if f32, ok := value.(float32); ok && d.Kind == KindFloat32 {
			return d.order.AppendUint32(out, math.Float32bits(f32)), nil
		}
		f, err := floatValue(value)
		if err != nil {
			return nil, argError(err)
		}
		if d.Kind == KindFloat32 {
			return d.order.AppendUint32(out, math.Float32bits(float32(f))), nil
		}
		return d.order.AppendUint64(out, math.Float64bits(f)), nil
	}

	data, err := bytesValue(value)
	if err != nil {
		return nil, argError(err)
	}

	if d.Kind == KindChar {
		if len(data) >= d.Size {
			return append(out, data[:d.Size]...), nil
		}
		out = append(out, data...)
		return append(out, make([]byte, d.Size-len(data))...), nil
	}

	if len(data) > MaxStringLen {
		return nil, argError(fmt.Errorf("%w: %d bytes, limit %d", ErrStringTooLong, len(data), MaxStringLen))
	}
	if lengthPrefixSize+len(data) > remaining {
		return nil, fmt.Errorf("%w: option %q at offset %d needs %d bytes, %d remaining",
			ErrBufferOverflow, d.Option, d.Offset, lengthPrefixSize+len(data), remaining)
	}
	out = d.order.AppendUint16(out, uint16(len(data)))
	return append(out, data...), nil
}

func appendInteger(out []byte, d Directive, bits uint64) []byte {
	switch d.Size {
	case 1:
		return append(out, byte(bits))
	case 2:
		return d.order.AppendUint16(out, uint16(bits))
	case 4:
		return d.order.AppendUint32(out, uint32(bits))
	default:
		return d.order.AppendUint64(out, bits)
	}
}
