package structfmt

import (
	"bytes"
	"fmt"
	"math"
)

// Unpack decodes data according to format. Trailing bytes beyond the last
// directive are ignored.
func (c *Codec) Unpack(format string, data []byte) ([]any, error) {
	values, _, err := c.UnpackPrefix(format, data)
	return values, err
}

// UnpackPrefix decodes data according to format and also returns the number
// of bytes consumed. Byte values are copies and do not alias data.
func (c *Codec) UnpackPrefix(format string, data []byte) ([]any, int, error) {
	values := make([]any, 0, 8)
	offset := 0

	sc := newScanner(format)
	for {
		d, ok, err := sc.next()
		if err != nil {
			return nil, 0, err
		}
		if !ok {
			return values, offset, nil
		}

		if len(data)-offset < d.Size {
			return nil, 0, insufficient(d, d.Size, len(data)-offset)
		}
		chunk := data[offset : offset+d.Size]
		offset += d.Size

		var v any
		switch d.Kind {
		case KindInt8:
			v = int8(chunk[0])
		case KindUint8:
			v = chunk[0]
		case KindInt16:
			v = int16(d.order.Uint16(chunk))
		case KindUint16:
			v = d.order.Uint16(chunk)
		case KindInt32:
			v = int32(d.order.Uint32(chunk))
		case KindUint32:
			v = d.order.Uint32(chunk)
		case KindUint64:
			v = d.order.Uint64(chunk)
		case KindFloat32:
			v = math.Float32frombits(d.order.Uint32(chunk))
		case KindFloat64:
			v = math.Float64frombits(d.order.Uint64(chunk))
		case KindChar:
			v = bytes.Clone(chunk)
		case KindString:
			n := int(d.order.Uint16(chunk))
			if len(data)-offset < n {
				return nil, 0, insufficient(d, n, len(data)-offset)
			}
			v = bytes.Clone(data[offset : offset+n])
			offset += n
		}
		values = append(values, v)
	}
}

func insufficient(d Directive, need, have int) error {
	return fmt.Errorf("%w: option %q at offset %d needs %d bytes, %d remaining",
		ErrInsufficientData, d.Option, d.Offset, need, have)
}
