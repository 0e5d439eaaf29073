package structfmt

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies the value type a directive encodes.
type Kind uint8

const (
	KindInt8 Kind = iota + 1
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindChar
	KindString
)

var kindNames = map[Kind]string{
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindInt16:   "int16",
	KindUint16:  "uint16",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindChar:    "char",
	KindString:  "string",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Class groups kinds by the host value they are coerced from.
type Class uint8

const (
	ClassInteger Class = iota + 1
	ClassFloat
	ClassBytes
)

// Class reports which kind of argument the directive consumes.
func (k Kind) Class() Class {
	switch k {
	case KindFloat32, KindFloat64:
		return ClassFloat
	case KindChar, KindString:
		return ClassBytes
	default:
		return ClassInteger
	}
}

const (
	// MaxStringLen is the longest value an s directive accepts.
	MaxStringLen = math.MaxUint16 - 1

	lengthPrefixSize = 2
	maxCharSize      = math.MaxInt32
)

// byteOrder is satisfied by binary.LittleEndian, binary.BigEndian and
// binary.NativeEndian.
type byteOrder interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Directive is one value-producing element of a parsed format string.
type Directive struct {
	Option byte             // the format character, e.g. 'H'
	Kind   Kind             // decoded value type
	Size   int              // fixed width in bytes; for s, the width of the length prefix
	Order  binary.ByteOrder // byte order active when the directive was read
	Offset int              // byte offset of the directive in the format string

	order byteOrder
}

type optionInfo struct {
	kind Kind
	size int
}

var options = map[byte]optionInfo{
	'b': {KindInt8, 1},
	'B': {KindUint8, 1},
	'h': {KindInt16, 2},
	'H': {KindUint16, 2},
	'l': {KindInt32, 4},
	'L': {KindUint32, 4},
	'T': {KindUint64, 8},
	'f': {KindFloat32, 4},
	'd': {KindFloat64, 8},
	'n': {KindFloat64, 8},
	's': {KindString, lengthPrefixSize},
}

// scanner walks a format string one directive at a time, tracking the active
// byte order.
type scanner struct {
	format string
	pos    int
	order  byteOrder
}

func newScanner(format string) *scanner {
	return &scanner{format: format, order: binary.NativeEndian}
}

// next returns the next value directive. ok is false once the format is
// exhausted.
func (s *scanner) next() (d Directive, ok bool, err error) {
	for s.pos < len(s.format) {
		offset := s.pos
		opt := s.format[s.pos]
		s.pos++

		switch opt {
		case ' ':
			continue
		case '<':
			s.order = binary.LittleEndian
			continue
		case '>':
			s.order = binary.BigEndian
			continue
		case '=':
			s.order = binary.NativeEndian
			continue
		case 'c':
			n, found, err := s.readNumber(offset)
			if err != nil {
				return Directive{}, false, err
			}
			if !found {
				return Directive{}, false, s.formatError(offset, opt, "missing size for format option")
			}
			return s.directive(opt, KindChar, n, offset), true, nil
		}

		info, known := options[opt]
		if !known {
			return Directive{}, false, s.formatError(offset, opt, "invalid format option")
		}
		return s.directive(opt, info.kind, info.size, offset), true, nil
	}
	return Directive{}, false, nil
}

func (s *scanner) readNumber(offset int) (int, bool, error) {
	n := 0
	found := false
	for s.pos < len(s.format) && isDigit(s.format[s.pos]) {
		n = n*10 + int(s.format[s.pos]-'0')
		if n > maxCharSize {
			return 0, false, s.formatError(offset, 'c', "size out of range for format option")
		}
		s.pos++
		found = true
	}
	return n, found, nil
}

func (s *scanner) directive(opt byte, kind Kind, size, offset int) Directive {
	return Directive{
		Option: opt,
		Kind:   kind,
		Size:   size,
		Order:  s.order,
		Offset: offset,
		order:  s.order,
	}
}

func (s *scanner) formatError(offset int, opt byte, msg string) error {
	return &FormatError{Format: s.format, Offset: offset, Option: opt, Msg: msg}
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// Parse validates format and returns its value directives in order.
func Parse(format string) ([]Directive, error) {
	var directives []Directive
	sc := newScanner(format)
	for {
		d, ok, err := sc.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return directives, nil
		}
		directives = append(directives, d)
	}
}

// Size returns the packed width of a format without s directives.
func Size(format string) (int, error) {
	directives, err := Parse(format)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, d := range directives {
		if d.Kind == KindString {
			return 0, fmt.Errorf("%w: option 's' at offset %d", ErrVariableSize, d.Offset)
		}
		total += d.Size
	}
	return total, nil
}
