package structfmt

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// number is implemented by json.Number and compatible decoder types.
type number interface {
	Int64() (int64, error)
	Float64() (float64, error)
	String() string
}

// integerBits converts arg to the two's-complement bit pattern of an
// integer. Callers truncate the result to the directive width.
func integerBits(arg any) (uint64, error) {
	switch v := arg.(type) {
	case int:
		return uint64(v), nil
	case int8:
		return uint64(v), nil
	case int16:
		return uint64(v), nil
	case int32:
		return uint64(v), nil
	case int64:
		return uint64(v), nil
	case uint:
		return uint64(v), nil
	case uint8:
		return uint64(v), nil
	case uint16:
		return uint64(v), nil
	case uint32:
		return uint64(v), nil
	case uint64:
		return v, nil
	case uintptr:
		return uint64(v), nil
	case float32:
		return floatBits(float64(v))
	case float64:
		return floatBits(v)
	case number:
		if i, err := v.Int64(); err == nil {
			return uint64(i), nil
		}
		return integerString(v.String())
	case string:
		return integerString(v)
	}
	return 0, fmt.Errorf("%w: number expected, got %s", ErrBadArgument, typeName(arg))
}

// integerString reads a numeric string as decimal, or as hexadecimal when it
// carries an explicit 0x prefix. Fractional values truncate toward zero.
func integerString(s string) (uint64, error) {
	t, err := numericText(s)
	if err != nil {
		return 0, err
	}
	if u, ok := hexInteger(t); ok {
		return u, nil
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return uint64(i), nil
	}
	if u, err := strconv.ParseUint(t, 10, 64); err == nil {
		return u, nil
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil {
		return floatBits(f)
	}
	return 0, fmt.Errorf("%w: number expected, got string %q", ErrBadArgument, s)
}

// floatString reads a numeric string under the same rules as integerString.
func floatString(s string) (float64, error) {
	t, err := numericText(s)
	if err != nil {
		return 0, err
	}
	if u, ok := hexInteger(t); ok {
		if strings.HasPrefix(t, "-") {
			return float64(int64(u)), nil
		}
		return float64(u), nil
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: number expected, got string %q", ErrBadArgument, s)
	}
	return f, nil
}

// numericText trims s and rejects spellings Go accepts but plain numerals do
// not: digit separators, inf and nan.
func numericText(s string) (string, error) {
	t := strings.TrimSpace(s)
	if t == "" || strings.ContainsAny(t, "_nN") {
		return "", fmt.Errorf("%w: number expected, got string %q", ErrBadArgument, s)
	}
	return t, nil
}

// hexInteger parses an optionally signed 0x-prefixed integer.
func hexInteger(t string) (uint64, bool) {
	neg := false
	switch {
	case strings.HasPrefix(t, "-"):
		neg, t = true, t[1:]
	case strings.HasPrefix(t, "+"):
		t = t[1:]
	}
	if len(t) < 3 || t[0] != '0' || (t[1] != 'x' && t[1] != 'X') {
		return 0, false
	}
	u, err := strconv.ParseUint(t[2:], 16, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		return -u, true
	}
	return u, true
}

// floatBits truncates f toward zero.
func floatBits(f float64) (uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: number %v has no integer representation", ErrBadArgument, f)
	}
	f = math.Trunc(f)
	switch {
	case f >= -(1<<63) && f < 1<<63:
		return uint64(int64(f)), nil
	case f >= 0 && f < 1<<64:
		return uint64(f), nil
	}
	return 0, fmt.Errorf("%w: number %v out of integer range", ErrBadArgument, f)
}

func floatValue(arg any) (float64, error) {
	switch v := arg.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int8:
		return float64(v), nil
	case int16:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint:
		return float64(v), nil
	case uint8:
		return float64(v), nil
	case uint16:
		return float64(v), nil
	case uint32:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case number:
		if f, err := v.Float64(); err == nil {
			return f, nil
		}
		return floatString(v.String())
	case string:
		return floatString(v)
	}
	return 0, fmt.Errorf("%w: number expected, got %s", ErrBadArgument, typeName(arg))
}

func bytesValue(arg any) ([]byte, error) {
	switch v := arg.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	case number:
		return []byte(v.String()), nil
	case int, int8, int16, int32, int64:
		i, _ := integerBits(v)
		return strconv.AppendInt(nil, int64(i), 10), nil
	case uint, uint8, uint16, uint32, uint64:
		u, _ := integerBits(v)
		return strconv.AppendUint(nil, u, 10), nil
	case float32:
		return strconv.AppendFloat(nil, float64(v), 'g', 14, 64), nil
	case float64:
		return strconv.AppendFloat(nil, v, 'g', 14, 64), nil
	}
	return nil, fmt.Errorf("%w: string expected, got %s", ErrBadArgument, typeName(arg))
}

func typeName(arg any) string {
	if arg == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", arg)
}
