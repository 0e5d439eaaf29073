package api

import (
	"encoding/base64"
	"unicode/utf8"
)

// DisplayValues converts unpacked values into a JSON-friendly form. Byte
// values become strings when they are valid UTF-8 and "base64:"-prefixed
// strings otherwise; numbers pass through unchanged.
func DisplayValues(values []interface{}) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		b, ok := v.([]byte)
		switch {
		case !ok:
			out[i] = v
		case utf8.Valid(b):
			out[i] = string(b)
		default:
			out[i] = "base64:" + base64.StdEncoding.EncodeToString(b)
		}
	}
	return out
}
