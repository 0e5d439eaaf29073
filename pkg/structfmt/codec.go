package structfmt

import "io"

// DefaultMaxPackSize is the staging capacity of a Codec built with a zero
// Config.
const DefaultMaxPackSize = 65536

// Config holds the tunables of a Codec.
type Config struct {
	MaxPackSize int // upper bound on the size of one packed blob (0 = DefaultMaxPackSize)
}

// Codec packs and unpacks format strings.
type Codec struct {
	maxPackSize int
}

// NewCodec creates a codec from config.
func NewCodec(config Config) *Codec {
	size := config.MaxPackSize
	if size <= 0 {
		size = DefaultMaxPackSize
	}
	return &Codec{maxPackSize: size}
}

// MaxPackSize returns the staging capacity of the codec.
func (c *Codec) MaxPackSize() int {
	return c.maxPackSize
}

var defaultCodec = NewCodec(Config{})

// Default returns the codec used by the package-level functions.
func Default() *Codec {
	return defaultCodec
}

// Pack packs args according to format using the default codec.
func Pack(format string, args ...any) ([]byte, error) {
	return defaultCodec.Pack(format, args...)
}

// PackFrom packs args[start:] according to format using the default codec.
func PackFrom(format string, args []any, start int) ([]byte, error) {
	return defaultCodec.PackFrom(format, args, start)
}

// AppendPack appends the packed args to dst using the default codec.
func AppendPack(dst []byte, format string, args ...any) ([]byte, error) {
	return defaultCodec.AppendPack(dst, format, args...)
}

// PackTo writes the packed args to w using the default codec.
func PackTo(w io.Writer, format string, args ...any) (int, error) {
	return defaultCodec.PackTo(w, format, args...)
}

// Unpack decodes data according to format using the default codec.
func Unpack(format string, data []byte) ([]any, error) {
	return defaultCodec.Unpack(format, data)
}

// UnpackPrefix decodes the front of data according to format using the
// default codec and reports how many bytes were consumed.
func UnpackPrefix(format string, data []byte) ([]any, int, error) {
	return defaultCodec.UnpackPrefix(format, data)
}
