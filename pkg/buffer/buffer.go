// Package buffer provides a growable byte sequence with an independent
// read/write cursor.
//
// Typed accessors always use little-endian encoding. A Buffer is meant to be
// owned by a single goroutine; it is not safe for concurrent use.
package buffer

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrWriteGap is returned by Write when the cursor lies beyond the end of the
// data. The buffer never zero-fills a gap to satisfy a write.
var ErrWriteGap = errors.New("buffer: cursor is past the end of the data")

// Buffer is a byte sequence plus a cursor.
type Buffer struct {
	data []byte
	pos  int
}

// New creates an empty buffer with the given reserved capacity.
func New(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	return &Buffer{data: make([]byte, 0, capacity)}
}

// NewFromBytes creates a buffer holding a copy of p with the cursor at 0.
func NewFromBytes(p []byte) *Buffer {
	data := make([]byte, len(p))
	copy(data, p)
	return &Buffer{data: data}
}

// Read returns up to n bytes starting at the cursor and advances the cursor
// by the number returned. It reports false when there is nothing to read.
// The returned slice is a copy.
func (b *Buffer) Read(n int) ([]byte, bool) {
	if n <= 0 || len(b.data) == 0 {
		return nil, false
	}
	start := min(b.pos, len(b.data))
	if start == len(b.data) {
		return nil, false
	}
	end := start + min(n, len(b.data)-start)

	out := make([]byte, end-start)
	copy(out, b.data[start:end])
	b.pos = end
	return out, true
}

// readFixed returns exactly n bytes or nothing.
func (b *Buffer) readFixed(n int) ([]byte, bool) {
	if len(b.data) == 0 || b.pos+n > len(b.data) {
		return nil, false
	}
	p := b.data[b.pos : b.pos+n]
	b.pos += n
	return p, true
}

// Write stores p at the cursor, overwriting existing bytes and appending the
// rest, then advances the cursor by len(p). If the cursor is past the end of
// the data nothing is written and ErrWriteGap is returned.
func (b *Buffer) Write(p []byte) (int, error) {
	if b.pos > len(b.data) {
		return 0, ErrWriteGap
	}
	overlap := min(len(b.data)-b.pos, len(p))
	copy(b.data[b.pos:], p[:overlap])
	b.data = append(b.data, p[overlap:]...)
	b.pos += len(p)
	return len(p), nil
}

func (b *Buffer) writeFixed(p []byte) error {
	_, err := b.Write(p)
	return err
}

// ReadBool reads one byte and reports whether it is non-zero.
func (b *Buffer) ReadBool() (bool, bool) {
	v, ok := b.ReadUint8()
	return v != 0, ok
}

func (b *Buffer) ReadUint8() (uint8, bool) {
	p, ok := b.readFixed(1)
	if !ok {
		return 0, false
	}
	return p[0], true
}

func (b *Buffer) ReadInt8() (int8, bool) {
	v, ok := b.ReadUint8()
	return int8(v), ok
}

func (b *Buffer) ReadUint16() (uint16, bool) {
	p, ok := b.readFixed(2)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint16(p), true
}

func (b *Buffer) ReadInt16() (int16, bool) {
	v, ok := b.ReadUint16()
	return int16(v), ok
}

func (b *Buffer) ReadUint32() (uint32, bool) {
	p, ok := b.readFixed(4)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint32(p), true
}

func (b *Buffer) ReadInt32() (int32, bool) {
	v, ok := b.ReadUint32()
	return int32(v), ok
}

func (b *Buffer) ReadUint64() (uint64, bool) {
	p, ok := b.readFixed(8)
	if !ok {
		return 0, false
	}
	return binary.LittleEndian.Uint64(p), true
}

func (b *Buffer) ReadInt64() (int64, bool) {
	v, ok := b.ReadUint64()
	return int64(v), ok
}

func (b *Buffer) ReadFloat32() (float32, bool) {
	v, ok := b.ReadUint32()
	return math.Float32frombits(v), ok
}

func (b *Buffer) ReadFloat64() (float64, bool) {
	v, ok := b.ReadUint64()
	return math.Float64frombits(v), ok
}

// WriteBool writes 1 for true and 0 for false.
func (b *Buffer) WriteBool(v bool) error {
	if v {
		return b.WriteUint8(1)
	}
	return b.WriteUint8(0)
}

func (b *Buffer) WriteUint8(v uint8) error {
	return b.writeFixed([]byte{v})
}

func (b *Buffer) WriteInt8(v int8) error {
	return b.WriteUint8(uint8(v))
}

func (b *Buffer) WriteUint16(v uint16) error {
	return b.writeFixed(binary.LittleEndian.AppendUint16(nil, v))
}

func (b *Buffer) WriteInt16(v int16) error {
	return b.WriteUint16(uint16(v))
}

func (b *Buffer) WriteUint32(v uint32) error {
	return b.writeFixed(binary.LittleEndian.AppendUint32(nil, v))
}

func (b *Buffer) WriteInt32(v int32) error {
	return b.WriteUint32(uint32(v))
}

func (b *Buffer) WriteUint64(v uint64) error {
	return b.writeFixed(binary.LittleEndian.AppendUint64(nil, v))
}

func (b *Buffer) WriteInt64(v int64) error {
	return b.WriteUint64(uint64(v))
}

func (b *Buffer) WriteFloat32(v float32) error {
	return b.WriteUint32(math.Float32bits(v))
}

func (b *Buffer) WriteFloat64(v float64) error {
	return b.WriteUint64(math.Float64bits(v))
}

// Tell returns the cursor position.
func (b *Buffer) Tell() int {
	return b.pos
}

// SeekTo moves the cursor to n, clamped to the last valid index. On an empty
// buffer the cursor moves to 0.
func (b *Buffer) SeekTo(n int) {
	if len(b.data) == 0 || n < 0 {
		b.pos = 0
		return
	}
	b.pos = min(n, len(b.data)-1)
}

// Clear drops all data and rewinds the cursor. Capacity is retained.
func (b *Buffer) Clear() {
	b.data = b.data[:0]
	b.pos = 0
}

// Resize truncates or zero-extends the data to exactly n bytes and pulls the
// cursor back inside the new length. A negative n is treated as 0.
func (b *Buffer) Resize(n int) {
	if n < 0 {
		n = 0
	}
	if n <= len(b.data) {
		b.data = b.data[:n]
	} else {
		b.data = append(b.data, make([]byte, n-len(b.data))...)
	}
	b.pos = min(b.pos, n)
}

// Shrink releases reserved capacity beyond the current length.
func (b *Buffer) Shrink() {
	if cap(b.data) == len(b.data) {
		return
	}
	data := make([]byte, len(b.data))
	copy(data, b.data)
	b.data = data
}

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out
}

// SetBytes replaces the contents with a copy of p and rewinds the cursor.
func (b *Buffer) SetBytes(p []byte) {
	b.data = append(b.data[:0], p...)
	b.pos = 0
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	return len(b.data)
}

// Cap returns the reserved capacity.
func (b *Buffer) Cap() int {
	return cap(b.data)
}

// Remaining returns the number of bytes between the cursor and the end.
func (b *Buffer) Remaining() int {
	if b.pos >= len(b.data) {
		return 0
	}
	return len(b.data) - b.pos
}
