package storage

import (
	"errors"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/ssargent/bytekit/pkg/buffer"
	"github.com/ssargent/bytekit/pkg/structfmt"
)

const (
	// recordHeaderFormat lays out [CRC32(4)][TreeSize(2)][KeySize(4)][ValueSize(4)]
	recordHeaderFormat = "<L H L L"
	recordHeaderSize   = 14

	// sizesFormat is the part of the header covered by the CRC.
	sizesFormat = "<H L L"

	// maxRecordBody caps a single decoded record at 1 GiB.
	maxRecordBody = 1 << 30
)

// Record is one tree entry in an export stream
type Record struct {
	CRC32     uint32 // CRC32 over everything after this field
	TreeSize  uint16 // Size of the tree name in bytes
	KeySize   uint32 // Size of the key in bytes
	ValueSize uint32 // Size of the value in bytes
	Tree      []byte
	Key       []byte
	Value     []byte
}

// NewRecord creates a record for an entry of the named tree.
func NewRecord(tree string, key, value []byte) (*Record, error) {
	if len(tree) > MaxTreeNameLen {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidTreeName, len(tree))
	}
	if uint64(len(key)) > uint64(^uint32(0)) || uint64(len(value)) > uint64(^uint32(0)) {
		return nil, fmt.Errorf("entry too large for export record")
	}
	return &Record{
		TreeSize:  uint16(len(tree)),
		KeySize:   uint32(len(key)),
		ValueSize: uint32(len(value)),
		Tree:      []byte(tree),
		Key:       key,
		Value:     value,
	}, nil
}

// Size returns the total size of the record when encoded
func (r *Record) Size() int {
	return recordHeaderSize + len(r.Tree) + len(r.Key) + len(r.Value)
}

// bodySize is the body length announced by the header fields.
func (r *Record) bodySize() int {
	return int(r.TreeSize) + int(r.KeySize) + int(r.ValueSize)
}

// Validate checks the integrity of a record using CRC32
func (r *Record) Validate() error {
	if sum := r.calculateCRC32(); r.CRC32 != sum {
		return fmt.Errorf("%w: CRC32 mismatch: %d != %d", ErrCorruption, r.CRC32, sum)
	}
	return nil
}

func (r *Record) calculateCRC32() uint32 {
	header, err := structfmt.Pack(sizesFormat, r.TreeSize, r.KeySize, r.ValueSize)
	if err != nil {
		return 0
	}
	crc := crc32.NewIEEE()
	crc.Write(header)
	crc.Write(r.Tree)
	crc.Write(r.Key)
	crc.Write(r.Value)
	return crc.Sum32()
}

// RecordCodec serializes export records. It reuses one staging buffer and is
// not safe for concurrent use.
type RecordCodec struct {
	buf *buffer.Buffer
}

// NewRecordCodec creates a new record codec instance
func NewRecordCodec() *RecordCodec {
	return &RecordCodec{buf: buffer.New(4096)}
}

// Encode serializes r, filling in its CRC32.
func (c *RecordCodec) Encode(r *Record) ([]byte, error) {
	c.buf.Clear()

	// Reserve the CRC slot, write the body, then patch the CRC in place.
	if err := c.buf.WriteUint32(0); err != nil {
		return nil, err
	}
	if _, err := structfmt.PackTo(c.buf, sizesFormat, r.TreeSize, r.KeySize, r.ValueSize); err != nil {
		return nil, err
	}
	for _, part := range [][]byte{r.Tree, r.Key, r.Value} {
		if _, err := c.buf.Write(part); err != nil {
			return nil, err
		}
	}

	r.CRC32 = r.calculateCRC32()
	c.buf.SeekTo(0)
	if err := c.buf.WriteUint32(r.CRC32); err != nil {
		return nil, err
	}
	return c.buf.Bytes(), nil
}

// Decode deserializes a complete binary record.
func (c *RecordCodec) Decode(data []byte) (*Record, error) {
	if len(data) < recordHeaderSize {
		return nil, fmt.Errorf("%w: data too short for record header", ErrCorruption)
	}
	r, err := decodeHeader(data[:recordHeaderSize])
	if err != nil {
		return nil, err
	}
	end := recordHeaderSize + r.bodySize()
	if len(data) < end {
		return nil, fmt.Errorf("%w: data too short for record sizes: %d < %d", ErrCorruption, len(data), end)
	}
	r.setBody(data[recordHeaderSize:end])
	return r, r.Validate()
}

// ReadRecord reads the next record from rd. It returns io.EOF when rd ends
// cleanly between records.
func (c *RecordCodec) ReadRecord(rd io.Reader) (*Record, error) {
	header := make([]byte, recordHeaderSize)
	if _, err := io.ReadFull(rd, header); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated record header", ErrCorruption)
		}
		return nil, err
	}

	r, err := decodeHeader(header)
	if err != nil {
		return nil, err
	}

	body := make([]byte, r.bodySize())
	if _, err := io.ReadFull(rd, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: truncated record body", ErrCorruption)
		}
		return nil, err
	}
	r.setBody(body)
	return r, r.Validate()
}

func decodeHeader(header []byte) (*Record, error) {
	values, err := structfmt.Unpack(recordHeaderFormat, header)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruption, err)
	}
	r := &Record{
		CRC32:     values[0].(uint32),
		TreeSize:  values[1].(uint16),
		KeySize:   values[2].(uint32),
		ValueSize: values[3].(uint32),
	}
	if int(r.TreeSize) > MaxTreeNameLen || uint64(r.KeySize)+uint64(r.ValueSize) > maxRecordBody {
		return nil, fmt.Errorf("%w: implausible record sizes %d/%d/%d", ErrCorruption, r.TreeSize, r.KeySize, r.ValueSize)
	}
	return r, nil
}

func (r *Record) setBody(body []byte) {
	t := int(r.TreeSize)
	k := t + int(r.KeySize)
	r.Tree = body[:t:t]
	r.Key = body[t:k:k]
	r.Value = body[k : k+int(r.ValueSize)]
}
