package storage

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordCodec_EncodeDecode(t *testing.T) {
	codec := NewRecordCodec()

	r, err := NewRecord("users", []byte("alice"), []byte("admin"))
	require.NoError(t, err)

	data, err := codec.Encode(r)
	require.NoError(t, err)
	assert.Equal(t, r.Size(), len(data))
	assert.Equal(t, recordHeaderSize+5+5+5, len(data))

	decoded, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, r.CRC32, decoded.CRC32)
	assert.Equal(t, "users", string(decoded.Tree))
	assert.Equal(t, []byte("alice"), decoded.Key)
	assert.Equal(t, []byte("admin"), decoded.Value)
}

func TestRecordCodec_HeaderLayout(t *testing.T) {
	codec := NewRecordCodec()

	r, err := NewRecord("t", []byte("k"), []byte("vv"))
	require.NoError(t, err)
	data, err := codec.Encode(r)
	require.NoError(t, err)

	// CRC32 then little-endian sizes: tree(2) key(4) value(4)
	assert.Equal(t, []byte{1, 0}, data[4:6])
	assert.Equal(t, []byte{1, 0, 0, 0}, data[6:10])
	assert.Equal(t, []byte{2, 0, 0, 0}, data[10:14])
	assert.Equal(t, []byte("tkvv"), data[14:])
}

func TestRecordCodec_ReusesBuffer(t *testing.T) {
	codec := NewRecordCodec()

	long, err := NewRecord("tree", bytes.Repeat([]byte("k"), 100), bytes.Repeat([]byte("v"), 100))
	require.NoError(t, err)
	first, err := codec.Encode(long)
	require.NoError(t, err)

	short, err := NewRecord("t", []byte("k"), nil)
	require.NoError(t, err)
	second, err := codec.Encode(short)
	require.NoError(t, err)

	assert.Equal(t, short.Size(), len(second))
	_, err = codec.Decode(first)
	assert.NoError(t, err, "earlier output must not be clobbered")
}

func TestRecordCodec_DetectsCorruption(t *testing.T) {
	codec := NewRecordCodec()

	r, err := NewRecord("t", []byte("key"), []byte("value"))
	require.NoError(t, err)
	data, err := codec.Encode(r)
	require.NoError(t, err)

	data[len(data)-1] ^= 0xff
	_, err = codec.Decode(data)
	assert.ErrorIs(t, err, ErrCorruption)

	_, err = codec.Decode(data[:5])
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestRecordCodec_ReadRecord(t *testing.T) {
	codec := NewRecordCodec()

	var stream bytes.Buffer
	for _, k := range []string{"a", "b"} {
		r, err := NewRecord("t", []byte(k), []byte("v"))
		require.NoError(t, err)
		data, err := codec.Encode(r)
		require.NoError(t, err)
		stream.Write(data)
	}

	rd := bytes.NewReader(stream.Bytes())
	for _, want := range []string{"a", "b"} {
		r, err := codec.ReadRecord(rd)
		require.NoError(t, err)
		assert.Equal(t, want, string(r.Key))
	}

	_, err := codec.ReadRecord(rd)
	assert.ErrorIs(t, err, io.EOF)

	truncated := bytes.NewReader(stream.Bytes()[:stream.Len()-1])
	_, err = codec.ReadRecord(truncated)
	require.NoError(t, err)
	_, err = codec.ReadRecord(truncated)
	assert.ErrorIs(t, err, ErrCorruption)
}

func TestNewRecord_TreeNameTooLong(t *testing.T) {
	_, err := NewRecord(string(bytes.Repeat([]byte("x"), MaxTreeNameLen+1)), nil, nil)
	assert.ErrorIs(t, err, ErrInvalidTreeName)
}

func TestRecordCodec_ReadRecordRoundTrip(t *testing.T) {
	codec := NewRecordCodec()

	r, err := NewRecord("users", []byte("alice"), []byte("admin"))
	require.NoError(t, err)
	data, err := codec.Encode(r)
	require.NoError(t, err)

	got, err := codec.ReadRecord(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, r.CRC32, got.CRC32)
	assert.Equal(t, "users", string(got.Tree))
	assert.Equal(t, []byte("alice"), got.Key)
	assert.Equal(t, []byte("admin"), got.Value)
	assert.Equal(t, len(data), got.Size())
}

func TestRecordCodec_DecodeTruncatedExactLength(t *testing.T) {
	codec := NewRecordCodec()

	r, err := NewRecord("t", []byte("key"), []byte("value"))
	require.NoError(t, err)
	data, err := codec.Encode(r)
	require.NoError(t, err)

	for _, n := range []int{recordHeaderSize, recordHeaderSize + 1, len(data) - 1} {
		truncated := make([]byte, n)
		copy(truncated, data)

		assert.NotPanics(t, func() {
			_, err = codec.Decode(truncated)
		})
		assert.ErrorIs(t, err, ErrCorruption, "length %d", n)
	}
}
