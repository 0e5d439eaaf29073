package storage

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// checksum feeds length-delimited fields into xxhash so that adjacent
// fields can never alias each other.
type checksum struct {
	*xxhash.Digest
	scratch [4]byte
}

func newChecksum() *checksum {
	return &checksum{Digest: xxhash.New()}
}

func (c *checksum) writeField(p []byte) {
	binary.LittleEndian.PutUint32(c.scratch[:], uint32(len(p)))
	c.Write(c.scratch[:])
	c.Write(p)
}
