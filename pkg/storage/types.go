package storage

import (
	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/structfmt"
)

// DefaultTreeName is the name of the tree embedded in every DB.
const DefaultTreeName = "__default"

// MaxTreeNameLen bounds tree names so they fit the export record header.
const MaxTreeNameLen = 512

// Options holds configuration for a DB
type Options struct {
	Sync   bool             // fsync every write
	Codec  *structfmt.Codec // codec used by the *Struct methods (nil = structfmt.Default())
	Logger logger.Logger    // nil = logger.Discard()
}

// Entry is a key-value pair read from a tree
type Entry struct {
	Key   []byte
	Value []byte
}

// Iterator provides lazy, ordered access to the entries of a tree.
// Callers must Close it.
type Iterator interface {
	Next() bool
	Key() []byte
	Value() []byte
	Err() error
	Close() error
}

// Errors
var (
	ErrKeyNotFound     = &StoreError{"key not found"}
	ErrTreeNotFound    = &StoreError{"tree not found"}
	ErrInvalidTreeName = &StoreError{"invalid tree name"}
	ErrDefaultTree     = &StoreError{"the default tree cannot be dropped"}
	ErrCorruption      = &StoreError{"data corruption detected"}
	ErrClosed          = &StoreError{"database is closed"}
)

// StoreError represents a storage binding error
type StoreError struct {
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}
