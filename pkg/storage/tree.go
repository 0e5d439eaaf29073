package storage

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/cockroachdb/pebble"
	"github.com/segmentio/ksuid"
)

// Tree is a named, ordered key-value namespace inside a DB.
type Tree struct {
	db     *DB
	name   string
	prefix []byte
}

// Name returns the tree's name.
func (t *Tree) Name() string {
	return t.name
}

func (t *Tree) key(k []byte) []byte {
	return concat(t.prefix, k)
}

// Get returns the value stored under key or ErrKeyNotFound.
func (t *Tree) Get(key []byte) ([]byte, error) {
	if err := t.db.checkOpen(); err != nil {
		return nil, err
	}

	value, closer, err := t.db.pdb.Get(t.key(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	return bytes.Clone(value), nil
}

// Contains reports whether key is present.
func (t *Tree) Contains(key []byte) (bool, error) {
	_, err := t.Get(key)
	if errors.Is(err, ErrKeyNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Insert stores value under key, replacing any previous value.
func (t *Tree) Insert(key, value []byte) error {
	if err := t.db.checkOpen(); err != nil {
		return err
	}
	return t.db.pdb.Set(t.key(key), value, t.db.writeOpts)
}

// Create stores value under a fresh KSUID and returns it.
func (t *Tree) Create(value []byte) (ksuid.KSUID, error) {
	id := ksuid.New()
	if err := t.Insert(id.Bytes(), value); err != nil {
		return ksuid.Nil, err
	}
	return id, nil
}

// Remove deletes key and reports whether it was present.
func (t *Tree) Remove(key []byte) (bool, error) {
	found, err := t.Contains(key)
	if err != nil || !found {
		return false, err
	}
	if err := t.db.pdb.Delete(t.key(key), t.db.writeOpts); err != nil {
		return false, err
	}
	return true, nil
}

// Clear deletes every entry in the tree. The tree itself stays registered.
func (t *Tree) Clear() error {
	if err := t.db.checkOpen(); err != nil {
		return err
	}
	return t.db.pdb.DeleteRange(t.prefix, prefixEnd(t.prefix), t.db.writeOpts)
}

func (t *Tree) iter(lower, upper []byte) (Iterator, error) {
	if err := t.db.checkOpen(); err != nil {
		return nil, err
	}
	if bytes.Compare(lower, upper) >= 0 {
		return emptyIterator{}, nil
	}

	it, err := t.db.pdb.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: upper})
	if err != nil {
		return nil, err
	}
	return newPebbleIterator(it, len(t.prefix)), nil
}

// Iter walks the whole tree in key order.
func (t *Tree) Iter() (Iterator, error) {
	return t.ScanPrefix(nil)
}

// ScanPrefix walks every key that starts with prefix.
func (t *Tree) ScanPrefix(prefix []byte) (Iterator, error) {
	lower := t.key(prefix)
	return t.iter(lower, prefixEnd(lower))
}

// Range walks keys between start and end, both inclusive.
func (t *Tree) Range(start, end []byte) (Iterator, error) {
	// The successor of end is end followed by a zero byte.
	upper := append(t.key(end), 0)
	return t.iter(t.key(start), upper)
}

// First returns the entry with the smallest key.
func (t *Tree) First() (Entry, error) {
	return t.seek(func(it *pebble.Iterator) bool { return it.First() })
}

// Last returns the entry with the largest key.
func (t *Tree) Last() (Entry, error) {
	return t.seek(func(it *pebble.Iterator) bool { return it.Last() })
}

// GetLT returns the entry with the largest key strictly below key.
func (t *Tree) GetLT(key []byte) (Entry, error) {
	target := t.key(key)
	return t.seek(func(it *pebble.Iterator) bool { return it.SeekLT(target) })
}

// GetGT returns the entry with the smallest key strictly above key.
func (t *Tree) GetGT(key []byte) (Entry, error) {
	target := append(t.key(key), 0)
	return t.seek(func(it *pebble.Iterator) bool { return it.SeekGE(target) })
}

func (t *Tree) seek(position func(*pebble.Iterator) bool) (Entry, error) {
	if err := t.db.checkOpen(); err != nil {
		return Entry{}, err
	}

	it, err := t.db.pdb.NewIter(&pebble.IterOptions{
		LowerBound: t.prefix,
		UpperBound: prefixEnd(t.prefix),
	})
	if err != nil {
		return Entry{}, err
	}
	defer it.Close()

	if !position(it) {
		if err := it.Error(); err != nil {
			return Entry{}, err
		}
		return Entry{}, ErrKeyNotFound
	}

	return Entry{
		Key:   bytes.Clone(it.Key()[len(t.prefix):]),
		Value: bytes.Clone(it.Value()),
	}, nil
}

// Len counts the entries in the tree.
func (t *Tree) Len() (int, error) {
	it, err := t.Iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	n := 0
	for it.Next() {
		n++
	}
	return n, it.Err()
}

// Checksum hashes the tree's entries in key order.
func (t *Tree) Checksum() (uint64, error) {
	h := newChecksum()
	if err := t.hashEntries(h); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func (t *Tree) hashEntries(h *checksum) error {
	it, err := t.Iter()
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		h.writeField(it.Key())
		h.writeField(it.Value())
	}
	if err := it.Err(); err != nil {
		return fmt.Errorf("checksum of tree %q: %w", t.name, err)
	}
	return nil
}
