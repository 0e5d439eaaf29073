package storage

import (
	"bytes"

	"github.com/cockroachdb/pebble"
)

// pebbleIterator walks a bounded pebble iterator and strips the tree prefix
// from every key.
type pebbleIterator struct {
	it        *pebble.Iterator
	prefixLen int
	started   bool
	key       []byte
	value     []byte
}

func newPebbleIterator(it *pebble.Iterator, prefixLen int) *pebbleIterator {
	return &pebbleIterator{it: it, prefixLen: prefixLen}
}

func (p *pebbleIterator) Next() bool {
	var valid bool
	if !p.started {
		p.started = true
		valid = p.it.First()
	} else {
		valid = p.it.Next()
	}
	if !valid {
		p.key, p.value = nil, nil
		return false
	}
	p.key = bytes.Clone(p.it.Key()[p.prefixLen:])
	p.value = bytes.Clone(p.it.Value())
	return true
}

func (p *pebbleIterator) Key() []byte {
	return p.key
}

func (p *pebbleIterator) Value() []byte {
	return p.value
}

func (p *pebbleIterator) Err() error {
	return p.it.Error()
}

func (p *pebbleIterator) Close() error {
	return p.it.Close()
}

// emptyIterator is returned for ranges that cannot contain any key.
type emptyIterator struct{}

func (emptyIterator) Next() bool    { return false }
func (emptyIterator) Key() []byte   { return nil }
func (emptyIterator) Value() []byte { return nil }
func (emptyIterator) Err() error    { return nil }
func (emptyIterator) Close() error  { return nil }

// Collect drains it into a slice, stopping after limit entries when limit is
// positive. The iterator is always closed.
func Collect(it Iterator, limit int) ([]Entry, error) {
	var entries []Entry
	for it.Next() {
		entries = append(entries, Entry{Key: it.Key(), Value: it.Value()})
		if limit > 0 && len(entries) >= limit {
			break
		}
	}
	if err := it.Err(); err != nil {
		it.Close()
		return nil, err
	}
	if err := it.Close(); err != nil {
		return nil, err
	}
	return entries, nil
}
