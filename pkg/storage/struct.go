package storage

import "fmt"

// The *Struct methods pack and unpack values with the DB's codec so callers
// can store fixed-layout records without handling the encoding themselves.

// InsertStruct packs args according to format and stores them under key.
func (t *Tree) InsertStruct(key []byte, format string, args ...any) error {
	value, err := t.db.codec.Pack(format, args...)
	if err != nil {
		return err
	}
	return t.Insert(key, value)
}

// GetStruct reads the value under key and unpacks it according to format.
func (t *Tree) GetStruct(key []byte, format string) ([]any, error) {
	value, err := t.Get(key)
	if err != nil {
		return nil, err
	}
	return t.unpack(key, format, value)
}

// FirstStruct is First followed by an unpack of the value.
func (t *Tree) FirstStruct(format string) ([]byte, []any, error) {
	return t.unpackEntry(t.First())(format)
}

// LastStruct is Last followed by an unpack of the value.
func (t *Tree) LastStruct(format string) ([]byte, []any, error) {
	return t.unpackEntry(t.Last())(format)
}

// GetLTStruct is GetLT followed by an unpack of the value.
func (t *Tree) GetLTStruct(key []byte, format string) ([]byte, []any, error) {
	return t.unpackEntry(t.GetLT(key))(format)
}

// GetGTStruct is GetGT followed by an unpack of the value.
func (t *Tree) GetGTStruct(key []byte, format string) ([]byte, []any, error) {
	return t.unpackEntry(t.GetGT(key))(format)
}

// Unpack decodes a value read from this tree, e.g. during iteration.
func (t *Tree) Unpack(format string, value []byte) ([]any, error) {
	return t.db.codec.Unpack(format, value)
}

func (t *Tree) unpackEntry(e Entry, err error) func(string) ([]byte, []any, error) {
	return func(format string) ([]byte, []any, error) {
		if err != nil {
			return nil, nil, err
		}
		values, err := t.unpack(e.Key, format, e.Value)
		if err != nil {
			return nil, nil, err
		}
		return e.Key, values, nil
	}
}

func (t *Tree) unpack(key []byte, format string, value []byte) ([]any, error) {
	values, err := t.db.codec.Unpack(format, value)
	if err != nil {
		return nil, fmt.Errorf("value of %q in tree %q: %w", key, t.name, err)
	}
	return values, nil
}
