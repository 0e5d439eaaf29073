package storage

import (
	"bytes"
	"fmt"

	"github.com/ssargent/bytekit/pkg/structfmt"
)

// Key namespaces. Every pebble key starts with one of these bytes.
const (
	nsData byte = 'd' // tree entries:   'd' | u16 name length | name | user key
	nsTree byte = 't' // tree registry:  't' | u16 name length | name
	nsMeta byte = 'm' // bookkeeping values
)

// namespaceFormat is big-endian so that the length prefix never depends on
// the host byte order.
const namespaceFormat = ">B s"

var nextIDKey = []byte{nsMeta, 'i', 'd'}

func validateTreeName(name string) error {
	if name == "" || len(name) > MaxTreeNameLen {
		return fmt.Errorf("%w: %q", ErrInvalidTreeName, name)
	}
	return nil
}

func namespacedName(ns byte, name string) ([]byte, error) {
	if err := validateTreeName(name); err != nil {
		return nil, err
	}
	return structfmt.Pack(namespaceFormat, ns, name)
}

func treeDataPrefix(name string) ([]byte, error) {
	return namespacedName(nsData, name)
}

func treeRegistryKey(name string) ([]byte, error) {
	return namespacedName(nsTree, name)
}

// treeNameFromRegistryKey reverses treeRegistryKey.
func treeNameFromRegistryKey(key []byte) (string, error) {
	values, err := structfmt.Unpack(namespaceFormat, key)
	if err != nil {
		return "", fmt.Errorf("%w: registry key %x: %v", ErrCorruption, key, err)
	}
	return string(values[1].([]byte)), nil
}

// prefixEnd returns the smallest key greater than every key starting with
// prefix, or nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := bytes.Clone(prefix)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func concat(parts ...[]byte) []byte {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	out := make([]byte, 0, n)
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}
