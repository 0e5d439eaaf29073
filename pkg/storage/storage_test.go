package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bytekit/pkg/structfmt"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

// mustCollect drains an iterator returned alongside an error.
func mustCollect(t *testing.T) func(Iterator, error) []Entry {
	return func(it Iterator, err error) []Entry {
		t.Helper()
		require.NoError(t, err)
		entries, err := Collect(it, 0)
		require.NoError(t, err)
		return entries
	}
}

func TestOpen_DefaultTree(t *testing.T) {
	db := openTestDB(t)

	assert.Equal(t, DefaultTreeName, db.Name())
	names, err := db.TreeNames()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultTreeName}, names)
	assert.Same(t, structfmt.Default(), db.Codec())
}

func TestOpen_Persistence(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, Options{Sync: true})
	require.NoError(t, err)
	tree, err := db.OpenTree("users")
	require.NoError(t, err)
	require.NoError(t, tree.Insert([]byte("alice"), []byte("1")))
	require.NoError(t, db.Insert([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(dir, Options{})
	require.NoError(t, err)
	defer db.Close()

	names, err := db.TreeNames()
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultTreeName, "users"}, names)

	tree, err = db.LookupTree("users")
	require.NoError(t, err)
	value, err := tree.Get([]byte("alice"))
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), value)

	value, err = db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), value)
}

func TestDB_TreesAreIsolated(t *testing.T) {
	db := openTestDB(t)

	a, err := db.OpenTree("a")
	require.NoError(t, err)
	ab, err := db.OpenTree("ab")
	require.NoError(t, err)

	require.NoError(t, a.Insert([]byte("x"), []byte("from a")))
	require.NoError(t, ab.Insert([]byte("x"), []byte("from ab")))

	entries := mustCollect(t)(a.Iter())
	require.Len(t, entries, 1)
	assert.Equal(t, []byte("from a"), entries[0].Value)

	require.NoError(t, a.Clear())
	n, err := ab.Len()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDB_OpenTreeInvalidName(t *testing.T) {
	db := openTestDB(t)

	_, err := db.OpenTree("")
	assert.ErrorIs(t, err, ErrInvalidTreeName)

	long := make([]byte, MaxTreeNameLen+1)
	for i := range long {
		long[i] = 'x'
	}
	_, err = db.OpenTree(string(long))
	assert.ErrorIs(t, err, ErrInvalidTreeName)
}

func TestDB_LookupTreeMissing(t *testing.T) {
	db := openTestDB(t)

	_, err := db.LookupTree("nope")
	assert.ErrorIs(t, err, ErrTreeNotFound)
}

func TestDB_DropTree(t *testing.T) {
	db := openTestDB(t)

	tree, err := db.OpenTree("tmp")
	require.NoError(t, err)
	require.NoError(t, tree.Insert([]byte("k"), []byte("v")))

	dropped, err := db.DropTree("tmp")
	require.NoError(t, err)
	assert.True(t, dropped)

	dropped, err = db.DropTree("tmp")
	require.NoError(t, err)
	assert.False(t, dropped)

	_, err = db.DropTree(DefaultTreeName)
	assert.ErrorIs(t, err, ErrDefaultTree)

	// Re-creating the tree must not resurrect old entries.
	tree, err = db.OpenTree("tmp")
	require.NoError(t, err)
	n, err := tree.Len()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDB_GenerateID(t *testing.T) {
	dir := t.TempDir()

	db, err := Open(dir, Options{})
	require.NoError(t, err)

	first, err := db.GenerateID()
	require.NoError(t, err)
	second, err := db.GenerateID()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), first)
	assert.Equal(t, uint64(1), second)
	require.NoError(t, db.Close())

	db, err = Open(dir, Options{})
	require.NoError(t, err)
	defer db.Close()

	third, err := db.GenerateID()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), third)
}

func TestDB_Checksum(t *testing.T) {
	db := openTestDB(t)

	empty, err := db.Checksum()
	require.NoError(t, err)

	require.NoError(t, db.Insert([]byte("k"), []byte("v")))
	withEntry, err := db.Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, empty, withEntry)

	again, err := db.Checksum()
	require.NoError(t, err)
	assert.Equal(t, withEntry, again)

	// Moving a byte between key and value must change the sum.
	require.NoError(t, db.Clear())
	require.NoError(t, db.Insert([]byte("kv"), nil))
	shifted, err := db.Checksum()
	require.NoError(t, err)
	assert.NotEqual(t, withEntry, shifted)
}

func TestDB_Closed(t *testing.T) {
	db, err := Open(t.TempDir(), Options{})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	assert.ErrorIs(t, db.Close(), ErrClosed)
	_, err = db.Get([]byte("k"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Insert([]byte("k"), nil), ErrClosed)
	_, err = db.TreeNames()
	assert.ErrorIs(t, err, ErrClosed)
	_, err = db.GenerateID()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, db.Flush(), ErrClosed)
}

func TestDB_FlushAndSize(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Insert([]byte("k"), make([]byte, 4096)))
	require.NoError(t, db.Flush())

	size, err := db.SizeOnDisk()
	require.NoError(t, err)
	assert.Positive(t, size)
}
