package storage

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/ssargent/bytekit/internal/logger"
	"github.com/ssargent/bytekit/pkg/structfmt"
)

// idFormat encodes the persisted ID counter.
const idFormat = "<T"

// DB is a pebble-backed store of named trees. The embedded Tree is the
// default tree, so DB can be used directly as a key-value store.
type DB struct {
	*Tree

	pdb       *pebble.DB
	path      string
	writeOpts *pebble.WriteOptions
	codec     *structfmt.Codec
	logger    logger.Logger

	mu    sync.RWMutex
	trees map[string]*Tree

	idMu     sync.Mutex
	idLoaded bool
	nextID   uint64

	closed atomic.Bool
}

// Open opens or creates the database at path.
func Open(path string, opts Options) (*DB, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	pdb, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open pebble at %s: %w", path, err)
	}

	db := &DB{
		pdb:       pdb,
		path:      path,
		writeOpts: pebble.NoSync,
		codec:     opts.Codec,
		logger:    opts.Logger,
		trees:     make(map[string]*Tree),
	}
	if opts.Sync {
		db.writeOpts = pebble.Sync
	}
	if db.codec == nil {
		db.codec = structfmt.Default()
	}
	if db.logger == nil {
		db.logger = logger.Discard()
	}

	db.Tree, err = db.OpenTree(DefaultTreeName)
	if err != nil {
		pdb.Close()
		return nil, err
	}

	db.logger.Info("storage opened", "path", path, "sync", opts.Sync)
	return db, nil
}

// Path returns the directory the database lives in.
func (db *DB) Path() string {
	return db.path
}

// Codec returns the codec used by the *Struct methods.
func (db *DB) Codec() *structfmt.Codec {
	return db.codec
}

// OpenTree returns the named tree, creating it if it does not exist.
func (db *DB) OpenTree(name string) (*Tree, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	t, ok := db.trees[name]
	db.mu.RUnlock()
	if ok {
		return t, nil
	}

	prefix, err := treeDataPrefix(name)
	if err != nil {
		return nil, err
	}
	regKey, err := treeRegistryKey(name)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if t, ok := db.trees[name]; ok {
		return t, nil
	}
	if err := db.pdb.Set(regKey, nil, db.writeOpts); err != nil {
		return nil, fmt.Errorf("failed to register tree %q: %w", name, err)
	}

	t = &Tree{db: db, name: name, prefix: prefix}
	db.trees[name] = t
	return t, nil
}

// LookupTree returns the named tree only if it has been created before.
func (db *DB) LookupTree(name string) (*Tree, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	db.mu.RLock()
	t, ok := db.trees[name]
	db.mu.RUnlock()
	if ok {
		return t, nil
	}

	regKey, err := treeRegistryKey(name)
	if err != nil {
		return nil, err
	}
	_, closer, err := db.pdb.Get(regKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrTreeNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	closer.Close()

	return db.OpenTree(name)
}

// TreeNames lists every tree, including the default one, sorted by name.
func (db *DB) TreeNames() ([]string, error) {
	if err := db.checkOpen(); err != nil {
		return nil, err
	}

	lower := []byte{nsTree}
	it, err := db.pdb.NewIter(&pebble.IterOptions{LowerBound: lower, UpperBound: prefixEnd(lower)})
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var names []string
	for valid := it.First(); valid; valid = it.Next() {
		name, err := treeNameFromRegistryKey(it.Key())
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := it.Error(); err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

// DropTree deletes the named tree and all of its entries. It reports
// whether the tree existed.
func (db *DB) DropTree(name string) (bool, error) {
	if err := db.checkOpen(); err != nil {
		return false, err
	}
	if name == DefaultTreeName {
		return false, ErrDefaultTree
	}

	t, err := db.LookupTree(name)
	if errors.Is(err, ErrTreeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	regKey, err := treeRegistryKey(name)
	if err != nil {
		return false, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	batch := db.pdb.NewBatch()
	defer batch.Close()

	if err := batch.DeleteRange(t.prefix, prefixEnd(t.prefix), nil); err != nil {
		return false, err
	}
	if err := batch.Delete(regKey, nil); err != nil {
		return false, err
	}
	if err := batch.Commit(db.writeOpts); err != nil {
		return false, fmt.Errorf("failed to drop tree %q: %w", name, err)
	}

	delete(db.trees, name)
	db.logger.Info("tree dropped", "tree", name)
	return true, nil
}

// GenerateID returns a monotonically increasing identifier that stays
// unique across restarts. The first ID handed out is 0.
func (db *DB) GenerateID() (uint64, error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}

	db.idMu.Lock()
	defer db.idMu.Unlock()

	if !db.idLoaded {
		next, err := db.loadNextID()
		if err != nil {
			return 0, err
		}
		db.nextID = next
		db.idLoaded = true
	}

	id := db.nextID
	value, err := structfmt.Pack(idFormat, id+1)
	if err != nil {
		return 0, err
	}
	if err := db.pdb.Set(nextIDKey, value, pebble.Sync); err != nil {
		return 0, fmt.Errorf("failed to persist id counter: %w", err)
	}
	db.nextID = id + 1
	return id, nil
}

func (db *DB) loadNextID() (uint64, error) {
	value, closer, err := db.pdb.Get(nextIDKey)
	if errors.Is(err, pebble.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	defer closer.Close()

	values, err := structfmt.Unpack(idFormat, value)
	if err != nil {
		return 0, fmt.Errorf("%w: id counter: %v", ErrCorruption, err)
	}
	return values[0].(uint64), nil
}

// Checksum hashes every tree and its entries in order.
func (db *DB) Checksum() (uint64, error) {
	names, err := db.TreeNames()
	if err != nil {
		return 0, err
	}

	h := newChecksum()
	for _, name := range names {
		t, err := db.OpenTree(name)
		if err != nil {
			return 0, err
		}
		h.writeField([]byte(name))
		if err := t.hashEntries(h); err != nil {
			return 0, err
		}
	}
	return h.Sum64(), nil
}

// SizeOnDisk reports the approximate number of bytes used by the store.
func (db *DB) SizeOnDisk() (uint64, error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}
	return db.pdb.Metrics().DiskSpaceUsage(), nil
}

// Flush forces buffered writes to stable storage.
func (db *DB) Flush() error {
	if err := db.checkOpen(); err != nil {
		return err
	}
	return db.pdb.Flush()
}

// Close closes the database. Further calls return ErrClosed.
func (db *DB) Close() error {
	if !db.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	db.logger.Info("storage closed", "path", db.path)
	return db.pdb.Close()
}

func (db *DB) checkOpen() error {
	if db.closed.Load() {
		return ErrClosed
	}
	return nil
}
