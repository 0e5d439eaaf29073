package storage

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// exportMagic opens every export stream.
var exportMagic = []byte("BKX1")

// importBatchSize is the number of records committed per pebble batch.
const importBatchSize = 1000

// Export writes every entry of every tree to w as a stream of CRC-protected
// records and returns the number of records written.
func (db *DB) Export(w io.Writer) (int, error) {
	names, err := db.TreeNames()
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.Write(exportMagic); err != nil {
		return 0, err
	}

	codec := NewRecordCodec()
	count := 0
	for _, name := range names {
		t, err := db.OpenTree(name)
		if err != nil {
			return count, err
		}
		n, err := t.export(bw, codec)
		count += n
		if err != nil {
			return count, err
		}
	}

	if err := bw.Flush(); err != nil {
		return count, err
	}
	db.logger.Info("export complete", "trees", len(names), "records", count)
	return count, nil
}

func (t *Tree) export(w io.Writer, codec *RecordCodec) (int, error) {
	it, err := t.Iter()
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := 0
	for it.Next() {
		r, err := NewRecord(t.name, it.Key(), it.Value())
		if err != nil {
			return count, err
		}
		data, err := codec.Encode(r)
		if err != nil {
			return count, err
		}
		if _, err := w.Write(data); err != nil {
			return count, err
		}
		count++
	}
	return count, it.Err()
}

// Import reads an export stream and inserts every record, creating trees as
// needed. Existing keys are overwritten. A record that fails its CRC check
// aborts the import with ErrCorruption; batches committed before it remain.
func (db *DB) Import(r io.Reader) (int, error) {
	if err := db.checkOpen(); err != nil {
		return 0, err
	}

	br := bufio.NewReader(r)
	magic := make([]byte, len(exportMagic))
	if _, err := io.ReadFull(br, magic); err != nil || !bytes.Equal(magic, exportMagic) {
		return 0, fmt.Errorf("%w: not an export stream", ErrCorruption)
	}

	codec := NewRecordCodec()
	batch := db.pdb.NewBatch()
	pending, count := 0, 0

	commit := func() error {
		if pending == 0 {
			return nil
		}
		if err := batch.Commit(db.writeOpts); err != nil {
			return err
		}
		batch.Close()
		batch = db.pdb.NewBatch()
		count += pending
		pending = 0
		return nil
	}
	defer func() { batch.Close() }()

	for {
		rec, err := codec.ReadRecord(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return count, err
		}

		t, err := db.OpenTree(string(rec.Tree))
		if err != nil {
			return count, err
		}
		if err := batch.Set(t.key(rec.Key), rec.Value, nil); err != nil {
			return count, err
		}

		pending++
		if pending >= importBatchSize {
			if err := commit(); err != nil {
				return count, err
			}
		}
	}

	if err := commit(); err != nil {
		return count, err
	}
	db.logger.Info("import complete", "records", count)
	return count, nil
}
