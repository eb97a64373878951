package dbf

import (
	"bytes"
	"fmt"

	"go.etcd.io/bbolt"
)

// Insert appends a row and adds it to every index. A collision on any unique
// index fails with ErrDuplicateKey and leaves both the file and the indexes
// untouched.
func (t *Table) Insert(rec Record) error {
	row, err := t.def.schema.encodeRow(rec)
	if err != nil {
		return tableErrf(t.def.name, "", nil, err, "insert")
	}

	pos, err := t.rowCount()
	if err != nil {
		return err
	}

	st := t.state
	err = t.ndx.Update(func(btx *bbolt.Tx) error {
		for _, ix := range t.def.indexes {
			if err := ix.put(btx.Bucket(ix.bucketName()), ix.keyForRow(row), pos); err != nil {
				return err
			}
		}
		// The file write happens inside the index transaction so that a
		// failure rolls the index entries back. A crash between the write
		// and the commit leaves a trailing unindexed row, which the row
		// count check at open detects and repairs by rebuilding.
		if err := t.writeRow(pos, row); err != nil {
			return err
		}
		st.TotalRows++
		st.LiveRows++
		return saveState(btx, st)
	})
	if err != nil {
		return err
	}
	t.state = st
	return nil
}

// Update locates a row by its full primary key and applies mut to the
// decoded record. A missing key is reported as found=false, not an error.
// The rewritten row is always stored live: updating a soft-deleted row
// clears the stale delete flag. Index entries whose key fields changed are
// moved.
func (t *Table) Update(keyValues []string, mut func(Record)) (found bool, err error) {
	primary := t.def.Primary()
	if len(keyValues) != len(primary.fields) {
		return false, fmt.Errorf("dbf: %s: primary key needs %d values, got %d", t.def.name, len(primary.fields), len(keyValues))
	}
	key, err := primary.keyPrefix(keyValues)
	if err != nil {
		return false, tableErrf(t.def.name, primary.name, nil, err, "update")
	}

	st := t.state
	err = t.ndx.Update(func(btx *bbolt.Tx) error {
		pos, ok := primary.findExact(btx.Bucket(primary.bucketName()), key)
		if !ok {
			return nil
		}
		found = true

		oldRow, err := t.readRow(pos)
		if err != nil {
			return err
		}
		rec, wasDeleted := t.def.schema.decodeRow(oldRow)
		mut(rec)
		newRow, err := t.def.schema.encodeRow(rec)
		if err != nil {
			return tableErrf(t.def.name, "", key, err, "update")
		}

		for _, ix := range t.def.indexes {
			oldKey, newKey := ix.keyForRow(oldRow), ix.keyForRow(newRow)
			if bytes.Equal(oldKey, newKey) {
				continue
			}
			b := btx.Bucket(ix.bucketName())
			if err := ix.del(b, oldKey, pos); err != nil {
				return err
			}
			if err := ix.put(b, newKey, pos); err != nil {
				return err
			}
		}

		if err := t.writeRow(pos, newRow); err != nil {
			return err
		}
		if wasDeleted {
			st.LiveRows++
			st.PendingDeletes--
		}
		return saveState(btx, st)
	})
	if err != nil {
		return false, err
	}
	t.state = st
	return found, nil
}

// SoftDelete marks the row with the given primary key deleted in place.
// Index entries are not altered; scans skip flagged rows until Pack. The
// return value reports whether a live row matched.
func (t *Table) SoftDelete(keyValues ...string) (found bool, err error) {
	primary := t.def.Primary()
	key, err := primary.keyPrefix(keyValues)
	if err != nil {
		return false, tableErrf(t.def.name, primary.name, nil, err, "delete")
	}

	st := t.state
	err = t.ndx.Update(func(btx *bbolt.Tx) error {
		pos, ok := primary.findExact(btx.Bucket(primary.bucketName()), key)
		if !ok {
			return nil
		}
		row, err := t.readRow(pos)
		if err != nil {
			return err
		}
		if row[0] == flagDeleted {
			return nil
		}
		row[0] = flagDeleted
		if err := t.writeRow(pos, row); err != nil {
			return err
		}
		found = true
		st.LiveRows--
		st.PendingDeletes++
		return saveState(btx, st)
	})
	if err != nil {
		return false, err
	}
	t.state = st
	return found, nil
}

// Find resolves a full primary key to its record. Lookups are index-driven
// and soft deletion does not alter indexes, so a soft-deleted row is still
// found; deleted reports its flag. A missing key is found=false, never an
// error.
func (t *Table) Find(keyValues ...string) (rec Record, deleted, found bool, err error) {
	primary := t.def.Primary()
	key, err := primary.keyPrefix(keyValues)
	if err != nil {
		return nil, false, false, tableErrf(t.def.name, primary.name, nil, err, "find")
	}

	err = t.ndx.View(func(btx *bbolt.Tx) error {
		pos, ok := primary.findExact(btx.Bucket(primary.bucketName()), key)
		if !ok {
			return nil
		}
		row, err := t.readRow(pos)
		if err != nil {
			return err
		}
		rec, deleted = t.def.schema.decodeRow(row)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, false, err
	}
	return rec, deleted, found, nil
}
