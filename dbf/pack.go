package dbf

import (
	"fmt"
	"os"
	"path/filepath"

	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Pack rewrites the data file retaining only live rows, in primary index
// order, then rebuilds every index. The rewrite goes to a temporary file
// that is renamed over the original, so the operation either fully succeeds
// or leaves the table untouched; the temporary file is removed on every
// failure path.
func (t *Table) Pack() error {
	tmp, err := os.CreateTemp(filepath.Dir(t.dataPath), t.def.name+"-pack-*")
	if err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack")
	}
	tmpName := tmp.Name()
	renamed := false
	defer func() {
		tmp.Close()
		if !renamed {
			os.Remove(tmpName)
		}
	}()

	primary := t.def.Primary()
	var kept uint64
	err = t.ndx.View(func(btx *bbolt.Tx) error {
		bc := btx.Bucket(primary.bucketName()).Cursor()
		for k, v := bc.First(); k != nil; k, v = bc.Next() {
			row, err := t.readRow(primary.posFromEntry(k, v))
			if err != nil {
				return err
			}
			if row[0] == flagDeleted {
				continue
			}
			if _, err := tmp.Write(row); err != nil {
				return err
			}
			kept++
		}
		return nil
	})
	if err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack")
	}

	if err := tmp.Sync(); err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack")
	}
	if err := tmp.Close(); err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack")
	}
	if err := os.Rename(tmpName, t.dataPath); err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack")
	}
	renamed = true

	// The open handle still points at the replaced file.
	f, err := os.OpenFile(t.dataPath, os.O_RDWR, 0o666)
	if err != nil {
		return tableErrf(t.def.name, "", nil, err, "pack: reopen")
	}
	t.f.Close()
	t.f = f

	t.logger.Info("packed table",
		zap.String("table", t.def.name),
		zap.Uint64("kept", kept),
		zap.Uint64("removed", t.state.PendingDeletes))

	return t.Reindex()
}

// Reindex reconstructs every index from a sequential scan of the data file
// and rewrites the table state. Used when an index file is absent or stale,
// after Pack, and on explicit request.
func (t *Table) Reindex() error {
	rows, err := t.rowCount()
	if err != nil {
		return err
	}

	var st tableState
	err = t.ndx.Update(func(btx *bbolt.Tx) error {
		for _, ix := range t.def.indexes {
			name := ix.bucketName()
			if btx.Bucket(name) != nil {
				if err := btx.DeleteBucket(name); err != nil {
					return err
				}
			}
			if _, err := btx.CreateBucket(name); err != nil {
				return err
			}
		}

		st = tableState{Fingerprint: t.def.schema.fingerprint(), TotalRows: rows}
		for pos := uint64(0); pos < rows; pos++ {
			row, err := t.readRow(pos)
			if err != nil {
				return err
			}
			if row[0] == flagDeleted {
				st.PendingDeletes++
			} else {
				st.LiveRows++
			}
			for _, ix := range t.def.indexes {
				if err := ix.put(btx.Bucket(ix.bucketName()), ix.keyForRow(row), pos); err != nil {
					return err
				}
			}
		}
		return saveState(btx, st)
	})
	if err != nil {
		return fmt.Errorf("dbf: %s: reindex: %w", t.def.name, err)
	}
	t.state = st
	return nil
}
