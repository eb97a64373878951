package dbf

import (
	"bytes"

	"go.etcd.io/bbolt"
)

// Cursor is a lazy ordered scan over one index, skipping soft-deleted rows.
// It holds a read transaction on the index file and must be closed. The
// sequence reflects the state of the table when the scan began; mutations
// made after that are not guaranteed to be visible.
//
//	cur, err := t.Scan(ix)
//	if err != nil { ... }
//	defer cur.Close()
//	for cur.Next() {
//	    rec := cur.Record()
//	    ...
//	}
//	if err := cur.Err(); err != nil { ... }
type Cursor struct {
	t       *Table
	ix      *Index
	prefix  []byte
	btx     *bbolt.Tx
	bc      *bbolt.Cursor
	started bool
	rec     Record
	deleted bool
	pos     uint64
	err     error
}

// Scan starts an ordered scan of the given index. Leading key field values
// may be supplied to restrict the scan to a key prefix (e.g. one media type
// in a type+timestamp index).
func (t *Table) Scan(ix *Index, prefixValues ...string) (*Cursor, error) {
	if ix.table != t.def {
		return nil, tableErrf(t.def.name, ix.name, nil, nil, "index belongs to table %s", ix.table.name)
	}
	prefix, err := ix.keyPrefix(prefixValues)
	if err != nil {
		return nil, tableErrf(t.def.name, ix.name, nil, err, "scan")
	}
	btx, err := t.ndx.Begin(false)
	if err != nil {
		return nil, tableErrf(t.def.name, ix.name, nil, err, "scan")
	}
	return &Cursor{
		t:      t,
		ix:     ix,
		prefix: prefix,
		btx:    btx,
		bc:     btx.Bucket(ix.bucketName()).Cursor(),
	}, nil
}

// Next advances to the next live row in key order. It returns false at the
// end of the range or on the first read error; check Err afterwards.
func (c *Cursor) Next() bool {
	if c.err != nil {
		return false
	}
	for {
		var k, v []byte
		if c.started {
			k, v = c.bc.Next()
		} else {
			c.started = true
			if len(c.prefix) > 0 {
				k, v = c.bc.Seek(c.prefix)
			} else {
				k, v = c.bc.First()
			}
		}
		if k == nil || !bytes.HasPrefix(k, c.prefix) {
			return false
		}

		pos := c.ix.posFromEntry(k, v)
		row, err := c.t.readRow(pos)
		if err != nil {
			c.err = err
			return false
		}
		rec, deleted := c.t.def.schema.decodeRow(row)
		if deleted {
			continue
		}
		c.rec, c.deleted, c.pos = rec, deleted, pos
		return true
	}
}

// Record returns the row the cursor is positioned on.
func (c *Cursor) Record() Record { return c.rec }

// Pos returns the row position the cursor is positioned on.
func (c *Cursor) Pos() uint64 { return c.pos }

// Err returns the first error encountered by Next.
func (c *Cursor) Err() error { return c.err }

// Reset restarts the scan from the beginning of its range.
func (c *Cursor) Reset() {
	c.started = false
	c.rec = nil
	c.err = nil
}

// Close releases the cursor's read transaction.
func (c *Cursor) Close() error {
	return c.btx.Rollback()
}
