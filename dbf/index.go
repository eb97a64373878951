package dbf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"

	"go.etcd.io/bbolt"
)

// Index describes one ordered keyed index over a table. The key is the
// concatenation of the named fields' fixed-width encodings, in the order
// given, so byte order on the stored key equals the intended sort order.
type Index struct {
	name     string
	fields   []string
	isUnique bool

	// bound by DefineTable
	table   *TableDef
	regions [][2]int // offset, width of each key field within a row
	keyLen  int
}

// NewIndex defines an index over the named fields. The index is non-unique
// until Unique is called.
func NewIndex(name string, fields ...string) *Index {
	if len(fields) == 0 {
		panic(fmt.Errorf("dbf: index %s has no key fields", name))
	}
	return &Index{name: name, fields: fields}
}

// Unique marks the index as rejecting duplicate keys.
func (ix *Index) Unique() *Index {
	ix.isUnique = true
	return ix
}

// Name returns the index name, which is also its bucket name in the index
// file.
func (ix *Index) Name() string {
	return ix.name
}

// IsUnique reports whether duplicate keys are rejected.
func (ix *Index) IsUnique() bool {
	return ix.isUnique
}

// KeyExpr renders the key fields joined by '+', e.g. "MEDIATYPE+LASTUSE".
func (ix *Index) KeyExpr() string {
	return strings.Join(ix.fields, "+")
}

func (ix *Index) bind(def *TableDef) {
	if ix.table != nil {
		panic(fmt.Errorf("dbf: index %s is already bound to table %s", ix.name, ix.table.name))
	}
	ix.table = def
	ix.regions = make([][2]int, len(ix.fields))
	for i, name := range ix.fields {
		off, width := def.schema.fieldOffset(name)
		ix.regions[i] = [2]int{off, width}
		ix.keyLen += width
	}
}

func (ix *Index) bucketName() []byte {
	return []byte("i_" + ix.name)
}

// keyForRow slices the key field regions out of an encoded row.
func (ix *Index) keyForRow(row []byte) []byte {
	key := make([]byte, 0, ix.keyLen)
	for _, r := range ix.regions {
		key = append(key, row[r[0]:r[0]+r[1]]...)
	}
	return key
}

// keyPrefix encodes the given leading key field values for an exact find or
// prefix scan.
func (ix *Index) keyPrefix(values []string) ([]byte, error) {
	if len(values) > len(ix.fields) {
		return nil, fmt.Errorf("dbf: index %s has %d key fields, got %d values", ix.name, len(ix.fields), len(values))
	}
	var buf []byte
	var err error
	for i, v := range values {
		f, _ := ix.table.schema.Field(ix.fields[i])
		buf, err = encodeField(buf, f, v)
		if err != nil {
			return nil, err
		}
	}
	return buf, nil
}

func encodePos(pos uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], pos)
	return b[:]
}

func decodePos(b []byte) uint64 {
	return binary.BigEndian.Uint64(b)
}

// entryKey returns the bucket key for a row: the bare composite key for a
// unique index, the composite key with the row position appended for a
// non-unique one.
func (ix *Index) entryKey(key []byte, pos uint64) []byte {
	if ix.isUnique {
		return key
	}
	return append(append(make([]byte, 0, len(key)+8), key...), encodePos(pos)...)
}

// put inserts an index entry for the row at pos. A unique collision fails
// with ErrDuplicateKey and leaves the bucket untouched.
func (ix *Index) put(b *bbolt.Bucket, key []byte, pos uint64) error {
	if ix.isUnique {
		if existing := b.Get(key); existing != nil && decodePos(existing) != pos {
			return tableErrf(ix.table.name, ix.name, key, ErrDuplicateKey, "")
		}
		return b.Put(key, encodePos(pos))
	}
	return b.Put(ix.entryKey(key, pos), nil)
}

// del removes the entry for the row at pos. Missing entries are ignored;
// rebuild handles any drift.
func (ix *Index) del(b *bbolt.Bucket, key []byte, pos uint64) error {
	if ix.isUnique {
		if existing := b.Get(key); existing == nil || decodePos(existing) != pos {
			return nil
		}
		return b.Delete(key)
	}
	return b.Delete(ix.entryKey(key, pos))
}

// findExact resolves a full key to a row position.
func (ix *Index) findExact(b *bbolt.Bucket, key []byte) (pos uint64, found bool) {
	if ix.isUnique {
		v := b.Get(key)
		if v == nil {
			return 0, false
		}
		return decodePos(v), true
	}
	c := b.Cursor()
	k, _ := c.Seek(key)
	if k == nil || len(k) != len(key)+8 || !bytes.HasPrefix(k, key) {
		return 0, false
	}
	return decodePos(k[len(key):]), true
}

// posFromEntry recovers the row position from a bucket entry.
func (ix *Index) posFromEntry(k, v []byte) uint64 {
	if ix.isUnique {
		return decodePos(v)
	}
	return decodePos(k[len(k)-8:])
}
