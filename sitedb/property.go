package sitedb

import (
	"encoding/base64"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/EdGit97/sysdocs/dbf"
)

const (
	fldGroup    = "GROUP"
	fldProperty = "PROPERTY"
	fldPosition = "POSITION"
	fldValue    = "VALUE"
)

// MaxMultiValues caps how many lines a multi-value property can hold; the
// one-digit POSITION field cannot number more.
const MaxMultiValues = 10

var propertyTable = dbf.DefineTable("properties",
	dbf.NewSchema(
		dbf.Field{Name: fldGroup, Type: dbf.Character, Width: 15},
		dbf.Field{Name: fldProperty, Type: dbf.Character, Width: 20},
		dbf.Field{Name: fldPosition, Type: dbf.Numeric, Width: 1},
		dbf.Field{Name: fldValue, Type: dbf.Character, Width: 100},
	),
	[]*dbf.Index{
		dbf.NewIndex("groupprop", fldGroup, fldProperty, fldPosition).Unique(),
	},
	dbf.WithSeed(func() []dbf.Record {
		var recs []dbf.Record
		for _, k := range RegisteredKeys() {
			recs = append(recs, propertyRecord(k, 0, encodeValue(k, k.Default)))
		}
		return recs
	}),
)

func propertyRecord(k PropertyKey, position int, storedValue string) dbf.Record {
	return dbf.Record{
		fldGroup:    k.Group.Name,
		fldProperty: k.Name,
		fldPosition: strconv.Itoa(position),
		fldValue:    storedValue,
	}
}

func encodeValue(k PropertyKey, value string) string {
	if k.Secret {
		return base64.StdEncoding.EncodeToString([]byte(value))
	}
	return value
}

func decodeValue(k PropertyKey, stored string) string {
	if !k.Secret {
		return stored
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		// Not valid base64; surface the stored text rather than lose it.
		return stored
	}
	return string(raw)
}

type propEntry struct {
	value   string
	deleted bool
}

// PropertySet is the in-memory view of every registered property. Load one
// from a PropertyStore, mutate it, then Save it back; Save diffs against
// the table row by row.
type PropertySet struct {
	entries map[string]*propEntry // by key name
}

func newPropertySet() *PropertySet {
	return &PropertySet{entries: make(map[string]*propEntry)}
}

func (ps *PropertySet) entry(k PropertyKey) *propEntry {
	e := ps.entries[k.Name]
	if e == nil {
		e = &propEntry{value: k.Default}
		ps.entries[k.Name] = e
	}
	return e
}

// Get returns the property's value, or its default when never set.
func (ps *PropertySet) Get(k PropertyKey) string {
	e := ps.entry(k)
	if e.deleted {
		return ""
	}
	return e.value
}

// GetInt returns a numeric property's value, 0 when unset or malformed.
func (ps *PropertySet) GetInt(k PropertyKey) int {
	n, err := strconv.Atoi(ps.Get(k))
	if err != nil {
		return 0
	}
	return n
}

// Lines splits a multi-value property into its lines. Windows line endings
// are tolerated; a blank value has no lines.
func (ps *PropertySet) Lines(k PropertyKey) []string {
	v := strings.ReplaceAll(ps.Get(k), "\r\n", "\n")
	v = strings.ReplaceAll(v, "\r", "\n")
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return strings.Split(v, "\n")
}

// Set assigns a new value, clearing any pending deletion.
func (ps *PropertySet) Set(k PropertyKey, value string) {
	e := ps.entry(k)
	e.value = value
	e.deleted = false
}

// Delete marks the property for removal on the next Save.
func (ps *PropertySet) Delete(k PropertyKey) {
	e := ps.entry(k)
	e.value = ""
	e.deleted = true
}

// Validate checks every property against its registry rules, collecting
// one message per problem.
func (ps *PropertySet) Validate() []string {
	var errs []string
	for _, k := range RegisteredKeys() {
		e := ps.entry(k)
		if e.deleted {
			continue
		}
		switch {
		case k.Numeric:
			if e.value != "" {
				if _, err := strconv.Atoi(e.value); err != nil {
					errs = append(errs, fmt.Sprintf("%s must be a numeric value.", k.Description))
				}
			}
		case k.Group.MultiValue:
			lines := ps.Lines(k)
			for _, line := range lines {
				if len(line) > k.MaxLen {
					errs = append(errs, fmt.Sprintf("%s length is greater than %d.", line, k.MaxLen))
				}
			}
			if k.Directory {
				for _, line := range lines {
					if fi, err := os.Stat(line); err != nil || !fi.IsDir() {
						errs = append(errs, fmt.Sprintf("Directory %s does not exist or is not a directory.", line))
					}
				}
			}
			if len(lines) > MaxMultiValues {
				errs = append(errs, fmt.Sprintf("The number of values cannot be greater than %d.", MaxMultiValues))
			}
		}
	}
	return errs
}

// PropertyStore manages properties.dbf under a site root. Creation seeds
// every registered property with its default.
type PropertyStore struct {
	root string
	opts storeOpts
}

// NewPropertyStore returns a store for the properties table under root.
func NewPropertyStore(root string, opts ...Option) *PropertyStore {
	return &PropertyStore{root: root, opts: applyOpts(opts)}
}

func (s *PropertyStore) open() (*dbf.Table, error) {
	return s.opts.open(s.root, propertyTable)
}

// Read loads a single-value property straight from the table.
func (s *PropertyStore) Read(k PropertyKey) (string, bool, error) {
	t, err := s.open()
	if err != nil {
		return "", false, err
	}
	defer t.Close()

	rec, deleted, found, err := t.Find(k.Group.Name, k.Name, "0")
	if err != nil || !found || deleted {
		return "", false, err
	}
	return decodeValue(k, rec.Get(fldValue)), true, nil
}

// Load reads every property. Multi-value properties are reassembled from
// their positioned rows, which the primary index delivers in ascending
// position order; rows naming an unregistered property are skipped.
func (s *PropertyStore) Load() (*PropertySet, error) {
	t, err := s.open()
	if err != nil {
		return nil, err
	}
	defer t.Close()

	cur, err := t.Scan(propertyTable.Primary())
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	ps := newPropertySet()
	seen := make(map[string]bool)
	for cur.Next() {
		rec := cur.Record()
		k, ok := KeyByName(rec.Get(fldProperty))
		if !ok {
			continue
		}
		v := decodeValue(k, rec.Get(fldValue))
		if !seen[k.Name] {
			seen[k.Name] = true
			ps.Set(k, v)
		} else {
			ps.Set(k, ps.Get(k)+"\n"+v)
		}
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	return ps, nil
}

// Save persists the set. Each property is diffed against its stored rows:
// missing rows are inserted, changed rows updated (resurrecting any stale
// soft delete), and positions past the new line count soft-deleted. The
// table is packed when any deletion happened.
func (s *PropertyStore) Save(ps *PropertySet) error {
	t, err := s.open()
	if err != nil {
		return err
	}
	defer t.Close()

	deleteHappened := false
	for _, k := range RegisteredKeys() {
		e := ps.entry(k)

		if k.Group.MultiValue {
			var lines []string
			if !e.deleted {
				lines = ps.Lines(k)
			}
			if len(lines) > MaxMultiValues {
				lines = lines[:MaxMultiValues]
			}
			for i, line := range lines {
				if err := s.writeOne(t, k, i, line); err != nil {
					return err
				}
			}
			for i := len(lines); i < MaxMultiValues; i++ {
				found, err := t.SoftDelete(k.Group.Name, k.Name, strconv.Itoa(i))
				if err != nil {
					return err
				}
				deleteHappened = deleteHappened || found
			}
			continue
		}

		if e.deleted {
			found, err := t.SoftDelete(k.Group.Name, k.Name, "0")
			if err != nil {
				return err
			}
			deleteHappened = deleteHappened || found
			continue
		}
		if err := s.writeOne(t, k, 0, e.value); err != nil {
			return err
		}
	}

	if deleteHappened {
		return t.Pack()
	}
	return nil
}

// writeOne stores one positioned value: insert when the row is absent,
// update when its stored value differs or the row is soft-deleted.
func (s *PropertyStore) writeOne(t *dbf.Table, k PropertyKey, position int, value string) error {
	pos := strconv.Itoa(position)
	rec, deleted, found, err := t.Find(k.Group.Name, k.Name, pos)
	if err != nil {
		return err
	}
	if !found {
		return t.Insert(propertyRecord(k, position, encodeValue(k, value)))
	}
	if !deleted && decodeValue(k, rec.Get(fldValue)) == value {
		return nil
	}
	_, err = t.Update([]string{k.Group.Name, k.Name, pos}, func(rec dbf.Record) {
		rec.Set(fldValue, encodeValue(k, value))
	})
	return err
}

// Pack compacts the table after deletions.
func (s *PropertyStore) Pack() error {
	t, err := s.open()
	if err != nil {
		return err
	}
	defer t.Close()
	return t.Pack()
}

// Meta returns the table's diagnostic metadata.
func (s *PropertyStore) Meta() (dbf.TableMeta, error) {
	t, err := s.open()
	if err != nil {
		return dbf.TableMeta{}, err
	}
	defer t.Close()
	return t.Meta()
}
