package sitedb

import (
	"fmt"

	"github.com/EdGit97/sysdocs/dbf"
)

const fldMaxUse = "MAXUSE"

// MaxUsageCeiling bounds a media maximum; a stored value of 0 means "not
// set yet" and only appears in seed rows.
const MaxUsageCeiling = 999

var mediaMaxTable = dbf.DefineTable("mediamax",
	dbf.NewSchema(
		dbf.Field{Name: fldMediaType, Type: dbf.Character, Width: 15},
		dbf.Field{Name: fldMaxUse, Type: dbf.Numeric, Width: 3},
	),
	[]*dbf.Index{
		dbf.NewIndex("mediatype", fldMediaType).Unique(),
	},
	dbf.WithSeed(func() []dbf.Record {
		var recs []dbf.Record
		for _, mt := range KnownTypes() {
			recs = append(recs, maximumRecord(Maximum{Type: mt}))
		}
		return recs
	}),
)

// Maximum is the usage ceiling for one media type.
type Maximum struct {
	Type   MediaType
	MaxUse int
}

// Validate checks the ceiling, returning one message per problem.
func (mx Maximum) Validate() []string {
	var errs []string
	if mx.MaxUse < 1 || mx.MaxUse > MaxUsageCeiling {
		errs = append(errs, fmt.Sprintf("%s maximum usage must be a value between 1 and %d inclusive.",
			mx.Type.DisplayName, MaxUsageCeiling))
	}
	return errs
}

func maximumRecord(mx Maximum) dbf.Record {
	rec := dbf.Record{fldMediaType: mx.Type.Tag}
	rec.SetInt(fldMaxUse, mx.MaxUse)
	return rec
}

// MaximumStore manages mediamax.dbf under a site root. Creation seeds a
// zero ceiling for every known type; types registered later are filled in
// by ListAll and MapAll.
type MaximumStore struct {
	root string
	opts storeOpts
}

// NewMaximumStore returns a store for the mediamax table under root.
func NewMaximumStore(root string, opts ...Option) *MaximumStore {
	return &MaximumStore{root: root, opts: applyOpts(opts)}
}

func (s *MaximumStore) open() (*dbf.Table, error) {
	return s.opts.open(s.root, mediaMaxTable)
}

// ListAll returns one Maximum per known media type, in registry order,
// inserting a zero row for any type missing from the table.
func (s *MaximumStore) ListAll() ([]Maximum, error) {
	t, err := s.open()
	if err != nil {
		return nil, err
	}
	defer t.Close()

	var maxims []Maximum
	for _, mt := range KnownTypes() {
		rec, deleted, found, err := t.Find(mt.Tag)
		if err != nil {
			return nil, err
		}
		if !found || deleted {
			if err := t.Insert(dbf.Record{fldMediaType: mt.Tag, fldMaxUse: "0"}); err != nil {
				return nil, err
			}
			maxims = append(maxims, Maximum{Type: mt})
			continue
		}
		maxims = append(maxims, Maximum{Type: mt, MaxUse: rec.Int(fldMaxUse)})
	}
	return maxims, nil
}

// MapAll returns the ceilings keyed by media type tag.
func (s *MaximumStore) MapAll() (map[string]int, error) {
	maxims, err := s.ListAll()
	if err != nil {
		return nil, err
	}
	byTag := make(map[string]int, len(maxims))
	for _, mx := range maxims {
		byTag[mx.Type.Tag] = mx.MaxUse
	}
	return byTag, nil
}

// Update rewrites the ceiling for one type.
func (s *MaximumStore) Update(mx Maximum) (bool, error) {
	t, err := s.open()
	if err != nil {
		return false, err
	}
	defer t.Close()
	return t.Update([]string{mx.Type.Tag}, func(rec dbf.Record) {
		rec.SetInt(fldMaxUse, mx.MaxUse)
	})
}

// Save validates and persists a set of ceilings. The save is all or
// nothing: if any entry fails validation, the returned messages describe
// every problem and nothing is written.
func (s *MaximumStore) Save(maxims []Maximum) ([]string, error) {
	var errs []string
	for _, mx := range maxims {
		errs = append(errs, mx.Validate()...)
	}
	if len(errs) > 0 {
		return errs, nil
	}

	t, err := s.open()
	if err != nil {
		return nil, err
	}
	defer t.Close()

	for _, mx := range maxims {
		found, err := t.Update([]string{mx.Type.Tag}, func(rec dbf.Record) {
			rec.SetInt(fldMaxUse, mx.MaxUse)
		})
		if err != nil {
			return nil, err
		}
		if !found {
			if err := t.Insert(maximumRecord(mx)); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// Meta returns the table's diagnostic metadata.
func (s *MaximumStore) Meta() (dbf.TableMeta, error) {
	t, err := s.open()
	if err != nil {
		return dbf.TableMeta{}, err
	}
	defer t.Close()
	return t.Meta()
}
