package sitedb

import (
	"fmt"
	"time"

	"github.com/EdGit97/sysdocs/dbf"
)

// media.dbf layout. The secondary index orders each type's media by last
// use, blank (never used) first, which is exactly the rotation order.
const (
	fldMediaID   = "MEDIAID"
	fldFirstUse  = "FIRSTUSE"
	fldLastUse   = "LASTUSE"
	fldUseCount  = "USECOUNT"
	fldActive    = "ACTIVE"
	fldMediaType = "MEDIATYPE"
)

// MaxUseCount is the largest value USECOUNT can represent; increments
// saturate here instead of wrapping.
const MaxUseCount = 9999

var mediaTable = dbf.DefineTable("media",
	dbf.NewSchema(
		dbf.Field{Name: fldMediaID, Type: dbf.Character, Width: 1},
		dbf.Field{Name: fldFirstUse, Type: dbf.Character, Width: 14},
		dbf.Field{Name: fldLastUse, Type: dbf.Character, Width: 14},
		dbf.Field{Name: fldUseCount, Type: dbf.Numeric, Width: 4},
		dbf.Field{Name: fldActive, Type: dbf.Logical, Width: 1},
		dbf.Field{Name: fldMediaType, Type: dbf.Character, Width: 15},
	),
	[]*dbf.Index{
		dbf.NewIndex("mediaid", fldMediaID).Unique(),
		dbf.NewIndex("typeuse", fldMediaType, fldLastUse),
	},
)

// Media is one physical backup medium in the rotation.
type Media struct {
	ID       string // single letter A-Z
	FirstUse time.Time
	LastUse  time.Time
	UseCount int
	Active   bool
	Type     MediaType
}

// Validate checks the medium's fields, returning one message per problem.
func (m Media) Validate() []string {
	var errs []string
	if len(m.ID) != 1 || m.ID[0] < 'A' || m.ID[0] > 'Z' {
		errs = append(errs, "Media ID must be a letter.")
	}
	if !IsKnownType(m.Type.Tag) {
		errs = append(errs, "Unknown media type.")
	}
	return errs
}

// ValidateMediaList validates each medium and flags ids that occur more
// than once. All problems are collected; nothing short-circuits.
func ValidateMediaList(media []Media) []string {
	var errs []string
	seen := make(map[string]int)
	for _, m := range media {
		errs = append(errs, m.Validate()...)
		seen[m.ID]++
	}
	for _, m := range media {
		if seen[m.ID] > 1 {
			errs = append(errs, fmt.Sprintf("Media ID %s occurs multiple times.", m.ID))
			seen[m.ID] = 0 // report each duplicate id once
		}
	}
	return errs
}

func mediaRecord(m Media) dbf.Record {
	rec := dbf.Record{fldMediaID: m.ID, fldMediaType: m.Type.Tag}
	rec.SetTime(fldFirstUse, m.FirstUse)
	rec.SetTime(fldLastUse, m.LastUse)
	rec.SetInt(fldUseCount, m.UseCount)
	rec.SetBool(fldActive, m.Active)
	return rec
}

func mediaFromRecord(rec dbf.Record) Media {
	return Media{
		ID:       rec.Get(fldMediaID),
		FirstUse: rec.Time(fldFirstUse),
		LastUse:  rec.Time(fldLastUse),
		UseCount: rec.Int(fldUseCount),
		Active:   rec.Bool(fldActive),
		Type:     MediaTypeFor(rec.Get(fldMediaType)),
	}
}

// MediaStore manages media.dbf under a site root.
type MediaStore struct {
	root string
	opts storeOpts
}

// NewMediaStore returns a store for the media table under root.
func NewMediaStore(root string, opts ...Option) *MediaStore {
	return &MediaStore{root: root, opts: applyOpts(opts)}
}

func (s *MediaStore) open() (*dbf.Table, error) {
	return s.opts.open(s.root, mediaTable)
}

// Insert adds a new medium. A duplicate id fails with dbf.ErrDuplicateKey.
func (s *MediaStore) Insert(m Media) error {
	t, err := s.open()
	if err != nil {
		return err
	}
	defer t.Close()
	return t.Insert(mediaRecord(m))
}

// Update rewrites the medium with m's id. Not-found is reported, not an
// error.
func (s *MediaStore) Update(m Media) (bool, error) {
	t, err := s.open()
	if err != nil {
		return false, err
	}
	defer t.Close()
	return t.Update([]string{m.ID}, func(rec dbf.Record) {
		for k, v := range mediaRecord(m) {
			rec.Set(k, v)
		}
	})
}

// Delete soft-deletes the medium with the given id; Pack reclaims the row.
func (s *MediaStore) Delete(id string) (bool, error) {
	t, err := s.open()
	if err != nil {
		return false, err
	}
	defer t.Close()
	return t.SoftDelete(id)
}

// Pack compacts the table after deletions.
func (s *MediaStore) Pack() error {
	t, err := s.open()
	if err != nil {
		return err
	}
	defer t.Close()
	return t.Pack()
}

// Read loads one medium by id.
func (s *MediaStore) Read(id string) (Media, bool, error) {
	t, err := s.open()
	if err != nil {
		return Media{}, false, err
	}
	defer t.Close()

	rec, deleted, found, err := t.Find(id)
	if err != nil || !found || deleted {
		return Media{}, false, err
	}
	return mediaFromRecord(rec), true, nil
}

// ListAll returns every medium in id order, optionally only active ones.
func (s *MediaStore) ListAll(activeOnly bool) ([]Media, error) {
	return s.list(mediaTable.Primary(), activeOnly)
}

// ListByType returns the media of one type in rotation order: never used
// first, then least recently used.
func (s *MediaStore) ListByType(mt MediaType, activeOnly bool) ([]Media, error) {
	return s.list(mediaTable.Indexes()[1], activeOnly, mt.Tag)
}

func (s *MediaStore) list(ix *dbf.Index, activeOnly bool, prefix ...string) ([]Media, error) {
	t, err := s.open()
	if err != nil {
		return nil, err
	}
	defer t.Close()

	cur, err := t.Scan(ix, prefix...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var media []Media
	for cur.Next() {
		m := mediaFromRecord(cur.Record())
		if activeOnly && !m.Active {
			continue
		}
		media = append(media, m)
	}
	return media, cur.Err()
}

// Increment selects the next medium of the given type and records a use:
// the first active medium in rotation order gets FirstUse set if blank,
// LastUse set to now, and UseCount incremented, saturating at MaxUseCount.
// found is false when the type has no active media.
func (s *MediaStore) Increment(mt MediaType) (Media, bool, error) {
	candidates, err := s.ListByType(mt, true)
	if err != nil || len(candidates) == 0 {
		return Media{}, false, err
	}

	m := candidates[0]
	now := time.Now()
	if m.FirstUse.IsZero() {
		m.FirstUse = now
	}
	m.LastUse = now
	if m.UseCount < MaxUseCount {
		m.UseCount++
	}

	found, err := s.Update(m)
	if err != nil {
		return Media{}, false, err
	}
	if !found {
		return Media{}, false, nil
	}
	return m, true, nil
}

// Meta returns the table's diagnostic metadata.
func (s *MediaStore) Meta() (dbf.TableMeta, error) {
	t, err := s.open()
	if err != nil {
		return dbf.TableMeta{}, err
	}
	defer t.Close()
	return t.Meta()
}
