package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/EdGit97/sysdocs/dbf"
	"github.com/EdGit97/sysdocs/sitedb"
)

// Row-change markers posted by the media form.
const (
	changeNone     = "None"
	changeInsert   = "Insert"
	changeModified = "Modified"
)

// handleMedia applies the media chart form: one row per medium, with
// change markers for inserted and modified rows and checkbox lists for the
// active and delete flags. Deletions pack the table afterwards.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.render(w, []string{err.Error()})
		return
	}

	rows, parseErrs := parseMediaForm(r)
	errs := append(parseErrs, sitedb.ValidateMediaList(mediaOf(rows))...)
	if len(errs) > 0 {
		s.render(w, errs)
		return
	}

	packNeeded := false
	for _, row := range rows {
		var err error
		switch {
		case row.delete:
			_, err = s.media.Delete(row.m.ID)
			packNeeded = true
		case row.change == changeInsert:
			err = s.media.Insert(row.m)
			if errors.Is(err, dbf.ErrDuplicateKey) {
				errs = append(errs, fmt.Sprintf("Media ID %s occurs multiple times.", row.m.ID))
				err = nil
			}
		case row.change == changeModified:
			_, err = s.media.Update(row.m)
		}
		if err != nil {
			s.fail(w, "media save failed", err)
			return
		}
	}
	if packNeeded {
		if err := s.media.Pack(); err != nil {
			s.fail(w, "media pack failed", err)
			return
		}
	}
	s.render(w, errs)
}

type mediaFormRow struct {
	m      sitedb.Media
	change string
	delete bool
}

func mediaOf(rows []mediaFormRow) []sitedb.Media {
	media := make([]sitedb.Media, len(rows))
	for i, row := range rows {
		media[i] = row.m
	}
	return media
}

func parseMediaForm(r *http.Request) ([]mediaFormRow, []string) {
	ids := r.PostForm["MediaId"]
	types := r.PostForm["MediaType"]
	firstUses := r.PostForm["FirstUse"]
	lastUses := r.PostForm["LastUse"]
	useCounts := r.PostForm["UseCount"]
	changes := r.PostForm["Updated"]
	actives := r.PostForm["Active"]
	deletes := r.PostForm["Delete"]

	var rows []mediaFormRow
	var errs []string
	for i, id := range ids {
		row := mediaFormRow{change: changeNone}
		row.m.ID = strings.ToUpper(strings.TrimSpace(id))

		if i < len(types) {
			row.m.Type = sitedb.MediaTypeFor(strings.TrimSpace(types[i]))
		}
		if i < len(firstUses) && firstUses[i] != "" {
			t, ok := dbf.ParseTimestamp(firstUses[i])
			if !ok {
				errs = append(errs, fmt.Sprintf("Invalid date, %s, on media %s.", firstUses[i], row.m.ID))
			}
			row.m.FirstUse = t
		}
		if i < len(lastUses) && lastUses[i] != "" {
			t, ok := dbf.ParseTimestamp(lastUses[i])
			if !ok {
				errs = append(errs, fmt.Sprintf("Invalid date, %s, on media %s.", lastUses[i], row.m.ID))
			}
			row.m.LastUse = t
		}
		if i < len(useCounts) && useCounts[i] != "" {
			n, err := strconv.Atoi(strings.TrimSpace(useCounts[i]))
			if err != nil {
				errs = append(errs, fmt.Sprintf("Invalid usage count, %s, on media %s.", useCounts[i], row.m.ID))
			}
			row.m.UseCount = n
		}
		if i < len(changes) {
			row.change = changes[i]
		}
		row.m.Active = containsValue(actives, row.m.ID)
		row.delete = containsValue(deletes, row.m.ID)
		if row.change == changeInsert && row.m.ID == "" {
			// The blank entry row posts with every save; untouched it is
			// not a record.
			continue
		}
		rows = append(rows, row)
	}
	return rows, errs
}

// containsValue reports whether a checkbox list carries the given value;
// only checked boxes are posted.
func containsValue(list []string, value string) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// handleMaximums applies the usage ceiling form. The save is all or
// nothing: any invalid ceiling blocks every update.
func (s *Server) handleMaximums(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.render(w, []string{err.Error()})
		return
	}

	tags := r.PostForm["MediaType"]
	maxUses := r.PostForm["MaxUse"]

	var maxims []sitedb.Maximum
	for i, tag := range tags {
		mx := sitedb.Maximum{Type: sitedb.MediaTypeFor(tag), MaxUse: -1}
		if i < len(maxUses) {
			if n, err := strconv.Atoi(strings.TrimSpace(maxUses[i])); err == nil {
				mx.MaxUse = n
			}
		}
		maxims = append(maxims, mx)
	}

	errs, err := s.maxs.Save(maxims)
	if err != nil {
		s.fail(w, "maximum save failed", err)
		return
	}
	s.render(w, errs)
}

// handleProperties applies the property edit form: qualified key names
// paired with values. Changed values are validated together and saved only
// when every one passes.
func (s *Server) handleProperties(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.render(w, []string{err.Error()})
		return
	}

	ps, err := s.props.Load()
	if err != nil {
		s.fail(w, "property load failed", err)
		return
	}

	names := r.PostForm["Property"]
	values := r.PostForm["Value"]
	changed := false
	for i, name := range names {
		if i >= len(values) {
			break
		}
		if dot := strings.LastIndex(name, "."); dot >= 0 {
			name = name[dot+1:]
		}
		k, ok := sitedb.KeyByName(name)
		if !ok {
			continue
		}
		if ps.Get(k) != values[i] {
			ps.Set(k, values[i])
			changed = true
		}
	}

	if !changed {
		s.render(w, nil)
		return
	}
	if errs := ps.Validate(); len(errs) > 0 {
		s.render(w, errs)
		return
	}
	if err := s.props.Save(ps); err != nil {
		s.fail(w, "property save failed", err)
		return
	}
	s.render(w, nil)
}

func (s *Server) fail(w http.ResponseWriter, msg string, err error) {
	s.logger.Error(msg, zap.Error(err))
	http.Error(w, err.Error(), http.StatusInternalServerError)
}
