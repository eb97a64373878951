package web

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/EdGit97/sysdocs/dbf"
	"github.com/EdGit97/sysdocs/sched"
	"github.com/EdGit97/sysdocs/sitedb"
)

type mediaRow struct {
	sitedb.Media
	Max  int
	Over bool // at or past its type's ceiling
}

type maxNote struct {
	Display string
	Max     int
}

type propRow struct {
	Key      sitedb.PropertyKey
	Value    string
	NewGroup bool
}

type pageData struct {
	Errors []string

	Media    []mediaRow
	MaxNotes []maxNote
	Exceeded bool
	Warnings []string

	NextMediaID   string
	NextMediaType sitedb.MediaType

	Maximums   []sitedb.Maximum
	Props      []propRow
	MediaTypes []sitedb.MediaType

	Tasks   []sched.Task
	TaskErr string

	LocalLog    sched.LogFile
	HasLocalLog bool

	Metas []dbf.TableMeta
}

func (s *Server) buildPage(formErrors []string) (*pageData, error) {
	data := &pageData{
		Errors:     formErrors,
		MediaTypes: sitedb.KnownTypes(),
	}

	ps, err := s.props.Load()
	if err != nil {
		return nil, err
	}

	byTag, err := s.maxs.MapAll()
	if err != nil {
		return nil, err
	}

	media, err := s.media.ListAll(false)
	if err != nil {
		return nil, err
	}
	noted := make(map[string]bool)
	for _, m := range media {
		max := byTag[m.Type.Tag]
		over := m.UseCount >= max
		data.Media = append(data.Media, mediaRow{Media: m, Max: max, Over: over})
		data.Exceeded = data.Exceeded || over
		if !noted[m.Type.Tag] {
			noted[m.Type.Tag] = true
			data.MaxNotes = append(data.MaxNotes, maxNote{Display: m.Type.DisplayName, Max: max})
		}
	}

	data.Warnings, err = s.usageWarnings(byTag)
	if err != nil {
		return nil, err
	}

	data.Maximums, err = s.maxs.ListAll()
	if err != nil {
		return nil, err
	}

	data.Props = propertyRows(ps)

	nextType := defaultMediaType(ps)
	data.NextMediaType = nextType
	data.NextMediaID = "*"
	if next, err := s.media.ListByType(nextType, true); err != nil {
		return nil, err
	} else if len(next) > 0 {
		data.NextMediaID = next[0].ID
	}

	tasks, err := sched.New(s.root, ps.Get(sitedb.SchedFolder),
		sched.WithRunner(s.runner), sched.WithLogger(s.logger)).Tasks()
	if err != nil {
		// The page still renders when the scheduler query fails; the task
		// table shows the failure instead.
		s.logger.Warn("scheduler query failed", zap.Error(err))
		data.TaskErr = err.Error()
	} else {
		data.Tasks = tasks
	}

	if log, found, err := sched.LatestLog(s.root, ps.Get(sitedb.LocalPrefix)); err != nil {
		return nil, err
	} else if found {
		data.LocalLog, data.HasLocalLog = log, true
	}

	for _, meta := range []func() (dbf.TableMeta, error){s.media.Meta, s.maxs.Meta, s.props.Meta} {
		m, err := meta()
		if err != nil {
			return nil, err
		}
		data.Metas = append(data.Metas, m)
	}

	return data, nil
}

// usageWarnings counts the active media of each type at or past its
// ceiling and phrases one warning per affected type.
func (s *Server) usageWarnings(byTag map[string]int) ([]string, error) {
	active, err := s.media.ListAll(true)
	if err != nil {
		return nil, err
	}
	over := make(map[string]int)
	for _, m := range active {
		if m.UseCount >= byTag[m.Type.Tag] {
			over[m.Type.Tag]++
		}
	}

	var warnings []string
	for _, mt := range sitedb.KnownTypes() {
		n := over[mt.Tag]
		if n == 0 {
			continue
		}
		verb := " has"
		if n > 1 {
			verb = "s have"
		}
		warnings = append(warnings,
			fmt.Sprintf("%d %s%s exceeded the maximum usage and should be replaced.", n, mt.DisplayName, verb))
	}
	return warnings, nil
}

func propertyRows(ps *sitedb.PropertySet) []propRow {
	var rows []propRow
	lastGroup := ""
	for _, k := range sitedb.RegisteredKeys() {
		rows = append(rows, propRow{
			Key:      k,
			Value:    ps.Get(k),
			NewGroup: k.Group.Name != lastGroup,
		})
		lastGroup = k.Group.Name
	}
	return rows
}

// defaultMediaType resolves the default-media-type property, which holds
// either a type tag or a display name depending on when it was written.
func defaultMediaType(ps *sitedb.PropertySet) sitedb.MediaType {
	v := ps.Get(sitedb.DefMedia)
	for _, mt := range sitedb.KnownTypes() {
		if mt.Tag == v || mt.DisplayName == v {
			return mt
		}
	}
	return sitedb.Flash
}
