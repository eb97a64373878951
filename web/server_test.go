package web

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/EdGit97/sysdocs/sitedb"
)

type stubRunner string

func (s stubRunner) QueryTasks() ([]byte, error) {
	return []byte(s), nil
}

const stubTaskXML = `<Task>
<RegistrationInfo><URI>\Backups\Docs</URI></RegistrationInfo>
<Triggers><CalendarTrigger><StartBoundary>2024-06-01T21:00:00</StartBoundary></CalendarTrigger></Triggers>
<Actions><Exec><Command>backup.exe</Command></Exec></Actions>
</Task>`

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := NewServer(Config{Listen: ":0", SiteRoot: t.TempDir()},
		WithSchedRunner(stubRunner(stubTaskXML)))
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func postForm(t *testing.T, h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIndexRendersSections(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, s.media.Insert(sitedb.Media{ID: "A", Active: true, Type: sitedb.Flash}))

	w := get(t, s.Handler(), "/")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()

	assert.Contains(t, body, "Backup Media")
	assert.Contains(t, body, "Flash Drive")
	assert.Contains(t, body, "Media Maximums")
	assert.Contains(t, body, "SMTP server port")
	assert.Contains(t, body, "Table Structures")
	// The one scheduled task under the default folder.
	assert.Contains(t, body, "Docs")
	assert.Contains(t, body, "21:00")
	// Media A is next in rotation for the default type.
	assert.Contains(t, body, "<b>A</b>")
}

func TestIndexUnknownPath(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, get(t, s.Handler(), "/nope").Code)
}

func TestMediaInsertAndDelete(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := postForm(t, h, "/media", url.Values{
		"MediaId":   {"b"},
		"MediaType": {"tape"},
		"FirstUse":  {""},
		"LastUse":   {""},
		"UseCount":  {"0"},
		"Updated":   {"Insert"},
		"Active":    {"B"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	m, found, err := s.media.Read("B")
	require.NoError(t, err)
	require.True(t, found, "lower-case id is upper-cased on input")
	assert.Equal(t, sitedb.Tape, m.Type)
	assert.True(t, m.Active)

	w = postForm(t, h, "/media", url.Values{
		"MediaId":   {"B"},
		"MediaType": {"tape"},
		"FirstUse":  {""},
		"LastUse":   {""},
		"UseCount":  {"0"},
		"Updated":   {"Modified"},
		"Delete":    {"B"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	_, found, err = s.media.Read("B")
	require.NoError(t, err)
	assert.False(t, found)

	meta, err := s.media.Meta()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), meta.PendingDeletes, "delete packs the table")
}

func TestMediaValidationBlocksSave(t *testing.T) {
	s := newTestServer(t)

	w := postForm(t, s.Handler(), "/media", url.Values{
		"MediaId":   {"7"},
		"MediaType": {"tape"},
		"FirstUse":  {""},
		"LastUse":   {""},
		"UseCount":  {"0"},
		"Updated":   {"Insert"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Media ID must be a letter.")

	all, err := s.media.ListAll(false)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestMaximumsAllOrNothing(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := postForm(t, h, "/maximums", url.Values{
		"MediaType": {"flash", "tape"},
		"MaxUse":    {"30", "abc"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Tape maximum usage")

	byTag, err := s.maxs.MapAll()
	require.NoError(t, err)
	assert.Equal(t, 0, byTag["flash"], "invalid row blocks the whole save")

	w = postForm(t, h, "/maximums", url.Values{
		"MediaType": {"flash", "tape"},
		"MaxUse":    {"30", "40"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	byTag, err = s.maxs.MapAll()
	require.NoError(t, err)
	assert.Equal(t, 30, byTag["flash"])
	assert.Equal(t, 40, byTag["tape"])
}

func TestPropertiesSaveAndValidate(t *testing.T) {
	s := newTestServer(t)
	h := s.Handler()

	w := postForm(t, h, "/properties", url.Values{
		"Property": {"mediaUpdate.notifyEmail", "smtp.serverPort"},
		"Value":    {"ops@example.com", "587"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	ps, err := s.props.Load()
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", ps.Get(sitedb.NotifyEmail))
	assert.Equal(t, 587, ps.GetInt(sitedb.ServerPort))

	w = postForm(t, h, "/properties", url.Values{
		"Property": {"smtp.serverPort"},
		"Value":    {"not-a-port"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "SMTP server port must be a numeric value.")

	ps, err = s.props.Load()
	require.NoError(t, err)
	assert.Equal(t, 587, ps.GetInt(sitedb.ServerPort), "invalid value is not saved")
}

func TestLogFileServing(t *testing.T) {
	s := newTestServer(t)
	logDir := filepath.Join(s.root, "backup", "logs")
	require.NoError(t, os.MkdirAll(logDir, 0o777))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "run.html"), []byte("<html>ok</html>"), 0o666))

	w := get(t, s.Handler(), "/backup/logs/run.html")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sysdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\nsiteRoot: "+dir+"\n"), 0o666))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, dir, cfg.SiteRoot)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("listen: \":9090\"\n"), 0o666))
	_, err = LoadConfig(bad)
	assert.Error(t, err, "siteRoot is required")
}
