package sitedb

import (
	"encoding/base64"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPropertyDefaultsSeeded(t *testing.T) {
	s := NewPropertyStore(t.TempDir())

	ps, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, `\`, ps.Get(SchedFolder))
	assert.Equal(t, Flash.DisplayName, ps.Get(DefMedia))
	assert.Equal(t, "", ps.Get(NotifyEmail))

	v, found, err := s.Read(SchedFolder)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, `\`, v)
}

func TestPropertySingleValueSave(t *testing.T) {
	s := NewPropertyStore(t.TempDir())

	ps, err := s.Load()
	require.NoError(t, err)
	ps.Set(NotifyEmail, "ops@example.com")
	ps.Set(ServerPort, "587")
	require.NoError(t, s.Save(ps))

	ps2, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", ps2.Get(NotifyEmail))
	assert.Equal(t, 587, ps2.GetInt(ServerPort))
}

func TestPropertyMultiValueRoundTrip(t *testing.T) {
	s := NewPropertyStore(t.TempDir())

	ps, err := s.Load()
	require.NoError(t, err)
	ps.Set(ToolbarDirs, "/a\n/b\n/c")
	require.NoError(t, s.Save(ps))

	ps2, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b", "/c"}, ps2.Lines(ToolbarDirs))

	// Shrinking deletes the stale positions and packs them away.
	ps2.Set(ToolbarDirs, "/a")
	require.NoError(t, s.Save(ps2))

	ps3, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a"}, ps3.Lines(ToolbarDirs))

	meta, err := s.Meta()
	require.NoError(t, err)
	assert.Equal(t, uint64(0), meta.PendingDeletes, "save packs after deleting")
}

func TestPropertySecretStoredEncoded(t *testing.T) {
	root := t.TempDir()
	s := NewPropertyStore(root)

	ps, err := s.Load()
	require.NoError(t, err)
	ps.Set(MediaPwd, "hunter2")
	require.NoError(t, s.Save(ps))

	ps2, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "hunter2", ps2.Get(MediaPwd))

	// The data file holds the base64 form, never the cleartext.
	raw, err := readDataFile(root, "properties")
	require.NoError(t, err)
	assert.NotContains(t, raw, "hunter2")
	assert.Contains(t, raw, base64.StdEncoding.EncodeToString([]byte("hunter2")))
}

func TestPropertyDeleteRemovesRow(t *testing.T) {
	s := NewPropertyStore(t.TempDir())

	ps, err := s.Load()
	require.NoError(t, err)
	ps.Set(VolumeLbl, "BACKUP01")
	require.NoError(t, s.Save(ps))

	ps.Delete(VolumeLbl)
	require.NoError(t, s.Save(ps))

	ps2, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "", ps2.Get(VolumeLbl), "a deleted property falls back to its default")

	_, found, err := s.Read(VolumeLbl)
	require.NoError(t, err)
	assert.False(t, found)

	// Setting a value again resurrects the property.
	ps2.Set(VolumeLbl, "BACKUP02")
	require.NoError(t, s.Save(ps2))
	v, found, err := s.Read(VolumeLbl)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "BACKUP02", v)
}

func TestPropertyValidate(t *testing.T) {
	s := NewPropertyStore(t.TempDir())
	ps, err := s.Load()
	require.NoError(t, err)

	assert.Empty(t, ps.Validate(), "defaults are valid")

	ps.Set(ServerPort, "not-a-port")
	errs := ps.Validate()
	require.Len(t, errs, 1)
	assert.Equal(t, "SMTP server port must be a numeric value.", errs[0])
	ps.Set(ServerPort, "")

	dir := t.TempDir()
	ps.Set(ToolbarDirs, dir+"\n/no/such/dir/anywhere")
	errs = ps.Validate()
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "/no/such/dir/anywhere")

	long := strings.Repeat("x", ToolbarDirs.MaxLen+1)
	ps.Set(ToolbarDirs, long)
	errs = ps.Validate()
	assert.Contains(t, errs, fmt.Sprintf("%s length is greater than %d.", long, ToolbarDirs.MaxLen))

	var lines []string
	for i := 0; i < MaxMultiValues+1; i++ {
		lines = append(lines, dir)
	}
	ps.Set(ToolbarDirs, strings.Join(lines, "\n"))
	errs = ps.Validate()
	assert.Contains(t, errs, fmt.Sprintf("The number of values cannot be greater than %d.", MaxMultiValues))
}
