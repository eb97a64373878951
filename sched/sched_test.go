package sched

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cannedRunner string

func (c cannedRunner) QueryTasks() ([]byte, error) {
	return []byte(c), nil
}

const taskListXML = `<?xml version="1.0" encoding="UTF-16"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <URI>\Backups\Nightly Docs</URI>
  </RegistrationInfo>
  <Triggers>
    <CalendarTrigger>
      <StartBoundary>2024-06-01T22:30:00</StartBoundary>
      <Enabled>true</Enabled>
    </CalendarTrigger>
  </Triggers>
  <Actions>
    <Exec>
      <Command>C:\Tools\backup.exe</Command>
      <Arguments>/docs /full</Arguments>
    </Exec>
  </Actions>
</Task>
<?xml version="1.0" encoding="UTF-16"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <URI>\Backups\Morning Mail</URI>
  </RegistrationInfo>
  <Triggers>
    <TimeTrigger>
      <StartBoundary>2024-06-01T07:15:00</StartBoundary>
    </TimeTrigger>
  </Triggers>
  <Actions>
    <Exec>
      <Command>C:\Tools\mailbak.exe</Command>
    </Exec>
  </Actions>
</Task>
<?xml version="1.0" encoding="UTF-16"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <URI>\Other\Cleanup</URI>
  </RegistrationInfo>
  <Actions>
    <Exec>
      <Command>C:\Tools\cleanup.exe</Command>
    </Exec>
  </Actions>
</Task>`

func TestTasksFiltersAndSorts(t *testing.T) {
	s := New(t.TempDir(), `\Backups\`, WithRunner(cannedRunner(taskListXML)))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 2, "tasks outside the scheduler folder are dropped")

	// Sorted by time of day: 07:15 before 22:30.
	assert.Equal(t, "Morning Mail", tasks[0].Name)
	assert.Equal(t, "07:15", tasks[0].HourMinute())
	assert.Equal(t, `C:\Tools\mailbak.exe`, tasks[0].Command)

	assert.Equal(t, "Nightly Docs", tasks[1].Name)
	assert.Equal(t, "22:30", tasks[1].HourMinute())
	assert.Equal(t, `C:\Tools\backup.exe /docs /full`, tasks[1].Command)
	assert.Equal(t, time.Date(2024, 6, 1, 22, 30, 0, 0, time.Local), tasks[1].Start)

	assert.False(t, tasks[0].HasLog)
}

func TestTasksMissingStartBoundary(t *testing.T) {
	const xml = `<Task><RegistrationInfo><URI>\Backups\NoTime</URI></RegistrationInfo></Task>`
	s := New(t.TempDir(), `\Backups\`, WithRunner(cannedRunner(xml)))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.True(t, tasks[0].Start.IsZero())
	assert.Equal(t, "00:00", tasks[0].HourMinute())
}

func TestTasksAttachLatestLog(t *testing.T) {
	root := t.TempDir()
	logDir := filepath.Join(root, LogDir)
	require.NoError(t, os.MkdirAll(logDir, 0o777))

	old := filepath.Join(logDir, "Nightly Docs 2024-05-01.html")
	recent := filepath.Join(logDir, "nightly docs 2024-06-01.html")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0o666))
	require.NoError(t, os.WriteFile(recent, []byte("new"), 0o666))
	past := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(old, past, past))

	const xml = `<Task><RegistrationInfo><URI>\Backups\Nightly Docs</URI></RegistrationInfo></Task>`
	s := New(root, `\Backups\`, WithRunner(cannedRunner(xml)))

	tasks, err := s.Tasks()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.True(t, tasks[0].HasLog)
	assert.Equal(t, "nightly docs 2024-06-01.html", tasks[0].Log.Name)
}

func TestLatestLog(t *testing.T) {
	root := t.TempDir()

	_, found, err := LatestLog(root, "backup")
	require.NoError(t, err)
	assert.False(t, found, "missing log directory is not an error")

	logDir := filepath.Join(root, LogDir)
	require.NoError(t, os.MkdirAll(logDir, 0o777))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "Backup A.html"), nil, 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "backup b.html"), nil, 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "backup c.txt"), nil, 0o666))
	require.NoError(t, os.WriteFile(filepath.Join(logDir, "other.html"), nil, 0o666))

	log, found, err := LatestLog(root, "BACKUP")
	require.NoError(t, err)
	require.True(t, found, "prefix match is case-insensitive")
	assert.Contains(t, []string{"Backup A.html", "backup b.html"}, log.Name)

	_, found, err = LatestLog(root, "restore")
	require.NoError(t, err)
	assert.False(t, found)
}
