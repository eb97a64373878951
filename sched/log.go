// Package sched integrates with the OS task scheduler: it queries the
// scheduled backup tasks, keeps the ones under the configured scheduler
// folder and pairs each with its most recent log file.
package sched

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// LogDir is the subdirectory of a site root holding backup logs.
	LogDir = "backup/logs"

	logExt = ".html"
)

// LogFile is one backup log on disk.
type LogFile struct {
	Name    string
	ModTime time.Time
}

// LatestLog finds the most recent log whose name starts with prefix
// (case-insensitively) and ends in .html. found is false when the log
// directory is absent or holds no match.
func LatestLog(rootDir, prefix string) (LogFile, bool, error) {
	entries, err := os.ReadDir(filepath.Join(rootDir, LogDir))
	if os.IsNotExist(err) {
		return LogFile{}, false, nil
	}
	if err != nil {
		return LogFile{}, false, fmt.Errorf("sched: %w", err)
	}

	var latest LogFile
	found := false
	lp := strings.ToLower(prefix)
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(strings.ToLower(name), lp) || !strings.HasSuffix(name, logExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			return LogFile{}, false, fmt.Errorf("sched: %w", err)
		}
		if !found || fi.ModTime().After(latest.ModTime) {
			latest = LogFile{Name: name, ModTime: fi.ModTime()}
			found = true
		}
	}
	return latest, found, nil
}
