package sched

import (
	"encoding/xml"
	"fmt"
	"io"
	"os/exec"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// startBoundaryFormat is how the scheduler writes trigger start times,
// once the 'T' separator is normalized to a space.
const startBoundaryFormat = "2006-01-02 15:04:05"

// QueryRunner produces the scheduler's XML task listing. The real one
// shells out to schtasks; tests inject canned output.
type QueryRunner interface {
	QueryTasks() ([]byte, error)
}

// SchtasksRunner queries the Windows task scheduler.
type SchtasksRunner struct{}

func (SchtasksRunner) QueryTasks() ([]byte, error) {
	return exec.Command(`C:\Windows\system32\schtasks.exe`, "/query", "/xml").Output()
}

// Task is one scheduled backup job.
type Task struct {
	Name    string    // URI with the scheduler folder stripped
	Start   time.Time // zero when the start boundary is absent or malformed
	Command string    // executable plus arguments
	Log     LogFile   // most recent matching log
	HasLog  bool
}

// HourMinute returns the scheduled time of day, the task list's sort key.
func (t Task) HourMinute() string {
	if t.Start.IsZero() {
		return "00:00"
	}
	return t.Start.Format("15:04")
}

// Scheduler lists the backup tasks of one site.
type Scheduler struct {
	rootDir string
	folder  string
	runner  QueryRunner
	logger  *zap.Logger
}

type Option func(*Scheduler)

// WithRunner substitutes the scheduler query command.
func WithRunner(r QueryRunner) Option {
	return func(s *Scheduler) { s.runner = r }
}

// WithLogger attaches a logger; the default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// New returns a scheduler for the site at rootDir. folder is the scheduler
// folder holding the backup tasks; only tasks under it are listed.
func New(rootDir, folder string, opts ...Option) *Scheduler {
	s := &Scheduler{
		rootDir: rootDir,
		folder:  folder,
		runner:  SchtasksRunner{},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Tasks queries the scheduler and returns the backup tasks sorted by
// scheduled time of day, each with its latest log attached.
func (s *Scheduler) Tasks() ([]Task, error) {
	out, err := s.runner.QueryTasks()
	if err != nil {
		return nil, fmt.Errorf("sched: query: %w", err)
	}

	raw, err := parseTaskList(out)
	if err != nil {
		return nil, err
	}

	tasks := make([]Task, 0, len(raw))
	for _, rt := range raw {
		if !strings.HasPrefix(rt.uri, s.folder) {
			continue
		}
		task := Task{
			Name:    rt.uri[len(s.folder):],
			Command: strings.TrimSpace(rt.command + " " + rt.arguments),
		}
		if start, err := time.ParseInLocation(startBoundaryFormat,
			strings.Replace(rt.startBoundary, "T", " ", 1), time.Local); err == nil {
			task.Start = start
		}
		if log, found, err := LatestLog(s.rootDir, task.Name); err != nil {
			return nil, err
		} else if found {
			task.Log, task.HasLog = log, true
		}
		tasks = append(tasks, task)
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].HourMinute() < tasks[j].HourMinute()
	})
	s.logger.Debug("scheduler tasks loaded", zap.Int("count", len(tasks)))
	return tasks, nil
}

type rawTask struct {
	uri           string
	startBoundary string
	command       string
	arguments     string
}

// parseTaskList walks the scheduler's XML output token by token, capturing
// the first URI, StartBoundary, Command and Arguments under each Task
// element. The interesting tags sit at varying depths (trigger and action
// types differ per task), so a fixed-path unmarshal does not work.
func parseTaskList(out []byte) ([]rawTask, error) {
	dec := xml.NewDecoder(strings.NewReader(stripXMLHeader(out)))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}

	var tasks []rawTask
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("sched: parse: %w", err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Task" {
			continue
		}
		rt, err := parseTask(dec)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, rt)
	}
	return tasks, nil
}

func parseTask(dec *xml.Decoder) (rawTask, error) {
	var rt rawTask
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return rt, fmt.Errorf("sched: parse: %w", err)
		}
		switch tok := tok.(type) {
		case xml.StartElement:
			depth++
			var target *string
			switch tok.Name.Local {
			case "URI":
				target = &rt.uri
			case "StartBoundary":
				target = &rt.startBoundary
			case "Command":
				target = &rt.command
			case "Arguments":
				target = &rt.arguments
			}
			if target != nil && *target == "" {
				var content string
				if err := dec.DecodeElement(&content, &tok); err != nil {
					return rt, fmt.Errorf("sched: parse: %w", err)
				}
				*target = strings.TrimSpace(content)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return rt, nil
}

// stripXMLHeader drops the declaration the scheduler emits ahead of each
// task document; the output is a concatenation, so the headers would
// otherwise appear mid-stream.
func stripXMLHeader(out []byte) string {
	s := string(out)
	for {
		start := strings.Index(s, "<?xml")
		if start < 0 {
			return s
		}
		end := strings.Index(s[start:], "?>")
		if end < 0 {
			return s
		}
		s = s[:start] + s[start+end+2:]
	}
}
