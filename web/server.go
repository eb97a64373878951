package web

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/EdGit97/sysdocs/dbf"
	"github.com/EdGit97/sysdocs/sched"
	"github.com/EdGit97/sysdocs/sitedb"
)

//go:embed templates/*.html
var templateFS embed.FS

// Server renders and edits one backup site.
type Server struct {
	root   string
	logger *zap.Logger
	runner sched.QueryRunner

	media *sitedb.MediaStore
	maxs  *sitedb.MaximumStore
	props *sitedb.PropertyStore
	tmpl  *template.Template
}

type Option func(*Server)

// WithLogger attaches a logger; the default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithSchedRunner substitutes the task scheduler query command.
func WithSchedRunner(r sched.QueryRunner) Option {
	return func(s *Server) { s.runner = r }
}

// NewServer builds a server for the site named by cfg.
func NewServer(cfg Config, opts ...Option) (*Server, error) {
	s := &Server{
		root:   cfg.SiteRoot,
		logger: zap.NewNop(),
		runner: sched.SchtasksRunner{},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.media = sitedb.NewMediaStore(s.root, sitedb.WithLogger(s.logger))
	s.maxs = sitedb.NewMaximumStore(s.root, sitedb.WithLogger(s.logger))
	s.props = sitedb.NewPropertyStore(s.root, sitedb.WithLogger(s.logger))

	tmpl, err := template.New("").Funcs(template.FuncMap{
		"stamp":   displayTimestamp,
		"logTime": displayLogTime,
		"ts":      dbf.FormatTimestamp,
		"odd":     func(i int) bool { return i%2 == 1 },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	s.tmpl = tmpl
	return s, nil
}

// Handler returns the site's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/media", s.handleMedia)
	mux.HandleFunc("/maximums", s.handleMaximums)
	mux.HandleFunc("/properties", s.handleProperties)
	mux.Handle("/backup/logs/",
		http.StripPrefix("/backup/logs/",
			http.FileServer(http.Dir(s.root+"/"+sched.LogDir))))
	return mux
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, nil)
}

// render rebuilds the whole page and writes it, folding in any errors from
// a preceding form submission.
func (s *Server) render(w http.ResponseWriter, formErrors []string) {
	data, err := s.buildPage(formErrors)
	if err != nil {
		s.logger.Error("page build failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.tmpl.ExecuteTemplate(w, "backups.html", data); err != nil {
		s.logger.Error("template render failed", zap.Error(err))
	}
}

func displayTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04:05")
}

func displayLogTime(t time.Time) string {
	return t.Format("Mon, 01-02-2006 @ 15:04")
}
