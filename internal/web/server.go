// Package web serves the browser UI: server-rendered pages plus datastar SSE patches,
// backed by the TaskFlow REST API. The API token lives in an HttpOnly cookie.
package web

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"taskflow-cli/internal/apiclient"
	"taskflow-cli/internal/logging"
	"taskflow-cli/internal/model"

	"github.com/CAFxX/httpcompression"
)

//go:embed templates/*.html static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr    string
	APIURL  string
	Timeout time.Duration
	Logger  *slog.Logger
	// HTTPClient overrides the client used for API calls (tests).
	HTTPClient *http.Client
}

type Server struct {
	cfg      ServerConfig
	tmpl     *template.Template
	log      *slog.Logger
	compress func(http.Handler) http.Handler
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.APIURL == "" {
		return nil, errors.New("web: api url is empty")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = apiclient.DefaultTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}

	tmpl, err := template.New("base").Funcs(template.FuncMap{
		"trim":     strings.TrimSpace,
		"markdown": renderMarkdownHTML,
		"date":     formatDate,
		"titleMax": func() int { return model.TitleMaxLen },
	}).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	compress, err := httpcompression.DefaultAdapter()
	if err != nil {
		return nil, err
	}

	return &Server{cfg: cfg, tmpl: tmpl, log: log, compress: compress}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	page := func(h http.HandlerFunc) http.Handler { return s.compress(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /static/app.css", s.handleAppCSS)
	mux.Handle("GET /{$}", page(s.handleHome))
	mux.Handle("GET /login", page(s.handleLoginGet))
	mux.HandleFunc("POST /login", s.handleLoginPost)
	mux.HandleFunc("POST /logout", s.handleLogoutPost)
	mux.Handle("GET /tasks", page(s.handleTasks))
	mux.Handle("GET /tasks/new", page(s.handleTaskNew))
	mux.Handle("GET /tasks/{id}/edit", page(s.handleTaskEdit))
	mux.Handle("POST /tasks", page(s.handleTaskCreate))
	mux.Handle("POST /tasks/{id}", page(s.handleTaskUpdate))
	// SSE endpoints are not compressed: the stream must flush per event.
	mux.HandleFunc("GET /tasks/list", s.handleTaskListStream)
	mux.HandleFunc("POST /tasks/{id}/toggle", s.handleTaskToggle)
	mux.HandleFunc("POST /tasks/{id}/delete", s.handleTaskDelete)
	return mux
}

// client builds an API client for one request, authenticated with tok when non-empty.
func (s *Server) client(tok string) *apiclient.Client {
	return apiclient.New(apiclient.Options{
		BaseURL:    s.cfg.APIURL,
		Tokens:     apiclient.StaticToken(tok),
		HTTPClient: s.cfg.HTTPClient,
		Timeout:    s.cfg.Timeout,
		Logger:     s.log,
	})
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		s.log.Error("render template", "template", name, "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(b.Bytes())
}

func (s *Server) renderString(name string, data any) (string, error) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, name, data); err != nil {
		return "", err
	}
	return b.String(), nil
}

func (s *Server) handleAppCSS(w http.ResponseWriter, r *http.Request) {
	b, err := assetsFS.ReadFile("static/app.css")
	if err != nil || len(b) == 0 {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// handleHome is the session bootstrap: a token cookie means the task view.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if tokenFromRequest(r) != "" {
		http.Redirect(w, r, "/tasks", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

const dateLayout = "Jan 2, 2006"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(dateLayout)
}
