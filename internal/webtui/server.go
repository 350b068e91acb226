// Package webtui serves the terminal UI in a browser: xterm.js on the page, a PTY
// running the taskflow binary on the other end of a websocket.
package webtui

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"taskflow-cli/internal/logging"
)

//go:embed templates/*.html static/*.css static/*.js
var assetsFS embed.FS

type ServerConfig struct {
	Addr   string
	APIURL string
	// Command is the argv started per websocket session. Empty means the current
	// executable with --api-url, which opens the interactive TUI.
	Command []string
	Logger  *slog.Logger
}

type Server struct {
	cfg  ServerConfig
	tmpl *template.Template
	log  *slog.Logger
}

func NewServer(cfg ServerConfig) (*Server, error) {
	cfg.Addr = strings.TrimSpace(cfg.Addr)
	cfg.APIURL = strings.TrimSpace(cfg.APIURL)
	if cfg.Addr == "" {
		return nil, errors.New("webtui: missing addr")
	}
	log := cfg.Logger
	if log == nil {
		log = logging.Discard()
	}
	tmpl, err := template.ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, tmpl: tmpl, log: log}, nil
}

func (s *Server) Addr() string { return s.cfg.Addr }

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/terminal", http.StatusFound)
	})
	mux.HandleFunc("GET /terminal", s.handleTerminal)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.HandleFunc("GET /static/app.css", handleStatic("static/app.css", "text/css; charset=utf-8"))
	mux.HandleFunc("GET /static/app.js", handleStatic("static/app.js", "text/javascript; charset=utf-8"))
	return mux
}

// command resolves the argv for a new session.
func (s *Server) command() ([]string, error) {
	if len(s.cfg.Command) > 0 {
		return s.cfg.Command, nil
	}
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	argv := []string{exe}
	if s.cfg.APIURL != "" {
		argv = append(argv, "--api-url", s.cfg.APIURL)
	}
	return argv, nil
}

func handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

type terminalVM struct {
	APIURL string
}

func (s *Server) handleTerminal(w http.ResponseWriter, r *http.Request) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, "terminal.html", terminalVM{APIURL: s.cfg.APIURL}); err != nil {
		s.log.Error("render terminal", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(b.Bytes())
}
