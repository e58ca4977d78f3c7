package dashboard

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chenhm/gitlab-ci-monitor/internal/monitor"
	"github.com/chenhm/gitlab-ci-monitor/internal/repository"
	"github.com/chenhm/gitlab-ci-monitor/pkg/config"
	"github.com/chenhm/gitlab-ci-monitor/pkg/crypto"
	"github.com/chenhm/gitlab-ci-monitor/pkg/jwt"
)

//go:embed templates/*.html
var templateFS embed.FS

const sessionCookie = "cimon_session"

// Server hosts the wallboard UI: the board page, the frame/measurement
// websocket, the history API and the metrics endpoint.
type Server struct {
	cfg       config.MonitorConfig
	loop      *monitor.Loop
	hub       *Hub
	history   repository.PipelineRunRepository
	templates *template.Template
	upgrader  websocket.Upgrader
	mux       *http.ServeMux
	log       *slog.Logger

	metricsOnce     sync.Once
	metricsReady    bool
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// New constructs a configured server. history may be nil when the history
// database is disabled.
func New(cfg config.MonitorConfig, loop *monitor.Loop, hub *Hub, history repository.PipelineRunRepository, log *slog.Logger) (*Server, error) {
	if cfg.PasswordHash != "" && strings.TrimSpace(cfg.SessionSecret) == "" {
		return nil, errors.New("SESSION_SECRET must be configured when the dashboard is password protected")
	}
	tmplFS, err := fs.Sub(templateFS, "templates")
	if err != nil {
		return nil, err
	}
	templates, err := template.New("board").ParseFS(tmplFS, "*.html")
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		loop:      loop,
		hub:       hub,
		history:   history,
		templates: templates,
		upgrader:  websocket.Upgrader{ReadBufferSize: 1024, WriteBufferSize: 4096},
		mux:       http.NewServeMux(),
		log:       log,
	}
	s.initMetrics()
	s.routes()
	return s, nil
}

// ServeHTTP conforms to http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	s.mux.HandleFunc("/healthz", s.instrument("/healthz", s.handleHealth))
	s.mux.HandleFunc("/login", s.instrument("/login", s.handleLogin))
	s.mux.HandleFunc("/ws", s.requireAuth(s.handleWS))
	s.mux.HandleFunc("/api/projects/", s.instrument("/api/projects/:id/history", s.requireAuth(s.handleHistory)))
	s.mux.HandleFunc("/", s.instrument("/", s.requireAuth(s.handleBoard)))
}

func (s *Server) protected() bool {
	return s.cfg.PasswordHash != ""
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.protected() {
			next(w, r)
			return
		}
		cookie, err := r.Cookie(sessionCookie)
		if err != nil {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		if _, err := jwt.Parse(cookie.Value, s.cfg.SessionSecret); err != nil {
			s.log.Warn("session validation failed", "error", err)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.protected() {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.render(w, "login.html", map[string]any{"Title": "Sign in"})
	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form payload")
			return
		}
		password := r.PostFormValue("password")
		if err := crypto.ComparePassword([]byte(s.cfg.PasswordHash), password); err != nil {
			s.log.Warn("dashboard login failed")
			s.render(w, "login.html", map[string]any{"Title": "Sign in", "Flash": "wrong password"})
			return
		}
		token, err := jwt.GenerateToken("dashboard", s.cfg.SessionSecret, s.cfg.SessionTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "session issue failed")
			return
		}
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    token,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(s.cfg.SessionTTL),
		})
		http.Redirect(w, r, "/", http.StatusSeeOther)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	s.render(w, "board.html", map[string]any{
		"Title":    "CI Monitor",
		"Selector": s.cfg.CardSelector,
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	client := NewClient(conn, s.log)

	// First paint, then hand the connection to the hub. Once registered, the
	// hub goroutine is the only writer to this connection.
	if err := client.Send(mustMarshalFrame(s.loop.CurrentFrame())); err != nil {
		return
	}
	s.hub.Register(client)
	go client.ReadMeasurements(s.loop, func() {
		s.hub.Unregister(client)
		client.Close()
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.history == nil {
		writeError(w, http.StatusNotFound, "history store disabled")
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/api/projects/")
	projectID, tail, ok := strings.Cut(rest, "/")
	if !ok || tail != "history" || projectID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	runs, err := s.history.ListRecentRuns(r.Context(), projectID, s.cfg.HistoryLimit)
	if errors.Is(err, repository.ErrNotFound) {
		writeJSON(w, http.StatusOK, []any{})
		return
	}
	if err != nil {
		s.log.Error("history query failed", "project", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "history query failed")
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

func mustMarshalFrame(frame monitor.Frame) []byte {
	payload, err := json.Marshal(frame)
	if err != nil {
		return []byte("{}")
	}
	return payload
}

func (s *Server) render(w http.ResponseWriter, name string, data map[string]any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("template render failed", "template", name, "error", err)
	}
}
