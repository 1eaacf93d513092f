package http

import (
	"bufio"
	"context"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"wordpoll/internal/app"
	"wordpoll/internal/auth"
	"wordpoll/internal/config"
	"wordpoll/internal/transport/ws"
)

// Server represents the HTTP server
type Server struct {
	server   *http.Server
	handler  http.Handler
	poll     *app.Poll
	sessions *app.Sessions
	tokens   *auth.TokenIssuer
	config   *config.Config
	logger   *slog.Logger
	webFS    fs.FS
}

// NewServer creates a new HTTP server. webFS holds index.html and static/
// at its root and may be nil when no UI is served.
func NewServer(cfg *config.Config, poll *app.Poll, sessions *app.Sessions, tokens *auth.TokenIssuer, logger *slog.Logger, webFS fs.FS) *Server {
	s := &Server{
		poll:     poll,
		sessions: sessions,
		tokens:   tokens,
		config:   cfg,
		logger:   logger,
		webFS:    webFS,
	}

	// Set up routes
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	s.handler = s.middleware(mux)

	s.server = &http.Server{
		Addr:         cfg.GetAddr(),
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root handler with middleware applied
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *http.ServeMux) {
	// Participant routes
	mux.HandleFunc("POST /api/sessions", s.handleCreateSession)
	mux.HandleFunc("GET /api/view", s.withSession(s.handleGetView))
	mux.HandleFunc("POST /api/questions/{index}/answers", s.withSession(s.handleSubmitAnswer))
	mux.HandleFunc("GET /api/questions/{index}/cloud", s.withSession(s.handleRenderCloud))

	// Admin routes
	mux.HandleFunc("POST /api/admin/login", s.withSession(s.handleAdminLogin))
	mux.HandleFunc("POST /api/admin/logout", s.withSession(s.handleAdminLogout))
	mux.HandleFunc("POST /api/admin/advance", s.withSession(s.handleAdminAdvance))
	mux.HandleFunc("POST /api/admin/current", s.withSession(s.handleAdminSetCurrent))
	mux.HandleFunc("POST /api/admin/complete", s.withSession(s.handleAdminComplete))
	mux.HandleFunc("POST /api/admin/reset", s.withSession(s.handleAdminReset))
	mux.HandleFunc("POST /api/admin/view-all", s.withSession(s.handleAdminViewAll))

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	// WebSocket
	wsHandler := ws.NewHandler(s.poll, s.sessions, s.tokens, s.logger)
	mux.Handle("GET /ws", wsHandler)

	// Static files and SPA
	if s.webFS != nil {
		mux.HandleFunc("GET /static/", s.handleStatic)
		mux.HandleFunc("GET /", s.handleSPA)
	}
}

// middleware applies CORS and request logging, outermost first
func (s *Server) middleware(next http.Handler) http.Handler {
	return cors(s.logRequests(next))
}

// cors allows the UI to be served from another origin
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Add("Vary", "Origin")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// logRequests logs every API call; static assets are only logged in development
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		if isStaticRequest(r.URL.Path) && !s.config.IsDevelopment() {
			return
		}
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("server starting", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server shutting down")
	return s.server.Shutdown(ctx)
}

// statusRecorder remembers the status code written by a handler. It passes
// Hijack through so the websocket upgrade still works behind the logger.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}

func (sr *statusRecorder) Flush() {
	if flusher, ok := sr.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// isStaticRequest checks if the request is for a static file
func isStaticRequest(path string) bool {
	return strings.HasPrefix(path, "/static/") && len(path) > len("/static/")
}
