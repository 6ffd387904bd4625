package http

import (
	"bufio"
	"context"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"ito/internal/app"
	"ito/internal/config"
	"ito/internal/transport/ws"
)

// Server represents the HTTP server: websocket upgrade plus the small
// JSON API around it
type Server struct {
	server   *http.Server
	registry *app.Registry
	config   *config.Config
	logger   *slog.Logger
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config, registry *app.Registry, router *app.Router, logger *slog.Logger) *Server {
	s := &Server{
		registry: registry,
		config:   cfg,
		logger:   logger,
	}

	mux := httprouter.New()
	s.setupRoutes(mux, router)

	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.middleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes(mux *httprouter.Router, router *app.Router) {
	mux.GET("/api/health", s.handleHealth)
	mux.GET("/api/stats", s.handleStats)
	mux.GET("/api/rooms/:room/qr", s.handleRoomQR)

	wsHandler := ws.NewHandler(router, s.config.Server.AllowedOrigins, s.logger)
	mux.Handler(http.MethodGet, "/ws", wsHandler)
}

// middleware wraps the handler with CORS headers and request logging
func (s *Server) middleware(next http.Handler) http.Handler {
	allowOrigin := "*"
	if len(s.config.Server.AllowedOrigins) == 1 && s.config.Server.AllowedOrigins[0] != "*" {
		allowOrigin = s.config.Server.AllowedOrigins[0]
	}

	allowed := make(map[string]struct{}, len(s.config.Server.AllowedOrigins))
	for _, origin := range s.config.Server.AllowedOrigins {
		allowed[origin] = struct{}{}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		origin := allowOrigin
		if len(allowed) > 1 {
			// Echo the request origin when it is on the allow-list
			if _, ok := allowed[r.Header.Get("Origin")]; ok {
				origin = r.Header.Get("Origin")
			}
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
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
	return s.server.Shutdown(ctx)
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Hijack implements http.Hijacker for WebSocket support
func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if hijacker, ok := rw.ResponseWriter.(http.Hijacker); ok {
		return hijacker.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Flush implements http.Flusher
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
