package ws

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ito/internal/app"
)

// Handler upgrades HTTP requests to WebSocket connections and hands them
// to the event router. Each connection gets a fresh player id; joining a
// room happens in-protocol via join_room.
type Handler struct {
	router   *app.Router
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler. An empty or wildcard origin
// list allows any origin.
func NewHandler(router *app.Router, allowedOrigins []string, logger *slog.Logger) *Handler {
	return &Handler{
		router: router,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

// originChecker builds the upgrade origin policy from the configured
// allow-list
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}

	set := make(map[string]struct{}, len(allowed))
	for _, origin := range allowed {
		if origin == "*" {
			return func(*http.Request) bool { return true }
		}
		set[origin] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// Non-browser clients send no Origin header
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// ServeHTTP handles WebSocket upgrade requests
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	playerID := uuid.New().String()
	client := NewClient(conn, h.router, playerID, h.logger)

	h.logger.Info("websocket connected", "playerID", playerID, "remote", r.RemoteAddr)

	client.Run()
}
