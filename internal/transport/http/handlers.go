package http

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"

	"ito/internal/domain"
)

const qrSize = 256

// Response is the standard JSON API response envelope
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendSuccess(w, map[string]string{"status": "ok"})
}

// handleStats returns server statistics
func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	s.sendSuccess(w, map[string]any{
		"activeRooms":  s.registry.RoomCount(),
		"totalPlayers": s.registry.PlayerCount(),
		"rooms":        s.registry.RoomInfos(),
	})
}

// handleRoomQR serves a PNG QR code linking a client into an existing
// room, for sharing a running session across the table
func (s *Server) handleRoomQR(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	roomName := p.ByName("room")
	if err := domain.ValidateRoomName(roomName); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid room name")
		return
	}

	if _, err := s.registry.Get(roomName); err != nil {
		s.sendError(w, http.StatusNotFound, "room not found")
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	joinURL := scheme + "://" + r.Host + "/?room=" + roomName

	png, err := qrcode.Encode(joinURL, qrcode.Medium, qrSize)
	if err != nil {
		s.logger.Error("failed to encode qr code", "room", roomName, "error", err)
		s.sendError(w, http.StatusInternalServerError, "failed to generate qr code")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// sendSuccess sends a successful JSON response
func (s *Server) sendSuccess(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(&Response{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response
func (s *Server) sendError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(&Response{
		Success: false,
		Error:   message,
	})
}
