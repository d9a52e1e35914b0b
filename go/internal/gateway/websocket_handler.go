package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// LivenessMessage is served on the root route for uptime checks
const LivenessMessage = "Pizzeria game server running"

// WebSocketHandler handles WebSocket upgrade requests for game connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	hub               *Hub
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, hub *Hub) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
		hub:               hub,
	}
}

// HandleGameConnection upgrades a request to a game connection. The
// connection has no room until it sends createRoom or joinRoom.
func (h *WebSocketHandler) HandleGameConnection(w http.ResponseWriter, r *http.Request) {
	if _, err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		// the upgrader has already written an HTTP error response
		log.Error().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade WebSocket connection")
	}
}

// HandleConnectionStats returns statistics about rooms and connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.hub.Stats(r.Context())
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(map[string]int{
		"rooms":       stats.Rooms,
		"players":     stats.Players,
		"connections": h.connectionManager.ConnectionCount(),
	}); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// HandleLiveness answers uptime checks with a static string
func (h *WebSocketHandler) HandleLiveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(LivenessMessage))
}

// RegisterRoutes registers the game routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.HandleLiveness)
	mux.HandleFunc("GET /ws", h.HandleGameConnection)
	mux.HandleFunc("GET /stats", h.HandleConnectionStats)
}
