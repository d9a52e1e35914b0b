package gateway

import (
	"context"
	"net/http"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pizzeria/go/internal/kitchen"
	"github.com/mcdev12/pizzeria/go/internal/results"
	"github.com/rs/zerolog/log"
)

// Service is the game gateway: WebSocket connections, the hub and its tick
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	hub               *Hub
	publisher         Publisher
	recorder          results.Recorder
}

// Config holds configuration for the gateway service
type Config struct {
	ConnectionConfig ConnectionConfig
	Rules            kitchen.Rules
}

// DefaultConfig returns default configuration for the gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		Rules:            kitchen.DefaultRules(),
	}
}

// NewService wires the connection manager to a new hub
func NewService(config Config, clock clockwork.Clock, publisher Publisher, recorder results.Recorder) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	if recorder == nil {
		recorder = results.NoopRecorder{}
	}

	connectionManager := NewConnectionManager(config.ConnectionConfig)

	hub := NewHub(HubConfig{
		Rules:     config.Rules,
		Clock:     clock,
		Sender:    connectionManager,
		Publisher: publisher,
		Recorder:  recorder,
	})
	connectionManager.Attach(hub)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager, hub),
		hub:               hub,
		publisher:         publisher,
		recorder:          recorder,
	}
}

// Start runs the hub until ctx is cancelled, then shuts the gateway down
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting game gateway service")

	s.hub.Run(ctx)

	log.Info().Msg("game gateway service shutting down")
	return s.Stop()
}

// Stop closes client connections and the external sinks
func (s *Service) Stop() error {
	s.connectionManager.CloseAll()

	if err := s.publisher.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close event publisher")
	}
	s.recorder.Close()

	log.Info().Msg("game gateway service stopped")
	return nil
}

// RegisterRoutes registers the WebSocket and liveness HTTP routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	log.Info().Msg("game gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats(ctx context.Context) map[string]interface{} {
	stats := map[string]interface{}{
		"service":           "game_gateway",
		"total_connections": s.connectionManager.ConnectionCount(),
	}
	if hubStats, err := s.hub.Stats(ctx); err == nil {
		stats["active_rooms"] = hubStats.Rooms
		stats["seated_players"] = hubStats.Players
		stats["status"] = "running"
	} else {
		stats["status"] = "stopped"
	}
	return stats
}
