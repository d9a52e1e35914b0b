package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/mcdev12/pizzeria/go/internal/config"
	"github.com/mcdev12/pizzeria/go/internal/gateway"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

func setupServer(cfg config.Config, services *Services) *http.Server {
	mux := http.NewServeMux()

	// Register game routes (liveness, WebSocket, stats)
	services.Gateway.RegisterRoutes(mux)

	// Add health check endpoint
	setupHealthCheck(mux)

	// Add service info
	mux.HandleFunc("GET /info", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(services.Gateway.GetStats(r.Context())); err != nil {
			log.Error().Err(err).Msg("failed to write info response")
		}
	})

	// Wrap with CORS
	handler := gateway.CORSMiddleware(cfg.Server.AllowedOrigins, mux)

	// WriteTimeout is left unset: it would cut long-lived WebSocket
	// connections, whose writes carry their own deadlines
	return &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:     h2c.NewHandler(handler, &http2.Server{}),
		ReadTimeout: cfg.Server.ReadTimeout,
		IdleTimeout: cfg.Server.IdleTimeout,
	}
}

func setupHealthCheck(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			log.Error().Err(err).Msg("failed to write health check response")
		}
	})
}
