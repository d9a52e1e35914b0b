package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/pizzeria/go/internal/config"
	"github.com/mcdev12/pizzeria/go/internal/gateway"
	"github.com/rs/zerolog/log"
)

type Services struct {
	Gateway *gateway.Service
}

func setupServices(ctx context.Context, cfg config.Config) (*Services, error) {
	// Wire up dependency chain
	// Sinks (event feed, results store) → Hub → Connection manager → Gateway

	publisher, err := setupPublisher(cfg.NATS)
	if err != nil {
		return nil, err
	}

	recorder, err := setupResultsStore(ctx, cfg.Database)
	if err != nil {
		publisher.Close()
		return nil, err
	}

	connConfig := gateway.DefaultConnectionConfig()
	connConfig.WriteTimeout = cfg.Server.WriteTimeout
	connConfig.PingInterval = cfg.Server.PingInterval
	connConfig.MaxMessageSize = cfg.Server.MaxMessageSize
	connConfig.CheckOrigin = gateway.OriginChecker(cfg.Server.AllowedOrigins)

	gatewayService := gateway.NewService(gateway.Config{
		ConnectionConfig: connConfig,
		Rules:            cfg.Game.Rules(),
	}, clockwork.NewRealClock(), publisher, recorder)

	return &Services{
		Gateway: gatewayService,
	}, nil
}

func setupPublisher(cfg config.NATSConfig) (gateway.Publisher, error) {
	if cfg.URL == "" {
		log.Info().Msg("NATS_URL not set, room event feed disabled")
		return gateway.NoopPublisher{}, nil
	}

	natsConfig := gateway.DefaultNATSConfig()
	natsConfig.URL = cfg.URL
	natsConfig.SubjectPrefix = cfg.SubjectPrefix

	publisher, err := gateway.NewNATSPublisher(natsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event publisher: %w", err)
	}
	return publisher, nil
}
