package main

import (
	"context"
	"fmt"
	"time"

	"github.com/mcdev12/pizzeria/go/internal/config"
	"github.com/mcdev12/pizzeria/go/internal/results"
	"github.com/rs/zerolog/log"
)

func setupResultsStore(ctx context.Context, dbConfig config.DatabaseConfig) (results.Recorder, error) {
	if !dbConfig.Enabled() {
		log.Info().Msg("no database configured, game results will not be recorded")
		return results.NoopRecorder{}, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	recorder, err := results.NewPostgresRecorder(connectCtx, dbConfig.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to set up results store: %w", err)
	}

	log.Info().
		Str("host", dbConfig.Host).
		Str("database", dbConfig.Database).
		Msg("connected to results database")
	return recorder, nil
}
