package results

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// GameResult is the record kept for a won game
type GameResult struct {
	RoomID    uuid.UUID
	RoomCode  string
	Level     int
	TeamScore int
	Tables    int
	Players   int
	WonAt     time.Time
	Payload   json.RawMessage // the client's gameWon payload, stored verbatim
}

// Recorder stores game results
type Recorder interface {
	Record(ctx context.Context, result GameResult) error
	Close()
}

// NoopRecorder discards results, used when no database is configured
type NoopRecorder struct{}

func (NoopRecorder) Record(context.Context, GameResult) error { return nil }
func (NoopRecorder) Close()                                   {}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS game_results (
    id          BIGSERIAL PRIMARY KEY,
    room_id     UUID        NOT NULL,
    room_code   TEXT        NOT NULL,
    level       INTEGER     NOT NULL,
    team_score  INTEGER     NOT NULL,
    tables      INTEGER     NOT NULL,
    players     INTEGER     NOT NULL,
    payload     JSONB,
    won_at      TIMESTAMPTZ NOT NULL
)`

const insertResultSQL = `
INSERT INTO game_results (
  room_id, room_code, level, team_score, tables, players, payload, won_at
) VALUES (
  $1,$2,$3,$4,$5,$6,$7,$8
)`

// PostgresRecorder writes results to Postgres through a pgx pool
type PostgresRecorder struct {
	pool *pgxpool.Pool
}

// NewPostgresRecorder connects to dsn and makes sure the results table exists
func NewPostgresRecorder(ctx context.Context, dsn string) (*PostgresRecorder, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, createTableSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create game_results table: %w", err)
	}

	return &PostgresRecorder{pool: pool}, nil
}

// Record inserts one result row
func (r *PostgresRecorder) Record(ctx context.Context, result GameResult) error {
	var payload any
	if len(result.Payload) > 0 {
		payload = []byte(result.Payload)
	}

	cmdTag, err := r.pool.Exec(ctx, insertResultSQL,
		result.RoomID, result.RoomCode, result.Level, result.TeamScore,
		result.Tables, result.Players, payload, result.WonAt,
	)
	if err != nil {
		return fmt.Errorf("insert game result: %w", err)
	}

	log.Debug().
		Str("room_code", result.RoomCode).
		Int64("rows", cmdTag.RowsAffected()).
		Msg("game result recorded")
	return nil
}

// Close releases the pool
func (r *PostgresRecorder) Close() {
	r.pool.Close()
}
