package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// postgresSchema creates the ratings and matches tables.
var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS ratings (
		player_id BIGINT NOT NULL,
		guild_id BIGINT NOT NULL,
		variant VARCHAR(32) NOT NULL,
		username VARCHAR(255) NOT NULL DEFAULT '',
		rating DOUBLE PRECISION NOT NULL DEFAULT 1000,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		ties INTEGER NOT NULL DEFAULT 0,
		matches_played INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (player_id, guild_id, variant)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_ratings_board ON ratings(guild_id, variant, rating DESC)`,
	`CREATE TABLE IF NOT EXISTS matches (
		id UUID PRIMARY KEY,
		session_key VARCHAR(255) NOT NULL,
		variant VARCHAR(32) NOT NULL,
		guild_id BIGINT NOT NULL,
		player1_id BIGINT NOT NULL,
		player2_id BIGINT NOT NULL,
		winner_id BIGINT NOT NULL DEFAULT 0,
		tie BOOLEAN NOT NULL DEFAULT FALSE,
		reason VARCHAR(16) NOT NULL,
		rated BOOLEAN NOT NULL DEFAULT FALSE,
		player1_diff DOUBLE PRECISION NOT NULL DEFAULT 0,
		player2_diff DOUBLE PRECISION NOT NULL DEFAULT 0,
		started_at TIMESTAMPTZ NOT NULL,
		ended_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_player1 ON matches(player1_id, ended_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_matches_player2 ON matches(player2_id, ended_at DESC)`,
}

// Migrate applies the PostgreSQL schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range postgresSchema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}
