package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"duel-game-bot/internal/model"
)

const matchColumns = `id, session_key, variant, guild_id, player1_id, player2_id, winner_id, tie, reason, rated, player1_diff, player2_diff, started_at, ended_at`

// MatchRepository stores finished matches in PostgreSQL.
type MatchRepository struct {
	pool *pgxpool.Pool
}

// NewMatchRepository creates a MatchRepository.
func NewMatchRepository(pool *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{pool: pool}
}

// Record inserts a finished match. Recording the same ID twice is a no-op.
func (r *MatchRepository) Record(ctx context.Context, m *model.MatchRecord) error {
	query := `INSERT INTO matches (` + matchColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (id) DO NOTHING`

	_, err := r.pool.Exec(ctx, query,
		m.ID, m.SessionKey, m.Variant, m.GuildID,
		m.Player1ID, m.Player2ID, m.WinnerID, m.Tie,
		m.Reason, m.Rated, m.Player1Diff, m.Player2Diff,
		m.StartedAt, m.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record match: %w", err)
	}
	return nil
}

// GetByPlayer retrieves a player's most recent matches, newest first.
func (r *MatchRepository) GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*model.MatchRecord, error) {
	query := `SELECT ` + matchColumns + ` FROM matches
		WHERE player1_id = $1 OR player2_id = $1
		ORDER BY ended_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}
	defer rows.Close()

	var matches []*model.MatchRecord
	for rows.Next() {
		var m model.MatchRecord
		err := rows.Scan(
			&m.ID, &m.SessionKey, &m.Variant, &m.GuildID,
			&m.Player1ID, &m.Player2ID, &m.WinnerID, &m.Tie,
			&m.Reason, &m.Rated, &m.Player1Diff, &m.Player2Diff,
			&m.StartedAt, &m.EndedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		matches = append(matches, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating matches: %w", err)
	}
	return matches, nil
}
