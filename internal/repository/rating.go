// Package repository provides rating and match history storage on
// PostgreSQL, SQLite and memory.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"duel-game-bot/internal/model"
)

// ErrRatingNotFound is returned when no rating record exists.
var ErrRatingNotFound = errors.New("rating not found")

const ratingColumns = `player_id, guild_id, variant, username, rating, wins, losses, ties, matches_played, updated_at`

// rowScanner is satisfied by pgx.Row, pgx.Rows and *sql.Row(s).
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRating(row rowScanner) (*model.RatingRecord, error) {
	var rec model.RatingRecord
	err := row.Scan(
		&rec.PlayerID,
		&rec.GuildID,
		&rec.Variant,
		&rec.Username,
		&rec.Rating,
		&rec.Wins,
		&rec.Losses,
		&rec.Ties,
		&rec.MatchesPlayed,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// RatingRepository stores rating records in PostgreSQL.
type RatingRepository struct {
	pool *pgxpool.Pool
}

// NewRatingRepository creates a RatingRepository.
func NewRatingRepository(pool *pgxpool.Pool) *RatingRepository {
	return &RatingRepository{pool: pool}
}

// Get retrieves the record for (playerID, guildID, variant).
// Returns ErrRatingNotFound if it does not exist.
func (r *RatingRepository) Get(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE player_id = $1 AND guild_id = $2 AND variant = $3`

	rec, err := scanRating(r.pool.QueryRow(ctx, query, playerID, guildID, variant))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rec, nil
}

// create inserts a default record, leaving an existing one untouched.
func (r *RatingRepository) create(ctx context.Context, playerID, guildID int64, variant model.Variant) error {
	const query = `
		INSERT INTO ratings (player_id, guild_id, variant, rating, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (player_id, guild_id, variant) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, playerID, guildID, variant, model.DefaultRating); err != nil {
		return fmt.Errorf("failed to create rating: %w", err)
	}
	return nil
}

// GetOrCreate retrieves a record, creating one at the default rating first
// if needed.
func (r *RatingRepository) GetOrCreate(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	rec, err := r.Get(ctx, playerID, guildID, variant)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, ErrRatingNotFound) {
		return nil, err
	}

	// A concurrent create is absorbed by ON CONFLICT.
	if err := r.create(ctx, playerID, guildID, variant); err != nil {
		return nil, err
	}
	return r.Get(ctx, playerID, guildID, variant)
}

const upsertRating = `
	INSERT INTO ratings (player_id, guild_id, variant, username, rating, wins, losses, ties, matches_played, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	ON CONFLICT (player_id, guild_id, variant) DO UPDATE SET
		username = CASE WHEN EXCLUDED.username = '' THEN ratings.username ELSE EXCLUDED.username END,
		rating = EXCLUDED.rating,
		wins = EXCLUDED.wins,
		losses = EXCLUDED.losses,
		ties = EXCLUDED.ties,
		matches_played = EXCLUDED.matches_played,
		updated_at = NOW()
`

func upsertArgs(rec *model.RatingRecord) []any {
	return []any{
		rec.PlayerID, rec.GuildID, rec.Variant, rec.Username,
		rec.Rating, rec.Wins, rec.Losses, rec.Ties, rec.MatchesPlayed,
	}
}

// Save writes rec, replacing the stored record.
func (r *RatingRepository) Save(ctx context.Context, rec *model.RatingRecord) error {
	if _, err := r.pool.Exec(ctx, upsertRating, upsertArgs(rec)...); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// SavePair writes both records in one transaction.
func (r *RatingRepository) SavePair(ctx context.Context, a, b *model.RatingRecord) error {
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertRating, upsertArgs(a)...); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, upsertRating, upsertArgs(b)...)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to save rating pair: %w", err)
	}
	return nil
}

// Top retrieves the highest rated players of a guild and variant who have
// played at least one match.
func (r *RatingRepository) Top(ctx context.Context, guildID int64, variant model.Variant, limit int) ([]*model.RatingRecord, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings
		WHERE guild_id = $1 AND variant = $2 AND matches_played > 0
		ORDER BY rating DESC, wins DESC, player_id ASC
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, guildID, variant, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top ratings: %w", err)
	}
	defer rows.Close()

	var records []*model.RatingRecord
	for rows.Next() {
		rec, err := scanRating(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ratings: %w", err)
	}
	return records, nil
}

// UpdateUsername stores the latest display name for a player across all
// of their records.
func (r *RatingRepository) UpdateUsername(ctx context.Context, playerID int64, username string) error {
	const query = `UPDATE ratings SET username = $2 WHERE player_id = $1`

	if _, err := r.pool.Exec(ctx, query, playerID, username); err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return nil
}
