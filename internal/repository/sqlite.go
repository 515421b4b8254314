package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"duel-game-bot/internal/model"
)

// SQLiteRatingRepository stores rating records in an embedded SQLite file.
type SQLiteRatingRepository struct {
	db *sql.DB
}

// NewSQLiteRatingRepository opens (creating if needed) the database at
// dbPath and applies its schema.
func NewSQLiteRatingRepository(dbPath string) (*SQLiteRatingRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps
	// transactions from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &SQLiteRatingRepository{db: db}
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return repo, nil
}

// Close closes the database.
func (r *SQLiteRatingRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRatingRepository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS ratings (
			player_id INTEGER NOT NULL,
			guild_id INTEGER NOT NULL,
			variant VARCHAR(32) NOT NULL,
			username VARCHAR(255) NOT NULL DEFAULT '',
			rating REAL NOT NULL DEFAULT 1000,
			wins INTEGER NOT NULL DEFAULT 0,
			losses INTEGER NOT NULL DEFAULT 0,
			ties INTEGER NOT NULL DEFAULT 0,
			matches_played INTEGER NOT NULL DEFAULT 0,
			updated_at TIMESTAMP NOT NULL,
			PRIMARY KEY (player_id, guild_id, variant)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ratings_board ON ratings(guild_id, variant, rating DESC)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// Get retrieves the record for (playerID, guildID, variant).
// Returns ErrRatingNotFound if it does not exist.
func (r *SQLiteRatingRepository) Get(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings WHERE player_id = ? AND guild_id = ? AND variant = ?`

	rec, err := scanRating(r.db.QueryRowContext(ctx, query, playerID, guildID, string(variant)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	return rec, nil
}

// GetOrCreate retrieves a record, creating one at the default rating first
// if needed.
func (r *SQLiteRatingRepository) GetOrCreate(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	const insert = `
		INSERT INTO ratings (player_id, guild_id, variant, rating, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (player_id, guild_id, variant) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, insert, playerID, guildID, string(variant), model.DefaultRating, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to create rating: %w", err)
	}
	return r.Get(ctx, playerID, guildID, variant)
}

const sqliteUpsertRating = `
	INSERT INTO ratings (player_id, guild_id, variant, username, rating, wins, losses, ties, matches_played, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (player_id, guild_id, variant) DO UPDATE SET
		username = CASE WHEN excluded.username = '' THEN ratings.username ELSE excluded.username END,
		rating = excluded.rating,
		wins = excluded.wins,
		losses = excluded.losses,
		ties = excluded.ties,
		matches_played = excluded.matches_played,
		updated_at = excluded.updated_at
`

func sqliteUpsertArgs(rec *model.RatingRecord) []any {
	return []any{
		rec.PlayerID, rec.GuildID, string(rec.Variant), rec.Username,
		rec.Rating, rec.Wins, rec.Losses, rec.Ties, rec.MatchesPlayed,
		time.Now().UTC(),
	}
}

// Save writes rec, replacing the stored record.
func (r *SQLiteRatingRepository) Save(ctx context.Context, rec *model.RatingRecord) error {
	if _, err := r.db.ExecContext(ctx, sqliteUpsertRating, sqliteUpsertArgs(rec)...); err != nil {
		return fmt.Errorf("failed to save rating: %w", err)
	}
	return nil
}

// SavePair writes both records in one transaction.
func (r *SQLiteRatingRepository) SavePair(ctx context.Context, a, b *model.RatingRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, rec := range []*model.RatingRecord{a, b} {
		if _, err := tx.ExecContext(ctx, sqliteUpsertRating, sqliteUpsertArgs(rec)...); err != nil {
			return fmt.Errorf("failed to save rating pair: %w", err)
		}
	}
	return tx.Commit()
}

// Top retrieves the highest rated players of a guild and variant who have
// played at least one match.
func (r *SQLiteRatingRepository) Top(ctx context.Context, guildID int64, variant model.Variant, limit int) ([]*model.RatingRecord, error) {
	query := `SELECT ` + ratingColumns + ` FROM ratings
		WHERE guild_id = ? AND variant = ? AND matches_played > 0
		ORDER BY rating DESC, wins DESC, player_id ASC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, guildID, string(variant), limit)
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
	return records, rows.Err()
}

// UpdateUsername stores the latest display name for a player across all
// of their records.
func (r *SQLiteRatingRepository) UpdateUsername(ctx context.Context, playerID int64, username string) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE ratings SET username = ? WHERE player_id = ?`, username, playerID); err != nil {
		return fmt.Errorf("failed to update username: %w", err)
	}
	return nil
}
