package service

import (
	"context"
	"fmt"

	"duel-game-bot/internal/model"
)

// DefaultLeaderboardSize is the number of entries /top shows.
const DefaultLeaderboardSize = 10

// LeaderboardStore lists the best rated players.
type LeaderboardStore interface {
	Top(ctx context.Context, guildID int64, variant model.Variant, limit int) ([]*model.RatingRecord, error)
}

// MatchHistory lists a player's finished matches.
type MatchHistory interface {
	GetByPlayer(ctx context.Context, playerID int64, limit int) ([]*model.MatchRecord, error)
}

// LeaderboardService answers ranking and history queries.
type LeaderboardService struct {
	store   LeaderboardStore
	history MatchHistory
}

// NewLeaderboardService creates a LeaderboardService. history may be nil
// when no match history is kept.
func NewLeaderboardService(store LeaderboardStore, history MatchHistory) *LeaderboardService {
	return &LeaderboardService{store: store, history: history}
}

// Top retrieves the n highest rated players of a guild and variant.
func (s *LeaderboardService) Top(ctx context.Context, guildID int64, variant model.Variant, n int) ([]*model.RatingRecord, error) {
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	records, err := s.store.Top(ctx, guildID, variant, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	return records, nil
}

// History retrieves a player's most recent matches. It returns nothing when
// history is disabled.
func (s *LeaderboardService) History(ctx context.Context, playerID int64, n int) ([]*model.MatchRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	if n <= 0 {
		n = DefaultLeaderboardSize
	}
	matches, err := s.history.GetByPlayer(ctx, playerID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return matches, nil
}

// HasHistory reports whether match history is available.
func (s *LeaderboardService) HasHistory() bool { return s.history != nil }
