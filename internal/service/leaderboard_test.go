package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/game/rps"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/repository"
)

type mockLeaderboard struct {
	mock.Mock
}

func (m *mockLeaderboard) Top(ctx context.Context, guildID int64, variant model.Variant, limit int) ([]*model.RatingRecord, error) {
	args := m.Called(ctx, guildID, variant, limit)
	recs, _ := args.Get(0).([]*model.RatingRecord)
	return recs, args.Error(1)
}

func TestLeaderboard_Top(t *testing.T) {
	store := repository.NewMemoryRatingStore()
	ratings := newRatingService(store)
	ctx := context.Background()

	_, err := ratings.RecordResult(ctx, alice, bob, guild, model.VariantRPS, false)
	require.NoError(t, err)
	_, err = ratings.RecordResult(ctx, alice, carol, guild, model.VariantRPS, false)
	require.NoError(t, err)

	svc := NewLeaderboardService(store, nil)
	top, err := svc.Top(ctx, guild, model.VariantRPS, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, alice.ID, top[0].PlayerID)
	assert.GreaterOrEqual(t, top[0].Rating, top[1].Rating)

	other, err := svc.Top(ctx, guild+1, model.VariantRPS, 0)
	require.NoError(t, err)
	assert.Empty(t, other, "ratings are per guild")
}

func TestLeaderboard_DefaultSizeAndErrors(t *testing.T) {
	store := new(mockLeaderboard)
	store.On("Top", mock.Anything, guild, model.VariantTicTacToe, DefaultLeaderboardSize).
		Return(nil, errors.New("timeout"))

	_, err := NewLeaderboardService(store, nil).Top(context.Background(), guild, model.VariantTicTacToe, 0)
	assert.ErrorContains(t, err, "failed to load leaderboard")
	store.AssertExpectations(t)
}

func TestLeaderboard_History(t *testing.T) {
	ctx := context.Background()

	disabled := NewLeaderboardService(repository.NewMemoryRatingStore(), nil)
	assert.False(t, disabled.HasHistory())
	matches, err := disabled.History(ctx, alice.ID, 5)
	require.NoError(t, err)
	assert.Nil(t, matches)

	log := repository.NewMemoryMatchLog(10)
	f := newFixture(t, nil)
	f.coord.sinks = append(f.coord.sinks, log)
	f.create(t, model.VariantRPS, "h", alice, bob)
	f.move(model.VariantRPS, "h", alice.ID, rps.Throw{Choice: rps.Rock})
	f.move(model.VariantRPS, "h", bob.ID, rps.Throw{Choice: rps.Paper})

	svc := NewLeaderboardService(f.store, log)
	assert.True(t, svc.HasHistory())
	matches, err = svc.History(ctx, alice.ID, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, bob.ID, matches[0].WinnerID)
	assert.Equal(t, "h", matches[0].SessionKey)
}
