package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/lock"
	"duel-game-bot/internal/repository"
)

// Rating errors.
var (
	ErrSelfMatch = errors.New("winner and loser must differ")
)

// DefaultKFactor is the Elo K-factor used when none is configured.
const DefaultKFactor = 32.0

// ratingLockTimeout bounds how long a result waits for another update
// touching the same player.
const ratingLockTimeout = 5 * time.Second

// RatingStore persists rating records.
type RatingStore interface {
	GetOrCreate(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error)
	Save(ctx context.Context, rec *model.RatingRecord) error
}

// PairSaver is implemented by stores that can save two records atomically.
type PairSaver interface {
	SavePair(ctx context.Context, a, b *model.RatingRecord) error
}

// RatingReader is implemented by stores that can look a record up without
// creating it.
type RatingReader interface {
	Get(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error)
}

// RatingUpdate reports the records after a result and how much each
// rating moved. First is the winner (or the first player of a tie).
type RatingUpdate struct {
	First       *model.RatingRecord
	Second      *model.RatingRecord
	FirstDelta  float64
	SecondDelta float64
	Tie         bool
}

// RatingService applies Elo updates.
type RatingService struct {
	store   RatingStore
	locks   *lock.PlayerLock
	k       float64
	initial float64
}

// NewRatingService creates a RatingService. Zero values in cfg fall back to
// K=32 and a 1000 starting rating.
func NewRatingService(store RatingStore, locks *lock.PlayerLock, cfg config.RatingConfig) *RatingService {
	if locks == nil {
		locks = lock.NewPlayerLock()
	}
	k := cfg.KFactor
	if k <= 0 {
		k = DefaultKFactor
	}
	initial := cfg.Default
	if initial <= 0 {
		initial = model.DefaultRating
	}
	return &RatingService{store: store, locks: locks, k: k, initial: initial}
}

// ExpectedScore is the probability that a player rated self beats one
// rated other.
func ExpectedScore(self, other float64) float64 {
	return 1 / (1 + math.Pow(10, (other-self)/400))
}

// Delta returns the rating change for a player scoring actual (1, 0.5 or 0)
// against an opponent.
func Delta(k, self, other, actual float64) float64 {
	return k * (actual - ExpectedScore(self, other))
}

// RecordResult updates both players' ratings, or records a tie when tie
// is set. A player can neither beat nor tie themselves. Both records are read and written while holding both players'
// locks, so concurrent results touching either player apply one after the
// other.
func (s *RatingService) RecordResult(ctx context.Context, winner, loser game.Player, guildID int64, variant model.Variant, tie bool) (*RatingUpdate, error) {
	if winner.ID == loser.ID {
		return nil, ErrSelfMatch
	}

	var update *RatingUpdate
	err := s.locks.WithPairContext(ctx, winner.ID, loser.ID, ratingLockTimeout, func() error {
		w, err := s.load(ctx, winner, guildID, variant)
		if err != nil {
			return err
		}
		l, err := s.load(ctx, loser, guildID, variant)
		if err != nil {
			return err
		}

		scoreW, scoreL := 1.0, 0.0
		if tie {
			scoreW, scoreL = 0.5, 0.5
		}
		dw := Delta(s.k, w.Rating, l.Rating, scoreW)
		dl := Delta(s.k, l.Rating, w.Rating, scoreL)

		w.Rating += dw
		l.Rating += dl
		w.MatchesPlayed++
		l.MatchesPlayed++
		if tie {
			w.Ties++
			l.Ties++
		} else {
			w.Wins++
			l.Losses++
		}

		if err := s.save(ctx, w, l); err != nil {
			return err
		}
		update = &RatingUpdate{First: w, Second: l, FirstDelta: dw, SecondDelta: dl, Tie: tie}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record result: %w", err)
	}
	return update, nil
}

// load fetches a record, seeding fresh ones with the configured rating.
func (s *RatingService) load(ctx context.Context, p game.Player, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	rec, err := s.store.GetOrCreate(ctx, p.ID, guildID, variant)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating of %d: %w", p.ID, err)
	}
	if rec.MatchesPlayed == 0 {
		rec.Rating = s.initial
	}
	if p.Name != "" {
		rec.Username = p.Name
	}
	return rec, nil
}

func (s *RatingService) save(ctx context.Context, a, b *model.RatingRecord) error {
	if ps, ok := s.store.(PairSaver); ok {
		return ps.SavePair(ctx, a, b)
	}
	if err := s.store.Save(ctx, a); err != nil {
		return err
	}
	return s.store.Save(ctx, b)
}

// Get returns a player's record, or a fresh unsaved one if they have
// never played.
func (s *RatingService) Get(ctx context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	var rec *model.RatingRecord
	var err error
	if r, ok := s.store.(RatingReader); ok {
		rec, err = r.Get(ctx, playerID, guildID, variant)
		if errors.Is(err, repository.ErrRatingNotFound) {
			rec, err = model.NewRatingRecord(playerID, guildID, variant), nil
		}
	} else {
		rec, err = s.store.GetOrCreate(ctx, playerID, guildID, variant)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rating: %w", err)
	}
	if rec.MatchesPlayed == 0 {
		rec.Rating = s.initial
	}
	return rec, nil
}

// KFactor returns the configured K-factor.
func (s *RatingService) KFactor() float64 { return s.k }
