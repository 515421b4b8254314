package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"duel-game-bot/internal/model"
)

type ratingKey struct {
	playerID int64
	guildID  int64
	variant  model.Variant
}

// MemoryRatingStore keeps rating records in process memory. Records are
// copied in and out so callers never share state with the store.
type MemoryRatingStore struct {
	mu      sync.RWMutex
	records map[ratingKey]model.RatingRecord
}

// NewMemoryRatingStore creates an empty store.
func NewMemoryRatingStore() *MemoryRatingStore {
	return &MemoryRatingStore{records: make(map[ratingKey]model.RatingRecord)}
}

// Get retrieves a copy of the record. Returns ErrRatingNotFound if absent.
func (s *MemoryRatingStore) Get(_ context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[ratingKey{playerID, guildID, variant}]
	if !ok {
		return nil, ErrRatingNotFound
	}
	return &rec, nil
}

// GetOrCreate retrieves a copy of the record, creating a default one first
// if needed.
func (s *MemoryRatingStore) GetOrCreate(_ context.Context, playerID, guildID int64, variant model.Variant) (*model.RatingRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := ratingKey{playerID, guildID, variant}
	rec, ok := s.records[key]
	if !ok {
		rec = *model.NewRatingRecord(playerID, guildID, variant)
		rec.UpdatedAt = time.Now()
		s.records[key] = rec
	}
	return &rec, nil
}

// Save stores a copy of rec.
func (s *MemoryRatingStore) Save(_ context.Context, rec *model.RatingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(rec)
	return nil
}

// SavePair stores both records under one lock.
func (s *MemoryRatingStore) SavePair(_ context.Context, a, b *model.RatingRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(a)
	s.put(b)
	return nil
}

func (s *MemoryRatingStore) put(rec *model.RatingRecord) {
	key := ratingKey{rec.PlayerID, rec.GuildID, rec.Variant}
	stored := *rec
	if stored.Username == "" {
		stored.Username = s.records[key].Username
	}
	stored.UpdatedAt = time.Now()
	s.records[key] = stored
}

// Top returns the highest rated players of a guild and variant who have
// played at least one match.
func (s *MemoryRatingStore) Top(_ context.Context, guildID int64, variant model.Variant, limit int) ([]*model.RatingRecord, error) {
	s.mu.RLock()
	var records []*model.RatingRecord
	for key, rec := range s.records {
		if key.guildID == guildID && key.variant == variant && rec.MatchesPlayed > 0 {
			rec := rec
			records = append(records, &rec)
		}
	}
	s.mu.RUnlock()

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Rating != b.Rating {
			return a.Rating > b.Rating
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.PlayerID < b.PlayerID
	})
	if limit >= 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// UpdateUsername stores the latest display name for a player across all
// of their records.
func (s *MemoryRatingStore) UpdateUsername(_ context.Context, playerID int64, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, rec := range s.records {
		if key.playerID == playerID {
			rec.Username = username
			s.records[key] = rec
		}
	}
	return nil
}

// Len returns the number of stored records.
func (s *MemoryRatingStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// MemoryMatchLog keeps the most recent finished matches in memory.
type MemoryMatchLog struct {
	mu       sync.RWMutex
	capacity int
	matches  []model.MatchRecord
}

// NewMemoryMatchLog creates a log retaining at most capacity matches.
func NewMemoryMatchLog(capacity int) *MemoryMatchLog {
	return &MemoryMatchLog{capacity: capacity}
}

// Record appends m, dropping the oldest entry when full.
func (l *MemoryMatchLog) Record(_ context.Context, m *model.MatchRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.matches = append(l.matches, *m)
	if l.capacity > 0 && len(l.matches) > l.capacity {
		l.matches = l.matches[len(l.matches)-l.capacity:]
	}
	return nil
}

// GetByPlayer returns a player's most recent matches, newest first.
func (l *MemoryMatchLog) GetByPlayer(_ context.Context, playerID int64, limit int) ([]*model.MatchRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []*model.MatchRecord
	for i := len(l.matches) - 1; i >= 0 && len(out) < limit; i-- {
		m := l.matches[i]
		if m.Player1ID == playerID || m.Player2ID == playerID {
			out = append(out, &m)
		}
	}
	return out, nil
}
