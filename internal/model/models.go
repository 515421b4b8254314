// Package model defines the data models for the duel game bot.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Variant identifies one of the supported games.
type Variant string

// Supported variants.
const (
	VariantRPS         Variant = "rps"
	VariantTicTacToe   Variant = "tictactoe"
	VariantHandCricket Variant = "handcricket"
)

// Variants returns every supported variant in display order.
func Variants() []Variant {
	return []Variant{VariantRPS, VariantTicTacToe, VariantHandCricket}
}

// ParseVariant maps a user supplied name or alias to a Variant.
func ParseVariant(s string) (Variant, bool) {
	switch s {
	case "rps", "rockpaperscissors":
		return VariantRPS, true
	case "ttt", "tictactoe":
		return VariantTicTacToe, true
	case "cricket", "handcricket", "hc":
		return VariantHandCricket, true
	}
	return "", false
}

// DefaultRating is the rating every new record starts with.
const DefaultRating = 1000.0

// RatingRecord holds a player's Elo rating and match counters for one
// guild and variant.
type RatingRecord struct {
	PlayerID      int64     `db:"player_id"`
	GuildID       int64     `db:"guild_id"`
	Variant       Variant   `db:"variant"`
	Username      string    `db:"username"`
	Rating        float64   `db:"rating"`
	Wins          int       `db:"wins"`
	Losses        int       `db:"losses"`
	Ties          int       `db:"ties"`
	MatchesPlayed int       `db:"matches_played"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// NewRatingRecord returns a record at the default rating.
func NewRatingRecord(playerID, guildID int64, variant Variant) *RatingRecord {
	return &RatingRecord{
		PlayerID: playerID,
		GuildID:  guildID,
		Variant:  variant,
		Rating:   DefaultRating,
	}
}

// Match end reasons.
const (
	EndCompleted = "completed"
	EndForfeit   = "forfeit"
	EndExpired   = "expired"
)

// MatchRecord is the history entry written when a session ends.
// WinnerID is zero for ties and expired matches.
type MatchRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SessionKey  string    `db:"session_key" json:"session_key"`
	Variant     Variant   `db:"variant" json:"variant"`
	GuildID     int64     `db:"guild_id" json:"guild_id"`
	Player1ID   int64     `db:"player1_id" json:"player1_id"`
	Player2ID   int64     `db:"player2_id" json:"player2_id"`
	WinnerID    int64     `db:"winner_id" json:"winner_id"`
	Tie         bool      `db:"tie" json:"tie"`
	Reason      string    `db:"reason" json:"reason"`
	Rated       bool      `db:"rated" json:"rated"`
	Player1Diff float64   `db:"player1_diff" json:"player1_diff"`
	Player2Diff float64   `db:"player2_diff" json:"player2_diff"`
	StartedAt   time.Time `db:"started_at" json:"started_at"`
	EndedAt     time.Time `db:"ended_at" json:"ended_at"`
}
