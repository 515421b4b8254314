// Package game defines the match interfaces, the move union and the engine
// registry shared by every game variant.
package game

import (
	"errors"
	"fmt"

	"duel-game-bot/internal/model"
)

// Validation errors returned by Match.Apply. None of them mutate state.
var (
	ErrPlayersInvalid  = errors.New("players invalid")
	ErrNotPlayerInGame = errors.New("not a player in this game")
	ErrNotPlayerTurn   = errors.New("not your turn")
	ErrInvalidMove     = errors.New("invalid move")
	ErrAlreadyChosen   = errors.New("already chosen this round")
	ErrWrongPhase      = errors.New("move not allowed in this phase")
)

// Player is one participant of a match. Bot players act automatically.
type Player struct {
	ID   int64
	Name string
	Bot  bool
}

// DisplayName returns the best label for the player.
func (p Player) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Bot {
		return "Bot"
	}
	return fmt.Sprintf("User%d", p.ID)
}

// ValidatePair rejects self matches and bot-only matches.
func ValidatePair(p1, p2 Player) error {
	if p1.ID == p2.ID {
		return fmt.Errorf("%w: cannot play against yourself", ErrPlayersInvalid)
	}
	if p1.Bot && p2.Bot {
		return fmt.Errorf("%w: at least one player must be human", ErrPlayersInvalid)
	}
	return nil
}

// Seat returns the index (0 or 1) of playerID in players.
func Seat(players [2]Player, playerID int64) (int, bool) {
	for i, p := range players {
		if p.ID == playerID {
			return i, true
		}
	}
	return -1, false
}

// Outcome describes how a match ended. Over is false while it is running.
// WinnerID and LoserID are zero for ties.
type Outcome struct {
	Over     bool
	Tie      bool
	WinnerID int64
	LoserID  int64
	Forfeit  bool
}

// Win builds a decisive outcome for the player in seat winner.
func Win(players [2]Player, winner int) Outcome {
	return Outcome{
		Over:     true,
		WinnerID: players[winner].ID,
		LoserID:  players[1-winner].ID,
	}
}

// Tie builds a drawn outcome.
func Tie() Outcome {
	return Outcome{Over: true, Tie: true}
}

// Move is the tagged union of actions a player can submit. Every variant
// defines its own move types; Forfeit is accepted by all of them.
type Move interface {
	Kind() string
}

// Forfeit concedes the match to the opponent.
type Forfeit struct{}

// Kind implements Move.
func (Forfeit) Kind() string { return "forfeit" }

// ForfeitPayload is the wire form of Forfeit in every variant.
const ForfeitPayload = "ff"

// Snapshot is an immutable copy of a match state for rendering.
type Snapshot interface {
	GameVariant() model.Variant
	Result() Outcome
}

// Match is one running game. Implementations are not safe for concurrent
// use; callers serialize access per match.
type Match interface {
	// Players returns both participants in seat order.
	Players() [2]Player

	// Apply validates and applies a move by actorID, including any
	// automatic replies from bot players.
	Apply(actorID int64, mv Move) error

	// Outcome reports the terminal result, if any.
	Outcome() Outcome

	// Snapshot copies the current state.
	Snapshot() Snapshot
}

// Engine creates matches of one variant and parses its move payloads.
type Engine interface {
	// Variant returns the variant this engine plays.
	Variant() model.Variant

	// Name returns the game's display name.
	Name() string

	// NewMatch starts a match between p1 (the challenger) and p2.
	// Randomized setup such as mark assignment happens here.
	NewMatch(p1, p2 Player) (Match, error)

	// ParseMove decodes a button or command payload. Unknown payloads
	// return ErrInvalidMove.
	ParseMove(payload string) (Move, error)
}
