// Package rps implements rock-paper-scissors between two players.
package rps

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
)

// Choice is a player's throw.
type Choice int

// Throws. None means the player has not chosen yet.
const (
	None Choice = iota
	Rock
	Paper
	Scissors
)

// Choices lists the playable throws in button order.
var Choices = []Choice{Rock, Paper, Scissors}

// String returns the payload form of the choice.
func (c Choice) String() string {
	switch c {
	case Rock:
		return "rock"
	case Paper:
		return "paper"
	case Scissors:
		return "scissors"
	}
	return "none"
}

// Emoji returns the icon shown on buttons and results.
func (c Choice) Emoji() string {
	switch c {
	case Rock:
		return "🪨"
	case Paper:
		return "📄"
	case Scissors:
		return "✂️"
	}
	return "❔"
}

// Beats reports whether a defeats b.
func Beats(a, b Choice) bool {
	return (a == Rock && b == Scissors) ||
		(a == Scissors && b == Paper) ||
		(a == Paper && b == Rock)
}

// Phase is the state of an RPS match.
type Phase int

// Phases.
const (
	AwaitingChoices Phase = iota
	Resolved
)

// Throw submits a choice.
type Throw struct {
	Choice Choice
}

// Kind implements game.Move.
func (Throw) Kind() string { return "throw" }

// Match is one rock-paper-scissors match.
type Match struct {
	players [2]game.Player
	choices [2]Choice
	phase   Phase
	outcome game.Outcome
}

// NewMatch creates a match. A bot player's choice is drawn immediately with
// intn so the match resolves as soon as the human throws.
func NewMatch(p1, p2 game.Player, intn func(int) int) *Match {
	m := &Match{players: [2]game.Player{p1, p2}}
	for seat, p := range m.players {
		if p.Bot {
			m.choices[seat] = Choices[intn(len(Choices))]
		}
	}
	return m
}

// Players implements game.Match.
func (m *Match) Players() [2]game.Player { return m.players }

// Phase returns the current phase.
func (m *Match) Phase() Phase { return m.phase }

// Outcome implements game.Match.
func (m *Match) Outcome() game.Outcome { return m.outcome }

// RecordChoice stores playerID's throw.
func (m *Match) RecordChoice(playerID int64, c Choice) error {
	seat, ok := game.Seat(m.players, playerID)
	if !ok {
		return game.ErrNotPlayerInGame
	}
	if m.phase != AwaitingChoices {
		return game.ErrWrongPhase
	}
	if m.choices[seat] != None {
		return game.ErrAlreadyChosen
	}
	if c < Rock || c > Scissors {
		return fmt.Errorf("%w: choose rock, paper or scissors", game.ErrInvalidMove)
	}
	m.choices[seat] = c
	return nil
}

// IsComplete reports whether both players have thrown.
func (m *Match) IsComplete() bool {
	return m.choices[0] != None && m.choices[1] != None
}

// Resolve settles a complete match and returns its outcome.
func (m *Match) Resolve() game.Outcome {
	if !m.IsComplete() {
		return m.outcome
	}
	a, b := m.choices[0], m.choices[1]
	switch {
	case a == b:
		m.outcome = game.Tie()
	case Beats(a, b):
		m.outcome = game.Win(m.players, 0)
	default:
		m.outcome = game.Win(m.players, 1)
	}
	m.phase = Resolved
	return m.outcome
}

// Apply implements game.Match.
func (m *Match) Apply(actorID int64, mv game.Move) error {
	switch mv := mv.(type) {
	case Throw:
		if err := m.RecordChoice(actorID, mv.Choice); err != nil {
			return err
		}
		if m.IsComplete() {
			m.Resolve()
		}
		return nil
	case game.Forfeit:
		seat, ok := game.Seat(m.players, actorID)
		if !ok {
			return game.ErrNotPlayerInGame
		}
		if m.phase == Resolved {
			return game.ErrWrongPhase
		}
		m.outcome = game.Win(m.players, 1-seat)
		m.outcome.Forfeit = true
		m.phase = Resolved
		return nil
	default:
		return fmt.Errorf("%w: %s is not a rock-paper-scissors move", game.ErrInvalidMove, mv.Kind())
	}
}

// Snapshot is a copy of an RPS match. Choices are only revealed once the
// match is resolved.
type Snapshot struct {
	Players [2]game.Player
	Phase   Phase
	Chosen  [2]bool
	Choices [2]Choice
	Outcome game.Outcome
}

// GameVariant implements game.Snapshot.
func (Snapshot) GameVariant() model.Variant { return model.VariantRPS }

// Result implements game.Snapshot.
func (s Snapshot) Result() game.Outcome { return s.Outcome }

// Snapshot implements game.Match.
func (m *Match) Snapshot() game.Snapshot {
	s := Snapshot{
		Players: m.players,
		Phase:   m.phase,
		Outcome: m.outcome,
	}
	for i, c := range m.choices {
		s.Chosen[i] = c != None
		if m.phase == Resolved {
			s.Choices[i] = c
		}
	}
	return s
}

// Engine creates RPS matches.
type Engine struct {
	intn func(int) int
}

// NewEngine creates an engine drawing bot throws from math/rand.
func NewEngine() *Engine {
	return NewEngineWithRand(rand.IntN)
}

// NewEngineWithRand creates an engine drawing bot throws from intn.
func NewEngineWithRand(intn func(int) int) *Engine {
	return &Engine{intn: intn}
}

// Variant implements game.Engine.
func (e *Engine) Variant() model.Variant { return model.VariantRPS }

// Name implements game.Engine.
func (e *Engine) Name() string { return "Rock Paper Scissors" }

// NewMatch implements game.Engine.
func (e *Engine) NewMatch(p1, p2 game.Player) (game.Match, error) {
	if err := game.ValidatePair(p1, p2); err != nil {
		return nil, err
	}
	return NewMatch(p1, p2, e.intn), nil
}

// ParseMove implements game.Engine.
func (e *Engine) ParseMove(payload string) (game.Move, error) {
	switch strings.ToLower(strings.TrimSpace(payload)) {
	case "rock", "r":
		return Throw{Choice: Rock}, nil
	case "paper", "p":
		return Throw{Choice: Paper}, nil
	case "scissors", "s":
		return Throw{Choice: Scissors}, nil
	}
	return nil, fmt.Errorf("%w: unknown choice %q", game.ErrInvalidMove, payload)
}
