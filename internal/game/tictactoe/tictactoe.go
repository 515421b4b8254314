// Package tictactoe implements tic-tac-toe between two players, with an
// automatic opponent for bot players.
package tictactoe

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
)

// Size is the board dimension.
const Size = 3

// Mark is the content of one cell.
type Mark int8

// Cell contents.
const (
	Empty Mark = iota
	X
	O
)

// String returns the mark symbol.
func (m Mark) String() string {
	switch m {
	case X:
		return "X"
	case O:
		return "O"
	}
	return " "
}

// Other returns the opposing mark.
func (m Mark) Other() Mark {
	if m == X {
		return O
	}
	return X
}

// Board is the 3x3 grid indexed [row][col].
type Board [Size][Size]Mark

// lines enumerates the 3 rows, 3 columns and 2 diagonals.
var lines = [8][3][2]int{
	{{0, 0}, {0, 1}, {0, 2}},
	{{1, 0}, {1, 1}, {1, 2}},
	{{2, 0}, {2, 1}, {2, 2}},
	{{0, 0}, {1, 0}, {2, 0}},
	{{0, 1}, {1, 1}, {2, 1}},
	{{0, 2}, {1, 2}, {2, 2}},
	{{0, 0}, {1, 1}, {2, 2}},
	{{0, 2}, {1, 1}, {2, 0}},
}

// Winner returns the mark owning a complete line, or Empty.
func (b *Board) Winner() Mark {
	for _, l := range lines {
		first := b[l[0][0]][l[0][1]]
		if first != Empty && first == b[l[1][0]][l[1][1]] && first == b[l[2][0]][l[2][1]] {
			return first
		}
	}
	return Empty
}

// Full reports whether no empty cell remains.
func (b *Board) Full() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == Empty {
				return false
			}
		}
	}
	return true
}

// Place marks a cell.
type Place struct {
	Row int
	Col int
}

// Kind implements game.Move.
func (Place) Kind() string { return "place" }

// Match is one tic-tac-toe match. X always moves first.
type Match struct {
	players   [2]game.Player
	marks     [2]Mark
	board     Board
	current   int
	movesMade int
	outcome   game.Outcome
}

// NewMatch creates a match. firstIsX fixes which seat plays X. If the bot
// holds X it opens immediately.
func NewMatch(p1, p2 game.Player, firstIsX bool) *Match {
	m := &Match{players: [2]game.Player{p1, p2}}
	if firstIsX {
		m.marks = [2]Mark{X, O}
		m.current = 0
	} else {
		m.marks = [2]Mark{O, X}
		m.current = 1
	}
	m.playBot()
	return m
}

// Players implements game.Match.
func (m *Match) Players() [2]game.Player { return m.players }

// Outcome implements game.Match.
func (m *Match) Outcome() game.Outcome { return m.outcome }

// CurrentPlayer returns the player whose turn it is.
func (m *Match) CurrentPlayer() game.Player { return m.players[m.current] }

// MovesMade returns the number of marks on the board.
func (m *Match) MovesMade() int { return m.movesMade }

// MarkOf returns the mark played by seat.
func (m *Match) MarkOf(seat int) Mark { return m.marks[seat] }

// ApplyMove marks (row, col) for playerID and evaluates termination.
func (m *Match) ApplyMove(playerID int64, row, col int) error {
	seat, ok := game.Seat(m.players, playerID)
	if !ok {
		return game.ErrNotPlayerInGame
	}
	if m.outcome.Over {
		return game.ErrWrongPhase
	}
	if seat != m.current {
		return game.ErrNotPlayerTurn
	}
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return fmt.Errorf("%w: cell %d,%d is off the board", game.ErrInvalidMove, row, col)
	}
	if m.board[row][col] != Empty {
		return fmt.Errorf("%w: cell %d,%d is taken", game.ErrInvalidMove, row, col)
	}

	m.place(row, col)
	m.playBot()
	return nil
}

// place applies an already validated move for the current seat.
func (m *Match) place(row, col int) {
	m.board[row][col] = m.marks[m.current]
	m.movesMade++
	m.current = 1 - m.current

	switch w := m.board.Winner(); {
	case w != Empty:
		if m.marks[0] == w {
			m.outcome = game.Win(m.players, 0)
		} else {
			m.outcome = game.Win(m.players, 1)
		}
	case m.movesMade == Size*Size:
		m.outcome = game.Tie()
	}
}

// playBot lets a bot in the current seat reply so that only human turns
// are ever pending.
func (m *Match) playBot() {
	for !m.outcome.Over && m.players[m.current].Bot {
		row, col, ok := BestMove(m.board, m.marks[m.current])
		if !ok {
			return
		}
		m.place(row, col)
	}
}

// Apply implements game.Match.
func (m *Match) Apply(actorID int64, mv game.Move) error {
	switch mv := mv.(type) {
	case Place:
		return m.ApplyMove(actorID, mv.Row, mv.Col)
	case game.Forfeit:
		seat, ok := game.Seat(m.players, actorID)
		if !ok {
			return game.ErrNotPlayerInGame
		}
		if m.outcome.Over {
			return game.ErrWrongPhase
		}
		m.outcome = game.Win(m.players, 1-seat)
		m.outcome.Forfeit = true
		return nil
	default:
		return fmt.Errorf("%w: %s is not a tic-tac-toe move", game.ErrInvalidMove, mv.Kind())
	}
}

// Snapshot is a copy of a tic-tac-toe match.
type Snapshot struct {
	Players   [2]game.Player
	Marks     [2]Mark
	Board     Board
	Current   int
	MovesMade int
	Outcome   game.Outcome
}

// GameVariant implements game.Snapshot.
func (Snapshot) GameVariant() model.Variant { return model.VariantTicTacToe }

// Result implements game.Snapshot.
func (s Snapshot) Result() game.Outcome { return s.Outcome }

// Snapshot implements game.Match.
func (m *Match) Snapshot() game.Snapshot {
	return Snapshot{
		Players:   m.players,
		Marks:     m.marks,
		Board:     m.board,
		Current:   m.current,
		MovesMade: m.movesMade,
		Outcome:   m.outcome,
	}
}

// Engine creates tic-tac-toe matches.
type Engine struct {
	coin func() bool
}

// NewEngine creates an engine that assigns X by a fair coin.
func NewEngine() *Engine {
	return NewEngineWithCoin(func() bool { return rand.IntN(2) == 0 })
}

// NewEngineWithCoin creates an engine that gives the challenger X whenever
// coin returns true.
func NewEngineWithCoin(coin func() bool) *Engine {
	return &Engine{coin: coin}
}

// Variant implements game.Engine.
func (e *Engine) Variant() model.Variant { return model.VariantTicTacToe }

// Name implements game.Engine.
func (e *Engine) Name() string { return "Tic-Tac-Toe" }

// NewMatch implements game.Engine.
func (e *Engine) NewMatch(p1, p2 game.Player) (game.Match, error) {
	if err := game.ValidatePair(p1, p2); err != nil {
		return nil, err
	}
	return NewMatch(p1, p2, e.coin()), nil
}

// ParseMove implements game.Engine. Payloads are "row,col".
func (e *Engine) ParseMove(payload string) (game.Move, error) {
	r, c, ok := strings.Cut(strings.TrimSpace(payload), ",")
	if !ok {
		return nil, fmt.Errorf("%w: expected row,col", game.ErrInvalidMove)
	}
	row, err := strconv.Atoi(strings.TrimSpace(r))
	if err != nil {
		return nil, fmt.Errorf("%w: bad row %q", game.ErrInvalidMove, r)
	}
	col, err := strconv.Atoi(strings.TrimSpace(c))
	if err != nil {
		return nil, fmt.Errorf("%w: bad column %q", game.ErrInvalidMove, c)
	}
	return Place{Row: row, Col: col}, nil
}
