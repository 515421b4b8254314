package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"duel-game-bot/internal/game"
)

var (
	alice = game.Player{ID: 1, Name: "alice"}
	bob   = game.Player{ID: 2, Name: "bob"}
	robot = game.Player{ID: -1, Name: "Bot", Bot: true}
)

func TestMatch_RowWin(t *testing.T) {
	m := NewMatch(alice, bob, true)

	moves := []struct {
		player   int64
		row, col int
	}{
		{alice.ID, 0, 0},
		{bob.ID, 1, 0},
		{alice.ID, 0, 1},
		{bob.ID, 1, 1},
		{alice.ID, 0, 2},
	}
	for _, mv := range moves {
		require.NoError(t, m.ApplyMove(mv.player, mv.row, mv.col))
	}

	out := m.Outcome()
	assert.True(t, out.Over)
	assert.Equal(t, alice.ID, out.WinnerID)
	assert.Equal(t, 5, m.MovesMade())
}

func TestMatch_Tie(t *testing.T) {
	m := NewMatch(alice, bob, true)

	// X O X
	// X O O
	// O X X
	moves := [][3]int64{
		{alice.ID, 0, 0}, {bob.ID, 0, 1}, {alice.ID, 0, 2},
		{bob.ID, 1, 1}, {alice.ID, 1, 0}, {bob.ID, 1, 2},
		{alice.ID, 2, 1}, {bob.ID, 2, 0}, {alice.ID, 2, 2},
	}
	for _, mv := range moves {
		require.NoError(t, m.ApplyMove(mv[0], int(mv[1]), int(mv[2])))
	}

	assert.True(t, m.Outcome().Over)
	assert.True(t, m.Outcome().Tie)
}

func TestMatch_WinOnLastCellIsNotTie(t *testing.T) {
	m := NewMatch(alice, bob, true)

	// X O X
	// O X O
	// O X X  (last move completes the diagonal)
	moves := [][3]int64{
		{alice.ID, 0, 0}, {bob.ID, 0, 1}, {alice.ID, 0, 2},
		{bob.ID, 1, 0}, {alice.ID, 1, 1}, {bob.ID, 1, 2},
		{alice.ID, 2, 1}, {bob.ID, 2, 0}, {alice.ID, 2, 2},
	}
	for _, mv := range moves {
		require.NoError(t, m.ApplyMove(mv[0], int(mv[1]), int(mv[2])))
	}

	out := m.Outcome()
	assert.False(t, out.Tie)
	assert.Equal(t, alice.ID, out.WinnerID)
}

func TestMatch_Errors(t *testing.T) {
	m := NewMatch(alice, bob, true)

	assert.ErrorIs(t, m.ApplyMove(99, 0, 0), game.ErrNotPlayerInGame)
	assert.ErrorIs(t, m.ApplyMove(bob.ID, 0, 0), game.ErrNotPlayerTurn)
	assert.ErrorIs(t, m.ApplyMove(alice.ID, 3, 0), game.ErrInvalidMove)
	assert.ErrorIs(t, m.ApplyMove(alice.ID, 0, -1), game.ErrInvalidMove)

	require.NoError(t, m.ApplyMove(alice.ID, 1, 1))
	assert.ErrorIs(t, m.ApplyMove(bob.ID, 1, 1), game.ErrInvalidMove)

	snap := m.Snapshot().(Snapshot)
	assert.Equal(t, 1, snap.MovesMade, "rejected moves must not change the board")
	assert.Equal(t, Empty, snap.Board[0][0])
}

func TestMatch_OSeatMovesFirstWhenHoldingX(t *testing.T) {
	m := NewMatch(alice, bob, false)

	assert.Equal(t, bob.ID, m.CurrentPlayer().ID)
	assert.Equal(t, O, m.MarkOf(0))
	assert.ErrorIs(t, m.ApplyMove(alice.ID, 0, 0), game.ErrNotPlayerTurn)
}

func TestMatch_BotOpensWhenX(t *testing.T) {
	m := NewMatch(alice, robot, false)

	assert.Equal(t, 1, m.MovesMade())
	assert.Equal(t, alice.ID, m.CurrentPlayer().ID)
}

func TestMatch_Forfeit(t *testing.T) {
	m := NewMatch(alice, bob, true)

	require.NoError(t, m.Apply(alice.ID, game.Forfeit{}))
	assert.True(t, m.Outcome().Forfeit)
	assert.Equal(t, bob.ID, m.Outcome().WinnerID)
	assert.ErrorIs(t, m.Apply(bob.ID, Place{Row: 0, Col: 0}), game.ErrWrongPhase)
}

func TestBestMove_TakesWin(t *testing.T) {
	var b Board
	b[0][0], b[0][1] = O, O
	b[1][0], b[1][1] = X, X

	row, col, ok := BestMove(b, O)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 2}, [2]int{row, col})
}

func TestBestMove_Blocks(t *testing.T) {
	var b Board
	b[0][0], b[0][1] = X, X
	b[1][1] = O

	row, col, ok := BestMove(b, O)
	require.True(t, ok)
	assert.Equal(t, [2]int{0, 2}, [2]int{row, col})
}

func TestBestMove_FullBoard(t *testing.T) {
	b := Board{{X, O, X}, {X, O, O}, {O, X, X}}
	_, _, ok := BestMove(b, X)
	assert.False(t, ok)
}

func TestEngine_ParseMove(t *testing.T) {
	e := NewEngine()

	mv, err := e.ParseMove("2,1")
	require.NoError(t, err)
	assert.Equal(t, Place{Row: 2, Col: 1}, mv)

	for _, bad := range []string{"", "1", "a,b", "1;2"} {
		_, err := e.ParseMove(bad)
		assert.ErrorIs(t, err, game.ErrInvalidMove, bad)
	}
}

// TestTerminationProperty plays random legal games and checks that every
// game ends within nine moves and that the bot never loses.
func TestTerminationProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		withBot := rapid.Bool().Draw(t, "withBot")
		firstIsX := rapid.Bool().Draw(t, "firstIsX")
		opponent := bob
		if withBot {
			opponent = robot
		}
		m := NewMatch(alice, opponent, firstIsX)

		for step := 0; !m.Outcome().Over; step++ {
			if step > Size*Size {
				t.Fatalf("game did not terminate")
			}
			var empty [][2]int
			snap := m.Snapshot().(Snapshot)
			for r := 0; r < Size; r++ {
				for c := 0; c < Size; c++ {
					if snap.Board[r][c] == Empty {
						empty = append(empty, [2]int{r, c})
					}
				}
			}
			cell := rapid.SampledFrom(empty).Draw(t, "cell")
			if err := m.ApplyMove(m.CurrentPlayer().ID, cell[0], cell[1]); err != nil {
				t.Fatalf("legal move rejected: %v", err)
			}
		}

		if m.MovesMade() > Size*Size {
			t.Fatalf("more than nine moves made")
		}
		if withBot && m.Outcome().WinnerID == alice.ID {
			t.Fatalf("minimax bot lost")
		}
	})
}
