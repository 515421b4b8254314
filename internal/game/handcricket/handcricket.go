// Package handcricket implements hand cricket: an even/odd toss followed by
// two innings where both players throw a number from 1 to 6 each ball.
// Equal numbers put the batter out; otherwise the batter scores their number.
package handcricket

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
)

// Number bounds for toss and ball throws.
const (
	MinNumber = 1
	MaxNumber = 6
)

// Phase is the stage of a hand cricket match.
type Phase int

// Phases in play order.
const (
	TossSelectEvenOdd Phase = iota
	TossSelectNumber
	TossSelectBatBowl
	Inning1Batting
	Inning2Batting
	GameOver
)

// String returns a readable phase name.
func (p Phase) String() string {
	switch p {
	case TossSelectEvenOdd:
		return "toss: even or odd"
	case TossSelectNumber:
		return "toss: pick a number"
	case TossSelectBatBowl:
		return "toss: bat or bowl"
	case Inning1Batting:
		return "first innings"
	case Inning2Batting:
		return "second innings"
	case GameOver:
		return "game over"
	}
	return "unknown"
}

// acceptsNumbers reports whether players throw numbers in this phase.
func (p Phase) acceptsNumbers() bool {
	return p == TossSelectNumber || p == Inning1Batting || p == Inning2Batting
}

// CallParity declares the even/odd preference for the toss.
type CallParity struct {
	Even bool
}

// Kind implements game.Move.
func (CallParity) Kind() string { return "parity" }

// PickNumber throws a number for the toss or the current ball.
type PickNumber struct {
	N int
}

// Kind implements game.Move.
func (PickNumber) Kind() string { return "number" }

// ChooseRole is the toss winner's decision to bat or bowl first.
type ChooseRole struct {
	Bat bool
}

// Kind implements game.Move.
func (ChooseRole) Kind() string { return "role" }

// Ball is the result of the last resolved round.
type Ball struct {
	Numbers [2]int
	Out     bool
	Runs    int
}

// Match is one hand cricket match.
type Match struct {
	players [2]game.Player
	phase   Phase
	intn    func(int) int

	caller     int
	callEven   bool
	tossWinner int

	picks    [2]int
	batter   int
	scores   [2]int
	target   int
	lastBall *Ball

	outcome game.Outcome
}

// NewMatch creates a match waiting for the even/odd call. intn drives the
// bot's throws.
func NewMatch(p1, p2 game.Player, intn func(int) int) *Match {
	return &Match{
		players:    [2]game.Player{p1, p2},
		phase:      TossSelectEvenOdd,
		intn:       intn,
		caller:     -1,
		tossWinner: -1,
		batter:     -1,
	}
}

// Players implements game.Match.
func (m *Match) Players() [2]game.Player { return m.players }

// Phase returns the current phase.
func (m *Match) Phase() Phase { return m.phase }

// Outcome implements game.Match.
func (m *Match) Outcome() game.Outcome { return m.outcome }

// Scores returns both players' runs in seat order.
func (m *Match) Scores() [2]int { return m.scores }

// Batter returns the seat currently batting, or -1 before the innings.
func (m *Match) Batter() int { return m.batter }

// TossWinner returns the seat that won the toss, or -1.
func (m *Match) TossWinner() int { return m.tossWinner }

// Target returns the first innings total once the second innings begins.
func (m *Match) Target() int { return m.target }

// CallParity records playerID's even/odd preference.
func (m *Match) CallParity(playerID int64, even bool) error {
	seat, ok := game.Seat(m.players, playerID)
	if !ok {
		return game.ErrNotPlayerInGame
	}
	if m.phase != TossSelectEvenOdd {
		return game.ErrWrongPhase
	}
	m.caller = seat
	m.callEven = even
	m.phase = TossSelectNumber
	m.playBot()
	return nil
}

// PickNumber records playerID's number for the toss or the current ball and
// resolves the round when both numbers are in.
func (m *Match) PickNumber(playerID int64, n int) error {
	seat, ok := game.Seat(m.players, playerID)
	if !ok {
		return game.ErrNotPlayerInGame
	}
	if !m.phase.acceptsNumbers() {
		return game.ErrWrongPhase
	}
	if n < MinNumber || n > MaxNumber {
		return fmt.Errorf("%w: pick a number from %d to %d", game.ErrInvalidMove, MinNumber, MaxNumber)
	}
	if m.picks[seat] != 0 {
		return game.ErrAlreadyChosen
	}

	m.picks[seat] = n
	if m.picks[0] != 0 && m.picks[1] != 0 {
		m.resolveRound()
	}
	m.playBot()
	return nil
}

// ChooseRole lets the toss winner bat or bowl first.
func (m *Match) ChooseRole(playerID int64, bat bool) error {
	seat, ok := game.Seat(m.players, playerID)
	if !ok {
		return game.ErrNotPlayerInGame
	}
	if m.phase != TossSelectBatBowl {
		return game.ErrWrongPhase
	}
	if seat != m.tossWinner {
		return game.ErrNotPlayerTurn
	}

	m.startInnings(seat, bat)
	m.playBot()
	return nil
}

func (m *Match) startInnings(tossWinner int, bat bool) {
	if bat {
		m.batter = tossWinner
	} else {
		m.batter = 1 - tossWinner
	}
	m.scores = [2]int{}
	m.phase = Inning1Batting
}

func (m *Match) resolveRound() {
	a, b := m.picks[0], m.picks[1]
	m.picks = [2]int{}

	if m.phase == TossSelectNumber {
		even := (a+b)%2 == 0
		if even == m.callEven {
			m.tossWinner = m.caller
		} else {
			m.tossWinner = 1 - m.caller
		}
		m.phase = TossSelectBatBowl
		return
	}

	ball := &Ball{Numbers: [2]int{a, b}}
	m.lastBall = ball

	if a == b {
		ball.Out = true
		if m.phase == Inning1Batting {
			m.target = m.scores[m.batter]
			m.batter = 1 - m.batter
			m.phase = Inning2Batting
			return
		}
		m.finish()
		return
	}

	ball.Runs = ball.Numbers[m.batter]
	m.scores[m.batter] += ball.Runs
	if m.phase == Inning2Batting && m.scores[m.batter] > m.target {
		m.finish()
	}
}

// finish ends the match on cumulative totals.
func (m *Match) finish() {
	m.phase = GameOver
	switch {
	case m.scores[0] == m.scores[1]:
		m.outcome = game.Tie()
	case m.scores[0] > m.scores[1]:
		m.outcome = game.Win(m.players, 0)
	default:
		m.outcome = game.Win(m.players, 1)
	}
}

// playBot submits whatever a bot player owes in the current phase. The even
// or odd call is always left to the human.
func (m *Match) playBot() {
	for seat, p := range m.players {
		if !p.Bot {
			continue
		}
		switch {
		case m.phase.acceptsNumbers() && m.picks[seat] == 0:
			m.picks[seat] = MinNumber + m.intn(MaxNumber-MinNumber+1)
			if m.picks[0] != 0 && m.picks[1] != 0 {
				m.resolveRound()
				m.playBot()
			}
			return
		case m.phase == TossSelectBatBowl && m.tossWinner == seat:
			m.startInnings(seat, m.intn(2) == 0)
			m.playBot()
			return
		}
	}
}

// Apply implements game.Match.
func (m *Match) Apply(actorID int64, mv game.Move) error {
	switch mv := mv.(type) {
	case CallParity:
		return m.CallParity(actorID, mv.Even)
	case PickNumber:
		return m.PickNumber(actorID, mv.N)
	case ChooseRole:
		return m.ChooseRole(actorID, mv.Bat)
	case game.Forfeit:
		seat, ok := game.Seat(m.players, actorID)
		if !ok {
			return game.ErrNotPlayerInGame
		}
		if m.phase == GameOver {
			return game.ErrWrongPhase
		}
		m.phase = GameOver
		m.outcome = game.Win(m.players, 1-seat)
		m.outcome.Forfeit = true
		return nil
	default:
		return fmt.Errorf("%w: %s is not a hand cricket move", game.ErrInvalidMove, mv.Kind())
	}
}

// Snapshot is a copy of a hand cricket match. Pending numbers are reduced
// to whether each player has thrown.
type Snapshot struct {
	Players    [2]game.Player
	Phase      Phase
	Caller     int
	CallEven   bool
	TossWinner int
	Batter     int
	Scores     [2]int
	Target     int
	Thrown     [2]bool
	LastBall   *Ball
	Outcome    game.Outcome
}

// GameVariant implements game.Snapshot.
func (Snapshot) GameVariant() model.Variant { return model.VariantHandCricket }

// Result implements game.Snapshot.
func (s Snapshot) Result() game.Outcome { return s.Outcome }

// Snapshot implements game.Match.
func (m *Match) Snapshot() game.Snapshot {
	s := Snapshot{
		Players:    m.players,
		Phase:      m.phase,
		Caller:     m.caller,
		CallEven:   m.callEven,
		TossWinner: m.tossWinner,
		Batter:     m.batter,
		Scores:     m.scores,
		Target:     m.target,
		Thrown:     [2]bool{m.picks[0] != 0, m.picks[1] != 0},
		Outcome:    m.outcome,
	}
	if m.lastBall != nil {
		b := *m.lastBall
		s.LastBall = &b
	}
	return s
}

// Engine creates hand cricket matches.
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
func (e *Engine) Variant() model.Variant { return model.VariantHandCricket }

// Name implements game.Engine.
func (e *Engine) Name() string { return "Hand Cricket" }

// NewMatch implements game.Engine.
func (e *Engine) NewMatch(p1, p2 game.Player) (game.Match, error) {
	if err := game.ValidatePair(p1, p2); err != nil {
		return nil, err
	}
	return NewMatch(p1, p2, e.intn), nil
}

// ParseMove implements game.Engine. Payloads are "even", "odd", "bat",
// "bowl" or a number.
func (e *Engine) ParseMove(payload string) (game.Move, error) {
	p := strings.ToLower(strings.TrimSpace(payload))
	switch p {
	case "even":
		return CallParity{Even: true}, nil
	case "odd":
		return CallParity{Even: false}, nil
	case "bat":
		return ChooseRole{Bat: true}, nil
	case "bowl":
		return ChooseRole{Bat: false}, nil
	}
	n, err := strconv.Atoi(p)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown payload %q", game.ErrInvalidMove, payload)
	}
	return PickNumber{N: n}, nil
}
