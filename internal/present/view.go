// Package present renders match snapshots and rating data as
// platform-neutral views. Both chat front ends turn a View into their own
// message and button types.
package present

import (
	"fmt"
	"strings"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/game/handcricket"
	"duel-game-bot/internal/game/rps"
	"duel-game-bot/internal/game/tictactoe"
	"duel-game-bot/internal/service"
)

// Button is one pressable option. Payload is the move payload understood
// by the variant's engine; an empty payload is inert.
type Button struct {
	Label   string
	Payload string
}

// View is a rendered message with an optional button grid.
type View struct {
	Text    string
	Buttons [][]Button
}

const divider = "━━━━━━━━━━━━━━━"

// forfeitRow is appended to every running match.
var forfeitRow = []Button{{Label: "🏳️ Forfeit", Payload: game.ForfeitPayload}}

// Render draws snap. The rating update is shown when the match is over and
// was rated.
func Render(snap game.Snapshot, rating *service.RatingUpdate) View {
	var v View
	switch s := snap.(type) {
	case rps.Snapshot:
		v = renderRPS(s)
	case tictactoe.Snapshot:
		v = renderTicTacToe(s)
	case handcricket.Snapshot:
		v = renderHandCricket(s)
	default:
		return View{Text: "Unknown game"}
	}

	if out := snap.Result(); out.Over {
		v.Text += "\n" + divider + "\n" + resultLine(players(snap), out)
		if rating != nil {
			v.Text += "\n" + ratingLines(rating)
		}
	}
	return v
}

// Update draws the board after a move. A finished match whose rating
// update failed also carries the failure notice.
func Update(res service.UpdateResult) View {
	v := Render(res.Snapshot, res.Rating)
	if res.Status == service.StatusError && res.Message != "" {
		v.Text += "\n⚠️ " + res.Message
	}
	return v
}

// Expired draws snap after its session timed out. No buttons are offered.
func Expired(snap game.Snapshot) View {
	v := Render(snap, nil)
	v.Buttons = nil
	v.Text += "\n" + divider + "\n⏰ Timed out. This game is closed."
	return v
}

func players(snap game.Snapshot) [2]game.Player {
	switch s := snap.(type) {
	case rps.Snapshot:
		return s.Players
	case tictactoe.Snapshot:
		return s.Players
	case handcricket.Snapshot:
		return s.Players
	}
	return [2]game.Player{}
}

func nameOf(ps [2]game.Player, id int64) string {
	for _, p := range ps {
		if p.ID == id {
			return p.DisplayName()
		}
	}
	return fmt.Sprintf("User%d", id)
}

func resultLine(ps [2]game.Player, out game.Outcome) string {
	switch {
	case out.Tie:
		return "🤝 It's a tie!"
	case out.Forfeit:
		return fmt.Sprintf("🏳️ %s forfeited. 🏆 %s wins!", nameOf(ps, out.LoserID), nameOf(ps, out.WinnerID))
	default:
		return fmt.Sprintf("🏆 %s wins!", nameOf(ps, out.WinnerID))
	}
}

func ratingLines(u *service.RatingUpdate) string {
	var b strings.Builder
	for i, r := range []struct {
		name  string
		after float64
		delta float64
	}{
		{recordName(u.First), u.First.Rating, u.FirstDelta},
		{recordName(u.Second), u.Second.Rating, u.SecondDelta},
	} {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "📈 %s: %.0f (%s)", r.name, r.after, signed(r.delta))
	}
	return b.String()
}

// signed formats a rating delta with its sign and one decimal.
func signed(d float64) string {
	if d >= 0 {
		return fmt.Sprintf("+%.1f", d)
	}
	return fmt.Sprintf("%.1f", d)
}

func renderRPS(s rps.Snapshot) View {
	var b strings.Builder
	b.WriteString("✊ Rock Paper Scissors\n")
	b.WriteString(divider + "\n")
	for i, p := range s.Players {
		status := "⏳ choosing"
		switch {
		case s.Phase == rps.Resolved && s.Choices[i] != rps.None:
			status = s.Choices[i].Emoji() + " " + s.Choices[i].String()
		case s.Chosen[i]:
			status = "✅ ready"
		}
		fmt.Fprintf(&b, "%s: %s\n", p.DisplayName(), status)
	}

	v := View{Text: strings.TrimRight(b.String(), "\n")}
	if !s.Outcome.Over {
		row := make([]Button, 0, len(rps.Choices))
		for _, c := range rps.Choices {
			row = append(row, Button{Label: c.Emoji(), Payload: c.String()})
		}
		v.Buttons = [][]Button{row, forfeitRow}
	}
	return v
}

var markLabels = map[tictactoe.Mark]string{
	tictactoe.Empty: "·",
	tictactoe.X:     "❌",
	tictactoe.O:     "⭕",
}

func renderTicTacToe(s tictactoe.Snapshot) View {
	var b strings.Builder
	b.WriteString("#️⃣ Tic-Tac-Toe\n")
	b.WriteString(divider + "\n")
	for i, p := range s.Players {
		fmt.Fprintf(&b, "%s %s\n", markLabels[s.Marks[i]], p.DisplayName())
	}
	if !s.Outcome.Over {
		fmt.Fprintf(&b, "Turn: %s", s.Players[s.Current].DisplayName())
	}

	v := View{Text: strings.TrimRight(b.String(), "\n")}
	v.Buttons = make([][]Button, 0, tictactoe.Size+1)
	for r := 0; r < tictactoe.Size; r++ {
		row := make([]Button, 0, tictactoe.Size)
		for c := 0; c < tictactoe.Size; c++ {
			btn := Button{Label: markLabels[s.Board[r][c]]}
			if s.Board[r][c] == tictactoe.Empty && !s.Outcome.Over {
				btn.Payload = fmt.Sprintf("%d,%d", r, c)
			}
			row = append(row, btn)
		}
		v.Buttons = append(v.Buttons, row)
	}
	if !s.Outcome.Over {
		v.Buttons = append(v.Buttons, forfeitRow)
	}
	return v
}

func renderHandCricket(s handcricket.Snapshot) View {
	var b strings.Builder
	b.WriteString("🏏 Hand Cricket\n")
	b.WriteString(divider + "\n")

	switch s.Phase {
	case handcricket.TossSelectEvenOdd:
		b.WriteString("Toss: call even or odd.")
	case handcricket.TossSelectNumber:
		fmt.Fprintf(&b, "Toss: %s called %s. Both pick a number.",
			s.Players[s.Caller].DisplayName(), parity(s.CallEven))
	case handcricket.TossSelectBatBowl:
		fmt.Fprintf(&b, "%s won the toss. Bat or bowl?", s.Players[s.TossWinner].DisplayName())
	case handcricket.Inning1Batting, handcricket.Inning2Batting, handcricket.GameOver:
		if s.Batter >= 0 && s.Phase != handcricket.GameOver {
			fmt.Fprintf(&b, "%s: 🏏 %s batting\n", s.Phase, s.Players[s.Batter].DisplayName())
		}
		for i, p := range s.Players {
			fmt.Fprintf(&b, "%s: %d\n", p.DisplayName(), s.Scores[i])
		}
		if s.Phase == handcricket.Inning2Batting {
			fmt.Fprintf(&b, "Target: %d\n", s.Target+1)
		}
		if s.LastBall != nil {
			if s.LastBall.Out {
				fmt.Fprintf(&b, "Last ball: %d vs %d, OUT!", s.LastBall.Numbers[0], s.LastBall.Numbers[1])
			} else {
				fmt.Fprintf(&b, "Last ball: %d vs %d, %d runs", s.LastBall.Numbers[0], s.LastBall.Numbers[1], s.LastBall.Runs)
			}
		}
	}
	for i, p := range s.Players {
		if s.Thrown[i] && !s.Outcome.Over {
			fmt.Fprintf(&b, "\n✅ %s has thrown", p.DisplayName())
		}
	}

	v := View{Text: strings.TrimRight(b.String(), "\n")}
	if s.Outcome.Over {
		return v
	}
	switch s.Phase {
	case handcricket.TossSelectEvenOdd:
		v.Buttons = [][]Button{{{Label: "Even", Payload: "even"}, {Label: "Odd", Payload: "odd"}}}
	case handcricket.TossSelectBatBowl:
		v.Buttons = [][]Button{{{Label: "🏏 Bat", Payload: "bat"}, {Label: "🎯 Bowl", Payload: "bowl"}}}
	default:
		v.Buttons = numberRows()
	}
	v.Buttons = append(v.Buttons, forfeitRow)
	return v
}

func parity(even bool) string {
	if even {
		return "even"
	}
	return "odd"
}

func numberRows() [][]Button {
	rows := [][]Button{{}, {}}
	for n := handcricket.MinNumber; n <= handcricket.MaxNumber; n++ {
		i := (n - handcricket.MinNumber) / 3
		rows[i] = append(rows[i], Button{Label: fmt.Sprint(n), Payload: fmt.Sprint(n)})
	}
	return rows
}
