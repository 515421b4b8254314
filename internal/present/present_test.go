package present

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/game/handcricket"
	"duel-game-bot/internal/game/rps"
	"duel-game-bot/internal/game/tictactoe"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/service"
)

var (
	alice = game.Player{ID: 1, Name: "alice"}
	bob   = game.Player{ID: 2, Name: "bob"}
)

func payloads(v View) []string {
	var out []string
	for _, row := range v.Buttons {
		for _, b := range row {
			if b.Payload != "" {
				out = append(out, b.Payload)
			}
		}
	}
	return out
}

func TestRender_RPS(t *testing.T) {
	m := rps.NewMatch(alice, bob, nil)
	require.NoError(t, m.Apply(alice.ID, rps.Throw{Choice: rps.Rock}))

	v := Render(m.Snapshot(), nil)
	assert.Contains(t, v.Text, "alice: ✅ ready")
	assert.Contains(t, v.Text, "bob: ⏳ choosing")
	assert.NotContains(t, v.Text, "rock", "choices stay hidden until both have thrown")
	assert.Equal(t, []string{"rock", "paper", "scissors", game.ForfeitPayload}, payloads(v))

	require.NoError(t, m.Apply(bob.ID, rps.Throw{Choice: rps.Scissors}))
	upd := &service.RatingUpdate{
		First:       &model.RatingRecord{PlayerID: 1, Username: "alice", Rating: 1016},
		Second:      &model.RatingRecord{PlayerID: 2, Rating: 984},
		FirstDelta:  16,
		SecondDelta: -16,
	}
	v = Render(m.Snapshot(), upd)
	assert.Contains(t, v.Text, "🏆 alice wins!")
	assert.Contains(t, v.Text, "alice: 1016 (+16.0)")
	assert.Contains(t, v.Text, "User2: 984 (-16.0)")
	assert.Empty(t, v.Buttons)
}

func TestRender_TicTacToe(t *testing.T) {
	m := tictactoe.NewMatch(alice, bob, true)
	require.NoError(t, m.Apply(alice.ID, tictactoe.Place{Row: 1, Col: 1}))

	v := Render(m.Snapshot(), nil)
	require.Len(t, v.Buttons, 4)
	assert.Equal(t, "❌", v.Buttons[1][1].Label)
	assert.Empty(t, v.Buttons[1][1].Payload, "taken cells are inert")
	assert.Equal(t, "0,2", v.Buttons[0][2].Payload)
	assert.Contains(t, v.Text, "Turn: bob")
	assert.Len(t, payloads(v), 9)
}

func TestRender_HandCricketPhases(t *testing.T) {
	m := handcricket.NewMatch(alice, bob, nil)

	v := Render(m.Snapshot(), nil)
	assert.Equal(t, []string{"even", "odd", game.ForfeitPayload}, payloads(v))

	require.NoError(t, m.Apply(alice.ID, handcricket.CallParity{Even: true}))
	v = Render(m.Snapshot(), nil)
	assert.Contains(t, v.Text, "alice called even")
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6", game.ForfeitPayload}, payloads(v))

	require.NoError(t, m.Apply(alice.ID, handcricket.PickNumber{N: 2}))
	require.NoError(t, m.Apply(bob.ID, handcricket.PickNumber{N: 4}))
	v = Render(m.Snapshot(), nil)
	assert.Contains(t, v.Text, "alice won the toss")
	assert.Equal(t, []string{"bat", "bowl", game.ForfeitPayload}, payloads(v))

	require.NoError(t, m.Apply(alice.ID, handcricket.ChooseRole{Bat: true}))
	require.NoError(t, m.Apply(alice.ID, handcricket.PickNumber{N: 6}))
	require.NoError(t, m.Apply(bob.ID, handcricket.PickNumber{N: 1}))
	v = Render(m.Snapshot(), nil)
	assert.Contains(t, v.Text, "alice: 6")
	assert.Contains(t, v.Text, "6 vs 1, 6 runs")
}

func TestExpired(t *testing.T) {
	m := rps.NewMatch(alice, bob, nil)
	v := Expired(m.Snapshot())
	assert.Nil(t, v.Buttons)
	assert.Contains(t, v.Text, "Timed out")
}

func TestUpdate_RatingFailureNotice(t *testing.T) {
	m := tictactoe.NewMatch(alice, bob, true)
	require.NoError(t, m.Apply(bob.ID, game.Forfeit{}))

	v := Update(service.UpdateResult{
		Status:   service.StatusError,
		Snapshot: m.Snapshot(),
		Message:  "ratings could not be updated",
	})
	assert.Contains(t, v.Text, "🏆 alice wins!")
	assert.Contains(t, v.Text, "⚠️ ratings could not be updated")
	assert.Empty(t, payloads(v))

	v = Update(service.UpdateResult{Status: service.StatusGameOver, Snapshot: m.Snapshot()})
	assert.NotContains(t, v.Text, "⚠️")
}

func TestForfeitLine(t *testing.T) {
	m := tictactoe.NewMatch(alice, bob, true)
	require.NoError(t, m.Apply(bob.ID, game.Forfeit{}))
	assert.Contains(t, Render(m.Snapshot(), nil).Text, "bob forfeited. 🏆 alice wins!")
}

func TestLeaderboard(t *testing.T) {
	assert.Contains(t, Leaderboard(model.VariantRPS, nil), "No rated matches yet.")

	text := Leaderboard(model.VariantRPS, []*model.RatingRecord{
		{PlayerID: 1, Username: "alice", Rating: 1040, Wins: 3},
		{PlayerID: 2, Rating: 1010, Wins: 1, Losses: 1},
		{PlayerID: 3, Username: "carol", Rating: 990, Losses: 1},
		{PlayerID: 4, Username: "dave", Rating: 960, Losses: 2},
	})
	assert.Contains(t, text, "🥇 alice: 1040 (3-0-0)")
	assert.Contains(t, text, "🥈 User2: 1010 (1-1-0)")
	assert.Contains(t, text, "4. dave: 960 (0-2-0)")
}

func TestRatingText(t *testing.T) {
	rec := model.NewRatingRecord(1, 42, model.VariantTicTacToe)
	assert.Contains(t, Rating(rec), "No rated matches yet.")

	rec.Username = "alice"
	rec.MatchesPlayed, rec.Wins, rec.Ties = 3, 2, 1
	text := Rating(rec)
	assert.Contains(t, text, "alice | Tic-Tac-Toe")
	assert.Contains(t, text, "✅ 2 W | ❌ 0 L | 🤝 1 T")
}

func TestHistory(t *testing.T) {
	at := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	text := History(2, []*model.MatchRecord{
		{Variant: model.VariantRPS, Player1ID: 1, Player2ID: 2, WinnerID: 2, Reason: model.EndCompleted, Rated: true, Player2Diff: 16, EndedAt: at},
		{Variant: model.VariantTicTacToe, Player1ID: 2, Player2ID: 1, WinnerID: 1, Reason: model.EndForfeit, EndedAt: at},
		{Variant: model.VariantHandCricket, Player1ID: 2, Player2ID: 1, Reason: model.EndExpired, EndedAt: at},
	})
	assert.Contains(t, text, "03-04 15:30 Rock Paper Scissors: ✅ won (+16.0)")
	assert.Contains(t, text, "Tic-Tac-Toe: ❌ lost by forfeit")
	assert.Contains(t, text, "Hand Cricket: ⏰ expired")
}

func TestSessions(t *testing.T) {
	text := Sessions(map[model.Variant]int{model.VariantRPS: 2, model.VariantTicTacToe: 1})
	assert.Contains(t, text, "Rock Paper Scissors: 2")
	assert.Contains(t, text, "Total: 3")
}
