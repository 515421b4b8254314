package present

import (
	"fmt"
	"sort"
	"strings"

	"duel-game-bot/internal/model"
)

// VariantName returns the display name of v.
func VariantName(v model.Variant) string {
	switch v {
	case model.VariantRPS:
		return "Rock Paper Scissors"
	case model.VariantTicTacToe:
		return "Tic-Tac-Toe"
	case model.VariantHandCricket:
		return "Hand Cricket"
	}
	return string(v)
}

func recordName(r *model.RatingRecord) string {
	if r.Username != "" {
		return r.Username
	}
	return fmt.Sprintf("User%d", r.PlayerID)
}

// Rating describes one player's record.
func Rating(rec *model.RatingRecord) string {
	msg := fmt.Sprintf("📊 %s | %s\n", recordName(rec), VariantName(rec.Variant))
	msg += divider + "\n"
	msg += fmt.Sprintf("⭐ Rating: %.0f\n", rec.Rating)
	if rec.MatchesPlayed == 0 {
		msg += "No rated matches yet."
		return msg
	}
	msg += fmt.Sprintf("🎮 Played: %d\n", rec.MatchesPlayed)
	msg += fmt.Sprintf("✅ %d W | ❌ %d L | 🤝 %d T", rec.Wins, rec.Losses, rec.Ties)
	return msg
}

// Leaderboard lists records in the order given.
func Leaderboard(variant model.Variant, records []*model.RatingRecord) string {
	msg := fmt.Sprintf("🏆 %s leaderboard\n", VariantName(variant))
	msg += divider + "\n"
	if len(records) == 0 {
		return msg + "No rated matches yet."
	}

	medals := []string{"🥇", "🥈", "🥉"}
	lines := make([]string, 0, len(records))
	for i, r := range records {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		lines = append(lines, fmt.Sprintf("%s %s: %.0f (%d-%d-%d)",
			rank, recordName(r), r.Rating, r.Wins, r.Losses, r.Ties))
	}
	return msg + strings.Join(lines, "\n")
}

// History lists playerID's recent matches, newest first.
func History(playerID int64, matches []*model.MatchRecord) string {
	msg := "📜 Recent matches\n" + divider + "\n"
	if len(matches) == 0 {
		return msg + "No matches yet."
	}

	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		var result string
		switch {
		case m.Reason == model.EndExpired:
			result = "⏰ expired"
		case m.Tie:
			result = "🤝 tie"
		case m.WinnerID == playerID:
			result = "✅ won"
		default:
			result = "❌ lost"
		}
		if m.Reason == model.EndForfeit {
			result += " by forfeit"
		}

		line := fmt.Sprintf("%s %s: %s", m.EndedAt.Format("01-02 15:04"), VariantName(m.Variant), result)
		if m.Rated {
			diff := m.Player1Diff
			if m.Player2ID == playerID {
				diff = m.Player2Diff
			}
			line += " (" + signed(diff) + ")"
		}
		lines = append(lines, line)
	}
	return msg + strings.Join(lines, "\n")
}

// Sessions summarizes live session counts for admins.
func Sessions(counts map[model.Variant]int) string {
	variants := make([]model.Variant, 0, len(counts))
	for v := range counts {
		variants = append(variants, v)
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i] < variants[j] })

	msg := "🎲 Live sessions\n" + divider
	total := 0
	for _, v := range variants {
		msg += fmt.Sprintf("\n%s: %d", VariantName(v), counts[v])
		total += counts[v]
	}
	return msg + fmt.Sprintf("\nTotal: %d", total)
}
