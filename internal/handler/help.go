package handler

import (
	tele "gopkg.in/telebot.v3"
)

const helpText = "🎮 Duel games\n" +
	"━━━━━━━━━━━━━━━\n" +
	"/rps - rock paper scissors\n" +
	"/ttt - tic-tac-toe\n" +
	"/cricket - hand cricket\n" +
	"Reply to someone's message to challenge them, or send the command alone to play the bot.\n\n" +
	"/rating [game] - your rating\n" +
	"/top [game] - chat leaderboard\n" +
	"/history - your recent matches"

// HandleHelp handles /start and /help.
func HandleHelp(c tele.Context) error {
	return c.Reply(helpText)
}
