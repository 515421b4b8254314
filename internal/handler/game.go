// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/present"
	"duel-game-bot/internal/service"
)

// BotPlayer is the automated opponent used when a challenge has no human
// target.
var BotPlayer = game.Player{ID: -1, Name: "🤖 Bot", Bot: true}

// Messenger sends and edits messages. *tele.Bot implements it.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// GameHandler starts games from commands and routes button presses to the
// coordinator.
type GameHandler struct {
	coord   *service.Coordinator
	engines *game.Registry
	msgr    Messenger

	boards sync.Map // map[string]*tele.Message, key: variant|session
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(coord *service.Coordinator, engines *game.Registry, msgr Messenger) *GameHandler {
	return &GameHandler{
		coord:   coord,
		engines: engines,
		msgr:    msgr,
	}
}

func boardKey(variant model.Variant, key string) string {
	return string(variant) + callbackSep + key
}

// PlayerFromUser converts a Telegram user.
func PlayerFromUser(u *tele.User) game.Player {
	name := u.Username
	if name == "" {
		name = u.FirstName
	}
	return game.Player{ID: u.ID, Name: name, Bot: u.IsBot}
}

// opponentFor picks who a challenge is against: the author of the replied
// message, or the bot when the command is not a reply or replies to a bot.
func opponentFor(msg *tele.Message) game.Player {
	if msg == nil || msg.ReplyTo == nil || msg.ReplyTo.Sender == nil || msg.ReplyTo.Sender.IsBot {
		return BotPlayer
	}
	return PlayerFromUser(msg.ReplyTo.Sender)
}

// HandleChallenge returns the handler of a challenge command for variant.
// Reply to someone's message to challenge them; otherwise you play the bot.
func (h *GameHandler) HandleChallenge(variant model.Variant) tele.HandlerFunc {
	return func(c tele.Context) error {
		sender, chat, msg := c.Sender(), c.Chat(), c.Message()
		if sender == nil || chat == nil || msg == nil {
			return nil
		}

		key := SessionKey(chat.ID, msg.ID)
		res := h.coord.CreateGame(context.Background(), service.CreateRequest{
			Variant:    variant,
			Key:        key,
			Challenger: PlayerFromUser(sender),
			Opponent:   opponentFor(msg),
			GuildID:    chat.ID,
		})
		if res.Status != service.StatusSuccess {
			return c.Reply("❌ " + res.Message)
		}

		view := present.Render(res.Snapshot, nil)
		board, err := h.msgr.Send(chat, view.Text, BuildMarkup(view, variant, res.Key))
		if err != nil {
			log.Error().Err(err).
				Str("variant", string(variant)).
				Str("session", res.Key).
				Msg("Failed to send game board")
			return err
		}
		h.boards.Store(boardKey(variant, res.Key), board)
		return nil
	}
}

// HandleCallback applies a button press.
func (h *GameHandler) HandleCallback(c tele.Context) error {
	cb, sender := c.Callback(), c.Sender()
	if cb == nil || sender == nil {
		return nil
	}

	variant, key, payload, ok := DecodeCallback(cb.Data)
	if !ok {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Unknown button"})
	}
	if payload == "" {
		return c.Respond()
	}

	mv, err := h.engines.ParseMove(variant, payload)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: "❌ Invalid move"})
	}

	res := h.coord.SubmitMove(context.Background(), variant, key, sender.ID, mv)
	switch {
	case res.Status == service.StatusSuccess, res.Final():
	case res.Status == service.StatusGameNotFound:
		h.boards.Delete(boardKey(variant, key))
		return c.Respond(&tele.CallbackResponse{Text: "⌛ " + res.Message, ShowAlert: true})
	default:
		return c.Respond(&tele.CallbackResponse{Text: "❌ " + res.Message})
	}

	board := cb.Message
	if stored, ok := h.boards.Load(boardKey(variant, key)); ok {
		board = stored.(*tele.Message)
	}
	if res.Final() {
		h.boards.Delete(boardKey(variant, key))
	}

	view := present.Update(res)
	if board != nil {
		if _, err := h.msgr.Edit(board, view.Text, BuildMarkup(view, variant, key)); err != nil {
			log.Warn().Err(err).
				Str("variant", string(variant)).
				Str("session", key).
				Msg("Failed to update game board")
		}
	}
	return c.Respond()
}

// SessionExpired implements service.ExpiryListener by closing the board of
// a timed out session.
func (h *GameHandler) SessionExpired(variant model.Variant, key string, snap game.Snapshot) {
	stored, ok := h.boards.LoadAndDelete(boardKey(variant, key))
	if !ok {
		return
	}
	view := present.Expired(snap)
	if _, err := h.msgr.Edit(stored.(*tele.Message), view.Text, &tele.ReplyMarkup{}); err != nil {
		log.Warn().Err(err).
			Str("variant", string(variant)).
			Str("session", key).
			Msg("Failed to close expired game board")
	}
}

// Boards returns the number of boards awaiting updates.
func (h *GameHandler) Boards() int {
	n := 0
	h.boards.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
