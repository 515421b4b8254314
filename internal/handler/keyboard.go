package handler

import (
	"fmt"
	"strings"

	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/present"
)

const (
	// CallbackPrefix marks callback data produced by game keyboards.
	CallbackPrefix = "g"

	callbackSep = "|"
)

// EncodeCallback packs a move payload for the session under key into
// button callback data.
func EncodeCallback(variant model.Variant, key, payload string) string {
	return strings.Join([]string{CallbackPrefix, string(variant), key, payload}, callbackSep)
}

// DecodeCallback reverses EncodeCallback. Telebot may prefix data with \f;
// it is dropped.
func DecodeCallback(data string) (variant model.Variant, key, payload string, ok bool) {
	data = strings.TrimPrefix(data, "\f")
	parts := strings.Split(data, callbackSep)
	if len(parts) != 4 || parts[0] != CallbackPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return model.Variant(parts[1]), parts[2], parts[3], true
}

// BuildMarkup turns a view's button grid into an inline keyboard. A view
// without buttons yields an empty keyboard, which clears the old one.
func BuildMarkup(v present.View, variant model.Variant, key string) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	markup.InlineKeyboard = make([][]tele.InlineButton, 0, len(v.Buttons))
	for _, row := range v.Buttons {
		buttons := make([]tele.InlineButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tele.InlineButton{
				Text: b.Label,
				Data: EncodeCallback(variant, key, b.Payload),
			})
		}
		markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
	}
	return markup
}

// SessionKey derives a session key from the command message that started
// the game.
func SessionKey(chatID int64, messageID int) string {
	return fmt.Sprintf("%d:%d", chatID, messageID)
}
