package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/present"
	"duel-game-bot/internal/service"
)

// UsernameUpdater renames a player on all of their rating records.
type UsernameUpdater interface {
	UpdateUsername(ctx context.Context, playerID int64, username string) error
}

// AdminHandler handles admin-only commands.
type AdminHandler struct {
	coord *service.Coordinator
	names UsernameUpdater
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(coord *service.Coordinator, names UsernameUpdater) *AdminHandler {
	return &AdminHandler{
		coord: coord,
		names: names,
	}
}

// HandleSessions handles /sessions, listing live sessions per game.
func (h *AdminHandler) HandleSessions(c tele.Context) error {
	return c.Reply(present.Sessions(h.coord.ActiveCounts()))
}

// HandleRename handles /admin_rename <user_id> <name>.
func (h *AdminHandler) HandleRename(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	targetID, name, err := parseRenameArgs(c.Args())
	if err != nil {
		return c.Reply(err.Error())
	}

	if err := h.names.UpdateUsername(context.Background(), targetID, name); err != nil {
		log.Error().Err(err).Int64("target_id", targetID).Msg("Failed to rename player")
		return c.Reply("❌ Rename failed, please try again later")
	}

	log.Info().
		Int64("admin_id", sender.ID).
		Int64("target_id", targetID).
		Str("username", name).
		Str("operation", "admin_rename").
		Msg("Admin operation executed")

	return c.Reply(fmt.Sprintf("✅ Player %d is now shown as %s", targetID, name))
}

// parseRenameArgs reads <user_id> <name...>.
func parseRenameArgs(args []string) (int64, string, error) {
	if len(args) < 2 {
		return 0, "", fmt.Errorf("❌ Usage: /admin_rename <user_id> <name>")
	}
	targetID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("❌ The user id must be a number")
	}
	return targetID, strings.Join(args[1:], " "), nil
}
