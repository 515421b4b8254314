package handler

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/model"
	"duel-game-bot/internal/present"
	"duel-game-bot/internal/service"
)

const variantUsage = "Use one of: rps, ttt, cricket"

// RankingHandler handles rating and leaderboard commands.
type RankingHandler struct {
	ratings     *service.RatingService
	leaderboard *service.LeaderboardService
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(ratings *service.RatingService, leaderboard *service.LeaderboardService) *RankingHandler {
	return &RankingHandler{
		ratings:     ratings,
		leaderboard: leaderboard,
	}
}

// variantArg reads the variant argument, defaulting to rock-paper-scissors.
func variantArg(args []string) (model.Variant, bool) {
	if len(args) == 0 {
		return model.VariantRPS, true
	}
	return model.ParseVariant(strings.ToLower(args[0]))
}

// HandleRating handles /rating [variant].
func (h *RankingHandler) HandleRating(c tele.Context) error {
	sender, chat := c.Sender(), c.Chat()
	if sender == nil || chat == nil {
		return nil
	}
	variant, ok := variantArg(c.Args())
	if !ok {
		return c.Reply("❌ Unknown game. " + variantUsage)
	}

	rec, err := h.ratings.Get(context.Background(), sender.ID, chat.ID, variant)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load rating")
		return c.Reply("❌ Could not load your rating, please try again later")
	}
	if rec.Username == "" {
		rec.Username = PlayerFromUser(sender).Name
	}
	return c.Reply(present.Rating(rec))
}

// HandleTop handles /top [variant].
func (h *RankingHandler) HandleTop(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	variant, ok := variantArg(c.Args())
	if !ok {
		return c.Reply("❌ Unknown game. " + variantUsage)
	}

	records, err := h.leaderboard.Top(context.Background(), chat.ID, variant, service.DefaultLeaderboardSize)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("Failed to load leaderboard")
		return c.Reply("❌ Could not load the leaderboard, please try again later")
	}
	return c.Reply(present.Leaderboard(variant, records))
}

// HandleHistory handles /history.
func (h *RankingHandler) HandleHistory(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	if !h.leaderboard.HasHistory() {
		return c.Reply("❌ Match history is not enabled")
	}

	matches, err := h.leaderboard.History(context.Background(), sender.ID, service.DefaultLeaderboardSize)
	if err != nil {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("Failed to load match history")
		return c.Reply("❌ Could not load your matches, please try again later")
	}
	return c.Reply(present.History(sender.ID, matches))
}
