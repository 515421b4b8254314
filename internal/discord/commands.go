package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/present"
	"duel-game-bot/internal/service"
)

// BotPlayer is the automated opponent of challenges without a target.
var BotPlayer = game.Player{ID: -1, Name: "🤖 Bot", Bot: true}

func gameChoices() []*discordgo.ApplicationCommandOptionChoice {
	variants := model.Variants()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, len(variants))
	for i, v := range variants {
		choices[i] = &discordgo.ApplicationCommandOptionChoice{
			Name:  present.VariantName(v),
			Value: string(v),
		}
	}
	return choices
}

// Slash command definitions
func commandDefinitions() []*discordgo.ApplicationCommand {
	gameOption := func(required bool) *discordgo.ApplicationCommandOption {
		return &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "game",
			Description: "Which game",
			Required:    required,
			Choices:     gameChoices(),
		}
	}

	return []*discordgo.ApplicationCommand{
		{
			Name:        "duel",
			Description: "Challenge someone, or the bot when no opponent is given",
			Options: []*discordgo.ApplicationCommandOption{
				gameOption(true),
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "opponent",
					Description: "Who to challenge",
				},
			},
		},
		{
			Name:        "rating",
			Description: "Show your rating",
			Options:     []*discordgo.ApplicationCommandOption{gameOption(false)},
		},
		{
			Name:        "top",
			Description: "Show this server's leaderboard",
			Options:     []*discordgo.ApplicationCommandOption{gameOption(false)},
		},
	}
}

// commandArgs reads the options of a slash command.
type commandArgs struct {
	variant    model.Variant
	opponentID string
}

func parseArgs(options []*discordgo.ApplicationCommandInteractionDataOption) (commandArgs, bool) {
	args := commandArgs{variant: model.VariantRPS}
	for _, opt := range options {
		switch opt.Name {
		case "game":
			v, ok := model.ParseVariant(opt.StringValue())
			if !ok {
				return args, false
			}
			args.variant = v
		case "opponent":
			if id, ok := opt.Value.(string); ok {
				args.opponentID = id
			}
		}
	}
	return args, true
}

func (h *Handler) handleCommand(i *discordgo.Interaction) {
	data := i.ApplicationCommandData()
	log.Debug().Str("command", data.Name).Str("guild_id", i.GuildID).Msg("Received Discord command")

	args, ok := parseArgs(data.Options)
	if !ok {
		h.ephemeral(i, "❌ Unknown game")
		return
	}

	switch data.Name {
	case "duel":
		h.handleDuel(i, data, args)
	case "rating":
		h.handleRating(i, args)
	case "top":
		h.handleTop(i, args)
	default:
		log.Warn().Str("command", data.Name).Msg("Unknown Discord command")
	}
}

// opponentFor resolves the opponent option against the interaction's
// resolved users. Missing or bot targets mean the bot plays.
func opponentFor(data discordgo.ApplicationCommandInteractionData, id string) (game.Player, error) {
	if id == "" || data.Resolved == nil {
		return BotPlayer, nil
	}
	u, ok := data.Resolved.Users[id]
	if !ok || u.Bot {
		return BotPlayer, nil
	}
	return playerFromUser(u)
}

func (h *Handler) handleDuel(i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData, args commandArgs) {
	opponent, err := opponentFor(data, args.opponentID)
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}
	h.startGame(i, args.variant, opponent)
}

func (h *Handler) handleRating(i *discordgo.Interaction, args commandArgs) {
	player, err := playerFromUser(interactionUser(i))
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}
	scope, err := scopeID(i)
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}

	rec, err := h.ratings.Get(context.Background(), player.ID, scope, args.variant)
	if err != nil {
		log.Error().Err(err).Int64("user_id", player.ID).Msg("Failed to load rating")
		h.ephemeral(i, "❌ Could not load your rating, please try again later")
		return
	}
	if rec.Username == "" {
		rec.Username = player.Name
	}
	h.ephemeral(i, present.Rating(rec))
}

func (h *Handler) handleTop(i *discordgo.Interaction, args commandArgs) {
	scope, err := scopeID(i)
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}

	records, err := h.leaderboard.Top(context.Background(), scope, args.variant, service.DefaultLeaderboardSize)
	if err != nil {
		log.Error().Err(err).Int64("guild_id", scope).Msg("Failed to load leaderboard")
		h.ephemeral(i, "❌ Could not load the leaderboard, please try again later")
		return
	}
	h.reply(i, present.Leaderboard(args.variant, records))
}
