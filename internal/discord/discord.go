// Package discord is the Discord front end. Games are started with slash
// commands and played with message buttons.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/game"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/ratelimit"
	"duel-game-bot/internal/present"
	"duel-game-bot/internal/service"
)

// Responder is the part of *discordgo.Session the interaction handlers use.
type Responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponse(interaction *discordgo.Interaction, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Dependencies holds everything the Discord front end needs.
type Dependencies struct {
	Config      *config.Config
	Coordinator *service.Coordinator
	Engines     *game.Registry
	Ratings     *service.RatingService
	Leaderboard *service.LeaderboardService
}

// boardRef locates a posted game board.
type boardRef struct {
	ChannelID string
	MessageID string
}

// Handler answers interactions. It is independent of the gateway
// connection so it can be driven by any Responder.
type Handler struct {
	coord       *service.Coordinator
	engines     *game.Registry
	ratings     *service.RatingService
	leaderboard *service.LeaderboardService
	limiter     *ratelimit.Limiter
	rs          Responder

	boards sync.Map // map[string]boardRef, key: variant|session
}

// NewHandler creates a Handler responding through rs.
func NewHandler(deps *Dependencies, rs Responder) *Handler {
	return &Handler{
		coord:       deps.Coordinator,
		engines:     deps.Engines,
		ratings:     deps.Ratings,
		leaderboard: deps.Leaderboard,
		limiter:     ratelimit.New(deps.Config.RateLimit.PerSecond, deps.Config.RateLimit.Burst),
		rs:          rs,
	}
}

// Bot owns the gateway connection.
type Bot struct {
	cfg      config.DiscordConfig
	session  *discordgo.Session
	handler  *Handler
	commands []*discordgo.ApplicationCommand
}

// New creates the Discord bot and registers it for session expiry events.
func New(deps *Dependencies) (*Bot, error) {
	cfg := deps.Config.Discord
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	b := &Bot{
		cfg:     cfg,
		session: session,
		handler: NewHandler(deps, session),
	}
	deps.Coordinator.AddExpiryListener(b.handler)

	session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		b.handler.HandleInteraction(i.Interaction)
	})
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.Info().Int("guilds", len(r.Guilds)).Msg("Discord bot is ready")
	})
	return b, nil
}

// Start opens the gateway connection and registers slash commands.
func (b *Bot) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	log.Info().Str("user", b.session.State.User.Username).Msg("Connected to Discord")

	appID := b.cfg.AppID
	if appID == "" {
		appID = b.session.State.User.ID
	}
	cmds, err := b.session.ApplicationCommandBulkOverwrite(appID, b.cfg.GuildID, commandDefinitions())
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}
	b.commands = cmds
	log.Info().Int("count", len(cmds)).Str("guild_id", b.cfg.GuildID).Msg("Slash commands registered")
	return nil
}

// Stop closes the gateway connection.
func (b *Bot) Stop() error {
	log.Info().Msg("Stopping Discord bot")
	return b.session.Close()
}

func boardKey(variant model.Variant, key string) string {
	return string(variant) + customIDSep + key
}

// HandleInteraction routes slash commands and button presses.
func (h *Handler) HandleInteraction(i *discordgo.Interaction) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Recovered from panic in Discord handler")
		}
	}()

	user := interactionUser(i)
	if user == nil {
		return
	}
	if id, err := parseSnowflake(user.ID); err == nil && !h.limiter.Allow(id) {
		h.ephemeral(i, "⏰ Slow down")
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		h.handleCommand(i)
	case discordgo.InteractionMessageComponent:
		h.handleButton(i)
	}
}

// ephemeral answers only the acting user.
func (h *Handler) ephemeral(i *discordgo.Interaction, text string) {
	err := h.rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to answer Discord interaction")
	}
}

func (h *Handler) reply(i *discordgo.Interaction, text string) {
	err := h.rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: text},
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to answer Discord interaction")
	}
}

// startGame creates a session keyed by the interaction and posts its board.
func (h *Handler) startGame(i *discordgo.Interaction, variant model.Variant, opponent game.Player) {
	challenger, err := playerFromUser(interactionUser(i))
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}
	scope, err := scopeID(i)
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}

	res := h.coord.CreateGame(context.Background(), service.CreateRequest{
		Variant:    variant,
		Key:        "d" + i.ID,
		Challenger: challenger,
		Opponent:   opponent,
		GuildID:    scope,
	})
	if res.Status != service.StatusSuccess {
		h.ephemeral(i, "❌ "+res.Message)
		return
	}

	view := present.Render(res.Snapshot, nil)
	err = h.rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Text,
			Components: Components(view, variant, res.Key),
		},
	})
	if err != nil {
		log.Error().Err(err).
			Str("variant", string(variant)).
			Str("session", res.Key).
			Msg("Failed to post game board")
		return
	}

	msg, err := h.rs.InteractionResponse(i)
	if err != nil {
		log.Warn().Err(err).Str("session", res.Key).Msg("Failed to look up game board")
		return
	}
	h.boards.Store(boardKey(variant, res.Key), boardRef{ChannelID: msg.ChannelID, MessageID: msg.ID})
}

func (h *Handler) handleButton(i *discordgo.Interaction) {
	data := i.MessageComponentData()
	variant, key, payload, ok := DecodeCustomID(data.CustomID)
	if !ok {
		h.ephemeral(i, "❌ Unknown button")
		return
	}
	if isInert(payload) {
		h.ack(i)
		return
	}

	user, err := playerFromUser(interactionUser(i))
	if err != nil {
		h.ephemeral(i, "❌ "+err.Error())
		return
	}
	mv, err := h.engines.ParseMove(variant, payload)
	if err != nil {
		h.ephemeral(i, "❌ Invalid move")
		return
	}

	res := h.coord.SubmitMove(context.Background(), variant, key, user.ID, mv)
	switch {
	case res.Status == service.StatusSuccess, res.Final():
	case res.Status == service.StatusGameNotFound:
		h.boards.Delete(boardKey(variant, key))
		h.ephemeral(i, "⌛ "+res.Message)
		return
	default:
		h.ephemeral(i, "❌ "+res.Message)
		return
	}
	if res.Final() {
		h.boards.Delete(boardKey(variant, key))
	}

	view := present.Update(res)
	components := Components(view, variant, key)
	err = h.rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    view.Text,
			Components: components,
		},
	})
	if err != nil {
		log.Warn().Err(err).
			Str("variant", string(variant)).
			Str("session", key).
			Msg("Failed to update game board")
	}
}

// ack acknowledges a button press without changing the message.
func (h *Handler) ack(i *discordgo.Interaction) {
	err := h.rs.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to acknowledge Discord interaction")
	}
}

// SessionExpired implements service.ExpiryListener.
func (h *Handler) SessionExpired(variant model.Variant, key string, snap game.Snapshot) {
	v, ok := h.boards.LoadAndDelete(boardKey(variant, key))
	if !ok {
		return
	}
	ref := v.(boardRef)
	view := present.Expired(snap)
	components := []discordgo.MessageComponent{}
	_, err := h.rs.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         ref.MessageID,
		Channel:    ref.ChannelID,
		Content:    &view.Text,
		Components: &components,
	})
	if err != nil {
		log.Warn().Err(err).
			Str("variant", string(variant)).
			Str("session", key).
			Msg("Failed to close expired game board")
	}
}
