// Package bot wires the Telegram front end: the telebot instance, its
// middleware and command routing.
package bot

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/game"
	"duel-game-bot/internal/handler"
	"duel-game-bot/internal/model"
	"duel-game-bot/internal/pkg/ratelimit"
	"duel-game-bot/internal/service"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot *tele.Bot
	cfg *config.Config

	gameHandler    *handler.GameHandler
	rankingHandler *handler.RankingHandler
	adminHandler   *handler.AdminHandler
	limiter        *ratelimit.Limiter
}

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Config      *config.Config
	Coordinator *service.Coordinator
	Engines     *game.Registry
	Ratings     *service.RatingService
	Leaderboard *service.LeaderboardService
	Names       handler.UsernameUpdater
}

// challengeCommands maps commands to the variant they start.
var challengeCommands = map[string]model.Variant{
	"/rps":     model.VariantRPS,
	"/ttt":     model.VariantTicTacToe,
	"/cricket": model.VariantHandCricket,
}

// New creates the Telegram bot and registers it for session expiry events.
func New(deps *Dependencies) (*Bot, error) {
	if deps.Config.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  deps.Config.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error().Err(err).Msg("Telegram handler failed")
		},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := &Bot{
		bot:     teleBot,
		cfg:     deps.Config,
		limiter: ratelimit.New(deps.Config.RateLimit.PerSecond, deps.Config.RateLimit.Burst),
	}

	b.gameHandler = handler.NewGameHandler(deps.Coordinator, deps.Engines, teleBot)
	b.rankingHandler = handler.NewRankingHandler(deps.Ratings, deps.Leaderboard)
	b.adminHandler = handler.NewAdminHandler(deps.Coordinator, deps.Names)
	deps.Coordinator.AddExpiryListener(b.gameHandler)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// registerMiddleware registers all middleware. Recovery is outermost so it
// also covers the other middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
	b.bot.Use(RateLimitMiddleware(b.limiter))
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", handler.HandleHelp)
	b.bot.Handle("/help", handler.HandleHelp)

	for cmd, variant := range challengeCommands {
		b.bot.Handle(cmd, b.gameHandler.HandleChallenge(variant))
	}

	b.bot.Handle("/rating", b.rankingHandler.HandleRating)
	b.bot.Handle("/top", b.rankingHandler.HandleTop)
	b.bot.Handle("/history", b.rankingHandler.HandleHistory)

	adminGroup := b.bot.Group()
	adminGroup.Use(AdminMiddleware(b.cfg))
	adminGroup.Handle("/sessions", b.adminHandler.HandleSessions)
	adminGroup.Handle("/admin_rename", b.adminHandler.HandleRename)

	b.bot.Handle(tele.OnCallback, b.gameHandler.HandleCallback)
}

// Start starts polling. It blocks until Stop is called.
func (b *Bot) Start() {
	log.Info().Str("username", b.bot.Me.Username).Msg("Starting Telegram bot")
	b.bot.Start()
}

// Stop stops polling.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping Telegram bot")
	b.bot.Stop()
}
