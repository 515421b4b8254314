// Package main is the entry point for the duel game bot.
package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"duel-game-bot/internal/bot"
	"duel-game-bot/internal/cache"
	"duel-game-bot/internal/config"
	"duel-game-bot/internal/discord"
	"duel-game-bot/internal/game"
	"duel-game-bot/internal/game/handcricket"
	"duel-game-bot/internal/game/rps"
	"duel-game-bot/internal/game/tictactoe"
	"duel-game-bot/internal/handler"
	"duel-game-bot/internal/pkg/db"
	"duel-game-bot/internal/pkg/scheduler"
	"duel-game-bot/internal/repository"
	"duel-game-bot/internal/service"
)

// matchLogCapacity bounds the in-memory match history.
const matchLogCapacity = 1000

// ratingBackend is what every storage driver provides.
type ratingBackend interface {
	service.RatingStore
	service.LeaderboardStore
	handler.UsernameUpdater
}

// storage is the wired storage layer.
type storage struct {
	ratings ratingBackend
	history service.MatchHistory
	sinks   []service.MatchSink
	closers []func()
}

func (s *storage) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.Log.Level); err == nil {
		zerolog.SetGlobalLevel(level)
	} else {
		log.Warn().Str("level", cfg.Log.Level).Msg("Unknown log level, using info")
	}
	log.Info().Str("storage", cfg.Storage.Driver).Msg("Configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.close()

	engines := game.NewRegistry()
	for _, e := range []game.Engine{rps.NewEngine(), tictactoe.NewEngine(), handcricket.NewEngine()} {
		if err := engines.Register(e); err != nil {
			log.Fatal().Err(err).Str("variant", string(e.Variant())).Msg("Failed to register game")
		}
	}
	log.Info().Int("game_count", engines.Count()).Msg("Games registered")

	ratings := service.NewRatingService(store.ratings, nil, cfg.Rating)
	leaderboard := service.NewLeaderboardService(store.ratings, store.history)
	coord := service.NewCoordinator(engines, scheduler.New(), cfg.Games, ratings,
		service.WithMatchSinks(store.sinks...))

	var stops []func()

	if cfg.Bot.Token != "" {
		telegramBot, err := bot.New(&bot.Dependencies{
			Config:      cfg,
			Coordinator: coord,
			Engines:     engines,
			Ratings:     ratings,
			Leaderboard: leaderboard,
			Names:       store.ratings,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Telegram bot")
		}
		go func() {
			log.Info().Msg("Telegram bot is starting...")
			telegramBot.Start()
		}()
		stops = append(stops, telegramBot.Stop)
	}

	if cfg.Discord.Token != "" {
		discordBot, err := discord.New(&discord.Dependencies{
			Config:      cfg,
			Coordinator: coord,
			Engines:     engines,
			Ratings:     ratings,
			Leaderboard: leaderboard,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create Discord bot")
		}
		if err := discordBot.Start(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start Discord bot")
		}
		stops = append(stops, func() {
			if err := discordBot.Stop(); err != nil {
				log.Warn().Err(err).Msg("Discord shutdown failed")
			}
		})
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	for _, stop := range stops {
		stop()
	}
	coord.Close()
	log.Info().Msg("Bot stopped gracefully")
}

// openStorage wires the configured rating store, match history and match
// sinks.
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	s := &storage{}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		pool, err := db.NewPool(ctx, &cfg.Database)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, pool.Close)
		if err := repository.Migrate(ctx, pool.Pool); err != nil {
			s.close()
			return nil, err
		}
		matches := repository.NewMatchRepository(pool.Pool)
		s.ratings = repository.NewRatingRepository(pool.Pool)
		s.history = matches
		s.sinks = append(s.sinks, matches)

	case config.DriverSQLite:
		repo, err := repository.NewSQLiteRatingRepository(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, closeLogged("sqlite", repo))
		s.ratings = repo

	default:
		s.ratings = repository.NewMemoryRatingStore()
	}

	if s.history == nil {
		matchLog := repository.NewMemoryMatchLog(matchLogCapacity)
		s.history = matchLog
		s.sinks = append(s.sinks, matchLog)
	}

	if cfg.Redis.Addr != "" {
		rdb, err := cache.Connect(ctx, cfg.Redis)
		if err != nil {
			s.close()
			return nil, err
		}
		s.closers = append(s.closers, closeLogged("redis", rdb))
		pub := cache.NewMatchPublisher(rdb, cfg.Redis.Queue)
		s.sinks = append(s.sinks, pub)
		log.Info().Str("addr", cfg.Redis.Addr).Str("queue", pub.Queue()).Msg("Publishing match events to Redis")
	}

	return s, nil
}

func closeLogged(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Warn().Err(err).Str("resource", name).Msg("Close failed")
		}
	}
}
