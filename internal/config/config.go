// Package config provides configuration management using viper.
// It supports loading from an optional .env file, a YAML file and
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"duel-game-bot/internal/model"
)

// Timeout bounds accepted for any game variant.
const (
	MinGameTimeout = time.Second
	MaxGameTimeout = time.Hour
)

// Config holds all application configuration.
type Config struct {
	Bot       BotConfig       `mapstructure:"bot"`
	Discord   DiscordConfig   `mapstructure:"discord"`
	Log       LogConfig       `mapstructure:"log"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Whitelist WhitelistConfig `mapstructure:"whitelist"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Games     GamesConfig     `mapstructure:"games"`
	Rating    RatingConfig    `mapstructure:"rating"`
}

// BotConfig holds Telegram bot configuration.
type BotConfig struct {
	Token string `mapstructure:"token"`
}

// DiscordConfig holds Discord gateway configuration.
// GuildID limits slash command registration to one guild; empty registers globally.
type DiscordConfig struct {
	Token   string `mapstructure:"token"`
	AppID   string `mapstructure:"app_id"`
	GuildID string `mapstructure:"guild_id"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Storage drivers understood by StorageConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// StorageConfig selects the rating store backend.
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the match event queue configuration.
// An empty Addr disables publishing.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Queue    string `mapstructure:"queue"`
}

// AdminConfig holds admin user configuration.
type AdminConfig struct {
	IDs []int64 `mapstructure:"ids"`
}

// WhitelistConfig holds chat whitelist configuration.
type WhitelistConfig struct {
	Chats []int64 `mapstructure:"chats"`
}

// RateLimitConfig throttles commands and button presses per user.
type RateLimitConfig struct {
	PerSecond float64 `mapstructure:"per_second"`
	Burst     int     `mapstructure:"burst"`
}

// GamesConfig holds game-specific configuration.
type GamesConfig struct {
	RPS         GameConfig `mapstructure:"rps"`
	TicTacToe   GameConfig `mapstructure:"tictactoe"`
	HandCricket GameConfig `mapstructure:"handcricket"`
}

// For returns the settings of variant v.
func (g GamesConfig) For(v model.Variant) (GameConfig, bool) {
	switch v {
	case model.VariantRPS:
		return g.RPS, true
	case model.VariantTicTacToe:
		return g.TicTacToe, true
	case model.VariantHandCricket:
		return g.HandCricket, true
	}
	return GameConfig{}, false
}

// GameConfig holds the session lifecycle settings of one variant.
type GameConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	RefreshOnMove bool          `mapstructure:"refresh_on_move"`
	AllowBot      bool          `mapstructure:"allow_bot"`
}

// RatingConfig holds Elo parameters.
type RatingConfig struct {
	KFactor float64 `mapstructure:"k_factor"`
	Default float64 `mapstructure:"default"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// Load reads configuration from .env, config.yaml and environment variables.
// It looks for config.yaml in configPath, the working directory and ./config.
func Load(configPath string) (*Config, error) {
	// .env is optional; real environment variables win over its values.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. BOT_TOKEN, DISCORD_TOKEN, GAMES_RPS_TIMEOUT
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// AutomaticEnv only resolves keys viper already knows about.
	v.SetDefault("bot.token", "")
	v.SetDefault("discord.token", "")
	v.SetDefault("discord.app_id", "")
	v.SetDefault("discord.guild_id", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "data/ratings.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "gamebot")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "gamebot")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.queue", "duel_matches")

	v.SetDefault("rate_limit.per_second", 2.0)
	v.SetDefault("rate_limit.burst", 5)

	v.SetDefault("games.rps.timeout", "2m")
	v.SetDefault("games.rps.refresh_on_move", false)
	v.SetDefault("games.rps.allow_bot", true)
	v.SetDefault("games.tictactoe.timeout", "3m")
	v.SetDefault("games.tictactoe.refresh_on_move", true)
	v.SetDefault("games.tictactoe.allow_bot", true)
	v.SetDefault("games.handcricket.timeout", "5m")
	v.SetDefault("games.handcricket.refresh_on_move", true)
	v.SetDefault("games.handcricket.allow_bot", true)

	v.SetDefault("rating.k_factor", 32.0)
	v.SetDefault("rating.default", 1000.0)
}

// Validate checks the configuration for values the bot cannot run with.
func (c *Config) Validate() error {
	if c.Bot.Token == "" && c.Discord.Token == "" {
		return errors.New("at least one of bot.token or discord.token is required")
	}

	switch c.Storage.Driver {
	case DriverMemory, DriverPostgres:
	case DriverSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	for name, g := range map[string]GameConfig{
		"rps":         c.Games.RPS,
		"tictactoe":   c.Games.TicTacToe,
		"handcricket": c.Games.HandCricket,
	} {
		if g.Timeout < MinGameTimeout || g.Timeout > MaxGameTimeout {
			return fmt.Errorf("games.%s.timeout must be between %s and %s, got %s",
				name, MinGameTimeout, MaxGameTimeout, g.Timeout)
		}
	}

	if c.Rating.KFactor <= 0 {
		return errors.New("rating.k_factor must be positive")
	}
	if c.RateLimit.PerSecond < 0 || c.RateLimit.Burst < 0 {
		return errors.New("rate_limit values must not be negative")
	}
	return nil
}

// IsAdmin checks if a user ID is in the admin list.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.Admin.IDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsChatAllowed checks if a chat ID is in the whitelist.
func (c *Config) IsChatAllowed(chatID int64) bool {
	// Empty whitelist means all chats are allowed
	if len(c.Whitelist.Chats) == 0 {
		return true
	}
	for _, id := range c.Whitelist.Chats {
		if id == chatID {
			return true
		}
	}
	return false
}
