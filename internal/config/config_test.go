package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duel-game-bot/internal/model"
)

func validConfig() *Config {
	game := GameConfig{Timeout: 2 * time.Minute, AllowBot: true}
	return &Config{
		Bot:     BotConfig{Token: "tg"},
		Storage: StorageConfig{Driver: DriverMemory},
		Games:   GamesConfig{RPS: game, TicTacToe: game, HandCricket: game},
		Rating:  RatingConfig{KFactor: 32, Default: 1000},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"discord only", func(c *Config) { c.Bot.Token = ""; c.Discord.Token = "dc" }, ""},
		{"no tokens", func(c *Config) { c.Bot.Token = "" }, "token"},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "mongo" }, "unknown storage driver"},
		{"sqlite without path", func(c *Config) { c.Storage.Driver = DriverSQLite }, "sqlite_path"},
		{"timeout too short", func(c *Config) { c.Games.TicTacToe.Timeout = time.Millisecond }, "games.tictactoe.timeout"},
		{"timeout too long", func(c *Config) { c.Games.HandCricket.Timeout = 2 * time.Hour }, "games.handcricket.timeout"},
		{"zero k", func(c *Config) { c.Rating.KFactor = 0 }, "k_factor"},
		{"negative burst", func(c *Config) { c.RateLimit.Burst = -1 }, "rate_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsAdminAndIsChatAllowed(t *testing.T) {
	c := &Config{Admin: AdminConfig{IDs: []int64{1, 2}}}
	assert.True(t, c.IsAdmin(2))
	assert.False(t, c.IsAdmin(3))

	assert.True(t, c.IsChatAllowed(-100), "empty whitelist allows every chat")
	c.Whitelist.Chats = []int64{-100}
	assert.True(t, c.IsChatAllowed(-100))
	assert.False(t, c.IsChatAllowed(-200))
}

func TestGamesConfig_For(t *testing.T) {
	g := GamesConfig{RPS: GameConfig{Timeout: time.Minute}, HandCricket: GameConfig{RefreshOnMove: true}}

	rps, ok := g.For(model.VariantRPS)
	require.True(t, ok)
	assert.Equal(t, time.Minute, rps.Timeout)

	hc, ok := g.For(model.VariantHandCricket)
	require.True(t, ok)
	assert.True(t, hc.RefreshOnMove)

	_, ok = g.For(model.Variant("chess"))
	assert.False(t, ok)
}

func TestDSN(t *testing.T) {
	d := &DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5433, Name: "duels"}
	assert.Equal(t, "postgres://u:p@db:5433/duels?sslmode=disable", d.DSN())
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("BOT_TOKEN", "from-env")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Bot.Token)
	assert.Equal(t, DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 2*time.Minute, cfg.Games.RPS.Timeout)
	assert.False(t, cfg.Games.RPS.RefreshOnMove)
	assert.Equal(t, 3*time.Minute, cfg.Games.TicTacToe.Timeout)
	assert.True(t, cfg.Games.TicTacToe.RefreshOnMove)
	assert.Equal(t, 5*time.Minute, cfg.Games.HandCricket.Timeout)
	assert.Equal(t, 32.0, cfg.Rating.KFactor)
	assert.Equal(t, "duel_matches", cfg.Redis.Queue)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_File(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	yaml := `
bot:
  token: file-token
storage:
  driver: sqlite
  sqlite_path: /tmp/r.db
games:
  rps:
    timeout: 45s
admin:
  ids: [7, 8]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "file-token", cfg.Bot.Token)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, 45*time.Second, cfg.Games.RPS.Timeout)
	assert.Equal(t, []int64{7, 8}, cfg.Admin.IDs)
	assert.True(t, cfg.IsAdmin(8))
}
