package cache

import (
	"context"
	"encoding/json"
	"os/exec"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"duel-game-bot/internal/config"
	"duel-game-bot/internal/model"
)

func checkDockerAvailable() bool {
	return exec.Command("docker", "info").Run() == nil
}

// setupRedis starts a Redis container and returns a connected client.
func setupRedis(t *testing.T) *redis.Client {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	addr, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	rdb, err := Connect(ctx, config.RedisConfig{Addr: addr})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestMatchPublisher_Record(t *testing.T) {
	rdb := setupRedis(t)
	pub := NewMatchPublisher(rdb, "")
	ctx := context.Background()

	rec := &model.MatchRecord{
		ID:         uuid.New(),
		SessionKey: "42:7",
		Variant:    model.VariantTicTacToe,
		GuildID:    42,
		Player1ID:  1,
		Player2ID:  2,
		WinnerID:   2,
		Reason:     model.EndCompleted,
		Rated:      true,
		StartedAt:  time.Now().Add(-time.Minute).UTC(),
		EndedAt:    time.Now().UTC(),
	}
	require.NoError(t, pub.Record(ctx, rec))

	assert.Equal(t, DefaultQueueName, pub.Queue())
	raw, err := rdb.LPop(ctx, DefaultQueueName).Result()
	require.NoError(t, err)

	var got model.MatchRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &got))
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, rec.Variant, got.Variant)
	assert.Equal(t, rec.WinnerID, got.WinnerID)
}

func TestConnect_Unreachable(t *testing.T) {
	_, err := Connect(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1"})
	assert.Error(t, err)
}
