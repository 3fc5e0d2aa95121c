package cache

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestPublishGameAction needs a live Redis at REDIS_ADDR.
func TestPublishGameAction(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	queue := "bluff_actions_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)

	rec := GameActionRecord{
		GameID:        uuid.New(),
		LobbyID:       uuid.New(),
		ActionIndex:   1,
		ActorID:       uuid.New(),
		ActionType:    "PLAYER_PROPOSE_HAND",
		ActionPayload: map[string]interface{}{"cards": 2},
		Timestamp:     time.Now().UnixMilli(),
	}
	require.NoError(t, NewPublisher(rdb, queue).PublishGameAction(ctx, rec))

	data, err := rdb.LPop(ctx, queue).Bytes()
	require.NoError(t, err)
	var got GameActionRecord
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.GameID, got.GameID)
	assert.Equal(t, rec.ActionType, got.ActionType)
}

func TestConsumerPop(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	rdb, err := Connect(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	queue := "bluff_actions_test_" + uuid.NewString()
	defer rdb.Del(ctx, queue)
	consumer := NewConsumer(rdb, queue)

	_, ok, err := consumer.Pop(ctx, 100*time.Millisecond)
	require.NoError(t, err)
	assert.False(t, ok, "empty queue")

	require.NoError(t, rdb.RPush(ctx, queue, "{not json").Err())
	rec := GameActionRecord{GameID: uuid.New(), ActionIndex: 3, ActionType: "REVEAL"}
	require.NoError(t, NewPublisher(rdb, queue).PublishGameAction(ctx, rec))

	_, ok, err = consumer.Pop(ctx, time.Second)
	require.NoError(t, err)
	assert.False(t, ok, "garbage is skipped")

	got, ok, err := consumer.Pop(ctx, time.Second)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, rec.GameID, got.GameID)
	assert.Equal(t, 3, got.ActionIndex)
}
