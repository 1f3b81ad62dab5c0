package notifications

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_NilClientIsNoop(t *testing.T) {
	n := NewNotifier(nil)
	assert.NoError(t, n.PublishUser(context.Background(), uuid.New(), "like", map[string]string{"a": "b"}))

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.PublishUser(context.Background(), uuid.New(), "like", nil))
}

func TestUserChannel(t *testing.T) {
	id := uuid.MustParse("6f1c2f7e-3c4b-4d0e-9a55-0d3f5d8a1b22")
	assert.Equal(t, "notifications:user:6f1c2f7e-3c4b-4d0e-9a55-0d3f5d8a1b22", UserChannel(id))
}

func TestNotifier_PublishUser(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	userID := uuid.New()
	ctx := context.Background()
	sub := rdb.Subscribe(ctx, UserChannel(userID))
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	n := NewNotifier(rdb)
	require.NoError(t, n.PublishUser(ctx, userID, "comment", map[string]string{"message": "hi"}))

	select {
	case msg := <-sub.Channel():
		var ev Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, "comment", ev.Type)
		assert.Equal(t, map[string]any{"message": "hi"}, ev.Payload)
	case <-time.After(time.Second):
		t.Fatal("no message received")
	}
}
