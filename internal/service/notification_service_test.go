package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"socialhub/internal/models"
	"socialhub/internal/notifications"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationService_NotifyPublishes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.notificationService()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	sub := env.rdb.Subscribe(ctx, notifications.UserChannel(alice.ID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	svc.Notify(ctx, NotifyInput{Type: models.NotificationFollow, RecipientID: alice.ID, ActorID: bob.ID, Message: "followed you"})

	select {
	case msg := <-sub.Channel():
		var ev notifications.Event
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &ev))
		assert.Equal(t, "notification", ev.Type)
	case <-time.After(2 * time.Second):
		t.Fatal("no notification published")
	}

	// Acting on your own content is silent.
	svc.Notify(ctx, NotifyInput{Type: models.NotificationLike, RecipientID: alice.ID, ActorID: alice.ID})
	count, err := svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_NotifyWithoutRedis(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := NewNotificationService(env.notes, notifications.NewNotifier(nil))
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	svc.Notify(ctx, NotifyInput{Type: models.NotificationMention, RecipientID: alice.ID, ActorID: bob.ID})
	count, err := svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestNotificationService_ReadState(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := env.notificationService()
	alice := env.register(t, "alice")
	bob := env.register(t, "bob")

	for i := 0; i < 3; i++ {
		svc.Notify(ctx, NotifyInput{Type: models.NotificationMention, RecipientID: alice.ID, ActorID: bob.ID})
	}
	list, err := svc.List(ctx, alice.ID, true, PageRequest{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	require.NotNil(t, list[0].Actor)
	assert.Equal(t, bob.ID, list[0].Actor.ID)

	_, err = svc.MarkRead(ctx, bob.ID, list[0].ID)
	assertAppCode(t, err, models.CodeForbidden)
	_, err = svc.MarkRead(ctx, alice.ID, uuid.New())
	assertAppCode(t, err, models.CodeNotFound)

	read, err := svc.MarkRead(ctx, alice.ID, list[0].ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := svc.UnreadCount(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	n, err := svc.MarkAllRead(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	unread, err := svc.List(ctx, alice.ID, true, PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, unread)
}
