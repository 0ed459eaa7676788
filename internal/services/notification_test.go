package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"social-chat-backend/internal/models"
)

type notificationEnv struct {
	svc    *NotificationService
	store  *fakeNotificationStore
	users  *fakeUserStore
	hub    *Hub
	pusher *fakePusher
}

func newNotificationEnv(t *testing.T) *notificationEnv {
	t.Helper()
	users := newFakeUserStore(testUser("alice", "Alice"), testUser("bob", "Bob"))
	store := newFakeNotificationStore()
	hub := NewHub(NewPresence())
	pusher := &fakePusher{}
	return &notificationEnv{
		svc:    NewNotificationService(store, users, hub, pusher),
		store:  store,
		users:  users,
		hub:    hub,
		pusher: pusher,
	}
}

func TestNotificationMessage_KnownKinds(t *testing.T) {
	cases := map[models.NotificationType]string{
		models.NotificationFriendRequest:  "Alice sent you a friend request",
		models.NotificationFriendAccepted: "Alice accepted your friend request",
		models.NotificationFriendDeclined: "Alice declined your friend request",
		models.NotificationPostLike:       "Alice liked your post!",
		models.NotificationPostComment:    "Alice commented on your post!",
		models.NotificationCommentReply:   "Alice replied to your comment!",
	}
	for kind, want := range cases {
		got, err := notificationMessage(kind, "Alice")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestNotificationMessage_UnknownKind(t *testing.T) {
	_, err := notificationMessage(models.NotificationType("mystery"), "Alice")
	assert.Error(t, err)
}

func TestCreate_PersistsAndPushesLive(t *testing.T) {
	env := newNotificationEnv(t)
	conn := &fakeConn{}
	env.hub.Presence().Register("bob", conn)

	n, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationFriendRequest, NotificationRefs{})
	require.NoError(t, err)
	assert.Equal(t, "Alice sent you a friend request", n.Message)
	assert.False(t, n.IsRead)

	require.Len(t, env.store.forUser("bob"), 1)
	assert.Len(t, conn.eventsNamed(t, EventNotification), 1)
	assert.Empty(t, env.pusher.pushes)
}

func TestCreate_OfflineRecipientGetsMobilePush(t *testing.T) {
	env := newNotificationEnv(t)
	token := "device-token"
	require.NoError(t, env.users.UpdatePushToken(context.Background(), "bob", &token))

	_, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationPostLike, NotificationRefs{})
	require.NoError(t, err)

	require.Len(t, env.pusher.pushes, 1)
	assert.Equal(t, "device-token: Alice liked your post!", env.pusher.pushes[0])
}

func TestCreate_OfflineWithoutTokenSkipsMobilePush(t *testing.T) {
	env := newNotificationEnv(t)

	_, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationPostLike, NotificationRefs{})
	require.NoError(t, err)
	assert.Empty(t, env.pusher.pushes)
}

func TestCreate_PusherFailureDoesNotFailOperation(t *testing.T) {
	env := newNotificationEnv(t)
	env.pusher.err = assert.AnError
	token := "device-token"
	require.NoError(t, env.users.UpdatePushToken(context.Background(), "bob", &token))

	n, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationFriendAccepted, NotificationRefs{})
	require.NoError(t, err)
	require.Len(t, env.store.forUser("bob"), 1)
	assert.NotEmpty(t, n.ID)
}

func TestRecord_OnlineRecipientNoGenericPush(t *testing.T) {
	env := newNotificationEnv(t)
	conn := &fakeConn{}
	env.hub.Presence().Register("bob", conn)

	n, err := env.svc.Record(context.Background(), "bob", "alice", models.NotificationPostLike, NotificationRefs{})
	require.NoError(t, err)
	assert.Equal(t, "Alice liked your post!", n.Message)

	require.Len(t, env.store.forUser("bob"), 1)
	assert.Empty(t, conn.events(t))
	assert.Empty(t, env.pusher.pushes)
}

func TestRecord_OfflineRecipientGetsMobilePush(t *testing.T) {
	env := newNotificationEnv(t)
	token := "device-token"
	require.NoError(t, env.users.UpdatePushToken(context.Background(), "bob", &token))

	_, err := env.svc.Record(context.Background(), "bob", "alice", models.NotificationPostComment, NotificationRefs{})
	require.NoError(t, err)

	require.Len(t, env.pusher.pushes, 1)
	assert.Equal(t, "device-token: Alice commented on your post!", env.pusher.pushes[0])
}

func TestMarkRead_OwnedNotification(t *testing.T) {
	env := newNotificationEnv(t)
	n, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationFriendRequest, NotificationRefs{})
	require.NoError(t, err)

	read, err := env.svc.MarkRead(context.Background(), n.ID, "bob")
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := env.svc.UnreadCount(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestMarkRead_NotOwned(t *testing.T) {
	env := newNotificationEnv(t)
	n, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationFriendRequest, NotificationRefs{})
	require.NoError(t, err)

	_, err = env.svc.MarkRead(context.Background(), n.ID, "alice")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestMarkAllRead(t *testing.T) {
	env := newNotificationEnv(t)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, err := env.svc.Create(ctx, "bob", "alice", models.NotificationPostComment, NotificationRefs{})
		require.NoError(t, err)
	}

	require.NoError(t, env.svc.MarkAllRead(ctx, "bob"))

	count, err := env.svc.UnreadCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestDelete_NotOwned(t *testing.T) {
	env := newNotificationEnv(t)
	n, err := env.svc.Create(context.Background(), "bob", "alice", models.NotificationFriendRequest, NotificationRefs{})
	require.NoError(t, err)

	err = env.svc.Delete(context.Background(), n.ID, "alice")
	assert.ErrorIs(t, err, ErrNotificationNotFound)

	require.NoError(t, env.svc.Delete(context.Background(), n.ID, "bob"))
	assert.Empty(t, env.store.forUser("bob"))
}

func TestListForUser_NewestFirstAndClamped(t *testing.T) {
	env := newNotificationEnv(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := env.svc.Create(ctx, "bob", "alice", models.NotificationPostLike, NotificationRefs{})
		require.NoError(t, err)
	}

	notes, err := env.svc.ListForUser(ctx, "bob", 3)
	require.NoError(t, err)
	assert.Len(t, notes, 3)

	// A non-positive limit falls back to the default.
	notes, err = env.svc.ListForUser(ctx, "bob", 0)
	require.NoError(t, err)
	assert.Len(t, notes, 5)
}
