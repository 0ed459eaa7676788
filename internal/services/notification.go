package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"social-chat-backend/internal/models"
)

// NotificationStore is the persistence contract of the notification
// ledger, satisfied by repository.NotificationRepository
type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, id, userID string) (*models.Notification, error)
	MarkAllRead(ctx context.Context, userID string) error
	UnreadCount(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, userID string) error
}

// Pusher sends a mobile push alert to a device token. Implemented by
// the APNs client; nil disables the channel.
type Pusher interface {
	Push(ctx context.Context, deviceToken, alert string) error
}

// NotificationRefs carries the optional entity references of a
// notification
type NotificationRefs struct {
	FriendshipID *string
	PostID       *string
	CommentID    *string
}

const defaultListLimit = 50

// NotificationService owns the durable notification ledger. Records are
// created synchronously with the triggering domain event; the live push
// and the mobile push are best-effort side channels that never fail the
// operation.
type NotificationService struct {
	notifications NotificationStore
	users         UserStore
	hub           *Hub
	pusher        Pusher
}

// NewNotificationService creates a new notification service. pusher
// may be nil when mobile push is not configured.
func NewNotificationService(notifications NotificationStore, users UserStore, hub *Hub, pusher Pusher) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		users:         users,
		hub:           hub,
		pusher:        pusher,
	}
}

// notificationMessage produces the human-readable text for a
// notification kind. The switch is exhaustive over the known kinds; an
// unknown kind is an error rather than a silent default string.
func notificationMessage(t models.NotificationType, senderName string) (string, error) {
	switch t {
	case models.NotificationFriendRequest:
		return senderName + " sent you a friend request", nil
	case models.NotificationFriendAccepted:
		return senderName + " accepted your friend request", nil
	case models.NotificationFriendDeclined:
		return senderName + " declined your friend request", nil
	case models.NotificationPostLike:
		return senderName + " liked your post!", nil
	case models.NotificationPostComment:
		return senderName + " commented on your post!", nil
	case models.NotificationCommentReply:
		return senderName + " replied to your comment!", nil
	}
	return "", fmt.Errorf("unknown notification type %q", t)
}

// Create records a notification for the recipient and pushes it over
// the live channel as a `notification` event, falling back to a mobile
// push when the recipient is offline and has a registered device token.
// The returned error covers only the durable record; side-channel
// failures are logged.
func (s *NotificationService) Create(ctx context.Context, recipientID, senderID string, t models.NotificationType, refs NotificationRefs) (*models.Notification, error) {
	n, err := s.record(ctx, recipientID, senderID, t, refs)
	if err != nil {
		return nil, err
	}

	if s.hub.Presence().IsOnline(n.RecipientID) {
		s.hub.PushToUser(n.RecipientID, EventNotification, n)
	} else {
		s.pushMobile(ctx, n)
	}
	return n, nil
}

// Record persists a notification without the generic live push; the
// caller owns the live event so each domain transition reaches the
// recipient under exactly one event name. Offline recipients still get
// the mobile fallback.
func (s *NotificationService) Record(ctx context.Context, recipientID, senderID string, t models.NotificationType, refs NotificationRefs) (*models.Notification, error) {
	n, err := s.record(ctx, recipientID, senderID, t, refs)
	if err != nil {
		return nil, err
	}

	if !s.hub.Presence().IsOnline(n.RecipientID) {
		s.pushMobile(ctx, n)
	}
	return n, nil
}

func (s *NotificationService) record(ctx context.Context, recipientID, senderID string, t models.NotificationType, refs NotificationRefs) (*models.Notification, error) {
	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load notification sender: %w", err)
	}

	message, err := notificationMessage(t, sender.FullName)
	if err != nil {
		return nil, err
	}

	n := &models.Notification{
		ID:           uuid.New().String(),
		RecipientID:  recipientID,
		SenderID:     senderID,
		Type:         t,
		FriendshipID: refs.FriendshipID,
		PostID:       refs.PostID,
		CommentID:    refs.CommentID,
		Message:      message,
		CreatedAt:    time.Now(),
	}
	if err := s.notifications.Create(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// pushMobile sends the notification to the recipient's mobile device
func (s *NotificationService) pushMobile(ctx context.Context, n *models.Notification) {
	if s.pusher == nil {
		return
	}

	recipient, err := s.users.GetByID(ctx, n.RecipientID)
	if err != nil || recipient.PushToken == nil {
		return
	}
	if err := s.pusher.Push(ctx, *recipient.PushToken, n.Message); err != nil {
		log.Error().Err(err).Str("user_id", n.RecipientID).Msg("Failed to send mobile push")
	}
}

// ListForUser returns the user's notifications, newest first
func (s *NotificationService) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > defaultListLimit {
		limit = defaultListLimit
	}
	return s.notifications.ListForUser(ctx, userID, limit)
}

// MarkRead marks one notification as read; a notification not owned by
// the caller reports not-found
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) (*models.Notification, error) {
	n, err := s.notifications.MarkRead(ctx, id, userID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return n, nil
}

// MarkAllRead marks every notification of the user as read
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	return nil
}

// UnreadCount returns the user's unread notification count
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	return s.notifications.UnreadCount(ctx, userID)
}

// Delete removes one notification; a notification not owned by the
// caller reports not-found
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.notifications.Delete(ctx, id, userID); err != nil {
		if isNotFound(err) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}
