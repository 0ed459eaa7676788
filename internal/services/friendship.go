package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"social-chat-backend/internal/models"
)

// FriendshipStore is the persistence contract of the friendship state
// machine, satisfied by repository.FriendshipRepository. Transition
// methods are conditional on the pre-state and return a not-found error
// when the precondition no longer holds; that conditional update is the
// only guard against concurrent transitions on the same record.
type FriendshipStore interface {
	Create(ctx context.Context, f *models.Friendship) error
	GetByPair(ctx context.Context, userA, userB string) (*models.Friendship, error)
	Revive(ctx context.Context, id, requesterID, recipientID string) (*models.Friendship, error)
	UpdatePendingStatus(ctx context.Context, requesterID, recipientID string, status models.FriendshipStatus) (*models.Friendship, error)
	DeletePending(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error)
	DeleteAccepted(ctx context.Context, userA, userB string) (*models.Friendship, error)
	AcceptedExists(ctx context.Context, userA, userB string) (bool, error)
	ListFriendIDs(ctx context.Context, userID string) ([]string, error)
	ListPending(ctx context.Context, userID string, sent bool) ([]*models.Friendship, error)
	CountFriends(ctx context.Context, userID string) (int, error)
}

// FriendshipService implements the relationship lifecycle between two
// users: none -> pending -> accepted/declined, with cancel and unfriend
// removing the record. Each successful transition persists first,
// records a ledger notification where the transition calls for one, and
// only then pushes a friendshipUpdate event to both parties. The push
// is best-effort and never fails the operation.
type FriendshipService struct {
	friendships   FriendshipStore
	users         UserStore
	notifications *NotificationService
	hub           *Hub
}

// NewFriendshipService creates a new friendship service
func NewFriendshipService(friendships FriendshipStore, users UserStore, notifications *NotificationService, hub *Hub) *FriendshipService {
	return &FriendshipService{
		friendships:   friendships,
		users:         users,
		notifications: notifications,
		hub:           hub,
	}
}

// SendRequest creates a pending request from requester to recipient.
// A declined record between the pair is revived in place rather than
// duplicated; a pending or accepted record is a conflict.
func (s *FriendshipService) SendRequest(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	if requesterID == recipientID {
		return nil, ErrSelfRequest
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	existing, err := s.friendships.GetByPair(ctx, requesterID, recipientID)
	switch {
	case err == nil && existing.Status == models.FriendshipDeclined:
		// Revive the declined record under the fresh direction; keeps
		// the at-most-one-record-per-pair invariant.
		revived, err := s.friendships.Revive(ctx, existing.ID, requesterID, recipientID)
		if err != nil {
			if isNotFound(err) {
				// Lost a race with another transition on the record.
				return nil, ErrRequestExists
			}
			return nil, err
		}
		if err := s.afterTransition(ctx, revived, FriendshipNewRequest, recipientID, models.NotificationFriendRequest); err != nil {
			return nil, err
		}
		return revived, nil

	case err == nil:
		return nil, ErrRequestExists

	case !isNotFound(err):
		return nil, err
	}

	now := time.Now()
	f := &models.Friendship{
		ID:          uuid.New().String(),
		RequesterID: requesterID,
		RecipientID: recipientID,
		Status:      models.FriendshipPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.friendships.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to create friend request: %w", err)
	}

	if err := s.afterTransition(ctx, f, FriendshipNewRequest, recipientID, models.NotificationFriendRequest); err != nil {
		return nil, err
	}
	return f, nil
}

// Accept moves a pending request to accepted. Only the recipient of
// the request may accept; a requester attempting to accept their own
// request observes not-found.
func (s *FriendshipService) Accept(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error) {
	f, err := s.friendships.UpdatePendingStatus(ctx, requesterID, recipientID, models.FriendshipAccepted)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, err
	}

	if err := s.afterTransition(ctx, f, FriendshipRequestAccepted, requesterID, models.NotificationFriendAccepted); err != nil {
		return nil, err
	}
	return f, nil
}

// Decline moves a pending request to declined; same precondition as
// Accept. The record survives so a later request can revive it.
func (s *FriendshipService) Decline(ctx context.Context, recipientID, requesterID string) (*models.Friendship, error) {
	f, err := s.friendships.UpdatePendingStatus(ctx, requesterID, recipientID, models.FriendshipDeclined)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrFriendRequestNotFound
		}
		return nil, err
	}

	if err := s.afterTransition(ctx, f, FriendshipRequestDeclined, requesterID, models.NotificationFriendDeclined); err != nil {
		return nil, err
	}
	return f, nil
}

// Cancel deletes a pending request; only the original requester may
// cancel. No ledger notification is recorded for a cancel.
func (s *FriendshipService) Cancel(ctx context.Context, requesterID, recipientID string) error {
	f, err := s.friendships.DeletePending(ctx, requesterID, recipientID)
	if err != nil {
		if isNotFound(err) {
			return ErrFriendRequestNotFound
		}
		return err
	}

	s.pushUpdate(f, FriendshipRequestCancelled)
	return nil
}

// Unfriend deletes an accepted friendship; either party may unfriend.
// No ledger notification is recorded for an unfriend.
func (s *FriendshipService) Unfriend(ctx context.Context, userID, friendID string) error {
	f, err := s.friendships.DeleteAccepted(ctx, userID, friendID)
	if err != nil {
		if isNotFound(err) {
			return ErrFriendshipNotFound
		}
		return err
	}

	s.pushUpdate(f, FriendshipUnfriended)
	return nil
}

// afterTransition records the ledger notification for the counterpart
// and then pushes the transition to both parties. The notification is
// part of the operation's success contract: a failure here fails the
// whole operation even though the record is already mutated. The push
// is never part of the contract.
func (s *FriendshipService) afterTransition(ctx context.Context, f *models.Friendship, kind, notifyUserID string, notifType models.NotificationType) error {
	_, err := s.notifications.Create(ctx, notifyUserID, f.CounterpartID(notifyUserID), notifType, NotificationRefs{FriendshipID: &f.ID})
	if err != nil {
		log.Error().Err(err).Str("friendship_id", f.ID).Str("type", kind).Msg("Failed to record friendship notification")
		return fmt.Errorf("failed to record notification: %w", err)
	}
	s.pushUpdate(f, kind)
	return nil
}

// pushUpdate delivers the canonical friendshipUpdate event to both
// parties of the record
func (s *FriendshipService) pushUpdate(f *models.Friendship, kind string) {
	s.hub.Push([]string{f.RequesterID, f.RecipientID}, EventFriendshipUpdate, FriendshipUpdate{
		Type:       kind,
		Friendship: f,
	})
}

// Friends returns the profiles of the user's accepted friends
func (s *FriendshipService) Friends(ctx context.Context, userID string) ([]*models.User, error) {
	ids, err := s.friendships.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.users.GetByIDs(ctx, ids)
}

// SentRequests returns the user's outgoing pending requests
func (s *FriendshipService) SentRequests(ctx context.Context, userID string) ([]*models.Friendship, error) {
	return s.friendships.ListPending(ctx, userID, true)
}

// ReceivedRequests returns the user's incoming pending requests
func (s *FriendshipService) ReceivedRequests(ctx context.Context, userID string) ([]*models.Friendship, error) {
	return s.friendships.ListPending(ctx, userID, false)
}

// FriendCount returns the number of accepted friendships of a user
func (s *FriendshipService) FriendCount(ctx context.Context, userID string) (int, error) {
	return s.friendships.CountFriends(ctx, userID)
}

// AreFriends reports whether an accepted friendship exists between two
// users, in either direction
func (s *FriendshipService) AreFriends(ctx context.Context, userA, userB string) (bool, error) {
	return s.friendships.AcceptedExists(ctx, userA, userB)
}
