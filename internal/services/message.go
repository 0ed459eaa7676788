package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"social-chat-backend/internal/models"
)

// systemBlockedText is the synthetic message shown to a sender whose
// message was blocked by the stranger-message gate
const systemBlockedText = "This user doesn't accept messages from strangers. Send a friend request to start chatting."

// MessageStore is the persistence contract for messages, satisfied by
// repository.MessageRepository
type MessageStore interface {
	Create(ctx context.Context, m *models.Message) error
	Conversation(ctx context.Context, userA, userB string) ([]*models.Message, error)
	LastBetween(ctx context.Context, userA, userB string) (*models.Message, error)
}

// MessagePayload is the content of an outgoing message; exactly one
// field is expected but any non-empty combination is accepted
type MessagePayload struct {
	Text    string `json:"text,omitempty"`
	Image   string `json:"image,omitempty"`
	Sticker string `json:"sticker,omitempty"`
}

// SidebarEntry pairs a user with the last message exchanged with them
type SidebarEntry struct {
	User        *models.User    `json:"user"`
	LastMessage *models.Message `json:"last_message,omitempty"`
}

// MessageService owns direct messaging and the messaging gate that
// authorizes each send
type MessageService struct {
	messages    MessageStore
	friendships FriendshipStore
	users       UserStore
	hub         *Hub
}

// NewMessageService creates a new message service
func NewMessageService(messages MessageStore, friendships FriendshipStore, users UserStore, hub *Hub) *MessageService {
	return &MessageService{
		messages:    messages,
		friendships: friendships,
		users:       users,
		hub:         hub,
	}
}

// CanSend decides whether a direct message from sender to receiver may
// be persisted and delivered. Rules in order, first match wins:
// self-notes are always allowed, an accepted friendship allows, the
// receiver's stranger-message preference allows, otherwise denied.
// The decision is evaluated fresh on every call; friendship state and
// the preference can change between calls.
func (s *MessageService) CanSend(ctx context.Context, senderID, receiverID string) (bool, error) {
	if senderID == receiverID {
		return true, nil
	}

	friends, err := s.friendships.AcceptedExists(ctx, senderID, receiverID)
	if err != nil {
		return false, err
	}
	if friends {
		return true, nil
	}

	receiver, err := s.users.GetByID(ctx, receiverID)
	if err != nil {
		if isNotFound(err) {
			return false, ErrUserNotFound
		}
		return false, err
	}
	return receiver.AllowStrangerMessage, nil
}

// Send runs the messaging gate and either persists and fans out the
// message, or returns a sender-only system message explaining the
// block. The system message is never persisted and never reaches the
// would-be receiver.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID string, payload MessagePayload) (*models.Message, error) {
	payload.Text = strings.TrimSpace(payload.Text)
	if payload.Text == "" && payload.Image == "" && payload.Sticker == "" {
		return nil, ErrEmptyMessage
	}

	allowed, err := s.CanSend(ctx, senderID, receiverID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		system := &models.Message{
			ID:         fmt.Sprintf("system-%d", time.Now().UnixMilli()),
			SenderID:   receiverID, // the notice speaks for the receiver
			ReceiverID: senderID,
			Text:       systemBlockedText,
			System:     true,
			CreatedAt:  time.Now(),
		}
		s.hub.PushToUser(senderID, EventNewMessage, system)
		return system, nil
	}

	m := &models.Message{
		ID:         uuid.New().String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       payload.Text,
		Image:      payload.Image,
		Sticker:    payload.Sticker,
		CreatedAt:  time.Now(),
	}
	if err := s.messages.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	// The sender may be watching the conversation from another tab, so
	// the new message goes to both ends.
	s.hub.Push([]string{receiverID, senderID}, EventNewMessage, m)
	return m, nil
}

// Conversation returns every message between the caller and the other
// user in chronological order
func (s *MessageService) Conversation(ctx context.Context, userID, otherID string) ([]*models.Message, error) {
	return s.messages.Conversation(ctx, userID, otherID)
}

// Sidebar returns all other users together with the last message
// exchanged with each, for the conversation list
func (s *MessageService) Sidebar(ctx context.Context, userID string) ([]*SidebarEntry, error) {
	users, err := s.users.ListOthers(ctx, userID)
	if err != nil {
		return nil, err
	}

	entries := make([]*SidebarEntry, 0, len(users))
	for _, u := range users {
		last, err := s.messages.LastBetween(ctx, userID, u.ID)
		if err != nil && !isNotFound(err) {
			return nil, err
		}
		entries = append(entries, &SidebarEntry{User: u, LastMessage: last})
	}
	return entries, nil
}
