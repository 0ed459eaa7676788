package services

import (
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"social-chat-backend/internal/models"
)

// Server-to-client event names. Each carries a fixed payload shape
// consumed by the frontend.
const (
	EventNewMessage        = "newMessage"        // *models.Message
	EventTyping            = "typing"            // sender user ID
	EventStopTyping        = "stopTyping"        // sender user ID
	EventOnlineUsers       = "getOnlineUsers"    // []string of online user IDs
	EventFriendshipUpdate  = "friendshipUpdate"  // FriendshipUpdate
	EventNotification      = "notification"      // *models.Notification
	EventPostNotification  = "postNotification"  // *models.Notification
	EventPostLikeUpdate    = "postLikeUpdate"    // PostLikeUpdate
	EventPostCommentUpdate = "postCommentUpdate" // PostCommentUpdate
	EventNewPost           = "newPost"           // *models.Post
)

// Friendship transition kinds carried by EventFriendshipUpdate
const (
	FriendshipNewRequest       = "new_request"
	FriendshipRequestAccepted  = "request_accepted"
	FriendshipRequestDeclined  = "request_declined"
	FriendshipRequestCancelled = "request_cancelled"
	FriendshipUnfriended       = "unfriended"
)

// Event is the wire envelope for every server-to-client push
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data,omitempty"`
}

// FriendshipUpdate describes a friendship transition and the resulting
// record snapshot
type FriendshipUpdate struct {
	Type       string             `json:"type"`
	Friendship *models.Friendship `json:"friendship"`
}

// PostLikeUpdate describes a like-count change on a post
type PostLikeUpdate struct {
	PostID    string `json:"post_id"`
	LikeCount int    `json:"like_count"`
	UserID    string `json:"user_id"`
}

// PostCommentUpdate describes a new comment or reply on a post
type PostCommentUpdate struct {
	PostID  string          `json:"post_id"`
	Comment *models.Comment `json:"comment"`
}

var (
	pushesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_pushes_delivered_total",
			Help: "Events delivered to a live connection, by event name.",
		},
		[]string{"event"},
	)
	pushesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_pushes_skipped_total",
			Help: "Events skipped because the target user was offline.",
		},
		[]string{"event"},
	)
	pushFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fanout_push_failures_total",
			Help: "Write failures while delivering an event.",
		},
	)
)

// Hub is the real-time fan-out layer: it resolves target users to live
// connections through the presence registry and pushes event payloads.
// Delivery is best-effort at-most-once; failures are logged, never
// surfaced to the triggering operation.
type Hub struct {
	presence *Presence
}

// NewHub creates a hub over the given presence registry
func NewHub(presence *Presence) *Hub {
	return &Hub{presence: presence}
}

// Presence exposes the registry for online checks
func (h *Hub) Presence() *Presence {
	return h.presence
}

// Connect registers a user's connection and broadcasts the updated
// online-user set to every client
func (h *Hub) Connect(userID string, conn Conn) {
	h.presence.Register(userID, conn)
	h.Broadcast(EventOnlineUsers, h.presence.OnlineUserIDs())
}

// Disconnect unregisters a user's connection and broadcasts the
// updated online-user set. Safe to call for an already-absent user.
func (h *Hub) Disconnect(userID string, conn Conn) {
	h.presence.Unregister(userID, conn)
	h.Broadcast(EventOnlineUsers, h.presence.OnlineUserIDs())
}

// Push delivers an event to each target user that has a live
// connection; offline targets are silently skipped.
func (h *Hub) Push(userIDs []string, event string, payload any) {
	data, err := json.Marshal(Event{Name: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal event")
		return
	}

	seen := make(map[string]bool, len(userIDs))
	for _, userID := range userIDs {
		if seen[userID] {
			continue
		}
		seen[userID] = true

		conn, ok := h.presence.Resolve(userID)
		if !ok {
			pushesSkipped.WithLabelValues(event).Inc()
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			pushFailures.Inc()
			log.Error().Err(err).Str("user_id", userID).Str("event", event).Msg("Failed to deliver event")
			h.Disconnect(userID, conn)
			continue
		}
		pushesDelivered.WithLabelValues(event).Inc()
	}
}

// PushToUser delivers an event to a single user
func (h *Hub) PushToUser(userID string, event string, payload any) {
	h.Push([]string{userID}, event, payload)
}

// Broadcast delivers an event to every connected client
func (h *Hub) Broadcast(event string, payload any) {
	data, err := json.Marshal(Event{Name: event, Data: payload})
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("Failed to marshal event")
		return
	}

	for userID, conn := range h.presence.snapshot() {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			pushFailures.Inc()
			log.Error().Err(err).Str("user_id", userID).Str("event", event).Msg("Failed to broadcast event")
			// Disconnect re-broadcasts the online set; the recursion
			// terminates because the dead connection is removed first.
			h.Disconnect(userID, conn)
			continue
		}
		pushesDelivered.WithLabelValues(event).Inc()
	}
}
