package handlers

import (
	"net/http"

	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/models"
	"social-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// FriendshipHandler handles friendship HTTP requests
type FriendshipHandler struct {
	friendshipService *services.FriendshipService
	messageService    *services.MessageService
}

// NewFriendshipHandler creates a new friendship handler
func NewFriendshipHandler(friendshipService *services.FriendshipService, messageService *services.MessageService) *FriendshipHandler {
	return &FriendshipHandler{
		friendshipService: friendshipService,
		messageService:    messageService,
	}
}

// RequestBody names the counterpart of a friendship operation
type RequestBody struct {
	RecipientID string `json:"recipient_id,omitempty"`
	RequesterID string `json:"requester_id,omitempty"`
	FriendID    string `json:"friend_id,omitempty"`
}

// SendRequest handles POST /api/v1/friendship/request
func (h *FriendshipHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RequestBody
	if err := decodeJSON(r, &req); err != nil || req.RecipientID == "" {
		respondError(w, "recipient_id is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.SendRequest(r.Context(), userID, req.RecipientID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().
		Str("requester_id", userID).
		Str("recipient_id", req.RecipientID).
		Str("friendship_id", friendship.ID).
		Msg("Friend request sent")

	respondJSON(w, http.StatusCreated, friendship)
}

// Accept handles POST /api/v1/friendship/accept
func (h *FriendshipHandler) Accept(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RequestBody
	if err := decodeJSON(r, &req); err != nil || req.RequesterID == "" {
		respondError(w, "requester_id is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Accept(r.Context(), userID, req.RequesterID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, friendship)
}

// Decline handles POST /api/v1/friendship/decline
func (h *FriendshipHandler) Decline(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RequestBody
	if err := decodeJSON(r, &req); err != nil || req.RequesterID == "" {
		respondError(w, "requester_id is required", http.StatusBadRequest)
		return
	}

	friendship, err := h.friendshipService.Decline(r.Context(), userID, req.RequesterID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, friendship)
}

// Cancel handles POST /api/v1/friendship/cancel
func (h *FriendshipHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RequestBody
	if err := decodeJSON(r, &req); err != nil || req.RecipientID == "" {
		respondError(w, "recipient_id is required", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.Cancel(r.Context(), userID, req.RecipientID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Friend request cancelled successfully."})
}

// Unfriend handles POST /api/v1/friendship/unfriend
func (h *FriendshipHandler) Unfriend(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req RequestBody
	if err := decodeJSON(r, &req); err != nil || req.FriendID == "" {
		respondError(w, "friend_id is required", http.StatusBadRequest)
		return
	}

	if err := h.friendshipService.Unfriend(r.Context(), userID, req.FriendID); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Unfriended successfully."})
}

// Friends handles GET /api/v1/friendship/list
func (h *FriendshipHandler) Friends(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	friends, err := h.friendshipService.Friends(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if friends == nil {
		friends = []*models.User{}
	}
	respondJSON(w, http.StatusOK, friends)
}

// Sent handles GET /api/v1/friendship/sent
func (h *FriendshipHandler) Sent(w http.ResponseWriter, r *http.Request) {
	h.respondPending(w, r, true)
}

// Received handles GET /api/v1/friendship/received
func (h *FriendshipHandler) Received(w http.ResponseWriter, r *http.Request) {
	h.respondPending(w, r, false)
}

func (h *FriendshipHandler) respondPending(w http.ResponseWriter, r *http.Request, sent bool) {
	userID := middleware.GetUserID(r.Context())

	var (
		requests []*models.Friendship
		err      error
	)
	if sent {
		requests, err = h.friendshipService.SentRequests(r.Context(), userID)
	} else {
		requests, err = h.friendshipService.ReceivedRequests(r.Context(), userID)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if requests == nil {
		requests = []*models.Friendship{}
	}
	respondJSON(w, http.StatusOK, requests)
}

// Count handles GET /api/v1/friendship/count/{userId}
func (h *FriendshipHandler) Count(w http.ResponseWriter, r *http.Request) {
	targetID := chi.URLParam(r, "userId")

	count, err := h.friendshipService.FriendCount(r.Context(), targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int{"count": count})
}

// CanMessage handles GET /api/v1/friendship/can-message/{userId}
func (h *FriendshipHandler) CanMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	targetID := chi.URLParam(r, "userId")

	allowed, err := h.messageService.CanSend(r.Context(), userID, targetID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"can_message": allowed})
}
