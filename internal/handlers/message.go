package handlers

import (
	"net/http"

	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/models"
	"social-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// MessageHandler handles direct-message HTTP requests
type MessageHandler struct {
	messageService *services.MessageService
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(messageService *services.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

// Send handles POST /api/v1/messages/send/{receiverId}. A send blocked
// by the messaging gate still answers 200 with the system message, so
// the client renders the explanation inline in the conversation.
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	receiverID := chi.URLParam(r, "receiverId")

	var payload services.MessagePayload
	if err := decodeJSON(r, &payload); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.messageService.Send(r.Context(), userID, receiverID, payload)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if message.System {
		status = http.StatusOK
	}
	respondJSON(w, status, message)
}

// Conversation handles GET /api/v1/messages/{userId}
func (h *MessageHandler) Conversation(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	otherID := chi.URLParam(r, "userId")

	messages, err := h.messageService.Conversation(r.Context(), userID, otherID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}
	respondJSON(w, http.StatusOK, messages)
}

// Sidebar handles GET /api/v1/messages
func (h *MessageHandler) Sidebar(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	entries, err := h.messageService.Sidebar(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*services.SidebarEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}
