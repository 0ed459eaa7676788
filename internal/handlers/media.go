package handlers

import (
	"net/http"

	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/services"
)

// MediaHandler handles upload URL requests
type MediaHandler struct {
	mediaService *services.MediaService
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(mediaService *services.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// UploadURLRequest is the request body for POST /media/upload-url
type UploadURLRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}

// UploadURL handles POST /api/v1/media/upload-url
func (h *MediaHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UploadURLRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Filename == "" {
		respondError(w, "filename is required", http.StatusBadRequest)
		return
	}

	resp, err := h.mediaService.UploadURL(r.Context(), userID, req.Filename, req.ContentType)
	if err != nil {
		respondError(w, "Failed to create upload URL", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}
