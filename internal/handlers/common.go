package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"social-chat-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: message})
}

// respondJSON sends a JSON response with the given status
func respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

// respondServiceError maps a service-layer error onto the HTTP
// taxonomy: invalid input 400, precondition conflict 400/409, missing
// or not-owned 404, permission 403, anything else 500.
func respondServiceError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "Internal server error"

	switch {
	case errors.Is(err, services.ErrSelfRequest),
		errors.Is(err, services.ErrRequestExists),
		errors.Is(err, services.ErrEmptyMessage),
		errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrInvalidPrivacy):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, services.ErrEmailTaken):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		status = http.StatusUnauthorized
		message = err.Error()
	case errors.Is(err, services.ErrFriendRequestNotFound),
		errors.Is(err, services.ErrFriendshipNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrPostNotFound),
		errors.Is(err, services.ErrCommentNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, services.ErrPostAccessDenied):
		status = http.StatusForbidden
		message = err.Error()
	}

	respondError(w, message, status)
}

// decodeJSON parses a request body into dst
func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
