package handlers

import (
	"net/http"

	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/models"
	"social-chat-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles account and profile HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// AuthResponse pairs a user with a fresh token
type AuthResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

// SignupRequest is the request body for POST /auth/signup
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Signup handles POST /api/v1/auth/signup
func (h *UserHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Signup(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", user.ID).Msg("User signed up")
	respondJSON(w, http.StatusCreated, AuthResponse{User: user, Token: token})
}

// LoginRequest is the request body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, AuthResponse{User: user, Token: token})
}

// Check handles GET /api/v1/auth/check and returns the caller's profile
func (h *UserHandler) Check(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UpdateProfileRequest is the request body for PUT /auth/profile
type UpdateProfileRequest struct {
	FullName   string `json:"full_name"`
	ProfilePic string `json:"profile_pic"`
}

// UpdateProfile handles PUT /api/v1/auth/profile
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), userID, req.FullName, req.ProfilePic)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// StrangerMessageRequest is the request body for PATCH /auth/stranger-message
type StrangerMessageRequest struct {
	Allow bool `json:"allow"`
}

// SetStrangerMessage handles PATCH /api/v1/auth/stranger-message
func (h *UserHandler) SetStrangerMessage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req StrangerMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.SetAllowStrangerMessage(r.Context(), userID, req.Allow); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"allow_stranger_message": req.Allow})
}

// PushTokenRequest is the request body for POST /auth/push-token
type PushTokenRequest struct {
	Token *string `json:"token"`
}

// RegisterPushToken handles POST /api/v1/auth/push-token
func (h *UserHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PushTokenRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.userService.RegisterPushToken(r.Context(), userID, req.Token); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SearchUsers handles GET /api/v1/auth/search-users?q=
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	users, err := h.userService.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}
