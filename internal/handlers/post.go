package handlers

import (
	"net/http"
	"strconv"

	"social-chat-backend/internal/middleware"
	"social-chat-backend/internal/models"
	"social-chat-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// PostHandler handles feed HTTP requests
type PostHandler struct {
	postService *services.PostService
}

// NewPostHandler creates a new post handler
func NewPostHandler(postService *services.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return page, limit
}

// Create handles POST /api/v1/posts
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var in services.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.postService.Create(r.Context(), userID, in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]*models.Post{"post": post})
}

// Feed handles GET /api/v1/posts
func (h *PostHandler) Feed(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	page, limit := pageParams(r)

	posts, err := h.postService.Feed(r.Context(), userID, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	respondJSON(w, http.StatusOK, map[string][]*models.Post{"posts": posts})
}

// ByUser handles GET /api/v1/posts/user/{userId}
func (h *PostHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	authorID := chi.URLParam(r, "userId")
	page, limit := pageParams(r)

	posts, err := h.postService.PostsByUser(r.Context(), userID, authorID, page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	respondJSON(w, http.StatusOK, map[string][]*models.Post{"posts": posts})
}

// Get handles GET /api/v1/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	post, err := h.postService.Get(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Post{"post": post})
}

// Update handles PUT /api/v1/posts/{id}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var in services.CreateInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.postService.Update(r.Context(), userID, chi.URLParam(r, "id"), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Post{"post": post})
}

// Delete handles DELETE /api/v1/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.postService.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Pin handles POST /api/v1/posts/{id}/pin
func (h *PostHandler) Pin(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	post, err := h.postService.Pin(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Post{"post": post})
}

// PrivacyRequest is the request body for POST /posts/{id}/privacy
type PrivacyRequest struct {
	Privacy models.PostPrivacy `json:"privacy"`
}

// ChangePrivacy handles POST /api/v1/posts/{id}/privacy
func (h *PostHandler) ChangePrivacy(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req PrivacyRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	post, err := h.postService.ChangePrivacy(r.Context(), userID, chi.URLParam(r, "id"), req.Privacy)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]*models.Post{"post": post})
}

// Like handles POST /api/v1/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	result, err := h.postService.ToggleLike(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Likes handles GET /api/v1/posts/{id}/likes
func (h *PostHandler) Likes(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	likes, err := h.postService.Likes(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if likes == nil {
		likes = []*models.Like{}
	}
	respondJSON(w, http.StatusOK, map[string][]*models.Like{"likes": likes})
}

// CommentRequest is the request body for comment and reply creation
type CommentRequest struct {
	Content string `json:"content"`
}

// Comment handles POST /api/v1/posts/{id}/comment
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	comment, err := h.postService.Comment(r.Context(), userID, chi.URLParam(r, "id"), req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]*models.Comment{"comment": comment})
}

// Reply handles POST /api/v1/posts/comments/{commentId}/reply
func (h *PostHandler) Reply(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req CommentRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	reply, err := h.postService.Reply(r.Context(), userID, chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]*models.Comment{"reply": reply})
}

// Comments handles GET /api/v1/posts/{id}/comments
func (h *PostHandler) Comments(w http.ResponseWriter, r *http.Request) {
	page, limit := pageParams(r)

	comments, replies, err := h.postService.Comments(r.Context(), chi.URLParam(r, "id"), page, limit)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	if replies == nil {
		replies = []*models.Comment{}
	}
	respondJSON(w, http.StatusOK, map[string][]*models.Comment{"comments": comments, "replies": replies})
}
