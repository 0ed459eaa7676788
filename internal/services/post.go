package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"social-chat-backend/internal/models"
)

const defaultPageSize = 10

// PostStore is the persistence contract for posts and likes, satisfied
// by repository.PostRepository
type PostStore interface {
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, p *models.Post) (*models.Post, error)
	SoftDelete(ctx context.Context, id, userID string) error
	SetPinned(ctx context.Context, id, userID string, pinned bool) (*models.Post, error)
	SetPrivacy(ctx context.Context, id, userID string, privacy models.PostPrivacy) (*models.Post, error)
	ListFeed(ctx context.Context, viewerID string, friendIDs []string, limit, offset int) ([]*models.Post, error)
	ListByUser(ctx context.Context, authorID string, includeFriends, includeAll bool, limit, offset int) ([]*models.Post, error)
	GetLike(ctx context.Context, postID, userID string) (*models.Like, error)
	CreateLike(ctx context.Context, l *models.Like) (int, error)
	DeleteLike(ctx context.Context, l *models.Like) (int, error)
	ListLikes(ctx context.Context, postID string, limit, offset int) ([]*models.Like, error)
}

// CommentStore is the persistence contract for comments, satisfied by
// repository.CommentRepository
type CommentStore interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)
	ListRoots(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error)
	ListReplies(ctx context.Context, postID string) ([]*models.Comment, error)
}

// LikeResult is the outcome of a like toggle
type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// PostService owns the feed: post CRUD plus the like/comment/reply
// interactions that feed the notification ledger and the fan-out
type PostService struct {
	posts         PostStore
	comments      CommentStore
	friendships   FriendshipStore
	notifications *NotificationService
	hub           *Hub
}

// NewPostService creates a new post service
func NewPostService(posts PostStore, comments CommentStore, friendships FriendshipStore, notifications *NotificationService, hub *Hub) *PostService {
	return &PostService{
		posts:         posts,
		comments:      comments,
		friendships:   friendships,
		notifications: notifications,
		hub:           hub,
	}
}

func validPrivacy(p models.PostPrivacy) bool {
	switch p {
	case models.PrivacyPublic, models.PrivacyFriends, models.PrivacyPrivate:
		return true
	}
	return false
}

// CreateInput carries the fields of a new or updated post
type CreateInput struct {
	Content    string             `json:"content"`
	Media      []models.MediaItem `json:"media"`
	Background string             `json:"background"`
	Feeling    models.Feeling     `json:"feeling"`
	Privacy    models.PostPrivacy `json:"privacy"`
}

// Create persists a new post and broadcasts it to connected clients
// unless it is private
func (s *PostService) Create(ctx context.Context, userID string, in CreateInput) (*models.Post, error) {
	if strings.TrimSpace(in.Content) == "" && len(in.Media) == 0 {
		return nil, ErrEmptyContent
	}
	if in.Privacy == "" {
		in.Privacy = models.PrivacyPublic
	}
	if !validPrivacy(in.Privacy) {
		return nil, ErrInvalidPrivacy
	}

	now := time.Now()
	p := &models.Post{
		ID:         uuid.New().String(),
		UserID:     userID,
		Content:    in.Content,
		Media:      in.Media,
		Background: in.Background,
		Feeling:    in.Feeling,
		Privacy:    in.Privacy,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if p.Media == nil {
		p.Media = []models.MediaItem{}
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	if p.Privacy != models.PrivacyPrivate {
		s.hub.Broadcast(EventNewPost, p)
	}
	return p, nil
}

// Feed returns public posts and friends-only posts visible to the
// viewer, pinned first then newest first
func (s *PostService) Feed(ctx context.Context, viewerID string, page, limit int) ([]*models.Post, error) {
	limit, offset := pageWindow(page, limit)
	friendIDs, err := s.friendships.ListFriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return s.posts.ListFeed(ctx, viewerID, friendIDs, limit, offset)
}

// PostsByUser returns one author's posts visible to the viewer
func (s *PostService) PostsByUser(ctx context.Context, viewerID, authorID string, page, limit int) ([]*models.Post, error) {
	limit, offset := pageWindow(page, limit)
	if viewerID == authorID {
		return s.posts.ListByUser(ctx, authorID, false, true, limit, offset)
	}
	friends, err := s.friendships.AcceptedExists(ctx, viewerID, authorID)
	if err != nil {
		return nil, err
	}
	return s.posts.ListByUser(ctx, authorID, friends, false, limit, offset)
}

// Get returns one post, enforcing its privacy against the viewer
func (s *PostService) Get(ctx context.Context, viewerID, postID string) (*models.Post, error) {
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if p.UserID == viewerID {
		return p, nil
	}
	switch p.Privacy {
	case models.PrivacyPrivate:
		return nil, ErrPostAccessDenied
	case models.PrivacyFriends:
		friends, err := s.friendships.AcceptedExists(ctx, viewerID, p.UserID)
		if err != nil {
			return nil, err
		}
		if !friends {
			return nil, ErrPostAccessDenied
		}
	}
	return p, nil
}

// Update rewrites a post's content; only the owner may update
func (s *PostService) Update(ctx context.Context, userID, postID string, in CreateInput) (*models.Post, error) {
	if in.Privacy != "" && !validPrivacy(in.Privacy) {
		return nil, ErrInvalidPrivacy
	}
	existing, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrPostAccessDenied
	}

	existing.Content = in.Content
	if in.Media != nil {
		existing.Media = in.Media
	}
	existing.Background = in.Background
	existing.Feeling = in.Feeling
	if in.Privacy != "" {
		existing.Privacy = in.Privacy
	}

	updated, err := s.posts.Update(ctx, existing)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return updated, nil
}

// Delete soft-deletes a post; only the owner may delete
func (s *PostService) Delete(ctx context.Context, userID, postID string) error {
	existing, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if existing.UserID != userID {
		return ErrPostAccessDenied
	}
	if err := s.posts.SoftDelete(ctx, postID, userID); err != nil {
		if isNotFound(err) {
			return ErrPostNotFound
		}
		return err
	}
	return nil
}

// Pin pins a post on the owner's profile
func (s *PostService) Pin(ctx context.Context, userID, postID string) (*models.Post, error) {
	return s.ownerMutation(ctx, userID, postID, func() (*models.Post, error) {
		return s.posts.SetPinned(ctx, postID, userID, true)
	})
}

// ChangePrivacy changes a post's audience
func (s *PostService) ChangePrivacy(ctx context.Context, userID, postID string, privacy models.PostPrivacy) (*models.Post, error) {
	if !validPrivacy(privacy) {
		return nil, ErrInvalidPrivacy
	}
	return s.ownerMutation(ctx, userID, postID, func() (*models.Post, error) {
		return s.posts.SetPrivacy(ctx, postID, userID, privacy)
	})
}

// ToggleLike likes the post if the caller has not liked it yet,
// otherwise removes their like. A fresh like on someone else's post
// records a notification and pushes a like-count update.
func (s *PostService) ToggleLike(ctx context.Context, userID, postID string) (*LikeResult, error) {
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	existing, err := s.posts.GetLike(ctx, postID, userID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}

	if existing != nil {
		count, err := s.posts.DeleteLike(ctx, existing)
		if err != nil {
			return nil, err
		}
		s.pushLikeUpdate(postID, count, userID)
		return &LikeResult{Liked: false, LikeCount: count}, nil
	}

	like := &models.Like{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		CreatedAt: time.Now(),
	}
	count, err := s.posts.CreateLike(ctx, like)
	if err != nil {
		return nil, err
	}
	s.pushLikeUpdate(postID, count, userID)

	if p.UserID != userID {
		s.notifyInteraction(ctx, p.UserID, userID, models.NotificationPostLike, NotificationRefs{PostID: &postID})
	}
	return &LikeResult{Liked: true, LikeCount: count}, nil
}

// Likes lists the likes on a post, newest first
func (s *PostService) Likes(ctx context.Context, postID string, page, limit int) ([]*models.Like, error) {
	limit, offset := pageWindow(page, limit)
	return s.posts.ListLikes(ctx, postID, limit, offset)
}

// Comment adds a top-level comment on a post, notifying the post owner
func (s *PostService) Comment(ctx context.Context, userID, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}
	p, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    postID,
		UserID:    userID,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	s.pushCommentUpdate(postID, c)
	if p.UserID != userID {
		s.notifyInteraction(ctx, p.UserID, userID, models.NotificationPostComment, NotificationRefs{PostID: &postID, CommentID: &c.ID})
	}
	return c, nil
}

// Reply adds a reply under an existing comment, notifying the parent
// comment's author
func (s *PostService) Reply(ctx context.Context, userID, parentCommentID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyContent
	}

	parent, err := s.comments.GetByID(ctx, parentCommentID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrCommentNotFound
		}
		return nil, err
	}
	p, err := s.getPost(ctx, parent.PostID)
	if err != nil {
		return nil, err
	}

	reply := &models.Comment{
		ID:        uuid.New().String(),
		PostID:    p.ID,
		UserID:    userID,
		Content:   content,
		ParentID:  &parent.ID,
		CreatedAt: time.Now(),
	}
	if err := s.comments.Create(ctx, reply); err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	s.pushCommentUpdate(p.ID, reply)
	if parent.UserID != userID {
		s.notifyInteraction(ctx, parent.UserID, userID, models.NotificationCommentReply, NotificationRefs{PostID: &p.ID, CommentID: &reply.ID})
	}
	return reply, nil
}

// Comments lists a post's top-level comments (paged, newest first) and
// every reply (oldest first)
func (s *PostService) Comments(ctx context.Context, postID string, page, limit int) ([]*models.Comment, []*models.Comment, error) {
	limit, offset := pageWindow(page, limit)
	roots, err := s.comments.ListRoots(ctx, postID, limit, offset)
	if err != nil {
		return nil, nil, err
	}
	replies, err := s.comments.ListReplies(ctx, postID)
	if err != nil {
		return nil, nil, err
	}
	return roots, replies, nil
}

func (s *PostService) getPost(ctx context.Context, postID string) (*models.Post, error) {
	p, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PostService) ownerMutation(ctx context.Context, userID, postID string, mutate func() (*models.Post, error)) (*models.Post, error) {
	existing, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if existing.UserID != userID {
		return nil, ErrPostAccessDenied
	}
	p, err := mutate()
	if err != nil {
		if isNotFound(err) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return p, nil
}

// notifyInteraction records a post-interaction notification and pushes
// it as the single postNotification event; both are best-effort
// relative to the interaction itself, which has already been persisted
func (s *PostService) notifyInteraction(ctx context.Context, recipientID, senderID string, t models.NotificationType, refs NotificationRefs) {
	n, err := s.notifications.Record(ctx, recipientID, senderID, t, refs)
	if err != nil {
		log.Error().Err(err).Str("recipient_id", recipientID).Str("type", string(t)).Msg("Failed to record post notification")
		return
	}
	s.hub.PushToUser(recipientID, EventPostNotification, n)
}

func (s *PostService) pushLikeUpdate(postID string, count int, userID string) {
	s.hub.Broadcast(EventPostLikeUpdate, PostLikeUpdate{PostID: postID, LikeCount: count, UserID: userID})
}

func (s *PostService) pushCommentUpdate(postID string, c *models.Comment) {
	s.hub.Broadcast(EventPostCommentUpdate, PostCommentUpdate{PostID: postID, Comment: c})
}

func pageWindow(page, limit int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	return limit, (page - 1) * limit
}
