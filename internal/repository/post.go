package repository

import (
	"context"
	"errors"
	"fmt"

	"social-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostRepository handles database operations for posts and likes
type PostRepository struct {
	db *pgxpool.Pool
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *pgxpool.Pool) *PostRepository {
	return &PostRepository{db: db}
}

const postColumns = `id, user_id, content, media, background, feeling, privacy, pinned, like_count, comment_count, deleted, created_at, updated_at`

func scanPost(row pgx.Row) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.UserID, &p.Content, &p.Media, &p.Background, &p.Feeling,
		&p.Privacy, &p.Pinned, &p.LikeCount, &p.CommentCount, &p.Deleted,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan post: %w", err)
	}
	return &p, nil
}

func (r *PostRepository) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer rows.Close()

	var out []*models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Create persists a new post; media and feeling are stored as jsonb
func (r *PostRepository) Create(ctx context.Context, p *models.Post) error {
	query := `
		INSERT INTO posts (id, user_id, content, media, background, feeling, privacy, pinned, like_count, comment_count, deleted, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.UserID, p.Content, p.Media, p.Background, p.Feeling,
		p.Privacy, p.Pinned, p.LikeCount, p.CommentCount, p.Deleted,
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}
	return nil
}

// GetByID retrieves a post that has not been soft-deleted
func (r *PostRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND deleted = false`
	return scanPost(r.db.QueryRow(ctx, query, id))
}

// Update rewrites the mutable fields of a post, scoped to the owner
func (r *PostRepository) Update(ctx context.Context, p *models.Post) (*models.Post, error) {
	query := `
		UPDATE posts
		SET content = $3, media = $4, background = $5, feeling = $6, privacy = $7, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted = false
		RETURNING ` + postColumns
	return scanPost(r.db.QueryRow(ctx, query,
		p.ID, p.UserID, p.Content, p.Media, p.Background, p.Feeling, p.Privacy,
	))
}

// SoftDelete marks a post deleted, scoped to the owner
func (r *PostRepository) SoftDelete(ctx context.Context, id, userID string) error {
	query := `UPDATE posts SET deleted = true, updated_at = now() WHERE id = $1 AND user_id = $2 AND deleted = false`
	result, err := r.db.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPinned pins or unpins a post, scoped to the owner
func (r *PostRepository) SetPinned(ctx context.Context, id, userID string, pinned bool) (*models.Post, error) {
	query := `
		UPDATE posts SET pinned = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted = false
		RETURNING ` + postColumns
	return scanPost(r.db.QueryRow(ctx, query, id, userID, pinned))
}

// SetPrivacy changes the audience of a post, scoped to the owner
func (r *PostRepository) SetPrivacy(ctx context.Context, id, userID string, privacy models.PostPrivacy) (*models.Post, error) {
	query := `
		UPDATE posts SET privacy = $3, updated_at = now()
		WHERE id = $1 AND user_id = $2 AND deleted = false
		RETURNING ` + postColumns
	return scanPost(r.db.QueryRow(ctx, query, id, userID, privacy))
}

// ListFeed retrieves public posts plus friends-only posts authored by
// the viewer or their friends, pinned first then newest first
func (r *PostRepository) ListFeed(ctx context.Context, viewerID string, friendIDs []string, limit, offset int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE deleted = false
		  AND (privacy = 'public'
		    OR (privacy = 'friends' AND (user_id = $1 OR user_id = ANY($2))))
		ORDER BY pinned DESC, created_at DESC
		LIMIT $3 OFFSET $4
	`
	return r.queryPosts(ctx, query, viewerID, friendIDs, limit, offset)
}

// ListByUser retrieves one author's posts visible to the viewer. The
// owner sees everything; friends additionally see friends-only posts.
func (r *PostRepository) ListByUser(ctx context.Context, authorID string, includeFriends, includeAll bool, limit, offset int) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE user_id = $1 AND deleted = false
		  AND ($2 OR privacy = 'public' OR (privacy = 'friends' AND $3))
		ORDER BY pinned DESC, created_at DESC
		LIMIT $4 OFFSET $5
	`
	return r.queryPosts(ctx, query, authorID, includeAll, includeFriends, limit, offset)
}

// GetLike retrieves a user's like on a post, ErrNotFound when absent
func (r *PostRepository) GetLike(ctx context.Context, postID, userID string) (*models.Like, error) {
	query := `SELECT id, post_id, user_id, created_at FROM likes WHERE post_id = $1 AND user_id = $2`
	var l models.Like
	err := r.db.QueryRow(ctx, query, postID, userID).Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get like: %w", err)
	}
	return &l, nil
}

// CreateLike inserts a like and bumps the post's like counter in one
// transaction, returning the resulting count
func (r *PostRepository) CreateLike(ctx context.Context, l *models.Like) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `INSERT INTO likes (id, post_id, user_id, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := tx.Exec(ctx, insert, l.ID, l.PostID, l.UserID, l.CreatedAt); err != nil {
		return 0, fmt.Errorf("failed to create like: %w", err)
	}

	var count int
	bump := `UPDATE posts SET like_count = like_count + 1 WHERE id = $1 RETURNING like_count`
	if err := tx.QueryRow(ctx, bump, l.PostID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit like: %w", err)
	}
	return count, nil
}

// DeleteLike removes a like and drops the post's like counter in one
// transaction, returning the resulting count
func (r *PostRepository) DeleteLike(ctx context.Context, l *models.Like) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	del := `DELETE FROM likes WHERE id = $1 AND post_id = $2 AND user_id = $3`
	if _, err := tx.Exec(ctx, del, l.ID, l.PostID, l.UserID); err != nil {
		return 0, fmt.Errorf("failed to delete like: %w", err)
	}

	var count int
	drop := `UPDATE posts SET like_count = GREATEST(like_count - 1, 0) WHERE id = $1 RETURNING like_count`
	if err := tx.QueryRow(ctx, drop, l.PostID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to update like count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit unlike: %w", err)
	}
	return count, nil
}

// ListLikes retrieves the likes on a post, newest first
func (r *PostRepository) ListLikes(ctx context.Context, postID string, limit, offset int) ([]*models.Like, error) {
	query := `
		SELECT id, post_id, user_id, created_at
		FROM likes
		WHERE post_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, postID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}
	defer rows.Close()

	var out []*models.Like
	for rows.Next() {
		var l models.Like
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan like: %w", err)
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}
