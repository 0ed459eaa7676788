package repository

import (
	"context"
	"errors"
	"fmt"

	"social-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CommentRepository handles database operations for comments and replies
type CommentRepository struct {
	db *pgxpool.Pool
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{db: db}
}

const commentColumns = `id, post_id, user_id, content, parent_id, deleted, created_at`

func scanComment(row pgx.Row) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.ParentID, &c.Deleted, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}
	return &c, nil
}

// Create persists a comment and bumps the post's comment counter in
// one transaction
func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	insert := `
		INSERT INTO comments (id, post_id, user_id, content, parent_id, deleted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if _, err := tx.Exec(ctx, insert, c.ID, c.PostID, c.UserID, c.Content, c.ParentID, c.Deleted, c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create comment: %w", err)
	}

	bump := `UPDATE posts SET comment_count = comment_count + 1 WHERE id = $1`
	if _, err := tx.Exec(ctx, bump, c.PostID); err != nil {
		return fmt.Errorf("failed to update comment count: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit comment: %w", err)
	}
	return nil
}

// GetByID retrieves a comment that has not been soft-deleted
func (r *CommentRepository) GetByID(ctx context.Context, id string) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1 AND deleted = false`
	return scanComment(r.db.QueryRow(ctx, query, id))
}

// ListRoots retrieves top-level comments on a post, newest first
func (r *CommentRepository) ListRoots(ctx context.Context, postID string, limit, offset int) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1 AND parent_id IS NULL AND deleted = false
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	return r.queryComments(ctx, query, postID, limit, offset)
}

// ListReplies retrieves every reply on a post, oldest first so threads
// read top-down
func (r *CommentRepository) ListReplies(ctx context.Context, postID string) ([]*models.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE post_id = $1 AND parent_id IS NOT NULL AND deleted = false
		ORDER BY created_at ASC
	`
	return r.queryComments(ctx, query, postID)
}

func (r *CommentRepository) queryComments(ctx context.Context, query string, args ...any) ([]*models.Comment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	var out []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
