package repository

import (
	"context"
	"errors"
	"fmt"

	"social-chat-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// FriendshipRepository handles database operations for friendship
// records. Status transitions are conditional updates: the WHERE clause
// carries the required pre-state, so of two racing transitions exactly
// one matches and the other observes ErrNotFound.
type FriendshipRepository struct {
	db *pgxpool.Pool
}

// NewFriendshipRepository creates a new friendship repository
func NewFriendshipRepository(db *pgxpool.Pool) *FriendshipRepository {
	return &FriendshipRepository{db: db}
}

const friendshipColumns = `id, requester_id, recipient_id, status, created_at, updated_at`

func scanFriendship(row pgx.Row) (*models.Friendship, error) {
	var f models.Friendship
	err := row.Scan(&f.ID, &f.RequesterID, &f.RecipientID, &f.Status, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan friendship: %w", err)
	}
	return &f, nil
}

// Create inserts a new pending friendship record
func (r *FriendshipRepository) Create(ctx context.Context, f *models.Friendship) error {
	query := `
		INSERT INTO friendships (id, requester_id, recipient_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, f.ID, f.RequesterID, f.RecipientID, f.Status, f.CreatedAt, f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create friendship: %w", err)
	}
	return nil
}

// GetByPair retrieves the record between two users regardless of
// direction or status
func (r *FriendshipRepository) GetByPair(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE (requester_id = $1 AND recipient_id = $2)
		   OR (requester_id = $2 AND recipient_id = $1)
	`
	return scanFriendship(r.db.QueryRow(ctx, query, userA, userB))
}

// Revive resets a declined record to pending under the fresh requester.
// Conditional on the record still being declined.
func (r *FriendshipRepository) Revive(ctx context.Context, id, requesterID, recipientID string) (*models.Friendship, error) {
	query := `
		UPDATE friendships
		SET requester_id = $2, recipient_id = $3, status = 'pending', updated_at = now()
		WHERE id = $1 AND status = 'declined'
		RETURNING ` + friendshipColumns
	return scanFriendship(r.db.QueryRow(ctx, query, id, requesterID, recipientID))
}

// UpdatePendingStatus moves a pending request to accepted or declined.
// Only matches when the caller-supplied direction and pending status
// still hold.
func (r *FriendshipRepository) UpdatePendingStatus(ctx context.Context, requesterID, recipientID string, status models.FriendshipStatus) (*models.Friendship, error) {
	query := `
		UPDATE friendships
		SET status = $3, updated_at = now()
		WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'
		RETURNING ` + friendshipColumns
	return scanFriendship(r.db.QueryRow(ctx, query, requesterID, recipientID, status))
}

// DeletePending removes a pending request sent by requesterID
func (r *FriendshipRepository) DeletePending(ctx context.Context, requesterID, recipientID string) (*models.Friendship, error) {
	query := `
		DELETE FROM friendships
		WHERE requester_id = $1 AND recipient_id = $2 AND status = 'pending'
		RETURNING ` + friendshipColumns
	return scanFriendship(r.db.QueryRow(ctx, query, requesterID, recipientID))
}

// DeleteAccepted removes an accepted friendship between two users in
// either direction
func (r *FriendshipRepository) DeleteAccepted(ctx context.Context, userA, userB string) (*models.Friendship, error) {
	query := `
		DELETE FROM friendships
		WHERE status = 'accepted'
		  AND ((requester_id = $1 AND recipient_id = $2)
		    OR (requester_id = $2 AND recipient_id = $1))
		RETURNING ` + friendshipColumns
	return scanFriendship(r.db.QueryRow(ctx, query, userA, userB))
}

// AcceptedExists reports whether an accepted friendship exists between
// two users in either direction
func (r *FriendshipRepository) AcceptedExists(ctx context.Context, userA, userB string) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM friendships
			WHERE status = 'accepted'
			  AND ((requester_id = $1 AND recipient_id = $2)
			    OR (requester_id = $2 AND recipient_id = $1))
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, userA, userB).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check friendship existence: %w", err)
	}
	return exists, nil
}

// ListFriendIDs returns the counterpart IDs of all accepted friendships
// of a user
func (r *FriendshipRepository) ListFriendIDs(ctx context.Context, userID string) ([]string, error) {
	query := `
		SELECT CASE WHEN requester_id = $1 THEN recipient_id ELSE requester_id END
		FROM friendships
		WHERE status = 'accepted' AND (requester_id = $1 OR recipient_id = $1)
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list friend ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan friend id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListPending returns pending requests where the user is requester
// (sent=true) or recipient (sent=false)
func (r *FriendshipRepository) ListPending(ctx context.Context, userID string, sent bool) ([]*models.Friendship, error) {
	side := "recipient_id"
	if sent {
		side = "requester_id"
	}
	query := `
		SELECT ` + friendshipColumns + `
		FROM friendships
		WHERE ` + side + ` = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending requests: %w", err)
	}
	defer rows.Close()

	var out []*models.Friendship
	for rows.Next() {
		f, err := scanFriendship(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountFriends counts accepted friendships of a user
func (r *FriendshipRepository) CountFriends(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM friendships
		WHERE status = 'accepted' AND (requester_id = $1 OR recipient_id = $1)
	`
	var count int
	if err := r.db.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count friends: %w", err)
	}
	return count, nil
}
