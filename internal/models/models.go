package models

import "time"

// FriendshipStatus is the lifecycle state of a Friendship record
type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipDeclined FriendshipStatus = "declined"
)

// NotificationType enumerates the fixed notification kinds
type NotificationType string

const (
	NotificationFriendRequest  NotificationType = "friend_request"
	NotificationFriendAccepted NotificationType = "friend_accepted"
	NotificationFriendDeclined NotificationType = "friend_declined"
	NotificationPostLike       NotificationType = "post_like"
	NotificationPostComment    NotificationType = "post_comment"
	NotificationCommentReply   NotificationType = "comment_reply"
)

// PostPrivacy controls the audience of a post
type PostPrivacy string

const (
	PrivacyPublic  PostPrivacy = "public"
	PrivacyFriends PostPrivacy = "friends"
	PrivacyPrivate PostPrivacy = "private"
)

// User represents a user in the system
type User struct {
	ID                   string    `json:"id"`
	Email                string    `json:"email"`
	PasswordHash         string    `json:"-"`
	FullName             string    `json:"full_name"`
	ProfilePic           string    `json:"profile_pic"`
	AllowStrangerMessage bool      `json:"allow_stranger_message"`
	PushToken            *string   `json:"push_token,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

// Friendship represents the relationship record between two users.
// At most one record exists per unordered pair of users.
type Friendship struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	RecipientID string           `json:"recipient_id"`
	Status      FriendshipStatus `json:"status"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CounterpartID returns the other user of the relationship
func (f *Friendship) CounterpartID(userID string) string {
	if f.RequesterID == userID {
		return f.RecipientID
	}
	return f.RequesterID
}

// Message represents a direct message between two users. Persisted
// messages are immutable; System marks a synthetic gate-rejection
// notice that is never stored.
type Message struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Text       string    `json:"text,omitempty"`
	Image      string    `json:"image,omitempty"`
	Sticker    string    `json:"sticker,omitempty"`
	System     bool      `json:"system,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Notification is the durable record of a domain event, independent of
// whether the live push reached the recipient.
type Notification struct {
	ID           string           `json:"id"`
	RecipientID  string           `json:"recipient_id"`
	SenderID     string           `json:"sender_id"`
	Type         NotificationType `json:"type"`
	FriendshipID *string          `json:"friendship_id,omitempty"`
	PostID       *string          `json:"post_id,omitempty"`
	CommentID    *string          `json:"comment_id,omitempty"`
	Message      string           `json:"message"`
	IsRead       bool             `json:"is_read"`
	CreatedAt    time.Time        `json:"created_at"`
}

// MediaItem is one attachment on a post
type MediaItem struct {
	URL       string `json:"url"`
	Type      string `json:"type"` // image, video or sticker
	Thumbnail string `json:"thumbnail,omitempty"`
}

// Feeling is the optional mood tag on a post
type Feeling struct {
	Icon  string `json:"icon,omitempty"`
	Label string `json:"label,omitempty"`
}

// Post represents a feed post
type Post struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Content      string      `json:"content"`
	Media        []MediaItem `json:"media"`
	Background   string      `json:"background,omitempty"`
	Feeling      Feeling     `json:"feeling"`
	Privacy      PostPrivacy `json:"privacy"`
	Pinned       bool        `json:"pinned"`
	LikeCount    int         `json:"like_count"`
	CommentCount int         `json:"comment_count"`
	Deleted      bool        `json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// Comment represents a comment on a post; ParentID is set on replies
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	Content   string    `json:"content"`
	ParentID  *string   `json:"parent_id,omitempty"`
	Deleted   bool      `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Like represents one user's like on a post; unique per (post, user)
type Like struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}
