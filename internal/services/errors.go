// Package services contains the business logic: the friendship state
// machine, the messaging gate, the presence registry, real-time
// fan-out, the notification ledger, and the thin CRUD around them.
//
// This file centralizes the sentinel errors returned by service
// methods. Translation into HTTP status codes happens in the handlers
// package. Ownership violations on notifications deliberately surface
// as not-found so a non-owner cannot confirm that a record exists.
package services

import (
	"errors"

	"social-chat-backend/internal/repository"
)

var (
	// ErrSelfRequest is returned when a user sends a friend request to
	// themselves.
	ErrSelfRequest = errors.New("cannot send friend request to yourself")

	// ErrRequestExists is returned when a pending or accepted record
	// already exists between the pair, in either direction.
	ErrRequestExists = errors.New("friend request already exists or you are already friends")

	// ErrFriendRequestNotFound is returned when no pending request
	// matches the caller's direction, including the case where it was
	// concurrently accepted, declined, or cancelled.
	ErrFriendRequestNotFound = errors.New("friend request not found")

	// ErrFriendshipNotFound is returned on unfriend when no accepted
	// friendship exists between the pair.
	ErrFriendshipNotFound = errors.New("friendship not found")

	// ErrNotificationNotFound is returned when a notification does not
	// exist or is not owned by the caller.
	ErrNotificationNotFound = errors.New("notification not found")

	// ErrUserNotFound is returned when the referenced user does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on signup with an already registered email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with a wrong email or
	// password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmptyMessage is returned when a message carries no payload at all.
	ErrEmptyMessage = errors.New("message must contain text, an image or a sticker")

	// ErrPostNotFound is returned when the post does not exist or was
	// deleted.
	ErrPostNotFound = errors.New("post not found")

	// ErrPostAccessDenied is returned when the post's privacy excludes
	// the viewer, or a non-owner attempts an owner-only mutation.
	ErrPostAccessDenied = errors.New("no permission on this post")

	// ErrCommentNotFound is returned when the parent comment of a reply
	// does not exist or was deleted.
	ErrCommentNotFound = errors.New("comment not found")

	// ErrEmptyContent is returned when a post or comment has no content.
	ErrEmptyContent = errors.New("content is required")

	// ErrInvalidPrivacy is returned for a privacy value outside
	// public/friends/private.
	ErrInvalidPrivacy = errors.New("invalid privacy value")
)

// isNotFound reports whether an error from a store is the zero-row
// condition, so services can map it onto their own sentinels
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
