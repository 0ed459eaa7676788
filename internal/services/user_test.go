package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService() (*UserService, *fakeUserStore) {
	store := newFakeUserStore()
	return NewUserService(store, "test-secret"), store
}

func TestSignup_CreatesUserWithToken(t *testing.T) {
	svc, _ := newUserService()

	user, token, err := svc.Signup(context.Background(), " Alice@Example.com ", "secret123", " Alice ")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.FullName)
	assert.NotEqual(t, "secret123", user.PasswordHash)
	assert.NotEmpty(t, token)

	userID, err := svc.ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestSignup_InvalidInput(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "not-an-email", "secret123", "Alice")
	assert.Error(t, err)

	_, _, err = svc.Signup(ctx, "alice@example.com", "short", "Alice")
	assert.Error(t, err)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "alice@example.com", "secret123", "Alice")
	require.NoError(t, err)

	_, _, err = svc.Signup(ctx, "alice@example.com", "secret456", "Other Alice")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLogin_RoundTrip(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	created, _, err := svc.Signup(ctx, "alice@example.com", "secret123", "Alice")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _ := newUserService()
	ctx := context.Background()

	_, _, err := svc.Signup(ctx, "alice@example.com", "secret123", "Alice")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateJWT_RejectsForeignSignature(t *testing.T) {
	svc, _ := newUserService()
	other := NewUserService(newFakeUserStore(), "other-secret")

	token, err := other.GenerateJWT("u1")
	require.NoError(t, err)

	_, err = svc.ValidateJWT(token)
	assert.Error(t, err)
}

func TestSearch_BlankTermReturnsNothing(t *testing.T) {
	svc, store := newUserService()
	require.NoError(t, store.Create(context.Background(), testUser("bob", "Bob")))

	users, err := svc.Search(context.Background(), "alice", "   ")
	require.NoError(t, err)
	assert.Empty(t, users)

	users, err = svc.Search(context.Background(), "alice", "bob")
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
