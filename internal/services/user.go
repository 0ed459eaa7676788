package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"social-chat-backend/internal/models"
)

const (
	jwtExpDays     = 7
	searchLimit    = 20
	minPasswordLen = 6
)

// UserStore is the persistence contract for users, satisfied by
// repository.UserRepository
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, userID, fullName, profilePic string) (*models.User, error)
	SetAllowStrangerMessage(ctx context.Context, userID string, allow bool) error
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	Search(ctx context.Context, userID, term string, limit int) ([]*models.User, error)
	GetByIDs(ctx context.Context, ids []string) ([]*models.User, error)
	ListOthers(ctx context.Context, userID string) ([]*models.User, error)
}

// UserService handles accounts, profiles, and JWT authentication
type UserService struct {
	users     UserStore
	jwtSecret string
}

// NewUserService creates a new user service
func NewUserService(users UserStore, jwtSecret string) *UserService {
	return &UserService{
		users:     users,
		jwtSecret: jwtSecret,
	}
}

// Signup registers a new user and returns the user with a signed token
func (s *UserService) Signup(ctx context.Context, email, password, fullName string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(password) < minPasswordLen {
		return nil, "", fmt.Errorf("password must be at least %d characters", minPasswordLen)
	}

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if exists {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:                   uuid.New().String(),
		Email:                email,
		PasswordHash:         string(hash),
		FullName:             strings.TrimSpace(fullName),
		AllowStrangerMessage: true,
		CreatedAt:            time.Now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns the user with a signed token
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, string, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if isNotFound(err) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().AddDate(0, 0, jwtExpDays).Unix(),
		"iat":     time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid token claims")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return "", fmt.Errorf("user_id not found in token")
	}

	return userID, nil
}

// GetByID returns a user by ID
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates the caller's profile fields
func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName, profilePic string) (*models.User, error) {
	user, err := s.users.UpdateProfile(ctx, userID, strings.TrimSpace(fullName), profilePic)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// SetAllowStrangerMessage updates the caller's stranger-message
// preference. The messaging gate reads the stored value on every send,
// so the change takes effect immediately.
func (s *UserService) SetAllowStrangerMessage(ctx context.Context, userID string, allow bool) error {
	if err := s.users.SetAllowStrangerMessage(ctx, userID, allow); err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

// RegisterPushToken stores or clears the caller's mobile push token
func (s *UserService) RegisterPushToken(ctx context.Context, userID string, token *string) error {
	return s.users.UpdatePushToken(ctx, userID, token)
}

// Search finds other users by name or email
func (s *UserService) Search(ctx context.Context, userID, term string) ([]*models.User, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	return s.users.Search(ctx, userID, term, searchLimit)
}
