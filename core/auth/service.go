package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"moodtune/logger"
	"moodtune/model"
	"moodtune/repository"

	"github.com/google/uuid"
)

var (
	ErrEmailTaken         = errors.New("User already exist")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrMissingFields      = errors.New("Name, email and password are required")
)

// Service implements signup and login.
type Service struct {
	users    repository.UserRepository
	tokens   *TokenManager
	adminKey string
}

// NewService creates a Service. An empty adminKey disables admin signup.
func NewService(users repository.UserRepository, tokens *TokenManager, adminKey string) *Service {
	return &Service{users: users, tokens: tokens, adminKey: adminKey}
}

// Signup registers a user and reports whether it was granted admin.
func (s *Service) Signup(ctx context.Context, name, email, password, adminKey string) (*model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      s.isAdminKey(adminKey),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.Info("[Signup] user created", logger.String("userId", user.ID), logger.Bool("isAdmin", user.IsAdmin))
	return user, nil
}

func (s *Service) isAdminKey(key string) bool {
	if s.adminKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.adminKey)) == 1
}

// Login verifies the credentials and returns a signed token. Unknown email and
// wrong password produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	user, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return "", nil, err
	}
	if user == nil {
		logger.Warn("[Login] rejected credentials", logger.String("email", email))
		return "", nil, ErrInvalidCredentials
	}
	ok, err := VerifyPassword(password, user.PasswordHash)
	if err != nil {
		logger.Error("[Login] password check failed", logger.String("userId", user.ID), logger.ErrorField(err))
	}
	if !ok {
		logger.Warn("[Login] rejected credentials", logger.String("email", email))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.IsAdmin)
	if err != nil {
		return "", nil, err
	}
	logger.Info("[Login] token issued", logger.String("userId", user.ID))
	return token, user, nil
}

// Authenticate parses a bearer token.
func (s *Service) Authenticate(token string) (Identity, error) {
	return s.tokens.Parse(token)
}

// IsAdmin re-reads the stored record instead of trusting token claims.
func (s *Service) IsAdmin(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return user != nil && user.IsAdmin, nil
}
