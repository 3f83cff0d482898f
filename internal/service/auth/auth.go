package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/repository"
	"github.com/nkiryanov/usermanagement/internal/service/auth/rotation"
)

// Interface to create or compare user password hashes
type PasswordHasher interface {
	// Generate Hash from password
	Hash(password string) (string, error)

	// Compare known hashedPassword and user provided password
	// Must be protected against timing attacks
	Compare(hashedPassword string, password string) error
}

type accessTokens interface {
	IssueAccess(user models.User) (models.IssuedToken, error)
	ParseAccess(access string) (uuid.UUID, error)
}

type refreshTokens interface {
	Issue(ctx context.Context, userID uuid.UUID, ip string) (models.RefreshToken, error)
	Rotate(ctx context.Context, value string, ip string) (models.RefreshToken, models.User, error)
	Revoke(ctx context.Context, value string, ip string, reason string) error
}

type Config struct {
	// Hasher to user during user registration or login process
	// DefaultHasher if not set
	Hasher PasswordHasher

	// Role of registered users, models.RoleUser if not set
	DefaultRole string
}

// Auth service
type AuthService struct {
	access  accessTokens
	refresh refreshTokens

	// hasher to hash or compare user passwords
	hasher      PasswordHasher
	defaultRole string

	// Compared against when user not found so login takes the same time
	dummyHash func() (string, error)

	storage repository.Storage
	logger  logger.Logger
}

func NewService(cfg Config, access accessTokens, refresh refreshTokens, storage repository.Storage, l logger.Logger) (*AuthService, error) {
	if access == nil || refresh == nil || storage == nil {
		return nil, errors.New("token managers and storage must not be nil")
	}

	hasher := cfg.Hasher
	if hasher == nil {
		hasher = DefaultHasher
	}
	if cfg.DefaultRole == "" {
		cfg.DefaultRole = models.RoleUser
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &AuthService{
		access:      access,
		refresh:     refresh,
		hasher:      hasher,
		defaultRole: cfg.DefaultRole,
		dummyHash: sync.OnceValues(func() (string, error) {
			return hasher.Hash(uuid.NewString())
		}),
		storage: storage,
		logger:  l,
	}, nil
}

// Register new user with default role
func (s *AuthService) Register(ctx context.Context, username string, password string) (models.User, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return models.User{}, fmt.Errorf("can't use this as password, error=%w", err)
	}

	role, err := s.storage.Role().GetRoleByName(ctx, s.defaultRole)
	if err != nil {
		return models.User{}, fmt.Errorf("can't get default role. Err: %w", err)
	}

	user, err := s.storage.User().CreateUser(ctx, username, hash, role.ID)
	if err != nil {
		return models.User{}, err
	}

	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login user and start new session
// Unknown username and wrong password are indistinguishable: both return apperrors.ErrInvalidCredentials
func (s *AuthService) Login(ctx context.Context, username string, password string, ip string) (models.Authentication, error) {
	user, err := s.storage.User().GetUserByUsername(ctx, username)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		if hash, hashErr := s.dummyHash(); hashErr == nil {
			_ = s.hasher.Compare(hash, password)
		}
		return models.Authentication{}, apperrors.ErrInvalidCredentials
	case err != nil:
		return models.Authentication{}, err
	}

	if err := s.hasher.Compare(user.HashedPassword, password); err != nil {
		s.logger.Info("Login failed", "user_id", user.ID, "ip", ip)
		return models.Authentication{}, apperrors.ErrInvalidCredentials
	}

	refresh, err := s.refresh.Issue(ctx, user.ID, ip)
	if err != nil {
		return models.Authentication{}, fmt.Errorf("refresh token could not issued. %w", err)
	}

	return s.authentication(user, refresh)
}

// Refresh exchanges refresh token for new token pair
func (s *AuthService) Refresh(ctx context.Context, refresh string, ip string) (models.Authentication, error) {
	if refresh == "" {
		return models.Authentication{}, apperrors.ErrInvalidToken
	}

	next, user, err := s.refresh.Rotate(ctx, refresh, ip)
	if err != nil {
		return models.Authentication{}, err
	}

	return s.authentication(user, next)
}

// Revoke refresh token without replacement
func (s *AuthService) Revoke(ctx context.Context, refresh string, ip string) error {
	if refresh == "" {
		return apperrors.ErrMissingToken
	}

	return s.refresh.Revoke(ctx, refresh, ip, rotation.ReasonRevoked)
}

// Validate access token and return user id it was issued for
func (s *AuthService) ResolveUserID(ctx context.Context, access string) (uuid.UUID, error) {
	return s.access.ParseAccess(access)
}

// Validate access token and load its user
// Returns apperrors.ErrUserNotFound if token is valid but user was deleted
func (s *AuthService) CurrentUser(ctx context.Context, access string) (models.User, error) {
	userID, err := s.ResolveUserID(ctx, access)
	if err != nil {
		return models.User{}, err
	}

	return s.storage.User().GetUserByID(ctx, userID)
}

func (s *AuthService) authentication(user models.User, refresh models.RefreshToken) (models.Authentication, error) {
	access, err := s.access.IssueAccess(user)
	if err != nil {
		return models.Authentication{}, fmt.Errorf("access token could not issued. %w", err)
	}

	return models.Authentication{
		Tokens: models.TokenPair{
			Access:  access,
			Refresh: models.IssuedToken{Value: refresh.Token, ExpiresAt: refresh.ExpiresAt},
		},
		User: user.View(),
	}, nil
}
