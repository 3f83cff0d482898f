package rotation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/repository"
	"github.com/nkiryanov/usermanagement/internal/service/auth/tokenmanager"
)

const (
	defaultRetention = 48 * time.Hour

	// Value drawn by the generator may be taken by concurrent issuer before insert
	maxCreateAttempts = 5
)

type RefreshGenerator interface {
	GenerateRefresh(ctx context.Context, userID uuid.UUID, ip string, exists tokenmanager.ExistsFunc) (models.RefreshToken, error)
}

type Config struct {
	// How long inactive tokens are kept after creation
	// If not set than default is used
	Retention time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

// Engine owns refresh token lifecycle: issue, rotate with reuse detection and revoke
// Every operation runs in one transaction holding the owning user row lock
type Engine struct {
	storage   repository.Storage
	generator RefreshGenerator
	logger    logger.Logger

	retention time.Duration
	now       func() time.Time
}

func New(cfg Config, storage repository.Storage, generator RefreshGenerator, l logger.Logger) (*Engine, error) {
	if storage == nil || generator == nil {
		return nil, errors.New("storage and generator must not be nil")
	}
	if cfg.Retention == 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if l == nil {
		l = logger.NewNoOpLogger()
	}

	return &Engine{
		storage:   storage,
		generator: generator,
		logger:    l,
		retention: cfg.Retention,
		now:       cfg.Now,
	}, nil
}

// Issue new refresh token for the user on login
func (e *Engine) Issue(ctx context.Context, userID uuid.UUID, ip string) (models.RefreshToken, error) {
	var issued models.RefreshToken

	err := e.storage.InTx(ctx, func(s repository.Storage) error {
		chain, err := e.loadChain(ctx, s, userID)
		if err != nil {
			return err
		}

		issued, err = e.create(ctx, s, userID, ip)
		if err != nil {
			return err
		}
		chain.Append(issued)
		chain.Prune(e.now(), e.retention)

		return e.persist(ctx, s, chain)
	})
	if err != nil {
		return models.RefreshToken{}, err
	}

	return issued, nil
}

// Rotate exchanges active refresh token for a new one
// Presenting a revoked token revokes all its active descendants and commits that, then fails
func (e *Engine) Rotate(ctx context.Context, value string, ip string) (models.RefreshToken, models.User, error) {
	var (
		next   models.RefreshToken
		user   models.User
		reused bool
	)

	err := e.storage.InTx(ctx, func(s repository.Storage) error {
		var (
			chain *Chain
			err   error
		)
		user, chain, err = e.lockOwner(ctx, s, value)
		if err != nil {
			return err
		}

		current, ok := chain.Find(value)
		if !ok {
			// Pruned between lookup and lock
			return apperrors.ErrInvalidToken
		}

		now := e.now()
		switch current.State(now) {
		case models.TokenRevoked:
			reused = true
			revoked := chain.RevokeDescendants(value, now, ip, ReasonReuse)
			e.logger.Warn("Revoked refresh token reused",
				"user_id", user.ID,
				"token_id", current.ID,
				"ip", ip,
				"revoked_descendants", revoked,
			)
			if revoked > 1 {
				e.logger.Error("Rotation chain had more than one active token", "user_id", user.ID, "token_id", current.ID)
			}
			return e.persist(ctx, s, chain)
		case models.TokenExpired:
			return apperrors.ErrInvalidToken
		}

		next, err = e.create(ctx, s, user.ID, ip)
		if err != nil {
			return err
		}
		chain.Replace(value, next, now, ip)
		chain.Prune(now, e.retention)

		return e.persist(ctx, s, chain)
	})

	switch {
	case err != nil:
		return models.RefreshToken{}, models.User{}, err
	case reused:
		return models.RefreshToken{}, models.User{}, apperrors.ErrInvalidToken
	default:
		return next, user, nil
	}
}

// Revoke active refresh token without replacement
func (e *Engine) Revoke(ctx context.Context, value string, ip string, reason string) error {
	return e.storage.InTx(ctx, func(s repository.Storage) error {
		_, chain, err := e.lockOwner(ctx, s, value)
		if err != nil {
			return err
		}

		current, ok := chain.Find(value)
		if !ok || !current.IsActive(e.now()) {
			return apperrors.ErrInvalidToken
		}

		chain.Revoke(value, e.now(), ip, reason, "")
		return e.persist(ctx, s, chain)
	})
}

// Find token owner, lock it and load its tokens
func (e *Engine) lockOwner(ctx context.Context, s repository.Storage, value string) (models.User, *Chain, error) {
	token, err := s.Refresh().GetByToken(ctx, value)
	switch {
	case errors.Is(err, apperrors.ErrRefreshTokenNotFound):
		return models.User{}, nil, apperrors.ErrInvalidToken
	case err != nil:
		return models.User{}, nil, err
	}

	user, err := s.User().LockUser(ctx, token.UserID)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		return models.User{}, nil, apperrors.ErrInvalidToken
	case err != nil:
		return models.User{}, nil, err
	}

	tokens, err := s.Refresh().ListByUser(ctx, user.ID)
	if err != nil {
		return models.User{}, nil, err
	}

	return user, NewChain(tokens), nil
}

func (e *Engine) loadChain(ctx context.Context, s repository.Storage, userID uuid.UUID) (*Chain, error) {
	if _, err := s.User().LockUser(ctx, userID); err != nil {
		return nil, err
	}

	tokens, err := s.Refresh().ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return NewChain(tokens), nil
}

// Generate and insert new token. Draw again if value was taken after the uniqueness check
func (e *Engine) create(ctx context.Context, s repository.Storage, userID uuid.UUID, ip string) (models.RefreshToken, error) {
	for range maxCreateAttempts {
		token, err := e.generator.GenerateRefresh(ctx, userID, ip, s.Refresh().Exists)
		if err != nil {
			return models.RefreshToken{}, err
		}

		err = s.Refresh().Create(ctx, token)
		switch {
		case err == nil:
			return token, nil
		case errors.Is(err, apperrors.ErrRefreshTokenExists):
			e.logger.Debug("Refresh token value collided, drawing again", "user_id", userID)
			continue
		default:
			return models.RefreshToken{}, err
		}
	}

	return models.RefreshToken{}, fmt.Errorf("can't create unique refresh token in %d attempts", maxCreateAttempts)
}

// Write chain changes: revocations first, then pruned tokens
func (e *Engine) persist(ctx context.Context, s repository.Storage, chain *Chain) error {
	for _, t := range chain.Updated() {
		if err := s.Refresh().Update(ctx, t); err != nil {
			return err
		}
	}

	removed := chain.Removed()
	if len(removed) == 0 {
		return nil
	}

	deleted, err := s.Refresh().DeleteByIDs(ctx, removed)
	if err != nil {
		return err
	}
	e.logger.Debug("Pruned inactive refresh tokens", "count", deleted)

	return nil
}
