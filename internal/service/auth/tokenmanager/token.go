package tokenmanager

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultSigningMethod   = "HS256"
	defaultRefreshTokenTTL = 7 * 24 * time.Hour

	// Raw length of refresh token before base64 encoding
	refreshTokenBytes = 64

	// Give up if random values keep colliding: crypto/rand is broken then
	maxRefreshDraws = 10
)

type AccessTokenClaims struct {
	jwt.RegisteredClaims
	UserID   string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Reports whether refresh token value is taken already
type ExistsFunc func(ctx context.Context, value string) (bool, error)

// Token manager with sensible default
type Config struct {
	// Secret key to sign access token
	// Required to be set
	SecretKey string

	// JWT MAC (Message Authentication Code) algorithm
	// If not set than default is used
	Alg string

	// Access and refresh token lifetimes
	// If not set than default is used
	AccessTTL  time.Duration
	RefreshTTL time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

type TokenManager struct {
	// Secret key to sign access token
	key []byte

	// JWT MAC (Message Authentication Code) algorithm
	alg jwt.SigningMethod

	// Access and refresh token lifetimes
	accessTTL  time.Duration
	refreshTTL time.Duration

	now func() time.Time
}

func New(cfg Config) (*TokenManager, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key must not be empty")
	}

	if cfg.Alg == "" {
		cfg.Alg = defaultSigningMethod
	}
	alg := jwt.GetSigningMethod(cfg.Alg)
	if _, ok := alg.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing method %q, only HMAC allowed", cfg.Alg)
	}

	setDefaultDuration := func(field *time.Duration, def time.Duration) {
		if *field == 0 {
			*field = def
		}
	}
	setDefaultDuration(&cfg.AccessTTL, defaultAccessTokenTTL)
	setDefaultDuration(&cfg.RefreshTTL, defaultRefreshTokenTTL)

	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &TokenManager{
		key:        []byte(cfg.SecretKey),
		alg:        alg,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		now:        cfg.Now,
	}, nil
}

// RefreshTTL is lifetime of newly generated refresh tokens
func (m *TokenManager) RefreshTTL() time.Duration {
	return m.refreshTTL
}

// Issue signed JWT access token for the user
func (m *TokenManager) IssueAccess(user models.User) (models.IssuedToken, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.accessTTL)

	token := jwt.NewWithClaims(
		m.alg,
		AccessTokenClaims{
			RegisteredClaims: jwt.RegisteredClaims{
				ID:        uuid.NewString(),
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(expiresAt),
			},
			UserID:   user.ID.String(),
			Username: user.Username,
			Role:     user.Role,
		},
	)

	value, err := token.SignedString(m.key)
	if err != nil {
		return models.IssuedToken{}, fmt.Errorf("error while signing access token. Err: %w", err)
	}

	return models.IssuedToken{Value: value, ExpiresAt: expiresAt}, nil
}

// Parse and validate access token
// Any failure is reported as apperrors.ErrInvalidToken
func (m *TokenManager) ParseAccess(access string) (uuid.UUID, error) {
	claims := &AccessTokenClaims{}

	_, err := jwt.ParseWithClaims(
		access,
		claims,
		func(t *jwt.Token) (any, error) {
			return m.key, nil
		},
		jwt.WithValidMethods([]string{m.alg.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", apperrors.ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad user id claim: %w", apperrors.ErrInvalidToken, err)
	}

	return userID, nil
}

// Generate new refresh token for the user
// Value is drawn again while exists reports it is taken
// The token is not persisted
func (m *TokenManager) GenerateRefresh(ctx context.Context, userID uuid.UUID, ip string, exists ExistsFunc) (models.RefreshToken, error) {
	var value string

	for draw := 0; ; draw++ {
		if draw == maxRefreshDraws {
			return models.RefreshToken{}, errors.New("can't draw unique refresh token value")
		}

		b := make([]byte, refreshTokenBytes)
		if _, err := rand.Read(b); err != nil {
			return models.RefreshToken{}, fmt.Errorf("error while generate refresh token. Err: %w", err)
		}
		value = base64.StdEncoding.EncodeToString(b)

		taken, err := exists(ctx, value)
		if err != nil {
			return models.RefreshToken{}, fmt.Errorf("error while checking refresh token uniqueness. Err: %w", err)
		}
		if !taken {
			break
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return models.RefreshToken{}, fmt.Errorf("error while generate refresh token id. Err: %w", err)
	}

	now := m.now().Truncate(time.Second)

	return models.RefreshToken{
		ID:          id,
		UserID:      userID,
		Token:       value,
		CreatedAt:   now,
		ExpiresAt:   now.Add(m.refreshTTL),
		CreatedByIP: ip,
	}, nil
}
