package tokenmanager

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func neverExists(context.Context, string) (bool, error) { return false, nil }

func Test_TokenManager(t *testing.T) {
	t.Parallel()

	testUser := models.User{
		ID:             uuid.New(),
		CreatedAt:      mustParseTime("2024-01-01 19:00:01Z"),
		Username:       "testuser",
		HashedPassword: "hashed_password",
		Role:           models.RoleAdmin,
	}

	newManager := func(t *testing.T, clock *testutil.Clock) *TokenManager {
		m, err := New(Config{
			SecretKey: "test-secret-key",
			Now:       clock.Now,
		})
		require.NoError(t, err, "token manager should be created without errors")
		return m
	}

	t.Run("new defaults", func(t *testing.T) {
		m, err := New(Config{SecretKey: "secret"})
		require.NoError(t, err, "token manager should be created without errors")

		require.Equal(t, []byte("secret"), m.key, "secret key should be set")
		require.Equal(t, defaultAccessTokenTTL, m.accessTTL, "default access token TTL should be set")
		require.Equal(t, defaultRefreshTokenTTL, m.refreshTTL, "default refresh token TTL")
		require.Equal(t, defaultSigningMethod, m.alg.Alg(), "default signing method should be set")
	})

	t.Run("new fail", func(t *testing.T) {
		_, err := New(Config{})
		require.Error(t, err, "empty secret key is not allowed")

		_, err = New(Config{SecretKey: "secret", Alg: "RS256"})
		require.Error(t, err, "only HMAC signing allowed")

		_, err = New(Config{SecretKey: "secret", Alg: "none"})
		require.Error(t, err)
	})

	t.Run("IssueAccess", func(t *testing.T) {
		t.Run("access claims", func(t *testing.T) {
			clock := testutil.NewClock(mustParseTime("2025-06-01 10:00:00.700Z"))
			m := newManager(t, clock)

			issued, err := m.IssueAccess(testUser)
			require.NoError(t, err)

			token, err := jwt.ParseWithClaims(issued.Value, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
				return []byte("test-secret-key"), nil
			}, jwt.WithTimeFunc(clock.Now))
			require.NoError(t, err)
			require.True(t, token.Valid, "access token should be valid")
			require.Equal(t, "HS256", token.Method.Alg())

			claims, ok := token.Claims.(*AccessTokenClaims)
			require.True(t, ok, "claims should be of type AccessTokenClaims")
			assert.Equal(t, testUser.ID.String(), claims.UserID, "user ID in token should match")
			assert.Equal(t, "testuser", claims.Username)
			assert.Equal(t, models.RoleAdmin, claims.Role)
			assert.NotEmpty(t, claims.ID, "token has to has jti")
			assert.Equal(t, mustParseTime("2025-06-01 10:00:00Z"), claims.IssuedAt.UTC())
			assert.Equal(t, mustParseTime("2025-06-01 10:15:00Z"), claims.ExpiresAt.UTC())
			assert.True(t, issued.ExpiresAt.Equal(claims.ExpiresAt.Time), "expires at should match issued token")
		})

		t.Run("generate different tokens", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))

			first, err := m.IssueAccess(testUser)
			require.NoError(t, err)
			second, err := m.IssueAccess(testUser)
			require.NoError(t, err)

			assert.NotEqual(t, first.Value, second.Value, "jti makes tokens different")
		})
	})

	t.Run("ParseAccess", func(t *testing.T) {
		t.Run("valid token", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))
			issued, err := m.IssueAccess(testUser)
			require.NoError(t, err)

			userID, err := m.ParseAccess(issued.Value)

			require.NoError(t, err)
			require.Equal(t, testUser.ID, userID)
		})

		t.Run("expiry boundary", func(t *testing.T) {
			clock := testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z"))
			m := newManager(t, clock)
			issued, err := m.IssueAccess(testUser)
			require.NoError(t, err)

			clock.Set(mustParseTime("2025-06-01 10:14:59Z"))
			_, err = m.ParseAccess(issued.Value)
			require.NoError(t, err, "token valid till the last second")

			clock.Set(mustParseTime("2025-06-01 10:15:00Z"))
			_, err = m.ParseAccess(issued.Value)
			require.ErrorIs(t, err, apperrors.ErrInvalidToken, "token invalid at exact expiry instant")
		})

		t.Run("invalid tokens", func(t *testing.T) {
			clock := testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z"))
			m := newManager(t, clock)
			other, err := New(Config{SecretKey: "other-secret", Now: clock.Now})
			require.NoError(t, err)
			foreign, err := other.IssueAccess(testUser)
			require.NoError(t, err)

			claims := AccessTokenClaims{
				RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour))},
				UserID:           testUser.ID.String(),
			}
			unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
			require.NoError(t, err)
			hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			noExpiry := claims
			noExpiry.ExpiresAt = nil
			withoutExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExpiry).SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			badID := claims
			badID.UserID = "not-a-uuid"
			withBadID, err := jwt.NewWithClaims(jwt.SigningMethodHS256, badID).SignedString([]byte("test-secret-key"))
			require.NoError(t, err)

			tests := []struct {
				name  string
				token string
			}{
				{"empty", ""},
				{"garbage", "not.a.jwt"},
				{"foreign signature", foreign.Value},
				{"alg none", unsigned},
				{"other hmac alg", hs512},
				{"without exp", withoutExp},
				{"bad user id", withBadID},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					userID, err := m.ParseAccess(tt.token)

					require.ErrorIs(t, err, apperrors.ErrInvalidToken)
					require.Equal(t, uuid.Nil, userID)
				})
			}
		})
	})

	t.Run("GenerateRefresh", func(t *testing.T) {
		t.Run("token fields", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00.500Z")))
			userID := uuid.New()

			token, err := m.GenerateRefresh(t.Context(), userID, "10.0.0.1", neverExists)
			require.NoError(t, err)

			assert.NotEqual(t, uuid.Nil, token.ID)
			assert.Equal(t, userID, token.UserID)
			assert.Equal(t, "10.0.0.1", token.CreatedByIP)
			assert.Equal(t, mustParseTime("2025-06-01 10:00:00Z"), token.CreatedAt)
			assert.Equal(t, mustParseTime("2025-06-08 10:00:00Z"), token.ExpiresAt)
			assert.Nil(t, token.RevokedAt)

			raw, err := base64.StdEncoding.DecodeString(token.Token)
			require.NoError(t, err, "token has to be std base64")
			assert.Len(t, raw, 64)
		})

		t.Run("different values", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))

			first, err := m.GenerateRefresh(t.Context(), testUser.ID, "", neverExists)
			require.NoError(t, err)
			second, err := m.GenerateRefresh(t.Context(), testUser.ID, "", neverExists)
			require.NoError(t, err)

			assert.NotEqual(t, first.Token, second.Token)
			assert.NotEqual(t, first.ID, second.ID)
		})

		t.Run("redraw on collision", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))
			var checked []string
			exists := func(_ context.Context, value string) (bool, error) {
				checked = append(checked, value)
				return len(checked) < 3, nil
			}

			token, err := m.GenerateRefresh(t.Context(), testUser.ID, "", exists)

			require.NoError(t, err)
			require.Len(t, checked, 3, "two collisions then free value")
			require.Equal(t, checked[2], token.Token)
		})

		t.Run("give up if always collides", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))

			_, err := m.GenerateRefresh(t.Context(), testUser.ID, "", func(context.Context, string) (bool, error) { return true, nil })

			require.Error(t, err)
		})

		t.Run("exists check error", func(t *testing.T) {
			m := newManager(t, testutil.NewClock(mustParseTime("2025-06-01 10:00:00Z")))
			dbErr := errors.New("db is down")

			_, err := m.GenerateRefresh(t.Context(), testUser.ID, "", func(context.Context, string) (bool, error) { return false, dbErr })

			require.ErrorIs(t, err, dbErr)
		})
	})
}
