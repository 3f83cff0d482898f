package user

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/repository"
	"github.com/nkiryanov/usermanagement/internal/repository/postgres"
	"github.com/nkiryanov/usermanagement/internal/testutil"
)

func TestUser(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	// Helper function to create UserService within transaction
	inTx := func(t *testing.T, fn func(s *UserService, storage repository.Storage)) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			storage := postgres.NewStorage(tx)
			fn(NewService(storage), storage)
		})
	}

	t.Run("GetUser", func(t *testing.T) {
		t.Run("get ok", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				created := testutil.CreateUser(t, storage, "alice", models.RoleAdmin)

				user, err := s.GetUser(t.Context(), created.ID)

				require.NoError(t, err)
				require.Equal(t, created, user)
				require.True(t, user.IsAdmin())
			})
		})

		t.Run("not found", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage) {
				_, err := s.GetUser(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})

	t.Run("ListUsers", func(t *testing.T) {
		inTx(t, func(s *UserService, storage repository.Storage) {
			alice := testutil.CreateUser(t, storage, "alice", models.RoleUser)
			bob := testutil.CreateUser(t, storage, "bob", models.RoleAdmin)

			users, err := s.ListUsers(t.Context())

			require.NoError(t, err)
			require.ElementsMatch(t, []models.User{alice, bob}, users)
		})
	})

	t.Run("ListRefreshTokens", func(t *testing.T) {
		t.Run("only user tokens", func(t *testing.T) {
			inTx(t, func(s *UserService, storage repository.Storage) {
				alice := testutil.CreateUser(t, storage, "alice", models.RoleUser)
				bob := testutil.CreateUser(t, storage, "bob", models.RoleUser)
				now := time.Now().Truncate(time.Second)
				for _, token := range []models.RefreshToken{
					{ID: uuid.New(), UserID: alice.ID, Token: "alice-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
					{ID: uuid.New(), UserID: bob.ID, Token: "bob-1", CreatedAt: now, ExpiresAt: now.Add(time.Hour)},
				} {
					require.NoError(t, storage.Refresh().Create(t.Context(), token))
				}

				tokens, err := s.ListRefreshTokens(t.Context(), alice.ID)

				require.NoError(t, err)
				require.Len(t, tokens, 1)
				assert.Equal(t, "alice-1", tokens[0].Token)
			})
		})

		t.Run("unknown user", func(t *testing.T) {
			inTx(t, func(s *UserService, _ repository.Storage) {
				_, err := s.ListRefreshTokens(t.Context(), uuid.New())

				require.ErrorIs(t, err, apperrors.ErrUserNotFound)
			})
		})
	})
}
