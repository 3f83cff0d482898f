package handlers

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
	"github.com/nkiryanov/usermanagement/internal/repository"
	"github.com/nkiryanov/usermanagement/internal/repository/postgres"
	"github.com/nkiryanov/usermanagement/internal/service/auth"
	"github.com/nkiryanov/usermanagement/internal/service/auth/rotation"
	"github.com/nkiryanov/usermanagement/internal/service/auth/tokenmanager"
	"github.com/nkiryanov/usermanagement/internal/service/user"
	"github.com/nkiryanov/usermanagement/internal/testutil"
)

type testEnv struct {
	url     string
	auth    *auth.AuthService
	tokens  *tokenmanager.TokenManager
	storage repository.Storage
}

// Run http server with production services in db transaction
// Transaction rolled back when test stops
func withServer(t *testing.T, pg testutil.PostgresContainer, opts RouterOptions, fn func(env testEnv)) {
	testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		l := logger.NewNoOpLogger()

		tokenManager, err := tokenmanager.New(tokenmanager.Config{SecretKey: "test-secret"})
		require.NoError(t, err, "token manager should be created without errors")

		engine, err := rotation.New(rotation.Config{}, storage, tokenManager, l)
		require.NoError(t, err)

		authService, err := auth.NewService(auth.Config{Hasher: auth.BcryptHasher{Cost: bcrypt.MinCost}}, tokenManager, engine, storage, l)
		require.NoError(t, err, "auth service starting error", err)

		srv := httptest.NewServer(NewRouter(authService, user.NewService(storage), l, opts))
		defer srv.Close()

		fn(testEnv{url: srv.URL, auth: authService, tokens: tokenManager, storage: storage})
	})
}

type request struct {
	method string
	path   string
	body   string
	access string
	cookie string
	header map[string]string
}

// Do request and return response with body read
func do(t *testing.T, env testEnv, req request) (*http.Response, string) {
	t.Helper()

	var body io.Reader
	if req.body != "" {
		body = strings.NewReader(req.body)
	}

	r, err := http.NewRequestWithContext(t.Context(), req.method, env.url+req.path, body)
	require.NoError(t, err)
	if req.body != "" {
		r.Header.Set("Content-Type", "application/json")
	}
	if req.access != "" {
		r.Header.Set("Authorization", "Bearer "+req.access)
	}
	if req.cookie != "" {
		r.AddCookie(&http.Cookie{Name: "refreshToken", Value: req.cookie})
	}
	for k, v := range req.header {
		r.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(r)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(respBody)
}

func refreshCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()

	for _, c := range resp.Cookies() {
		if c.Name == "refreshToken" {
			return c
		}
	}

	t.Fatalf("refresh cookie not set")
	return nil
}

func accessFromHeader(t *testing.T, resp *http.Response) string {
	t.Helper()

	scheme, token, ok := strings.Cut(resp.Header.Get("Authorization"), " ")
	require.True(t, ok, "authorization header should be set")
	require.Equal(t, "Bearer", scheme)
	return token
}

// Create user with role and issue access token for it
func accessFor(t *testing.T, env testEnv, username string, role string) (models.User, string) {
	t.Helper()

	u := testutil.CreateUser(t, env.storage, username, role)
	access, err := env.tokens.IssueAccess(u)
	require.NoError(t, err)

	return u, access.Value
}
