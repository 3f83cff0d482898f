package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/nkiryanov/usermanagement/docs" // Swagger docs
	"github.com/nkiryanov/usermanagement/internal/handlers/middleware"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterOptions struct {
	// Requests per minute per client IP to login and refresh endpoints
	// Zero disables limiting
	LoginRateLimit int

	// Serve Swagger UI on /swagger/
	Swagger bool
}

// NewRouter builds the API handler
//
//	@title						User Management API
//	@version					1.0
//	@description				Users authentication with short-lived JWT access tokens and rotating refresh tokens.
//	@BasePath					/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func NewRouter(
	authService authService,
	userService userService,
	logger logger.Logger,
	opts RouterOptions,
) http.Handler {
	limited := func(h http.Handler) http.Handler { return h }
	if opts.LoginRateLimit > 0 {
		limited = middleware.NewRateLimiter(opts.LoginRateLimit).Middleware
	}
	withUser := middleware.RequireUser

	mux := http.NewServeMux()

	mux.Handle("POST /users", handleRegister(authService, logger))
	mux.Handle("POST /users/authenticate", limited(handleLogin(authService, logger)))
	mux.Handle("POST /users/refresh-token", limited(handleRefreshToken(authService, logger)))
	mux.Handle("POST /users/revoke-token", withUser(handleRevokeToken(authService, logger)))

	mux.Handle("GET /users", withUser(handleListUsers(userService, logger)))
	mux.Handle("GET /users/{id}", withUser(handleGetUser(userService, logger)))
	mux.Handle("GET /users/{id}/refresh-tokens", withUser(handleListRefreshTokens(userService, logger)))

	if opts.Swagger {
		mux.Handle("/swagger/", httpSwagger.Handler())
	}

	handler := chain(mux,
		middleware.LoggerMiddleware(logger),
		middleware.AuthMiddleware(authService),
	)

	return handler
}

type authService interface {
	// Register user with username and password
	// Has to return apperrors.ErrUserAlreadyExists if user already exists
	Register(ctx context.Context, username string, password string) (models.User, error)

	// Login user with username and password
	// Has to return apperrors.ErrInvalidCredentials if user not found or password is wrong
	Login(ctx context.Context, username string, password string, ip string) (models.Authentication, error)

	// Exchange refresh token for new tokens
	// Has to return apperrors.ErrInvalidToken if token unknown, expired, revoked
	Refresh(ctx context.Context, refresh string, ip string) (models.Authentication, error)

	// Revoke refresh token
	// Has to return apperrors.ErrMissingToken for empty token and apperrors.ErrInvalidToken if token not active
	Revoke(ctx context.Context, refresh string, ip string) error

	// Get user access token issued for
	CurrentUser(ctx context.Context, access string) (models.User, error)
}

type userService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	ListRefreshTokens(ctx context.Context, userID uuid.UUID) ([]models.RefreshToken, error)
}
