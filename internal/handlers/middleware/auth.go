package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/handlers/render"
	"github.com/nkiryanov/usermanagement/internal/handlers/userctx"
	"github.com/nkiryanov/usermanagement/internal/models"
)

const (
	accessHeaderName = "Authorization"
	accessAuthScheme = "Bearer"
)

type authService interface {
	// Has to return apperrors.ErrInvalidToken if token not valid
	// and apperrors.ErrUserNotFound if token valid but user gone
	CurrentUser(ctx context.Context, access string) (models.User, error)
}

// AuthMiddleware attaches user to request context if request has valid access token
// Requests without token or with invalid one pass anonymous
func AuthMiddleware(as authService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			access, ok := bearerToken(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			user, err := as.CurrentUser(r.Context(), access)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(userctx.New(r.Context(), user)))
			case errors.Is(err, apperrors.ErrInvalidToken):
				next.ServeHTTP(w, r)
			case errors.Is(err, apperrors.ErrUserNotFound):
				render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			default:
				render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
			}
		})
	}
}

// RequireUser rejects anonymous requests
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := userctx.FromContext(r.Context()); !ok {
			render.ServiceError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get(accessHeaderName), " ")
	if !ok || !strings.EqualFold(scheme, accessAuthScheme) {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}
