package handlers

import (
	"errors"
	"net/http"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/handlers/render"
	"github.com/nkiryanov/usermanagement/internal/handlers/userctx"
	"github.com/nkiryanov/usermanagement/internal/logger"
)

// Render service error with matching status code
// Unexpected errors are logged and hidden from client
func renderError(w http.ResponseWriter, r *http.Request, l logger.Logger, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		render.ServiceError(w, "Username or password is incorrect", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrInvalidToken):
		render.ServiceError(w, "Invalid token", http.StatusUnauthorized)
	case errors.Is(err, apperrors.ErrMissingToken):
		render.ServiceError(w, "Token is required", http.StatusBadRequest)
	case errors.Is(err, apperrors.ErrUserNotFound):
		render.ServiceError(w, "User not found", http.StatusNotFound)
	case errors.Is(err, apperrors.ErrUserAlreadyExists):
		render.ServiceError(w, "User already exists", http.StatusConflict)
	default:
		l.Error("Request failed", "error", err, "request_id", userctx.RequestFrom(r.Context()).ID)
		render.ServiceError(w, "Internal server error", http.StatusInternalServerError)
	}
}
