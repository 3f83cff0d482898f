package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/apperrors"
	"github.com/nkiryanov/usermanagement/internal/handlers/render"
	"github.com/nkiryanov/usermanagement/internal/handlers/userctx"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
)

// Refresh token as shown to clients. Token values are never exposed
type refreshTokenView struct {
	ID           uuid.UUID  `json:"id"`
	State        string     `json:"state"`
	CreatedAt    time.Time  `json:"createdAt"`
	CreatedByIP  string     `json:"createdByIp"`
	ExpiresAt    time.Time  `json:"expiresAt"`
	RevokedAt    *time.Time `json:"revokedAt,omitempty"`
	RevokedByIP  string     `json:"revokedByIp,omitempty"`
	RevokeReason string     `json:"revokeReason,omitempty"`
	Replaced     bool       `json:"replaced"`
}

func newRefreshTokenView(t models.RefreshToken, now time.Time) refreshTokenView {
	return refreshTokenView{
		ID:           t.ID,
		State:        t.State(now).String(),
		CreatedAt:    t.CreatedAt,
		CreatedByIP:  t.CreatedByIP,
		ExpiresAt:    t.ExpiresAt,
		RevokedAt:    t.RevokedAt,
		RevokedByIP:  t.RevokedByIP,
		RevokeReason: t.RevokeReason,
		Replaced:     t.ReplacedBy != "",
	}
}

// handleListUsers
//
//	@Summary	List users
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Success	200	{array}		models.UserView
//	@Failure	401	{object}	render.ErrorResponse
//	@Router		/users [get]
func handleListUsers(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		users, err := userService.ListUsers(r.Context())
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		views := make([]models.UserView, 0, len(users))
		for _, u := range users {
			views = append(views, u.View())
		}

		render.JSON(w, views)
	})
}

// handleGetUser
//
//	@Summary	Get user
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User id"	Format(uuid)
//	@Success	200	{object}	models.UserView
//	@Failure	401	{object}	render.ErrorResponse
//	@Failure	404	{object}	render.ErrorResponse	"User not found"
//	@Router		/users/{id} [get]
func handleGetUser(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			renderError(w, r, logger, apperrors.ErrUserNotFound)
			return
		}

		user, err := userService.GetUser(r.Context(), userID)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.JSON(w, user.View())
	})
}

// handleListRefreshTokens shows user sessions. Allowed to the user itself and admins
//
//	@Summary	List user refresh tokens
//	@Tags		Users
//	@Security	BearerAuth
//	@Produce	json
//	@Param		id	path		string	true	"User id"	Format(uuid)
//	@Success	200	{array}		refreshTokenView
//	@Failure	401	{object}	render.ErrorResponse
//	@Failure	403	{object}	render.ErrorResponse
//	@Failure	404	{object}	render.ErrorResponse	"User not found"
//	@Router		/users/{id}/refresh-tokens [get]
func handleListRefreshTokens(userService userService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			renderError(w, r, logger, apperrors.ErrUserNotFound)
			return
		}

		if !userctx.CanAccess(r.Context(), userID) {
			render.ServiceError(w, "Forbidden", http.StatusForbidden)
			return
		}

		tokens, err := userService.ListRefreshTokens(r.Context(), userID)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		now := time.Now()
		views := make([]refreshTokenView, 0, len(tokens))
		for _, t := range tokens {
			views = append(views, newRefreshTokenView(t, now))
		}

		render.JSON(w, views)
	})
}
