package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/handlers/middleware"
	"github.com/nkiryanov/usermanagement/internal/handlers/render"
	"github.com/nkiryanov/usermanagement/internal/handlers/userctx"
	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/models"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=2,max=50,username"`
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type authenticateRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type authenticateResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	JwtToken string    `json:"jwtToken"`
}

type revokeTokenRequest struct {
	Token string `json:"token"`
}

// Client IP resolved by logger middleware, or from the request itself
func clientIP(r *http.Request) string {
	if ip := userctx.RequestFrom(r.Context()).ClientIP; ip != "" {
		return ip
	}
	return middleware.ClientIP(r)
}

func newAuthenticateResponse(auth models.Authentication) authenticateResponse {
	return authenticateResponse{
		ID:       auth.User.ID,
		Username: auth.User.Username,
		Role:     auth.User.Role,
		JwtToken: auth.Tokens.Access.Value,
	}
}

// handleRegister creates user with default role
//
//	@Summary	Register user
//	@Tags		Users
//	@Accept		json
//	@Produce	json
//	@Param		request	body		registerRequest		true	"Credentials"
//	@Success	201		{object}	models.UserView
//	@Failure	400		{object}	render.ErrorResponse	"Validation failed"
//	@Failure	409		{object}	render.ErrorResponse	"User already exists"
//	@Router		/users [post]
func handleRegister(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[registerRequest](w, r)
		if err != nil {
			return
		}

		user, err := authService.Register(r.Context(), data.Username, data.Password)
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.JSONWithStatus(w, user.View(), http.StatusCreated)
	})
}

// handleLogin authenticates user and starts new session
//
//	@Summary		Authenticate
//	@Description	Returns access token in body and Authorization header, refresh token in HttpOnly 'refreshToken' cookie
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		authenticateRequest	true	"Credentials"
//	@Success		200		{object}	authenticateResponse
//	@Failure		401		{object}	render.ErrorResponse	"Username or password is incorrect"
//	@Failure		429		{object}	render.ErrorResponse	"Too many requests"
//	@Router			/users/authenticate [post]
func handleLogin(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindAndValidate[authenticateRequest](w, r)
		if err != nil {
			return
		}

		auth, err := authService.Login(r.Context(), data.Username, data.Password, clientIP(r))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		setTokens(w, auth.Tokens)
		render.JSON(w, newAuthenticateResponse(auth))
	})
}

// handleRefreshToken exchanges refresh token from cookie for new tokens
//
//	@Summary		Refresh tokens
//	@Description	Reads 'refreshToken' cookie. Replaying already rotated token revokes all its descendants.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	authenticateResponse
//	@Failure		401	{object}	render.ErrorResponse	"Invalid token"
//	@Failure		429	{object}	render.ErrorResponse	"Too many requests"
//	@Router			/users/refresh-token [post]
func handleRefreshToken(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth, err := authService.Refresh(r.Context(), refreshFromCookie(r), clientIP(r))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		setTokens(w, auth.Tokens)
		render.JSON(w, newAuthenticateResponse(auth))
	})
}

// handleRevokeToken revokes refresh token from body or cookie
//
//	@Summary	Revoke refresh token
//	@Tags		Users
//	@Security	BearerAuth
//	@Accept		json
//	@Produce	json
//	@Param		request	body		revokeTokenRequest	false	"Token, 'refreshToken' cookie is used if empty"
//	@Success	200		{object}	render.MessageResponse
//	@Failure	400		{object}	render.ErrorResponse	"Token is required"
//	@Failure	401		{object}	render.ErrorResponse	"Invalid token"
//	@Router		/users/revoke-token [post]
func handleRevokeToken(authService authService, logger logger.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := render.BindOptional[revokeTokenRequest](w, r)
		if err != nil {
			return
		}

		token := data.Token
		if token == "" {
			token = refreshFromCookie(r)
		}

		err = authService.Revoke(r.Context(), token, clientIP(r))
		if err != nil {
			renderError(w, r, logger, err)
			return
		}

		render.Message(w, "Token revoked", http.StatusOK)
	})
}
