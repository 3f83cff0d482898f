package apperrors

import (
	"errors"
)

var (
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrRoleNotFound      = errors.New("role not found")

	// Username or password mismatch. Both cases share the error on purpose
	ErrInvalidCredentials = errors.New("username or password is incorrect")

	// Refresh token unknown, expired, revoked or replayed; access token malformed or expired
	ErrInvalidToken = errors.New("invalid token")
	ErrMissingToken = errors.New("token is required")

	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrRefreshTokenExists   = errors.New("refresh token value already exists")
)
