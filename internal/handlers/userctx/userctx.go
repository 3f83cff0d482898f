// Package userctx carries request scoped values: the authenticated user and request metadata
package userctx

import (
	"context"

	"github.com/google/uuid"

	"github.com/nkiryanov/usermanagement/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	requestKey
)

// Request metadata resolved once by the outermost middleware
type Request struct {
	ID       string
	ClientIP string
}

// Create a new context with the user
func New(ctx context.Context, u models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// Extract the user from the context
func FromContext(ctx context.Context) (models.User, bool) {
	u, ok := ctx.Value(userKey).(models.User)
	return u, ok
}

// CanAccess reports whether the current user may see data owned by ownerID: own data or any data for admins
func CanAccess(ctx context.Context, ownerID uuid.UUID) bool {
	u, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return u.ID == ownerID || u.IsAdmin()
}

func WithRequest(ctx context.Context, req Request) context.Context {
	return context.WithValue(ctx, requestKey, req)
}

// RequestFrom returns zero Request if middleware didn't set it
func RequestFrom(ctx context.Context) Request {
	req, _ := ctx.Value(requestKey).(Request)
	return req
}
