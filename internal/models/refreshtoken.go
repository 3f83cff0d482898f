package models

import (
	"time"

	"github.com/google/uuid"
)

// TokenState is the derived lifecycle state of a refresh token.
// Expired and Revoked are terminal: there is no transition out of them.
type TokenState int

const (
	TokenActive TokenState = iota
	TokenExpired
	TokenRevoked
)

func (s TokenState) String() string {
	switch s {
	case TokenActive:
		return "active"
	case TokenExpired:
		return "expired"
	case TokenRevoked:
		return "revoked"
	default:
		return "unknown"
	}
}

type RefreshToken struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Token       string
	CreatedAt   time.Time
	ExpiresAt   time.Time
	CreatedByIP string

	RevokedAt    *time.Time // nil if token not revoked
	RevokedByIP  string
	RevokeReason string

	// Value of the token that superseded this one, empty if none
	ReplacedBy string
}

// State reports exactly one state at the given instant.
// Revocation wins over expiry: a revoked token stays revoked after it expires.
func (t *RefreshToken) State(now time.Time) TokenState {
	switch {
	case t.RevokedAt != nil:
		return TokenRevoked
	case !now.Before(t.ExpiresAt):
		return TokenExpired
	default:
		return TokenActive
	}
}

func (t *RefreshToken) IsActive(now time.Time) bool {
	return t.State(now) == TokenActive
}

func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
