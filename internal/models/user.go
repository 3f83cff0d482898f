package models

import (
	"time"

	"github.com/google/uuid"
)

// Role names seeded by migrations
const (
	RoleUser  = "User"
	RoleAdmin = "Admin"
)

type Role struct {
	ID   uuid.UUID
	Name string
}

type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Username       string
	HashedPassword string
	Role           string
}

// UserView is the user representation safe to hand out to clients
type UserView struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
}

func (u User) View() UserView {
	return UserView{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
	}
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
