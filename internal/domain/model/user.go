package model

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"-"` // Not exposed
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Actor is the authenticated identity threaded into every core call.
// A nil *Actor means an anonymous request.
type Actor struct {
	ID   string
	Role string
}

func (a *Actor) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}
