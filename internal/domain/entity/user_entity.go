package entity

import (
	"time"
)

// User is the only principal the service authenticates.
// HashedPassword holds a bcrypt hash and is never compared directly.
type User struct {
	ID             string
	FirstName      string
	LastName       string
	Username       string
	HashedPassword string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is the set of claims carried by an access token.
type Identity struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Expires   int64  `json:"expires"`
}

// Identity returns the token claims for u. Expires is filled in by the codec.
func (u *User) Identity() Identity {
	return Identity{
		UserID:    u.ID,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}
