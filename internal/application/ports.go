package application

import (
	"context"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
)

// PasswordHasher hashes and verifies credentials.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, hash string) bool
}

// TokenEncoder issues access tokens for an identity.
type TokenEncoder interface {
	Encode(id entity.Identity) (string, error)
}

// SignupNotifier is told about every user created by Signup.
// Notification failures never fail the signup.
type SignupNotifier interface {
	UserRegistered(ctx context.Context, u *entity.User) error
}
