package repository

import (
	"context"
	"errors"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
)

var (
	// ErrNotFound is returned when no user matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrConflict is returned when a write violates the unique username constraint.
	ErrConflict = errors.New("user conflict")
)

// UserFilter narrows Find. Empty fields are ignored.
type UserFilter struct {
	UsernameSuffix string
	Limit          int
}

// UserRepository defines the CRUD contract for user records.
type UserRepository interface {
	FindOneByUsername(ctx context.Context, username string) (*entity.User, error)
	Find(ctx context.Context, filter UserFilter) ([]*entity.User, error)
	Get(ctx context.Context, id string) (*entity.User, error)
	Add(ctx context.Context, u *entity.User) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) (*entity.User, error)
	Delete(ctx context.Context, id string) error
}

// Provider scopes a UserRepository to one unit of work, usually a request.
// release must be called exactly once, on every exit path.
type Provider interface {
	Acquire(ctx context.Context) (r UserRepository, release func(), err error)
}
