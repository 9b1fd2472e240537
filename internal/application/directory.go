package application

import (
	"context"
	"strings"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/pkg/apperror"
)

// DirectoryEntry is the public view of a user in the directory.
type DirectoryEntry struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// UserIndex stores and queries directory entries.
type UserIndex interface {
	Index(ctx context.Context, u *entity.User) error
	Search(ctx context.Context, query string, size int) ([]DirectoryEntry, error)
}

// Directory lets authenticated callers look up other users.
type Directory struct {
	index UserIndex
}

func NewDirectory(index UserIndex) *Directory {
	return &Directory{index: index}
}

// UserRegistered indexes a freshly created user.
func (d *Directory) UserRegistered(ctx context.Context, u *entity.User) error {
	if d == nil || d.index == nil {
		return nil
	}
	return d.index.Index(ctx, u)
}

// Search returns up to size entries matching q. size is clamped to 1..50, default 10.
func (d *Directory) Search(ctx context.Context, q string, size int) ([]DirectoryEntry, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, apperror.BadRequest("Query must not be empty")
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	if d == nil || d.index == nil {
		return []DirectoryEntry{}, nil
	}
	out, err := d.index.Search(ctx, q, size)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return out, nil
}
