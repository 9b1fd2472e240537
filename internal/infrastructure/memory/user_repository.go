// Package memory is an in-process UserRepository with the same
// constraints as the users table. It backs tests and local tooling.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/internal/domain/repository"
)

// UserRepository stores users in a map keyed by id.
type UserRepository struct {
	mu    sync.RWMutex
	users map[string]entity.User
	now   func() time.Time

	// Reads and Writes count calls, for tests asserting store traffic.
	Reads  int
	Writes int
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: map[string]entity.User{}, now: time.Now}
}

func (r *UserRepository) FindOneByUsername(_ context.Context, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	for _, u := range r.users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) Find(_ context.Context, filter repository.UserFilter) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	out := []*entity.User{}
	for _, u := range r.users {
		if filter.UsernameSuffix != "" && !strings.HasSuffix(u.Username, filter.UsernameSuffix) {
			continue
		}
		cp := u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Username < out[j].Username
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *UserRepository) Get(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Reads++
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) Add(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	out := *u
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if _, ok := r.users[out.ID]; ok {
		return nil, repository.ErrConflict
	}
	if r.usernameTaken(out.Username, "") {
		return nil, repository.ErrConflict
	}
	now := r.now().UTC()
	out.CreatedAt, out.UpdatedAt = now, now
	r.users[out.ID] = out
	return &out, nil
}

func (r *UserRepository) Update(_ context.Context, u *entity.User) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	prev, ok := r.users[u.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if r.usernameTaken(u.Username, u.ID) {
		return nil, repository.ErrConflict
	}
	out := *u
	out.CreatedAt = prev.CreatedAt
	out.UpdatedAt = r.now().UTC()
	r.users[out.ID] = out
	return &out, nil
}

func (r *UserRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Writes++
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *UserRepository) usernameTaken(username, exceptID string) bool {
	for id, u := range r.users {
		if id != exceptID && u.Username == username {
			return true
		}
	}
	return false
}

// Provider hands out the same repository to every request and counts releases.
type Provider struct {
	Repo *UserRepository

	mu       sync.Mutex
	acquired int
	released int
}

func NewProvider(repo *UserRepository) *Provider {
	return &Provider{Repo: repo}
}

func (p *Provider) Acquire(context.Context) (repository.UserRepository, func(), error) {
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return p.Repo, func() {
		p.mu.Lock()
		p.released++
		p.mu.Unlock()
	}, nil
}

// Outstanding reports acquisitions that have not been released.
func (p *Provider) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired - p.released
}

var (
	_ repository.UserRepository = (*UserRepository)(nil)
	_ repository.Provider       = (*Provider)(nil)
)
