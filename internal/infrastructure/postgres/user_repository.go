package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/beckelmw/sms-question-poker/internal/domain/entity"
	"github.com/beckelmw/sms-question-poker/internal/domain/repository"
)

const defaultFindLimit = 100

// DBTX is the subset of pgx shared by pools, pooled connections and transactions.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements repository.UserRepository on the users table.
type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `uuid::text, first_name, last_name, username, hashed_password, created_at, updated_at`

func (r *UserRepository) FindOneByUsername(ctx context.Context, username string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(ctx, query, username)
}

func (r *UserRepository) Get(ctx context.Context, id string) (*entity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uuid = $1`
	return r.scanOne(ctx, query, id)
}

// Find lists users ordered by creation time. An empty UsernameSuffix matches everyone.
func (r *UserRepository) Find(ctx context.Context, filter repository.UserFilter) ([]*entity.User, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultFindLimit
	}
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1 = '' OR right(username, length($1)) = $1)
		ORDER BY created_at, username
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, filter.UsernameSuffix, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []*entity.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}
	return users, nil
}

// Add inserts u and returns it with the server-side timestamps.
func (r *UserRepository) Add(ctx context.Context, u *entity.User) (*entity.User, error) {
	query := `
		INSERT INTO users (uuid, first_name, last_name, username, hashed_password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	out := *u
	err := r.db.QueryRow(ctx, query, u.ID, u.FirstName, u.LastName, u.Username, u.HashedPassword).
		Scan(&out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("insert user %q: %w", u.Username, repository.ErrConflict)
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *entity.User) (*entity.User, error) {
	query := `
		UPDATE users
		SET first_name = $1, last_name = $2, username = $3, hashed_password = $4, updated_at = $5
		WHERE uuid = $6`

	out := *u
	out.UpdatedAt = time.Now().UTC()
	ct, err := r.db.Exec(ctx, query, u.FirstName, u.LastName, u.Username, u.HashedPassword, out.UpdatedAt, u.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("update user %q: %w", u.Username, repository.ErrConflict)
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}
	return &out, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM users WHERE uuid = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepository) scanOne(ctx context.Context, query string, args ...any) (*entity.User, error) {
	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var u entity.User
	if err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.HashedPassword, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ repository.UserRepository = (*UserRepository)(nil)
