package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beckelmw/sms-question-poker/internal/domain/repository"
)

// NewPool opens a pgx pool and verifies it with a ping.
func NewPool(ctx context.Context, dsn string, maxConns, minConns int32, maxConnLife time.Duration) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.MaxConnLifetime = maxConnLife
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

var _ repository.Provider = (*Provider)(nil)

// Provider hands out repositories bound to a single pooled connection.
type Provider struct {
	pool *pgxpool.Pool
}

func NewProvider(pool *pgxpool.Pool) *Provider {
	return &Provider{pool: pool}
}

// Acquire checks out one connection and returns a repository over it.
// The caller must invoke release exactly once when done.
func (p *Provider) Acquire(ctx context.Context) (repository.UserRepository, func(), error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, func() {}, fmt.Errorf("acquire connection: %w", err)
	}
	return NewUserRepository(conn), conn.Release, nil
}
