package db

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Config struct {
	URL            string
	MaxConns       int32
	ConnectTimeout time.Duration
}

// Pool owns at most one pgx pool. It connects lazily on first use or explicitly
// through Connect, and can be closed any number of times. A closed Pool never
// reconnects.
type Pool struct {
	cfg Config

	mu     sync.Mutex
	pool   *pgxpool.Pool
	closed bool
}

func New(cfg Config) *Pool {
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	return &Pool{cfg: cfg}
}

// Connect is a no-op when the pool already exists.
func (p *Pool) Connect(ctx context.Context) error {
	_, err := p.connect(ctx)

	return err
}

func (p *Pool) connect(ctx context.Context) (*pgxpool.Pool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrNotConnected
	}

	if p.pool != nil {
		return p.pool, nil
	}

	pool, err := newPgxPool(ctx, p.cfg)

	if err != nil {
		return nil, err
	}

	p.pool = pool

	return pool, nil
}

func newPgxPool(ctx context.Context, c Config) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(c.URL)

	if err != nil {
		return nil, fmt.Errorf("%w: parse url: %w", ErrConnect, err)
	}

	if c.MaxConns > 0 {
		cfg.MaxConns = c.MaxConns
	}

	ctx, cancel := context.WithTimeout(ctx, c.ConnectTimeout)

	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnect, err)
	}

	err = pool.Ping(ctx)

	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %w", ErrConnect, err)
	}

	return pool, nil
}

// Close releases every pooled connection. Safe to call when never connected.
// Helpers called afterwards fail with ErrNotConnected.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true

	if p.pool == nil {
		return
	}

	p.pool.Close()
	p.pool = nil
}

// Ping checks the existing pool without connecting lazily.
func (p *Pool) Ping(ctx context.Context) error {
	pool := p.current()

	if pool == nil {
		return ErrNotConnected
	}

	return pool.Ping(ctx)
}

// Stat is nil until the pool is connected.
func (p *Pool) Stat() *pgxpool.Stat {
	pool := p.current()

	if pool == nil {
		return nil
	}

	return pool.Stat()
}

func (p *Pool) current() *pgxpool.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.pool
}

// acquire hands out a connection scoped to one statement; callers must Release it.
func (p *Pool) acquire(ctx context.Context) (*pgxpool.Conn, error) {
	pool, err := p.connect(ctx)

	if err != nil {
		return nil, err
	}

	conn, err := pool.Acquire(ctx)

	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}

	return conn, nil
}
