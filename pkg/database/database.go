// Package database owns the PostgreSQL pool and ties its open and close to
// the application lifecycle.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/trackerzenith/docpipe/pkg/lifecycle"
)

// ErrNotReady is returned by Ping until a startup ping has succeeded, and
// wraps the driver error when a later ping fails.
var ErrNotReady = errors.New("database not ready")

type System interface {
	Connection() *sql.DB

	// Start registers the startup ping and the shutdown close with lc.
	Start(lc *lifecycle.Coordinator) error

	Ping(ctx context.Context) error

	// Stats summarizes the pool for health reporting.
	Stats() PoolStats
}

// PoolStats is the subset of sql.DBStats worth exposing on /health.
type PoolStats struct {
	Open         int           `json:"open"`
	InUse        int           `json:"in_use"`
	Idle         int           `json:"idle"`
	WaitCount    int64         `json:"wait_count"`
	WaitDuration time.Duration `json:"wait_duration_ns"`
}

type database struct {
	conn        *sql.DB
	logger      *slog.Logger
	connTimeout time.Duration
	attempts    int
	ready       atomic.Bool
}

// New opens the pool without connecting; the first connection is made by
// the startup ping.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetimeDuration())

	return &database{
		conn:        db,
		logger:      logger.With("system", "database"),
		connTimeout: cfg.ConnTimeoutDuration(),
		attempts:    max(cfg.ConnectAttempts, 1),
	}, nil
}

func (d *database) Connection() *sql.DB {
	return d.conn
}

func (d *database) Stats() PoolStats {
	s := d.conn.Stats()
	return PoolStats{
		Open:         s.OpenConnections,
		InUse:        s.InUse,
		Idle:         s.Idle,
		WaitCount:    s.WaitCount,
		WaitDuration: s.WaitDuration,
	}
}

func (d *database) Ping(ctx context.Context) error {
	if !d.ready.Load() {
		return ErrNotReady
	}
	if err := d.ping(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrNotReady, err)
	}
	return nil
}

func (d *database) ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, d.connTimeout)
	defer cancel()
	return d.conn.PingContext(ctx)
}

func (d *database) Start(lc *lifecycle.Coordinator) error {
	lc.OnStartup(func() {
		if err := d.connect(lc.Context()); err != nil {
			d.logger.Error("database unreachable", "attempts", d.attempts, "error", err)
			return
		}
		d.ready.Store(true)
		d.logger.Info("database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		d.ready.Store(false)

		if err := d.conn.Close(); err != nil {
			d.logger.Error("database close failed", "error", err)
			return
		}
		d.logger.Info("database connection closed")
	})

	return nil
}

// connect pings up to d.attempts times, doubling the pause between tries
// from one second. It gives up early when ctx ends.
func (d *database) connect(ctx context.Context) error {
	delay := time.Second
	var err error

	for attempt := 1; attempt <= d.attempts; attempt++ {
		if err = d.ping(ctx); err == nil {
			return nil
		}
		if attempt == d.attempts {
			break
		}

		d.logger.Warn("database ping failed, retrying", "attempt", attempt, "retry_in", delay, "error", err)
		select {
		case <-ctx.Done():
			return errors.Join(err, ctx.Err())
		case <-time.After(delay):
		}
		delay *= 2
	}
	return err
}
