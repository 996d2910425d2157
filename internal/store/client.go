// Package store implements capability.Repositories over PostgreSQL, plus a
// Redis-backed volatile front for the query cache. Grounded on
// codeready-toolchain/tarsy's pkg/database/client.go: connection pooling
// via the pgx stdlib driver and startup migrations via golang-migrate with
// an embed.FS source. Adapted away from tarsy's ent.Client wrapper — ent
// requires a code-generation step this module can never run — to a plain
// *pgxpool.Pool and hand-written SQL.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations
var migrationsFS embed.FS

// Config holds PostgreSQL connection and pool settings.
type Config struct {
	DatabaseURL     string
	MaxConns        int32
	MaxConnIdleTime time.Duration
}

// Store wraps a pgx connection pool and satisfies capability.Repositories.
type Store struct {
	pool  *pgxpool.Pool
	redis *RedisCache
}

// WithRedis attaches a Redis front to the query cache. Calling it is
// optional; a Store with no Redis front falls back to PostgreSQL alone.
func (s *Store) WithRedis(r *RedisCache) *Store {
	s.redis = r
	return s
}

// Open connects to PostgreSQL, applies pending migrations, and returns a
// ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("store: parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MaxConnIdleTime > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("store: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	if err := runMigrations(cfg.DatabaseURL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// runMigrations applies every pending up migration embedded under
// migrations/, using database/sql + the pgx stdlib driver since
// golang-migrate's postgres driver wants a *sql.DB, not a pgxpool.Pool.
func runMigrations(databaseURL string) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("postgres driver: %w", err)
	}
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	defer source.Close()

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
