// Package db wires a Postgres connection pool into a persistence.Repository,
// in the same open-configure-ping-wrap shape as
// _examples/sawpanic-cryptorun/internal/infrastructure/db/connection.go's
// Manager, trimmed to the three repositories this service needs.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/econindex/classifier/internal/persistence"
	"github.com/econindex/classifier/internal/persistence/postgres"
)

// Config holds database connection configuration.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	QueryTimeout    time.Duration
}

// DefaultConfig returns reasonable pool defaults.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    5 * time.Second,
	}
}

// Manager owns the pooled connection and the Repository built on top of it.
type Manager struct {
	db     *sqlx.DB
	config Config
	repo   persistence.Repository
}

// NewManager opens a Postgres connection, verifies it with a ping, and
// builds the repository collection on top of it.
func NewManager(config Config) (*Manager, error) {
	if config.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	db, err := sqlx.Open("postgres", config.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(config.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	repo := persistence.Repository{
		Indicators:      postgres.NewIndicatorRepo(db, config.QueryTimeout),
		StageResults:    postgres.NewStageResultRepo(db, config.QueryTimeout),
		Classifications: postgres.NewClassificationRepo(db, config.QueryTimeout),
	}

	return &Manager{db: db, config: config, repo: repo}, nil
}

// Repository returns the repository collection backed by this connection.
func (m *Manager) Repository() persistence.Repository {
	return m.repo
}

// Ping checks connectivity.
func (m *Manager) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// Stats returns connection pool statistics.
func (m *Manager) Stats() map[string]interface{} {
	stats := m.db.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
	}
}

// Close closes the pooled connection.
func (m *Manager) Close() error {
	return m.db.Close()
}
