// Package database opens the record store and carries the transaction,
// retry and migration helpers shared by the repositories.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"

	apperrors "github.com/allisson/passvault/internal/errors"
)

// Supported driver names. DriverPGX selects the pgx stdlib driver for PostgreSQL.
const (
	DriverPostgres = "postgres"
	DriverPGX      = "pgx"
	DriverMySQL    = "mysql"
)

var supportedDrivers = []string{DriverPostgres, DriverPGX, DriverMySQL}

const defaultPingTimeout = 5 * time.Second

// Config holds pool settings for Connect. A zero PingTimeout uses five seconds.
type Config struct {
	Driver             string
	ConnectionString   string
	MaxOpenConnections int
	MaxIdleConnections int
	ConnMaxLifetime    time.Duration
	PingTimeout        time.Duration
}

// Connect opens a pool and pings it once. An unreachable server is reported as
// ErrUnavailable; an unsupported driver as ErrInvalidInput.
func Connect(cfg Config) (*sql.DB, error) {
	if !slices.Contains(supportedDrivers, cfg.Driver) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "unsupported database driver %q", cfg.Driver)
	}

	db, err := sql.Open(cfg.Driver, cfg.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, WrapError(err, "ping "+cfg.Driver)
	}
	return db, nil
}

// IsPostgres reports whether driver speaks the PostgreSQL dialect.
func IsPostgres(driver string) bool {
	return driver == DriverPostgres || driver == DriverPGX
}
