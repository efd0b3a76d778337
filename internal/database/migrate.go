package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
)

// MigrationSource returns the migrations directory URL for driver.
func MigrationSource(dir, driver string) string {
	if driver == DriverMySQL {
		return "file://" + dir + "/mysql"
	}
	return "file://" + dir + "/postgresql"
}

// MigrationURL converts a driver connection string into the URL golang-migrate expects.
func MigrationURL(driver, dsn string) string {
	if driver == DriverMySQL && !strings.HasPrefix(dsn, "mysql://") {
		return "mysql://" + dsn
	}
	return dsn
}

// Migrate applies all pending migrations from dir. No pending migrations is not an error.
func Migrate(dir, driver, dsn string) (err error) {
	m, err := migrate.New(MigrationSource(dir, driver), MigrationURL(driver, dsn))
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if err == nil {
			err = errors.Join(srcErr, dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
