package commands

import (
	"log/slog"

	"github.com/allisson/passvault/internal/database"
)

// RunMigrations applies pending migrations from migrationsPath/<dialect> for driver.
func RunMigrations(logger *slog.Logger, migrationsPath, driver, dsn string) error {
	logger.Info("running database migrations",
		slog.String("driver", driver),
		slog.String("source", database.MigrationSource(migrationsPath, driver)),
	)

	if err := database.Migrate(migrationsPath, driver, dsn); err != nil {
		return err
	}

	logger.Info("migrations completed successfully")
	return nil
}
