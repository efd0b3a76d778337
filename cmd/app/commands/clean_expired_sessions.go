package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	vaultUseCase "github.com/allisson/passvault/internal/vault/usecase"
)

// RunCleanExpiredSessions removes session rows whose unlock window has passed.
// Expired sessions already read as locked, so this only reclaims storage.
func RunCleanExpiredSessions(
	ctx context.Context,
	sessions vaultUseCase.SessionAuthorizer,
	logger *slog.Logger,
	writer io.Writer,
	format string,
) error {
	logger.Info("cleaning expired sessions")

	count, err := sessions.CleanExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to clean expired sessions: %w", err)
	}

	logger.Info("cleanup completed", slog.Int64("count", count))

	return writeOutput(writer, format, map[string]any{"count": count}, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "Successfully deleted %d expired session(s)\n", count)
	})
}
