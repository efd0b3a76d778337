package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// PostgreSQLSessionRepository implements Session persistence for PostgreSQL databases.
type PostgreSQLSessionRepository struct {
	db *sql.DB
}

// Put creates or replaces the user's session.
func (p *PostgreSQLSessionRepository) Put(ctx context.Context, session *vaultDomain.Session) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO vault_sessions (user_id, created_at, expires_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (user_id) DO UPDATE
			  SET created_at = EXCLUDED.created_at, expires_at = EXCLUDED.expires_at`

	if _, err := querier.ExecContext(ctx, query, session.UserID, session.CreatedAt, session.ExpiresAt); err != nil {
		return database.WrapError(err, "failed to put vault session")
	}
	return nil
}

// Get retrieves the user's session row, expired or not.
func (p *PostgreSQLSessionRepository) Get(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT user_id, created_at, expires_at FROM vault_sessions WHERE user_id = $1`

	var session vaultDomain.Session
	err := querier.QueryRowContext(ctx, query, userID).Scan(
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrSessionNotFound
		}
		return nil, database.WrapError(err, "failed to get vault session")
	}
	return &session, nil
}

// Delete removes the user's session. Deleting a missing session is not an error.
func (p *PostgreSQLSessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM vault_sessions WHERE user_id = $1`, userID); err != nil {
		return database.WrapError(err, "failed to delete vault session")
	}
	return nil
}

// DeleteIfExpired removes the user's session only while its expiry is at or
// before now, so a session renewed in the meantime survives.
func (p *PostgreSQLSessionRepository) DeleteIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, p.db)

	query := `DELETE FROM vault_sessions WHERE user_id = $1 AND expires_at <= $2`
	if _, err := querier.ExecContext(ctx, query, userID, now); err != nil {
		return database.WrapError(err, "failed to delete expired vault session")
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (p *PostgreSQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM vault_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, database.WrapError(err, "failed to delete expired vault sessions")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, database.WrapError(err, "failed to get rows affected")
	}
	return count, nil
}

// NewPostgreSQLSessionRepository creates a new PostgreSQL Session repository instance.
func NewPostgreSQLSessionRepository(db *sql.DB) *PostgreSQLSessionRepository {
	return &PostgreSQLSessionRepository{db: db}
}
