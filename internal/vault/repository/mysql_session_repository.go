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

// MySQLSessionRepository implements Session persistence for MySQL databases.
type MySQLSessionRepository struct {
	db *sql.DB
}

// Put creates or replaces the user's session.
func (m *MySQLSessionRepository) Put(ctx context.Context, session *vaultDomain.Session) error {
	querier := database.GetTx(ctx, m.db)

	userID, err := uuidBytes(session.UserID)
	if err != nil {
		return err
	}

	query := `INSERT INTO vault_sessions (user_id, created_at, expires_at)
			  VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE created_at = VALUES(created_at), expires_at = VALUES(expires_at)`

	if _, err := querier.ExecContext(ctx, query, userID, session.CreatedAt, session.ExpiresAt); err != nil {
		return database.WrapError(err, "failed to put vault session")
	}
	return nil
}

// Get retrieves the user's session row, expired or not.
func (m *MySQLSessionRepository) Get(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	querier := database.GetTx(ctx, m.db)

	userBytes, err := uuidBytes(userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT created_at, expires_at FROM vault_sessions WHERE user_id = ?`

	session := vaultDomain.Session{UserID: userID}
	err = querier.QueryRowContext(ctx, query, userBytes).Scan(&session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrSessionNotFound
		}
		return nil, database.WrapError(err, "failed to get vault session")
	}
	return &session, nil
}

// Delete removes the user's session. Deleting a missing session is not an error.
func (m *MySQLSessionRepository) Delete(ctx context.Context, userID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	userBytes, err := uuidBytes(userID)
	if err != nil {
		return err
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM vault_sessions WHERE user_id = ?`, userBytes); err != nil {
		return database.WrapError(err, "failed to delete vault session")
	}
	return nil
}

// DeleteIfExpired removes the user's session only while its expiry is at or
// before now, so a session renewed in the meantime survives.
func (m *MySQLSessionRepository) DeleteIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) error {
	querier := database.GetTx(ctx, m.db)

	userBytes, err := uuidBytes(userID)
	if err != nil {
		return err
	}

	query := `DELETE FROM vault_sessions WHERE user_id = ? AND expires_at <= ?`
	if _, err := querier.ExecContext(ctx, query, userBytes, now); err != nil {
		return database.WrapError(err, "failed to delete expired vault session")
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (m *MySQLSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM vault_sessions WHERE expires_at <= ?`, now)
	if err != nil {
		return 0, database.WrapError(err, "failed to delete expired vault sessions")
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, database.WrapError(err, "failed to get rows affected")
	}
	return count, nil
}

// NewMySQLSessionRepository creates a new MySQL Session repository instance.
func NewMySQLSessionRepository(db *sql.DB) *MySQLSessionRepository {
	return &MySQLSessionRepository{db: db}
}
