package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// MySQLRecordRepository implements Record persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLRecordRepository struct {
	db *sql.DB
}

func uuidBytes(id uuid.UUID) ([]byte, error) {
	b, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal uuid")
	}
	return b, nil
}

// Create inserts a new record.
func (m *MySQLRecordRepository) Create(ctx context.Context, record *vaultDomain.Record) error {
	querier := database.GetTx(ctx, m.db)

	id, err := uuidBytes(record.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuidBytes(record.OwnerID)
	if err != nil {
		return err
	}

	query := `INSERT INTO vault_records (` + recordColumns + `)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		ownerID,
		string(record.Category),
		record.Name,
		record.URL,
		record.Favorite,
		record.Envelope.Algorithm,
		record.Envelope.Ciphertext,
		record.Envelope.Nonce,
		record.Envelope.AuthTag,
		record.Version,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		return database.WrapError(err, "failed to create vault record")
	}
	return nil
}

// GetByID retrieves a record owned by ownerID.
func (m *MySQLRecordRepository) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*vaultDomain.Record, error) {
	return m.getByID(ctx, ownerID, id, "")
}

// GetByIDForUpdate retrieves a record and locks its row until the surrounding
// transaction ends.
func (m *MySQLRecordRepository) GetByIDForUpdate(
	ctx context.Context,
	ownerID, id uuid.UUID,
) (*vaultDomain.Record, error) {
	return m.getByID(ctx, ownerID, id, " FOR UPDATE")
}

func (m *MySQLRecordRepository) getByID(
	ctx context.Context,
	ownerID, id uuid.UUID,
	lock string,
) (*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := uuidBytes(id)
	if err != nil {
		return nil, err
	}
	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE id = ? AND owner_id = ?` + lock

	record, err := scanMySQLRecord(querier.QueryRowContext(ctx, query, idBytes, ownerBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrRecordNotFound
		}
		return nil, database.WrapError(err, "failed to get vault record")
	}
	return record, nil
}

// GetLatest retrieves the owner's most recently updated record.
func (m *MySQLRecordRepository) GetLatest(ctx context.Context, ownerID uuid.UUID) (*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE owner_id = ?
			  ORDER BY updated_at DESC, id DESC
			  LIMIT 1`

	record, err := scanMySQLRecord(querier.QueryRowContext(ctx, query, ownerBytes))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrRecordNotFound
		}
		return nil, database.WrapError(err, "failed to get latest vault record")
	}
	return record, nil
}

// List retrieves one page of the owner's records, most recently updated first.
func (m *MySQLRecordRepository) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) ([]*vaultDomain.Record, error) {
	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return nil, err
	}

	where, args := ownerFilter(question, ownerBytes, filter)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + recordColumns + `
			  FROM vault_records ` + where + `
			  ORDER BY updated_at DESC, id DESC
			  LIMIT ? OFFSET ?`

	return m.query(ctx, query, args...)
}

// Count returns how many of the owner's records match filter.
func (m *MySQLRecordRepository) Count(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) (int, error) {
	querier := database.GetTx(ctx, m.db)

	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return 0, err
	}
	where, args := ownerFilter(question, ownerBytes, filter)

	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM vault_records `+where, args...).Scan(&count); err != nil {
		return 0, database.WrapError(err, "failed to count vault records")
	}
	return count, nil
}

// ListAll retrieves every record of the owner, oldest first.
func (m *MySQLRecordRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]*vaultDomain.Record, error) {
	return m.listAll(ctx, ownerID, "")
}

// ListAllForUpdate is ListAll with every returned row locked for the transaction.
func (m *MySQLRecordRepository) ListAllForUpdate(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*vaultDomain.Record, error) {
	return m.listAll(ctx, ownerID, " FOR UPDATE")
}

func (m *MySQLRecordRepository) listAll(
	ctx context.Context,
	ownerID uuid.UUID,
	lock string,
) ([]*vaultDomain.Record, error) {
	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE owner_id = ?
			  ORDER BY created_at ASC, id ASC` + lock
	return m.query(ctx, query, ownerBytes)
}

// Update writes metadata and envelope if the stored version still equals
// record.Version, then increments record.Version.
func (m *MySQLRecordRepository) Update(ctx context.Context, record *vaultDomain.Record) error {
	querier := database.GetTx(ctx, m.db)

	id, err := uuidBytes(record.ID)
	if err != nil {
		return err
	}
	ownerID, err := uuidBytes(record.OwnerID)
	if err != nil {
		return err
	}

	query := `UPDATE vault_records
			  SET name = ?, url = ?, favorite = ?, algorithm = ?, ciphertext = ?,
			      nonce = ?, auth_tag = ?, version = version + 1, updated_at = ?
			  WHERE id = ? AND owner_id = ? AND version = ?`

	result, err := querier.ExecContext(
		ctx,
		query,
		record.Name,
		record.URL,
		record.Favorite,
		record.Envelope.Algorithm,
		record.Envelope.Ciphertext,
		record.Envelope.Nonce,
		record.Envelope.AuthTag,
		record.UpdatedAt,
		id,
		ownerID,
		record.Version,
	)
	if err != nil {
		return database.WrapError(err, "failed to update vault record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return database.WrapError(err, "failed to get rows affected")
	}
	if rows == 0 {
		return vaultDomain.ErrRecordConflict
	}

	record.Version++
	return nil
}

// LockOwner upserts the owner's lock row, which holds it until the surrounding
// transaction ends. Writers and key rotation of one owner serialize on it.
func (m *MySQLRecordRepository) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return err
	}

	query := `INSERT INTO vault_owners (owner_id) VALUES (?)
			  ON DUPLICATE KEY UPDATE owner_id = owner_id`

	if _, err := querier.ExecContext(ctx, query, ownerBytes); err != nil {
		return database.WrapError(err, "failed to lock vault owner")
	}
	return nil
}

// Delete hard-deletes a record owned by ownerID and reports whether a row matched.
func (m *MySQLRecordRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	idBytes, err := uuidBytes(id)
	if err != nil {
		return false, err
	}
	ownerBytes, err := uuidBytes(ownerID)
	if err != nil {
		return false, err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM vault_records WHERE id = ? AND owner_id = ?`, idBytes, ownerBytes)
	if err != nil {
		return false, database.WrapError(err, "failed to delete vault record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, database.WrapError(err, "failed to get rows affected")
	}
	return rows > 0, nil
}

func (m *MySQLRecordRepository) query(ctx context.Context, query string, args ...any) ([]*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, m.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.WrapError(err, "failed to list vault records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*vaultDomain.Record, 0)
	for rows.Next() {
		record, err := scanMySQLRecord(rows)
		if err != nil {
			return nil, database.WrapError(err, "failed to scan vault record")
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, database.WrapError(err, "failed to iterate vault records")
	}
	return records, nil
}

// NewMySQLRecordRepository creates a new MySQL Record repository instance.
func NewMySQLRecordRepository(db *sql.DB) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db}
}
