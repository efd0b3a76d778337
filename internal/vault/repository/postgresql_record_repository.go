package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// PostgreSQLRecordRepository implements Record persistence for PostgreSQL databases.
type PostgreSQLRecordRepository struct {
	db *sql.DB
}

// Create inserts a new record.
func (p *PostgreSQLRecordRepository) Create(ctx context.Context, record *vaultDomain.Record) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO vault_records (` + recordColumns + `)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := querier.ExecContext(
		ctx,
		query,
		record.ID,
		record.OwnerID,
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
func (p *PostgreSQLRecordRepository) GetByID(
	ctx context.Context,
	ownerID, id uuid.UUID,
) (*vaultDomain.Record, error) {
	return p.getByID(ctx, ownerID, id, "")
}

// GetByIDForUpdate retrieves a record and locks its row until the surrounding
// transaction ends.
func (p *PostgreSQLRecordRepository) GetByIDForUpdate(
	ctx context.Context,
	ownerID, id uuid.UUID,
) (*vaultDomain.Record, error) {
	return p.getByID(ctx, ownerID, id, " FOR UPDATE")
}

func (p *PostgreSQLRecordRepository) getByID(
	ctx context.Context,
	ownerID, id uuid.UUID,
	lock string,
) (*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE id = $1 AND owner_id = $2` + lock

	record, err := scanPostgresRecord(querier.QueryRowContext(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrRecordNotFound
		}
		return nil, database.WrapError(err, "failed to get vault record")
	}
	return record, nil
}

// GetLatest retrieves the owner's most recently updated record.
func (p *PostgreSQLRecordRepository) GetLatest(ctx context.Context, ownerID uuid.UUID) (*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE owner_id = $1
			  ORDER BY updated_at DESC, id DESC
			  LIMIT 1`

	record, err := scanPostgresRecord(querier.QueryRowContext(ctx, query, ownerID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, vaultDomain.ErrRecordNotFound
		}
		return nil, database.WrapError(err, "failed to get latest vault record")
	}
	return record, nil
}

// List retrieves one page of the owner's records, most recently updated first.
func (p *PostgreSQLRecordRepository) List(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) ([]*vaultDomain.Record, error) {
	where, args := ownerFilter(dollar, ownerID, filter)
	args = append(args, filter.Limit, filter.Offset)

	query := `SELECT ` + recordColumns + `
			  FROM vault_records ` + where + `
			  ORDER BY updated_at DESC, id DESC
			  LIMIT ` + dollar(len(args)-1) + ` OFFSET ` + dollar(len(args))

	return p.query(ctx, query, args...)
}

// Count returns how many of the owner's records match filter.
func (p *PostgreSQLRecordRepository) Count(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) (int, error) {
	querier := database.GetTx(ctx, p.db)
	where, args := ownerFilter(dollar, ownerID, filter)

	var count int
	if err := querier.QueryRowContext(ctx, `SELECT COUNT(*) FROM vault_records `+where, args...).Scan(&count); err != nil {
		return 0, database.WrapError(err, "failed to count vault records")
	}
	return count, nil
}

// ListAll retrieves every record of the owner, oldest first.
func (p *PostgreSQLRecordRepository) ListAll(ctx context.Context, ownerID uuid.UUID) ([]*vaultDomain.Record, error) {
	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE owner_id = $1
			  ORDER BY created_at ASC, id ASC`
	return p.query(ctx, query, ownerID)
}

// ListAllForUpdate is ListAll with every returned row locked for the transaction.
func (p *PostgreSQLRecordRepository) ListAllForUpdate(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*vaultDomain.Record, error) {
	query := `SELECT ` + recordColumns + `
			  FROM vault_records
			  WHERE owner_id = $1
			  ORDER BY created_at ASC, id ASC
			  FOR UPDATE`
	return p.query(ctx, query, ownerID)
}

// Update writes metadata and envelope if the stored version still equals
// record.Version, then increments record.Version.
func (p *PostgreSQLRecordRepository) Update(ctx context.Context, record *vaultDomain.Record) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE vault_records
			  SET name = $1, url = $2, favorite = $3, algorithm = $4, ciphertext = $5,
			      nonce = $6, auth_tag = $7, version = version + 1, updated_at = $8
			  WHERE id = $9 AND owner_id = $10 AND version = $11`

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
		record.ID,
		record.OwnerID,
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
func (p *PostgreSQLRecordRepository) LockOwner(ctx context.Context, ownerID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO vault_owners (owner_id) VALUES ($1)
			  ON CONFLICT (owner_id) DO UPDATE SET owner_id = EXCLUDED.owner_id`

	if _, err := querier.ExecContext(ctx, query, ownerID); err != nil {
		return database.WrapError(err, "failed to lock vault owner")
	}
	return nil
}

// Delete hard-deletes a record owned by ownerID and reports whether a row matched.
func (p *PostgreSQLRecordRepository) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM vault_records WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, database.WrapError(err, "failed to delete vault record")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, database.WrapError(err, "failed to get rows affected")
	}
	return rows > 0, nil
}

func (p *PostgreSQLRecordRepository) query(ctx context.Context, query string, args ...any) ([]*vaultDomain.Record, error) {
	querier := database.GetTx(ctx, p.db)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, database.WrapError(err, "failed to list vault records")
	}
	defer func() {
		_ = rows.Close()
	}()

	records := make([]*vaultDomain.Record, 0)
	for rows.Next() {
		record, err := scanPostgresRecord(rows)
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

// NewPostgreSQLRecordRepository creates a new PostgreSQL Record repository instance.
func NewPostgreSQLRecordRepository(db *sql.DB) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db}
}
