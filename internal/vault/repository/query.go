// Package repository implements vault persistence for PostgreSQL and MySQL, plus an
// in-memory session store. Records are always scoped by owner: a row belonging to
// another owner is reported exactly like a missing row.
package repository

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

const recordColumns = `id, owner_id, category, name, url, favorite, algorithm, ciphertext, nonce, auth_tag, version, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// placeholder renders the n-th (1-based) bind parameter for a dialect.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func question(int) string { return "?" }

// ownerFilter builds the WHERE clause for listing an owner's records.
func ownerFilter(ph placeholder, owner any, filter vaultDomain.ListFilter) (string, []any) {
	args := []any{owner}
	conds := []string{"owner_id = " + ph(1)}

	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, "category = "+ph(len(args)))
	}
	if filter.Favorite != nil {
		args = append(args, *filter.Favorite)
		conds = append(conds, "favorite = "+ph(len(args)))
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

func scanRecord(row rowScanner, id, ownerID any) (*vaultDomain.Record, error) {
	var record vaultDomain.Record
	var category string

	err := row.Scan(
		id,
		ownerID,
		&category,
		&record.Name,
		&record.URL,
		&record.Favorite,
		&record.Envelope.Algorithm,
		&record.Envelope.Ciphertext,
		&record.Envelope.Nonce,
		&record.Envelope.AuthTag,
		&record.Version,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Category = vaultDomain.Category(category)
	return &record, nil
}

// scanPostgresRecord scans native UUID columns.
func scanPostgresRecord(row rowScanner) (*vaultDomain.Record, error) {
	var id, ownerID uuid.UUID
	record, err := scanRecord(row, &id, &ownerID)
	if err != nil {
		return nil, err
	}
	record.ID = id
	record.OwnerID = ownerID
	return record, nil
}

// scanMySQLRecord scans BINARY(16) UUID columns.
func scanMySQLRecord(row rowScanner) (*vaultDomain.Record, error) {
	var id, ownerID []byte
	record, err := scanRecord(row, &id, &ownerID)
	if err != nil {
		return nil, err
	}
	if err := record.ID.UnmarshalBinary(id); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record id: %w", err)
	}
	if err := record.OwnerID.UnmarshalBinary(ownerID); err != nil {
		return nil, fmt.Errorf("failed to unmarshal owner id: %w", err)
	}
	return record, nil
}
