package domain

import (
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	"github.com/allisson/passvault/internal/errors"
)

// Vault error definitions.
var (
	// ErrRecordNotFound is returned for missing records and for records owned by
	// someone else. The two cases are indistinguishable to callers.
	ErrRecordNotFound = errors.Wrap(errors.ErrNotFound, "vault entry not found")

	// ErrRecordConflict indicates the record changed between read and write.
	ErrRecordConflict = errors.Wrap(errors.ErrConflict, "vault entry was modified concurrently")

	// ErrVaultLocked indicates the owner has no active unlock session.
	ErrVaultLocked = errors.Wrap(errors.ErrLocked, "vault is locked")

	// ErrSessionNotFound indicates no session row exists for the user.
	ErrSessionNotFound = errors.Wrap(errors.ErrNotFound, "session not found")

	// ErrInvalidCategory indicates a category outside the supported set.
	ErrInvalidCategory = errors.Wrap(errors.ErrInvalidInput, "invalid category")

	// ErrInvalidVaultKey indicates a missing or wrongly sized vault key.
	ErrInvalidVaultKey = errors.Wrap(errors.ErrInvalidInput, "vault key must be a 256-bit key")

	// ErrSameVaultKey indicates a rotation where the old and new keys are equal.
	ErrSameVaultKey = errors.Wrap(errors.ErrInvalidInput, "new vault key must differ from the old key")

	// ErrEmptySearchQuery indicates a search without a query.
	ErrEmptySearchQuery = errors.Wrap(errors.ErrInvalidInput, "search query is required")

	// ErrInvalidPagination indicates an offset below zero or a limit outside [1, 100].
	ErrInvalidPagination = errors.Wrap(errors.ErrInvalidInput, "limit must be between 1 and 100 and offset must not be negative")

	// ErrEmptyImport indicates an import batch with no items.
	ErrEmptyImport = errors.Wrap(errors.ErrInvalidInput, "import batch must contain at least one item")

	// ErrImportTooLarge indicates an import batch above MaxImportItems.
	ErrImportTooLarge = errors.Wrap(errors.ErrInvalidInput, "import batch exceeds 1000 items")

	// ErrUnsupportedExportFormat indicates an export format other than json or csv.
	ErrUnsupportedExportFormat = errors.Wrap(errors.ErrInvalidInput, "export format must be json or csv")

	// ErrUnknownField indicates a secret field that the category does not define.
	ErrUnknownField = errors.Wrap(errors.ErrInvalidInput, "unknown secret field")

	// ErrRotationAborted indicates a master key change stopped because at least one
	// record could not be opened with the old key. No record was modified.
	ErrRotationAborted = errors.Wrap(cryptoDomain.ErrDecryptionFailed, "master key change aborted")
)
