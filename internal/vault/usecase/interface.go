// Package usecase implements the vault: the session authorizer that opens and
// closes unlock windows, the store that seals and opens records, and the
// operations facade consumed by the HTTP layer.
//
// Keys are passed into every call that touches secret content and are never kept
// beyond it.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// RecordRepository defines the interface for Record persistence operations.
// Every lookup is scoped by owner.
type RecordRepository interface {
	Create(ctx context.Context, record *vaultDomain.Record) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*vaultDomain.Record, error)
	GetByIDForUpdate(ctx context.Context, ownerID, id uuid.UUID) (*vaultDomain.Record, error)
	GetLatest(ctx context.Context, ownerID uuid.UUID) (*vaultDomain.Record, error)
	List(ctx context.Context, ownerID uuid.UUID, filter vaultDomain.ListFilter) ([]*vaultDomain.Record, error)
	Count(ctx context.Context, ownerID uuid.UUID, filter vaultDomain.ListFilter) (int, error)
	ListAll(ctx context.Context, ownerID uuid.UUID) ([]*vaultDomain.Record, error)
	ListAllForUpdate(ctx context.Context, ownerID uuid.UUID) ([]*vaultDomain.Record, error)
	// Update writes the record when its stored version equals record.Version,
	// otherwise it fails with ErrRecordConflict.
	Update(ctx context.Context, record *vaultDomain.Record) error
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	// LockOwner takes the owner's write lock for the rest of the surrounding
	// transaction.
	LockOwner(ctx context.Context, ownerID uuid.UUID) error
}

// SessionRepository defines the interface for Session persistence operations.
type SessionRepository interface {
	Put(ctx context.Context, session *vaultDomain.Session) error
	Get(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error)
	Delete(ctx context.Context, userID uuid.UUID) error
	// DeleteIfExpired removes the user's session only when it is expired at now.
	DeleteIfExpired(ctx context.Context, userID uuid.UUID, now time.Time) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// SessionAuthorizer tracks whether a user's vault is unlocked and until when.
// Expiry is evaluated lazily on access.
type SessionAuthorizer interface {
	Unlock(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error)
	Lock(ctx context.Context, userID uuid.UUID) error
	// Invalidate closes the session for reasons outside the user's control, such
	// as a logout or a master key change.
	Invalidate(ctx context.Context, userID uuid.UUID) error
	IsUnlocked(ctx context.Context, userID uuid.UUID) (bool, error)
	Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error)
	CleanExpired(ctx context.Context) (int64, error)
}

// VaultStore performs record operations. Reads do not consult the session;
// callers are expected to have done so. Writes take the owner's lock and check
// the session inside the same transaction, failing with ErrVaultLocked.
type VaultStore interface {
	Create(ctx context.Context, ownerID uuid.UUID, key []byte, input *vaultDomain.CreateEntryInput) (*vaultDomain.Entry, error)
	// Get returns ErrRecordNotFound for missing and foreign records and
	// ErrDecryptionFailed when the record exists but cannot be opened with key.
	Get(ctx context.Context, ownerID, id uuid.UUID, key []byte) (*vaultDomain.Entry, error)
	// GetAll opens every record of the page independently; failures are flagged
	// per entry.
	GetAll(ctx context.Context, ownerID uuid.UUID, key []byte, filter vaultDomain.ListFilter) (*vaultDomain.Page, error)
	ListMetadata(ctx context.Context, ownerID uuid.UUID, filter vaultDomain.ListFilter) (*vaultDomain.MetadataPage, error)
	Update(
		ctx context.Context,
		ownerID, id uuid.UUID,
		key []byte,
		input *vaultDomain.UpdateEntryInput,
	) (*vaultDomain.Entry, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	Search(ctx context.Context, ownerID uuid.UUID, key []byte, query string) ([]*vaultDomain.Entry, error)
	Import(
		ctx context.Context,
		ownerID uuid.UUID,
		key []byte,
		items []*vaultDomain.CreateEntryInput,
	) (*vaultDomain.ImportResult, error)
	Export(
		ctx context.Context,
		ownerID uuid.UUID,
		key []byte,
		format vaultDomain.ExportFormat,
	) (*vaultDomain.ExportBundle, error)
	// ChangeMasterKey re-seals every record under newKey in one transaction and
	// closes the session. Nothing is written unless every record opens under oldKey.
	ChangeMasterKey(ctx context.Context, ownerID uuid.UUID, oldKey, newKey []byte) (*vaultDomain.RotationResult, error)
	// VerifyKey trial-opens the most recently updated record. An empty vault
	// accepts any key.
	VerifyKey(ctx context.Context, ownerID uuid.UUID, key []byte) error
}

// VaultUseCase is the operations facade consumed by the HTTP layer. It checks
// key shape and session state before delegating to the store.
type VaultUseCase interface {
	Unlock(ctx context.Context, userID uuid.UUID, key []byte) (*vaultDomain.SessionStatus, error)
	Lock(ctx context.Context, userID uuid.UUID) error
	Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error)
	ListMetadata(ctx context.Context, userID uuid.UUID, filter vaultDomain.ListFilter) (*vaultDomain.MetadataPage, error)
	CreateEntry(
		ctx context.Context,
		userID uuid.UUID,
		key []byte,
		input *vaultDomain.CreateEntryInput,
	) (*vaultDomain.Entry, error)
	GetEntry(ctx context.Context, userID, id uuid.UUID, key []byte) (*vaultDomain.Entry, error)
	GetEntries(
		ctx context.Context,
		userID uuid.UUID,
		key []byte,
		filter vaultDomain.ListFilter,
	) (*vaultDomain.Page, error)
	UpdateEntry(
		ctx context.Context,
		userID, id uuid.UUID,
		key []byte,
		input *vaultDomain.UpdateEntryInput,
	) (*vaultDomain.Entry, error)
	DeleteEntry(ctx context.Context, userID, id uuid.UUID) (bool, error)
	SearchEntries(ctx context.Context, userID uuid.UUID, key []byte, query string) ([]*vaultDomain.Entry, error)
	// ImportVault returns the counts so far together with the error when the
	// batch stops early.
	ImportVault(
		ctx context.Context,
		userID uuid.UUID,
		key []byte,
		items []*vaultDomain.CreateEntryInput,
	) (*vaultDomain.ImportResult, error)
	ExportVault(
		ctx context.Context,
		userID uuid.UUID,
		key []byte,
		format vaultDomain.ExportFormat,
	) (*vaultDomain.ExportBundle, error)
	GeneratePassword(ctx context.Context, opts cryptoDomain.PasswordOptions) (string, error)
	ChangeMasterPassword(
		ctx context.Context,
		userID uuid.UUID,
		oldKey, newKey []byte,
	) (*vaultDomain.RotationResult, error)
}
