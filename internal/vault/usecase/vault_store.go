package usecase

import (
	"bytes"
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/allisson/passvault/internal/crypto/codec"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// DefaultDecryptConcurrency bounds parallel record opening in batch reads.
const DefaultDecryptConcurrency = 8

// vaultStore implements VaultStore.
type vaultStore struct {
	txManager   database.TxManager
	recordRepo  RecordRepository
	sessions    SessionAuthorizer
	cipher      cryptoService.Cipher
	codec       codec.Codec
	retry       database.RetryPolicy
	concurrency int
	now         func() time.Time
}

// Create validates input, seals the secret fields and persists a new record.
// Invalid input fails before any cryptographic work.
func (s *vaultStore) Create(
	ctx context.Context,
	ownerID uuid.UUID,
	key []byte,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.Entry, error) {
	secrets, err := input.Validate()
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &vaultDomain.Record{
		ID:        uuid.Must(uuid.NewV7()),
		OwnerID:   ownerID,
		Category:  input.Category,
		Name:      strings.TrimSpace(input.Name),
		URL:       strings.TrimSpace(input.URL),
		Favorite:  input.Favorite,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.seal(key, record, secrets); err != nil {
		return nil, err
	}

	err = s.exclusive(ctx, ownerID, func(txCtx context.Context) error {
		return s.recordRepo.Create(txCtx, record)
	})
	if err != nil {
		return nil, err
	}
	return &vaultDomain.Entry{Record: record, Secrets: secrets}, nil
}

// Get retrieves and opens one record.
func (s *vaultStore) Get(ctx context.Context, ownerID, id uuid.UUID, key []byte) (*vaultDomain.Entry, error) {
	record, err := database.RetryRead(ctx, s.retry, func(ctx context.Context) (*vaultDomain.Record, error) {
		return s.recordRepo.GetByID(ctx, ownerID, id)
	})
	if err != nil {
		return nil, err
	}

	secrets, err := s.open(key, record)
	if err != nil {
		return nil, err
	}
	return &vaultDomain.Entry{Record: record, Secrets: secrets}, nil
}

// GetAll retrieves one page of records and opens each independently.
func (s *vaultStore) GetAll(
	ctx context.Context,
	ownerID uuid.UUID,
	key []byte,
	filter vaultDomain.ListFilter,
) (*vaultDomain.Page, error) {
	records, total, err := s.listPage(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}

	entries, err := s.openAll(ctx, key, records)
	if err != nil {
		return nil, err
	}
	return &vaultDomain.Page{Entries: entries, Total: total}, nil
}

// ListMetadata retrieves one page of records without opening them.
func (s *vaultStore) ListMetadata(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) (*vaultDomain.MetadataPage, error) {
	records, total, err := s.listPage(ctx, ownerID, filter)
	if err != nil {
		return nil, err
	}
	return &vaultDomain.MetadataPage{Records: records, Total: total}, nil
}

func (s *vaultStore) listPage(
	ctx context.Context,
	ownerID uuid.UUID,
	filter vaultDomain.ListFilter,
) ([]*vaultDomain.Record, int, error) {
	if err := filter.Validate(); err != nil {
		return nil, 0, err
	}

	records, err := database.RetryRead(ctx, s.retry, func(ctx context.Context) ([]*vaultDomain.Record, error) {
		return s.recordRepo.List(ctx, ownerID, filter)
	})
	if err != nil {
		return nil, 0, err
	}

	total, err := database.RetryRead(ctx, s.retry, func(ctx context.Context) (int, error) {
		return s.recordRepo.Count(ctx, ownerID, filter)
	})
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

// Update opens the latest stored envelope, merges the patch field by field and
// reseals. The row is locked for the duration and the write is version-checked.
func (s *vaultStore) Update(
	ctx context.Context,
	ownerID, id uuid.UUID,
	key []byte,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.Entry, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	var entry *vaultDomain.Entry
	err := s.exclusive(ctx, ownerID, func(txCtx context.Context) error {
		record, err := s.recordRepo.GetByIDForUpdate(txCtx, ownerID, id)
		if err != nil {
			return err
		}

		current, err := s.open(key, record)
		if err != nil {
			return err
		}

		secrets := current
		if len(input.Fields) > 0 {
			if secrets, err = vaultDomain.MergeSecrets(current, input.Fields); err != nil {
				return err
			}
		}

		if input.Name != nil {
			record.Name = strings.TrimSpace(*input.Name)
		}
		if input.URL != nil {
			record.URL = strings.TrimSpace(*input.URL)
		}
		if input.Favorite != nil {
			record.Favorite = *input.Favorite
		}
		record.UpdatedAt = s.now()

		if err := s.seal(key, record, secrets); err != nil {
			return err
		}
		if err := s.recordRepo.Update(txCtx, record); err != nil {
			return err
		}

		entry = &vaultDomain.Entry{Record: record, Secrets: secrets}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Delete hard-deletes a record and reports whether anything matched.
func (s *vaultStore) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	var deleted bool
	err := s.exclusive(ctx, ownerID, func(txCtx context.Context) error {
		var err error
		deleted, err = s.recordRepo.Delete(txCtx, ownerID, id)
		return err
	})
	return deleted, err
}

// Search opens every record and keeps those whose name, URL or non-sensitive
// secret fields contain query. Unreadable records match on name and URL only.
func (s *vaultStore) Search(
	ctx context.Context,
	ownerID uuid.UUID,
	key []byte,
	query string,
) ([]*vaultDomain.Entry, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, vaultDomain.ErrEmptySearchQuery
	}

	entries, err := s.openOwner(ctx, ownerID, key)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	matches := make([]*vaultDomain.Entry, 0)
	for _, entry := range entries {
		if strings.Contains(strings.ToLower(entry.Record.Name), q) ||
			strings.Contains(strings.ToLower(entry.Record.URL), q) ||
			(!entry.Undecryptable && vaultDomain.Matches(entry.Secrets, query)) {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// Import creates every item independently. The batch shape is checked before
// any item is processed; item failures are collected with their 0-based index.
// When the batch stops early the result so far is returned with the error.
func (s *vaultStore) Import(
	ctx context.Context,
	ownerID uuid.UUID,
	key []byte,
	items []*vaultDomain.CreateEntryInput,
) (*vaultDomain.ImportResult, error) {
	switch {
	case len(items) == 0:
		return nil, vaultDomain.ErrEmptyImport
	case len(items) > vaultDomain.MaxImportItems:
		return nil, vaultDomain.ErrImportTooLarge
	}

	result := &vaultDomain.ImportResult{Errors: make([]vaultDomain.ImportError, 0)}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if item == nil {
			result.Failed++
			result.Errors = append(result.Errors, vaultDomain.ImportError{Index: i, Reason: "item is required"})
			continue
		}

		if _, err := s.Create(ctx, ownerID, key, item); err != nil {
			if apperrors.Is(err, apperrors.ErrInternal) || apperrors.Is(err, vaultDomain.ErrVaultLocked) ||
				ctx.Err() != nil {
				return result, err
			}
			result.Failed++
			result.Errors = append(result.Errors, vaultDomain.ImportError{Index: i, Reason: importReason(err)})
			continue
		}
		result.Created++
	}
	return result, nil
}

// importReason exposes validation messages and hides storage details.
func importReason(err error) string {
	switch {
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return err.Error()
	case apperrors.Is(err, apperrors.ErrUnavailable):
		return "storage unavailable"
	default:
		return "failed to store entry"
	}
}

// Export opens the whole vault and renders it. Unreadable records are flagged
// in the output and never rendered as ciphertext.
func (s *vaultStore) Export(
	ctx context.Context,
	ownerID uuid.UUID,
	key []byte,
	format vaultDomain.ExportFormat,
) (*vaultDomain.ExportBundle, error) {
	if !format.Valid() {
		return nil, vaultDomain.ErrUnsupportedExportFormat
	}

	entries, err := s.openOwner(ctx, ownerID, key)
	if err != nil {
		return nil, err
	}
	return renderExport(format, entries)
}

// ChangeMasterKey re-seals the owner's records under newKey.
func (s *vaultStore) ChangeMasterKey(
	ctx context.Context,
	ownerID uuid.UUID,
	oldKey, newKey []byte,
) (*vaultDomain.RotationResult, error) {
	if bytes.Equal(oldKey, newKey) {
		return nil, vaultDomain.ErrSameVaultKey
	}

	result := &vaultDomain.RotationResult{}
	err := s.exclusive(ctx, ownerID, func(txCtx context.Context) error {
		records, err := s.recordRepo.ListAllForUpdate(txCtx, ownerID)
		if err != nil {
			return err
		}

		entries, err := s.openAll(txCtx, oldKey, records)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if entry.Undecryptable {
				return vaultDomain.ErrRotationAborted
			}
		}

		for _, entry := range entries {
			if err := s.seal(newKey, entry.Record, entry.Secrets); err != nil {
				return err
			}
			if err := s.recordRepo.Update(txCtx, entry.Record); err != nil {
				return err
			}
			result.Reencrypted++
		}

		return s.sessions.Invalidate(txCtx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// VerifyKey trial-opens the most recently updated record.
func (s *vaultStore) VerifyKey(ctx context.Context, ownerID uuid.UUID, key []byte) error {
	record, err := database.RetryRead(ctx, s.retry, func(ctx context.Context) (*vaultDomain.Record, error) {
		return s.recordRepo.GetLatest(ctx, ownerID)
	})
	if err != nil {
		if apperrors.Is(err, vaultDomain.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	_, err = s.open(key, record)
	return err
}

// exclusive runs fn in a transaction that holds the owner's write lock and has
// seen the session still open under it. Writes started under a key that a
// concurrent rotation has since replaced fail with ErrVaultLocked.
func (s *vaultStore) exclusive(ctx context.Context, ownerID uuid.UUID, fn func(ctx context.Context) error) error {
	return s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.recordRepo.LockOwner(txCtx, ownerID); err != nil {
			return err
		}

		unlocked, err := s.sessions.IsUnlocked(txCtx, ownerID)
		if err != nil {
			return err
		}
		if !unlocked {
			return vaultDomain.ErrVaultLocked
		}
		return fn(txCtx)
	})
}

// openOwner retrieves and opens every record of the owner.
func (s *vaultStore) openOwner(ctx context.Context, ownerID uuid.UUID, key []byte) ([]*vaultDomain.Entry, error) {
	records, err := database.RetryRead(ctx, s.retry, func(ctx context.Context) ([]*vaultDomain.Record, error) {
		return s.recordRepo.ListAll(ctx, ownerID)
	})
	if err != nil {
		return nil, err
	}
	return s.openAll(ctx, key, records)
}

// openAll opens records concurrently. A record that fails to open is flagged
// Undecryptable; only cancellation fails the whole call, and then no entry is
// returned.
func (s *vaultStore) openAll(
	ctx context.Context,
	key []byte,
	records []*vaultDomain.Record,
) ([]*vaultDomain.Entry, error) {
	entries := make([]*vaultDomain.Entry, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, record := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			secrets, err := s.open(key, record)
			if err != nil {
				entries[i] = &vaultDomain.Entry{Record: record, Undecryptable: true}
				return nil
			}
			entries[i] = &vaultDomain.Entry{Record: record, Secrets: secrets}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// seal serializes secrets, encrypts them bound to the record's owner and id, and
// stores the encoded envelope on record.
func (s *vaultStore) seal(key []byte, record *vaultDomain.Record, secrets vaultDomain.Secrets) error {
	plaintext, err := vaultDomain.MarshalPayload(secrets)
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(plaintext)

	envelope, err := s.cipher.Seal(key, plaintext, record.AAD())
	if err != nil {
		return err
	}

	encoded, err := s.codec.Encode(envelope)
	if err != nil {
		return err
	}
	record.Envelope = encoded
	return nil
}

// open decodes and decrypts the record's envelope. Every failure, including a
// payload that does not parse, is ErrDecryptionFailed.
func (s *vaultStore) open(key []byte, record *vaultDomain.Record) (vaultDomain.Secrets, error) {
	envelope, err := s.codec.Decode(record.Envelope)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}

	plaintext, err := s.cipher.Open(key, envelope, record.AAD())
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	defer cryptoDomain.Zero(plaintext)

	secrets, err := vaultDomain.UnmarshalPayload(plaintext)
	if err != nil {
		return nil, cryptoDomain.ErrDecryptionFailed
	}
	return secrets, nil
}

// NewVaultStore creates a VaultStore. A non-positive concurrency uses
// DefaultDecryptConcurrency and a nil clock uses time.Now.
func NewVaultStore(
	txManager database.TxManager,
	recordRepo RecordRepository,
	sessions SessionAuthorizer,
	cipher cryptoService.Cipher,
	envelopeCodec codec.Codec,
	retry database.RetryPolicy,
	concurrency int,
	clock func() time.Time,
) VaultStore {
	if concurrency <= 0 {
		concurrency = DefaultDecryptConcurrency
	}
	if clock == nil {
		clock = time.Now
	}
	return &vaultStore{
		txManager:   txManager,
		recordRepo:  recordRepo,
		sessions:    sessions,
		cipher:      cipher,
		codec:       envelopeCodec,
		retry:       retry,
		concurrency: concurrency,
		now:         func() time.Time { return clock().UTC() },
	}
}
