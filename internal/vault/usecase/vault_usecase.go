package usecase

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// vaultUseCase implements VaultUseCase.
type vaultUseCase struct {
	store               VaultStore
	sessions            SessionAuthorizer
	generator           cryptoService.PasswordGenerator
	allowLockedMetadata bool
	logger              *slog.Logger
}

// Unlock opens the unlock window after the key opens the newest record. With an
// empty vault any well-formed key is accepted.
func (v *vaultUseCase) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
) (*vaultDomain.SessionStatus, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}
	if err := v.store.VerifyKey(ctx, userID, key); err != nil {
		return nil, err
	}

	session, err := v.sessions.Unlock(ctx, userID)
	if err != nil {
		return nil, err
	}
	expiresAt := session.ExpiresAt
	return &vaultDomain.SessionStatus{Unlocked: true, ExpiresAt: &expiresAt}, nil
}

func (v *vaultUseCase) Lock(ctx context.Context, userID uuid.UUID) error {
	return v.sessions.Lock(ctx, userID)
}

func (v *vaultUseCase) Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error) {
	return v.sessions.Status(ctx, userID)
}

// ListMetadata lists records without secrets. Whether a locked vault may be
// listed is decided by configuration.
func (v *vaultUseCase) ListMetadata(
	ctx context.Context,
	userID uuid.UUID,
	filter vaultDomain.ListFilter,
) (*vaultDomain.MetadataPage, error) {
	if !v.allowLockedMetadata {
		if err := v.requireUnlocked(ctx, userID); err != nil {
			return nil, err
		}
	}
	return v.store.ListMetadata(ctx, userID, filter)
}

func (v *vaultUseCase) CreateEntry(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.Entry, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}
	return v.store.Create(ctx, userID, key, input)
}

func (v *vaultUseCase) GetEntry(
	ctx context.Context,
	userID, id uuid.UUID,
	key []byte,
) (*vaultDomain.Entry, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}
	return v.store.Get(ctx, userID, id, key)
}

func (v *vaultUseCase) GetEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	filter vaultDomain.ListFilter,
) (*vaultDomain.Page, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}
	return v.store.GetAll(ctx, userID, key, filter)
}

func (v *vaultUseCase) UpdateEntry(
	ctx context.Context,
	userID, id uuid.UUID,
	key []byte,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.Entry, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}
	return v.store.Update(ctx, userID, id, key, input)
}

// DeleteEntry needs no key but still requires an unlocked vault.
func (v *vaultUseCase) DeleteEntry(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	if err := v.requireUnlocked(ctx, userID); err != nil {
		return false, err
	}
	return v.store.Delete(ctx, userID, id)
}

func (v *vaultUseCase) SearchEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	query string,
) ([]*vaultDomain.Entry, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}
	return v.store.Search(ctx, userID, key, query)
}

func (v *vaultUseCase) ImportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	items []*vaultDomain.CreateEntryInput,
) (*vaultDomain.ImportResult, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}

	result, err := v.store.Import(ctx, userID, key, items)
	if err != nil {
		if result != nil {
			v.logger.WarnContext(ctx, "vault import stopped",
				slog.Int("created", result.Created),
				slog.Int("failed", result.Failed),
				slog.Any("error", err),
			)
		}
		return result, err
	}
	v.logger.InfoContext(ctx, "vault import finished",
		slog.Int("created", result.Created),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

func (v *vaultUseCase) ExportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	format vaultDomain.ExportFormat,
) (*vaultDomain.ExportBundle, error) {
	if err := v.authorize(ctx, userID, key); err != nil {
		return nil, err
	}

	bundle, err := v.store.Export(ctx, userID, key, format)
	if err != nil {
		return nil, err
	}
	if bundle.Failed > 0 {
		v.logger.WarnContext(ctx, "vault export contains unreadable entries",
			slog.Int("exported", bundle.Exported),
			slog.Int("failed", bundle.Failed),
		)
	}
	return bundle, nil
}

// GeneratePassword needs neither a session nor a key.
func (v *vaultUseCase) GeneratePassword(_ context.Context, opts cryptoDomain.PasswordOptions) (string, error) {
	return v.generator.Generate(opts)
}

// ChangeMasterPassword re-seals the vault under newKey and closes the session.
func (v *vaultUseCase) ChangeMasterPassword(
	ctx context.Context,
	userID uuid.UUID,
	oldKey, newKey []byte,
) (*vaultDomain.RotationResult, error) {
	if err := validateKey(oldKey); err != nil {
		return nil, err
	}
	if err := validateKey(newKey); err != nil {
		return nil, err
	}
	if err := v.requireUnlocked(ctx, userID); err != nil {
		return nil, err
	}

	result, err := v.store.ChangeMasterKey(ctx, userID, oldKey, newKey)
	if err != nil {
		return nil, err
	}
	v.logger.InfoContext(ctx, "vault master key changed", slog.Int("reencrypted", result.Reencrypted))
	return result, nil
}

func (v *vaultUseCase) authorize(ctx context.Context, userID uuid.UUID, key []byte) error {
	if err := validateKey(key); err != nil {
		return err
	}
	return v.requireUnlocked(ctx, userID)
}

func (v *vaultUseCase) requireUnlocked(ctx context.Context, userID uuid.UUID) error {
	unlocked, err := v.sessions.IsUnlocked(ctx, userID)
	if err != nil {
		return err
	}
	if !unlocked {
		return vaultDomain.ErrVaultLocked
	}
	return nil
}

func validateKey(key []byte) error {
	if len(key) != cryptoDomain.KeySize {
		return vaultDomain.ErrInvalidVaultKey
	}
	return nil
}

// NewVaultUseCase creates the operations facade. A nil logger discards output.
func NewVaultUseCase(
	store VaultStore,
	sessions SessionAuthorizer,
	generator cryptoService.PasswordGenerator,
	allowLockedMetadata bool,
	logger *slog.Logger,
) VaultUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &vaultUseCase{
		store:               store,
		sessions:            sessions,
		generator:           generator,
		allowLockedMetadata: allowLockedMetadata,
		logger:              logger,
	}
}
