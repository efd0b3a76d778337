package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	"github.com/allisson/passvault/internal/metrics"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

const metricsDomain = "vault"

// vaultUseCaseWithMetrics decorates VaultUseCase with metrics instrumentation.
type vaultUseCaseWithMetrics struct {
	next    VaultUseCase
	metrics metrics.BusinessMetrics
}

// NewVaultUseCaseWithMetrics wraps a VaultUseCase with metrics recording.
func NewVaultUseCaseWithMetrics(useCase VaultUseCase, m metrics.BusinessMetrics) VaultUseCase {
	return &vaultUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := metrics.Status(err)
	v.metrics.RecordOperation(ctx, metricsDomain, operation, status)
	v.metrics.RecordDuration(ctx, metricsDomain, operation, time.Since(start), status)
}

func (v *vaultUseCaseWithMetrics) Unlock(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
) (*vaultDomain.SessionStatus, error) {
	start := time.Now()
	status, err := v.next.Unlock(ctx, userID, key)
	v.record(ctx, "vault_unlock", start, err)
	return status, err
}

func (v *vaultUseCaseWithMetrics) Lock(ctx context.Context, userID uuid.UUID) error {
	start := time.Now()
	err := v.next.Lock(ctx, userID)
	v.record(ctx, "vault_lock", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error) {
	start := time.Now()
	status, err := v.next.Status(ctx, userID)
	v.record(ctx, "vault_status", start, err)
	return status, err
}

func (v *vaultUseCaseWithMetrics) ListMetadata(
	ctx context.Context,
	userID uuid.UUID,
	filter vaultDomain.ListFilter,
) (*vaultDomain.MetadataPage, error) {
	start := time.Now()
	page, err := v.next.ListMetadata(ctx, userID, filter)
	v.record(ctx, "entry_list_metadata", start, err)
	return page, err
}

func (v *vaultUseCaseWithMetrics) CreateEntry(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.Entry, error) {
	start := time.Now()
	entry, err := v.next.CreateEntry(ctx, userID, key, input)
	v.record(ctx, "entry_create", start, err)
	return entry, err
}

func (v *vaultUseCaseWithMetrics) GetEntry(
	ctx context.Context,
	userID, id uuid.UUID,
	key []byte,
) (*vaultDomain.Entry, error) {
	start := time.Now()
	entry, err := v.next.GetEntry(ctx, userID, id, key)
	v.record(ctx, "entry_get", start, err)
	return entry, err
}

func (v *vaultUseCaseWithMetrics) GetEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	filter vaultDomain.ListFilter,
) (*vaultDomain.Page, error) {
	start := time.Now()
	page, err := v.next.GetEntries(ctx, userID, key, filter)
	v.record(ctx, "entry_list", start, err)
	return page, err
}

func (v *vaultUseCaseWithMetrics) UpdateEntry(
	ctx context.Context,
	userID, id uuid.UUID,
	key []byte,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.Entry, error) {
	start := time.Now()
	entry, err := v.next.UpdateEntry(ctx, userID, id, key, input)
	v.record(ctx, "entry_update", start, err)
	return entry, err
}

func (v *vaultUseCaseWithMetrics) DeleteEntry(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	start := time.Now()
	deleted, err := v.next.DeleteEntry(ctx, userID, id)
	v.record(ctx, "entry_delete", start, err)
	return deleted, err
}

func (v *vaultUseCaseWithMetrics) SearchEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	query string,
) ([]*vaultDomain.Entry, error) {
	start := time.Now()
	entries, err := v.next.SearchEntries(ctx, userID, key, query)
	v.record(ctx, "entry_search", start, err)
	return entries, err
}

func (v *vaultUseCaseWithMetrics) ImportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	items []*vaultDomain.CreateEntryInput,
) (*vaultDomain.ImportResult, error) {
	start := time.Now()
	result, err := v.next.ImportVault(ctx, userID, key, items)
	v.record(ctx, "vault_import", start, err)
	if result != nil {
		v.metrics.RecordItems(ctx, metricsDomain, "vault_import", "created", result.Created)
		v.metrics.RecordItems(ctx, metricsDomain, "vault_import", "failed", result.Failed)
	}
	return result, err
}

func (v *vaultUseCaseWithMetrics) ExportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	format vaultDomain.ExportFormat,
) (*vaultDomain.ExportBundle, error) {
	start := time.Now()
	bundle, err := v.next.ExportVault(ctx, userID, key, format)
	v.record(ctx, "vault_export", start, err)
	if bundle != nil {
		v.metrics.RecordItems(ctx, metricsDomain, "vault_export", "exported", bundle.Exported)
		v.metrics.RecordItems(ctx, metricsDomain, "vault_export", "failed", bundle.Failed)
	}
	return bundle, err
}

func (v *vaultUseCaseWithMetrics) GeneratePassword(
	ctx context.Context,
	opts cryptoDomain.PasswordOptions,
) (string, error) {
	start := time.Now()
	password, err := v.next.GeneratePassword(ctx, opts)
	v.record(ctx, "password_generate", start, err)
	return password, err
}

func (v *vaultUseCaseWithMetrics) ChangeMasterPassword(
	ctx context.Context,
	userID uuid.UUID,
	oldKey, newKey []byte,
) (*vaultDomain.RotationResult, error) {
	start := time.Now()
	result, err := v.next.ChangeMasterPassword(ctx, userID, oldKey, newKey)
	v.record(ctx, "master_key_change", start, err)
	if result != nil {
		v.metrics.RecordItems(ctx, metricsDomain, "master_key_change", "reencrypted", result.Reencrypted)
	}
	return result, err
}
