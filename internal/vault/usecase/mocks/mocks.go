// Package mocks provides testify mocks of the vault use case interfaces.
package mocks

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// MockVaultUseCase is a mock implementation of usecase.VaultUseCase.
type MockVaultUseCase struct {
	mock.Mock
}

// NewMockVaultUseCase creates a MockVaultUseCase whose expectations are asserted
// on cleanup.
func NewMockVaultUseCase(t *testing.T) *MockVaultUseCase {
	m := &MockVaultUseCase{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockVaultUseCase) Unlock(ctx context.Context, userID uuid.UUID, key []byte) (*vaultDomain.SessionStatus, error) {
	args := m.Called(ctx, userID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SessionStatus), args.Error(1)
}

func (m *MockVaultUseCase) Lock(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockVaultUseCase) Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SessionStatus), args.Error(1)
}

func (m *MockVaultUseCase) ListMetadata(
	ctx context.Context,
	userID uuid.UUID,
	filter vaultDomain.ListFilter,
) (*vaultDomain.MetadataPage, error) {
	args := m.Called(ctx, userID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.MetadataPage), args.Error(1)
}

func (m *MockVaultUseCase) CreateEntry(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	input *vaultDomain.CreateEntryInput,
) (*vaultDomain.Entry, error) {
	args := m.Called(ctx, userID, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Entry), args.Error(1)
}

func (m *MockVaultUseCase) GetEntry(ctx context.Context, userID, id uuid.UUID, key []byte) (*vaultDomain.Entry, error) {
	args := m.Called(ctx, userID, id, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Entry), args.Error(1)
}

func (m *MockVaultUseCase) GetEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	filter vaultDomain.ListFilter,
) (*vaultDomain.Page, error) {
	args := m.Called(ctx, userID, key, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Page), args.Error(1)
}

func (m *MockVaultUseCase) UpdateEntry(
	ctx context.Context,
	userID, id uuid.UUID,
	key []byte,
	input *vaultDomain.UpdateEntryInput,
) (*vaultDomain.Entry, error) {
	args := m.Called(ctx, userID, id, key, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Entry), args.Error(1)
}

func (m *MockVaultUseCase) DeleteEntry(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockVaultUseCase) SearchEntries(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	query string,
) ([]*vaultDomain.Entry, error) {
	args := m.Called(ctx, userID, key, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*vaultDomain.Entry), args.Error(1)
}

func (m *MockVaultUseCase) ImportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	items []*vaultDomain.CreateEntryInput,
) (*vaultDomain.ImportResult, error) {
	args := m.Called(ctx, userID, key, items)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.ImportResult), args.Error(1)
}

func (m *MockVaultUseCase) ExportVault(
	ctx context.Context,
	userID uuid.UUID,
	key []byte,
	format vaultDomain.ExportFormat,
) (*vaultDomain.ExportBundle, error) {
	args := m.Called(ctx, userID, key, format)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.ExportBundle), args.Error(1)
}

func (m *MockVaultUseCase) GeneratePassword(ctx context.Context, opts cryptoDomain.PasswordOptions) (string, error) {
	args := m.Called(ctx, opts)
	return args.String(0), args.Error(1)
}

func (m *MockVaultUseCase) ChangeMasterPassword(
	ctx context.Context,
	userID uuid.UUID,
	oldKey, newKey []byte,
) (*vaultDomain.RotationResult, error) {
	args := m.Called(ctx, userID, oldKey, newKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.RotationResult), args.Error(1)
}

// MockSessionAuthorizer is a mock implementation of usecase.SessionAuthorizer.
type MockSessionAuthorizer struct {
	mock.Mock
}

// NewMockSessionAuthorizer creates a MockSessionAuthorizer whose expectations are
// asserted on cleanup.
func NewMockSessionAuthorizer(t *testing.T) *MockSessionAuthorizer {
	m := &MockSessionAuthorizer{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockSessionAuthorizer) Unlock(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.Session), args.Error(1)
}

func (m *MockSessionAuthorizer) Lock(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockSessionAuthorizer) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return m.Called(ctx, userID).Error(0)
}

func (m *MockSessionAuthorizer) IsUnlocked(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSessionAuthorizer) Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*vaultDomain.SessionStatus), args.Error(1)
}

func (m *MockSessionAuthorizer) CleanExpired(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}
