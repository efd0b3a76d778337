package usecase

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/passvault/internal/crypto/codec"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
	apperrors "github.com/allisson/passvault/internal/errors"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	vaultUsecaseMocks "github.com/allisson/passvault/internal/vault/usecase/mocks"
)

func TestVaultUseCase_EndToEnd(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	status, err := v.facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)
	assert.True(t, status.Unlocked)

	created, err := v.facade.CreateEntry(ctx, v.owner, v.key, &vaultDomain.CreateEntryInput{
		Category: vaultDomain.CategoryLogin,
		Name:     "Example",
		Fields:   map[string]string{"username": "alice", "secret": "p@ss"},
	})
	require.NoError(t, err)

	got, err := v.facade.GetEntry(ctx, v.owner, created.Record.ID, v.key)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"username": "alice", "secret": "p@ss"}, got.Secrets.Fields())

	_, err = v.facade.GetEntry(ctx, v.owner, created.Record.ID, newKey(t))
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	deleted, err := v.facade.DeleteEntry(ctx, v.owner, created.Record.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = v.facade.GetEntry(ctx, v.owner, created.Record.ID, v.key)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestVaultUseCase_LoginPasswordAliasReadsBackAsSecret(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)

	created, err := v.facade.CreateEntry(ctx, v.owner, v.key, &vaultDomain.CreateEntryInput{
		Category: vaultDomain.CategoryLogin,
		Name:     "Legacy client",
		Fields:   map[string]string{"username": "bob", "password": "hunter2"},
	})
	require.NoError(t, err)

	got, err := v.facade.GetEntry(ctx, v.owner, created.Record.ID, v.key)
	require.NoError(t, err)
	assert.Equal(t, "hunter2", got.Secrets.Fields()["secret"])
}

func TestVaultUseCase_RequiresUnlockedVault(t *testing.T) {
	v := newTestVault(t)
	v.lock(t)
	ctx := context.Background()
	id := uuid.New()

	calls := map[string]func() error{
		"create": func() error {
			_, err := v.facade.CreateEntry(ctx, v.owner, v.key, loginInput("a", "b", "c"))
			return err
		},
		"get": func() error {
			_, err := v.facade.GetEntry(ctx, v.owner, id, v.key)
			return err
		},
		"list": func() error {
			_, err := v.facade.GetEntries(ctx, v.owner, v.key, vaultDomain.ListFilter{Limit: 10})
			return err
		},
		"update": func() error {
			_, err := v.facade.UpdateEntry(ctx, v.owner, id, v.key, &vaultDomain.UpdateEntryInput{})
			return err
		},
		"delete": func() error {
			_, err := v.facade.DeleteEntry(ctx, v.owner, id)
			return err
		},
		"search": func() error {
			_, err := v.facade.SearchEntries(ctx, v.owner, v.key, "x")
			return err
		},
		"import": func() error {
			_, err := v.facade.ImportVault(ctx, v.owner, v.key, []*vaultDomain.CreateEntryInput{loginInput("a", "b", "c")})
			return err
		},
		"export": func() error {
			_, err := v.facade.ExportVault(ctx, v.owner, v.key, vaultDomain.ExportJSON)
			return err
		},
		"metadata": func() error {
			_, err := v.facade.ListMetadata(ctx, v.owner, vaultDomain.ListFilter{Limit: 10})
			return err
		},
		"change master password": func() error {
			_, err := v.facade.ChangeMasterPassword(ctx, v.owner, v.key, newKey(t))
			return err
		},
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			err := call()
			assert.ErrorIs(t, err, vaultDomain.ErrVaultLocked)
			assert.ErrorIs(t, err, apperrors.ErrLocked)
		})
	}
}

func TestVaultUseCase_SessionExpiry(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)
	_, err = v.facade.CreateEntry(ctx, v.owner, v.key, loginInput("a", "b", "c"))
	require.NoError(t, err)

	v.clock.Advance(15 * time.Minute)

	_, err = v.facade.CreateEntry(ctx, v.owner, v.key, loginInput("a", "b", "c"))
	assert.ErrorIs(t, err, vaultDomain.ErrVaultLocked)

	status, err := v.facade.Status(ctx, v.owner)
	require.NoError(t, err)
	assert.False(t, status.Unlocked)
}

func TestVaultUseCase_Lock(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	_, err := v.facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)
	require.NoError(t, v.facade.Lock(ctx, v.owner))

	_, err = v.facade.GetEntries(ctx, v.owner, v.key, vaultDomain.ListFilter{Limit: 10})
	assert.ErrorIs(t, err, vaultDomain.ErrVaultLocked)
}

func TestVaultUseCase_UnlockProvesKey(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()
	v.seed(t, 2)
	v.lock(t)

	_, err := v.facade.Unlock(ctx, v.owner, newKey(t))
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)

	unlocked, err := v.auth.IsUnlocked(ctx, v.owner)
	require.NoError(t, err)
	assert.False(t, unlocked, "a wrong key must not open a session")

	_, err = v.facade.Unlock(ctx, v.owner, v.key)
	assert.NoError(t, err)
}

func TestVaultUseCase_RejectsMalformedKeys(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	for _, key := range [][]byte{nil, make([]byte, 16), make([]byte, 33)} {
		_, err := v.facade.Unlock(ctx, v.owner, key)
		assert.ErrorIs(t, err, vaultDomain.ErrInvalidVaultKey)

		_, err = v.facade.GetEntry(ctx, v.owner, uuid.New(), key)
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	}
}

func TestVaultUseCase_LockedMetadataPolicy(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed when configured", func(t *testing.T) {
		v := newTestVault(t)
		v.seed(t, 2)
		v.lock(t)
		facade := NewVaultUseCase(v.store, v.auth, cryptoService.NewPasswordGenerator(), true, nil)

		page, err := facade.ListMetadata(ctx, v.owner, vaultDomain.ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
	})

	t.Run("unlocked vault can always list", func(t *testing.T) {
		v := newTestVault(t)
		v.seed(t, 1)
		_, err := v.facade.Unlock(ctx, v.owner, v.key)
		require.NoError(t, err)

		page, err := v.facade.ListMetadata(ctx, v.owner, vaultDomain.ListFilter{Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}

func TestVaultUseCase_ChangeMasterPassword(t *testing.T) {
	var logs bytes.Buffer
	v := newTestVault(t)
	ctx := context.Background()
	facade := NewVaultUseCase(
		v.store, v.auth, cryptoService.NewPasswordGenerator(), false,
		slog.New(slog.NewJSONHandler(&logs, nil)),
	)
	v.seed(t, 3)
	newK := newKey(t)

	_, err := facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)

	_, err = facade.ChangeMasterPassword(ctx, v.owner, v.key, make([]byte, 8))
	assert.ErrorIs(t, err, vaultDomain.ErrInvalidVaultKey)

	result, err := facade.ChangeMasterPassword(ctx, v.owner, v.key, newK)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Reencrypted)
	assert.Contains(t, logs.String(), `"reencrypted":3`)

	_, err = facade.GetEntries(ctx, v.owner, newK, vaultDomain.ListFilter{Limit: 10})
	assert.ErrorIs(t, err, vaultDomain.ErrVaultLocked, "the next unlock must use the new key")

	_, err = facade.Unlock(ctx, v.owner, v.key)
	assert.ErrorIs(t, err, cryptoDomain.ErrDecryptionFailed)
	_, err = facade.Unlock(ctx, v.owner, newK)
	assert.NoError(t, err)
}

func TestVaultUseCase_ImportLogsCountsOnly(t *testing.T) {
	var logs bytes.Buffer
	v := newTestVault(t)
	ctx := context.Background()
	facade := NewVaultUseCase(
		v.store, v.auth, cryptoService.NewPasswordGenerator(), false,
		slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})),
	)
	_, err := facade.Unlock(ctx, v.owner, v.key)
	require.NoError(t, err)

	result, err := facade.ImportVault(ctx, v.owner, v.key, []*vaultDomain.CreateEntryInput{
		loginInput("bank", "alice", "hunter2"),
		{Category: "bogus", Name: "x"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)

	out := logs.String()
	assert.Contains(t, out, `"created":1`)
	assert.Contains(t, out, `"failed":1`)
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "bank")
}

func TestVaultUseCase_GeneratePasswordNeedsNoSession(t *testing.T) {
	v := newTestVault(t)

	password, err := v.facade.GeneratePassword(context.Background(), cryptoDomain.PasswordOptions{
		Length:    24,
		Lowercase: true,
		Digits:    true,
	})
	require.NoError(t, err)
	assert.Len(t, password, 24)

	_, err = v.facade.GeneratePassword(context.Background(), cryptoDomain.PasswordOptions{Length: 24})
	assert.ErrorIs(t, err, cryptoDomain.ErrNoCharacterClass)
}

func TestVaultUseCase_SessionStoreUnavailable(t *testing.T) {
	v := newTestVault(t)
	sessions := vaultUsecaseMocks.NewMockSessionAuthorizer(t)
	facade := NewVaultUseCase(v.store, sessions, cryptoService.NewPasswordGenerator(), false, nil)
	unavailable := apperrors.Wrap(apperrors.ErrUnavailable, "db down")

	sessions.On("IsUnlocked", context.Background(), v.owner).Return(false, unavailable).Once()

	_, err := facade.GetEntries(context.Background(), v.owner, v.key, vaultDomain.ListFilter{Limit: 10})
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
	assert.NotErrorIs(t, err, vaultDomain.ErrVaultLocked)
}

func TestVaultUseCase_ImportStoppedReturnsPartialResult(t *testing.T) {
	var logs bytes.Buffer
	v := newTestVault(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	envelopeCodec, err := codec.New(codec.Base64)
	require.NoError(t, err)
	repo := &cancellingRecordRepo{MemoryRecordRepository: v.records, cancelAfter: 2, cancel: cancel}
	store := NewVaultStore(v.records, repo, v.auth, newCipher(), envelopeCodec, fastRetry(), 1, v.clock.Now)
	facade := NewVaultUseCase(
		store, v.auth, cryptoService.NewPasswordGenerator(), false,
		slog.New(slog.NewJSONHandler(&logs, nil)),
	)

	result, err := facade.ImportVault(ctx, v.owner, v.key, []*vaultDomain.CreateEntryInput{
		loginInput("one", "u1", "hunter2"),
		loginInput("two", "u2", "hunter3"),
		loginInput("three", "u3", "hunter4"),
	})
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Equal(t, 2, result.Created)

	out := logs.String()
	assert.Contains(t, out, "vault import stopped")
	assert.Contains(t, out, `"created":2`)
	assert.NotContains(t, out, "hunter")
}
