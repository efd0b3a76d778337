package usecase

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/allisson/passvault/internal/crypto/codec"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
	"github.com/allisson/passvault/internal/database"
	"github.com/allisson/passvault/internal/testutil"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	vaultRepository "github.com/allisson/passvault/internal/vault/repository"
)

type testVault struct {
	records  *testutil.MemoryRecordRepository
	sessions *vaultRepository.MemorySessionRepository
	clock    *testutil.Clock
	auth     SessionAuthorizer
	store    VaultStore
	facade   VaultUseCase
	owner    uuid.UUID
	key      []byte
}

func fastRetry() database.RetryPolicy {
	return database.RetryPolicy{MaxAttempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func newKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, cryptoDomain.KeySize)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func newTestVault(t *testing.T) *testVault {
	t.Helper()

	envelopeCodec, err := codec.New(codec.Base64)
	require.NoError(t, err)

	v := &testVault{
		records:  testutil.NewMemoryRecordRepository(),
		sessions: vaultRepository.NewMemorySessionRepository(),
		clock:    testutil.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		owner:    uuid.Must(uuid.NewV7()),
		key:      newKey(t),
	}
	v.auth = NewSessionAuthorizer(v.sessions, 15*time.Minute, fastRetry(), v.clock.Now)
	v.store = NewVaultStore(
		v.records,
		v.records,
		v.auth,
		newCipher(),
		envelopeCodec,
		fastRetry(),
		4,
		v.clock.Now,
	)
	v.facade = NewVaultUseCase(v.store, v.auth, cryptoService.NewPasswordGenerator(), false, nil)

	// Store writes check the session, so the owner starts unlocked.
	_, err = v.auth.Unlock(t.Context(), v.owner)
	require.NoError(t, err)
	return v
}

// lock closes the owner's session.
func (v *testVault) lock(t *testing.T) {
	t.Helper()
	require.NoError(t, v.auth.Lock(t.Context(), v.owner))
}

func loginInput(name, username, secret string) *vaultDomain.CreateEntryInput {
	return &vaultDomain.CreateEntryInput{
		Category: vaultDomain.CategoryLogin,
		Name:     name,
		URL:      "https://example.com",
		Fields:   map[string]string{"username": username, "secret": secret},
	}
}

// seed creates n login records, each one second newer than the previous.
func (v *testVault) seed(t *testing.T, n int) []*vaultDomain.Entry {
	t.Helper()
	entries := make([]*vaultDomain.Entry, 0, n)
	for i := range n {
		entry, err := v.store.Create(t.Context(), v.owner, v.key, loginInput(
			"site-"+string(rune('a'+i)), "user-"+string(rune('a'+i)), "pw-"+string(rune('a'+i)),
		))
		require.NoError(t, err)
		entries = append(entries, entry)
		v.clock.Advance(time.Second)
	}
	return entries
}

// corrupt flips the first byte of the stored authentication tag.
func (v *testVault) corrupt(t *testing.T, id uuid.UUID) {
	t.Helper()
	envelopeCodec, err := codec.New(codec.Base64)
	require.NoError(t, err)

	v.records.Tamper(id, func(record *vaultDomain.Record) {
		env, err := envelopeCodec.Decode(record.Envelope)
		require.NoError(t, err)
		env.AuthTag[0] ^= 0xff
		record.Envelope, err = envelopeCodec.Encode(env)
		require.NoError(t, err)
	})
}

func newCipher() cryptoService.Cipher {
	return cryptoService.NewCipher(cryptoService.NewAEADManager(), cryptoDomain.AESGCM)
}
