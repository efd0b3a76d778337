package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authService "github.com/allisson/passvault/internal/auth/service"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
)

// MockKMSService is a hand-written mock of cryptoService.KMSService.
type MockKMSService struct {
	mock.Mock
}

func (m *MockKMSService) OpenKeeper(ctx context.Context, uri string) (cryptoService.KMSKeeper, error) {
	args := m.Called(ctx, uri)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(cryptoService.KMSKeeper), args.Error(1)
}

var secretLine = regexp.MustCompile(`AUTH_JWT_SECRET="([^"]+)"`)

func localKeyURI(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return "base64key://" + base64.URLEncoding.EncodeToString(key)
}

func TestRunCreateJWTSecret(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("plaintext", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, RunCreateJWTSecret(ctx, cryptoService.NewKMSService(), logger, &out, "", ""))

		match := secretLine.FindStringSubmatch(out.String())
		require.Len(t, match, 2)
		assert.GreaterOrEqual(t, len(match[1]), 32)
		assert.NotContains(t, out.String(), "KMS_KEY_URI")
	})

	t.Run("kms-wrapped-secret-unwraps", func(t *testing.T) {
		keyURI := localKeyURI(t)
		kms := cryptoService.NewKMSService()

		var out bytes.Buffer
		require.NoError(t, RunCreateJWTSecret(ctx, kms, logger, &out, "localsecrets", keyURI))
		assert.Contains(t, out.String(), `KMS_PROVIDER="localsecrets"`)

		match := secretLine.FindStringSubmatch(out.String())
		require.Len(t, match, 2)
		secret, err := cryptoService.UnwrapSecret(ctx, kms, keyURI, match[1])
		require.NoError(t, err)

		_, err = authService.NewTokenVerifier(secret, "passvault", time.Now)
		assert.NoError(t, err)
	})

	t.Run("kms-error", func(t *testing.T) {
		kms := &MockKMSService{}
		kms.On("OpenKeeper", ctx, "gcpkms://broken").Return(nil, errors.New("no credentials"))

		err := RunCreateJWTSecret(ctx, kms, logger, io.Discard, "gcpkms", "gcpkms://broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no credentials")
		kms.AssertExpectations(t)
	})
}

func TestRunIssueToken(t *testing.T) {
	secret := []byte("0123456789abcdef0123456789abcdef")
	signer, err := authService.NewTokenSigner(secret, "passvault", time.Now)
	require.NoError(t, err)
	verifier, err := authService.NewTokenVerifier(secret, "passvault", time.Now)
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		userID := uuid.New()
		var out bytes.Buffer
		require.NoError(t, RunIssueToken(signer, &out, userID.String(), time.Hour))

		identity, err := verifier.Verify(strings.TrimSpace(out.String()))
		require.NoError(t, err)
		assert.Equal(t, userID, identity.UserID)
	})

	t.Run("invalid-user-id", func(t *testing.T) {
		err := RunIssueToken(signer, io.Discard, "nope", time.Hour)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid user id")
	})

	t.Run("non-positive-ttl", func(t *testing.T) {
		err := RunIssueToken(signer, io.Discard, uuid.NewString(), 0)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ttl must be positive")
	})
}
