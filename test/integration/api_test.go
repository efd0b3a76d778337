// Package integration provides end-to-end tests of the vault API against
// PostgreSQL and MySQL. Tests skip when the databases are unreachable.
package integration

import (
	"bytes"
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/allisson/passvault/internal/app"
	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/testutil"
	"github.com/allisson/passvault/internal/vault/http/dto"
)

const testJWTSecret = "integration-secret-0123456789abcdef"

// integrationTestContext holds all dependencies and state for integration testing.
type integrationTestContext struct {
	container *app.Container
	db        *sql.DB
	server    *httptest.Server
	token     string
	dbDriver  string
}

func newVaultKey(t *testing.T) string {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(key)
}

// makeRequest performs an authenticated request, sending vaultKey as X-Vault-Key when set.
func (ctx *integrationTestContext) makeRequest(
	t *testing.T,
	method, path string,
	body any,
	vaultKey string,
) (*http.Response, []byte) {
	t.Helper()

	var bodyReader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		require.NoError(t, err, "failed to marshal request body")
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequest(method, ctx.server.URL+path, bodyReader)
	require.NoError(t, err, "failed to create request")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if ctx.token != "" {
		req.Header.Set("Authorization", "Bearer "+ctx.token)
	}
	if vaultKey != "" {
		req.Header.Set("X-Vault-Key", vaultKey)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	//nolint:gosec // controlled test environment with localhost URLs
	resp, err := client.Do(req)
	require.NoError(t, err, "failed to perform request")

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "failed to read response body")
	_ = resp.Body.Close()

	return resp, respBody
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

// setupIntegrationTest wires the real container against a migrated database.
func setupIntegrationTest(t *testing.T, dbDriver string) *integrationTestContext {
	t.Helper()

	gin.SetMode(gin.TestMode)

	var db *sql.DB
	var dsn string
	if dbDriver == "postgres" {
		db = testutil.SetupPostgresDB(t)
		dsn = testutil.GetPostgresTestDSN()
	} else {
		db = testutil.SetupMySQLDB(t)
		dsn = testutil.GetMySQLTestDSN()
	}

	cfg := &config.Config{
		DBDriver:                dbDriver,
		DBConnectionString:      dsn,
		DBMaxOpenConnections:    10,
		DBMaxIdleConnections:    5,
		DBConnMaxLifetime:       time.Hour,
		ServerHost:              "localhost",
		ServerPort:              8080,
		LogLevel:                "error",
		AuthJWTSecret:           testJWTSecret,
		AuthJWTIssuer:           "passvault",
		VaultSessionTTL:         15 * time.Minute,
		VaultSessionStore:       "database",
		VaultAlgorithm:          "aes-gcm",
		VaultEnvelopeEncoding:   "base64",
		VaultDecryptConcurrency: 4,
	}

	container := app.NewContainer(cfg)

	httpSrv, err := container.HTTPServer(t.Context())
	require.NoError(t, err, "failed to get HTTP server")

	signer, err := container.TokenSigner(t.Context())
	require.NoError(t, err, "failed to get token signer")
	token, err := signer.Sign(uuid.New(), time.Hour)
	require.NoError(t, err)

	return &integrationTestContext{
		container: container,
		db:        db,
		server:    httptest.NewServer(httpSrv.GetHandler()),
		token:     token,
		dbDriver:  dbDriver,
	}
}

func teardownIntegrationTest(t *testing.T, ctx *integrationTestContext) {
	t.Helper()

	ctx.server.Close()
	if err := ctx.container.Shutdown(context.Background()); err != nil {
		t.Logf("Warning: container shutdown error: %v", err)
	}
	testutil.TeardownDB(t, ctx.db)
}

var drivers = []struct {
	name     string
	dbDriver string
}{
	{"PostgreSQL", "postgres"},
	{"MySQL", "mysql"},
}

func TestIntegration_Health_BasicChecks(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			resp, body := ctx.makeRequest(t, http.MethodGet, "/health", nil, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "healthy", decode[map[string]any](t, body)["status"])

			resp, body = ctx.makeRequest(t, http.MethodGet, "/ready", nil, "")
			assert.Equal(t, http.StatusOK, resp.StatusCode)
			assert.Equal(t, "ready", decode[map[string]any](t, body)["status"])
		})
	}
}

func TestIntegration_Vault_CompleteFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	for _, tc := range drivers {
		t.Run(tc.name, func(t *testing.T) {
			ctx := setupIntegrationTest(t, tc.dbDriver)
			defer teardownIntegrationTest(t, ctx)

			key := newVaultKey(t)
			var entryID string

			t.Run("01_LockedVaultRejectsReads", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/vault/entries", nil, key)
				assert.Equal(t, http.StatusLocked, resp.StatusCode)
			})

			t.Run("02_UnlockEmptyVault", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault/unlock", nil, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.True(t, decode[dto.SessionStatusResponse](t, body).Unlocked)
			})

			t.Run("03_CreateEntry", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault/entries", map[string]any{
					"category": "login",
					"name":     "GitHub",
					"url":      "https://github.com",
					"fields":   map[string]string{"username": "octocat", "secret": "hunter2"},
				}, key)
				require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

				entry := decode[dto.EntryResponse](t, body)
				entryID = entry.ID
				assert.Equal(t, "hunter2", entry.Fields["secret"])
				assert.Equal(t, int64(1), entry.Version)
			})

			t.Run("04_SecretsAtRestAreEncrypted", func(t *testing.T) {
				var count int
				query := "SELECT COUNT(*) FROM vault_records WHERE ciphertext LIKE '%hunter2%'"
				require.NoError(t, ctx.db.QueryRow(query).Scan(&count))
				assert.Zero(t, count)
			})

			t.Run("05_WrongKeyFailsDecryption", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vault/entries/"+entryID, nil, newVaultKey(t))
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
				assert.Contains(t, string(body), "decryption_failed")
			})

			t.Run("06_UpdateEntry", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPatch, "/v1/vault/entries/"+entryID, map[string]any{
					"favorite": true,
					"fields":   map[string]string{"password": "correct horse"},
				}, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				entry := decode[dto.EntryResponse](t, body)
				assert.True(t, entry.Favorite)
				assert.Equal(t, "octocat", entry.Fields["username"])
				assert.Equal(t, "correct horse", entry.Fields["secret"])
				assert.Equal(t, int64(2), entry.Version)
			})

			t.Run("07_ImportSearchAndList", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault/import", map[string]any{
					"items": []map[string]any{
						{"category": "wifi", "name": "Home", "fields": map[string]string{"ssid": "home-net"}},
						{"category": "bogus", "name": "Broken"},
					},
				}, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				result := decode[dto.ImportResponse](t, body)
				assert.Equal(t, 1, result.Created)
				assert.Equal(t, 1, result.Failed)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/vault/search?q=home-net", nil, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Len(t, decode[dto.SearchResponse](t, body).Data, 1)

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/vault/entries?favorite=true", nil, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				page := decode[dto.ListEntriesResponse](t, body)
				assert.Equal(t, 1, page.Total)
				assert.Equal(t, "GitHub", page.Data[0].Name)
			})

			t.Run("08_Export", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vault/export?format=csv", nil, key)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Equal(t, "0", resp.Header.Get("X-Export-Failed"))
				assert.Contains(t, string(body), "octocat")
			})

			newKey := newVaultKey(t)

			t.Run("09_ChangeMasterKeyLocksVault", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault/master-key", map[string]string{
					"old_key": key,
					"new_key": newKey,
				}, "")
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				result := decode[dto.ChangeMasterKeyResponse](t, body)
				assert.Equal(t, 2, result.Reencrypted)
				assert.True(t, result.Locked)

				resp, _ = ctx.makeRequest(t, http.MethodGet, "/v1/vault/entries", nil, newKey)
				assert.Equal(t, http.StatusLocked, resp.StatusCode)
			})

			t.Run("10_OldKeyNoLongerUnlocks", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodPost, "/v1/vault/unlock", nil, key)
				assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
			})

			t.Run("11_NewKeyReadsEntries", func(t *testing.T) {
				resp, body := ctx.makeRequest(t, http.MethodPost, "/v1/vault/unlock", nil, newKey)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

				resp, body = ctx.makeRequest(t, http.MethodGet, "/v1/vault/entries/"+entryID, nil, newKey)
				require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
				assert.Equal(t, "correct horse", decode[dto.EntryResponse](t, body).Fields["secret"])
			})

			t.Run("12_DeleteAndLock", func(t *testing.T) {
				resp, _ := ctx.makeRequest(t, http.MethodDelete, "/v1/vault/entries/"+entryID, nil, "")
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodDelete, "/v1/vault/entries/"+entryID, nil, "")
				assert.Equal(t, http.StatusNotFound, resp.StatusCode)

				resp, _ = ctx.makeRequest(t, http.MethodPost, "/v1/vault/lock", nil, "")
				assert.Equal(t, http.StatusNoContent, resp.StatusCode)

				resp, body := ctx.makeRequest(t, http.MethodGet, "/v1/vault/status", nil, "")
				require.Equal(t, http.StatusOK, resp.StatusCode)
				assert.False(t, decode[dto.SessionStatusResponse](t, body).Unlocked)
			})
		})
	}
}

func TestIntegration_Auth_RejectsMissingToken(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := setupIntegrationTest(t, "postgres")
	defer teardownIntegrationTest(t, ctx)

	ctx.token = ""
	resp, _ := ctx.makeRequest(t, http.MethodGet, "/v1/vault/status", nil, "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
