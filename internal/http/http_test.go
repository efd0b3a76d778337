// Package http provides HTTP server implementation and request handlers.
package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authService "github.com/allisson/passvault/internal/auth/service"
	"github.com/allisson/passvault/internal/config"
	"github.com/allisson/passvault/internal/metrics"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	vaultHTTP "github.com/allisson/passvault/internal/vault/http"
	"github.com/allisson/passvault/internal/vault/usecase/mocks"
)

// TestMain sets Gin to test mode for all tests in this package.
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// createTestServer creates a test server with a discarding logger.
func createTestServer() *Server {
	return NewServer(nil, "localhost", 8080, discardLogger())
}

func TestHealthHandler(t *testing.T) {
	server := createTestServer()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	server.healthHandler(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestReadinessHandler(t *testing.T) {
	t.Run("NotReady_NilDB", func(t *testing.T) {
		server := createTestServer()

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.JSONEq(t, `{"status":"not_ready","components":{"database":"error"}}`, w.Body.String())
	})

	t.Run("Ready", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing()

		server := NewServer(db, "localhost", 8080, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ready","components":{"database":"ok"}}`, w.Body.String())
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("NotReady_PingFails", func(t *testing.T) {
		db, dbMock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		require.NoError(t, err)
		defer func() { _ = db.Close() }()
		dbMock.ExpectPing().WillReturnError(errors.New("connection refused"))

		server := NewServer(db, "localhost", 8080, discardLogger())
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/ready", nil)

		server.readinessHandler(c)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestCustomLoggerMiddleware_NeverLogsHeadersOrQuery(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	router := gin.New()
	router.Use(requestid.New(requestid.WithGenerator(func() string {
		return uuid.Must(uuid.NewV7()).String()
	})))
	router.Use(CustomLoggerMiddleware(logger))
	router.GET("/v1/vault/search", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": []string{}})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/vault/search?q=bank-password", nil)
	req.Header.Set("Authorization", "Bearer token-value")
	req.Header.Set(vaultHTTP.VaultKeyHeader, "dmF1bHQta2V5LXZhbHVl")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "GET", entry["method"])
	assert.Equal(t, "/v1/vault/search", entry["path"])
	assert.EqualValues(t, http.StatusOK, entry["status"])
	assert.NotEmpty(t, entry["request_id"])

	logged := buf.String()
	assert.NotContains(t, logged, "token-value")
	assert.NotContains(t, logged, "dmF1bHQta2V5LXZhbHVl")
	assert.NotContains(t, logged, "bank-password")
}

func TestRecoveryMiddleware(t *testing.T) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CustomLoggerMiddleware(discardLogger()))
	router.GET("/panic", func(c *gin.Context) {
		panic("test panic")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type routerFixture struct {
	server *Server
	uc     *mocks.MockVaultUseCase
	logs   *bytes.Buffer
	signer authService.TokenSigner
}

func newRouterFixture(t *testing.T, cfg *config.Config) *routerFixture {
	t.Helper()
	secret := []byte(strings.Repeat("r", 32))
	verifier, err := authService.NewTokenVerifier(secret, "passvault", nil)
	require.NoError(t, err)
	signer, err := authService.NewTokenSigner(secret, "passvault", nil)
	require.NoError(t, err)

	provider, err := metrics.NewProvider(cfg.MetricsNamespace)
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, provider.Shutdown(context.Background())) })

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewJSONHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	uc := mocks.NewMockVaultUseCase(t)

	server := NewServer(nil, "localhost", 8080, logger)
	server.SetupRouter(t.Context(), cfg, vaultHTTP.NewVaultHandler(uc, logger), verifier, provider)

	return &routerFixture{server: server, uc: uc, logs: logs, signer: signer}
}

func testConfig() *config.Config {
	return &config.Config{
		RateLimitEnabled:        true,
		RateLimitRequestsPerSec: 1,
		RateLimitBurst:          3,
		MetricsNamespace:        "passvault_test",
	}
}

func TestSetupRouter_RequiresBearerToken(t *testing.T) {
	f := newRouterFixture(t, testConfig())

	w := httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/vault/status", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSetupRouter_AuthenticatedVaultRoute(t *testing.T) {
	f := newRouterFixture(t, testConfig())
	userID := uuid.Must(uuid.NewV7())
	token, err := f.signer.Sign(userID, time.Hour)
	require.NoError(t, err)
	key := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{1}, 32))
	expires := time.Now().Add(15 * time.Minute)
	f.uc.On("Unlock", mock.Anything, userID, mock.Anything).
		Return(&vaultDomain.SessionStatus{Unlocked: true, ExpiresAt: &expires}, nil).Once()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/vault/unlock", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(vaultHTTP.VaultKeyHeader, key)
	f.server.GetHandler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))
	assert.NotContains(t, f.logs.String(), key)
	assert.NotContains(t, f.logs.String(), token)
}

func TestSetupRouter_RateLimitsPerUser(t *testing.T) {
	f := newRouterFixture(t, testConfig())
	token, err := f.signer.Sign(uuid.Must(uuid.NewV7()), time.Hour)
	require.NoError(t, err)
	f.uc.On("Status", mock.Anything, mock.Anything).Return(&vaultDomain.SessionStatus{}, nil)

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/v1/vault/status", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		f.server.GetHandler().ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{200, 200, 200, 429}, codes)
}

func TestSetupRouter_HealthIsPublicAndMetricsIsNot(t *testing.T) {
	f := newRouterFixture(t, testConfig())

	w := httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	f.server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServer_StartWithoutRouter(t *testing.T) {
	server := createTestServer()

	assert.Error(t, server.Start(t.Context()))
}

func TestServer_ShutdownGracefully(t *testing.T) {
	server := NewServer(nil, "127.0.0.1", 0, discardLogger())
	server.router = gin.New()

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start(t.Context())
	}()

	time.Sleep(100 * time.Millisecond)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.NoError(t, server.Shutdown(shutdownCtx))

	select {
	case err := <-errChan:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestMetricsServer_Endpoints(t *testing.T) {
	provider, err := metrics.NewProvider("test_app")
	require.NoError(t, err)
	defer func() {
		assert.NoError(t, provider.Shutdown(context.Background()))
	}()

	metricsServer := NewMetricsServer("localhost", 8081, discardLogger(), provider)
	require.NotNil(t, metricsServer)

	w := httptest.NewRecorder()
	metricsServer.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestMetricsServer_HealthWithoutProvider(t *testing.T) {
	server := NewMetricsServer("127.0.0.1", 0, discardLogger(), nil)

	w := httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	server.GetHandler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
