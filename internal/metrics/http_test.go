package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInstrumentedRouter(t *testing.T) (*gin.Engine, *Provider) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	provider, err := NewProvider("test_app")
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, provider.Shutdown(context.Background())) })

	router := gin.New()
	router.Use(HTTPMetricsMiddleware(provider.MeterProvider(), "test_app"))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/v1/vault/entries/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	router.POST("/v1/vault/entries", func(c *gin.Context) { c.Status(http.StatusCreated) })
	router.GET("/v1/vault/export", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	return router, provider
}

func serve(router http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	router, provider := newInstrumentedRouter(t)

	for range 3 {
		require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/vault/entries/11111111-1111-1111-1111-111111111111"))
	}
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/v1/vault/entries/22222222-2222-2222-2222-222222222222"))
	require.Equal(t, http.StatusCreated, serve(router, http.MethodPost, "/v1/vault/entries"))
	require.Equal(t, http.StatusInternalServerError, serve(router, http.MethodGet, "/v1/vault/export"))
	require.Equal(t, http.StatusNotFound, serve(router, http.MethodGet, "/wp-admin/login.php"))
	require.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/health"))

	output := scrape(t, provider)

	t.Run("route pattern instead of raw path", func(t *testing.T) {
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="GET".*route="/v1/vault/entries/:id".*status_code="200"`, `4`)
		assert.NotContains(t, output, "11111111-1111-1111-1111-111111111111")
	})

	t.Run("status codes", func(t *testing.T) {
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`method="POST".*route="/v1/vault/entries".*status_code="201"`, `1`)
		assertBizMetricLine(t, output, `test_app_http_requests_total`,
			`route="/v1/vault/export".*status_code="500"`, `1`)
	})

	t.Run("unmatched routes collapse", func(t *testing.T) {
		assertBizMetricLine(t, output, `test_app_http_requests_total`, `route="unmatched".*status_code="404"`, `1`)
		assert.NotContains(t, output, "wp-admin")
	})

	t.Run("probes are skipped", func(t *testing.T) {
		assert.NotContains(t, output, `route="/health"`)
	})

	t.Run("in flight returns to zero", func(t *testing.T) {
		assertBizMetricLine(t, output, `test_app_http_requests_in_flight`, `method="GET"`, `0`)
	})

	t.Run("durations", func(t *testing.T) {
		assertBizMetricLine(t, output, `test_app_http_request_duration_seconds_count`,
			`route="/v1/vault/entries/:id"`, `4`)
	})
}

func TestRouteLabel(t *testing.T) {
	assert.Equal(t, "/v1/vault/entries/:id", routeLabel("/v1/vault/entries/:id"))
	assert.Equal(t, "/", routeLabel("/"))
	assert.Equal(t, unmatchedRoute, routeLabel(""))
}
