package http

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Browser clients derive the vault key locally and send it on each call, so a
// cross-origin preflight must allow the key header alongside the bearer token.
var (
	corsAllowMethods = []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPatch,
		http.MethodDelete,
	}
	corsAllowHeaders  = []string{"Authorization", "Content-Type", "X-Vault-Key"}
	corsExposeHeaders = []string{"X-Request-Id", "X-Export-Failed", "Content-Disposition"}
)

// createCORSMiddleware returns nil when CORS is off or the origin list is empty
// after trimming.
func createCORSMiddleware(enabled bool, allowOrigins string, logger *slog.Logger) gin.HandlerFunc {
	if !enabled {
		return nil
	}

	origins := parseOrigins(allowOrigins)
	if len(origins) == 0 {
		logger.Warn("cors enabled without any allowed origin, skipping")
		return nil
	}
	logger.Info("cors enabled", slog.Any("origins", origins))

	// Tokens travel in the Authorization header, never in cookies.
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     corsAllowMethods,
		AllowHeaders:     corsAllowHeaders,
		ExposeHeaders:    corsExposeHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	})
}

func parseOrigins(raw string) []string {
	var origins []string
	for part := range strings.SplitSeq(raw, ",") {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}
