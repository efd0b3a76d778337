// Package http provides HTTP handlers for vault operations.
//
// Every route requires an authenticated identity. Routes that touch secret content
// also require the derived vault key in the X-Vault-Key header, base64-encoded.
// The key is decoded per request, handed to the use case and zeroed on return.
package http

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authHTTP "github.com/allisson/passvault/internal/auth/http"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
	"github.com/allisson/passvault/internal/httputil"
	customValidation "github.com/allisson/passvault/internal/validation"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
	"github.com/allisson/passvault/internal/vault/http/dto"
	vaultUseCase "github.com/allisson/passvault/internal/vault/usecase"
)

// VaultKeyHeader carries the base64-encoded derived vault key.
const VaultKeyHeader = "X-Vault-Key"

// VaultHandler handles HTTP requests for vault operations.
type VaultHandler struct {
	vaultUseCase vaultUseCase.VaultUseCase
	logger       *slog.Logger
}

// NewVaultHandler creates a new vault handler.
func NewVaultHandler(vaultUseCase vaultUseCase.VaultUseCase, logger *slog.Logger) *VaultHandler {
	return &VaultHandler{
		vaultUseCase: vaultUseCase,
		logger:       logger,
	}
}

// RegisterRoutes mounts the vault routes on an authenticated router group.
func (h *VaultHandler) RegisterRoutes(group *gin.RouterGroup) {
	vault := group.Group("/vault")
	vault.POST("/unlock", h.UnlockHandler)
	vault.POST("/lock", h.LockHandler)
	vault.GET("/status", h.StatusHandler)
	vault.GET("/metadata", h.ListMetadataHandler)
	vault.POST("/entries", h.CreateEntryHandler)
	vault.GET("/entries", h.ListEntriesHandler)
	vault.GET("/entries/:id", h.GetEntryHandler)
	vault.PATCH("/entries/:id", h.UpdateEntryHandler)
	vault.DELETE("/entries/:id", h.DeleteEntryHandler)
	vault.GET("/search", h.SearchHandler)
	vault.POST("/import", h.ImportHandler)
	vault.GET("/export", h.ExportHandler)
	vault.POST("/master-key", h.ChangeMasterKeyHandler)

	group.POST("/password/generate", h.GeneratePasswordHandler)
}

// UnlockHandler opens an unlock window after proving the key opens the vault.
// POST /v1/vault/unlock
func (h *VaultHandler) UnlockHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	status, err := h.vaultUseCase.Unlock(c.Request.Context(), userID, key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionStatus(status))
}

// LockHandler closes the unlock window. Locking a locked vault succeeds.
// POST /v1/vault/lock
func (h *VaultHandler) LockHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	if err := h.vaultUseCase.Lock(c.Request.Context(), userID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// StatusHandler reports whether the vault is unlocked and until when.
// GET /v1/vault/status
func (h *VaultHandler) StatusHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	status, err := h.vaultUseCase.Status(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSessionStatus(status))
}

// ListMetadataHandler lists entries without secret fields.
// GET /v1/vault/metadata?page=1&limit=50&category=login&favorite=true
func (h *VaultHandler) ListMetadataHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}

	page, err := h.vaultUseCase.ListMetadata(c.Request.Context(), userID, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapMetadataPage(page, filter.Offset, filter.Limit))
}

// CreateEntryHandler seals and stores a new entry.
// POST /v1/vault/entries
func (h *VaultHandler) CreateEntryHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	entry, err := h.vaultUseCase.CreateEntry(c.Request.Context(), userID, key, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.MapEntry(entry))
}

// GetEntryHandler opens one entry.
// GET /v1/vault/entries/:id
func (h *VaultHandler) GetEntryHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}
	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	entry, err := h.vaultUseCase.GetEntry(c.Request.Context(), userID, id, key)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEntry(entry))
}

// ListEntriesHandler opens a page of entries. Entries that cannot be opened are
// returned flagged instead of failing the page.
// GET /v1/vault/entries?page=1&limit=50&category=login&favorite=true
func (h *VaultHandler) ListEntriesHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	page, err := h.vaultUseCase.GetEntries(c.Request.Context(), userID, key, filter)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapPage(page, filter.Offset, filter.Limit))
}

// UpdateEntryHandler applies a partial update to an entry.
// PATCH /v1/vault/entries/:id
func (h *VaultHandler) UpdateEntryHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	entry, err := h.vaultUseCase.UpdateEntry(c.Request.Context(), userID, id, key, req.ToInput())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapEntry(entry))
}

// DeleteEntryHandler removes an entry.
// DELETE /v1/vault/entries/:id
// Returns 204 No Content, or 404 when nothing matched.
func (h *VaultHandler) DeleteEntryHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	id, ok := h.entryID(c)
	if !ok {
		return
	}

	deleted, err := h.vaultUseCase.DeleteEntry(c.Request.Context(), userID, id)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !deleted {
		httputil.HandleErrorGin(c, vaultDomain.ErrRecordNotFound, h.logger)
		return
	}

	c.Data(http.StatusNoContent, "application/json", nil)
}

// SearchHandler returns the entries matching q.
// GET /v1/vault/search?q=github
func (h *VaultHandler) SearchHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	entries, err := h.vaultUseCase.SearchEntries(c.Request.Context(), userID, key, c.Query("q"))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.SearchResponse{Data: dto.MapEntries(entries)})
}

// ImportHandler creates entries from a batch, reporting failures per item.
// POST /v1/vault/import
func (h *VaultHandler) ImportHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	result, err := h.vaultUseCase.ImportVault(c.Request.Context(), userID, key, req.ToInputs())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapImportResult(result))
}

// ExportHandler renders every entry as json or csv.
// GET /v1/vault/export?format=json
func (h *VaultHandler) ExportHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	format := vaultDomain.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(vaultDomain.ExportJSON))))
	key, ok := h.vaultKey(c)
	if !ok {
		return
	}
	defer cryptoDomain.Zero(key)

	bundle, err := h.vaultUseCase.ExportVault(c.Request.Context(), userID, key, format)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="vault-export.%s"`, bundle.Format))
	c.Header("X-Export-Failed", strconv.Itoa(bundle.Failed))
	c.Data(http.StatusOK, bundle.ContentType, bundle.Data)
}

// ChangeMasterKeyHandler re-encrypts the vault under a new key and locks it.
// POST /v1/vault/master-key
func (h *VaultHandler) ChangeMasterKeyHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.ChangeMasterKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	oldKey, newKey, err := req.Keys()
	if err != nil {
		httputil.HandleErrorGin(c, vaultDomain.ErrInvalidVaultKey, h.logger)
		return
	}
	defer cryptoDomain.Zero(oldKey, newKey)

	result, err := h.vaultUseCase.ChangeMasterPassword(c.Request.Context(), userID, oldKey, newKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ChangeMasterKeyResponse{Reencrypted: result.Reencrypted, Locked: true})
}

// GeneratePasswordHandler returns a random password. No unlock is required.
// POST /v1/password/generate
func (h *VaultHandler) GeneratePasswordHandler(c *gin.Context) {
	var req dto.GeneratePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	password, err := h.vaultUseCase.GeneratePassword(c.Request.Context(), req.ToOptions())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.GeneratePasswordResponse{Password: password})
}

// userID returns the authenticated user, writing 401 when there is none.
func (h *VaultHandler) userID(c *gin.Context) (uuid.UUID, bool) {
	identity, ok := authHTTP.GetIdentity(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return uuid.Nil, false
	}
	return identity.UserID, true
}

// vaultKey decodes the vault key header. A missing or malformed key is a
// validation error; key length is checked by the use case.
func (h *VaultHandler) vaultKey(c *gin.Context) ([]byte, bool) {
	encoded := c.GetHeader(VaultKeyHeader)
	if encoded == "" {
		httputil.HandleErrorGin(c, vaultDomain.ErrInvalidVaultKey, h.logger)
		return nil, false
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		httputil.HandleErrorGin(c, vaultDomain.ErrInvalidVaultKey, h.logger)
		return nil, false
	}
	return key, true
}

// entryID parses the :id path parameter.
func (h *VaultHandler) entryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httputil.HandleValidationErrorGin(c, fmt.Errorf("invalid entry id: must be a UUID"), h.logger)
		return uuid.Nil, false
	}
	return id, true
}

// listFilter parses pagination together with the category and favorite filters.
func (h *VaultHandler) listFilter(c *gin.Context) (vaultDomain.ListFilter, bool) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleValidationErrorGin(c, err, h.logger)
		return vaultDomain.ListFilter{}, false
	}

	filter := vaultDomain.ListFilter{
		Offset:   offset,
		Limit:    limit,
		Category: vaultDomain.Category(c.Query("category")),
	}
	if favoriteStr, ok := c.GetQuery("favorite"); ok {
		favorite, err := strconv.ParseBool(favoriteStr)
		if err != nil {
			httputil.HandleValidationErrorGin(
				c,
				fmt.Errorf("invalid favorite parameter: must be true or false"),
				h.logger,
			)
			return vaultDomain.ListFilter{}, false
		}
		filter.Favorite = &favorite
	}
	return filter, true
}
