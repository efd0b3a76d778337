// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// SessionStatusResponse reports the vault lock state.
type SessionStatusResponse struct {
	Unlocked  bool       `json:"unlocked"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// MapSessionStatus converts a domain session status to an API response.
func MapSessionStatus(status *vaultDomain.SessionStatus) SessionStatusResponse {
	return SessionStatusResponse{
		Unlocked:  status.Unlocked,
		ExpiresAt: status.ExpiresAt,
	}
}

// RecordResponse holds the plain metadata of a vault entry.
type RecordResponse struct {
	ID        string    `json:"id"`
	Category  string    `json:"category"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Favorite  bool      `json:"favorite"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntryResponse is a vault entry with its opened secret fields. When the entry
// could not be opened Undecryptable is set and Fields is omitted.
// SECURITY: Fields carries plaintext and must be transmitted over HTTPS.
type EntryResponse struct {
	RecordResponse
	Fields        map[string]string `json:"fields,omitempty"`
	Undecryptable bool              `json:"undecryptable,omitempty"`
}

// ListEntriesResponse is one page of entries.
type ListEntriesResponse struct {
	Data   []EntryResponse `json:"data"`
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Limit  int             `json:"limit"`
}

// ListMetadataResponse is one page of entry metadata.
type ListMetadataResponse struct {
	Data   []RecordResponse `json:"data"`
	Total  int              `json:"total"`
	Offset int              `json:"offset"`
	Limit  int              `json:"limit"`
}

// SearchResponse holds the entries matching a query.
type SearchResponse struct {
	Data []EntryResponse `json:"data"`
}

// ImportErrorResponse describes one rejected import item.
type ImportErrorResponse struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

// ImportResponse summarises an import batch.
type ImportResponse struct {
	Created int                   `json:"created"`
	Failed  int                   `json:"failed"`
	Errors  []ImportErrorResponse `json:"errors"`
}

// ChangeMasterKeyResponse summarises a master key change.
type ChangeMasterKeyResponse struct {
	Reencrypted int  `json:"reencrypted"`
	Locked      bool `json:"locked"`
}

// GeneratePasswordResponse holds a generated password.
type GeneratePasswordResponse struct {
	Password string `json:"password"`
}

// MapRecord converts a domain record to its metadata response.
func MapRecord(record *vaultDomain.Record) RecordResponse {
	return RecordResponse{
		ID:        record.ID.String(),
		Category:  string(record.Category),
		Name:      record.Name,
		URL:       record.URL,
		Favorite:  record.Favorite,
		Version:   record.Version,
		CreatedAt: record.CreatedAt,
		UpdatedAt: record.UpdatedAt,
	}
}

// MapEntry converts a domain entry to an API response including plaintext fields.
func MapEntry(entry *vaultDomain.Entry) EntryResponse {
	response := EntryResponse{
		RecordResponse: MapRecord(entry.Record),
		Undecryptable:  entry.Undecryptable,
	}
	if entry.Secrets != nil {
		response.Fields = entry.Secrets.Fields()
	}
	return response
}

// MapEntries converts a slice of domain entries.
func MapEntries(entries []*vaultDomain.Entry) []EntryResponse {
	data := make([]EntryResponse, 0, len(entries))
	for _, entry := range entries {
		data = append(data, MapEntry(entry))
	}
	return data
}

// MapPage converts a page of entries.
func MapPage(page *vaultDomain.Page, offset, limit int) ListEntriesResponse {
	return ListEntriesResponse{
		Data:   MapEntries(page.Entries),
		Total:  page.Total,
		Offset: offset,
		Limit:  limit,
	}
}

// MapMetadataPage converts a page of records.
func MapMetadataPage(page *vaultDomain.MetadataPage, offset, limit int) ListMetadataResponse {
	data := make([]RecordResponse, 0, len(page.Records))
	for _, record := range page.Records {
		data = append(data, MapRecord(record))
	}
	return ListMetadataResponse{
		Data:   data,
		Total:  page.Total,
		Offset: offset,
		Limit:  limit,
	}
}

// MapImportResult converts an import summary.
func MapImportResult(result *vaultDomain.ImportResult) ImportResponse {
	errs := make([]ImportErrorResponse, 0, len(result.Errors))
	for _, e := range result.Errors {
		errs = append(errs, ImportErrorResponse{Index: e.Index, Reason: e.Reason})
	}
	return ImportResponse{
		Created: result.Created,
		Failed:  result.Failed,
		Errors:  errs,
	}
}
