package domain

import (
	"time"

	"github.com/google/uuid"
	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	appValidation "github.com/allisson/passvault/internal/validation"
)

// Record is a persisted vault entry. Name, URL, Favorite and the timestamps are
// plain metadata; every secret field lives sealed in Envelope.
type Record struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Category  Category
	Name      string
	URL       string
	Favorite  bool
	Envelope  cryptoDomain.EncodedEnvelope
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AAD returns the associated data binding the envelope to this owner and record.
func (r *Record) AAD() []byte {
	return []byte(r.OwnerID.String() + "|" + r.ID.String())
}

// Entry is a record together with its opened secret. When the envelope could not
// be opened Undecryptable is set and Secrets is nil.
type Entry struct {
	Record        *Record
	Secrets       Secrets
	Undecryptable bool
}

// CreateEntryInput carries the plaintext fields for a new record.
type CreateEntryInput struct {
	Category Category
	Name     string
	URL      string
	Favorite bool
	Fields   map[string]string
}

// Validate checks metadata and builds the typed secret, before any crypto work happens.
func (in *CreateEntryInput) Validate() (Secrets, error) {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required, appValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&in.URL, validation.Length(0, 2048), appValidation.HTTPURL),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}
	if !in.Category.Valid() {
		return nil, ErrInvalidCategory
	}
	return NewSecrets(in.Category, in.Fields)
}

// UpdateEntryInput carries a partial update. Nil pointers and absent field keys
// keep their current values. Category is immutable.
type UpdateEntryInput struct {
	Name     *string
	URL      *string
	Favorite *bool
	Fields   map[string]string
}

// Validate checks the metadata present in the patch.
func (in *UpdateEntryInput) Validate() error {
	err := validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.NilOrNotEmpty, appValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&in.URL, validation.Length(0, 2048), appValidation.HTTPURL),
	)
	return appValidation.WrapValidationError(err)
}

// ListFilter selects a page of an owner's records.
type ListFilter struct {
	Offset   int
	Limit    int
	Category Category
	Favorite *bool
}

// MaxPageSize bounds the number of records returned by one list call.
const MaxPageSize = 100

// Validate rejects out-of-range pagination and unknown categories.
func (f ListFilter) Validate() error {
	if f.Offset < 0 || f.Limit < 1 || f.Limit > MaxPageSize {
		return ErrInvalidPagination
	}
	if f.Category != "" && !f.Category.Valid() {
		return ErrInvalidCategory
	}
	return nil
}

// Page is one page of entries plus the owner's total matching record count.
type Page struct {
	Entries []*Entry
	Total   int
}

// MetadataPage is one page of records without secrets.
type MetadataPage struct {
	Records []*Record
	Total   int
}
