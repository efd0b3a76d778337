// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	customValidation "github.com/allisson/passvault/internal/validation"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// CreateEntryRequest contains the plaintext of a new vault entry. Fields holds the
// category's secret fields; they are sealed before storage.
type CreateEntryRequest struct {
	Category string            `json:"category"`
	Name     string            `json:"name"`
	URL      string            `json:"url"`
	Favorite bool              `json:"favorite"`
	Fields   map[string]string `json:"fields"`
}

// Validate checks the request shape. Field content is validated by the domain.
func (r *CreateEntryRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Category,
			validation.Required,
			validation.In(categoryValues()...),
		),
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
	)
}

// ToInput converts the request into the domain input.
func (r *CreateEntryRequest) ToInput() *vaultDomain.CreateEntryInput {
	return &vaultDomain.CreateEntryInput{
		Category: vaultDomain.Category(r.Category),
		Name:     r.Name,
		URL:      r.URL,
		Favorite: r.Favorite,
		Fields:   r.Fields,
	}
}

// UpdateEntryRequest is a partial update. Omitted members keep their values and
// an empty string in Fields clears that field.
type UpdateEntryRequest struct {
	Name     *string           `json:"name"`
	URL      *string           `json:"url"`
	Favorite *bool             `json:"favorite"`
	Fields   map[string]string `json:"fields"`
}

// ToInput converts the request into the domain input.
func (r *UpdateEntryRequest) ToInput() *vaultDomain.UpdateEntryInput {
	return &vaultDomain.UpdateEntryInput{
		Name:     r.Name,
		URL:      r.URL,
		Favorite: r.Favorite,
		Fields:   r.Fields,
	}
}

// ImportRequest carries a batch of entries. Batch bounds and every item are
// validated by the vault so a bad item does not reject the batch.
type ImportRequest struct {
	Items []*CreateEntryRequest `json:"items"`
}

// ToInputs converts the items, keeping nil items in place so their index is reported.
func (r *ImportRequest) ToInputs() []*vaultDomain.CreateEntryInput {
	inputs := make([]*vaultDomain.CreateEntryInput, len(r.Items))
	for i, item := range r.Items {
		if item != nil {
			inputs[i] = item.ToInput()
		}
	}
	return inputs
}

// ChangeMasterKeyRequest carries the current and the new derived vault keys,
// each base64-encoded.
type ChangeMasterKeyRequest struct {
	OldKey string `json:"old_key"`
	NewKey string `json:"new_key"`
}

// Validate checks both keys decode to 256-bit keys.
func (r *ChangeMasterKeyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.OldKey, validation.Required, customValidation.Base64Key(cryptoDomain.KeySize)),
		validation.Field(&r.NewKey, validation.Required, customValidation.Base64Key(cryptoDomain.KeySize)),
	)
}

// Keys decodes both keys. Callers must zero them when done.
func (r *ChangeMasterKeyRequest) Keys() (oldKey, newKey []byte, err error) {
	oldKey, err = base64.StdEncoding.DecodeString(r.OldKey)
	if err != nil {
		return nil, nil, err
	}
	newKey, err = base64.StdEncoding.DecodeString(r.NewKey)
	if err != nil {
		cryptoDomain.Zero(oldKey)
		return nil, nil, err
	}
	return oldKey, newKey, nil
}

// GeneratePasswordRequest selects generator options. Omitted members fall back to
// the defaults: length 20 with every class enabled.
type GeneratePasswordRequest struct {
	Length           *int  `json:"length"`
	Uppercase        *bool `json:"uppercase"`
	Lowercase        *bool `json:"lowercase"`
	Digits           *bool `json:"digits"`
	Symbols          *bool `json:"symbols"`
	ExcludeAmbiguous bool  `json:"exclude_ambiguous"`
}

// ToOptions merges the request over the default options.
func (r *GeneratePasswordRequest) ToOptions() cryptoDomain.PasswordOptions {
	opts := cryptoDomain.DefaultPasswordOptions()
	if r.Length != nil {
		opts.Length = *r.Length
	}
	if r.Uppercase != nil {
		opts.Uppercase = *r.Uppercase
	}
	if r.Lowercase != nil {
		opts.Lowercase = *r.Lowercase
	}
	if r.Digits != nil {
		opts.Digits = *r.Digits
	}
	if r.Symbols != nil {
		opts.Symbols = *r.Symbols
	}
	opts.ExcludeAmbiguous = r.ExcludeAmbiguous
	return opts
}

func categoryValues() []any {
	categories := vaultDomain.Categories()
	values := make([]any, 0, len(categories))
	for _, c := range categories {
		values = append(values, string(c))
	}
	return values
}
