package domain

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	"github.com/allisson/passvault/internal/errors"
	appValidation "github.com/allisson/passvault/internal/validation"
)

const maxSecretFieldLength = 16 * 1024

var expiryPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{2}$`)

// Fields excluded from search matching.
var unsearchable = map[string]bool{
	"secret":   true,
	"password": true,
	"totp":     true,
	"number":   true,
	"cvv":      true,
}

// Secrets is the category-specific set of secret fields sealed inside a record.
type Secrets interface {
	Category() Category
	Validate() error
	// Fields flattens the secret into field name to value pairs.
	Fields() map[string]string
}

// LoginSecrets holds website or application credentials. Secret is the
// password; "password" is accepted as an input alias for it.
type LoginSecrets struct {
	Username string `json:"username,omitempty"`
	Secret   string `json:"secret,omitempty"`
	TOTP     string `json:"totp,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (s *LoginSecrets) Category() Category { return CategoryLogin }

func (s *LoginSecrets) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Username, validation.Length(0, 1024)),
		validation.Field(&s.Secret, validation.Length(0, maxSecretFieldLength)),
		validation.Field(&s.TOTP, validation.Length(0, 1024)),
		validation.Field(&s.Notes, validation.Length(0, maxSecretFieldLength)),
	)
	if err != nil {
		return appValidation.WrapValidationError(err)
	}
	if s.Username == "" && s.Secret == "" {
		return errors.Wrap(errors.ErrInvalidInput, "login requires a username or a secret")
	}
	return nil
}

func (s *LoginSecrets) Fields() map[string]string { return toFields(s) }

// CardSecrets holds payment card data.
type CardSecrets struct {
	CardholderName string `json:"cardholder_name,omitempty"`
	Number         string `json:"number,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
	CVV            string `json:"cvv,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

func (s *CardSecrets) Category() Category { return CategoryCard }

func (s *CardSecrets) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.CardholderName, validation.Length(0, 255)),
		validation.Field(&s.Number, validation.Required, appValidation.CardNumber),
		validation.Field(&s.Expiry, validation.Match(expiryPattern).Error("must be in MM/YY format")),
		validation.Field(&s.CVV, appValidation.Digits, validation.Length(3, 4)),
		validation.Field(&s.Notes, validation.Length(0, maxSecretFieldLength)),
	)
	return appValidation.WrapValidationError(err)
}

func (s *CardSecrets) Fields() map[string]string { return toFields(s) }

// NoteSecrets holds a free-form secure note.
type NoteSecrets struct {
	Content string `json:"content,omitempty"`
}

func (s *NoteSecrets) Category() Category { return CategoryNote }

func (s *NoteSecrets) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.Content, validation.Required, validation.Length(1, 64*1024)),
	)
	return appValidation.WrapValidationError(err)
}

func (s *NoteSecrets) Fields() map[string]string { return toFields(s) }

// WifiSecrets holds wireless network credentials.
type WifiSecrets struct {
	SSID     string `json:"ssid,omitempty"`
	Password string `json:"password,omitempty"`
	Security string `json:"security,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

func (s *WifiSecrets) Category() Category { return CategoryWifi }

func (s *WifiSecrets) Validate() error {
	err := validation.ValidateStruct(s,
		validation.Field(&s.SSID, validation.Required, validation.Length(1, 32)),
		validation.Field(&s.Password, validation.Length(0, 63)),
		validation.Field(&s.Security, validation.In("none", "wep", "wpa", "wpa2", "wpa3")),
		validation.Field(&s.Notes, validation.Length(0, maxSecretFieldLength)),
	)
	return appValidation.WrapValidationError(err)
}

func (s *WifiSecrets) Fields() map[string]string { return toFields(s) }

func newSecretsFor(c Category) (Secrets, error) {
	switch c {
	case CategoryLogin:
		return &LoginSecrets{}, nil
	case CategoryCard:
		return &CardSecrets{}, nil
	case CategoryNote:
		return &NoteSecrets{}, nil
	case CategoryWifi:
		return &WifiSecrets{}, nil
	default:
		return nil, ErrInvalidCategory
	}
}

// NewSecrets builds and validates the typed secret for category from loose fields.
// Field names the category does not define are rejected.
func NewSecrets(category Category, fields map[string]string) (Secrets, error) {
	s, err := newSecretsFor(category)
	if err != nil {
		return nil, err
	}
	if category == CategoryLogin {
		if fields, err = foldLoginAlias(fields); err != nil {
			return nil, err
		}
	}
	if err := decodeStrict(fields, s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// MergeSecrets overlays patch on current field by field. A field absent from
// patch keeps its current value; a field set to "" is cleared.
func MergeSecrets(current Secrets, patch map[string]string) (Secrets, error) {
	if current.Category() == CategoryLogin {
		var err error
		if patch, err = foldLoginAlias(patch); err != nil {
			return nil, err
		}
	}
	merged := current.Fields()
	for k, v := range patch {
		merged[k] = v
	}
	return NewSecrets(current.Category(), merged)
}

// Matches reports whether any searchable secret field contains query, case-insensitively.
func Matches(s Secrets, query string) bool {
	q := strings.ToLower(query)
	for k, v := range s.Fields() {
		if unsearchable[k] {
			continue
		}
		if strings.Contains(strings.ToLower(v), q) {
			return true
		}
	}
	return false
}

type payload struct {
	Category Category        `json:"category"`
	Fields   json.RawMessage `json:"fields"`
}

// MarshalPayload serializes s as the single structured plaintext that gets sealed.
func MarshalPayload(s Secrets) ([]byte, error) {
	fields, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to marshal secret payload")
	}
	return json.Marshal(payload{Category: s.Category(), Fields: fields})
}

// UnmarshalPayload parses an opened payload back into its typed secret.
func UnmarshalPayload(data []byte) (Secrets, error) {
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to unmarshal secret payload")
	}
	s, err := newSecretsFor(p.Category)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(p.Fields, s); err != nil {
		return nil, errors.Wrap(errors.ErrInternal, "failed to unmarshal secret fields")
	}
	return s, nil
}

// foldLoginAlias moves a "password" field onto "secret" without touching the
// caller's map. Non-empty values under both names are rejected.
func foldLoginAlias(fields map[string]string) (map[string]string, error) {
	alias, ok := fields["password"]
	if !ok {
		return fields, nil
	}
	folded := make(map[string]string, len(fields))
	for k, v := range fields {
		if k != "password" {
			folded[k] = v
		}
	}
	if current := folded["secret"]; current != "" && alias != "" && current != alias {
		return nil, errors.Wrap(errors.ErrInvalidInput, `login accepts "secret" or "password", not both`)
	}
	if alias != "" || folded["secret"] == "" {
		folded["secret"] = alias
	}
	return folded, nil
}

func toFields(s Secrets) map[string]string {
	fields := make(map[string]string)
	data, err := json.Marshal(s)
	if err != nil {
		return fields
	}
	_ = json.Unmarshal(data, &fields)
	return fields
}

func decodeStrict(fields map[string]string, dst Secrets) error {
	data, err := json.Marshal(fields)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidInput, "invalid secret fields")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Wrap(ErrUnknownField, err.Error())
	}
	return nil
}
