package validation

import (
	"encoding/base64"

	validation "github.com/jellydator/validation"
)

// Base64Key validates a base64 string that decodes to exactly size bytes.
func Base64Key(size int) validation.Rule {
	return validation.By(func(value interface{}) error {
		s, ok := value.(string)
		if !ok {
			return validation.NewError("validation_base64_type", "must be a string")
		}
		if s == "" {
			return nil
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil || len(b) != size {
			return validation.NewError("validation_base64_key", "must be a base64-encoded 256-bit key")
		}
		return nil
	})
}
