package domain

const (
	// MinPasswordLength is the shortest password the generator produces.
	MinPasswordLength = 4
	// MaxPasswordLength is the longest password the generator produces.
	MaxPasswordLength = 128
	// DefaultPasswordLength is used when no length is requested.
	DefaultPasswordLength = 20
)

// PasswordOptions selects the length and character classes of a generated password.
type PasswordOptions struct {
	Length           int
	Uppercase        bool
	Lowercase        bool
	Digits           bool
	Symbols          bool
	ExcludeAmbiguous bool
}

// DefaultPasswordOptions enables every character class at DefaultPasswordLength.
func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		Length:    DefaultPasswordLength,
		Uppercase: true,
		Lowercase: true,
		Digits:    true,
		Symbols:   true,
	}
}

// Validate checks the length bound and that at least one class is enabled.
func (o PasswordOptions) Validate() error {
	if o.Length < MinPasswordLength || o.Length > MaxPasswordLength {
		return ErrInvalidPasswordLength
	}
	if !o.Uppercase && !o.Lowercase && !o.Digits && !o.Symbols {
		return ErrNoCharacterClass
	}
	return nil
}

// KDFParams holds the Argon2id cost parameters used for key derivation.
type KDFParams struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
}

// DefaultKDFParams returns the central derivation cost settings.
func DefaultKDFParams() KDFParams {
	return KDFParams{Time: 1, MemoryKiB: 64 * 1024, Threads: 4}
}
