package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!@#$%^&*()-_=+[]{};:,.<>?/~"

	ambiguousChars = "Il1O0o|`'\""
)

type passwordGenerator struct{}

// NewPasswordGenerator creates a generator backed by crypto/rand.
func NewPasswordGenerator() PasswordGenerator {
	return &passwordGenerator{}
}

// Generate builds a password of opts.Length characters. Every enabled class
// contributes at least one character and positions are shuffled afterwards.
func (g *passwordGenerator) Generate(opts cryptoDomain.PasswordOptions) (string, error) {
	if err := opts.Validate(); err != nil {
		return "", err
	}

	classes := selectedClasses(opts)

	password := make([]byte, 0, opts.Length)
	for _, class := range classes {
		c, err := pickChar(class)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	all := strings.Join(classes, "")
	for len(password) < opts.Length {
		c, err := pickChar(all)
		if err != nil {
			return "", err
		}
		password = append(password, c)
	}

	if err := shuffle(password); err != nil {
		return "", err
	}
	return string(password), nil
}

func selectedClasses(opts cryptoDomain.PasswordOptions) []string {
	var classes []string
	add := func(enabled bool, chars string) {
		if !enabled {
			return
		}
		if opts.ExcludeAmbiguous {
			chars = strings.Map(func(r rune) rune {
				if strings.ContainsRune(ambiguousChars, r) {
					return -1
				}
				return r
			}, chars)
		}
		classes = append(classes, chars)
	}
	add(opts.Uppercase, upperChars)
	add(opts.Lowercase, lowerChars)
	add(opts.Digits, digitChars)
	add(opts.Symbols, symbolChars)
	return classes
}

func pickChar(chars string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(chars))))
	if err != nil {
		return 0, fmt.Errorf("failed to generate random character: %w", err)
	}
	return chars[n.Int64()], nil
}

// shuffle is a Fisher-Yates shuffle driven by crypto/rand.
func shuffle(b []byte) error {
	for i := len(b) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return fmt.Errorf("failed to shuffle password: %w", err)
		}
		j := n.Int64()
		b[i], b[j] = b[j], b[i]
	}
	return nil
}
