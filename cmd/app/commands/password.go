package commands

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
)

// saltSize is the length of salts generated by derive-key when none is given.
const saltSize = 16

// RunGeneratePassword prints count random passwords built from opts.
func RunGeneratePassword(
	generator cryptoService.PasswordGenerator,
	writer io.Writer,
	opts cryptoDomain.PasswordOptions,
	count int,
	format string,
) error {
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got: %d", count)
	}

	passwords := make([]string, 0, count)
	for range count {
		password, err := generator.Generate(opts)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		passwords = append(passwords, password)
	}

	return writeOutput(writer, format, map[string]any{"passwords": passwords}, func(w io.Writer) {
		for _, p := range passwords {
			_, _ = fmt.Fprintln(w, p)
		}
	})
}

// RunDeriveKey derives the 256-bit vault key from a master password and salt, the
// way a client does before calling the API. An empty salt generates a new one.
// The key is printed as the base64 X-Vault-Key header value.
func RunDeriveKey(
	deriver cryptoService.KeyDeriver,
	ioTuple IOTuple,
	password, salt, format string,
) error {
	password, err := readSecret(ioTuple.Reader, password, "password")
	if err != nil {
		return err
	}

	var saltBytes []byte
	if salt == "" {
		saltBytes, err = cryptoService.GenerateRandomKey()
		if err != nil {
			return err
		}
		saltBytes = saltBytes[:saltSize]
	} else {
		saltBytes, err = base64.StdEncoding.DecodeString(salt)
		if err != nil {
			return fmt.Errorf("salt must be base64: %w", err)
		}
	}

	passwordBytes := []byte(password)
	defer cryptoDomain.Zero(passwordBytes)

	key, err := deriver.DeriveKey(passwordBytes, saltBytes)
	if err != nil {
		return fmt.Errorf("failed to derive key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	encodedKey := base64.StdEncoding.EncodeToString(key)
	encodedSalt := base64.StdEncoding.EncodeToString(saltBytes)

	return writeOutput(ioTuple.Writer, format, map[string]string{"key": encodedKey, "salt": encodedSalt},
		func(w io.Writer) {
			_, _ = fmt.Fprintf(w, "SALT=\"%s\"\n", encodedSalt)
			_, _ = fmt.Fprintf(w, "X_VAULT_KEY=\"%s\"\n", encodedKey)
		})
}

// RunHashPassword prints the Argon2id hash of a password.
func RunHashPassword(hasher cryptoService.PasswordHasher, ioTuple IOTuple, password string) error {
	password, err := readSecret(ioTuple.Reader, password, "password")
	if err != nil {
		return err
	}

	hash, err := hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = fmt.Fprintln(ioTuple.Writer, hash)
	return err
}

// ErrPasswordMismatch is returned by RunVerifyPassword so the process exits non-zero.
var ErrPasswordMismatch = errors.New("password does not match hash")

// RunVerifyPassword checks a password against an Argon2id hash.
func RunVerifyPassword(
	hasher cryptoService.PasswordHasher,
	logger *slog.Logger,
	ioTuple IOTuple,
	password, hash string,
) error {
	if hash == "" {
		return fmt.Errorf("hash is required")
	}
	password, err := readSecret(ioTuple.Reader, password, "password")
	if err != nil {
		return err
	}

	if !hasher.Verify(password, hash) {
		logger.Warn("password verification failed")
		return ErrPasswordMismatch
	}

	_, err = fmt.Fprintln(ioTuple.Writer, "password matches")
	return err
}

