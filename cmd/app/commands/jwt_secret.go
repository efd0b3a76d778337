package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	authService "github.com/allisson/passvault/internal/auth/service"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
)

// RunCreateJWTSecret generates a random token signing secret. With kmsKeyURI set
// the secret is wrapped by KMS and the ciphertext is printed instead, to be
// used together with KMS_KEY_URI.
//
// For local development use kmsKeyURI="base64key://<32-byte-base64url-key>".
func RunCreateJWTSecret(
	ctx context.Context,
	kms cryptoService.KMSService,
	logger *slog.Logger,
	writer io.Writer,
	kmsProvider, kmsKeyURI string,
) error {
	raw, err := cryptoService.GenerateRandomKey()
	if err != nil {
		return err
	}
	defer cryptoDomain.Zero(raw)

	secret := []byte(base64.StdEncoding.EncodeToString(raw))
	defer cryptoDomain.Zero(secret)

	if kmsKeyURI == "" {
		_, _ = fmt.Fprintln(writer, "# Plaintext mode: store this value in a secrets manager")
		_, err = fmt.Fprintf(writer, "AUTH_JWT_SECRET=\"%s\"\n", secret)
		return err
	}

	wrapped, err := cryptoService.WrapSecret(ctx, kms, kmsKeyURI, secret)
	if err != nil {
		return err
	}

	logger.Info("jwt secret wrapped with KMS", slog.String("kms_provider", kmsProvider))

	_, _ = fmt.Fprintln(writer, "# KMS mode: copy these environment variables to your .env file or secrets manager")
	_, _ = fmt.Fprintf(writer, "KMS_PROVIDER=\"%s\"\n", kmsProvider)
	_, _ = fmt.Fprintf(writer, "KMS_KEY_URI=\"%s\"\n", kmsKeyURI)
	_, err = fmt.Fprintf(writer, "AUTH_JWT_SECRET=\"%s\"\n", wrapped)
	return err
}

// RunIssueToken signs an identity token for userID. It stands in for an external
// identity provider in development and tests.
func RunIssueToken(signer authService.TokenSigner, writer io.Writer, userID string, ttl time.Duration) error {
	id, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got: %s", ttl)
	}

	token, err := signer.Sign(id, ttl)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}

	_, err = fmt.Fprintln(writer, token)
	return err
}
