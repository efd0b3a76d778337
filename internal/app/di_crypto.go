package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	authService "github.com/allisson/passvault/internal/auth/service"
	"github.com/allisson/passvault/internal/crypto/codec"
	cryptoDomain "github.com/allisson/passvault/internal/crypto/domain"
	cryptoService "github.com/allisson/passvault/internal/crypto/service"
)

type cryptoComponents struct {
	kmsService    cryptoService.KMSService
	aeadManager   cryptoService.AEADManager
	cipher        cryptoService.Cipher
	envelopeCodec codec.Codec
	generator     cryptoService.PasswordGenerator
	hasher        cryptoService.PasswordHasher
	keyDeriver    cryptoService.KeyDeriver
	jwtSecret     []byte
	tokenVerifier authService.TokenVerifier
	tokenSigner   authService.TokenSigner

	kmsServiceInit    sync.Once
	aeadManagerInit   sync.Once
	cipherInit        sync.Once
	codecInit         sync.Once
	generatorInit     sync.Once
	hasherInit        sync.Once
	keyDeriverInit    sync.Once
	jwtSecretInit     sync.Once
	tokenVerifierInit sync.Once
	tokenSignerInit   sync.Once
}

// KMSService returns the gocloud.dev/secrets keeper opener.
func (c *Container) KMSService() cryptoService.KMSService {
	c.kmsServiceInit.Do(func() {
		c.kmsService = cryptoService.NewKMSService()
	})
	return c.kmsService
}

// AEADManager returns the AEAD factory.
func (c *Container) AEADManager() cryptoService.AEADManager {
	c.aeadManagerInit.Do(func() {
		c.aeadManager = cryptoService.NewAEADManager()
	})
	return c.aeadManager
}

// Cipher returns the envelope cipher for VAULT_ALGORITHM.
func (c *Container) Cipher() (cryptoService.Cipher, error) {
	err := c.once(&c.cipherInit, "cipher", func() error {
		alg, err := cryptoDomain.ParseAlgorithm(c.config.VaultAlgorithm)
		if err != nil {
			return fmt.Errorf("invalid VAULT_ALGORITHM %q: %w", c.config.VaultAlgorithm, err)
		}
		c.cipher = cryptoService.NewCipher(c.AEADManager(), alg)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.cipher, nil
}

// EnvelopeCodec returns the envelope text codec for VAULT_ENVELOPE_ENCODING.
func (c *Container) EnvelopeCodec() (codec.Codec, error) {
	err := c.once(&c.codecInit, "codec", func() error {
		enc, err := codec.New(codec.Encoding(c.config.VaultEnvelopeEncoding))
		if err != nil {
			return fmt.Errorf("invalid VAULT_ENVELOPE_ENCODING %q: %w", c.config.VaultEnvelopeEncoding, err)
		}
		c.envelopeCodec = enc
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.envelopeCodec, nil
}

// PasswordGenerator returns the random password generator.
func (c *Container) PasswordGenerator() cryptoService.PasswordGenerator {
	c.generatorInit.Do(func() {
		c.generator = cryptoService.NewPasswordGenerator()
	})
	return c.generator
}

// PasswordHasher returns the Argon2id password hasher.
func (c *Container) PasswordHasher() cryptoService.PasswordHasher {
	c.hasherInit.Do(func() {
		c.hasher = cryptoService.NewPasswordHasher()
	})
	return c.hasher
}

// KeyDeriver returns the Argon2id key deriver tuned by the KDF_* settings.
func (c *Container) KeyDeriver() cryptoService.KeyDeriver {
	c.keyDeriverInit.Do(func() {
		c.keyDeriver = cryptoService.NewKeyDeriver(c.kdfParams())
	})
	return c.keyDeriver
}

func (c *Container) kdfParams() cryptoDomain.KDFParams {
	params := cryptoDomain.DefaultKDFParams()
	if c.config.KDFTime > 0 {
		params.Time = uint32(c.config.KDFTime)
	}
	if c.config.KDFMemoryKiB > 0 {
		params.MemoryKiB = uint32(c.config.KDFMemoryKiB)
	}
	if c.config.KDFThreads > 0 {
		params.Threads = uint8(c.config.KDFThreads)
	}
	return params
}

// JWTSecret returns the identity token secret. When KMS_KEY_URI is set the
// configured value is a wrapped ciphertext and is opened through KMS.
func (c *Container) JWTSecret(ctx context.Context) ([]byte, error) {
	err := c.once(&c.jwtSecretInit, "jwtSecret", func() error {
		if c.config.KMSKeyURI == "" {
			c.jwtSecret = []byte(c.config.AuthJWTSecret)
			return nil
		}
		secret, err := cryptoService.UnwrapSecret(ctx, c.KMSService(), c.config.KMSKeyURI, c.config.AuthJWTSecret)
		if err != nil {
			return fmt.Errorf("failed to unwrap AUTH_JWT_SECRET: %w", err)
		}
		c.jwtSecret = secret
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.jwtSecret, nil
}

// TokenVerifier returns the bearer token verifier.
func (c *Container) TokenVerifier(ctx context.Context) (authService.TokenVerifier, error) {
	err := c.once(&c.tokenVerifierInit, "tokenVerifier", func() error {
		secret, err := c.JWTSecret(ctx)
		if err != nil {
			return err
		}
		verifier, err := authService.NewTokenVerifier(secret, c.config.AuthJWTIssuer, time.Now)
		if err != nil {
			return fmt.Errorf("failed to create token verifier: %w", err)
		}
		c.tokenVerifier = verifier
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenVerifier, nil
}

// TokenSigner returns a signer sharing the verifier's secret and issuer.
func (c *Container) TokenSigner(ctx context.Context) (authService.TokenSigner, error) {
	err := c.once(&c.tokenSignerInit, "tokenSigner", func() error {
		secret, err := c.JWTSecret(ctx)
		if err != nil {
			return err
		}
		signer, err := authService.NewTokenSigner(secret, c.config.AuthJWTIssuer, time.Now)
		if err != nil {
			return fmt.Errorf("failed to create token signer: %w", err)
		}
		c.tokenSigner = signer
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.tokenSigner, nil
}
