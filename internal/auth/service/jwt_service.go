package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	authDomain "github.com/allisson/passvault/internal/auth/domain"
	apperrors "github.com/allisson/passvault/internal/errors"
)

// jwtService implements TokenVerifier and TokenSigner with a shared HS256 secret.
type jwtService struct {
	secret []byte
	issuer string
	now    func() time.Time
	leeway time.Duration
}

func newJWTService(secret []byte, issuer string, clock func() time.Time) (*jwtService, error) {
	if len(secret) < authDomain.MinJWTSecretSize {
		return nil, authDomain.ErrInvalidJWTSecret
	}
	if clock == nil {
		clock = time.Now
	}
	return &jwtService{
		secret: secret,
		issuer: issuer,
		now:    clock,
		leeway: 30 * time.Second,
	}, nil
}

// Verify parses the token and checks signature, issuer, expiry and subject.
func (s *jwtService) Verify(token string) (*authDomain.Identity, error) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
		jwt.WithTimeFunc(s.now),
	)

	parsed, err := parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, authDomain.ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, authDomain.ErrInvalidToken
	}

	return &authDomain.Identity{
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Sign issues a token for userID valid for ttl.
func (s *jwtService) Sign(userID uuid.UUID, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    s.issuer,
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        uuid.Must(uuid.NewV7()).String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternal, "failed to sign token")
	}
	return signed, nil
}

// NewTokenVerifier creates a TokenVerifier for tokens signed with secret by issuer.
func NewTokenVerifier(secret []byte, issuer string, clock func() time.Time) (TokenVerifier, error) {
	svc, err := newJWTService(secret, issuer, clock)
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// NewTokenSigner creates a TokenSigner issuing tokens as issuer.
func NewTokenSigner(secret []byte, issuer string, clock func() time.Time) (TokenSigner, error) {
	svc, err := newJWTService(secret, issuer, clock)
	if err != nil {
		return nil, err
	}
	return svc, nil
}
