package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/passvault/internal/database"
	apperrors "github.com/allisson/passvault/internal/errors"
	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// DefaultSessionTTL is the unlock window used when none is configured.
const DefaultSessionTTL = 15 * time.Minute

// sessionAuthorizer implements SessionAuthorizer over a SessionRepository.
type sessionAuthorizer struct {
	sessionRepo SessionRepository
	ttl         time.Duration
	retry       database.RetryPolicy
	now         func() time.Time
}

// Unlock opens (or extends) the user's unlock window to now + TTL.
func (a *sessionAuthorizer) Unlock(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	now := a.now()
	session := &vaultDomain.Session{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(a.ttl),
	}
	if err := a.sessionRepo.Put(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Lock closes the user's session. Locking a locked vault is a no-op.
func (a *sessionAuthorizer) Lock(ctx context.Context, userID uuid.UUID) error {
	return a.sessionRepo.Delete(ctx, userID)
}

// Invalidate closes the user's session.
func (a *sessionAuthorizer) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return a.sessionRepo.Delete(ctx, userID)
}

// IsUnlocked reports whether the user holds an unexpired session. An expired
// session is removed on the way.
func (a *sessionAuthorizer) IsUnlocked(ctx context.Context, userID uuid.UUID) (bool, error) {
	session, err := a.active(ctx, userID)
	if err != nil {
		return false, err
	}
	return session != nil, nil
}

// Status reports the lock state and, when unlocked, the expiry.
func (a *sessionAuthorizer) Status(ctx context.Context, userID uuid.UUID) (*vaultDomain.SessionStatus, error) {
	session, err := a.active(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &vaultDomain.SessionStatus{}, nil
	}
	expiresAt := session.ExpiresAt
	return &vaultDomain.SessionStatus{Unlocked: true, ExpiresAt: &expiresAt}, nil
}

// CleanExpired deletes every expired session.
func (a *sessionAuthorizer) CleanExpired(ctx context.Context) (int64, error) {
	return a.sessionRepo.DeleteExpired(ctx, a.now())
}

// active returns the user's session, or nil when none is open at now.
func (a *sessionAuthorizer) active(ctx context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	session, err := database.RetryRead(ctx, a.retry, func(ctx context.Context) (*vaultDomain.Session, error) {
		return a.sessionRepo.Get(ctx, userID)
	})
	if err != nil {
		if apperrors.Is(err, vaultDomain.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if now := a.now(); !session.IsActive(now) {
		// Conditional, so an Unlock racing this read keeps its fresh session.
		if err := a.sessionRepo.DeleteIfExpired(ctx, userID, now); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

// NewSessionAuthorizer creates a SessionAuthorizer with the given unlock window.
// A non-positive ttl uses DefaultSessionTTL and a nil clock uses time.Now.
func NewSessionAuthorizer(
	sessionRepo SessionRepository,
	ttl time.Duration,
	retry database.RetryPolicy,
	clock func() time.Time,
) SessionAuthorizer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if clock == nil {
		clock = time.Now
	}
	return &sessionAuthorizer{
		sessionRepo: sessionRepo,
		ttl:         ttl,
		retry:       retry,
		now:         func() time.Time { return clock().UTC() },
	}
}
