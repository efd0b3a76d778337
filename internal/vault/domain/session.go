package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session records that the owner unlocked the vault and until when. It never
// holds key material.
type Session struct {
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// IsActive reports whether the session is still open at now.
func (s *Session) IsActive(now time.Time) bool {
	return s != nil && now.Before(s.ExpiresAt)
}

// SessionStatus is the lock state reported to clients.
type SessionStatus struct {
	Unlocked  bool
	ExpiresAt *time.Time
}
