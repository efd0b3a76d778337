package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	vaultDomain "github.com/allisson/passvault/internal/vault/domain"
)

// MemorySessionRepository keeps sessions in a process-local map. Sessions do not
// survive restarts and are not shared between instances.
type MemorySessionRepository struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]vaultDomain.Session
}

// Put creates or replaces the user's session.
func (r *MemorySessionRepository) Put(_ context.Context, session *vaultDomain.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.UserID] = *session
	return nil
}

// Get retrieves a copy of the user's session.
func (r *MemorySessionRepository) Get(_ context.Context, userID uuid.UUID) (*vaultDomain.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[userID]
	if !ok {
		return nil, vaultDomain.ErrSessionNotFound
	}
	return &session, nil
}

// Delete removes the user's session.
func (r *MemorySessionRepository) Delete(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, userID)
	return nil
}

// DeleteIfExpired removes the user's session when it has expired at now.
func (r *MemorySessionRepository) DeleteIfExpired(_ context.Context, userID uuid.UUID, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[userID]; ok && !now.Before(session.ExpiresAt) {
		delete(r.sessions, userID)
	}
	return nil
}

// DeleteExpired removes sessions whose expiry is at or before now.
func (r *MemorySessionRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for id, session := range r.sessions {
		if !now.Before(session.ExpiresAt) {
			delete(r.sessions, id)
			count++
		}
	}
	return count, nil
}

// NewMemorySessionRepository creates an empty in-memory session store.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: make(map[uuid.UUID]vaultDomain.Session)}
}
