// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package authtest provides in-memory auth repositories for tests.
package authtest

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/accelerateai/accelerate/internal/auth"
)

// MemoryUserRepository is an in-memory auth.UserRepository. It enforces email
// uniqueness under its lock, standing in for the database unique index.
type MemoryUserRepository struct {
	mu      sync.RWMutex
	byID    map[ulid.ULID]*auth.User
	byEmail map[string]ulid.ULID
}

// NewMemoryUserRepository creates an empty MemoryUserRepository.
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		byID:    make(map[ulid.ULID]*auth.User),
		byEmail: make(map[string]ulid.ULID),
	}
}

// Create stores a new user, failing with auth.ErrDuplicateEmail if the email
// is taken.
func (r *MemoryUserRepository) Create(_ context.Context, user *auth.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byEmail[user.Email]; taken {
		return auth.ErrDuplicateEmail
	}

	clone := *user
	r.byID[user.ID] = &clone
	r.byEmail[user.Email] = user.ID
	return nil
}

// GetByID retrieves a user by ID.
func (r *MemoryUserRepository) GetByID(_ context.Context, id ulid.ULID) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *user
	return &clone, nil
}

// GetByEmail retrieves a user by normalized email.
func (r *MemoryUserRepository) GetByEmail(_ context.Context, email string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byEmail[email]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

// Delete removes a user, orphaning any sessions that reference it.
// Used by tests that exercise the dead-account probe path.
func (r *MemoryUserRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(r.byEmail, user.Email)
	delete(r.byID, id)
	return nil
}

// Len returns the number of stored users.
func (r *MemoryUserRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// MemorySessionRepository is an in-memory auth.SessionRepository.
type MemorySessionRepository struct {
	mu          sync.RWMutex
	byID        map[ulid.ULID]*auth.Session
	byTokenHash map[string]ulid.ULID
}

// NewMemorySessionRepository creates an empty MemorySessionRepository.
func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{
		byID:        make(map[ulid.ULID]*auth.Session),
		byTokenHash: make(map[string]ulid.ULID),
	}
}

// Create stores a new session.
func (r *MemorySessionRepository) Create(_ context.Context, session *auth.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *session
	r.byID[session.ID] = &clone
	r.byTokenHash[session.TokenHash] = session.ID
	return nil
}

// GetByTokenHash retrieves a session by its token hash.
func (r *MemorySessionRepository) GetByTokenHash(_ context.Context, tokenHash string) (*auth.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTokenHash[tokenHash]
	if !ok {
		return nil, auth.ErrNotFound
	}
	clone := *r.byID[id]
	return &clone, nil
}

// Touch updates the LastSeenAt and ExpiresAt timestamps for a session.
func (r *MemorySessionRepository) Touch(_ context.Context, id ulid.ULID, lastSeen, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	session.LastSeenAt = lastSeen
	session.ExpiresAt = expiresAt
	return nil
}

// Delete removes a session by ID.
func (r *MemorySessionRepository) Delete(_ context.Context, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(r.byTokenHash, session.TokenHash)
	delete(r.byID, id)
	return nil
}

// DeleteByUser removes all sessions for a user.
func (r *MemorySessionRepository) DeleteByUser(_ context.Context, userID ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.byID {
		if session.UserID == userID {
			delete(r.byTokenHash, session.TokenHash)
			delete(r.byID, id)
		}
	}
	return nil
}

// DeleteExpired removes all expired sessions and returns the count.
func (r *MemorySessionRepository) DeleteExpired(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	var deleted int64
	for id, session := range r.byID {
		if now.After(session.ExpiresAt) {
			delete(r.byTokenHash, session.TokenHash)
			delete(r.byID, id)
			deleted++
		}
	}
	return deleted, nil
}

// Len returns the number of stored sessions.
func (r *MemorySessionRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}
