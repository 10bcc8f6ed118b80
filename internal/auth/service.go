// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// dummyPasswordDigest is verified when a login targets an unknown email so the
// scrypt derivation still runs and response time stays flat. It is a
// well-formed digest (32-byte key, 16-byte salt, all zero) that no password
// derives to.
//
//nolint:gosec // G101: intentionally fake digest for timing-attack prevention, not a credential.
const dummyPasswordDigest = "0000000000000000000000000000000000000000000000000000000000000000.00000000000000000000000000000000"

// Service provides authentication operations: register, login, logout, and
// the session identity probe.
type Service struct {
	users    UserRepository
	sessions SessionRepository
	hasher   PasswordHasher
	logger   *slog.Logger

	ttl     time.Duration
	sliding bool
	now     func() time.Time
}

// Option configures Service behavior.
type Option func(*Service)

// WithTTL overrides the session lifetime (default 24h).
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithSlidingExpiry enables sliding expiration: each authenticated request
// extends the session by the full TTL. Off by default; the TTL is then fixed
// at creation.
func WithSlidingExpiry(sliding bool) Option {
	return func(s *Service) {
		s.sliding = sliding
	}
}

// WithLogger sets the logger used for non-fatal internal failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService creates a new Service. All three dependencies are required.
func NewService(users UserRepository, sessions SessionRepository, hasher PasswordHasher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("users repository is required")
	}
	if sessions == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("sessions repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_NIL_DEPENDENCY").Errorf("password hasher is required")
	}

	s := &Service{
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		logger:   slog.Default(),
		ttl:      DefaultSessionTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Register validates the input, creates the user, and opens a session.
// Returns the created user, its session, and the plaintext session token.
// Validation runs before any hashing or storage work; duplicate emails are
// decided by the storage layer's unique constraint.
func (s *Service) Register(ctx context.Context, email, password, name string) (*User, *Session, string, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, nil, "", err
	}
	if err := ValidateName(name); err != nil {
		return nil, nil, "", err
	}

	digest, err := s.hasher.Hash(password)
	if err != nil {
		return nil, nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := NewUser(email, name, digest)
	if err != nil {
		return nil, nil, "", err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, nil, "", oops.Code("AUTH_DUPLICATE_EMAIL").
				With("email", email).
				Errorf("email already registered")
		}
		return nil, nil, "", oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "create user").
			Wrap(err)
	}

	session, token, err := s.startSession(ctx, user.Identity())
	if err != nil {
		return nil, nil, "", err
	}
	return user, session, token, nil
}

// Login authenticates a user by email and password and opens a session.
// Returns the user, its session, and the plaintext session token.
// "No such user" and "wrong password" produce the identical error; a dummy
// digest is verified on the miss path to keep response time flat.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *Session, string, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, "", errInvalidCredentials()
	}

	user, lookupErr := s.users.GetByEmail(ctx, email)

	targetDigest := dummyPasswordDigest
	userExists := false
	switch {
	case lookupErr == nil:
		targetDigest = user.PasswordDigest
		userExists = true
	case errors.Is(lookupErr, ErrNotFound):
		// Keep verifying against the dummy digest below.
	default:
		return nil, nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(lookupErr)
	}

	valid, verifyErr := s.hasher.Verify(password, targetDigest)
	if verifyErr != nil {
		if !userExists {
			return nil, nil, "", errInvalidCredentials()
		}
		return nil, nil, "", oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			Wrap(verifyErr)
	}
	if !userExists || !valid {
		return nil, nil, "", errInvalidCredentials()
	}

	session, token, err := s.startSession(ctx, user.Identity())
	if err != nil {
		return nil, nil, "", err
	}
	return user, session, token, nil
}

// Logout destroys the session referenced by the token. It is idempotent:
// unknown, empty, and already-destroyed tokens all succeed.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	if err := s.sessions.Delete(ctx, session.ID); err != nil && !errors.Is(err, ErrNotFound) {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "delete session").
			With("session_id", session.ID.String()).
			Wrap(err)
	}
	return nil
}

// CurrentUser resolves the session token to the live user record.
// The session's cached identity is never returned: the user is re-fetched by
// ID so renames and email changes are reflected. If the user record no longer
// exists, the session is destroyed and the caller is unauthenticated.
func (s *Service) CurrentUser(ctx context.Context, token string) (*User, *Session, error) {
	if token == "" {
		return nil, nil, errUnauthenticated()
	}

	session, err := s.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil, errUnauthenticated()
		}
		return nil, nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "get session by token hash").
			Wrap(err)
	}

	now := s.now()
	if session.IsExpiredAt(now) {
		// Best effort cleanup; the sweeper catches anything missed here.
		if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
			s.logger.Warn("failed to delete expired session",
				"session_id", session.ID.String(), "error", delErr)
		}
		return nil, nil, errUnauthenticated()
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// The account is gone; a session must not outlive its user.
			if delErr := s.sessions.Delete(ctx, session.ID); delErr != nil && !errors.Is(delErr, ErrNotFound) {
				s.logger.Warn("failed to delete orphaned session",
					"session_id", session.ID.String(), "error", delErr)
			}
			return nil, nil, errUnauthenticated()
		}
		return nil, nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").
			With("operation", "get user by id").
			Wrap(err)
	}

	expiresAt := session.ExpiresAt
	if s.sliding {
		expiresAt = now.Add(s.ttl)
		session.ExpiresAt = expiresAt
	}
	session.LastSeenAt = now
	if err := s.sessions.Touch(ctx, session.ID, now, expiresAt); err != nil && !errors.Is(err, ErrNotFound) {
		// Best effort; the probe succeeds regardless.
		s.logger.Warn("failed to touch session",
			"session_id", session.ID.String(), "error", err)
	}

	return user, session, nil
}

// DestroySessionsForUser removes every session belonging to a user.
func (s *Service) DestroySessionsForUser(ctx context.Context, identity Identity) error {
	if err := s.sessions.DeleteByUser(ctx, identity.ID); err != nil {
		return oops.Code("SESSION_STORE_FAILED").
			With("operation", "delete sessions by user").
			With("user_id", identity.ID.String()).
			Wrap(err)
	}
	return nil
}

func (s *Service) startSession(ctx context.Context, identity Identity) (*Session, string, error) {
	token, tokenHash, err := GenerateSessionToken()
	if err != nil {
		return nil, "", oops.Code("SESSION_STORE_FAILED").
			With("operation", "generate session token").
			Wrap(err)
	}

	session, err := NewSession(identity, tokenHash, s.now().Add(s.ttl))
	if err != nil {
		return nil, "", oops.Code("SESSION_STORE_FAILED").
			With("operation", "create session").
			Wrap(err)
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, "", oops.Code("SESSION_STORE_FAILED").
			With("operation", "persist session").
			Wrap(err)
	}

	return session, token, nil
}

// TTL returns the configured session lifetime.
func (s *Service) TTL() time.Duration {
	return s.ttl
}

func errInvalidCredentials() error {
	return oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid email or password")
}

func errUnauthenticated() error {
	return oops.Code("AUTH_UNAUTHENTICATED").Errorf("not authenticated")
}
