// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Input validation constraints.
const (
	MinPasswordLength = 6
	MinNameLength     = 2
	MaxEmailLength    = 254
)

// emailRegex is a pragmatic format check: one "@", a non-empty local part,
// and a domain with at least one dot. Full RFC 5322 validation is not the goal.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// User represents a registered account.
type User struct {
	ID             ulid.ULID
	Email          string
	Name           string
	PasswordDigest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Identity is the projection of a User that is safe to expose or cache:
// never the password digest.
type Identity struct {
	ID    ulid.ULID
	Email string
	Name  string
}

// Identity returns the public projection of the user.
func (u *User) Identity() Identity {
	return Identity{ID: u.ID, Email: u.Email, Name: u.Name}
}

// NewUser creates a validated User instance. The email must already be
// normalized and the password digest produced by a PasswordHasher.
func NewUser(email, name, passwordDigest string) (*User, error) {
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if passwordDigest == "" {
		return nil, oops.Code("AUTH_INVALID_INPUT").Errorf("password digest cannot be empty")
	}

	now := time.Now()
	return &User{
		ID:             ulid.Make(),
		Email:          email,
		Name:           name,
		PasswordDigest: passwordDigest,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// NormalizeEmail lowercases and trims an email address. Emails are normalized
// once at the boundary so uniqueness and lookups agree on case.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail validates the email format.
func ValidateEmail(email string) error {
	if email == "" {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "email").
			Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "email").
			With("max", MaxEmailLength).
			Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailRegex.MatchString(email) {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "email").
			Errorf("invalid email address")
	}
	return nil
}

// ValidatePassword validates the plaintext password shape.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "password").
			With("min", MinPasswordLength).
			Errorf("password must be at least %d characters", MinPasswordLength)
	}
	return nil
}

// ValidateName validates the display name.
func ValidateName(name string) error {
	if len(strings.TrimSpace(name)) < MinNameLength {
		return oops.Code("AUTH_INVALID_INPUT").
			With("field", "name").
			With("min", MinNameLength).
			Errorf("name must be at least %d characters", MinNameLength)
	}
	return nil
}

// UserRepository manages user persistence.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicateEmail (wrapped) if the
	// email is already registered; the uniqueness check must be enforced by
	// the storage layer itself, not by a prior read.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id ulid.ULID) (*User, error)

	// GetByEmail retrieves a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*User, error)
}
