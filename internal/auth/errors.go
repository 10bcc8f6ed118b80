// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth

import "errors"

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned when creating a user with an email that is
// already registered. The storage layer maps its unique-constraint violation
// to this error so concurrent registrations are decided by the database.
var ErrDuplicateEmail = errors.New("email already registered")
