// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package auth provides authentication primitives for Accelerate.
//
// # Domain Types
//
// Domain types (User, Session) should be created using their respective
// constructors:
//   - NewUser - creates a User with validated email, name, and password digest
//   - NewSession - creates a Session with a validated identity and expiry
//
// Direct struct initialization bypasses validation and may create invalid
// state. Repository implementations receive pre-validated types from these
// constructors.
//
// # Services
//
// Service coordinates the registration, login, logout, and session-probe
// operations. The session's identity fields are a snapshot taken at login;
// Service.CurrentUser always re-resolves the live user record through the
// UserRepository before returning it.
package auth
