// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/accelerateai/accelerate/internal/auth"
	"github.com/accelerateai/accelerate/internal/auth/mocks"
	"github.com/accelerateai/accelerate/pkg/errutil"
)

func TestNewService_NilDependencies(t *testing.T) {
	tests := []struct {
		name        string
		users       auth.UserRepository
		sessions    auth.SessionRepository
		hasher      auth.PasswordHasher
		expectError string
	}{
		{
			name:        "nil users repository",
			users:       nil,
			sessions:    mocks.NewMockSessionRepository(t),
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "users repository is required",
		},
		{
			name:        "nil sessions repository",
			users:       mocks.NewMockUserRepository(t),
			sessions:    nil,
			hasher:      mocks.NewMockPasswordHasher(t),
			expectError: "sessions repository is required",
		},
		{
			name:        "nil password hasher",
			users:       mocks.NewMockUserRepository(t),
			sessions:    mocks.NewMockSessionRepository(t),
			hasher:      nil,
			expectError: "password hasher is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := auth.NewService(tt.users, tt.sessions, tt.hasher)
			require.Error(t, err)
			assert.Nil(t, svc)
			assert.Contains(t, err.Error(), tt.expectError)
		})
	}
}

func TestService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("successful registration creates user and session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "password123").Return("digest123", nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)
		sessionRepo.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		user, session, token, err := svc.Register(ctx, "Ada@Example.com", "password123", "Ada Lovelace")
		require.NoError(t, err)
		require.NotNil(t, user)
		require.NotNil(t, session)

		assert.Equal(t, "ada@example.com", user.Email) // normalized
		assert.Equal(t, "digest123", user.PasswordDigest)
		assert.Equal(t, user.ID, session.UserID)
		assert.Len(t, token, 64) // 32 bytes hex-encoded
		assert.Equal(t, auth.HashSessionToken(token), session.TokenHash)
	})

	t.Run("validation failures short-circuit before hashing", func(t *testing.T) {
		tests := []struct {
			name     string
			email    string
			password string
			userName string
		}{
			{name: "invalid email", email: "not-an-email", password: "password123", userName: "Ada"},
			{name: "short password", email: "ada@example.com", password: "short", userName: "Ada"},
			{name: "short name", email: "ada@example.com", password: "password123", userName: "A"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				userRepo := mocks.NewMockUserRepository(t)
				sessionRepo := mocks.NewMockSessionRepository(t)
				hasher := mocks.NewMockPasswordHasher(t)
				svc, err := auth.NewService(userRepo, sessionRepo, hasher)
				require.NoError(t, err)

				// No mock expectations: nothing may be called.
				user, session, token, err := svc.Register(ctx, tt.email, tt.password, tt.userName)
				require.Error(t, err)
				assert.Nil(t, user)
				assert.Nil(t, session)
				assert.Empty(t, token)
				errutil.AssertErrorCode(t, err, "AUTH_INVALID_INPUT")
			})
		}
	})

	t.Run("duplicate email from storage maps to AUTH_DUPLICATE_EMAIL", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "password123").Return("digest123", nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(auth.ErrDuplicateEmail)

		user, session, token, err := svc.Register(ctx, "taken@example.com", "password123", "Ada Lovelace")
		require.Error(t, err)
		assert.Nil(t, user)
		assert.Nil(t, session)
		assert.Empty(t, token)
		errutil.AssertErrorCode(t, err, "AUTH_DUPLICATE_EMAIL")
		assert.Contains(t, err.Error(), "email already registered")
	})

	t.Run("hash failure surfaces as register failure", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "password123").Return("", errors.New("entropy exhausted"))

		_, _, _, err = svc.Register(ctx, "ada@example.com", "password123", "Ada Lovelace")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_REGISTER_FAILED")
	})

	t.Run("session store failure after user creation", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		hasher.On("Hash", "password123").Return("digest123", nil)
		userRepo.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)
		sessionRepo.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(errors.New("connection refused"))

		_, _, _, err = svc.Register(ctx, "ada@example.com", "password123", "Ada Lovelace")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "SESSION_STORE_FAILED")
	})
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()

	t.Run("successful login creates session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		userID := ulid.Make()
		user := &auth.User{
			ID:             userID,
			Email:          "ada@example.com",
			Name:           "Ada Lovelace",
			PasswordDigest: "digest123",
		}

		userRepo.On("GetByEmail", ctx, "ada@example.com").Return(user, nil)
		hasher.On("Verify", "password123", "digest123").Return(true, nil)
		sessionRepo.On("Create", ctx, mock.AnythingOfType("*auth.Session")).Return(nil)

		got, session, token, err := svc.Login(ctx, "Ada@Example.com", "password123")
		require.NoError(t, err)
		assert.Equal(t, userID, got.ID)
		assert.Equal(t, userID, session.UserID)
		assert.Len(t, token, 64)
	})

	t.Run("unknown email still runs verification", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		userRepo.On("GetByEmail", ctx, "unknown@example.com").Return(nil, auth.ErrNotFound)
		// Verify is still called with the dummy digest to keep timing flat.
		hasher.On("Verify", "password123", mock.AnythingOfType("string")).Return(false, nil)

		user, session, token, err := svc.Login(ctx, "unknown@example.com", "password123")
		require.Error(t, err)
		assert.Nil(t, user)
		assert.Nil(t, session)
		assert.Empty(t, token)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("wrong password produces identical error", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		user := &auth.User{
			ID:             ulid.Make(),
			Email:          "ada@example.com",
			Name:           "Ada Lovelace",
			PasswordDigest: "digest123",
		}

		userRepo.On("GetByEmail", ctx, "ada@example.com").Return(user, nil)
		hasher.On("Verify", "wrongpassword", "digest123").Return(false, nil)

		_, _, _, wrongPwErr := svc.Login(ctx, "ada@example.com", "wrongpassword")
		require.Error(t, wrongPwErr)
		errutil.AssertErrorCode(t, wrongPwErr, "AUTH_INVALID_CREDENTIALS")

		userRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, auth.ErrNotFound)
		hasher.On("Verify", "wrongpassword", mock.AnythingOfType("string")).Return(false, nil)

		_, _, _, noUserErr := svc.Login(ctx, "ghost@example.com", "wrongpassword")
		require.Error(t, noUserErr)

		// The two failure modes must be indistinguishable to the caller.
		assert.Equal(t, wrongPwErr.Error(), noUserErr.Error())
	})

	t.Run("empty credentials rejected without repository access", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		_, _, _, err = svc.Login(ctx, "", "password123")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")

		_, _, _, err = svc.Login(ctx, "ada@example.com", "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_INVALID_CREDENTIALS")
	})

	t.Run("storage failure is not masked as bad credentials", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		userRepo.On("GetByEmail", ctx, "ada@example.com").Return(nil, errors.New("connection refused"))

		_, _, _, err = svc.Login(ctx, "ada@example.com", "password123")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_LOGIN_FAILED")
	})
}

func TestService_Logout(t *testing.T) {
	ctx := context.Background()

	t.Run("destroys the session", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)

		session, err := auth.NewSession(testIdentity(), hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		sessionRepo.On("Delete", ctx, session.ID).Return(nil)

		require.NoError(t, svc.Logout(ctx, token))
	})

	t.Run("unknown token is a no-op", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, auth.ErrNotFound)

		require.NoError(t, svc.Logout(ctx, "nonexistenttoken"))
	})

	t.Run("empty token is a no-op", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		require.NoError(t, svc.Logout(ctx, ""))
	})

	t.Run("concurrent delete does not fail", func(t *testing.T) {
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)

		session, err := auth.NewSession(testIdentity(), hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		// Another request deleted the session between lookup and delete.
		sessionRepo.On("Delete", ctx, session.ID).Return(auth.ErrNotFound)

		require.NoError(t, svc.Logout(ctx, token))
	})
}

func TestService_CurrentUser(t *testing.T) {
	ctx := context.Background()

	newSvc := func(t *testing.T, opts ...auth.Option) (*auth.Service, *mocks.MockUserRepository, *mocks.MockSessionRepository) {
		t.Helper()
		userRepo := mocks.NewMockUserRepository(t)
		sessionRepo := mocks.NewMockSessionRepository(t)
		hasher := mocks.NewMockPasswordHasher(t)
		svc, err := auth.NewService(userRepo, sessionRepo, hasher, opts...)
		require.NoError(t, err)
		return svc, userRepo, sessionRepo
	}

	t.Run("valid session returns live user", func(t *testing.T) {
		svc, userRepo, sessionRepo := newSvc(t)

		user := &auth.User{
			ID:    ulid.Make(),
			Email: "ada@example.com",
			Name:  "Ada Lovelace",
		}
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session, err := auth.NewSession(user.Identity(), hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
		sessionRepo.On("Touch", ctx, session.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(nil)

		got, gotSession, err := svc.CurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, session.ID, gotSession.ID)
	})

	t.Run("renamed user is reflected, not the cached snapshot", func(t *testing.T) {
		svc, userRepo, sessionRepo := newSvc(t)

		userID := ulid.Make()
		stale := auth.Identity{ID: userID, Email: "old@example.com", Name: "Old Name"}
		live := &auth.User{ID: userID, Email: "new@example.com", Name: "New Name"}

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session, err := auth.NewSession(stale, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, userID).Return(live, nil)
		sessionRepo.On("Touch", ctx, session.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).Return(nil)

		got, _, err := svc.CurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Email)
		assert.Equal(t, "New Name", got.Name)
	})

	t.Run("empty token is unauthenticated", func(t *testing.T) {
		svc, _, _ := newSvc(t)

		_, _, err := svc.CurrentUser(ctx, "")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNAUTHENTICATED")
	})

	t.Run("unknown token is unauthenticated", func(t *testing.T) {
		svc, _, sessionRepo := newSvc(t)

		sessionRepo.On("GetByTokenHash", ctx, mock.AnythingOfType("string")).Return(nil, auth.ErrNotFound)

		_, _, err := svc.CurrentUser(ctx, "sometoken")
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNAUTHENTICATED")
	})

	t.Run("expired session is destroyed and unauthenticated", func(t *testing.T) {
		fixed := time.Now()
		svc, _, sessionRepo := newSvc(t, auth.WithClock(func() time.Time { return fixed }))

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session, err := auth.NewSession(testIdentity(), hash, fixed.Add(-time.Minute))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		sessionRepo.On("Delete", ctx, session.ID).Return(nil)

		_, _, err = svc.CurrentUser(ctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNAUTHENTICATED")
	})

	t.Run("deleted user orphans the session", func(t *testing.T) {
		svc, userRepo, sessionRepo := newSvc(t)

		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		identity := testIdentity()
		session, err := auth.NewSession(identity, hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, identity.ID).Return(nil, auth.ErrNotFound)
		sessionRepo.On("Delete", ctx, session.ID).Return(nil)

		_, _, err = svc.CurrentUser(ctx, token)
		require.Error(t, err)
		errutil.AssertErrorCode(t, err, "AUTH_UNAUTHENTICATED")
	})

	t.Run("fixed TTL does not extend on access", func(t *testing.T) {
		fixed := time.Now()
		svc, userRepo, sessionRepo := newSvc(t, auth.WithClock(func() time.Time { return fixed }))

		user := &auth.User{ID: ulid.Make(), Email: "ada@example.com", Name: "Ada Lovelace"}
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		expiresAt := fixed.Add(30 * time.Minute)
		session, err := auth.NewSession(user.Identity(), hash, expiresAt)
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
		sessionRepo.On("Touch", ctx, session.ID, fixed, expiresAt).Return(nil)

		_, gotSession, err := svc.CurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, expiresAt, gotSession.ExpiresAt)
	})

	t.Run("sliding expiry extends by full TTL", func(t *testing.T) {
		fixed := time.Now()
		svc, userRepo, sessionRepo := newSvc(t,
			auth.WithClock(func() time.Time { return fixed }),
			auth.WithTTL(time.Hour),
			auth.WithSlidingExpiry(true),
		)

		user := &auth.User{ID: ulid.Make(), Email: "ada@example.com", Name: "Ada Lovelace"}
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session, err := auth.NewSession(user.Identity(), hash, fixed.Add(30*time.Minute))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
		sessionRepo.On("Touch", ctx, session.ID, fixed, fixed.Add(time.Hour)).Return(nil)

		_, gotSession, err := svc.CurrentUser(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, fixed.Add(time.Hour), gotSession.ExpiresAt)
	})

	t.Run("touch failure does not fail the probe", func(t *testing.T) {
		svc, userRepo, sessionRepo := newSvc(t)

		user := &auth.User{ID: ulid.Make(), Email: "ada@example.com", Name: "Ada Lovelace"}
		token, hash, err := auth.GenerateSessionToken()
		require.NoError(t, err)
		session, err := auth.NewSession(user.Identity(), hash, time.Now().Add(time.Hour))
		require.NoError(t, err)

		sessionRepo.On("GetByTokenHash", ctx, hash).Return(session, nil)
		userRepo.On("GetByID", ctx, user.ID).Return(user, nil)
		sessionRepo.On("Touch", ctx, session.ID, mock.AnythingOfType("time.Time"), mock.AnythingOfType("time.Time")).
			Return(errors.New("connection refused"))

		_, _, err = svc.CurrentUser(ctx, token)
		require.NoError(t, err)
	})
}

func TestService_DestroySessionsForUser(t *testing.T) {
	ctx := context.Background()

	userRepo := mocks.NewMockUserRepository(t)
	sessionRepo := mocks.NewMockSessionRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)
	svc, err := auth.NewService(userRepo, sessionRepo, hasher)
	require.NoError(t, err)

	identity := testIdentity()
	sessionRepo.On("DeleteByUser", ctx, identity.ID).Return(nil)

	require.NoError(t, svc.DestroySessionsForUser(ctx, identity))
}

func TestService_TTL(t *testing.T) {
	userRepo := mocks.NewMockUserRepository(t)
	sessionRepo := mocks.NewMockSessionRepository(t)
	hasher := mocks.NewMockPasswordHasher(t)

	t.Run("defaults to 24h", func(t *testing.T) {
		svc, err := auth.NewService(userRepo, sessionRepo, hasher)
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultSessionTTL, svc.TTL())
	})

	t.Run("WithTTL overrides", func(t *testing.T) {
		svc, err := auth.NewService(userRepo, sessionRepo, hasher, auth.WithTTL(time.Hour))
		require.NoError(t, err)
		assert.Equal(t, time.Hour, svc.TTL())
	})

	t.Run("non-positive TTL keeps default", func(t *testing.T) {
		svc, err := auth.NewService(userRepo, sessionRepo, hasher, auth.WithTTL(-time.Hour))
		require.NoError(t, err)
		assert.Equal(t, auth.DefaultSessionTTL, svc.TTL())
	})
}
