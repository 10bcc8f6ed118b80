// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

//go:build integration

package auth_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/accelerateai/accelerate/internal/auth"
)

var _ = Describe("Accounts and sessions", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupAll(ctx, env.pool)
	})

	Describe("Registration", func() {
		It("creates a user and opens a session", func() {
			user, session, token, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("ada@example.com"))
			Expect(token).To(HaveLen(64))
			Expect(session.UserID).To(Equal(user.ID))

			stored, err := env.Users.GetByEmail(ctx, "ada@example.com")
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.ID).To(Equal(user.ID))
			Expect(stored.PasswordDigest).NotTo(ContainSubstring("secret-password"))
		})

		It("normalizes the email before storing it", func() {
			user, _, _, err := env.Service.Register(ctx, "  ADA@Example.COM ", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("ada@example.com"))
		})

		It("lets the unique index decide duplicate emails", func() {
			_, _, _, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			_, _, _, err = env.Service.Register(ctx, "ada@example.com", "other-password", "Imposter")
			Expect(err).To(MatchError(ContainSubstring("email already registered")))
		})
	})

	Describe("Login", func() {
		BeforeEach(func() {
			_, _, _, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())
		})

		It("authenticates valid credentials", func() {
			user, _, token, err := env.Service.Login(ctx, "ada@example.com", "secret-password")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("ada@example.com"))
			Expect(token).To(HaveLen(64))
		})

		It("rejects a wrong password and an unknown user with the same error", func() {
			_, _, _, wrongPassErr := env.Service.Login(ctx, "ada@example.com", "wrong-password")
			Expect(wrongPassErr).To(HaveOccurred())

			_, _, _, noUserErr := env.Service.Login(ctx, "nobody@example.com", "secret-password")
			Expect(noUserErr).To(HaveOccurred())

			Expect(wrongPassErr.Error()).To(Equal(noUserErr.Error()))
		})
	})

	Describe("Session probe", func() {
		It("resolves the live user record, not the session snapshot", func() {
			user, _, token, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			// Rename the user behind the session's back.
			_, err = env.pool.Exec(ctx, "UPDATE users SET name = 'Countess of Lovelace' WHERE id = $1", user.ID.String())
			Expect(err).NotTo(HaveOccurred())

			current, _, err := env.Service.CurrentUser(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(current.Name).To(Equal("Countess of Lovelace"))
		})

		It("destroys the session when the user record is gone", func() {
			user, _, token, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID.String())
			Expect(err).NotTo(HaveOccurred())

			_, _, err = env.Service.CurrentUser(ctx, token)
			Expect(err).To(MatchError(ContainSubstring("not authenticated")))
		})
	})

	Describe("Logout", func() {
		It("destroys the session and tolerates repeats", func() {
			_, _, token, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			Expect(env.Service.Logout(ctx, token)).To(Succeed())
			Expect(env.Service.Logout(ctx, token)).To(Succeed())

			_, _, err = env.Service.CurrentUser(ctx, token)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Expired session sweep", func() {
		It("removes only expired sessions", func() {
			user, _, liveToken, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			_, expiredHash, err := auth.GenerateSessionToken()
			Expect(err).NotTo(HaveOccurred())
			expired, err := auth.NewSession(user.Identity(), expiredHash, time.Now().Add(-time.Hour))
			Expect(err).NotTo(HaveOccurred())
			Expect(env.Sessions.Create(ctx, expired)).To(Succeed())

			deleted, err := env.Sessions.DeleteExpired(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(deleted).To(Equal(int64(1)))

			_, _, err = env.Service.CurrentUser(ctx, liveToken)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("Cascade delete", func() {
		It("drops a user's sessions with the user row", func() {
			user, _, _, err := env.Service.Register(ctx, "ada@example.com", "secret-password", "Ada Lovelace")
			Expect(err).NotTo(HaveOccurred())

			_, err = env.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", user.ID.String())
			Expect(err).NotTo(HaveOccurred())

			var count int
			err = env.pool.QueryRow(ctx, "SELECT count(*) FROM sessions WHERE user_id = $1", user.ID.String()).Scan(&count)
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(BeZero())
		})
	})
})
