// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/accelerateai/accelerate/internal/auth"
)

func newTestUser() *auth.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &auth.User{
		ID:             ulid.Make(),
		Email:          "ada@example.com",
		Name:           "Ada Lovelace",
		PasswordDigest: "digest123",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, user *auth.User)
		wantErr   error
		errMsg    string
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name: "unique violation maps to duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})
			},
			wantErr: auth.ErrDuplicateEmail,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface, user *auth.User) {
				mock.ExpectExec(`INSERT INTO users`).
					WithArgs(user.ID.String(), user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt).
					WillReturnError(errors.New("connection refused"))
			},
			errMsg: "connection refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			user := newTestUser()
			tt.setupMock(mock, user)

			repo := NewUserRepository(mock)
			err = repo.Create(context.Background(), user)

			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			default:
				require.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	user := newTestUser()

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"id", "email", "name", "password_digest", "created_at", "updated_at"}).
					AddRow(user.ID.String(), user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt)
				mock.ExpectQuery(`SELECT id, email, name, password_digest, created_at, updated_at`).
					WithArgs(user.ID.String()).
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT id, email, name, password_digest, created_at, updated_at`).
					WithArgs(user.ID.String()).
					WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_digest", "created_at", "updated_at"}))
			},
			wantErr: auth.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err, "failed to create mock")
			defer mock.Close()

			tt.setupMock(mock)

			repo := NewUserRepository(mock)
			got, err := repo.GetByID(context.Background(), user.ID)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, user.ID, got.ID)
				assert.Equal(t, user.Email, got.Email)
				assert.Equal(t, user.PasswordDigest, got.PasswordDigest)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUserRepository_GetByEmail(t *testing.T) {
	user := newTestUser()

	t.Run("found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "email", "name", "password_digest", "created_at", "updated_at"}).
			AddRow(user.ID.String(), user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt)
		mock.ExpectQuery(`SELECT id, email, name, password_digest, created_at, updated_at`).
			WithArgs(user.Email).
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		got, err := repo.GetByEmail(context.Background(), user.Email)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("not found", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, email, name, password_digest, created_at, updated_at`).
			WithArgs("ghost@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "password_digest", "created_at", "updated_at"}))

		repo := NewUserRepository(mock)
		_, err = repo.GetByEmail(context.Background(), "ghost@example.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, auth.ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})

	t.Run("malformed stored id surfaces scan failure", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err, "failed to create mock")
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "email", "name", "password_digest", "created_at", "updated_at"}).
			AddRow("not-a-ulid", user.Email, user.Name, user.PasswordDigest, user.CreatedAt, user.UpdatedAt)
		mock.ExpectQuery(`SELECT id, email, name, password_digest, created_at, updated_at`).
			WithArgs(user.Email).
			WillReturnRows(rows)

		repo := NewUserRepository(mock)
		_, err = repo.GetByEmail(context.Background(), user.Email)
		require.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
	})
}
