// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package postgres implements the analytics repositories on PostgreSQL.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// db is the subset of pgxpool.Pool the repositories use. pgxmock's
// PgxPoolIface satisfies it, so repository tests run without a database.
type db interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
