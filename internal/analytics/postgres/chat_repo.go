// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accelerateai/accelerate/internal/analytics"
)

// ChatRepository implements analytics.ChatRepository using PostgreSQL.
type ChatRepository struct {
	pool db
}

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(pool db) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// Create stores a new chat message.
func (r *ChatRepository) Create(ctx context.Context, message *analytics.ChatMessage) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat_messages (id, user_id, role, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		message.ID.String(),
		message.UserID.String(),
		string(message.Role),
		message.Content,
		message.CreatedAt,
	)
	if err != nil {
		return oops.Code("CHAT_CREATE_FAILED").
			With("operation", "insert chat message").
			With("user_id", message.UserID.String()).
			Wrap(err)
	}
	return nil
}

// ListByUser retrieves up to limit of the user's most recent messages,
// oldest first. The inner query selects the newest messages; the outer one
// restores conversation order.
func (r *ChatRepository) ListByUser(ctx context.Context, userID ulid.ULID, limit int) ([]*analytics.ChatMessage, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, role, content, created_at FROM (
			SELECT id, user_id, role, content, created_at
			FROM chat_messages
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`, userID.String(), limit)
	if err != nil {
		return nil, oops.Code("CHAT_LIST_FAILED").
			With("operation", "list chat messages").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	messages := []*analytics.ChatMessage{}
	for rows.Next() {
		message, err := scanChatMessage(rows)
		if err != nil {
			return nil, oops.Code("CHAT_LIST_FAILED").
				With("operation", "scan chat message row").
				Wrap(err)
		}
		messages = append(messages, message)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("CHAT_LIST_FAILED").
			With("operation", "iterate chat message rows").
			Wrap(err)
	}
	return messages, nil
}

func scanChatMessage(row pgx.Row) (*analytics.ChatMessage, error) {
	var (
		idStr     string
		userIDStr string
		role      string
		content   string
		createdAt time.Time
	)

	err := row.Scan(&idStr, &userIDStr, &role, &content, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("CHAT_SCAN_FAILED").
			With("operation", "scan chat message").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("CHAT_SCAN_FAILED").
			With("operation", "parse chat message id").
			With("id", idStr).
			Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("CHAT_SCAN_FAILED").
			With("operation", "parse chat message user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	return &analytics.ChatMessage{
		ID:        id,
		UserID:    userID,
		Role:      analytics.ChatRole(role),
		Content:   content,
		CreatedAt: createdAt,
	}, nil
}
