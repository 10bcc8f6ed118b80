// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package analytics

import (
	"context"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// ChatRole identifies the author of a chat message.
type ChatRole string

// Chat message authors.
const (
	ChatRoleUser      ChatRole = "user"
	ChatRoleAssistant ChatRole = "assistant"
)

// Valid reports whether the role is known.
func (r ChatRole) Valid() bool {
	return r == ChatRoleUser || r == ChatRoleAssistant
}

// ChatMessage is one turn of a user's assistant conversation.
type ChatMessage struct {
	ID        ulid.ULID
	UserID    ulid.ULID
	Role      ChatRole
	Content   string
	CreatedAt time.Time
}

// NewChatMessage creates a validated chat message.
func NewChatMessage(userID ulid.ULID, role ChatRole, content string) (*ChatMessage, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").Errorf("user ID cannot be zero")
	}
	if !role.Valid() {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").
			With("field", "role").
			With("value", string(role)).
			Errorf("unknown chat role")
	}
	if strings.TrimSpace(content) == "" {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").
			With("field", "content").
			Errorf("message content is required")
	}

	return &ChatMessage{
		ID:        ulid.Make(),
		UserID:    userID,
		Role:      role,
		Content:   content,
		CreatedAt: time.Now(),
	}, nil
}

// ChatRepository manages chat history persistence, scoped to an owner.
type ChatRepository interface {
	Create(ctx context.Context, message *ChatMessage) error

	// ListByUser retrieves up to limit of the user's most recent messages,
	// returned oldest first so they can be replayed as a conversation.
	ListByUser(ctx context.Context, userID ulid.ULID, limit int) ([]*ChatMessage, error)
}
