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

// WorkflowStatus is the lifecycle state of a workflow.
type WorkflowStatus string

// Workflow lifecycle states.
const (
	WorkflowDraft    WorkflowStatus = "draft"
	WorkflowActive   WorkflowStatus = "active"
	WorkflowArchived WorkflowStatus = "archived"
)

// Valid reports whether the status is one of the known lifecycle states.
func (s WorkflowStatus) Valid() bool {
	switch s {
	case WorkflowDraft, WorkflowActive, WorkflowArchived:
		return true
	}
	return false
}

// WorkflowStep is one ordered step of a workflow. Steps are stored as a JSON
// document with the workflow rather than as their own table.
type WorkflowStep struct {
	ID          ulid.ULID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
}

// Workflow is a user-owned business process.
type Workflow struct {
	ID          ulid.ULID
	UserID      ulid.ULID
	Name        string
	Description string
	Status      WorkflowStatus
	Steps       []WorkflowStep
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewWorkflow creates a validated draft workflow owned by the given user.
func NewWorkflow(userID ulid.ULID, name, description string) (*Workflow, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").Errorf("user ID cannot be zero")
	}
	if err := ValidateWorkflowName(name); err != nil {
		return nil, err
	}

	now := time.Now()
	return &Workflow{
		ID:          ulid.Make(),
		UserID:      userID,
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		Status:      WorkflowDraft,
		Steps:       []WorkflowStep{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ValidateWorkflowName validates a workflow name.
func ValidateWorkflowName(name string) error {
	if strings.TrimSpace(name) == "" {
		return oops.Code("ANALYTICS_INVALID_INPUT").
			With("field", "name").
			Errorf("workflow name is required")
	}
	return nil
}

// WorkflowRepository manages workflow persistence. All reads are scoped to an
// owner: a workflow another user owns behaves as if it does not exist.
type WorkflowRepository interface {
	Create(ctx context.Context, workflow *Workflow) error

	// GetByID retrieves a workflow owned by userID.
	GetByID(ctx context.Context, userID, id ulid.ULID) (*Workflow, error)

	// ListByUser retrieves all workflows owned by userID, newest first.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]*Workflow, error)

	// Update persists name, description, status, and steps changes.
	Update(ctx context.Context, workflow *Workflow) error

	// Delete removes a workflow owned by userID.
	Delete(ctx context.Context, userID, id ulid.ULID) error
}
