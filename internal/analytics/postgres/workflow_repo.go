// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/accelerateai/accelerate/internal/analytics"
)

// WorkflowRepository implements analytics.WorkflowRepository using PostgreSQL.
type WorkflowRepository struct {
	pool db
}

// NewWorkflowRepository creates a new WorkflowRepository.
func NewWorkflowRepository(pool db) *WorkflowRepository {
	return &WorkflowRepository{pool: pool}
}

// Create stores a new workflow.
func (r *WorkflowRepository) Create(ctx context.Context, workflow *analytics.Workflow) error {
	steps, err := json.Marshal(workflow.Steps)
	if err != nil {
		return oops.Code("WORKFLOW_ENCODE_FAILED").
			With("operation", "marshal steps").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO workflows (id, user_id, name, description, status, steps, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		workflow.ID.String(),
		workflow.UserID.String(),
		workflow.Name,
		workflow.Description,
		string(workflow.Status),
		steps,
		workflow.CreatedAt,
		workflow.UpdatedAt,
	)
	if err != nil {
		return oops.Code("WORKFLOW_CREATE_FAILED").
			With("operation", "insert workflow").
			With("user_id", workflow.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a workflow owned by userID.
func (r *WorkflowRepository) GetByID(ctx context.Context, userID, id ulid.ULID) (*analytics.Workflow, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, description, status, steps, created_at, updated_at
		FROM workflows
		WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())

	workflow, err := scanWorkflow(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("WORKFLOW_NOT_FOUND").
			With("id", id.String()).
			Wrap(analytics.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("WORKFLOW_GET_FAILED").
			With("operation", "get workflow by id").
			With("id", id.String()).
			Wrap(err)
	}
	return workflow, nil
}

// ListByUser retrieves all workflows owned by userID, newest first.
func (r *WorkflowRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*analytics.Workflow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, name, description, status, steps, created_at, updated_at
		FROM workflows
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("WORKFLOW_LIST_FAILED").
			With("operation", "list workflows").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	workflows := []*analytics.Workflow{}
	for rows.Next() {
		workflow, err := scanWorkflow(rows)
		if err != nil {
			return nil, oops.Code("WORKFLOW_LIST_FAILED").
				With("operation", "scan workflow row").
				Wrap(err)
		}
		workflows = append(workflows, workflow)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("WORKFLOW_LIST_FAILED").
			With("operation", "iterate workflow rows").
			Wrap(err)
	}
	return workflows, nil
}

// Update persists name, description, status, and steps changes.
func (r *WorkflowRepository) Update(ctx context.Context, workflow *analytics.Workflow) error {
	steps, err := json.Marshal(workflow.Steps)
	if err != nil {
		return oops.Code("WORKFLOW_ENCODE_FAILED").
			With("operation", "marshal steps").
			Wrap(err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE workflows
		SET name = $3, description = $4, status = $5, steps = $6, updated_at = $7
		WHERE id = $1 AND user_id = $2
	`,
		workflow.ID.String(),
		workflow.UserID.String(),
		workflow.Name,
		workflow.Description,
		string(workflow.Status),
		steps,
		workflow.UpdatedAt,
	)
	if err != nil {
		return oops.Code("WORKFLOW_UPDATE_FAILED").
			With("operation", "update workflow").
			With("id", workflow.ID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("WORKFLOW_NOT_FOUND").
			With("id", workflow.ID.String()).
			Wrap(analytics.ErrNotFound)
	}
	return nil
}

// Delete removes a workflow owned by userID.
func (r *WorkflowRepository) Delete(ctx context.Context, userID, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM workflows WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())
	if err != nil {
		return oops.Code("WORKFLOW_DELETE_FAILED").
			With("operation", "delete workflow").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("WORKFLOW_NOT_FOUND").
			With("id", id.String()).
			Wrap(analytics.ErrNotFound)
	}
	return nil
}

// scanWorkflow scans a single row into a Workflow.
// Callers are responsible for handling pgx.ErrNoRows.
func scanWorkflow(row pgx.Row) (*analytics.Workflow, error) {
	var (
		idStr       string
		userIDStr   string
		name        string
		description string
		status      string
		stepsRaw    []byte
		createdAt   time.Time
		updatedAt   time.Time
	)

	err := row.Scan(&idStr, &userIDStr, &name, &description, &status, &stepsRaw, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("WORKFLOW_SCAN_FAILED").
			With("operation", "scan workflow").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("WORKFLOW_SCAN_FAILED").
			With("operation", "parse workflow id").
			With("id", idStr).
			Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("WORKFLOW_SCAN_FAILED").
			With("operation", "parse workflow user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	steps := []analytics.WorkflowStep{}
	if len(stepsRaw) > 0 {
		if err := json.Unmarshal(stepsRaw, &steps); err != nil {
			return nil, oops.Code("WORKFLOW_SCAN_FAILED").
				With("operation", "unmarshal steps").
				Wrap(err)
		}
	}

	return &analytics.Workflow{
		ID:          id,
		UserID:      userID,
		Name:        name,
		Description: description,
		Status:      analytics.WorkflowStatus(status),
		Steps:       steps,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
	}, nil
}
