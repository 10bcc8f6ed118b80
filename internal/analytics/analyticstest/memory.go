// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package analyticstest provides in-memory analytics repositories for tests.
package analyticstest

import (
	"context"
	"sort"
	"sync"

	"github.com/oklog/ulid/v2"

	"github.com/accelerateai/accelerate/internal/analytics"
)

// MemoryWorkflowRepository is an in-memory analytics.WorkflowRepository with
// the same owner scoping as the postgres implementation.
type MemoryWorkflowRepository struct {
	mu   sync.RWMutex
	byID map[ulid.ULID]*analytics.Workflow
}

// NewMemoryWorkflowRepository creates an empty MemoryWorkflowRepository.
func NewMemoryWorkflowRepository() *MemoryWorkflowRepository {
	return &MemoryWorkflowRepository{byID: make(map[ulid.ULID]*analytics.Workflow)}
}

// Create stores a new workflow.
func (r *MemoryWorkflowRepository) Create(_ context.Context, workflow *analytics.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := cloneWorkflow(workflow)
	r.byID[workflow.ID] = clone
	return nil
}

// GetByID retrieves a workflow owned by userID.
func (r *MemoryWorkflowRepository) GetByID(_ context.Context, userID, id ulid.ULID) (*analytics.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	workflow, ok := r.byID[id]
	if !ok || workflow.UserID != userID {
		return nil, analytics.ErrNotFound
	}
	return cloneWorkflow(workflow), nil
}

// ListByUser retrieves all workflows owned by userID, newest first.
func (r *MemoryWorkflowRepository) ListByUser(_ context.Context, userID ulid.ULID) ([]*analytics.Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*analytics.Workflow
	for _, workflow := range r.byID {
		if workflow.UserID == userID {
			out = append(out, cloneWorkflow(workflow))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Update persists workflow changes, scoped to the owner.
func (r *MemoryWorkflowRepository) Update(_ context.Context, workflow *analytics.Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.byID[workflow.ID]
	if !ok || existing.UserID != workflow.UserID {
		return analytics.ErrNotFound
	}
	r.byID[workflow.ID] = cloneWorkflow(workflow)
	return nil
}

// Delete removes a workflow owned by userID.
func (r *MemoryWorkflowRepository) Delete(_ context.Context, userID, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	workflow, ok := r.byID[id]
	if !ok || workflow.UserID != userID {
		return analytics.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

// Len returns the number of stored workflows.
func (r *MemoryWorkflowRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

func cloneWorkflow(w *analytics.Workflow) *analytics.Workflow {
	clone := *w
	clone.Steps = append([]analytics.WorkflowStep(nil), w.Steps...)
	return &clone
}

// MemoryReportRepository is an in-memory analytics.ReportRepository.
type MemoryReportRepository struct {
	mu   sync.RWMutex
	byID map[ulid.ULID]*analytics.Report
}

// NewMemoryReportRepository creates an empty MemoryReportRepository.
func NewMemoryReportRepository() *MemoryReportRepository {
	return &MemoryReportRepository{byID: make(map[ulid.ULID]*analytics.Report)}
}

// Create stores a new report.
func (r *MemoryReportRepository) Create(_ context.Context, report *analytics.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.byID[report.ID] = cloneReport(report)
	return nil
}

// GetByID retrieves a report owned by userID.
func (r *MemoryReportRepository) GetByID(_ context.Context, userID, id ulid.ULID) (*analytics.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	report, ok := r.byID[id]
	if !ok || report.UserID != userID {
		return nil, analytics.ErrNotFound
	}
	return cloneReport(report), nil
}

// ListByUser retrieves all reports owned by userID, newest first.
func (r *MemoryReportRepository) ListByUser(_ context.Context, userID ulid.ULID) ([]*analytics.Report, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*analytics.Report
	for _, report := range r.byID {
		if report.UserID == userID {
			out = append(out, cloneReport(report))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Delete removes a report owned by userID.
func (r *MemoryReportRepository) Delete(_ context.Context, userID, id ulid.ULID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	report, ok := r.byID[id]
	if !ok || report.UserID != userID {
		return analytics.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func cloneReport(rep *analytics.Report) *analytics.Report {
	clone := *rep
	clone.Insights = append([]string(nil), rep.Insights...)
	clone.Recommendations = append([]string(nil), rep.Recommendations...)
	return &clone
}

// MemoryChatRepository is an in-memory analytics.ChatRepository.
type MemoryChatRepository struct {
	mu       sync.RWMutex
	messages []*analytics.ChatMessage
}

// NewMemoryChatRepository creates an empty MemoryChatRepository.
func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{}
}

// Create appends a chat message.
func (r *MemoryChatRepository) Create(_ context.Context, message *analytics.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	clone := *message
	r.messages = append(r.messages, &clone)
	return nil
}

// ListByUser retrieves up to limit of the user's most recent messages,
// oldest first.
func (r *MemoryChatRepository) ListByUser(_ context.Context, userID ulid.ULID, limit int) ([]*analytics.ChatMessage, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*analytics.ChatMessage
	for _, message := range r.messages {
		if message.UserID == userID {
			clone := *message
			out = append(out, &clone)
		}
	}
	// Stable keeps insertion order for messages stored in the same instant.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Len returns the number of stored messages.
func (r *MemoryChatRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.messages)
}
