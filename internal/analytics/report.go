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

// ReportType identifies the analysis a report was generated from.
type ReportType string

// Known report types.
const (
	ReportPerformance ReportType = "performance"
	ReportEfficiency  ReportType = "efficiency"
	ReportCustom      ReportType = "custom"
)

// Valid reports whether the report type is known.
func (t ReportType) Valid() bool {
	switch t {
	case ReportPerformance, ReportEfficiency, ReportCustom:
		return true
	}
	return false
}

// Report is a generated analysis owned by a user. Insights and
// recommendations are free-text bullet points produced by the AI layer.
type Report struct {
	ID              ulid.ULID
	UserID          ulid.ULID
	Title           string
	ReportType      ReportType
	Summary         string
	Insights        []string
	Recommendations []string
	CreatedAt       time.Time
}

// NewReport creates a validated report owned by the given user.
func NewReport(userID ulid.ULID, title string, reportType ReportType) (*Report, error) {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").Errorf("user ID cannot be zero")
	}
	if strings.TrimSpace(title) == "" {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").
			With("field", "title").
			Errorf("report title is required")
	}
	if !reportType.Valid() {
		return nil, oops.Code("ANALYTICS_INVALID_INPUT").
			With("field", "report_type").
			With("value", string(reportType)).
			Errorf("unknown report type")
	}

	return &Report{
		ID:              ulid.Make(),
		UserID:          userID,
		Title:           strings.TrimSpace(title),
		ReportType:      reportType,
		Insights:        []string{},
		Recommendations: []string{},
		CreatedAt:       time.Now(),
	}, nil
}

// ReportRepository manages report persistence, scoped to an owner.
type ReportRepository interface {
	Create(ctx context.Context, report *Report) error

	// GetByID retrieves a report owned by userID.
	GetByID(ctx context.Context, userID, id ulid.ULID) (*Report, error)

	// ListByUser retrieves all reports owned by userID, newest first.
	ListByUser(ctx context.Context, userID ulid.ULID) ([]*Report, error)

	// Delete removes a report owned by userID.
	Delete(ctx context.Context, userID, id ulid.ULID) error
}
