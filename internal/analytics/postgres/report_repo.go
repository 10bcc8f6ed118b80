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

// ReportRepository implements analytics.ReportRepository using PostgreSQL.
type ReportRepository struct {
	pool db
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(pool db) *ReportRepository {
	return &ReportRepository{pool: pool}
}

// Create stores a new report.
func (r *ReportRepository) Create(ctx context.Context, report *analytics.Report) error {
	insights, err := json.Marshal(report.Insights)
	if err != nil {
		return oops.Code("REPORT_ENCODE_FAILED").
			With("operation", "marshal insights").
			Wrap(err)
	}
	recommendations, err := json.Marshal(report.Recommendations)
	if err != nil {
		return oops.Code("REPORT_ENCODE_FAILED").
			With("operation", "marshal recommendations").
			Wrap(err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO reports (id, user_id, title, report_type, summary, insights, recommendations, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		report.ID.String(),
		report.UserID.String(),
		report.Title,
		string(report.ReportType),
		report.Summary,
		insights,
		recommendations,
		report.CreatedAt,
	)
	if err != nil {
		return oops.Code("REPORT_CREATE_FAILED").
			With("operation", "insert report").
			With("user_id", report.UserID.String()).
			Wrap(err)
	}
	return nil
}

// GetByID retrieves a report owned by userID.
func (r *ReportRepository) GetByID(ctx context.Context, userID, id ulid.ULID) (*analytics.Report, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, report_type, summary, insights, recommendations, created_at
		FROM reports
		WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())

	report, err := scanReport(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("REPORT_NOT_FOUND").
			With("id", id.String()).
			Wrap(analytics.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("REPORT_GET_FAILED").
			With("operation", "get report by id").
			With("id", id.String()).
			Wrap(err)
	}
	return report, nil
}

// ListByUser retrieves all reports owned by userID, newest first.
func (r *ReportRepository) ListByUser(ctx context.Context, userID ulid.ULID) ([]*analytics.Report, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, report_type, summary, insights, recommendations, created_at
		FROM reports
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID.String())
	if err != nil {
		return nil, oops.Code("REPORT_LIST_FAILED").
			With("operation", "list reports").
			With("user_id", userID.String()).
			Wrap(err)
	}
	defer rows.Close()

	reports := []*analytics.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, oops.Code("REPORT_LIST_FAILED").
				With("operation", "scan report row").
				Wrap(err)
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("REPORT_LIST_FAILED").
			With("operation", "iterate report rows").
			Wrap(err)
	}
	return reports, nil
}

// Delete removes a report owned by userID.
func (r *ReportRepository) Delete(ctx context.Context, userID, id ulid.ULID) error {
	result, err := r.pool.Exec(ctx, `
		DELETE FROM reports WHERE id = $1 AND user_id = $2
	`, id.String(), userID.String())
	if err != nil {
		return oops.Code("REPORT_DELETE_FAILED").
			With("operation", "delete report").
			With("id", id.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("REPORT_NOT_FOUND").
			With("id", id.String()).
			Wrap(analytics.ErrNotFound)
	}
	return nil
}

// scanReport scans a single row into a Report.
// Callers are responsible for handling pgx.ErrNoRows.
func scanReport(row pgx.Row) (*analytics.Report, error) {
	var (
		idStr              string
		userIDStr          string
		title              string
		reportType         string
		summary            string
		insightsRaw        []byte
		recommendationsRaw []byte
		createdAt          time.Time
	)

	err := row.Scan(&idStr, &userIDStr, &title, &reportType, &summary, &insightsRaw, &recommendationsRaw, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("REPORT_SCAN_FAILED").
			With("operation", "scan report").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("REPORT_SCAN_FAILED").
			With("operation", "parse report id").
			With("id", idStr).
			Wrap(err)
	}
	userID, err := ulid.Parse(userIDStr)
	if err != nil {
		return nil, oops.Code("REPORT_SCAN_FAILED").
			With("operation", "parse report user id").
			With("user_id", userIDStr).
			Wrap(err)
	}

	insights := []string{}
	if len(insightsRaw) > 0 {
		if err := json.Unmarshal(insightsRaw, &insights); err != nil {
			return nil, oops.Code("REPORT_SCAN_FAILED").
				With("operation", "unmarshal insights").
				Wrap(err)
		}
	}
	recommendations := []string{}
	if len(recommendationsRaw) > 0 {
		if err := json.Unmarshal(recommendationsRaw, &recommendations); err != nil {
			return nil, oops.Code("REPORT_SCAN_FAILED").
				With("operation", "unmarshal recommendations").
				Wrap(err)
		}
	}

	return &analytics.Report{
		ID:              id,
		UserID:          userID,
		Title:           title,
		ReportType:      analytics.ReportType(reportType),
		Summary:         summary,
		Insights:        insights,
		Recommendations: recommendations,
		CreatedAt:       createdAt,
	}, nil
}
