// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package ai

import (
	"regexp"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/accelerateai/accelerate/internal/analytics"
)

// ReportContent is the structured form of a generated report. Parsing is best
// effort: the model is prompted for labeled, blank-line-separated sections,
// and anything missing comes back empty rather than as an error.
type ReportContent struct {
	Summary         string
	Insights        []string
	Recommendations []string
}

// WorkflowPlan is a proposed workflow produced by the optimizer.
type WorkflowPlan struct {
	Steps        []analytics.WorkflowStep
	Improvements []string
}

var stepNumberRE = regexp.MustCompile(`^\d+\.\s*`)

// ParseReportContent splits model output into summary, insights, and
// recommendations. Sections are separated by blank lines; insight and
// recommendation lines may carry a leading "-" bullet.
func ParseReportContent(content string) ReportContent {
	sections := strings.Split(content, "\n\n")

	report := ReportContent{
		Insights:        []string{},
		Recommendations: []string{},
	}
	if len(sections) > 0 {
		report.Summary = strings.TrimSpace(stripLabel(sections[0], "Summary:"))
	}
	if len(sections) > 1 {
		report.Insights = parseBullets(stripLabel(sections[1], "Insights:"))
	}
	if len(sections) > 2 {
		report.Recommendations = parseBullets(stripLabel(sections[2], "Recommendations:"))
	}
	return report
}

// ParseWorkflowPlan splits model output into optimized steps and improvement
// notes. Steps are numbered "title: description" lines in the first section;
// improvements are bullets in the second.
func ParseWorkflowPlan(content string) WorkflowPlan {
	sections := strings.Split(content, "\n\n")

	plan := WorkflowPlan{
		Steps:        []analytics.WorkflowStep{},
		Improvements: []string{},
	}
	if len(sections) > 0 {
		for _, line := range strings.Split(sections[0], "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			line = stepNumberRE.ReplaceAllString(line, "")
			title, description, _ := strings.Cut(line, ":")
			plan.Steps = append(plan.Steps, analytics.WorkflowStep{
				ID:          ulid.Make(),
				Title:       strings.TrimSpace(title),
				Description: strings.TrimSpace(description),
			})
		}
	}
	if len(sections) > 1 {
		plan.Improvements = parseBullets(sections[1])
	}
	return plan
}

func stripLabel(section, label string) string {
	return strings.Replace(section, label, "", 1)
}

func parseBullets(section string) []string {
	items := []string{}
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "-"))
		if line == "" {
			continue
		}
		items = append(items, line)
	}
	return items
}
