// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"net/http"

	"github.com/samber/oops"

	"github.com/accelerateai/accelerate/internal/ai"
)

type aiChatResponse struct {
	Response string `json:"response"`
}

type aiReportResponse struct {
	Summary         string   `json:"summary"`
	Insights        []string `json:"insights"`
	Recommendations []string `json:"recommendations"`
}

type aiOptimizeResponse struct {
	Steps        []workflowStepResponse `json:"steps"`
	Improvements []string               `json:"improvements"`
}

func (a *API) requireAssistant() (*ai.Assistant, error) {
	if a.assistant == nil {
		return nil, oops.Code("AI_NOT_CONFIGURED").Errorf("AI assistant is not configured")
	}
	return a.assistant, nil
}

func (a *API) recordCompletion(operation, outcome string) {
	if a.metrics != nil {
		a.metrics.AICompletionsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

func (a *API) handleAIChat(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	var req aiChatRequest
	if err := decodeValid(r, a.schemas.aiChat, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	assistant, err := a.requireAssistant()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	reply, err := assistant.ChatReply(r.Context(), req.Prompt, a.userContext(r, identity))
	if err != nil {
		a.recordCompletion("chat", "failure")
		a.writeError(w, r, err)
		return
	}
	a.recordCompletion("chat", "success")

	writeJSON(w, http.StatusOK, aiChatResponse{Response: reply})
}

func (a *API) handleAIReport(w http.ResponseWriter, r *http.Request) {
	var req aiReportRequest
	if err := decodeValid(r, a.schemas.aiReport, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	assistant, err := a.requireAssistant()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	content, err := assistant.GenerateReport(r.Context(), req.Data)
	if err != nil {
		a.recordCompletion("report", "failure")
		a.writeError(w, r, err)
		return
	}
	a.recordCompletion("report", "success")

	writeJSON(w, http.StatusOK, aiReportResponse{
		Summary:         content.Summary,
		Insights:        content.Insights,
		Recommendations: content.Recommendations,
	})
}

func (a *API) handleAIOptimize(w http.ResponseWriter, r *http.Request) {
	var req aiOptimizeRequest
	if err := decodeValid(r, a.schemas.aiOptimize, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	assistant, err := a.requireAssistant()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	plan, err := assistant.OptimizeWorkflow(r.Context(), req.Workflow)
	if err != nil {
		a.recordCompletion("optimize", "failure")
		a.writeError(w, r, err)
		return
	}
	a.recordCompletion("optimize", "success")

	steps := make([]workflowStepResponse, 0, len(plan.Steps))
	for _, s := range plan.Steps {
		steps = append(steps, workflowStepResponse{
			ID:          s.ID.String(),
			Title:       s.Title,
			Description: s.Description,
		})
	}
	writeJSON(w, http.StatusOK, aiOptimizeResponse{
		Steps:        steps,
		Improvements: plan.Improvements,
	})
}
