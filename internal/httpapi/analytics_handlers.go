// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/accelerateai/accelerate/internal/analytics"
	"github.com/accelerateai/accelerate/internal/auth"
)

// chatHistoryLimit caps how much conversation history a single request replays.
const chatHistoryLimit = 50

type workflowStepResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type workflowResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Status      string                 `json:"status"`
	Steps       []workflowStepResponse `json:"steps"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

type reportResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	ReportType      string    `json:"report_type"`
	Summary         string    `json:"summary"`
	Insights        []string  `json:"insights"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}

type chatMessageResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func toWorkflowResponse(w *analytics.Workflow) workflowResponse {
	steps := make([]workflowStepResponse, 0, len(w.Steps))
	for _, s := range w.Steps {
		steps = append(steps, workflowStepResponse{
			ID:          s.ID.String(),
			Title:       s.Title,
			Description: s.Description,
		})
	}
	return workflowResponse{
		ID:          w.ID.String(),
		Name:        w.Name,
		Description: w.Description,
		Status:      string(w.Status),
		Steps:       steps,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

func toReportResponse(r *analytics.Report) reportResponse {
	return reportResponse{
		ID:              r.ID.String(),
		Title:           r.Title,
		ReportType:      string(r.ReportType),
		Summary:         r.Summary,
		Insights:        r.Insights,
		Recommendations: r.Recommendations,
		CreatedAt:       r.CreatedAt,
	}
}

func toChatMessageResponse(m *analytics.ChatMessage) chatMessageResponse {
	return chatMessageResponse{
		ID:        m.ID.String(),
		Role:      string(m.Role),
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func toSteps(payload []workflowStepPayload) []analytics.WorkflowStep {
	steps := make([]analytics.WorkflowStep, 0, len(payload))
	for _, p := range payload {
		steps = append(steps, analytics.WorkflowStep{
			ID:          ulid.Make(),
			Title:       p.Title,
			Description: p.Description,
		})
	}
	return steps
}

// mustIdentity returns the identity placed in the context by the auth
// middleware. Handlers behind it can rely on its presence.
func mustIdentity(r *http.Request) auth.Identity {
	identity, _ := auth.IdentityFromContext(r.Context())
	return identity
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (ulid.ULID, error) {
	id, err := ulid.Parse(r.PathValue("id"))
	if err != nil {
		return ulid.ULID{}, errRequest("invalid id")
	}
	return id, nil
}

// --- Workflows ---

func (a *API) handleWorkflowList(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	workflows, err := a.workflows.ListByUser(r.Context(), identity.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]workflowResponse, 0, len(workflows))
	for _, wf := range workflows {
		out = append(out, toWorkflowResponse(wf))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleWorkflowCreate(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	var req workflowCreateRequest
	if err := decodeValid(r, a.schemas.workflowCreate, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	workflow, err := analytics.NewWorkflow(identity.ID, req.Name, req.Description)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	workflow.Steps = toSteps(req.Steps)

	if err := a.workflows.Create(r.Context(), workflow); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkflowResponse(workflow))
}

func (a *API) handleWorkflowGet(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	workflow, err := a.workflows.GetByID(r.Context(), identity.ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkflowResponse(workflow))
}

func (a *API) handleWorkflowUpdate(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	var req workflowUpdateRequest
	if err := decodeValid(r, a.schemas.workflowUpdate, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	workflow, err := a.workflows.GetByID(r.Context(), identity.ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	workflow.Name = req.Name
	workflow.Description = req.Description
	if req.Status != "" {
		workflow.Status = analytics.WorkflowStatus(req.Status)
	}
	if req.Steps != nil {
		workflow.Steps = toSteps(req.Steps)
	}
	workflow.UpdatedAt = time.Now()

	if err := a.workflows.Update(r.Context(), workflow); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkflowResponse(workflow))
}

func (a *API) handleWorkflowDelete(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.workflows.Delete(r.Context(), identity.ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "workflow deleted"})
}

// --- Reports ---

func (a *API) handleReportList(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	reports, err := a.reports.ListByUser(r.Context(), identity.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]reportResponse, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportResponse(rep))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleReportCreate generates a report through the assistant and persists it.
func (a *API) handleReportCreate(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	var req reportCreateRequest
	if err := decodeValid(r, a.schemas.reportCreate, &req); err != nil {
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

	report, err := analytics.NewReport(identity.ID, req.Title, analytics.ReportType(req.ReportType))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	report.Summary = content.Summary
	report.Insights = content.Insights
	report.Recommendations = content.Recommendations

	if err := a.reports.Create(r.Context(), report); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReportResponse(report))
}

func (a *API) handleReportGet(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	report, err := a.reports.GetByID(r.Context(), identity.ID, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(report))
}

func (a *API) handleReportDelete(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	id, err := pathID(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	if err := a.reports.Delete(r.Context(), identity.ID, id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "report deleted"})
}

// --- Chat ---

func (a *API) handleChatList(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	messages, err := a.chats.ListByUser(r.Context(), identity.ID, chatHistoryLimit)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	out := make([]chatMessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, toChatMessageResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

// handleChatSend persists the user's message, asks the assistant for a reply
// with the user's business data as context, and persists the reply.
func (a *API) handleChatSend(w http.ResponseWriter, r *http.Request) {
	identity := mustIdentity(r)

	var req chatSendRequest
	if err := decodeValid(r, a.schemas.chatSend, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	assistant, err := a.requireAssistant()
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	userMsg, err := analytics.NewChatMessage(identity.ID, analytics.ChatRoleUser, req.Message)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.chats.Create(r.Context(), userMsg); err != nil {
		a.writeError(w, r, err)
		return
	}

	reply, err := assistant.ChatReply(r.Context(), req.Message, a.userContext(r, identity))
	if err != nil {
		a.recordCompletion("chat", "failure")
		a.writeError(w, r, err)
		return
	}
	a.recordCompletion("chat", "success")

	assistantMsg, err := analytics.NewChatMessage(identity.ID, analytics.ChatRoleAssistant, reply)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.chats.Create(r.Context(), assistantMsg); err != nil {
		a.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toChatMessageResponse(assistantMsg))
}

// userContext gathers a compact view of the user's workflows and reports for
// the assistant. Lookup failures degrade to less context, not a failed chat.
func (a *API) userContext(r *http.Request, identity auth.Identity) map[string]any {
	ctx := r.Context()
	data := map[string]any{}

	if workflows, err := a.workflows.ListByUser(ctx, identity.ID); err == nil {
		summaries := make([]map[string]any, 0, len(workflows))
		for _, wf := range workflows {
			summaries = append(summaries, map[string]any{
				"name":   wf.Name,
				"status": string(wf.Status),
				"steps":  len(wf.Steps),
			})
		}
		data["workflows"] = summaries
	}

	if reports, err := a.reports.ListByUser(ctx, identity.ID); err == nil {
		summaries := make([]map[string]any, 0, len(reports))
		for _, rep := range reports {
			summaries = append(summaries, map[string]any{
				"title":   rep.Title,
				"type":    string(rep.ReportType),
				"summary": rep.Summary,
			})
		}
		data["reports"] = summaries
	}

	if len(data) == 0 {
		return nil
	}
	return data
}
