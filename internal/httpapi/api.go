// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

// Package httpapi is the JSON HTTP surface: session authentication, workflow
// and report CRUD, chat history, and the AI assistant endpoints.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/samber/oops"

	"github.com/accelerateai/accelerate/internal/ai"
	"github.com/accelerateai/accelerate/internal/analytics"
	"github.com/accelerateai/accelerate/internal/auth"
	"github.com/accelerateai/accelerate/internal/observability"
)

// DefaultSessionCookie is the session cookie name used when none is configured.
const DefaultSessionCookie = "accelerate_session"

// defaultMaxBodyBytes caps request bodies; AI payloads are the largest.
const defaultMaxBodyBytes = 1 << 20 // 1 MiB

// Config wires the API's dependencies. Auth, Workflows, Reports, and Chats are
// required. Assistant may be nil; the AI endpoints then answer 503.
type Config struct {
	Auth      *auth.Service
	Workflows analytics.WorkflowRepository
	Reports   analytics.ReportRepository
	Chats     analytics.ChatRepository
	Assistant *ai.Assistant

	// Metrics may be nil (e.g. in tests); recording is then skipped.
	Metrics *observability.Metrics
	Logger  *slog.Logger

	// CookieName defaults to DefaultSessionCookie. CookieSecure should be set
	// whenever the API is served over TLS.
	CookieName   string
	CookieSecure bool

	// MaxBodyBytes defaults to 1 MiB.
	MaxBodyBytes int64
}

// API is the HTTP layer.
type API struct {
	mux *http.ServeMux

	auth      *auth.Service
	workflows analytics.WorkflowRepository
	reports   analytics.ReportRepository
	chats     analytics.ChatRepository
	assistant *ai.Assistant

	metrics *observability.Metrics
	logger  *slog.Logger
	schemas *requestSchemas

	cookieName   string
	cookieSecure bool
	maxBodyBytes int64
}

// New creates the API and registers its routes.
func New(cfg Config) (*API, error) {
	if cfg.Auth == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("auth service is required")
	}
	if cfg.Workflows == nil || cfg.Reports == nil || cfg.Chats == nil {
		return nil, oops.Code("API_NIL_DEPENDENCY").Errorf("analytics repositories are required")
	}

	schemas, err := compileRequestSchemas()
	if err != nil {
		return nil, err
	}

	a := &API{
		mux:          http.NewServeMux(),
		auth:         cfg.Auth,
		workflows:    cfg.Workflows,
		reports:      cfg.Reports,
		chats:        cfg.Chats,
		assistant:    cfg.Assistant,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		schemas:      schemas,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if a.cookieName == "" {
		a.cookieName = DefaultSessionCookie
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = defaultMaxBodyBytes
	}

	a.routes()
	return a, nil
}

func (a *API) routes() {
	a.mux.HandleFunc("POST /api/auth/register", a.handleRegister)
	a.mux.HandleFunc("POST /api/auth/login", a.handleLogin)
	a.mux.HandleFunc("POST /api/auth/logout", a.handleLogout)
	a.mux.HandleFunc("GET /api/auth/user", a.handleCurrentUser)

	a.mux.HandleFunc("GET /api/workflows", a.handleWorkflowList)
	a.mux.HandleFunc("POST /api/workflows", a.handleWorkflowCreate)
	a.mux.HandleFunc("GET /api/workflows/{id}", a.handleWorkflowGet)
	a.mux.HandleFunc("PUT /api/workflows/{id}", a.handleWorkflowUpdate)
	a.mux.HandleFunc("DELETE /api/workflows/{id}", a.handleWorkflowDelete)

	a.mux.HandleFunc("GET /api/reports", a.handleReportList)
	a.mux.HandleFunc("POST /api/reports", a.handleReportCreate)
	a.mux.HandleFunc("GET /api/reports/{id}", a.handleReportGet)
	a.mux.HandleFunc("DELETE /api/reports/{id}", a.handleReportDelete)

	a.mux.HandleFunc("GET /api/chat", a.handleChatList)
	a.mux.HandleFunc("POST /api/chat", a.handleChatSend)

	a.mux.HandleFunc("POST /api/ai/chat", a.handleAIChat)
	a.mux.HandleFunc("POST /api/ai/report", a.handleAIReport)
	a.mux.HandleFunc("POST /api/ai/workflow/optimize", a.handleAIOptimize)
}

// Handler returns the full middleware chain around the routed mux.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = a.Authenticate(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = SecurityHeaders(h)
	h = CORS(h)
	h = a.Logging(h)
	h = Recover(h, a.logger)
	return h
}

// sessionTTL is the cookie lifetime, kept in step with the session TTL.
func (a *API) sessionTTL() time.Duration {
	return a.auth.TTL()
}
