// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/samber/oops"

	"github.com/accelerateai/accelerate/internal/analytics"
	"github.com/accelerateai/accelerate/pkg/errutil"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// statusForCode maps oops error codes to HTTP statuses. Codes not listed are
// internal failures and must not leak detail to the client.
var statusForCode = map[string]int{
	"REQUEST_INVALID":          http.StatusBadRequest,
	"AUTH_INVALID_INPUT":       http.StatusBadRequest,
	"AUTH_DUPLICATE_EMAIL":     http.StatusBadRequest,
	"ANALYTICS_INVALID_INPUT":  http.StatusBadRequest,
	"AI_REQUEST_INVALID":       http.StatusBadRequest,
	"AUTH_INVALID_CREDENTIALS": http.StatusUnauthorized,
	"AUTH_UNAUTHENTICATED":     http.StatusUnauthorized,
	"AI_NOT_CONFIGURED":        http.StatusServiceUnavailable,
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	//nolint:errcheck // response write failure means the client is gone
	json.NewEncoder(w).Encode(v)
}

// writeError translates a service error into a JSON error response. Client
// errors (4xx) carry the error message; everything else is logged and answered
// with a generic 500.
func (a *API) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, analytics.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "not found"})
		return
	}

	var oopsErr oops.OopsError
	if errors.As(err, &oopsErr) {
		// oops carries codes as any; only string codes participate in the
		// status mapping.
		if code, ok := oopsErr.Code().(string); ok {
			if status, known := statusForCode[code]; known {
				writeJSON(w, status, errorResponse{Error: oopsErr.Error()})
				return
			}
		}
	}

	errutil.LogError(a.logger, "request failed", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
}

func errRequest(format string, args ...any) error {
	return oops.Code("REQUEST_INVALID").Errorf(format, args...)
}
