// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/accelerateai/accelerate/internal/auth"
)

// publicPathPatterns lists routes reachable without a session. Matched with
// '/'-separated globs so probe subtrees stay open without listing every path.
var publicPathPatterns = []string{
	"/api/auth/register",
	"/api/auth/login",
	"/api/auth/logout",
	"/healthz/*",
}

var publicPaths = compilePublicPaths()

func compilePublicPaths() []glob.Glob {
	compiled := make([]glob.Glob, 0, len(publicPathPatterns))
	for _, p := range publicPathPatterns {
		compiled = append(compiled, glob.MustCompile(p, '/'))
	}
	return compiled
}

func isPublicPath(path string) bool {
	for _, g := range publicPaths {
		if g.Match(path) {
			return true
		}
	}
	return false
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging records method, route, status, and duration for every request, and
// feeds the HTTP request counter when metrics are wired.
func (a *API) Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		duration := time.Since(start)

		// The route pattern keeps metric cardinality bounded. The mux only
		// stamps its own copy of the request, so look the pattern up here.
		_, route := a.mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}

		a.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.code,
			"duration_ms", duration.Milliseconds(),
		)
		if a.metrics != nil {
			a.metrics.HTTPRequestsTotal.
				WithLabelValues(r.Method, route, strconv.Itoa(sw.code)).
				Inc()
		}
	})
}

// Recover converts handler panics into 500 responses.
func Recover(next http.Handler, logger *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("handler panic",
					"method", r.Method,
					"path", r.URL.Path,
					"panic", rec,
				)
				writeJSON(w, http.StatusInternalServerError,
					errorResponse{Error: "internal server error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets response hardening headers. The API serves JSON only,
// so the CSP forbids everything.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		next.ServeHTTP(w, r)
	})
}

// CORS allows credentialed requests from local dev origins. Session cookies
// require echoing the origin rather than "*".
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && isLocalOrigin(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Max-Age", "600")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func isLocalOrigin(o string) bool {
	// allow localhost during dev; extend list for prod domains later
	return strings.HasPrefix(o, "http://localhost:") || strings.HasPrefix(o, "http://127.0.0.1:")
}

// MaxBodyBytes limits request body size.
func MaxBodyBytes(next http.Handler, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		next.ServeHTTP(w, r)
	})
}

// Authenticate resolves the session cookie for every non-public path and
// attaches the live identity and session to the request context. Requests
// without a valid session are rejected before routing.
func (a *API) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isPublicPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		token := a.sessionToken(r)
		user, session, err := a.auth.CurrentUser(r.Context(), token)
		if err != nil {
			a.writeError(w, r, err)
			return
		}

		ctx := auth.ContextWithIdentity(r.Context(), user.Identity())
		ctx = auth.ContextWithSession(ctx, session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// sessionToken extracts the session token from the request cookie.
func (a *API) sessionToken(r *http.Request) string {
	cookie, err := r.Cookie(a.cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
