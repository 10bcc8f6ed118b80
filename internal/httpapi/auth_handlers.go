// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accelerate Contributors

package httpapi

import (
	"net/http"

	"github.com/accelerateai/accelerate/internal/auth"
)

type userResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func identityResponse(identity auth.Identity) userResponse {
	return userResponse{
		ID:    identity.ID.String(),
		Email: identity.Email,
		Name:  identity.Name,
	}
}

func (a *API) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(a.sessionTTL().Seconds()),
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     a.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeValid(r, a.schemas.register, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, _, token, err := a.auth.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	a.recordSessionOpened()
	a.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, identityResponse(user.Identity()))
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeValid(r, a.schemas.login, &req); err != nil {
		a.writeError(w, r, err)
		return
	}

	user, _, token, err := a.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		a.recordLogin("failure")
		a.writeError(w, r, err)
		return
	}
	a.recordLogin("success")
	a.recordSessionOpened()

	a.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, identityResponse(user.Identity()))
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := a.sessionToken(r)
	if err := a.auth.Logout(r.Context(), token); err != nil {
		a.writeError(w, r, err)
		return
	}
	if token != "" {
		a.recordSessionClosed()
	}

	a.clearSessionCookie(w)
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

func (a *API) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	// The auth middleware already resolved the session against the live user
	// record; an absent identity here means a routing misconfiguration.
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "not authenticated"})
		return
	}
	writeJSON(w, http.StatusOK, identityResponse(identity))
}

func (a *API) recordLogin(outcome string) {
	if a.metrics != nil {
		a.metrics.LoginsTotal.WithLabelValues(outcome).Inc()
	}
}

func (a *API) recordSessionOpened() {
	if a.metrics != nil {
		a.metrics.SessionsActive.Inc()
	}
}

func (a *API) recordSessionClosed() {
	if a.metrics != nil {
		a.metrics.SessionsActive.Dec()
	}
}
