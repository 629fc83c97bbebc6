package handlers

import (
	"errors"
	"net/http"

	"github.com/propflow/propflow/internal/auth"
	"github.com/propflow/propflow/internal/domain/plan"
	httpContracts "github.com/propflow/propflow/internal/http"
)

// Login handles POST /auth/login. The plan field is the developer plan
// switcher: it seeds the session with the chosen tier so a tester can
// exercise any plan without touching billing.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req httpContracts.LoginRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password, req.Plan)
	if err != nil {
		h.metrics.Logins.WithLabelValues("failed").Inc()
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.writeError(w, r, http.StatusBadRequest, "invalid_credentials",
				"Email and password are required")
			return
		}
		h.writeError(w, r, http.StatusBadRequest, "unknown_plan",
			"Plan must be one of starter, standard, premium")
		return
	}

	h.metrics.Logins.WithLabelValues("ok").Inc()
	h.metrics.ActiveSessions.Inc()

	h.writeJSON(w, http.StatusOK, httpContracts.LoginResponse{
		Token:              sess.Token,
		Email:              sess.Email,
		Plan:               sess.Plan.String(),
		CustomFirmsEnabled: sess.Plan.Allows(plan.Premium),
	})
}

// Logout handles POST /auth/logout. Unsaved pending edits do not
// survive a logout: the account's manager is evicted and rehydrates
// from the committed store on the next login.
func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	if err := h.auth.Logout(r.Context(), sess.Token); err != nil {
		h.writeError(w, r, http.StatusBadGateway, "session_store_unavailable",
			"Could not close session")
		return
	}

	h.workspace.Evict(sess.AccountID)
	h.hub.CloseAccount(sess.AccountID)
	h.metrics.ActiveSessions.Dec()

	h.writeJSON(w, http.StatusOK, map[string]bool{"logged_out": true})
}
