package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/propflow/propflow/internal/domain/plan"
	"github.com/propflow/propflow/internal/domain/selection"
	httpContracts "github.com/propflow/propflow/internal/http"
	"github.com/propflow/propflow/internal/session"
)

// firmsView renders the current pending set for one session.
func firmsView(m *selection.Manager, sess session.Session) httpContracts.FirmsResponse {
	return httpContracts.FirmsResponse{
		Firms:             m.Pending(),
		Plan:              sess.Plan.String(),
		SelectedCount:     m.SelectedCount(),
		RemainingCapacity: m.RemainingCapacity(sess.Plan),
		HasPendingChanges: m.HasPendingChanges(),
	}
}

// Firms handles GET /firms: the pending view plus the capacity data
// the dashboard needs for its limit banner and save bar.
func (h *Handlers) Firms(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	m, err := h.workspace.ManagerFor(r.Context(), sess.AccountID)
	if err != nil {
		h.writeError(w, r, http.StatusBadGateway, "preferences_unavailable",
			"Could not load saved selections")
		return
	}

	h.writeJSON(w, http.StatusOK, firmsView(m, sess))
}

// Toggle handles POST /firms/{id}/toggle. A toggle-to-select at the
// plan's capacity is rejected with upgrade guidance and no state
// change; everything else flips the pending flag only.
func (h *Handlers) Toggle(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	m, err := h.workspace.ManagerFor(r.Context(), sess.AccountID)
	if err != nil {
		h.writeError(w, r, http.StatusBadGateway, "preferences_unavailable",
			"Could not load saved selections")
		return
	}

	firmID := mux.Vars(r)["id"]
	if err := m.Toggle(firmID, sess.Plan); err != nil {
		switch {
		case errors.Is(err, selection.ErrCapacityExceeded):
			h.metrics.RecordCapacityRejection(sess.Plan.String())
			h.writeError(w, r, http.StatusConflict, "capacity_exceeded",
				capacityMessage(sess.Plan))
		case errors.Is(err, selection.ErrUnknownFirm):
			h.writeError(w, r, http.StatusNotFound, "unknown_firm",
				fmt.Sprintf("No firm with id %q", firmID))
		default:
			h.writeError(w, r, http.StatusInternalServerError, "toggle_failed", err.Error())
		}
		return
	}

	h.metrics.RecordToggle("accepted")
	h.hub.Broadcast(sess.AccountID, httpContracts.SelectionEvent{
		Type:              "toggled",
		FirmID:            firmID,
		HasPendingChanges: m.HasPendingChanges(),
		Timestamp:         time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusOK, firmsView(m, sess))
}

// AddCustomFirm handles POST /firms/custom (premium only).
func (h *Handlers) AddCustomFirm(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.requireSession(w, r)
	if !ok {
		return
	}

	var req httpContracts.AddCustomFirmRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	m, err := h.workspace.ManagerFor(r.Context(), sess.AccountID)
	if err != nil {
		h.writeError(w, r, http.StatusBadGateway, "preferences_unavailable",
			"Could not load saved selections")
		return
	}

	firm, err := m.AddCustomFirm(req.Name, req.MatchKeyword, sess.Plan)
	if err != nil {
		switch {
		case errors.Is(err, selection.ErrPlanRestricted):
			h.writeError(w, r, http.StatusForbidden, "plan_restricted",
				"Custom firms are a premium feature. Upgrade to premium to add your own firms.")
		case errors.Is(err, selection.ErrValidation):
			h.writeError(w, r, http.StatusBadRequest, "validation_error",
				"Firm name and match keyword are required")
		default:
			h.writeError(w, r, http.StatusInternalServerError, "add_firm_failed", err.Error())
		}
		return
	}

	h.metrics.CustomFirmsCreated.Inc()
	h.hub.Broadcast(sess.AccountID, httpContracts.SelectionEvent{
		Type:              "custom_added",
		FirmID:            firm.ID,
		HasPendingChanges: true,
		Timestamp:         time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusCreated, firmsView(m, sess))
}

// capacityMessage returns plan-specific upgrade guidance for a toggle
// bounced at the selection limit.
func capacityMessage(tier plan.Tier) string {
	switch tier {
	case plan.Starter:
		return "Starter tracks 1 firm. Upgrade to standard for 3, or premium for unlimited."
	case plan.Standard:
		return "Standard tracks 3 firms. Upgrade to premium for unlimited."
	default:
		return "Selection limit reached for your plan."
	}
}
