package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/propflow/propflow/internal/domain/selection"
	httpContracts "github.com/propflow/propflow/internal/http"
)

// SavePreferences handles POST /preferences/save: atomically promote
// the pending set to committed through the preferences store. On
// failure the pending edits are preserved so the caller can retry.
func (h *Handlers) SavePreferences(w http.ResponseWriter, r *http.Request) {
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

	if err := m.Save(r.Context()); err != nil {
		h.metrics.RecordSave("failed")
		if errors.Is(err, selection.ErrPersistence) {
			h.writeError(w, r, http.StatusBadGateway, "persistence_error",
				"Could not save your selections. Your changes are kept; try again.")
			return
		}
		h.writeError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	h.metrics.RecordSave("ok")
	h.hub.Broadcast(sess.AccountID, httpContracts.SelectionEvent{
		Type:              "saved",
		HasPendingChanges: false,
		Timestamp:         time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusOK, httpContracts.SaveResponse{
		Saved:     true,
		FirmCount: len(m.Pending()),
		Timestamp: time.Now().UTC(),
	})
}

// DiscardChanges handles POST /preferences/discard: revert pending to
// the last committed state. Always succeeds and is idempotent.
func (h *Handlers) DiscardChanges(w http.ResponseWriter, r *http.Request) {
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

	m.Discard()
	h.metrics.Discards.Inc()
	h.hub.Broadcast(sess.AccountID, httpContracts.SelectionEvent{
		Type:              "discarded",
		HasPendingChanges: false,
		Timestamp:         time.Now().UTC(),
	})

	h.writeJSON(w, http.StatusOK, firmsView(m, sess))
}
