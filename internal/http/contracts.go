package http

import (
	"time"

	"github.com/propflow/propflow/internal/domain/selection"
)

// LoginRequest is the login form payload. Plan is the developer plan
// switcher: the tier the session should be opened under.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Plan     string `json:"plan"`
}

// LoginResponse returns the bearer token for subsequent calls.
type LoginResponse struct {
	Token              string `json:"token"`
	Email              string `json:"email"`
	Plan               string `json:"plan"`
	CustomFirmsEnabled bool   `json:"custom_firms_enabled"`
}

// FirmsResponse is the dashboard view of the pending selection set.
// RemainingCapacity is -1 when the plan is unbounded.
type FirmsResponse struct {
	Firms             []selection.Firm `json:"firms"`
	Plan              string           `json:"plan"`
	SelectedCount     int              `json:"selected_count"`
	RemainingCapacity int              `json:"remaining_capacity"`
	HasPendingChanges bool             `json:"has_pending_changes"`
}

// AddCustomFirmRequest creates a user-authored firm (premium only).
type AddCustomFirmRequest struct {
	Name         string `json:"name"`
	MatchKeyword string `json:"match_keyword"`
}

// SaveResponse acknowledges a committed selection set.
type SaveResponse struct {
	Saved     bool      `json:"saved"`
	FirmCount int       `json:"firm_count"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the standardized error envelope.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Code      string    `json:"code"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthResponse reports service liveness for probes.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Breaker   string    `json:"breaker,omitempty"`
	Store     string    `json:"store,omitempty"`
	Version   string    `json:"version"`
}

// SelectionEvent is pushed over the websocket so an open dashboard can
// live-update its save bar when the pending set changes.
type SelectionEvent struct {
	Type              string    `json:"type"` // toggled, custom_added, saved, discarded
	FirmID            string    `json:"firm_id,omitempty"`
	HasPendingChanges bool      `json:"has_pending_changes"`
	Timestamp         time.Time `json:"timestamp"`
}
