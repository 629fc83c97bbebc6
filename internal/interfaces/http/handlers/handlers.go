package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/propflow/propflow/internal/application"
	"github.com/propflow/propflow/internal/auth"
	httpContracts "github.com/propflow/propflow/internal/http"
	"github.com/propflow/propflow/internal/metrics"
	"github.com/propflow/propflow/internal/persistence"
	"github.com/propflow/propflow/internal/session"
)

// Handlers manages all HTTP endpoint handlers
type Handlers struct {
	auth      *auth.Service
	workspace *application.Workspace
	metrics   *metrics.Registry
	hub       *Hub

	// BreakerState reports the preferences store breaker for /health.
	// Optional; nil when the store is not breaker-wrapped.
	BreakerState func() string

	// StoreHealth pings the preferences store for /health. Optional.
	StoreHealth persistence.RepoHealth
}

// NewHandlers creates a new handlers instance
func NewHandlers(authSvc *auth.Service, workspace *application.Workspace, reg *metrics.Registry, hub *Hub) *Handlers {
	return &Handlers{
		auth:      authSvc,
		workspace: workspace,
		metrics:   reg,
		hub:       hub,
	}
}

// bearerToken extracts the session token from the Authorization header,
// falling back to the token query parameter for websocket clients.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// requireSession resolves the request's session or writes a 401.
func (h *Handlers) requireSession(w http.ResponseWriter, r *http.Request) (session.Session, bool) {
	sess, err := h.auth.Authenticate(r.Context(), bearerToken(r))
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			h.writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or expired session token")
		} else {
			h.writeError(w, r, http.StatusBadGateway, "session_store_unavailable", "Could not verify session")
		}
		return session.Session{}, false
	}
	return sess, true
}

// decodeJSON parses a request body, rejecting anything unreadable.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeError(w, r, http.StatusBadRequest, "malformed_request", "Request body must be valid JSON")
		return false
	}
	return true
}

// writeJSON writes JSON response with proper error handling
func (h *Handlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Fallback error response
		http.Error(w, `{"error":"json_encoding_failed"}`, http.StatusInternalServerError)
	}
}

// writeError writes standardized error response
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	requestID := r.Context().Value("request_id")
	if requestID == nil {
		requestID = "unknown"
	}

	errorResp := httpContracts.ErrorResponse{
		Error:     http.StatusText(status),
		Message:   message,
		Code:      code,
		RequestID: requestID.(string),
		Timestamp: time.Now().UTC(),
	}

	h.writeJSON(w, status, errorResp)
}

// NotFound handles 404 responses
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeError(w, r, http.StatusNotFound, "endpoint_not_found",
		"The requested endpoint does not exist")
}
