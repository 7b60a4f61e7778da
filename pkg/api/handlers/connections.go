package handlers

import (
	"net/http"
	"strconv"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/middleware"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// defaultConnectionLimit caps unfiltered connection listings.
const defaultConnectionLimit = 100

// ConnectionHandler serves the connection audit log.
type ConnectionHandler struct {
	store store.Store
}

// NewConnectionHandler creates a new ConnectionHandler.
func NewConnectionHandler(s store.Store) *ConnectionHandler {
	return &ConnectionHandler{store: s}
}

// List handles GET /api/v1/connections.
// Query parameters: user_id filters to one user, limit caps the result.
func (h *ConnectionHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	limit := defaultConnectionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			BadRequest(w, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	conns, err := h.store.ListConnections(r.Context(), userID, limit)
	if err != nil {
		InternalServerError(w, "Failed to list connections")
		return
	}

	WriteJSONOK(w, conns)
}

// Mine handles GET /api/v1/me/connections: the caller's own records.
func (h *ConnectionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	conns, err := h.store.ListConnections(r.Context(), claims.UserID, defaultConnectionLimit)
	if err != nil {
		InternalServerError(w, "Failed to list connections")
		return
	}

	WriteJSONOK(w, conns)
}
