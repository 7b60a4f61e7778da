package handlers

import (
	"net/http"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/api/middleware"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// AnalyticsHandler serves per-user and global transfer aggregates.
type AnalyticsHandler struct {
	store store.Store
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(s store.Store) *AnalyticsHandler {
	return &AnalyticsHandler{store: s}
}

// Summary handles GET /api/v1/analytics/summary.
// The optional user_id query parameter restricts the roll-up to one user.
// Non-admin callers always see only their own rows.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if !claims.IsAdmin() {
		userID = claims.UserID
	}

	summary, err := h.store.Summaries(r.Context(), userID)
	if err != nil {
		InternalServerError(w, "Failed to aggregate analytics")
		return
	}
	WriteJSONOK(w, summary)
}
