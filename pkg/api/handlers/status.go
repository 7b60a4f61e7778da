package handlers

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/sftpd"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

//go:embed templates/status.html
var statusFS embed.FS

var statusTemplate = template.Must(
	template.New("status.html").Funcs(template.FuncMap{
		"bytes": formatBytes,
		"since": formatSince,
	}).ParseFS(statusFS, "templates/status.html"),
)

// SessionLister exposes the live sessions of the SFTP endpoint.
type SessionLister interface {
	Active() []sftpd.SessionInfo
	Count() int
}

// StatusHandler renders the HTML status page: live sessions plus the
// per-user transfer roll-up.
type StatusHandler struct {
	store    store.Store
	sessions SessionLister
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(s store.Store, sessions SessionLister) *StatusHandler {
	return &StatusHandler{store: s, sessions: sessions}
}

type statusPageData struct {
	GeneratedAt time.Time
	Sessions    []sftpd.SessionInfo
	Summary     summaryView
}

type summaryView struct {
	TotalConnections  int64
	ActiveConnections int64
	TotalUpload       int64
	TotalDownload     int64
	Users             []userRow
}

type userRow struct {
	Username      string
	TotalUpload   int64
	TotalDownload int64
	SessionCount  int64
	TransferCount int64
}

// Page handles GET /status.
func (h *StatusHandler) Page(w http.ResponseWriter, r *http.Request) {
	summary, err := h.store.Summaries(r.Context(), "")
	if err != nil {
		logger.ErrorCtx(r.Context(), "failed to build status page", "error", err)
		http.Error(w, "status unavailable", http.StatusInternalServerError)
		return
	}

	data := statusPageData{
		GeneratedAt: time.Now().UTC(),
		Sessions:    h.sessions.Active(),
		Summary: summaryView{
			TotalConnections:  summary.TotalConnections,
			ActiveConnections: summary.ActiveConnections,
			TotalUpload:       summary.TotalUpload,
			TotalDownload:     summary.TotalDownload,
		},
	}
	for _, u := range summary.Users {
		data.Summary.Users = append(data.Summary.Users, userRow{
			Username:      u.Username,
			TotalUpload:   u.TotalUpload,
			TotalDownload: u.TotalDownload,
			SessionCount:  u.SessionCount,
			TransferCount: u.TransferCount,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTemplate.Execute(w, data); err != nil {
		logger.ErrorCtx(r.Context(), "failed to render status page", "error", err)
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func formatSince(t time.Time) string {
	return time.Since(t).Round(time.Second).String()
}
