package sftpd

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/metrics"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// finalizeTimeout bounds the store writes performed while closing a session.
const finalizeTimeout = 10 * time.Second

// session owns the state of one authenticated SFTP conversation: the user
// record, the resolved home jail, the transfer log and the connection record
// id. It is created when the sftp subsystem is acknowledged and finalized
// exactly once when the channel closes, on every termination path.
type session struct {
	id         string
	user       *models.User
	remoteAddr string
	startedAt  time.Time

	jail Jail
	log  *transferLog

	// connID is empty when the connection record insert failed and the
	// session runs demoted, without telemetry.
	connID string

	store   store.IdentityStore
	metrics *metrics.Metrics
	tracker *Tracker

	finalizeOnce sync.Once
}

func newSession(user *models.User, remoteAddr string, jail Jail, st store.IdentityStore, m *metrics.Metrics, tr *Tracker) *session {
	return &session{
		id:         uuid.NewString(),
		user:       user,
		remoteAddr: remoteAddr,
		startedAt:  time.Now().UTC(),
		jail:       jail,
		log:        newTransferLog(user.Username),
		store:      st,
		metrics:    m,
		tracker:    tr,
	}
}

// start inserts the connection record and registers the session as live.
// A store failure demotes the session to read-only with no telemetry rather
// than terminating it. Returns true when the session runs demoted.
func (s *session) start(ctx context.Context, remoteIP string) (readOnly bool) {
	connID, err := s.store.InsertConnection(ctx, &models.Connection{
		UserID:     s.user.ID,
		Username:   s.user.Username,
		ClientAddr: s.remoteAddr,
		RemoteIP:   remoteIP,
		StartedAt:  s.startedAt,
		Active:     true,
	})
	if err != nil {
		logger.Error("failed to insert connection record, session demoted to read-only",
			"username", s.user.Username, "remote", s.remoteAddr, "error", err)
		s.log.Disable()
		readOnly = true
	} else {
		s.connID = connID
	}

	s.tracker.add(s.id, s.user.Username, s.remoteAddr, s.startedAt, s.log)
	s.metrics.ActiveSessions.Inc()
	return readOnly
}

// finalize persists the buffered transfer log and closes out the connection
// record with the accumulated totals. It runs at most once; later calls are
// no-ops. Store failures are logged and the session still closes.
func (s *session) finalize() {
	s.finalizeOnce.Do(func() {
		uploaded, downloaded := s.log.Totals()

		s.tracker.remove(s.id)
		s.metrics.ActiveSessions.Dec()
		s.metrics.SessionDuration.Observe(time.Since(s.startedAt).Seconds())
		s.metrics.BytesTotal.WithLabelValues(string(models.DirectionUpload)).Add(float64(uploaded))
		s.metrics.BytesTotal.WithLabelValues(string(models.DirectionDownload)).Add(float64(downloaded))

		if s.connID == "" {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
		defer cancel()

		if err := s.store.InsertTransfers(ctx, s.log.Drain(s.connID)); err != nil {
			logger.Error("failed to persist transfer log",
				"username", s.user.Username, "connection_id", s.connID, "error", err)
		}
		if err := s.store.FinalizeConnection(ctx, s.connID, time.Now().UTC(), uploaded, downloaded); err != nil {
			logger.Error("failed to finalize connection record",
				"username", s.user.Username, "connection_id", s.connID, "error", err)
		}

		logger.Info("session closed",
			"username", s.user.Username,
			"remote", s.remoteAddr,
			"duration", time.Since(s.startedAt).Round(time.Millisecond),
			"uploaded", uploaded,
			"downloaded", downloaded)
	})
}
