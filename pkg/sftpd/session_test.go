package sftpd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/metrics"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store/memory"
)

func newTestSession(t *testing.T, s *memory.Store) *session {
	t.Helper()
	user := seedUser(t, s, "alice", "Passw0rd!", true)
	return newSession(user, "203.0.113.7:52311", newTestJail(t), s, metrics.New(), NewTracker())
}

func TestSessionLifecycle(t *testing.T) {
	s := memory.New()
	sess := newTestSession(t, s)

	readOnly := sess.start(context.Background(), "203.0.113.7")
	assert.False(t, readOnly)
	require.NotEmpty(t, sess.connID)
	assert.Equal(t, 1, sess.tracker.Count())

	sess.log.RecordUpload("/hello.txt", 3)
	sess.log.RecordDownload("/other.txt", 7)

	sess.finalize()

	conn, ok := s.Connection(sess.connID)
	require.True(t, ok)
	assert.False(t, conn.Active)
	require.NotNil(t, conn.EndedAt)
	assert.Equal(t, int64(3), conn.BytesUploaded)
	assert.Equal(t, int64(7), conn.BytesDownloaded)
	assert.Equal(t, "203.0.113.7:52311", conn.ClientAddr)
	assert.Equal(t, "203.0.113.7", conn.RemoteIP)

	transfers := s.Transfers()
	require.Len(t, transfers, 2)
	for _, tr := range transfers {
		assert.Equal(t, sess.connID, tr.ConnectionID)
		assert.Equal(t, "alice", tr.Username)
	}

	assert.Equal(t, 0, sess.tracker.Count())
}

func TestSessionFinalizeRunsOnce(t *testing.T) {
	s := memory.New()
	sess := newTestSession(t, s)
	sess.start(context.Background(), "203.0.113.7")
	sess.log.RecordUpload("/f", 10)

	sess.finalize()
	sess.finalize()
	sess.finalize()

	transfers := s.Transfers()
	assert.Len(t, transfers, 1)

	conn, ok := s.Connection(sess.connID)
	require.True(t, ok)
	assert.Equal(t, int64(10), conn.BytesUploaded)
}

func TestSessionTotalsMatchTransferSums(t *testing.T) {
	s := memory.New()
	sess := newTestSession(t, s)
	sess.start(context.Background(), "203.0.113.7")

	var wantUp, wantDown int64
	for i := 1; i <= 20; i++ {
		n := int64(i)
		if i%2 == 0 {
			sess.log.RecordUpload("/u", n)
			wantUp += n
		} else {
			sess.log.RecordDownload("/d", n)
			wantDown += n
		}
	}
	sess.finalize()

	conn, ok := s.Connection(sess.connID)
	require.True(t, ok)

	var sumUp, sumDown int64
	for _, tr := range s.Transfers() {
		switch tr.Direction {
		case string(models.DirectionUpload):
			sumUp += tr.Size
		case string(models.DirectionDownload):
			sumDown += tr.Size
		}
	}
	assert.Equal(t, wantUp, conn.BytesUploaded)
	assert.Equal(t, wantDown, conn.BytesDownloaded)
	assert.Equal(t, conn.BytesUploaded, sumUp)
	assert.Equal(t, conn.BytesDownloaded, sumDown)
}

// failingStore rejects connection inserts to exercise the demotion path.
type failingStore struct {
	*memory.Store
}

func (f *failingStore) InsertConnection(ctx context.Context, conn *models.Connection) (string, error) {
	return "", assert.AnError
}

func TestSessionDemotedOnInsertFailure(t *testing.T) {
	mem := memory.New()
	user := seedUser(t, mem, "alice", "Passw0rd!", true)
	sess := newSession(user, "203.0.113.7:1", newTestJail(t), &failingStore{mem}, metrics.New(), NewTracker())

	readOnly := sess.start(context.Background(), "203.0.113.7")
	assert.True(t, readOnly)
	assert.Empty(t, sess.connID)

	// Metering is off; finalize persists nothing.
	sess.log.RecordUpload("/f", 100)
	sess.finalize()

	up, down := sess.log.Totals()
	assert.Zero(t, up)
	assert.Zero(t, down)
	assert.Empty(t, mem.Transfers())
}
