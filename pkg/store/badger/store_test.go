package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUser(username string) *models.User {
	return &models.User{
		Username:     username,
		PasswordHash: "$2a$10$fakefakefakefakefakefakefakefakefakefakefakefakefakef",
		Role:         string(models.RoleUser),
		Active:       true,
		HomeDir:      username,
	}
}

func TestUserLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	byName, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.True(t, byName.Active)

	byID, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	byID.HomeDir = "teams/alice"
	require.NoError(t, s.UpdateUser(ctx, byID))
	updated, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "teams/alice", updated.HomeDir)

	require.NoError(t, s.DeleteUser(ctx, id))
	_, err = s.FindUserByUsername(ctx, "alice")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	_, err = s.FindUserByID(ctx, id)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestCreateUserRejectsDuplicate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	_, err = s.CreateUser(ctx, testUser("alice"))
	assert.ErrorIs(t, err, models.ErrDuplicateUser)
}

func TestListUsersSorted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := s.CreateUser(ctx, testUser(name))
		require.NoError(t, err)
	}

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, "bob", users[1].Username)
	assert.Equal(t, "carol", users[2].Username)
}

func TestUpdateLastLogin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)

	when := time.Now().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, id, when))

	user, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, when, *user.LastLogin, time.Second)

	assert.ErrorIs(t, s.UpdateLastLogin(ctx, "missing", when), models.ErrUserNotFound)
}

func TestConnectionTelemetry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)

	connID, err := s.InsertConnection(ctx, &models.Connection{
		UserID:    userID,
		Username:  "alice",
		RemoteIP:  "10.0.0.5",
		StartedAt: time.Now(),
		Active:    true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, connID)

	require.NoError(t, s.InsertTransfers(ctx, []models.Transfer{
		{ConnectionID: connID, Username: "alice", Path: "/a.bin", Direction: string(models.DirectionUpload), Size: 10, Timestamp: time.Now()},
		{ConnectionID: connID, Username: "alice", Path: "/b.bin", Direction: string(models.DirectionDownload), Size: 4, Timestamp: time.Now()},
	}))

	require.NoError(t, s.FinalizeConnection(ctx, connID, time.Now(), 10, 4))

	conns, err := s.ListConnections(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.False(t, conns[0].Active)
	assert.NotNil(t, conns[0].EndedAt)
	assert.Equal(t, int64(10), conns[0].BytesUploaded)
	assert.Equal(t, int64(4), conns[0].BytesDownloaded)

	assert.ErrorIs(t,
		s.FinalizeConnection(ctx, "missing", time.Now(), 0, 0),
		models.ErrConnectionNotFound)
}

func TestListConnectionsFilterAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	bobID, err := s.CreateUser(ctx, testUser("bob"))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := s.InsertConnection(ctx, &models.Connection{
			UserID: aliceID, Username: "alice", StartedAt: base.Add(time.Duration(i) * time.Minute), Active: true,
		})
		require.NoError(t, err)
	}
	_, err = s.InsertConnection(ctx, &models.Connection{
		UserID: bobID, Username: "bob", StartedAt: base.Add(time.Hour), Active: true,
	})
	require.NoError(t, err)

	all, err := s.ListConnections(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, "bob", all[0].Username)

	alice, err := s.ListConnections(ctx, aliceID, 0)
	require.NoError(t, err)
	assert.Len(t, alice, 3)

	limited, err := s.ListConnections(ctx, "", 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	bobID, err := s.CreateUser(ctx, testUser("bob"))
	require.NoError(t, err)

	conn1, err := s.InsertConnection(ctx, &models.Connection{
		UserID: aliceID, Username: "alice", StartedAt: time.Now(), Active: true,
	})
	require.NoError(t, err)
	require.NoError(t, s.InsertTransfers(ctx, []models.Transfer{
		{ConnectionID: conn1, Username: "alice", Path: "/a", Direction: string(models.DirectionUpload), Size: 100, Timestamp: time.Now()},
		{ConnectionID: conn1, Username: "alice", Path: "/b", Direction: string(models.DirectionDownload), Size: 30, Timestamp: time.Now()},
	}))
	require.NoError(t, s.FinalizeConnection(ctx, conn1, time.Now(), 100, 30))

	_, err = s.InsertConnection(ctx, &models.Connection{
		UserID: bobID, Username: "bob", StartedAt: time.Now(), Active: true,
	})
	require.NoError(t, err)

	summary, err := s.Summaries(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalConnections)
	assert.Equal(t, int64(1), summary.ActiveConnections)
	assert.Equal(t, int64(100), summary.TotalUpload)
	assert.Equal(t, int64(30), summary.TotalDownload)
	require.Len(t, summary.Users, 2)
	assert.Equal(t, "alice", summary.Users[0].Username)
	assert.Equal(t, int64(2), summary.Users[0].TransferCount)

	filtered, err := s.Summaries(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, filtered.Users, 1)
	assert.Equal(t, "alice", filtered.Users[0].Username)
}
