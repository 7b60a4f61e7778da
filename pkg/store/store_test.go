package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

func newTestStore(t *testing.T) *GORMStore {
	t.Helper()
	s, err := NewGORM(&Config{
		Type:   DatabaseTypeSQLite,
		SQLite: SQLiteConfig{Path: ":memory:"},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testUser(username string) *models.User {
	hash, _ := models.HashPassword("secret123")
	return &models.User{
		Username:     username,
		PasswordHash: hash,
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

	_, err = s.CreateUser(ctx, testUser("alice"))
	assert.ErrorIs(t, err, models.ErrDuplicateUser)

	byName, err := s.FindUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
	assert.True(t, byName.Active)

	byID, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = s.FindUserByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	err = s.DeleteUser(ctx, id)
	require.NoError(t, err)
	_, err = s.FindUserByID(ctx, id)
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	err = s.DeleteUser(ctx, id)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestUpdateUserKeepsUnsetFields(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	original := testUser("bob")
	id, err := s.CreateUser(ctx, original)
	require.NoError(t, err)

	// Disable the account without touching the password or home dir.
	err = s.UpdateUser(ctx, &models.User{ID: id, Active: false})
	require.NoError(t, err)

	updated, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.False(t, updated.Active)
	assert.Equal(t, original.PasswordHash, updated.PasswordHash)
	assert.Equal(t, "bob", updated.HomeDir)
	assert.Equal(t, string(models.RoleUser), updated.Role)

	err = s.UpdateUser(ctx, &models.User{ID: id, Role: string(models.RoleAdmin), Active: true, HomeDir: "bob-data"})
	require.NoError(t, err)
	updated, err = s.FindUserByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), updated.Role)
	assert.Equal(t, "bob-data", updated.HomeDir)
	assert.True(t, updated.Active)

	err = s.UpdateUser(ctx, &models.User{ID: "missing"})
	assert.ErrorIs(t, err, models.ErrUserNotFound)
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

	when := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, s.UpdateLastLogin(ctx, id, when))

	user, err := s.FindUserByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, user.LastLogin)
	assert.WithinDuration(t, when, *user.LastLogin, time.Second)

	err = s.UpdateLastLogin(ctx, "missing", when)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestConnectionTelemetry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	userID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)

	connID, err := s.InsertConnection(ctx, &models.Connection{
		UserID:     userID,
		Username:   "alice",
		ClientAddr: "203.0.113.7:52311",
		RemoteIP:   "203.0.113.7",
		Active:     true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, connID)

	err = s.InsertTransfers(ctx, []models.Transfer{
		{ConnectionID: connID, Username: "alice", Path: "/docs/a.txt", Direction: string(models.DirectionUpload), Size: 100, Timestamp: time.Now().UTC()},
		{ConnectionID: connID, Username: "alice", Path: "/docs/b.txt", Direction: string(models.DirectionDownload), Size: 40, Timestamp: time.Now().UTC()},
	})
	require.NoError(t, err)

	// Empty batch is a no-op.
	require.NoError(t, s.InsertTransfers(ctx, nil))

	ended := time.Now().UTC()
	require.NoError(t, s.FinalizeConnection(ctx, connID, ended, 100, 40))

	conns, err := s.ListConnections(ctx, userID, 0)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	assert.False(t, conns[0].Active)
	assert.Equal(t, int64(100), conns[0].BytesUploaded)
	assert.Equal(t, int64(40), conns[0].BytesDownloaded)
	require.NotNil(t, conns[0].EndedAt)

	err = s.FinalizeConnection(ctx, "missing", ended, 0, 0)
	assert.ErrorIs(t, err, models.ErrConnectionNotFound)
}

func TestListConnectionsFilterAndLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	bobID, err := s.CreateUser(ctx, testUser("bob"))
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		_, err := s.InsertConnection(ctx, &models.Connection{
			UserID:    aliceID,
			Username:  "alice",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err = s.InsertConnection(ctx, &models.Connection{
		UserID:    bobID,
		Username:  "bob",
		StartedAt: base.Add(10 * time.Minute),
	})
	require.NoError(t, err)

	all, err := s.ListConnections(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
	// Newest first.
	assert.Equal(t, "bob", all[0].Username)

	alice, err := s.ListConnections(ctx, aliceID, 2)
	require.NoError(t, err)
	require.Len(t, alice, 2)
	assert.True(t, alice[0].StartedAt.After(alice[1].StartedAt))
}

func TestSummaries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	aliceID, err := s.CreateUser(ctx, testUser("alice"))
	require.NoError(t, err)
	bobID, err := s.CreateUser(ctx, testUser("bob"))
	require.NoError(t, err)

	c1, err := s.InsertConnection(ctx, &models.Connection{UserID: aliceID, Username: "alice", Active: true})
	require.NoError(t, err)
	require.NoError(t, s.FinalizeConnection(ctx, c1, time.Now().UTC(), 300, 50))

	_, err = s.InsertConnection(ctx, &models.Connection{UserID: bobID, Username: "bob", Active: true})
	require.NoError(t, err)

	require.NoError(t, s.InsertTransfers(ctx, []models.Transfer{
		{ConnectionID: c1, Username: "alice", Path: "/a", Direction: string(models.DirectionUpload), Size: 300, Timestamp: time.Now().UTC()},
	}))

	summary, err := s.Summaries(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, int64(2), summary.TotalConnections)
	assert.Equal(t, int64(1), summary.ActiveConnections)
	assert.Equal(t, int64(300), summary.TotalUpload)
	assert.Equal(t, int64(50), summary.TotalDownload)
	require.Len(t, summary.Users, 2)
	assert.Equal(t, "alice", summary.Users[0].Username)
	assert.Equal(t, int64(1), summary.Users[0].TransferCount)
	assert.Equal(t, "bob", summary.Users[1].Username)

	aliceOnly, err := s.Summaries(ctx, aliceID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), aliceOnly.TotalConnections)
	require.Len(t, aliceOnly.Users, 1)
	assert.Equal(t, int64(300), aliceOnly.Users[0].TotalUpload)

	_, err = s.Summaries(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := EnsureDefaultAdmin(ctx, s, "admin", "ChangeMe123!")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := s.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, string(models.RoleAdmin), admin.Role)
	assert.True(t, admin.Active)
	assert.True(t, models.VerifyPassword("ChangeMe123!", admin.PasswordHash))

	// Second call is a no-op.
	created, err = EnsureDefaultAdmin(ctx, s, "admin", "other")
	require.NoError(t, err)
	assert.False(t, created)
	again, err := s.FindUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, admin.PasswordHash, again.PasswordHash)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{"sqlite ok", Config{Type: DatabaseTypeSQLite, SQLite: SQLiteConfig{Path: "/tmp/x.db"}}, false},
		{"sqlite missing path", Config{Type: DatabaseTypeSQLite}, true},
		{"badger ok", Config{Type: DatabaseTypeBadger, Badger: BadgerConfig{Dir: "/tmp/b"}}, false},
		{"badger missing dir", Config{Type: DatabaseTypeBadger}, true},
		{"postgres missing host", Config{Type: DatabaseTypePostgres, Postgres: PostgresConfig{Database: "d", User: "u"}}, true},
		{"unknown type", Config{Type: "oracle"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	var c Config
	c.ApplyDefaults()
	assert.Equal(t, DatabaseTypeSQLite, c.Type)
	assert.NotEmpty(t, c.SQLite.Path)

	pg := Config{Type: DatabaseTypePostgres}
	pg.ApplyDefaults()
	assert.Equal(t, 5432, pg.Postgres.Port)
	assert.Equal(t, "disable", pg.Postgres.SSLMode)
}
