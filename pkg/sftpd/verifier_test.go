package sftpd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store/memory"
)

func seedUser(t *testing.T, s *memory.Store, username, password string, active bool) *models.User {
	t.Helper()
	hash, err := models.HashPassword(password)
	require.NoError(t, err)
	user := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         string(models.RoleUser),
		Active:       active,
		HomeDir:      username,
	}
	_, err = s.CreateUser(context.Background(), user)
	require.NoError(t, err)
	return user
}

func TestVerifySuccess(t *testing.T) {
	s := memory.New()
	seedUser(t, s, "alice", "Passw0rd!", true)
	v := NewVerifier(s)

	user, err := v.Verify(context.Background(), "alice", "Passw0rd!")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	// Last login was updated.
	stored, err := s.FindUserByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.NotNil(t, stored.LastLogin)
}

func TestVerifyRejections(t *testing.T) {
	s := memory.New()
	seedUser(t, s, "alice", "Passw0rd!", true)
	seedUser(t, s, "bob", "Passw0rd!", false)

	nohash := &models.User{Username: "carol", Role: string(models.RoleUser), Active: true, HomeDir: "carol"}
	_, err := s.CreateUser(context.Background(), nohash)
	require.NoError(t, err)

	v := NewVerifier(s)
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"unknown user", "nobody", "whatever"},
		{"wrong password", "alice", "wrong"},
		{"inactive user with correct password", "bob", "Passw0rd!"},
		{"empty stored hash", "carol", "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.username, tt.password)
			assert.ErrorIs(t, err, ErrAuthFailed)
		})
	}
}
