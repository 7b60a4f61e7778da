package sftpd

import (
	"context"
	"errors"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/internal/logger"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
	"github.com/hardikhari96/sftp-cloud-connector/pkg/store"
)

// ErrAuthFailed is the single rejection returned for every failed login.
// Unknown user, disabled account, missing hash and password mismatch are
// indistinguishable to the client.
var ErrAuthFailed = errors.New("authentication failed")

// Verifier validates password logins against the identity store.
type Verifier struct {
	store store.IdentityStore
}

// NewVerifier wires a Verifier to the identity store.
func NewVerifier(s store.IdentityStore) *Verifier {
	return &Verifier{store: s}
}

// Verify checks the credentials and returns the authenticated user. On
// success the user's last-login timestamp is updated best-effort; a store
// error there is logged and swallowed, never failing the login.
func (v *Verifier) Verify(ctx context.Context, username, password string) (*models.User, error) {
	user, err := v.store.FindUserByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, models.ErrUserNotFound) {
			logger.ErrorCtx(ctx, "user lookup failed during authentication", "username", username, "error", err)
		}
		return nil, ErrAuthFailed
	}
	if !user.Active {
		return nil, ErrAuthFailed
	}
	if !models.VerifyPassword(password, user.PasswordHash) {
		return nil, ErrAuthFailed
	}

	if err := v.store.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		logger.WarnCtx(ctx, "failed to update last login", "username", username, "error", err)
	}
	return user, nil
}
