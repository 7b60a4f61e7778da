// Package store defines the persistence port for user records and
// connection/transfer telemetry, and provides its backends.
//
// The SFTP core depends only on the narrow IdentityStore interface; the admin
// API uses the full Store. Backends: SQLite (default) and PostgreSQL through
// GORM, and an embedded BadgerDB document store.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// IdentityStore is the narrow port the SFTP core requires from persistence.
// All operations are safe for concurrent callers.
type IdentityStore interface {
	// FindUserByUsername returns the user with the given username, or
	// models.ErrUserNotFound.
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)

	// FindUserByID returns the user with the given id, or models.ErrUserNotFound.
	FindUserByID(ctx context.Context, id string) (*models.User, error)

	// UpdateLastLogin sets the user's last-login timestamp.
	UpdateLastLogin(ctx context.Context, id string, when time.Time) error

	// InsertConnection persists a new connection record and returns its id.
	InsertConnection(ctx context.Context, conn *models.Connection) (string, error)

	// FinalizeConnection marks a connection as ended with its final byte totals.
	FinalizeConnection(ctx context.Context, id string, endedAt time.Time, uploaded, downloaded int64) error

	// InsertTransfers persists a batch of transfer records atomically.
	// An empty batch is a no-op.
	InsertTransfers(ctx context.Context, batch []models.Transfer) error
}

// Store is the full persistence surface, consumed by the admin API on top of
// the core's IdentityStore subset.
type Store interface {
	IdentityStore

	ListUsers(ctx context.Context) ([]*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (string, error)
	UpdateUser(ctx context.Context, user *models.User) error
	DeleteUser(ctx context.Context, id string) error

	// ListConnections returns connection records newest first. userID filters
	// to one user when non-empty; limit caps the result when positive.
	ListConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error)

	// Summaries aggregates finished and active connections per user. userID
	// restricts the per-user rows (and totals) to one user when non-empty.
	Summaries(ctx context.Context, userID string) (*models.Summary, error)

	Close() error
}

// EnsureDefaultAdmin seeds the store with the default admin user if it does
// not exist. The check-then-insert is made race-safe by the unique username
// index: a duplicate insert is treated as success. Returns true if the user
// was created by this call.
func EnsureDefaultAdmin(ctx context.Context, s Store, username, password string) (bool, error) {
	if _, err := s.FindUserByUsername(ctx, username); err == nil {
		return false, nil
	} else if !errors.Is(err, models.ErrUserNotFound) {
		return false, err
	}

	hash, err := models.HashPassword(password)
	if err != nil {
		return false, err
	}

	admin := &models.User{
		Username:     username,
		PasswordHash: hash,
		Role:         string(models.RoleAdmin),
		Active:       true,
		HomeDir:      models.SanitizeHomeDir(username, username),
	}
	if _, err := s.CreateUser(ctx, admin); err != nil {
		if errors.Is(err, models.ErrDuplicateUser) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
