// Package memory provides an in-memory Store implementation.
//
// It exists for tests and for running the server without persistence; all
// data is lost on restart.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// Store is a mutex-protected in-memory implementation of store.Store.
type Store struct {
	mu          sync.RWMutex
	users       map[string]*models.User       // keyed by id
	connections map[string]*models.Connection // keyed by id
	transfers   []models.Transfer
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:       make(map[string]*models.User),
		connections: make(map[string]*models.Connection),
	}
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		users = append(users, &cp)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return "", models.ErrDuplicateUser
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	s.users[user.ID] = &cp
	return user.ID, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[user.ID]
	if !ok {
		return models.ErrUserNotFound
	}
	if user.PasswordHash != "" {
		existing.PasswordHash = user.PasswordHash
	}
	if user.Role != "" {
		existing.Role = user.Role
	}
	if user.HomeDir != "" {
		existing.HomeDir = user.HomeDir
	}
	existing.Active = user.Active
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return models.ErrUserNotFound
	}
	delete(s.users, id)
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, when time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.ErrUserNotFound
	}
	t := when
	u.LastLogin = &t
	return nil
}

func (s *Store) InsertConnection(ctx context.Context, conn *models.Connection) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.StartedAt.IsZero() {
		conn.StartedAt = time.Now().UTC()
	}
	cp := *conn
	s.connections[conn.ID] = &cp
	return conn.ID, nil
}

func (s *Store) FinalizeConnection(ctx context.Context, id string, endedAt time.Time, uploaded, downloaded int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.connections[id]
	if !ok {
		return models.ErrConnectionNotFound
	}
	t := endedAt
	c.EndedAt = &t
	c.Active = false
	c.BytesUploaded = uploaded
	c.BytesDownloaded = downloaded
	return nil
}

func (s *Store) InsertTransfers(ctx context.Context, batch []models.Transfer) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, batch...)
	return nil
}

func (s *Store) ListConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conns := make([]*models.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		if userID != "" && c.UserID != userID {
			continue
		}
		cp := *c
		conns = append(conns, &cp)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].StartedAt.After(conns[j].StartedAt) })
	if limit > 0 && len(conns) > limit {
		conns = conns[:limit]
	}
	return conns, nil
}

func (s *Store) Summaries(ctx context.Context, userID string) (*models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var username string
	if userID != "" {
		u, ok := s.users[userID]
		if !ok {
			return nil, models.ErrUserNotFound
		}
		username = u.Username
	}

	byUser := make(map[string]*models.UserSummary)
	summary := &models.Summary{}
	for _, c := range s.connections {
		if userID != "" && c.UserID != userID {
			continue
		}
		row, ok := byUser[c.Username]
		if !ok {
			row = &models.UserSummary{Username: c.Username}
			byUser[c.Username] = row
		}
		row.TotalUpload += c.BytesUploaded
		row.TotalDownload += c.BytesDownloaded
		row.SessionCount++
		summary.TotalConnections++
		summary.TotalUpload += c.BytesUploaded
		summary.TotalDownload += c.BytesDownloaded
		if c.Active {
			summary.ActiveConnections++
		}
	}
	for _, t := range s.transfers {
		if userID != "" && t.Username != username {
			continue
		}
		if row, ok := byUser[t.Username]; ok {
			row.TransferCount++
		}
	}

	names := make([]string, 0, len(byUser))
	for name := range byUser {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		summary.Users = append(summary.Users, *byUser[name])
	}
	return summary, nil
}

// Transfers returns a copy of all recorded transfers, for tests.
func (s *Store) Transfers() []models.Transfer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Transfer, len(s.transfers))
	copy(out, s.transfers)
	return out
}

// Connection returns a copy of one connection record, for tests.
func (s *Store) Connection(id string) (*models.Connection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.connections[id]
	if !ok {
		return nil, false
	}
	cp := *c
	return &cp, true
}

// Close implements store.Store; it is a no-op for the memory backend.
func (s *Store) Close() error { return nil }
