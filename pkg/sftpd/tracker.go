package sftpd

import (
	"sort"
	"sync"
	"time"
)

// SessionInfo is a point-in-time snapshot of one live session, served by the
// admin status page.
type SessionInfo struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	RemoteAddr string    `json:"remote_addr"`
	StartedAt  time.Time `json:"started_at"`
	Uploaded   int64     `json:"uploaded"`
	Downloaded int64     `json:"downloaded"`
}

type trackedSession struct {
	info SessionInfo
	log  *transferLog
}

// Tracker keeps the registry of live sessions. Counters are read live from
// each session's transfer log at snapshot time.
type Tracker struct {
	mu       sync.RWMutex
	sessions map[string]trackedSession
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]trackedSession)}
}

func (t *Tracker) add(id, username, remoteAddr string, startedAt time.Time, log *transferLog) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[id] = trackedSession{
		info: SessionInfo{
			ID:         id,
			Username:   username,
			RemoteAddr: remoteAddr,
			StartedAt:  startedAt,
		},
		log: log,
	}
}

func (t *Tracker) remove(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, id)
}

// Count returns the number of live sessions.
func (t *Tracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// Active returns snapshots of all live sessions, oldest first.
func (t *Tracker) Active() []SessionInfo {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]SessionInfo, 0, len(t.sessions))
	for _, s := range t.sessions {
		info := s.info
		info.Uploaded, info.Downloaded = s.log.Totals()
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}
