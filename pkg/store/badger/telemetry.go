package badger

import (
	"context"
	"encoding/json"
	"sort"
	"sync/atomic"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// xferSeq disambiguates transfer keys recorded within the same nanosecond.
var xferSeq atomic.Int64

func (s *Store) InsertConnection(ctx context.Context, conn *models.Connection) (string, error) {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	if conn.StartedAt.IsZero() {
		conn.StartedAt = time.Now().UTC()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, keyConn(conn.ID), conn)
	})
	if err != nil {
		return "", err
	}
	return conn.ID, nil
}

func (s *Store) FinalizeConnection(ctx context.Context, id string, endedAt time.Time, uploaded, downloaded int64) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var conn models.Connection
		if err := getJSON(txn, keyConn(id), &conn); err != nil {
			if err == badger.ErrKeyNotFound {
				return models.ErrConnectionNotFound
			}
			return err
		}
		t := endedAt
		conn.EndedAt = &t
		conn.Active = false
		conn.BytesUploaded = uploaded
		conn.BytesDownloaded = downloaded
		return setJSON(txn, keyConn(id), &conn)
	})
}

func (s *Store) InsertTransfers(ctx context.Context, batch []models.Transfer) error {
	if len(batch) == 0 {
		return nil
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for i := range batch {
			t := &batch[i]
			if t.Timestamp.IsZero() {
				t.Timestamp = time.Now().UTC()
			}
			seq := int(xferSeq.Add(1) % 1000000)
			if err := setJSON(txn, keyTransfer(t.ConnectionID, t.Timestamp, seq), t); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) listAllConnections() ([]*models.Connection, error) {
	var conns []*models.Connection
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixConn, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var conn models.Connection
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &conn)
			}); err != nil {
				return err
			}
			conns = append(conns, &conn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conns, nil
}

func (s *Store) ListConnections(ctx context.Context, userID string, limit int) ([]*models.Connection, error) {
	all, err := s.listAllConnections()
	if err != nil {
		return nil, err
	}
	conns := all[:0]
	for _, c := range all {
		if userID != "" && c.UserID != userID {
			continue
		}
		conns = append(conns, c)
	}
	sort.Slice(conns, func(i, j int) bool { return conns[i].StartedAt.After(conns[j].StartedAt) })
	if limit > 0 && len(conns) > limit {
		conns = conns[:limit]
	}
	return conns, nil
}

func (s *Store) Summaries(ctx context.Context, userID string) (*models.Summary, error) {
	var username string
	if userID != "" {
		user, err := s.FindUserByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		username = user.Username
	}

	conns, err := s.listAllConnections()
	if err != nil {
		return nil, err
	}

	byUser := make(map[string]*models.UserSummary)
	summary := &models.Summary{}
	for _, c := range conns {
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

	err = s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixXfer, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var xfer models.Transfer
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &xfer)
			}); err != nil {
				return err
			}
			if userID != "" && xfer.Username != username {
				continue
			}
			if row, ok := byUser[xfer.Username]; ok {
				row.TransferCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
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
