// Package badger implements the persistence port over an embedded BadgerDB.
//
// Records are stored as JSON documents under typed key prefixes, with a
// separate key per unique index:
//
//	user:id:<id>        user document
//	user:name:<name>    username -> id (unique index)
//	conn:<id>           connection document
//	xfer:<connID>:<ts>  transfer document, ordered by timestamp
//
// All mutations run inside Badger transactions, so the username index and the
// document stay consistent and concurrent inserts of the same username fail
// on conflict.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/hardikhari96/sftp-cloud-connector/pkg/models"
)

// Store is a BadgerDB-backed implementation of store.Store.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a Badger store in dir.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create badger directory: %w", err)
	}
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func keyUserID(id string) []byte     { return []byte("user:id:" + id) }
func keyUserName(name string) []byte { return []byte("user:name:" + name) }
func keyConn(id string) []byte       { return []byte("conn:" + id) }

func keyTransfer(connID string, ts time.Time, seq int) []byte {
	return []byte(fmt.Sprintf("xfer:%s:%020d:%06d", connID, ts.UnixNano(), seq))
}
var (
	prefixUserID = []byte("user:id:")
	prefixConn   = []byte("conn:")
	prefixXfer   = []byte("xfer:")
)

func getJSON[T any](txn *badger.Txn, key []byte, out *T) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, out)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(keyUserName(username))
		if err != nil {
			return err
		}
		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}
		return getJSON(txn, keyUserID(id), &user)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, keyUserID(id), &user)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, models.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]*models.User, error) {
	var users []*models.User
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefixUserID, PrefetchValues: true})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			var user models.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return err
			}
			users = append(users, &user)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	return users, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) (string, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyUserName(user.Username))
		if err == nil {
			return models.ErrDuplicateUser
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		if err := setJSON(txn, keyUserID(user.ID), user); err != nil {
			return err
		}
		return txn.Set(keyUserName(user.Username), []byte(user.ID))
	})
	if err != nil {
		// A concurrent insert of the same username conflicts on the index key.
		if errors.Is(err, badger.ErrConflict) {
			return "", models.ErrDuplicateUser
		}
		return "", err
	}
	return user.ID, nil
}

func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getJSON(txn, keyUserID(user.ID), &existing); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrUserNotFound
			}
			return err
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
		return setJSON(txn, keyUserID(existing.ID), &existing)
	})
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getJSON(txn, keyUserID(id), &existing); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrUserNotFound
			}
			return err
		}
		if err := txn.Delete(keyUserName(existing.Username)); err != nil {
			return err
		}
		return txn.Delete(keyUserID(id))
	})
}

func (s *Store) UpdateLastLogin(ctx context.Context, id string, when time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		var existing models.User
		if err := getJSON(txn, keyUserID(id), &existing); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return models.ErrUserNotFound
			}
			return err
		}
		t := when
		existing.LastLogin = &t
		return setJSON(txn, keyUserID(id), &existing)
	})
}
