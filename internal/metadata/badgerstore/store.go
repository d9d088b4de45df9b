// Package badgerstore implements metadata.Store on top of an embedded
// BadgerDB key/value database. Users and files are JSON-encoded under
// namespaced keys; every multi-step read-modify-write sequence
// (UpsertFile, DeleteFile, AdjustUsed, Scrub) runs inside a single Badger
// transaction, giving the same atomicity guarantee sqlstore gets from a
// SQL transaction.
package badgerstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/Bilal079/dropvault/internal/metadata"
)

// Store implements metadata.Store over BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens (creating if necessary) a BadgerDB database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func getUserByUsername(txn *badger.Txn, username string) (userRecord, error) {
	item, err := txn.Get(userKey(username))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return userRecord{}, metadata.ErrUserNotFound
	}
	if err != nil {
		return userRecord{}, err
	}
	var rec userRecord
	err = item.Value(func(val []byte) error {
		var decErr error
		rec, decErr = decodeUser(val)
		return decErr
	})
	return rec, err
}

func getUserByID(txn *badger.Txn, userID int64) (userRecord, error) {
	item, err := txn.Get(userIDKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return userRecord{}, metadata.ErrUserNotFound
	}
	if err != nil {
		return userRecord{}, err
	}
	var username string
	if err := item.Value(func(val []byte) error {
		username = string(val)
		return nil
	}); err != nil {
		return userRecord{}, err
	}
	return getUserByUsername(txn, username)
}

func putUser(txn *badger.Txn, rec userRecord) error {
	data, err := encodeUser(rec)
	if err != nil {
		return err
	}
	if err := txn.Set(userKey(rec.Username), data); err != nil {
		return err
	}
	return txn.Set(userIDKey(rec.ID), []byte(rec.Username))
}

func nextUserID(txn *badger.Txn) (int64, error) {
	var id int64
	item, err := txn.Get([]byte(keySeqUser))
	switch {
	case errors.Is(err, badger.ErrKeyNotFound):
		id = 0
	case err != nil:
		return 0, err
	default:
		if err := item.Value(func(val []byte) error {
			id = decodeSeq(val)
			return nil
		}); err != nil {
			return 0, err
		}
	}
	id++
	return id, txn.Set([]byte(keySeqUser), encodeSeq(id))
}

func (s *Store) Signup(ctx context.Context, username, passHash string, quotaBytes int64) (int64, error) {
	var userID int64
	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(userKey(username))
		if err == nil {
			return metadata.ErrUserExists
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		id, err := nextUserID(txn)
		if err != nil {
			return err
		}
		userID = id

		return putUser(txn, userRecord{
			ID:         id,
			Username:   username,
			PassHash:   passHash,
			QuotaBytes: quotaBytes,
			CreatedAt:  time.Now().Unix(),
		})
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (metadata.User, error) {
	var rec userRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getUserByUsername(txn, username)
		return err
	})
	if err != nil {
		return metadata.User{}, err
	}
	return metadata.User{
		ID:         rec.ID,
		Username:   rec.Username,
		PassHash:   rec.PassHash,
		QuotaBytes: rec.QuotaBytes,
		UsedBytes:  rec.UsedBytes,
		CreatedAt:  rec.CreatedAt,
	}, nil
}

func (s *Store) ListFiles(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := filePrefix(userID)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			key := string(it.Item().Key())
			name := strings.TrimPrefix(key, string(prefix))
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Store) GetFile(ctx context.Context, userID int64, name string) (metadata.File, error) {
	var rec fileRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(userID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return metadata.ErrFileNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			var decErr error
			rec, decErr = decodeFile(val)
			return decErr
		})
	})
	if err != nil {
		return metadata.File{}, err
	}
	return metadata.File{UserID: rec.UserID, Name: rec.Name, Size: rec.Size, CreatedAt: rec.CreatedAt}, nil
}

func (s *Store) UpsertFile(ctx context.Context, userID int64, name string, newSize int64, enforceQuota bool) (int64, error) {
	var delta int64
	err := s.db.Update(func(txn *badger.Txn) error {
		var oldSize int64
		item, err := txn.Get(fileKey(userID, name))
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			oldSize = 0
		case err != nil:
			return err
		default:
			if err := item.Value(func(val []byte) error {
				rec, decErr := decodeFile(val)
				if decErr != nil {
					return decErr
				}
				oldSize = rec.Size
				return nil
			}); err != nil {
				return err
			}
		}
		delta = newSize - oldSize

		user, err := getUserByID(txn, userID)
		if err != nil {
			return err
		}
		if enforceQuota && delta > 0 && user.UsedBytes+delta > user.QuotaBytes {
			return metadata.ErrQuotaExceeded
		}

		data, err := encodeFile(fileRecord{
			UserID:    userID,
			Name:      name,
			Size:      newSize,
			CreatedAt: time.Now().Unix(),
		})
		if err != nil {
			return err
		}
		if err := txn.Set(fileKey(userID, name), data); err != nil {
			return err
		}

		user.UsedBytes += delta
		return putUser(txn, user)
	})
	if err != nil {
		return 0, err
	}
	return delta, nil
}

func (s *Store) DeleteFile(ctx context.Context, userID int64, name string) (int64, error) {
	var size int64
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(fileKey(userID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return metadata.ErrFileNotFound
		}
		if err != nil {
			return err
		}
		if err := item.Value(func(val []byte) error {
			rec, decErr := decodeFile(val)
			if decErr != nil {
				return decErr
			}
			size = rec.Size
			return nil
		}); err != nil {
			return err
		}

		if err := txn.Delete(fileKey(userID, name)); err != nil {
			return err
		}

		user, err := getUserByID(txn, userID)
		if err != nil {
			return err
		}
		user.UsedBytes -= size
		return putUser(txn, user)
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

func (s *Store) AdjustUsed(ctx context.Context, userID int64, delta int64, checkQuota bool) error {
	return s.db.Update(func(txn *badger.Txn) error {
		user, err := getUserByID(txn, userID)
		if err != nil {
			return err
		}
		if checkQuota && user.UsedBytes+delta > user.QuotaBytes {
			return metadata.ErrQuotaExceeded
		}
		user.UsedBytes += delta
		return putUser(txn, user)
	})
}

// Scrub walks every user's file keys, deletes any whose backing file is
// missing under rootDir/<username>/<name>, and recomputes used_bytes as the
// sum of what remains.
func (s *Store) Scrub(ctx context.Context, rootDir string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		userIt := txn.NewIterator(opts)
		defer userIt.Close()

		userPrefix := []byte(prefixUser)
		var users []userRecord
		for userIt.Seek(userPrefix); userIt.ValidForPrefix(userPrefix); userIt.Next() {
			var rec userRecord
			if err := userIt.Item().Value(func(val []byte) error {
				var decErr error
				rec, decErr = decodeUser(val)
				return decErr
			}); err != nil {
				return err
			}
			users = append(users, rec)
		}

		for _, user := range users {
			var total int64
			var dangling [][]byte
			fileIt := txn.NewIterator(opts)
			prefix := filePrefix(user.ID)
			for fileIt.Seek(prefix); fileIt.ValidForPrefix(prefix); fileIt.Next() {
				item := fileIt.Item()
				key := append([]byte(nil), item.Key()...)
				var rec fileRecord
				if err := item.Value(func(val []byte) error {
					var decErr error
					rec, decErr = decodeFile(val)
					return decErr
				}); err != nil {
					fileIt.Close()
					return err
				}

				path := filepath.Join(rootDir, user.Username, rec.Name)
				if _, statErr := os.Stat(path); statErr != nil {
					dangling = append(dangling, key)
					continue
				}
				total += rec.Size
			}
			fileIt.Close()

			for _, key := range dangling {
				if err := txn.Delete(key); err != nil {
					return err
				}
			}

			if total != user.UsedBytes {
				user.UsedBytes = total
				if err := putUser(txn, user); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var _ metadata.Store = (*Store)(nil)
