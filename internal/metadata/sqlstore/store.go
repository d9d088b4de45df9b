// Package sqlstore implements metadata.Store on top of an embedded SQLite
// database, queried through gorm. Schema changes are applied by golang-migrate
// from the embedded migrations package before the gorm connection opens;
// every multi-step read-modify-write sequence (UpsertFile, DeleteFile,
// AdjustUsed) runs inside a single gorm transaction so the files table and
// the owning user's used_bytes counter never drift out of sync.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Bilal079/dropvault/internal/metadata"
)

// Store implements metadata.Store over SQLite.
type Store struct {
	db *gorm.DB
}

// Open applies pending migrations to the database file at path and returns
// a Store backed by it.
func Open(path string) (*Store, error) {
	if err := runMigrations(path); err != nil {
		return nil, fmt.Errorf("sqlstore: %w", err)
	}

	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: open database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (s *Store) Signup(ctx context.Context, username, passHash string, quotaBytes int64) (int64, error) {
	row := userRow{
		Username:   username,
		PassHash:   passHash,
		QuotaBytes: quotaBytes,
		CreatedAt:  time.Now().Unix(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return 0, metadata.ErrUserExists
		}
		return 0, err
	}
	return row.ID, nil
}

func (s *Store) GetUser(ctx context.Context, username string) (metadata.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return metadata.User{}, metadata.ErrUserNotFound
	}
	if err != nil {
		return metadata.User{}, err
	}
	return metadata.User{
		ID:         row.ID,
		Username:   row.Username,
		PassHash:   row.PassHash,
		QuotaBytes: row.QuotaBytes,
		UsedBytes:  row.UsedBytes,
		CreatedAt:  row.CreatedAt,
	}, nil
}

func (s *Store) ListFiles(ctx context.Context, userID int64) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).
		Model(&fileRow{}).
		Where("user_id = ?", userID).
		Order("name").
		Pluck("name", &names).Error
	if err != nil {
		return nil, err
	}
	if names == nil {
		names = []string{}
	}
	return names, nil
}

func (s *Store) GetFile(ctx context.Context, userID int64, name string) (metadata.File, error) {
	var row fileRow
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND name = ?", userID, name).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return metadata.File{}, metadata.ErrFileNotFound
	}
	if err != nil {
		return metadata.File{}, err
	}
	return metadata.File{
		ID:        row.ID,
		UserID:    row.UserID,
		Name:      row.Name,
		Size:      row.Size,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (s *Store) UpsertFile(ctx context.Context, userID int64, name string, newSize int64, enforceQuota bool) (int64, error) {
	var delta int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var oldSize int64
		var existing fileRow
		err := tx.Where("user_id = ? AND name = ?", userID, name).First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			oldSize = 0
		case err != nil:
			return err
		default:
			oldSize = existing.Size
		}
		delta = newSize - oldSize

		if enforceQuota && delta > 0 {
			var user userRow
			if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return metadata.ErrUserNotFound
				}
				return err
			}
			if user.UsedBytes+delta > user.QuotaBytes {
				return metadata.ErrQuotaExceeded
			}
		}

		now := time.Now().Unix()
		if err := tx.Exec(
			`INSERT INTO files(user_id, name, size, created_at) VALUES (?, ?, ?, ?)
			 ON CONFLICT(user_id, name) DO UPDATE SET size = excluded.size`,
			userID, name, newSize, now,
		).Error; err != nil {
			return err
		}

		return tx.Exec("UPDATE users SET used_bytes = used_bytes + ? WHERE id = ?", delta, userID).Error
	})
	if err != nil {
		return 0, err
	}
	return delta, nil
}

func (s *Store) DeleteFile(ctx context.Context, userID int64, name string) (int64, error) {
	var size int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing fileRow
		if err := tx.Where("user_id = ? AND name = ?", userID, name).First(&existing).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return metadata.ErrFileNotFound
			}
			return err
		}
		size = existing.Size

		if err := tx.Where("user_id = ? AND name = ?", userID, name).Delete(&fileRow{}).Error; err != nil {
			return err
		}
		return tx.Exec("UPDATE users SET used_bytes = used_bytes - ? WHERE id = ?", size, userID).Error
	})
	if err != nil {
		return 0, err
	}
	return size, nil
}

func (s *Store) AdjustUsed(ctx context.Context, userID int64, delta int64, checkQuota bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row userRow
		if err := tx.Where("id = ?", userID).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return metadata.ErrUserNotFound
			}
			return err
		}
		if checkQuota && row.UsedBytes+delta > row.QuotaBytes {
			return metadata.ErrQuotaExceeded
		}
		return tx.Exec("UPDATE users SET used_bytes = used_bytes + ? WHERE id = ?", delta, userID).Error
	})
}

// Scrub walks every user's file rows, deletes any whose backing file is
// missing under rootDir/<username>/<name>, and recomputes used_bytes as the
// sum of what remains.
func (s *Store) Scrub(ctx context.Context, rootDir string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var users []userRow
		if err := tx.Find(&users).Error; err != nil {
			return err
		}

		for _, u := range users {
			var files []fileRow
			if err := tx.Where("user_id = ?", u.ID).Find(&files).Error; err != nil {
				return err
			}

			var total int64
			for _, f := range files {
				path := filepath.Join(rootDir, u.Username, f.Name)
				if _, statErr := os.Stat(path); statErr != nil {
					if err := tx.Where("user_id = ? AND name = ?", u.ID, f.Name).Delete(&fileRow{}).Error; err != nil {
						return err
					}
					continue
				}
				total += f.Size
			}

			if total != u.UsedBytes {
				if err := tx.Exec("UPDATE users SET used_bytes = ? WHERE id = ?", total, u.ID).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
}

var _ metadata.Store = (*Store)(nil)
