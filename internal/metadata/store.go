// Package metadata defines the storage-backend-agnostic interface the
// worker pool uses to persist users and file records, along with the
// sentinel errors and plain data types shared by every backend.
//
// Two backends implement Store: sqlstore (gorm over an embedded SQLite
// file, the default) and badgerstore (an embedded BadgerDB key/value
// store). Both honor the same transactional contract: UpsertFile,
// DeleteFile and AdjustUsed each read and write several related rows (or
// keys) and must do so atomically, so a crash or concurrent access never
// leaves a user's used-byte total out of sync with their file rows.
package metadata

import (
	"context"
	"errors"
)

// Sentinel errors returned by Store implementations. Callers translate
// these into wire-protocol error codes at the protocol boundary.
var (
	ErrUserNotFound    = errors.New("metadata: user not found")
	ErrUserExists      = errors.New("metadata: user already exists")
	ErrFileNotFound    = errors.New("metadata: file not found")
	ErrQuotaExceeded   = errors.New("metadata: quota exceeded")
)

// User is a signed-up account record.
type User struct {
	ID         int64
	Username   string
	PassHash   string
	QuotaBytes int64
	UsedBytes  int64
	CreatedAt  int64
}

// File is a metadata record for one uploaded file.
type File struct {
	ID        int64
	UserID    int64
	Name      string
	Size      int64
	CreatedAt int64
}

// Store is the persistence interface the worker pool depends on. All
// methods are safe for concurrent use; callers still must hold the
// appropriate lockmgr lock before mutating a given user's or file's state,
// since Store only guarantees atomicity of its own read-modify-write
// sequences, not cross-call exclusion.
type Store interface {
	// Signup creates a new user with zero used bytes. It returns
	// ErrUserExists if the username is already taken.
	Signup(ctx context.Context, username, passHash string, quotaBytes int64) (userID int64, err error)

	// GetUser returns the user record for username, or ErrUserNotFound.
	GetUser(ctx context.Context, username string) (User, error)

	// ListFiles returns the names of every file owned by userID, sorted
	// lexicographically.
	ListFiles(ctx context.Context, userID int64) ([]string, error)

	// GetFile returns the file record for (userID, name), or
	// ErrFileNotFound.
	GetFile(ctx context.Context, userID int64, name string) (File, error)

	// UpsertFile inserts a new file row or updates an existing one's size,
	// adjusting the owning user's used-byte total by the size delta in the
	// same transaction, and returns the delta applied. When enforceQuota is
	// true and the delta would push used bytes above the user's quota, the
	// whole write (file row and used-byte adjustment alike) is rolled back
	// and ErrQuotaExceeded is returned instead.
	UpsertFile(ctx context.Context, userID int64, name string, newSize int64, enforceQuota bool) (delta int64, err error)

	// DeleteFile removes a file row and subtracts its size from the
	// owning user's used-byte total in the same transaction. It returns
	// the size of the deleted file, or ErrFileNotFound.
	DeleteFile(ctx context.Context, userID int64, name string) (sizeDeleted int64, err error)

	// AdjustUsed applies delta to userID's used-byte total. When
	// checkQuota is true, the adjustment is rejected with
	// ErrQuotaExceeded if it would push used bytes above the user's
	// quota.
	AdjustUsed(ctx context.Context, userID int64, delta int64, checkQuota bool) error

	// Scrub reconciles metadata against the filesystem rooted at rootDir:
	// it deletes any file row whose backing file is missing on disk, then
	// recomputes each user's used_bytes as the sum of their remaining
	// rows' sizes. This repairs the crash window between a metadata
	// commit and the filesystem rename that should have followed it. It
	// is run once at startup.
	Scrub(ctx context.Context, rootDir string) error

	// Close releases resources held by the store.
	Close() error
}
