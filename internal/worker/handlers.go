package worker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/Bilal079/dropvault/internal/apperrors"
	"github.com/Bilal079/dropvault/internal/logger"
	"github.com/Bilal079/dropvault/internal/metadata"
)

// handleUpload records a spooled upload in the metadata store and then
// moves it into the user's directory, enforcing the user's quota. The user
// lock is held for writing for the duration: quota bookkeeping and the file
// rename must be seen as a single step by any concurrent LIST or second
// UPLOAD. The metadata write happens first, before the file occupies its
// final path, so that a crash between the two leaves a dangling metadata
// row (cleaned up by the startup scrub) rather than an unaccounted-for
// file on disk with no record of it.
func (p *Pool) handleUpload(ctx context.Context, t *Task) error {
	p.locks.LockUser(t.Username, true)
	defer p.locks.UnlockUser(t.Username, true)
	p.locks.LockFile(t.Username, t.Filename, true)
	defer p.locks.UnlockFile(t.Username, t.Filename, true)

	dst, err := userFilePath(p.rootDir, t.Username, t.Filename)
	if err != nil {
		os.Remove(t.UploadTmpPath)
		return err
	}

	user, err := p.store.GetUser(ctx, t.Username)
	if err != nil {
		os.Remove(t.UploadTmpPath)
		return fmt.Errorf("%w: %v", apperrors.ErrAuth, err)
	}

	var existingSize int64
	hadExisting := false
	if f, err := p.store.GetFile(ctx, user.ID, t.Filename); err == nil {
		existingSize = f.Size
		hadExisting = true
	} else if err != metadata.ErrFileNotFound {
		os.Remove(t.UploadTmpPath)
		return fmt.Errorf("%w: %v", apperrors.ErrDB, err)
	}

	if _, err := p.store.UpsertFile(ctx, user.ID, t.Filename, t.Size, true); err != nil {
		os.Remove(t.UploadTmpPath)
		if errors.Is(err, metadata.ErrQuotaExceeded) {
			return fmt.Errorf("%w: user %s would exceed %d byte quota", apperrors.ErrQuota, t.Username, user.QuotaBytes)
		}
		return fmt.Errorf("%w: %v", apperrors.ErrDB, err)
	}

	if err := moveFile(t.UploadTmpPath, dst); err != nil {
		// The metadata commit already landed but the content never made
		// it to its final path; undo the commit so used_bytes and LIST
		// don't advertise a file that was never actually written there.
		if hadExisting {
			if _, rbErr := p.store.UpsertFile(ctx, user.ID, t.Filename, existingSize, false); rbErr != nil {
				logger.Warn("failed to restore previous file size after rename failure",
					"username", t.Username, "filename", t.Filename, "error", rbErr)
			}
		} else if _, rbErr := p.store.DeleteFile(ctx, user.ID, t.Filename); rbErr != nil {
			logger.Warn("failed to remove newly inserted row after rename failure",
				"username", t.Username, "filename", t.Filename, "error", rbErr)
		}
		return err
	}

	t.Result.Size = t.Size
	return nil
}

// handleDownload resolves a file's path for the connection handler to stream
// back to the client. The file is opened under a shared file lock only (no
// user lock), so concurrent downloads of distinct files (or the same file)
// proceed in parallel, blocked only by an in-flight UPLOAD or DELETE of that
// same file.
func (p *Pool) handleDownload(ctx context.Context, t *Task) error {
	p.locks.LockFile(t.Username, t.Filename, false)
	defer p.locks.UnlockFile(t.Username, t.Filename, false)

	path, err := userFilePath(p.rootDir, t.Username, t.Filename)
	if err != nil {
		return err
	}

	user, err := p.store.GetUser(ctx, t.Username)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrAuth, err)
	}

	rec, err := p.store.GetFile(ctx, user.ID, t.Filename)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNoFile, err)
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: file recorded but missing on disk: %v", apperrors.ErrNoFile, err)
	}

	t.Result.RespPath = path
	t.Result.Size = rec.Size
	return nil
}

// handleDelete removes a file's metadata record and then its on-disk
// content. The metadata commit runs first: if it fails, nothing on disk has
// changed yet, whereas removing the file first and then failing to update
// metadata would leave used_bytes and LIST permanently out of sync with
// reality.
func (p *Pool) handleDelete(ctx context.Context, t *Task) error {
	p.locks.LockUser(t.Username, true)
	defer p.locks.UnlockUser(t.Username, true)
	p.locks.LockFile(t.Username, t.Filename, true)
	defer p.locks.UnlockFile(t.Username, t.Filename, true)

	path, err := userFilePath(p.rootDir, t.Username, t.Filename)
	if err != nil {
		return err
	}

	user, err := p.store.GetUser(ctx, t.Username)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrAuth, err)
	}

	if _, err := p.store.DeleteFile(ctx, user.ID, t.Filename); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrNoFile, err)
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		logger.Warn("failed to remove file content after metadata delete",
			"username", t.Username, "filename", t.Filename, "error", err)
	}
	return nil
}

// handleList returns the sorted names of every file a user owns. The user
// lock is held for reading: it may run concurrently with other LISTs and
// DOWNLOADs, but not with an UPLOAD or DELETE that is still adjusting the
// user's file set.
func (p *Pool) handleList(ctx context.Context, t *Task) error {
	p.locks.LockUser(t.Username, false)
	defer p.locks.UnlockUser(t.Username, false)

	user, err := p.store.GetUser(ctx, t.Username)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrAuth, err)
	}

	names, err := p.store.ListFiles(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrDB, err)
	}
	sort.Strings(names)
	t.Result.Names = names
	return nil
}
