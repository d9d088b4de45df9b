package worker

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Bilal079/dropvault/internal/apperrors"
)

// maxFilenameLen mirrors the data model's bound on a file record's name.
const maxFilenameLen = 255

// validateFilename rejects anything that cannot safely become a single path
// component under a user's directory: empty names, names over the data
// model's length bound, NUL bytes, path separators, and "." or ".." on
// their own.
func validateFilename(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty filename", apperrors.ErrProto)
	}
	if len(name) > maxFilenameLen {
		return fmt.Errorf("%w: filename exceeds %d bytes", apperrors.ErrProto, maxFilenameLen)
	}
	if strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: filename contains a NUL byte", apperrors.ErrProto)
	}
	if strings.Contains(name, "/") {
		return fmt.Errorf("%w: filename contains a path separator", apperrors.ErrProto)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: filename is a path traversal component", apperrors.ErrProto)
	}
	return nil
}

// ensureUserDir returns the directory that holds username's files, creating
// it if necessary.
func ensureUserDir(root, username string) (string, error) {
	dir := filepath.Join(root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: create user directory: %v", apperrors.ErrIO, err)
	}
	return dir, nil
}

// userFilePath validates name and returns the path it should live at under
// root, creating the user's directory if necessary. It rejects names that
// fail validateFilename and, as a second line of defense, any name whose
// cleaned, joined path would not resolve inside the user's own directory.
func userFilePath(root, username, name string) (string, error) {
	if err := validateFilename(name); err != nil {
		return "", err
	}
	dir, err := ensureUserDir(root, username)
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	cleanDir := filepath.Clean(dir)
	cleanPath := filepath.Clean(path)
	if cleanPath != cleanDir && !strings.HasPrefix(cleanPath, cleanDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: resolved path escapes user directory", apperrors.ErrProto)
	}
	return path, nil
}

// moveFile relocates src to dst. It first tries an atomic rename; if that
// fails (e.g. across filesystems), it falls back to a copy-then-remove.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("%w: open spooled upload: %v", apperrors.ErrMove, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: create destination: %v", apperrors.ErrMove, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: copy content: %v", apperrors.ErrMove, err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(dst)
		return fmt.Errorf("%w: fsync destination: %v", apperrors.ErrMove, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("%w: close destination: %v", apperrors.ErrMove, err)
	}

	os.Remove(src)
	return nil
}
