package badgerstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Bilal079/dropvault/internal/metadata"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "meta"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// writeFile creates a backing file of size bytes at
// root/username/name, as the filesystem would hold it after a
// successful UPLOAD.
func writeFile(t *testing.T, root, username, name string, size int) {
	t.Helper()
	dir := filepath.Join(root, username)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func TestSignupAndGetUser(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.Signup(ctx, "alice", "hash", 1000)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if id == 0 {
		t.Fatal("Signup returned zero user id")
	}

	u, err := s.GetUser(ctx, "alice")
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.ID != id || u.Username != "alice" || u.QuotaBytes != 1000 || u.UsedBytes != 0 {
		t.Fatalf("GetUser returned %+v", u)
	}
}

func TestSignupDuplicateRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.Signup(ctx, "bob", "h", 100); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if _, err := s.Signup(ctx, "bob", "h2", 200); err != metadata.ErrUserExists {
		t.Fatalf("second Signup error = %v, want ErrUserExists", err)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetUser(context.Background(), "ghost"); err != metadata.ErrUserNotFound {
		t.Fatalf("GetUser error = %v, want ErrUserNotFound", err)
	}
}

func TestUpsertFileTracksUsedBytes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Signup(ctx, "carol", "h", 10000)

	delta, err := s.UpsertFile(ctx, id, "a.txt", 100, true)
	if err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if delta != 100 {
		t.Fatalf("delta = %d, want 100", delta)
	}

	delta, err = s.UpsertFile(ctx, id, "a.txt", 40, true)
	if err != nil {
		t.Fatalf("UpsertFile overwrite: %v", err)
	}
	if delta != -60 {
		t.Fatalf("delta = %d, want -60", delta)
	}

	u, _ := s.GetUser(ctx, "carol")
	if u.UsedBytes != 40 {
		t.Fatalf("UsedBytes = %d, want 40", u.UsedBytes)
	}
}

func TestUpsertFileRejectsQuotaOverflowAtomically(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Signup(ctx, "ivan", "h", 100)

	if _, err := s.UpsertFile(ctx, id, "a.txt", 80, true); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}

	if _, err := s.UpsertFile(ctx, id, "b.txt", 30, true); err != metadata.ErrQuotaExceeded {
		t.Fatalf("UpsertFile over quota error = %v, want ErrQuotaExceeded", err)
	}

	u, _ := s.GetUser(ctx, "ivan")
	if u.UsedBytes != 80 {
		t.Fatalf("UsedBytes = %d, want 80 (rejected upsert must not apply)", u.UsedBytes)
	}
	if _, err := s.GetFile(ctx, id, "b.txt"); err != metadata.ErrFileNotFound {
		t.Fatalf("GetFile(b.txt) = %v, want ErrFileNotFound (rejected upsert must not create the row)", err)
	}
}

func TestDeleteFile(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Signup(ctx, "dave", "h", 10000)
	s.UpsertFile(ctx, id, "b.txt", 500, true)

	size, err := s.DeleteFile(ctx, id, "b.txt")
	if err != nil {
		t.Fatalf("DeleteFile: %v", err)
	}
	if size != 500 {
		t.Fatalf("size = %d, want 500", size)
	}

	u, _ := s.GetUser(ctx, "dave")
	if u.UsedBytes != 0 {
		t.Fatalf("UsedBytes = %d, want 0", u.UsedBytes)
	}

	if _, err := s.DeleteFile(ctx, id, "b.txt"); err != metadata.ErrFileNotFound {
		t.Fatalf("second DeleteFile error = %v, want ErrFileNotFound", err)
	}
}

func TestListFilesSorted(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Signup(ctx, "erin", "h", 10000)

	for _, name := range []string{"zeta.txt", "alpha.txt", "mu.txt"} {
		if _, err := s.UpsertFile(ctx, id, name, 10, true); err != nil {
			t.Fatalf("UpsertFile(%s): %v", name, err)
		}
	}

	names, err := s.ListFiles(ctx, id)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	want := []string{"alpha.txt", "mu.txt", "zeta.txt"}
	if len(names) != len(want) {
		t.Fatalf("ListFiles = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("ListFiles = %v, want %v", names, want)
		}
	}
}

func TestAdjustUsedRejectsQuotaOverflow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id, _ := s.Signup(ctx, "frank", "h", 100)

	if err := s.AdjustUsed(ctx, id, 50, true); err != nil {
		t.Fatalf("AdjustUsed: %v", err)
	}
	if err := s.AdjustUsed(ctx, id, 60, true); err != metadata.ErrQuotaExceeded {
		t.Fatalf("AdjustUsed over quota error = %v, want ErrQuotaExceeded", err)
	}

	u, _ := s.GetUser(ctx, "frank")
	if u.UsedBytes != 50 {
		t.Fatalf("UsedBytes = %d, want 50 (rejected adjustment must not apply)", u.UsedBytes)
	}
}

func TestScrubReconcilesUsedBytes(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	root := t.TempDir()
	id, _ := s.Signup(ctx, "grace", "h", 10000)
	s.UpsertFile(ctx, id, "x.txt", 300, true)
	writeFile(t, root, "grace", "x.txt", 300)

	// Simulate drift: an AdjustUsed without a matching file write.
	if err := s.AdjustUsed(ctx, id, 999, false); err != nil {
		t.Fatalf("AdjustUsed: %v", err)
	}

	if err := s.Scrub(ctx, root); err != nil {
		t.Fatalf("Scrub: %v", err)
	}

	u, _ := s.GetUser(ctx, "grace")
	if u.UsedBytes != 300 {
		t.Fatalf("UsedBytes after Scrub = %d, want 300", u.UsedBytes)
	}
	names, _ := s.ListFiles(ctx, id)
	if len(names) != 1 || names[0] != "x.txt" {
		t.Fatalf("ListFiles after Scrub = %v, want [x.txt]", names)
	}
}

func TestScrubDeletesRowsWithMissingFiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	root := t.TempDir()
	id, _ := s.Signup(ctx, "henry", "h", 10000)

	// foo.txt simulates a metadata commit whose rename to the final path
	// never happened: the row exists but nothing backs it on disk.
	if _, err := s.UpsertFile(ctx, id, "foo.txt", 400, true); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	if _, err := s.UpsertFile(ctx, id, "bar.txt", 100, true); err != nil {
		t.Fatalf("UpsertFile: %v", err)
	}
	writeFile(t, root, "henry", "bar.txt", 100)

	if err := s.Scrub(ctx, root); err != nil {
		t.Fatalf("Scrub: %v", err)
	}

	names, err := s.ListFiles(ctx, id)
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(names) != 1 || names[0] != "bar.txt" {
		t.Fatalf("ListFiles after Scrub = %v, want [bar.txt] (foo.txt should be dropped)", names)
	}

	u, _ := s.GetUser(ctx, "henry")
	if u.UsedBytes != 100 {
		t.Fatalf("UsedBytes after Scrub = %d, want 100", u.UsedBytes)
	}
}
