package lockmgr

import (
	"sync"
	"testing"
	"time"
)

func TestUserLockExclusive(t *testing.T) {
	m := New()
	m.LockUser("alice", true)

	done := make(chan struct{})
	go func() {
		m.LockUser("alice", true)
		close(done)
		m.UnlockUser("alice", true)
	}()

	select {
	case <-done:
		t.Fatal("second writer acquired lock while first still held it")
	case <-time.After(50 * time.Millisecond):
	}

	m.UnlockUser("alice", true)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second writer never acquired lock after release")
	}
}

func TestUserLockSharedReaders(t *testing.T) {
	m := New()
	m.LockUser("bob", false)
	m.LockUser("bob", false)
	m.UnlockUser("bob", false)
	m.UnlockUser("bob", false)

	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after all readers released", m.Len())
	}
}

func TestFileLockIndependentFromUserLock(t *testing.T) {
	m := New()
	m.LockUser("carol", true)
	done := make(chan struct{})
	go func() {
		m.LockFile("carol", "report.txt", true)
		close(done)
		m.UnlockFile("carol", "report.txt", true)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("file lock should not be blocked by an unrelated user lock")
	}
	m.UnlockUser("carol", true)
}

func TestEntryRemovedOnceUnreferenced(t *testing.T) {
	m := New()
	m.LockUser("dave", true)
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1 while held", m.Len())
	}
	m.UnlockUser("dave", true)
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 after release", m.Len())
	}
}

func TestConcurrentDistinctUsersDoNotBlock(t *testing.T) {
	m := New()
	var wg sync.WaitGroup
	for _, name := range []string{"u1", "u2", "u3", "u4"} {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			m.LockUser(name, true)
			time.Sleep(10 * time.Millisecond)
			m.UnlockUser(name, true)
		}(name)
	}

	doneCh := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("independent per-user locks serialized unexpectedly")
	}
}
