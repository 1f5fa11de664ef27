package filelock

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestLockPath(t *testing.T) {
	got := LockPath(filepath.Join("docs", "guide.md"))
	want := filepath.Join("docs", ".guide.md.lock")
	if got != want {
		t.Errorf("LockPath() = %q, want %q", got, want)
	}
}

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), "test.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestTryLockHeld(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "test.lock")
	first := NewFileLock(lockPath)
	if err := first.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer first.Unlock()

	acquired, err := NewFileLock(lockPath).TryLock()
	if err != nil {
		t.Fatalf("TryLock() error = %v", err)
	}
	if acquired {
		t.Error("TryLock() acquired a lock that is already held")
	}
}

func TestAtomicWriteCreatesAndReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "doc.txt")

	if err := AtomicWrite(path, []byte("one\n")); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}
	if err := AtomicWrite(path, []byte("two\n")); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "two\n" {
		t.Errorf("content = %q, want %q", data, "two\n")
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestAtomicWriteKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("x"), 0600); err != nil {
		t.Fatal(err)
	}

	if err := AtomicWrite(path, []byte("y")); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	original := []byte(">>> 2+2\n5\n")
	if err := os.WriteFile(path, original, 0644); err != nil {
		t.Fatal(err)
	}

	if err := Rewrite(path, original, []byte(">>> 2+2\n4\n")); err != nil {
		t.Fatalf("Rewrite() error = %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != ">>> 2+2\n4\n" {
		t.Errorf("content = %q", data)
	}
}

func TestRewriteDetectsConcurrentEdit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	if err := os.WriteFile(path, []byte("edited\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := Rewrite(path, []byte("original\n"), []byte("regenerated\n"))
	if !errors.Is(err, ErrModified) {
		t.Fatalf("Rewrite() error = %v, want ErrModified", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "edited\n" {
		t.Errorf("content = %q, want the concurrent edit kept", data)
	}
}

func TestRewriteMissingFile(t *testing.T) {
	err := Rewrite(filepath.Join(t.TempDir(), "missing.txt"), nil, []byte("x"))
	if err == nil {
		t.Fatal("Rewrite() on a missing file should fail")
	}
}

func TestRewriteConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.txt")
	original := []byte("v0\n")
	if err := os.WriteFile(path, original, 0644); err != nil {
		t.Fatal(err)
	}

	const writers = 5
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- Rewrite(path, original, []byte("v1\n"))
		}()
	}
	wg.Wait()
	close(errs)

	// The first writer wins; the rest see either an identical file or a
	// modified one.
	succeeded := 0
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, ErrModified):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if succeeded == 0 {
		t.Error("no writer succeeded")
	}

	data, _ := os.ReadFile(path)
	if string(data) != "v1\n" {
		t.Errorf("content = %q, want v1", data)
	}
}
