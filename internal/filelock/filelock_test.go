package filelock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestNewFileLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".sbat.lock")

	lock := NewFileLock(lockPath)
	if lock.Path() != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.Path())
	}
	if lock.Locked() {
		t.Error("new lock must not be held")
	}
}

func TestLockUnlock(t *testing.T) {
	lock := NewFileLock(filepath.Join(t.TempDir(), ".sbat.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if !lock.Locked() {
		t.Error("Locked() = false after Lock")
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
	if lock.Locked() {
		t.Error("Locked() = true after Unlock")
	}
}

func TestTryLock(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".sbat.lock")
	lock1 := NewFileLock(lockPath)
	lock2 := NewFileLock(lockPath)

	acquired, err := lock1.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Fatal("First TryLock should succeed")
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if acquired {
		t.Error("Second TryLock should fail when lock is held")
	}

	if err := lock1.Unlock(); err != nil {
		t.Fatalf("Unlock failed: %v", err)
	}

	acquired, err = lock2.TryLock()
	if err != nil {
		t.Fatalf("TryLock failed: %v", err)
	}
	if !acquired {
		t.Error("TryLock should succeed after unlock")
	}
	lock2.Unlock()
}

func TestTryLockContextCancelled(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".sbat.lock")
	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	defer holder.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	acquired, err := NewFileLock(lockPath).TryLockContext(ctx, 10*time.Millisecond)
	if acquired {
		t.Fatal("lock acquired while held by another handle")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestTryLockContextWaitsForRelease(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), ".sbat.lock")
	holder := NewFileLock(lockPath)
	if err := holder.Lock(); err != nil {
		t.Fatalf("Lock failed: %v", err)
	}
	time.AfterFunc(30*time.Millisecond, func() { holder.Unlock() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	waiter := NewFileLock(lockPath)
	acquired, err := waiter.TryLockContext(ctx, 10*time.Millisecond)
	if err != nil || !acquired {
		t.Fatalf("TryLockContext() = %v, %v; want true, nil", acquired, err)
	}
	waiter.Unlock()
}

func TestAtomicWrite(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "run.json")
	content := []byte(`{"model_name":"example3"}`)

	if err := AtomicWrite(targetPath, content); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	readContent, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	if string(readContent) != string(content) {
		t.Errorf("Expected content %q, got %q", content, readContent)
	}
}

func TestAtomicWriteOverwrite(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "run.json")
	if err := os.WriteFile(targetPath, []byte("stale"), 0600); err != nil {
		t.Fatalf("Failed to write initial file: %v", err)
	}

	if err := AtomicWrite(targetPath, []byte("fresh")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	readContent, _ := os.ReadFile(targetPath)
	if string(readContent) != "fresh" {
		t.Errorf("Expected content %q, got %q", "fresh", readContent)
	}
	info, err := os.Stat(targetPath)
	if err != nil {
		t.Fatalf("Failed to stat file: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Errorf("Expected permissions 0644, got %v", info.Mode().Perm())
	}
}

func TestAtomicWriteCreatesDirectory(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "output", "example3", "run.json")

	if err := AtomicWrite(targetPath, []byte("{}")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}
	if _, err := os.Stat(targetPath); err != nil {
		t.Errorf("file not written: %v", err)
	}
}

func TestAtomicWriteNoTempFileLeftBehind(t *testing.T) {
	tmpDir := t.TempDir()
	targetPath := filepath.Join(tmpDir, "run.json")

	if err := AtomicWrite(targetPath, []byte("{}")); err != nil {
		t.Fatalf("AtomicWrite failed: %v", err)
	}

	entries, err := os.ReadDir(tmpDir)
	if err != nil {
		t.Fatalf("Failed to read directory: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "run.json" {
		var files []string
		for _, entry := range entries {
			files = append(files, entry.Name())
		}
		t.Errorf("Expected only run.json, found %v", files)
	}
}

func TestConcurrentAtomicWrites(t *testing.T) {
	targetPath := filepath.Join(t.TempDir(), "run.json")

	const goroutines = 10
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			if err := AtomicWrite(targetPath, []byte(fmt.Sprintf("writer-%02d", id))); err != nil {
				t.Errorf("AtomicWrite failed for goroutine %d: %v", id, err)
			}
		}(i)
	}
	wg.Wait()

	content, err := os.ReadFile(targetPath)
	if err != nil {
		t.Fatalf("Failed to read file: %v", err)
	}
	// Every write has the same length; a torn write would not.
	if len(content) != len("writer-00") {
		t.Errorf("unexpected content %q", content)
	}
}
