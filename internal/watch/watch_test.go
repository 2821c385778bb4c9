package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpString(t *testing.T) {
	tests := []struct {
		op       Op
		expected string
	}{
		{Created, "created"},
		{Written, "written"},
		{Removed, "removed"},
		{Op(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.op.String(); got != tt.expected {
				t.Errorf("Op.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newWatcher(t *testing.T, ctx context.Context, files ...string) *Watcher {
	t.Helper()
	w, err := New(ctx, files...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	w.SetDebounceDelay(30 * time.Millisecond)
	t.Cleanup(func() { w.Close() })
	return w
}

func waitEvent(t *testing.T, w *Watcher) Event {
	t.Helper()
	select {
	case event, ok := <-w.Events():
		if !ok {
			t.Fatal("events channel closed")
		}
		return event
	case err := <-w.Errors():
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for event")
	}
	return Event{}
}

func TestNewRequiresFiles(t *testing.T) {
	if _, err := New(context.Background()); err == nil {
		t.Error("expected error for empty file list")
	}
}

func TestNewMissingDirectory(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope", "model.yml")
	if _, err := New(context.Background(), missing); err == nil {
		t.Error("expected error when the parent directory does not exist")
	}
}

func TestWatcherWritten(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")
	writeFile(t, cfg, "info: {}\n")

	w := newWatcher(t, context.Background(), cfg)
	writeFile(t, cfg, "info:\n  model_name: m\n")

	event := waitEvent(t, w)
	if event.Path != cfg {
		t.Errorf("Event.Path = %v, want %v", event.Path, cfg)
	}
	if event.Op != Written && event.Op != Created {
		t.Errorf("Event.Op = %v, want written", event.Op)
	}
}

func TestWatcherCreatedAndRemoved(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")

	w := newWatcher(t, context.Background(), cfg)

	writeFile(t, cfg, "x")
	if event := waitEvent(t, w); event.Path != cfg {
		t.Errorf("Event.Path = %v, want %v", event.Path, cfg)
	}

	if err := os.Remove(cfg); err != nil {
		t.Fatal(err)
	}
	event := waitEvent(t, w)
	if event.Op != Removed {
		t.Errorf("Event.Op = %v, want %v", event.Op, Removed)
	}
}

func TestWatcherRenameOverFile(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")
	writeFile(t, cfg, "old")

	w := newWatcher(t, context.Background(), cfg)

	tmp := filepath.Join(dir, ".model.yml.swp")
	writeFile(t, tmp, "new")
	if err := os.Rename(tmp, cfg); err != nil {
		t.Fatal(err)
	}

	event := waitEvent(t, w)
	if event.Path != cfg {
		t.Errorf("Event.Path = %v, want %v", event.Path, cfg)
	}
	if event.Op != Created {
		t.Errorf("Event.Op = %v, want %v", event.Op, Created)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")
	writeFile(t, cfg, "x")

	w := newWatcher(t, context.Background(), cfg)
	writeFile(t, filepath.Join(dir, "other.yml"), "y")

	select {
	case event := <-w.Events():
		t.Errorf("unexpected event for %s", event.Path)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcherDebounce(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")
	writeFile(t, cfg, "initial")

	w := newWatcher(t, context.Background(), cfg)
	w.SetDebounceDelay(200 * time.Millisecond)

	for i := 0; i < 5; i++ {
		writeFile(t, cfg, "write"+string(rune('0'+i)))
		time.Sleep(20 * time.Millisecond)
	}

	count := 0
	timeout := time.After(1 * time.Second)
loop:
	for {
		select {
		case <-w.Events():
			count++
		case <-timeout:
			break loop
		}
	}
	if count != 1 {
		t.Errorf("expected 1 debounced event, got %d", count)
	}
}

func TestWatcherSharedDirectory(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yml")
	b := filepath.Join(dir, "b.toml")
	writeFile(t, a, "a")
	writeFile(t, b, "b")

	w := newWatcher(t, context.Background(), a, b)
	writeFile(t, b, "changed")

	if event := waitEvent(t, w); event.Path != b {
		t.Errorf("Event.Path = %v, want %v", event.Path, b)
	}
}

func TestWatcherClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "model.yml")

	ctx, cancel := context.WithCancel(context.Background())
	w := newWatcher(t, ctx, cfg)
	cancel()

	select {
	case _, ok := <-w.Events():
		if ok {
			t.Error("expected events channel to be closed")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}

	if err := w.Close(); err != nil {
		t.Errorf("Close after cancel: %v", err)
	}
}

func TestWatcherCloseTwice(t *testing.T) {
	dir := t.TempDir()
	w, err := New(context.Background(), filepath.Join(dir, "model.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
