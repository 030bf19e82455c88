package transfer

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcherReportsDroppedBackups(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer func() { _ = w.Stop() }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write txt: %v", err)
	}
	target := filepath.Join(dir, "backup.json")
	for i := 0; i < 3; i++ {
		if err := os.WriteFile(target, []byte(`{"dailyFocus":"x"}`), 0o644); err != nil {
			t.Fatalf("write json: %v", err)
		}
	}

	select {
	case got := <-w.Files():
		if got != target {
			t.Fatalf("expected %q, got %q", target, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for backup file event")
	}

	select {
	case got := <-w.Files():
		t.Fatalf("expected writes to be coalesced, got extra %q", got)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestWatcherRequiresDir(t *testing.T) {
	if _, err := NewWatcher("  ", 0); err == nil {
		t.Fatal("expected error for empty dir")
	}
	w, err := NewWatcher(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("new watcher: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := w.Start(); err == nil {
		t.Fatal("expected second start to fail")
	}
	if err := w.Stop(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
