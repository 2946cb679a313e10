package config_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/clayvoice/clayvoice/internal/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestWatcher_InitialLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "settings:\n  system_prompt: hello\n")

	w, err := config.NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	if got := w.Settings().SystemPrompt; got != "hello" {
		t.Errorf("SystemPrompt = %q, want hello", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "settings:\n  system_prompt: before\n")

	var changes atomic.Int32
	w, err := config.NewWatcher(path, func(old, new *config.Config) {
		changes.Add(1)
	}, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	// The poller compares mtimes; make sure the rewrite gets a new one.
	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, "settings:\n  system_prompt: after\n")
	bumpMtime(t, path)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if w.Settings().SystemPrompt == "after" {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if got := w.Settings().SystemPrompt; got != "after" {
		t.Fatalf("SystemPrompt = %q, want after", got)
	}
	if got := changes.Load(); got != 1 {
		t.Errorf("onChange fired %d times, want 1", got)
	}
}

func TestWatcher_InvalidEditKeepsOldConfig(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeConfig(t, path, "settings:\n  system_prompt: keepme\n")

	w, err := config.NewWatcher(path, nil, config.WithInterval(10*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Stop()

	time.Sleep(20 * time.Millisecond)
	writeConfig(t, path, "settings:\n  theme: neon\n")
	bumpMtime(t, path)

	// Give the poller a few cycles to (not) pick up the bad edit.
	time.Sleep(100 * time.Millisecond)
	if got := w.Settings().SystemPrompt; got != "keepme" {
		t.Errorf("SystemPrompt = %q, want keepme (invalid edit must not replace the config)", got)
	}
}

func bumpMtime(t *testing.T, path string) {
	t.Helper()
	future := time.Now().Add(time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}
