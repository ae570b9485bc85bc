package templates

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/scribe/internal/storage"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func hasTemplate(reg *Registry, name string) bool {
	for _, it := range reg.List() {
		if it.Name == name {
			return true
		}
	}
	return false
}

func TestWatchReloadsOnChanges(t *testing.T) {
	vault := t.TempDir()
	fs, err := storage.NewFS(vault)
	if err != nil {
		t.Fatal(err)
	}
	reg := NewRegistry(fs, "Templates")
	root := filepath.Join(vault, "Templates")
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var events []string
	go Watch(ctx, reg, root, logger, func(kind, name string) {
		mu.Lock()
		events = append(events, kind+":"+name)
		mu.Unlock()
	})
	seen := func(want string) func() bool {
		return func() bool {
			mu.Lock()
			defer mu.Unlock()
			for _, e := range events {
				if e == want {
					return true
				}
			}
			return false
		}
	}

	eventually(t, 2*time.Second, 20*time.Millisecond, func() bool {
		_, err := os.Stat(root)
		return err == nil
	}, "templates folder not created")
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "todo.md"), []byte("- {{VALUE}}"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return hasTemplate(reg, "todo")
	}, "new template not picked up")
	eventually(t, 2*time.Second, 50*time.Millisecond, seen("created:todo"), "expected created:todo callback")

	sub := filepath.Join(root, "work")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "standup.md"), []byte("## {{DATE}}"), 0o644)
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return hasTemplate(reg, "work/standup")
	}, "template in new subfolder not picked up")

	_ = os.Remove(filepath.Join(root, "todo.md"))
	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		return !hasTemplate(reg, "todo")
	}, "deleted template still listed")
	eventually(t, 2*time.Second, 50*time.Millisecond, seen("deleted:todo"), "expected deleted:todo callback")
}
