package templates

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Change kinds passed to a ChangeCallback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// ChangeCallback is called after a reload with the template that changed.
type ChangeCallback func(kind, name string)

// DebounceInterval groups bursts of file events into one reload.
var DebounceInterval = 200 * time.Millisecond

// Watch reloads reg whenever a template under root changes, until ctx is
// cancelled. root is the absolute path of the templates folder; it is
// created when missing. Directories created later are watched too.
func Watch(ctx context.Context, reg *Registry, root string, logger *slog.Logger, cb ChangeCallback) error {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}
	logger.Info("templates: watching", slog.String("root", root))

	pending := make(map[string]string)
	var timer *time.Timer
	var fire <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(DebounceInterval)
			fire = timer.C
			return
		}
		timer.Reset(DebounceInterval)
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("templates: watcher stopped")
			return nil

		case <-fire:
			if err := reg.Reload(); err != nil {
				logger.Warn("templates: reload failed", slog.String("error", err.Error()))
				continue
			}
			logger.Debug("templates: reloaded", slog.Int("changed", len(pending)))
			if cb != nil {
				for name, kind := range pending {
					cb(kind, name)
				}
			}
			pending = make(map[string]string)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("templates: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			rel, relErr := filepath.Rel(root, ev.Name)
			if relErr != nil {
				continue
			}
			name := strings.TrimSuffix(filepath.ToSlash(rel), ".md")
			switch {
			case ev.Op&fsnotify.Create != 0:
				pending[name] = Created
			case ev.Op&fsnotify.Write != 0:
				if pending[name] != Created {
					pending[name] = Updated
				}
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				pending[name] = Deleted
			default:
				continue
			}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("templates: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(p)
		}
		return nil
	})
}
