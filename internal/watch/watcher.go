// Package watch follows Markdown changes in the vault and reports them to
// the assignment layer.
package watch

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

// Event kinds passed to Handlers.Changed.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// DefaultSettle is the quiet period after the last change before
// Handlers.Settled runs.
const DefaultSettle = 200 * time.Millisecond

// Handlers receive watcher events. Either may be nil.
type Handlers struct {
	// Changed is called for every Markdown create, write, remove or rename,
	// with the slash-separated path relative to the vault root.
	Changed func(kind, path string)
	// Settled is called once a burst of changes has gone quiet.
	Settled func(ctx context.Context)
}

// Watch starts an fsnotify watcher on the vault root and processes file
// change events until ctx is cancelled.
//
// New directories created at runtime are added to the watch list and the
// notes already inside them are reported as created. Hidden directories are
// ignored.
func Watch(ctx context.Context, vaultRoot string, logger *slog.Logger, h Handlers, settle time.Duration) error {
	if settle <= 0 {
		settle = DefaultSettle
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, vaultRoot); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var settleTimer *time.Timer
	var settleCh <-chan time.Time

	scheduleSettle := func() {
		if settleTimer == nil {
			settleTimer = time.NewTimer(settle)
			settleCh = settleTimer.C
		} else {
			settleTimer.Reset(settle)
		}
	}

	emit := func(kind, rel string) {
		logger.Debug("watcher: change", slog.String("path", rel), slog.String("op", kind))
		if h.Changed != nil {
			h.Changed(kind, rel)
		}
		scheduleSettle()
	}

	for {
		select {
		case <-ctx.Done():
			if settleTimer != nil {
				settleTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-settleCh:
			if h.Settled != nil {
				h.Settled(ctx)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			absPath := ev.Name

			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(absPath); statErr == nil && info.IsDir() {
					if hidden(filepath.Base(absPath)) {
						continue
					}
					if addErr := addDirsRecursive(w, absPath); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", absPath),
							slog.String("error", addErr.Error()))
					} else {
						logger.Debug("watcher: watching new dir", slog.String("path", absPath))
					}
					for _, rel := range notesIn(vaultRoot, absPath) {
						emit(Created, rel)
					}
					continue
				}
			}

			if !strings.HasSuffix(strings.ToLower(absPath), ".md") {
				continue
			}
			rel, relErr := filepath.Rel(vaultRoot, absPath)
			if relErr != nil {
				continue
			}
			rel = filepath.ToSlash(rel)

			switch {
			case ev.Op&fsnotify.Create != 0:
				emit(Created, rel)
			case ev.Op&fsnotify.Write != 0:
				emit(Updated, rel)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				// A rename only reports the old path; the new one arrives
				// as a separate Create when it stays inside the vault.
				emit(Deleted, rel)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// notesIn lists the Markdown files below dir as vault-relative paths.
func notesIn(vaultRoot, dir string) []string {
	var out []string
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != dir && hidden(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(p), ".md") {
			return nil
		}
		if rel, relErr := filepath.Rel(vaultRoot, p); relErr == nil {
			out = append(out, filepath.ToSlash(rel))
		}
		return nil
	})
	return out
}

// addDirsRecursive adds root and all its non-hidden subdirectories to the
// watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != root && hidden(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(p)
	})
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
