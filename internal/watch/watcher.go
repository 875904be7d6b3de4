// Package watch pushes a project whenever its files change.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/papapumpkin/gasync/internal/gas"
	"github.com/papapumpkin/gasync/internal/logging"
)

// DefaultDebounce is the quiet period that closes a burst of events.
const DefaultDebounce = 500 * time.Millisecond

// skippedDirs are neither watched nor reported.
var skippedDirs = map[string]bool{
	"node_modules": true,
	".git":         true,
}

// Watcher reports settled bursts of changes under a project directory.
// Directories created while watching are picked up automatically.
type Watcher struct {
	Dir string

	debounce time.Duration
	fw       *fsnotify.Watcher
	logger   *zap.Logger
}

// NewWatcher watches dir and every subdirectory except node_modules and
// .git. A debounce of zero uses DefaultDebounce.
func NewWatcher(dir string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Nop()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	w := &Watcher{Dir: dir, debounce: debounce, fw: fw, logger: logger}
	if err := w.addTree(dir); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// Close releases the underlying watches.
func (w *Watcher) Close() error {
	return w.fw.Close()
}

// Run blocks until ctx is done, calling fn with the sorted project-relative
// paths of each settled burst. fn runs on the watch goroutine; events that
// arrive meanwhile are delivered in the next burst.
func (w *Watcher) Run(ctx context.Context, fn func(ctx context.Context, changed []string)) error {
	pending := make(map[string]struct{})
	var last time.Time

	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.relevant(event); ok {
				pending[rel] = struct{}{}
				last = time.Now()
			}

		case <-ticker.C:
			if len(pending) == 0 || time.Since(last) < w.debounce {
				continue
			}
			changed := make([]string, 0, len(pending))
			for rel := range pending {
				changed = append(changed, rel)
			}
			sort.Strings(changed)
			clear(pending)
			fn(ctx, changed)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watch error", zap.Error(err))
		}
	}
}

// relevant filters an event down to a project file path. New directories
// are added to the watch set as a side effect.
func (w *Watcher) relevant(event fsnotify.Event) (string, bool) {
	rel, err := filepath.Rel(w.Dir, event.Name)
	if err != nil || !filepath.IsLocal(rel) || inSkippedDir(rel) {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("Cannot watch new directory", zap.String("dir", rel), zap.Error(err))
			}
			return "", false
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", false
	}
	if !gas.IsValidProjectFile(filepath.Base(rel)) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skippedDirs[d.Name()] {
			return filepath.SkipDir
		}
		if err := w.fw.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func inSkippedDir(rel string) bool {
	for dir := filepath.Dir(rel); dir != "." && dir != string(filepath.Separator); dir = filepath.Dir(dir) {
		if skippedDirs[filepath.Base(dir)] {
			return true
		}
	}
	return skippedDirs[rel]
}
