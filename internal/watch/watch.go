// Package watch notifies when the stores behind a profile change on disk.
// Notifications are debounced: a burst of writes from the editor produces a
// single callback.
package watch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/wsedit/internal/sources"
	"github.com/mesh-intelligence/wsedit/pkg/types"
)

// DefaultDebounce is the quiet period after the last event before the
// callback runs.
const DefaultDebounce = 300 * time.Millisecond

// Watcher observes a set of directories.
type Watcher struct {
	fs       *fsnotify.Watcher
	dirs     []string
	debounce time.Duration
	logger   *zap.Logger
}

// Dirs returns the directories whose contents reflect the profile's
// stores. SQLite files are watched through their parent directory since
// journals and atomic replacements create sibling files.
func Dirs(profile types.Profile, zedDBDir string) []string {
	var dirs []string
	if profile.Pseudo {
		for _, ch := range sources.ZedChannels {
			dirs = append(dirs, filepath.Join(zedDBDir, ch))
		}
		return dirs
	}
	dirs = append(dirs, sources.StorageDir(profile.Root))
	for _, p := range sources.StateDBPaths(profile.Root) {
		dirs = append(dirs, filepath.Dir(p))
	}
	return dirs
}

// New watches every existing directory in dirs. Missing directories are
// skipped; it is an error if none exist.
func New(dirs []string, debounce time.Duration, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}

	w := &Watcher{fs: fw, debounce: debounce, logger: logger.Named("watch")}
	seen := make(map[string]bool)
	for _, d := range dirs {
		if seen[d] {
			continue
		}
		seen[d] = true
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			continue
		}
		if err := fw.Add(d); err != nil {
			w.logger.Warn("cannot watch directory", zap.String("dir", d), zap.Error(err))
			continue
		}
		w.dirs = append(w.dirs, d)
	}
	if len(w.dirs) == 0 {
		fw.Close()
		return nil, fmt.Errorf("%w: none of the store directories exist", types.ErrNotFound)
	}
	return w, nil
}

// Watched returns the directories actually being watched.
func (w *Watcher) Watched() []string {
	return w.dirs
}

// Run calls fn after each debounced burst of changes until ctx is done.
// It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context, fn func()) error {
	defer w.fs.Close()

	// go1.23 timers: Stop and Reset need no draining.
	timer := time.NewTimer(w.debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			w.logger.Debug("store changed", zap.String("name", ev.Name), zap.Stringer("op", ev.Op))
			timer.Reset(w.debounce)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", zap.Error(err))
		case <-timer.C:
			fn()
		}
	}
}
