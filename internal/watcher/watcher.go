// Package watcher re-indexes a repository when its source files change.
package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/DeusData/codebase-index/internal/discover"
	"github.com/DeusData/codebase-index/internal/lang"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 500 * time.Millisecond

type fileSnapshot struct {
	modTime time.Time
	size    int64
}

// IndexFunc is called after a burst of changes has settled.
type IndexFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	Debounce time.Duration
	// Discover selects the files whose changes count. Its Ignore patterns
	// also prune the watched directories.
	Discover *discover.Options
}

// Watcher follows fsnotify events under a root and calls IndexFunc once
// per settled burst of changes to source files.
type Watcher struct {
	root     string
	debounce time.Duration
	opts     *discover.Options
	reg      *lang.Registry
	indexFn  IndexFunc
	fsw      *fsnotify.Watcher
	snapshot map[string]fileSnapshot
}

// New creates a Watcher for root. Nothing is watched until Run.
func New(root string, opts *Options, indexFn IndexFunc) (*Watcher, error) {
	if opts == nil {
		opts = &Options{}
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	d := opts.Debounce
	if d <= 0 {
		d = DefaultDebounce
	}
	dopts := opts.Discover
	if dopts == nil {
		dopts = &discover.Options{}
	}
	reg := dopts.Registry
	if reg == nil {
		reg = lang.DefaultRegistry()
	}
	return &Watcher{root: abs, debounce: d, opts: dopts, reg: reg, indexFn: indexFn, fsw: fsw}, nil
}

// Run watches until ctx is cancelled, then releases the fsnotify watcher.
// The first snapshot is a baseline and does not trigger indexing.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addWatches(w.root); err != nil {
		return err
	}
	snap, err := w.captureSnapshot(ctx)
	if err != nil {
		return err
	}
	w.snapshot = snap
	slog.Info("watcher.baseline", "root", w.root, "files", len(snap))

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(ev) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watcher.err", "err", err)
		case <-timer.C:
			w.settle(ctx)
		}
	}
}

// handleEvent reports whether ev may change the index. New directories are
// added to the watch set.
func (w *Watcher) handleEvent(ev fsnotify.Event) bool {
	if ev.Op == fsnotify.Chmod {
		return false
	}
	rel, err := filepath.Rel(w.root, ev.Name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if discover.Ignored(rel, w.opts.Ignore) {
		return false
	}
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.addWatches(ev.Name); err != nil {
				slog.Warn("watcher.add", "path", ev.Name, "err", err)
			}
			return true
		}
	}
	if ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename) {
		// a removed directory leaves no file to classify
		return true
	}
	return w.reg.ForPath(ev.Name) != nil
}

// settle compares a fresh snapshot with the last one and indexes on any
// difference. A failed index keeps the old snapshot so the next burst
// retries.
func (w *Watcher) settle(ctx context.Context) {
	snap, err := w.captureSnapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("watcher.snapshot", "err", err)
		}
		return
	}
	if snapshotsEqual(w.snapshot, snap) {
		slog.Debug("watcher.unchanged", "files", len(snap))
		return
	}
	slog.Info("watcher.changed", "files", len(snap))
	if err := w.indexFn(ctx); err != nil {
		slog.Warn("watcher.index", "err", err)
		return
	}
	w.snapshot = snap
}

// addWatches adds dir and its subdirectories, skipping ignored ones.
func (w *Watcher) addWatches(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.root {
			rel, _ := filepath.Rel(w.root, path)
			if discover.IgnoredDir(d.Name()) || discover.Ignored(filepath.ToSlash(rel), w.opts.Ignore) {
				return filepath.SkipDir
			}
		}
		if err := w.fsw.Add(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return err
		}
		return nil
	})
}

// captureSnapshot records mtime and size of every discovered file.
func (w *Watcher) captureSnapshot(ctx context.Context) (map[string]fileSnapshot, error) {
	files, err := discover.Discover(ctx, w.root, w.opts)
	if err != nil {
		return nil, err
	}
	snap := make(map[string]fileSnapshot, len(files))
	for _, f := range files {
		info, err := os.Stat(f.Path)
		if err != nil {
			continue
		}
		snap[f.RelPath] = fileSnapshot{modTime: info.ModTime(), size: info.Size()}
	}
	return snap, nil
}

func snapshotsEqual(a, b map[string]fileSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for path, as := range a {
		bs, ok := b[path]
		if !ok || !as.modTime.Equal(bs.modTime) || as.size != bs.size {
			return false
		}
	}
	return true
}
