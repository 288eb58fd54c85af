// Package watch re-runs work when ownership scripts change on disk.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses editor save bursts into one batch.
const DefaultDebounce = 150 * time.Millisecond

// Watcher reports batches of changed script paths.
type Watcher struct {
	watcher  *fsnotify.Watcher
	ext      string
	debounce time.Duration
	log      *zap.Logger
}

// New watches the given files and directories. Files are watched through
// their parent directory so that editors that replace files on save still
// trigger events. Only names ending in ext are reported.
func New(paths []string, ext string, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
		if !info.IsDir() {
			dirs[filepath.Dir(p)] = true
			continue
		}
		err = filepath.WalkDir(p, func(path string, d os.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				dirs[path] = true
			}
			return err
		})
		if err != nil {
			_ = fw.Close()
			return nil, err
		}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			_ = fw.Close()
			return nil, err
		}
		log.Debug("watching", zap.String("dir", dir))
	}
	return &Watcher{watcher: fw, ext: ext, debounce: debounce, log: log}, nil
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// paths changed since the previous call. onChange runs on the caller's
// goroutine, so events arriving meanwhile are batched into the next call.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.watcher.Close()

	pending := make(map[string]bool)
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Ext(ev.Name) != w.ext {
				continue
			}
			if !ev.Op.Has(fsnotify.Write) && !ev.Op.Has(fsnotify.Create) && !ev.Op.Has(fsnotify.Rename) && !ev.Op.Has(fsnotify.Remove) {
				continue
			}
			w.log.Debug("script changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
			pending[ev.Name] = true
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := make([]string, 0, len(pending))
			for p := range pending {
				batch = append(batch, p)
			}
			sort.Strings(batch)
			clear(pending)
			onChange(batch)
		}
	}
}
