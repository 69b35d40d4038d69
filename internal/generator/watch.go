package generator

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DebounceInterval groups bursts of file events into one regeneration.
var DebounceInterval = 100 * time.Millisecond

// Watch runs once, then again whenever the catalog or a Starlark file next
// to it changes, until ctx is done. onRun sees the outcome of every run; a
// failed run does not stop watching.
func (g *Generator) Watch(ctx context.Context, onRun func(*Result, error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create file watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(g.cfg.CatalogPath)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}

	var mu sync.Mutex
	run := func() {
		mu.Lock()
		defer mu.Unlock()
		res, err := g.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if onRun != nil {
			onRun(res, err)
		}
	}

	run()
	g.logger.Info("watching for catalog changes", zap.String("dir", dir))

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	catalogPath := filepath.Clean(g.cfg.CatalogPath)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if !g.relevant(catalogPath, filepath.Clean(event.Name)) {
				continue
			}
			g.logger.Debug("catalog changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(DebounceInterval, run)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			g.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (g *Generator) relevant(catalogPath, name string) bool {
	if name == catalogPath {
		return true
	}
	switch filepath.Ext(name) {
	case ".star", ".bzl", ".sky":
		return filepath.Ext(catalogPath) == filepath.Ext(name)
	}
	return false
}
