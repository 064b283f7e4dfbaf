package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"feditest/pkg/logging"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
)

// watchDebounce is how long the plan file has to stay unchanged before a
// new run starts.
var watchDebounce = 300 * time.Millisecond

// watchPlan calls run once and then again after every change to the file
// at path, until ctx is done. Errors from run are logged, not returned.
func watchPlan(ctx context.Context, path string, run func(context.Context) error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", target, err)
	}
	logging.Info("Watch", "Watching %s for changes", target)

	triggers := make(chan struct{}, 1)
	triggers <- struct{}{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var pending <-chan time.Time
		for {
			select {
			case <-gctx.Done():
				return nil
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				pending = time.After(watchDebounce)
			case <-pending:
				pending = nil
				select {
				case triggers <- struct{}{}:
				default:
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logging.Error("Watch", err, "File watcher error")
			}
		}
	})
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-triggers:
				logging.Info("Watch", "Running %s", target)
				if err := run(gctx); err != nil {
					logging.Warn("Watch", "Run of %s did not pass: %v", target, err)
				}
			}
		}
	})
	return g.Wait()
}
