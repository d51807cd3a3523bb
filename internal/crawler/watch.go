package crawler

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch supplements the daily Scan with a best-effort fsnotify watch over
// every configured root, feeding newly created files through the same
// scanFile path the daily walk uses. It is purely additive: it never
// removes or re-indexes anything, so none of the Crawler's invariants
// change whether or not it is enabled. Disabled by default
// (crawler.watch = false); intended for users who want near-real-time
// pickup of new documents between daily scans.
func (c *Crawler) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range c.roots {
		if err := addRecursive(watcher, root); err != nil {
			c.logger.Warn("crawler: watch setup failed", "root", root, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			c.scanFile(ctx, event.Name, 0)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("crawler: watch error", "error", err)
		}
	}
}

func addRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			_ = watcher.Add(path)
		}
		return nil
	})
}
