package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/vk/blockgraph/internal/document"
)

// Watch validates paths once and again whenever a document under them is
// written, created, renamed or removed. Each outcome is passed to report.
// It returns when ctx is done.
func (a *App) Watch(ctx context.Context, paths []string, report func(error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	for _, dir := range watchDirs(paths) {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		a.logger.Debug("Watching directory.", "dir", dir)
	}

	report(a.Validate(ctx, paths...))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !document.IsDocument(event.Name) || event.Op == fsnotify.Chmod {
				continue
			}
			a.logger.Debug("Document changed.", "path", event.Name, "op", event.Op.String())
			report(a.Validate(ctx, paths...))
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Warn("File watcher error.", "error", err)
		}
	}
}

// watchDirs returns the directories to watch for paths: each directory and
// its subdirectories, or the parent of each file.
func watchDirs(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	add := func(d string) {
		if !seen[d] {
			seen[d] = true
			dirs = append(dirs, d)
		}
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.IsDir() {
			add(filepath.Dir(p))
			continue
		}
		_ = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err == nil && d.IsDir() {
				add(path)
			}
			return nil
		})
	}
	return dirs
}
