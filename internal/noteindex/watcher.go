package noteindex

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/laguz/internal/pathutil"
)

// Watch invalidates the index whenever a note file changes on disk, until
// ctx is cancelled. It exists for the long-running serve mode only: the
// core contract remains explicit invalidation, and the watcher does no
// indexing of its own; the next GetOrBuild pays for the rebuild.
//
// Directories created at runtime are added to the watch list.
func Watch(ctx context.Context, ix *Index, root string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					ix.Invalidate()
					continue
				}
			}
			if !pathutil.HasNoteExt(ev.Name, ix.exts) {
				continue
			}
			logger.Debug("watcher: note changed",
				slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			ix.Invalidate()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
