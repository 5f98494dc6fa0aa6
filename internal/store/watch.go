package store

import (
	"context"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the source file at path and reloads the table each time the
// file is written. It runs until ctx is cancelled.
//
// If a reload fails (e.g., the file is mid-rewrite or malformed), the error is
// logged and the previous table remains current.
func (s *Store) Watch(ctx context.Context, path string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	slog.Info("store: watching source for changes", "path", path)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Only reload on write or create events. Many tools replace the
			// file via rename (atomic save), so also catch fsnotify.Create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			if err := s.Reload(path); err != nil {
				slog.Error("store: reload failed — keeping previous table",
					"path", path, "err", err)
				continue
			}

			// Re-add the file in case an atomic save replaced the inode.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("store: watcher error", "err", err)
		}
	}
}
