package session

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the credential file for changes made by other processes and
// reloads the store when one lands, mirroring a browser's cross-tab storage
// listener. It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Watch the directory, not the file: the store replaces the file via
	// rename, and editors/other processes may do the same.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return err
	}
	if s.log != nil {
		s.log.Debug("credential watch started")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			s.Reload()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			if s.log != nil {
				s.log.Warn("credential watch error", "err", err)
			}
		}
	}
}
