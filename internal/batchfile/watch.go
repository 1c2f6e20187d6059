package batchfile

import (
	"context"
	"path/filepath"

	exchanger "HeatX/internal/calc/exchanger"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

// Watch calls onChange with the reloaded batch each time the file at path is
// written or replaced, until ctx is cancelled. A file that fails to parse is
// logged and skipped. The parent directory is watched so saves that rename a
// new file over path are seen too.
func Watch(ctx context.Context, path string, onChange func(exchanger.Input)) error {
	target, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return err
	}
	log.WithField("path", target).Info("batchfile: watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.WithField("path", target).Debug("batchfile: file moved away, waiting for it to return")
				}
				continue
			}

			in, err := Load(target)
			if err != nil {
				log.WithField("path", target).Errorf("batchfile: reload failed: %v", err)
				continue
			}
			log.WithField("path", target).Debug("batchfile: reloaded")
			onChange(in)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Errorf("batchfile: watcher error: %v", err)
		}
	}
}
