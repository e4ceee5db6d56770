package file

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/titlegrid-labs/titlegrid-cli/internal/core/domain"
	"github.com/titlegrid-labs/titlegrid-cli/internal/logger"
)

// SourceWatcher reloads sources.toml when it changes and hands the new
// descriptors to a callback. Editors replace files on save, so the
// watcher watches the directory rather than the file itself.
type SourceWatcher struct {
	watcher *fsnotify.Watcher
	path    string

	closeOnce sync.Once
	done      chan struct{}
}

// WatchSources starts watching the sources file in configDir. onReload
// is called with the freshly parsed descriptors after every change;
// unparseable edits are logged and skipped.
func WatchSources(configDir string, onReload func([]domain.SourceDescriptor)) (*SourceWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(configDir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watching %s: %w", configDir, err)
	}

	w := &SourceWatcher{
		watcher: watcher,
		path:    filepath.Join(configDir, SourcesFileName),
		done:    make(chan struct{}),
	}
	go w.run(onReload)
	return w, nil
}

func (w *SourceWatcher) run(onReload func([]domain.SourceDescriptor)) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			descriptors, err := ReadSources(w.path)
			if err != nil {
				logger.Warn("Ignoring sources reload: %v", err)
				continue
			}
			logger.Debug("Reloaded %d source(s) from %s", len(descriptors), w.path)
			onReload(descriptors)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Source watcher: %v", err)
		}
	}
}

// Close stops the watcher and waits for the reload loop to exit.
func (w *SourceWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.watcher.Close()
		<-w.done
	})
	return err
}
