package refdata

import (
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// Watch reloads the snapshot whenever a configured CSV file changes on disk.
// Returns a stop function. With no CSV sources configured it is a no-op.
func (s *Store) Watch() (stop func(), err error) {
	targets := map[string]bool{}
	dirs := map[string]bool{}
	for _, p := range []string{s.opts.NameCSV, s.opts.AddressCSV} {
		if p == "" {
			continue
		}
		clean := filepath.Clean(p)
		targets[clean] = true
		dirs[filepath.Dir(clean)] = true
	}
	if len(targets) == 0 {
		return func() {}, nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			_ = watcher.Close()
			return nil, err
		}
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !targets[filepath.Clean(event.Name)] {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Info().Str("file", event.Name).Msg("reference data changed, reloading")
				if err := s.Reload(); err != nil {
					log.Error().Err(err).Msg("reference data reload failed, keeping previous snapshot")
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("reference data watcher error")
			}
		}
	}()

	return func() { _ = watcher.Close() }, nil
}
