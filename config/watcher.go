package config

import (
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch observes the config file and calls onChange with the freshly parsed
// configuration whenever it is rewritten with valid contents. Invalid
// rewrites are logged and skipped; the running configuration stays in force.
// Watch returns when stop is closed.
//
// Editors and the web handler replace the file rather than appending, so the
// parent directory is watched and events are matched by name. Rapid
// successive events are debounced.
func Watch(cfile string, onChange func(*Config), stop <-chan struct{}) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(cfile)
	if err := watcher.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(cfile)

	var pending <-chan time.Time
	for {
		select {
		case <-stop:
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
			pending = time.After(250 * time.Millisecond)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Config watcher error", "error", err)
		case <-pending:
			pending = nil
			conf, err := ReadConfig(cfile)
			if err != nil {
				slog.Error("Ignoring invalid config rewrite", "error", err)
				continue
			}
			slog.Info("Config file changed, applying runtime settings", "file", cfile)
			onChange(conf)
		}
	}
}
