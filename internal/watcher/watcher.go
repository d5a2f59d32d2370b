// Package watcher reloads the config file when it changes on disk.
package watcher

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"wololo/internal/config"
	"wololo/internal/logger"
)

// Watcher watches a config file and hands every valid new version to a
// callback. Versions that fail to load or validate are logged and skipped,
// as are writes that leave the content unchanged.
type Watcher struct {
	path     string
	onChange func(*config.Config)
	debounce time.Duration
	last     []byte
	log      zerolog.Logger
}

// New creates a new config watcher
func New(path string, onChange func(*config.Config)) *Watcher {
	return &Watcher{
		path:     path,
		onChange: onChange,
		debounce: 500 * time.Millisecond,
		log:      logger.WithComponent("watcher"),
	}
}

// WithDebounce sets the debounce duration
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled, returning nil, or the watcher
// fails. The content present when Watch starts counts as already loaded.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	// Watching the directory survives editors that replace the file.
	filename := filepath.Base(w.path)
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.last, _ = os.ReadFile(w.path)

	w.log.Info().Str("path", w.path).Msg("watching config for changes")

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) reload() {
	data, err := os.ReadFile(w.path)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config change ignored")
		return
	}
	if bytes.Equal(data, w.last) {
		return
	}
	w.last = data

	cfg, err := config.Parse(data)
	if err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config change ignored")
		return
	}
	if err := cfg.Validate(); err != nil {
		w.log.Warn().Err(err).Str("path", w.path).Msg("config change ignored")
		return
	}
	w.log.Info().Str("path", w.path).Int("devices", len(cfg.Devices)).Msg("config reloaded")
	w.onChange(cfg)
}
