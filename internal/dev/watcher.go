// Package dev runs the framework dev server and restarts it when
// config files change that Next.js does not reload on its own.
package dev

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce batches editor save bursts into one restart.
const DefaultDebounce = 400 * time.Millisecond

// watchedPrefixes match config files whose extension varies by project
// (.js, .mjs, .ts, ...).
var watchedPrefixes = []string{
	"next.config.",
	"tailwind.config.",
	"postcss.config.",
}

// watchedFile reports whether a change to this file warrants a dev
// server restart. Next.js picks up everything else by itself.
func watchedFile(name string) bool {
	switch name {
	case "tsconfig.json", ".env", ".env.local":
		return true
	}
	for _, prefix := range watchedPrefixes {
		if strings.HasPrefix(name, prefix) && len(name) > len(prefix) {
			return true
		}
	}
	return false
}

// ConfigWatcher watches a project root and reports changed config
// files in debounced batches.
type ConfigWatcher struct {
	dir      string
	debounce time.Duration
	onChange func([]string)
	logger   *zap.Logger

	fsw  *fsnotify.Watcher
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewConfigWatcher calls onChange with the batch of changed file names
// once debounce has passed without further changes.
func NewConfigWatcher(dir string, debounce time.Duration, onChange func([]string), logger *zap.Logger) (*ConfigWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &ConfigWatcher{
		dir:      dir,
		debounce: debounce,
		onChange: onChange,
		logger:   logger,
		fsw:      fsw,
		stop:     make(chan struct{}),
	}, nil
}

// Start begins watching. The watched files all live in the project
// root, so only that one directory is registered.
func (w *ConfigWatcher) Start() error {
	if err := w.fsw.Add(w.dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}
	w.wg.Add(1)
	go w.run()
	return nil
}

// Stop halts the watcher. Safe to call more than once.
func (w *ConfigWatcher) Stop() error {
	select {
	case <-w.stop:
		return nil
	default:
		close(w.stop)
	}
	w.wg.Wait()
	return w.fsw.Close()
}

func (w *ConfigWatcher) run() {
	defer w.wg.Done()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := make(map[string]struct{})

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name := filepath.Base(event.Name)
			if !watchedFile(name) {
				continue
			}
			w.logger.Debug("config file changed", zap.String("file", name))
			pending[name] = struct{}{}
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			files := make([]string, 0, len(pending))
			for f := range pending {
				files = append(files, f)
			}
			sort.Strings(files)
			pending = make(map[string]struct{})
			w.onChange(files)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", zap.Error(err))

		case <-w.stop:
			return
		}
	}
}
