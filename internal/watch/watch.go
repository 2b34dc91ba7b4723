// Package watch triggers a callback when query or settings files under a
// root change, with debouncing so editors saving in bursts cause one run.
package watch

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/bqscope/internal/scan"
)

// defaultDebounce is the quiet period after the last relevant event before
// the callback fires.
const defaultDebounce = 500 * time.Millisecond

// Config holds the settings for a Watcher.
type Config struct {
	// Root is the directory watched recursively. Required.
	Root string
	// Debounce overrides the quiet period. Zero means the default.
	Debounce time.Duration
	// Logger receives watcher output. Defaults to a discard logger.
	Logger *slog.Logger
	// OnChange runs after each debounced batch of changes. Required.
	OnChange func()
}

// Watcher reacts to source-file changes under one root.
type Watcher struct {
	root     string
	debounce time.Duration
	logger   *slog.Logger
	onChange func()
}

// New creates a watcher. The root must exist when Run is called.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("watch root is required")
	}
	if cfg.OnChange == nil {
		return nil, fmt.Errorf("change callback is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		root:     cfg.Root,
		debounce: debounce,
		logger:   logger,
		onChange: cfg.OnChange,
	}, nil
}

// Run blocks, dispatching the callback on changes, until the context is
// cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watchDirRecursive(watcher, w.root); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.root, err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-watcher.Events:
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}

			// A directory appearing means a tree may have been moved in;
			// watch it and treat it as a change.
			isNewDir := false
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					isNewDir = true
					if err := watchDirRecursive(watcher, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
				}
			}

			if !isNewDir && !scan.IsSourceFile(filepath.Base(event.Name)) {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.debounce, func() {
				w.logger.Debug("change detected", "path", event.Name, "op", event.Op.String())
				w.onChange()
			})

		case err := <-watcher.Errors:
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
