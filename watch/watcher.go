// Package watch keeps the registry snapshot continuously up to date by
// watching the document scan roots for changes and rebuilding on each
// debounced batch of filesystem events.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	// eventChannelBuffer is the size of the change notification channel.
	eventChannelBuffer = 64

	// defaultDebounce is how long to wait for more changes before
	// triggering a rebuild.
	defaultDebounce = 500 * time.Millisecond
)

// Watcher watches document directories recursively and signals when a
// debounced batch of relevant changes has settled.
type Watcher struct {
	repoRoot string
	roots    []string
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	excludes map[string]bool

	pendingMu sync.Mutex
	pending   bool

	changes chan struct{}
}

// NewWatcher creates a watcher over the given scan roots. Roots that do
// not exist are skipped; at least one must exist.
func NewWatcher(repoRoot string, roots []string, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		repoRoot: repoRoot,
		roots:    roots,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		excludes: map[string]bool{".git": true, "node_modules": true, "vendor": true},
		changes:  make(chan struct{}, eventChannelBuffer),
	}, nil
}

// Changes returns the channel signaled after each settled batch of
// document changes.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start adds recursive watches and begins processing events until the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	for _, root := range w.roots {
		rootDir := filepath.Join(w.repoRoot, root)
		if info, err := os.Stat(rootDir); err != nil || !info.IsDir() {
			continue
		}
		if err := w.addWatchesRecursive(rootDir); err != nil {
			return err
		}
		watched++
	}
	if watched == 0 {
		w.logger.Warn("No scan roots exist; watcher is idle", "roots", w.roots)
	}

	go w.processEvents(ctx)

	w.logger.Info("Document watcher started",
		"roots", w.roots,
		"debounce", w.debounce)

	return nil
}

// Stop stops the watcher. The changes channel is closed by processEvents
// when it exits.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to a directory and all subdirectories.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if w.excludes[base] || (strings.HasPrefix(base, ".") && base != ".") {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

// processEvents debounces fsnotify events into change notifications.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.changes)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending()
		}
	}
}

// handleEvent marks a rebuild pending for relevant events and keeps the
// recursive watch set current as directories appear.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	base := filepath.Base(event.Name)
	if w.excludes[base] || strings.HasPrefix(base, ".") {
		return
	}

	// New directories need their own watches.
	if event.Op.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if filepath.Ext(event.Name) != ".md" {
		return
	}

	w.pendingMu.Lock()
	w.pending = true
	w.pendingMu.Unlock()
}

// flushPending emits one change notification if events arrived since the
// last tick. A full notification channel drops the signal; the next batch
// picks the changes up.
func (w *Watcher) flushPending() {
	w.pendingMu.Lock()
	pending := w.pending
	w.pending = false
	w.pendingMu.Unlock()

	if !pending {
		return
	}

	select {
	case w.changes <- struct{}{}:
	default:
		w.logger.Warn("Change notification dropped; channel full")
	}
}
