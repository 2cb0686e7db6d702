// internal/asset/watcher.go
package asset

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// MediaWatcher watches the media directory and marks registered assets
// ready when their processed file lands. Files are matched to assets by
// basename without extension, with debouncing so a file still being
// written is only reported once.
type MediaWatcher struct {
	dir      string
	registry *Registry
	debounce time.Duration
	onReady  func(assetID, src string)

	watcher    *fsnotify.Watcher
	done       chan struct{}
	closed     bool
	mu         sync.Mutex
	debouncer  map[string]*time.Timer
	debounceMu sync.Mutex
}

// NewMediaWatcher creates a watcher over dir. onReady may be nil.
func NewMediaWatcher(dir string, registry *Registry, debounce time.Duration, onReady func(assetID, src string)) (*MediaWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("watch media dir %s: %w", dir, err)
	}

	return &MediaWatcher{
		dir:       dir,
		registry:  registry,
		debounce:  debounce,
		onReady:   onReady,
		watcher:   watcher,
		done:      make(chan struct{}),
		debouncer: make(map[string]*time.Timer),
	}, nil
}

// Start scans existing files and then watches for new ones.
func (w *MediaWatcher) Start() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("scan media dir: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			w.maybeReady(filepath.Join(w.dir, entry.Name()))
		}
	}

	go w.loop()
	return nil
}

func (w *MediaWatcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				w.debounced(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("media watcher error: %v", err)
		}
	}
}

// debounced schedules maybeReady after the debounce window, resetting the
// timer on every further event for the same path.
func (w *MediaWatcher) debounced(path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debouncer[path]; exists {
		timer.Stop()
	}
	w.debouncer[path] = time.AfterFunc(w.debounce, func() {
		w.debounceMu.Lock()
		delete(w.debouncer, path)
		w.debounceMu.Unlock()
		w.maybeReady(path)
	})
}

// maybeReady marks the matching registered asset ready. The natural
// duration stays unknown here; probing media is the transcode pipeline's
// job, not this watcher's.
func (w *MediaWatcher) maybeReady(path string) {
	base := filepath.Base(path)
	id := strings.TrimSuffix(base, filepath.Ext(base))

	a, ok := w.registry.Lookup(id)
	if !ok || a.Ready() {
		return
	}
	if err := w.registry.MarkReady(id, path, a.DurationInFrames); err != nil {
		log.Printf("mark asset %s ready: %v", id, err)
		return
	}
	if w.onReady != nil {
		w.onReady(id, path)
	}
}

// Close stops the watcher.
func (w *MediaWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	return w.watcher.Close()
}
