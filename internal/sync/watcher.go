package sync

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher uses fsnotify to watch dataset files for changes and
// triggers a callback with debouncing. It watches each file's
// directory so that editors which save by renaming a temp file
// over the target are still seen.
type Watcher struct {
	onChange func(paths []string)
	watcher  *fsnotify.Watcher
	debounce time.Duration
	targets  map[string]bool
	pending  map[string]time.Time
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a file watcher that calls onChange when
// files are modified after the debounce period elapses.
func NewWatcher(
	debounce time.Duration, onChange func(paths []string),
) (*Watcher, error) {
	if onChange == nil {
		return nil, fmt.Errorf("onChange callback is nil: %w", os.ErrInvalid)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		onChange: onChange,
		watcher:  fsw,
		debounce: debounce,
		targets:  make(map[string]bool),
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}
	return w, nil
}

// WatchFile adds path's directory to the watch list and limits
// callbacks to path and any other watched files.
func (w *Watcher) WatchFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	w.mu.Lock()
	w.targets[abs] = true
	w.mu.Unlock()
	return nil
}

// Start begins processing file events in a goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop stops the watcher and waits for it to finish.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
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
			log.Printf("watcher error: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent records a pending change for writes and creates of
// watched files. Removing or renaming a watched file away drops its
// pending change; the loaded dataset stays until the file returns.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	name := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.targets) > 0 && !w.targets[name] {
		return
	}
	switch {
	case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
		w.pending[name] = w.now()
	case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
		delete(w.pending, name)
		log.Printf("watcher: %s went away, keeping loaded dataset", name)
	}
}

func (w *Watcher) flush() {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}

	now := w.now()
	var ready []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, path)
		}
	}

	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) > 0 {
		slices.Sort(ready)
		log.Printf("watcher: %d file(s) changed, reloading",
			len(ready))
		w.onChange(ready)
	}
}
