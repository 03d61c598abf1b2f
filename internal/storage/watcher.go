package storage

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must stay quiet before its change is
// reported.
const DefaultDebounce = 100 * time.Millisecond

// Event reports a settled change to one of the store files.
type Event struct {
	File     string // DataFileName or CompilersFileName
	Removed  bool   // the file no longer exists
	External bool   // the content is not what this Store last wrote
}

// Watcher monitors the store directory for changes to the store files.
type Watcher struct {
	Events <-chan Event // Read-only external channel

	store    *Store
	debounce time.Duration
	events   chan Event
	quit     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher

	mu       sync.Mutex
	running  bool
	stopped  bool
	stopOnce sync.Once
}

var errWatcherState = errors.New("storage: watcher already started or stopped")

// NewWatcher creates a watcher on s's directory. A non-positive debounce
// means DefaultDebounce.
func NewWatcher(s *Store, debounce time.Duration) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	ch := make(chan Event, 16)
	return &Watcher{
		Events:   ch,
		store:    s,
		debounce: debounce,
		events:   ch,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
	}, nil
}

// Start begins watching. The directory is watched rather than the files so
// that atomic renames are seen. A Watcher can be started once.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.stopped {
		return errWatcherState
	}
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return ioErr("watching", w.store.Dir(), err)
	}
	w.running = true
	go w.loop()
	return nil
}

// Stop closes the watcher and the Events channel. It is safe to call more
// than once, and without a successful Start.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		running := w.running
		w.stopped = true
		w.mu.Unlock()

		close(w.quit)
		w.watcher.Close()
		if running {
			<-w.done
		}
		close(w.events)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.quit:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := filepath.Base(event.Name)
			if name != DataFileName && name != CompilersFileName {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) ||
				event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				pending[name] = time.Now()
			}

		case now := <-ticker.C:
			for name, t := range pending {
				if now.Sub(t) >= w.debounce {
					delete(pending, name)
					if !w.emit(name) {
						return
					}
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.store.log.Warn("watch error", zap.Error(err))
		}
	}
}

// emit sends the event for name and reports false when the watcher stopped
// while it waited.
func (w *Watcher) emit(name string) bool {
	evt := Event{File: name}
	content, err := os.ReadFile(w.store.Path(name))
	if err != nil {
		evt.Removed = true
		evt.External = true
	} else {
		evt.External = !w.store.OwnWrite(name, content)
	}
	select {
	case w.events <- evt:
		return true
	case <-w.quit:
		return false
	}
}
