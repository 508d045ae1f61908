// Package watch turns file-system removal events into resource deletion
// notifications. The watcher goroutine never touches a store; callers
// receive resources on Events and apply them from their own goroutine.
//
// A removal is held back for a settle period and dropped if the path exists
// again by then, so atomic saves and branch checkouts are not reported.
package watch

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/grovetools/ccs/pkg/models"
)

// DefaultSettle is how long a removed path must stay gone to be reported.
const DefaultSettle = 250 * time.Millisecond

// Watcher watches the directories holding tracked resources.
type Watcher struct {
	fsw     *fsnotify.Watcher
	events  chan models.Resource
	done    chan struct{}
	wg      sync.WaitGroup
	logger  *logrus.Entry
	settle  time.Duration
	mu      sync.Mutex
	watched map[string]bool
	closed  bool

	// pending is only used by the loop goroutine.
	pending map[string]removal
}

type removal struct {
	at      time.Time
	watched bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSettle sets how long a removed path must stay gone before it is
// reported.
func WithSettle(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.settle = d
		}
	}
}

// New starts a watcher.
func New(logger *logrus.Entry, opts ...Option) (*Watcher, error) {
	if logger == nil {
		logger = logrus.NewEntry(logrus.New())
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		events:  make(chan models.Resource, 64),
		done:    make(chan struct{}),
		logger:  logger.WithField("component", "watch"),
		settle:  DefaultSettle,
		watched: make(map[string]bool),
		pending: make(map[string]removal),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Events delivers resources that were removed or renamed away.
func (w *Watcher) Events() <-chan models.Resource {
	return w.events
}

// Track starts watching the parent directory of every resource, and
// tracked directories themselves. Directories that cannot be watched are
// logged and skipped.
func (w *Watcher) Track(resources []models.Resource) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return errors.New("watcher closed")
	}
	for _, r := range resources {
		for _, dir := range []string{filepath.Dir(r.Path()), r.Path()} {
			if w.watched[dir] {
				continue
			}
			if err := w.fsw.Add(dir); err != nil {
				// Plain files can't be added as directories on every platform.
				w.logger.WithError(err).WithField("path", dir).Debug("Not watching path")
				continue
			}
			w.watched[dir] = true
		}
	}
	return nil
}

// Watched returns how many paths are being watched.
func (w *Watcher) Watched() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.watched)
}

// Close stops the watcher and closes Events.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsw.Close()
	w.wg.Wait()
	close(w.events)
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.settle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
				w.pending[ev.Name] = removal{at: time.Now(), watched: w.forget(ev.Name)}
			case ev.Has(fsnotify.Create):
				if p, ok := w.pending[ev.Name]; ok {
					delete(w.pending, ev.Name)
					w.restore(ev.Name, p)
				}
			}
		case now := <-ticker.C:
			if !w.flush(now) {
				return
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("File watcher error")
		}
	}
}

// flush reports pending removals that have settled and are still gone.
// It returns false once the watcher is closing.
func (w *Watcher) flush(now time.Time) bool {
	for path, p := range w.pending {
		if now.Sub(p.at) < w.settle {
			continue
		}
		delete(w.pending, path)
		if _, err := os.Lstat(path); err == nil {
			w.restore(path, p)
			continue
		}
		r, err := models.ResourceFromPath(path)
		if err != nil {
			w.logger.WithError(err).WithField("path", path).Warn("Ignoring event for unresolvable path")
			continue
		}
		select {
		case w.events <- r:
		case <-w.done:
			return false
		}
	}
	return true
}

// forget drops a removed directory so it can be watched again if recreated,
// and reports whether it was watched.
func (w *Watcher) forget(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	was := w.watched[path]
	delete(w.watched, path)
	return was
}

// restore re-watches a path that came back after being removed.
func (w *Watcher) restore(path string, p removal) {
	if !p.watched {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.watched[path] {
		return
	}
	if err := w.fsw.Add(path); err != nil {
		w.logger.WithError(err).WithField("path", path).Debug("Not watching path")
		return
	}
	w.watched[path] = true
}
