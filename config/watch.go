package config

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultQuiet is how long a watched directory must stay silent before its
// pending changes are delivered.
const DefaultQuiet = 150 * time.Millisecond

// Change is one settled edit to a spec file or terrain source.
type Change struct {
	Path    string
	Removed bool
}

// Watcher reports edits to spec files and terrain sources. Events are held
// until the directories have been quiet for a while, then delivered as one
// batch sorted by path, so an editor's write-rename-chmod burst or a script
// copying several files yields a single reload.
type Watcher struct {
	fs    *fsnotify.Watcher
	quiet time.Duration

	batches chan []Change
	errs    chan error
	stop    chan struct{}
	stopped chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// NewWatcher watches dirs. A quiet period of zero uses DefaultQuiet.
func NewWatcher(quiet time.Duration, dirs ...string) (*Watcher, error) {
	if quiet <= 0 {
		quiet = DefaultQuiet
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for _, dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}
	w := &Watcher{
		fs:      fsw,
		quiet:   quiet,
		batches: make(chan []Change, 4),
		errs:    make(chan error, 1),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

// Changes delivers settled batches. It is closed by Close.
func (w *Watcher) Changes() <-chan []Change { return w.batches }

// Errors delivers watcher failures. Errors arriving while one is unread are
// dropped. It is closed by Close.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops watching. Pending changes are discarded. It is safe to call
// more than once.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		close(w.stop)
		w.closeErr = w.fs.Close()
		<-w.stopped
		close(w.batches)
		close(w.errs)
	})
	return w.closeErr
}

func (w *Watcher) loop() {
	defer close(w.stopped)

	pending := make(map[string]Change)
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	var fire <-chan time.Time

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			c, keep := changeOf(ev)
			if !keep {
				continue
			}
			pending[c.Path] = c
			timer.Reset(w.quiet)
			fire = timer.C
		case <-fire:
			fire = nil
			if !w.deliver(flush(pending)) {
				return
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		case <-w.stop:
			timer.Stop()
			return
		}
	}
}

func (w *Watcher) deliver(batch []Change) bool {
	select {
	case w.batches <- batch:
		return true
	case <-w.stop:
		return false
	}
}

// changeOf maps a raw event to a Change, dropping chmod-only events and
// files no spec can reference.
func changeOf(ev fsnotify.Event) (Change, bool) {
	if !IsWatched(ev.Name) {
		return Change{}, false
	}
	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		return Change{Path: ev.Name, Removed: true}, true
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		return Change{Path: ev.Name}, true
	}
	return Change{}, false
}

// flush empties pending into a path-sorted batch.
func flush(pending map[string]Change) []Change {
	batch := make([]Change, 0, len(pending))
	for path, c := range pending {
		batch = append(batch, c)
		delete(pending, path)
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}

// IsWatched reports whether a change to path can affect a loaded spec.
func IsWatched(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".tengo", ".png", ".bmp", ".tif", ".tiff":
		return true
	}
	return false
}
