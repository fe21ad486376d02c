// Package watcher reports changes made by other programs to the file being
// edited.
package watcher

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kobzarvs/hexed/internal/logger"
)

// DefaultDelay is how long a burst of events must stay quiet before it is
// reported.
const DefaultDelay = 100 * time.Millisecond

type Op int

const (
	Changed Op = iota
	Removed
)

func (o Op) String() string {
	if o == Removed {
		return "removed"
	}
	return "changed"
}

type Event struct {
	Path string
	Op   Op
}

// Watcher watches the directory holding one file, so the watch survives
// editors and tools that replace the file by renaming over it.
type Watcher struct {
	fsw    *fsnotify.Watcher
	path   string
	name   string
	delay  time.Duration
	notify func(Event)

	mu      sync.Mutex
	timer   *time.Timer
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// New starts watching path. notify is called from the watcher's own
// goroutine, at most once per debounced burst.
func New(path string, notify func(Event)) (*Watcher, error) {
	return newWatcher(path, DefaultDelay, notify)
}

func newWatcher(path string, delay time.Duration, notify func(Event)) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	w := &Watcher{
		fsw:     fsw,
		path:    abs,
		name:    filepath.Base(abs),
		delay:   delay,
		notify:  notify,
		closeCh: make(chan struct{}),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != w.name {
				continue
			}
			if ev.Has(fsnotify.Chmod) && !ev.Has(fsnotify.Write) {
				continue
			}
			logger.Debug("watch event", "path", ev.Name, "op", ev.Op.String())
			w.schedule()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Warn("watch error", "path", w.path, "err", err)
		case <-w.closeCh:
			return
		}
	}
}

// schedule restarts the quiet period; the event fires when it runs out.
func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	op := Changed
	if _, err := os.Stat(w.path); os.IsNotExist(err) {
		op = Removed
	}
	w.notify(Event{Path: w.path, Op: op})
}

// Close stops watching. No notification is delivered after Close returns.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	close(w.closeCh)
	w.mu.Unlock()

	err := w.fsw.Close()
	w.wg.Wait()
	return err
}
