package transfer

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultSettle = 200 * time.Millisecond

// Watcher reports backup documents dropped into a directory. Bursts of
// create/write events for the same file are coalesced into one notification
// once the file has been quiet for the settle interval.
type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	settle  time.Duration
	files   chan string
	errs    chan error
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	pending map[string]*time.Timer
	running bool
}

func NewWatcher(dir string, settle time.Duration) (*Watcher, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("transfer: watch dir is required")
	}
	if settle <= 0 {
		settle = defaultSettle
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("transfer: create watcher: %w", err)
	}
	return &Watcher{
		watcher: fw,
		dir:     dir,
		settle:  settle,
		files:   make(chan string, 16),
		errs:    make(chan error, 4),
		done:    make(chan struct{}),
		pending: make(map[string]*time.Timer),
	}, nil
}

func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return errors.New("transfer: watcher already running")
	}
	if err := w.watcher.Add(w.dir); err != nil {
		return fmt.Errorf("transfer: watch %s: %w", w.dir, err)
	}
	w.running = true
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop closes the underlying watcher and waits for the event loop to exit.
// Files and Errors are not closed so late readers never see a spurious zero value.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return w.watcher.Close()
	}
	w.running = false
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()

	close(w.done)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) Files() <-chan string {
	return w.files
}

func (w *Watcher) Errors() <-chan error {
	return w.errs
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if isBackupEvent(event) {
				w.schedule(event.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Reset(w.settle)
		return
	}
	w.pending[path] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		select {
		case w.files <- path:
		case <-w.done:
		}
	})
}

func isBackupEvent(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".json") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
}
