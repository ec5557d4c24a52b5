package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"stylesense/internal/lang"
	"stylesense/internal/logging"

	"github.com/fsnotify/fsnotify"
)

// ErrWatcherStopped is returned by Start on a watcher that was stopped.
// A Watcher is single-use.
var ErrWatcherStopped = errors.New("watcher already stopped")

// ChangeHandler is called once a changed source file has been quiet for the
// debounce window. Deleted files are not reported.
type ChangeHandler func(ctx context.Context, path string)

// Watcher re-checks C/C++ sources under a set of roots as they change.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	roots       []string
	dirRoots    []string
	fileRoots   map[string]bool
	ignore      []string
	handler     ChangeHandler
	pending     map[string]time.Time
	debounceDur time.Duration
	tick        time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	stopped     bool

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	FilesCreated  int
	FilesModified int
	FilesDeleted  int
	Checks        int
	Errors        int
	LastEventTime time.Time
	LastEventPath string
	LastEventType string
}

// NewWatcher creates a watcher over roots. Nothing is watched until Start.
func NewWatcher(roots, ignore []string, debounce time.Duration, handler ChangeHandler) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	tick := debounce / 3
	if tick < 10*time.Millisecond {
		tick = 10 * time.Millisecond
	}
	return &Watcher{
		watcher:     fw,
		roots:       roots,
		ignore:      ignore,
		handler:     handler,
		fileRoots:   make(map[string]bool),
		pending:     make(map[string]time.Time),
		debounceDur: debounce,
		tick:        tick,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// Start registers every directory under the directory roots, and the parent
// directory of each file root, then begins processing events in the
// background. A file root only reports changes to that file.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return ErrWatcherStopped
	}
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	for _, root := range w.roots {
		var info os.FileInfo
		abs, err := filepath.Abs(root)
		if err == nil {
			info, err = os.Stat(abs)
		}
		if err != nil {
			w.mu.Lock()
			w.running = false
			w.mu.Unlock()
			return err
		}
		if info.IsDir() {
			w.dirRoots = append(w.dirRoots, abs)
			w.addTree(abs)
			continue
		}
		w.fileRoots[abs] = true
		if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
			logging.WorkspaceWarn("cannot watch %s: %v", filepath.Dir(abs), err)
		}
	}
	logging.Workspace("watching %d directories", len(w.watcher.WatchList()))

	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	if !w.running {
		w.mu.Unlock()
		_ = w.watcher.Close()
		close(w.doneCh)
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.CategoryWorkspace).Error("error closing watcher: %v", err)
	}
	logging.WorkspaceDebug("watcher stopped")
}

// Done is closed when the event loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.doneCh
}

// inScope reports whether path is a file root or lies under a directory root.
func (w *Watcher) inScope(path string) bool {
	if w.fileRoots[path] {
		return true
	}
	for _, root := range w.dirRoots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func (w *Watcher) addTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		if path != root && Ignored(d.Name(), w.ignore) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			logging.WorkspaceWarn("cannot watch %s: %v", path, err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
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
			logging.Get(logging.CategoryWorkspace).Error("watch error: %v", err)
			w.mu.Lock()
			w.stats.Errors++
			w.mu.Unlock()
		case <-ticker.C:
			w.flush(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	var eventType string
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = "create"
	case event.Op&fsnotify.Write != 0:
		eventType = "modify"
	case event.Op&fsnotify.Remove != 0:
		eventType = "delete"
	case event.Op&fsnotify.Rename != 0:
		eventType = "rename"
	default:
		return
	}

	if !w.inScope(event.Name) {
		return
	}
	if eventType == "create" {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !Ignored(filepath.Base(event.Name), w.ignore) {
				w.addTree(event.Name)
			}
			return
		}
	}
	if !lang.IsSource(event.Name) || Ignored(filepath.Base(event.Name), w.ignore) {
		return
	}

	logging.WorkspaceDebug("%s event for %s", eventType, event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()
	w.stats.LastEventTime = time.Now()
	w.stats.LastEventPath = event.Name
	w.stats.LastEventType = eventType
	switch eventType {
	case "create":
		w.stats.FilesCreated++
	case "modify":
		w.stats.FilesModified++
	case "delete", "rename":
		w.stats.FilesDeleted++
	}
	w.pending[event.Name] = time.Now()
}

// flush hands settled paths to the handler.
func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.pending {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.pending, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		w.mu.Lock()
		w.stats.Checks++
		w.mu.Unlock()
		w.handler(ctx, path)
	}
}

// Stats returns a snapshot of the watcher counters.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

// IsWatching reports whether the event loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// WatchedDirs returns the directories registered with the OS.
func (w *Watcher) WatchedDirs() []string {
	return w.watcher.WatchList()
}
