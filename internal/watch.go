package internal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	tt "github.com/gnolang/mexp/internal/types"
)

// settle is how long a file must stay quiet before it is expanded. Every
// event on the file restarts the wait.
const settle = 100 * time.Millisecond

// StartWatching re-expands accepted files under dirs whenever they are
// written, passing every result to report. Directories created later are
// watched as well. It returns once the watches are in place; results are
// delivered from a separate goroutine, one at a time.
func (e *Engine) StartWatching(dirs []string, report func(*tt.Result)) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isWatching {
		return errors.New("already watching")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}

	for _, dir := range dirs {
		if err := addTree(watcher, dir, nil); err != nil {
			watcher.Close()
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}

	e.watcher = watcher
	e.isWatching = true
	go e.watchLoop(watcher, report)
	return nil
}

func (e *Engine) StopWatching() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.isWatching {
		return errors.New("not watching")
	}

	e.isWatching = false
	return e.watcher.Close()
}

// addTree watches root and every directory below it. Files found on the way
// are passed to found when it is not nil.
func addTree(watcher *fsnotify.Watcher, root string, found func(string)) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return watcher.Add(path)
		}
		if found != nil {
			found(path)
		}
		return nil
	})
}

// fileQueue holds one timer per changed file, so that a burst of events on
// a file leads to a single expansion.
type fileQueue struct {
	mu      sync.Mutex
	pending map[string]*time.Timer
	run     func(string)
}

func newFileQueue(run func(string)) *fileQueue {
	return &fileQueue{pending: make(map[string]*time.Timer), run: run}
}

func (q *fileQueue) schedule(filename string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	// Reset fails once the timer has fired; its run is then already on the
	// way and a new timer covers this event.
	if t, ok := q.pending[filename]; ok {
		if t.Reset(settle) {
			return
		}
		t.Stop()
	}

	var t *time.Timer
	t = time.AfterFunc(settle, func() {
		q.mu.Lock()
		if q.pending[filename] == t {
			delete(q.pending, filename)
		}
		q.mu.Unlock()
		q.run(filename)
	})
	q.pending[filename] = t
}

func (q *fileQueue) stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for filename, t := range q.pending {
		t.Stop()
		delete(q.pending, filename)
	}
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher, report func(*tt.Result)) {
	var reportMu sync.Mutex
	queue := newFileQueue(func(filename string) {
		reportMu.Lock()
		defer reportMu.Unlock()
		e.expandChanged(filename, report)
	})
	defer queue.stop()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			e.handleFileEvent(watcher, event, queue.schedule)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Error("watch error", zap.Error(err))
		}
	}
}

func (e *Engine) handleFileEvent(watcher *fsnotify.Watcher, event fsnotify.Event, schedule func(string)) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// files may land in the directory before its watch is added
			err := addTree(watcher, event.Name, func(path string) {
				if e.Accepts(path) {
					schedule(path)
				}
			})
			if err != nil {
				e.logger.Error("error watching new directory", zap.String("dir", event.Name), zap.Error(err))
			}
			return
		}
	}

	if e.Accepts(event.Name) {
		schedule(event.Name)
	}
}

func (e *Engine) expandChanged(filename string, report func(*tt.Result)) {
	res, err := e.Run(filename)
	if err != nil {
		e.logger.Error("error expanding changed file", zap.String("file", filename), zap.Error(err))
		return
	}

	e.logger.Debug("file expanded",
		zap.String("file", filename),
		zap.Int("forms", len(res.Forms)),
		zap.Int("issues", len(res.Issues)))
	report(res)
}
