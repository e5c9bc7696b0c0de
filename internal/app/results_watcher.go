package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"iplcli/internal/infrastructure"
)

// resultsDebounce coalesces the event burst a tmp-write-plus-rename
// produces into one notification.
const resultsDebounce = 250 * time.Millisecond

// ResultsWatcher watches the results directory and fires onChange when the
// result document lands or changes. The web server uses it to invalidate
// the report cache and push a refresh event to connected dashboards, so a
// pipeline run from a batch binary shows up without polling.
type ResultsWatcher struct {
	dir      string
	filename string
	onChange func(path string)
	logger   *slog.Logger

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	done    chan struct{}
}

// NewResultsWatcher creates a watcher for resultPath. onChange runs on the
// watcher goroutine after the debounce window; keep it fast.
func NewResultsWatcher(resultPath string, onChange func(path string), logger *slog.Logger) *ResultsWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsWatcher{
		dir:      filepath.Dir(resultPath),
		filename: filepath.Base(resultPath),
		onChange: onChange,
		logger:   infrastructure.WithComponent(logger, "results_watcher"),
	}
}

// Start begins watching. The directory must exist; the file itself may not
// yet, since watching the directory catches its creation.
func (w *ResultsWatcher) Start() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", w.dir, err)
	}

	w.mu.Lock()
	w.watcher = watcher
	w.done = make(chan struct{})
	w.mu.Unlock()

	go w.loop(watcher, w.done)

	w.logger.Info("watching result document",
		slog.String("dir", w.dir),
		slog.String("file", w.filename))
	return nil
}

// Stop stops the watcher. Safe to call when Start failed or never ran.
func (w *ResultsWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	if w.done != nil {
		close(w.done)
		w.done = nil
	}
	if w.watcher != nil {
		w.watcher.Close()
		w.watcher = nil
	}
}

func (w *ResultsWatcher) loop(watcher *fsnotify.Watcher, done chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// The exporter writes a .tmp sibling and renames it over the
			// document; only the final name matters.
			if filepath.Base(event.Name) != w.filename {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			w.scheduleNotify(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watcher error",
				slog.String("error", err.Error()))

		case <-done:
			return
		}
	}
}

func (w *ResultsWatcher) scheduleNotify(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(resultsDebounce, func() {
		w.logger.Debug("result document changed",
			slog.String("path", path))
		w.onChange(path)
	})
}
