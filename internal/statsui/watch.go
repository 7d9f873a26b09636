package statsui

import (
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// Watcher reports changes to a single log file. The parent directory is
// watched because the log is replaced by rename on finish.
type Watcher struct {
	watcher *fsnotify.Watcher
	name    string
	changes chan struct{}
	errs    chan error
}

// NewWatcher starts watching path.
func NewWatcher(path string) (*Watcher, error) {
	name, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve log path: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(name)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(name), err)
	}
	w := &Watcher{
		watcher: watcher,
		name:    name,
		changes: make(chan struct{}, 1),
		errs:    make(chan error, 1),
	}
	go w.processEvents()
	return w, nil
}

func (w *Watcher) processEvents() {
	defer close(w.changes)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.name || !event.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			// Pending changes coalesce into one reload.
			select {
			case w.changes <- struct{}{}:
			default:
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

// Changes delivers a value after the log was written. It is closed when the
// watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Errors delivers watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errs
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

type logChangedMsg struct{}

type watchErrMsg struct {
	err error
}

func waitForChange(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case _, ok := <-w.Changes():
			if !ok {
				return nil
			}
			return logChangedMsg{}
		case err := <-w.Errors():
			return watchErrMsg{err: err}
		}
	}
}
