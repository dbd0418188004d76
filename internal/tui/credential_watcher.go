package tui

import (
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/fsnotify/fsnotify"
)

// credentialChangedMsg is sent when the token file is written, replaced or
// removed.
type credentialChangedMsg struct{}

// CredentialWatcher watches the directory holding the token file so the
// file may appear or disappear while the TUI runs.
type CredentialWatcher struct {
	watcher  *fsnotify.Watcher
	file     string
	debounce time.Duration
}

// NewCredentialWatcher watches path. The parent directory must exist.
func NewCredentialWatcher(path string) (*CredentialWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	return &CredentialWatcher{
		watcher:  watcher,
		file:     abs,
		debounce: 100 * time.Millisecond,
	}, nil
}

// Wait returns a command that blocks until the token file changes. Re-issue
// it after each credentialChangedMsg. A nil watcher never fires.
func (w *CredentialWatcher) Wait() tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Clean(event.Name) != w.file {
					continue
				}

				// Editors write in several steps; report once they settle.
				time.Sleep(w.debounce)
				w.drain()
				return credentialChangedMsg{}

			case _, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (w *CredentialWatcher) drain() {
	for {
		select {
		case <-w.watcher.Events:
		default:
			return
		}
	}
}

// Close stops watching. Pending Wait commands return nil.
func (w *CredentialWatcher) Close() error {
	if w == nil {
		return nil
	}
	return w.watcher.Close()
}
