package document

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const debounce = 100 * time.Millisecond

// ChangeKind says what sort of file a Change refers to.
type ChangeKind int

const (
	DocumentChanged ChangeKind = iota
	ScriptChanged
)

// Change is one debounced write to a watched file. Path is the
// cleaned absolute path.
type Change struct {
	Path string
	Kind ChangeKind
}

// Watcher reports writes to a fixed set of documents and scripts.
// fsnotify watches their directories; editors that save by rename
// are covered.
type Watcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeKind
	Changes chan Change
	Errors  chan error
	closeCh chan struct{}
	done    chan struct{}
	once    sync.Once
}

// NewWatcher watches the given files. Files that are neither
// documents nor scripts are rejected with a *WatchError.
func NewWatcher(files ...string) (*Watcher, error) {
	tracked := make(map[string]ChangeKind, len(files))
	dirs := make(map[string]bool)
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		switch {
		case IsDocumentFile(abs):
			tracked[abs] = DocumentChanged
		case IsScriptFile(abs):
			tracked[abs] = ScriptChanged
		default:
			return nil, &WatchError{Path: f}
		}
		dirs[filepath.Dir(abs)] = true
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
	}

	watcher := &Watcher{
		watcher: w,
		files:   tracked,
		Changes: make(chan Change, 16),
		Errors:  make(chan error, 1),
		closeCh: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go watcher.run()
	return watcher, nil
}

// WatchError reports a file NewWatcher cannot classify.
type WatchError struct {
	Path string
}

func (e *WatchError) Error() string {
	return "document: cannot watch " + e.Path + ": not a .yaml document or .tengo script"
}

// Close stops the watcher. Changes and Errors are closed once the
// watch loop has exited.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.closeCh)
		err = w.watcher.Close()
		<-w.done
	})
	return err
}

func (w *Watcher) run() {
	defer func() {
		close(w.Changes)
		close(w.Errors)
		close(w.done)
	}()
	last := make(map[string]time.Time)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			kind, ok := w.files[path]
			if !ok {
				continue
			}
			now := time.Now()
			if t, ok := last[path]; ok && now.Sub(t) < debounce {
				continue
			}
			last[path] = now
			select {
			case w.Changes <- Change{Path: path, Kind: kind}:
			case <-w.closeCh:
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		case <-w.closeCh:
			return
		}
	}
}

func IsDocumentFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

func IsScriptFile(path string) bool {
	return strings.ToLower(filepath.Ext(path)) == ".tengo"
}
