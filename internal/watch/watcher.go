// Package watch reports when documents change on disk so they can be synced
// again.
package watch

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceDelay is the default delay for coalescing rapid writes
const DefaultDebounceDelay = 100 * time.Millisecond

// Watcher watches documents and the directories holding them. Every
// document path reported on Changes has settled for the debounce delay.
type Watcher struct {
	watcher *fsnotify.Watcher
	changes chan string
	errors  chan error
	done    chan struct{}

	files       map[string]bool // Explicitly named documents
	dirs        []string        // Recursively watched directory roots
	extensions  map[string]bool
	excludeDirs map[string]bool

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// New watches paths. A file path is watched on its own; a directory is
// watched recursively for documents with one of extensions. Directories
// named in excludeDirs and hidden directories are skipped.
func New(paths, extensions, excludeDirs []string) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		watcher:       watcher,
		changes:       make(chan string, 100),
		errors:        make(chan error, 10),
		done:          make(chan struct{}),
		files:         make(map[string]bool),
		extensions:    make(map[string]bool),
		excludeDirs:   make(map[string]bool),
		debounceDelay: DefaultDebounceDelay,
		debounceMap:   make(map[string]*time.Timer),
	}
	for _, ext := range extensions {
		w.extensions[strings.ToLower(ext)] = true
	}
	for _, dir := range excludeDirs {
		w.excludeDirs[dir] = true
	}

	for _, path := range paths {
		if err := w.add(filepath.Clean(path)); err != nil {
			watcher.Close()
			return nil, err
		}
	}

	go w.processEvents()

	return w, nil
}

func (w *Watcher) add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		w.files[path] = true
		// Atomic rewrites replace the file, so its directory is watched.
		return w.watcher.Add(filepath.Dir(path))
	}
	w.dirs = append(w.dirs, path)
	return w.addRecursive(path)
}

// addRecursive adds the directory and all its subdirectories to the watcher
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !info.IsDir() {
			return nil
		}
		if path != dir && w.skipDir(info.Name()) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			// Ignore permission errors for directories we can't access
			if os.IsPermission(err) {
				return filepath.SkipDir
			}
			return err
		}
		return nil
	})
}

func (w *Watcher) skipDir(name string) bool {
	return strings.HasPrefix(name, ".") || w.excludeDirs[name]
}

// processEvents processes fsnotify events until Close
func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.done:
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
			w.sendError(err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	if event.Has(fsnotify.Create) && w.underDirs(path) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !w.skipDir(info.Name()) {
				if err := w.addRecursive(path); err != nil {
					w.sendError(err)
				}
			}
			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if !w.matches(path) {
		return
	}
	w.debounce(path)
}

// underDirs reports whether path lies inside a recursively watched root.
func (w *Watcher) underDirs(path string) bool {
	for _, dir := range w.dirs {
		rel, err := filepath.Rel(dir, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// matches reports whether path is a document the watcher reports.
func (w *Watcher) matches(path string) bool {
	if w.files[path] {
		return true
	}
	name := filepath.Base(path)
	if strings.HasPrefix(name, ".") {
		return false
	}
	if !w.underDirs(path) {
		return false
	}
	return w.extensions[strings.ToLower(filepath.Ext(name))]
}

// debounce coalesces rapid writes for the same file
func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}
	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		w.mu.Unlock()

		select {
		case w.changes <- path:
		case <-w.done:
		default:
			// Changes channel full, drop the event
		}
	})
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
		// Error channel full, drop the error
	}
}

// Changes returns the channel of changed document paths
func (w *Watcher) Changes() <-chan string {
	return w.changes
}

// Errors returns the channel for receiving errors
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

// SetDebounceDelay sets the debounce delay for coalescing rapid writes
func (w *Watcher) SetDebounceDelay(delay time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.debounceDelay = delay
}

// Close stops the watcher and releases resources
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true

	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.mu.Unlock()

	close(w.done)

	return w.watcher.Close()
}
