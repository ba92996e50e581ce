// Package watcher reloads component source files into the preview when they
// change on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/jsxlive/internal/logging"
)

// DefaultDebounce is used when a watcher is created with a zero delay.
const DefaultDebounce = 150 * time.Millisecond

// FileWatcher watches for file changes and hands debounced batches to its
// handlers.
type FileWatcher struct {
	watcher  *fsnotify.Watcher
	delay    time.Duration
	filters  []FileFilter
	handlers []ChangeHandler
	logger   logging.Logger
	mutex    sync.RWMutex
}

// ChangeEvent represents a file change event
type ChangeEvent struct {
	Type EventType
	Path string
}

// EventType represents the type of file change
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

// String returns the string representation of the EventType
func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter determines if a file should be watched
type FileFilter func(path string) bool

// ChangeHandler handles one debounced batch of changes.
type ChangeHandler func(ctx context.Context, events []ChangeEvent) error

// NewFileWatcher creates a new file watcher
func NewFileWatcher(debounceDelay time.Duration, logger logging.Logger) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	if debounceDelay <= 0 {
		debounceDelay = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}

	return &FileWatcher{
		watcher: w,
		delay:   debounceDelay,
		logger:  logger.WithComponent("watcher"),
	}, nil
}

// Option configures a watcher built by WatchComponent.
type Option func(*FileWatcher)

// WithLogger sets the watcher's logger.
func WithLogger(logger logging.Logger) Option {
	return func(fw *FileWatcher) {
		if logger != nil {
			fw.logger = logger.WithComponent("watcher")
		}
	}
}

// AddFilter adds a file filter
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddFile watches the directory holding path. Editors commonly replace files
// by rename, which drops a watch placed on the file itself.
func (fw *FileWatcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	return fw.watcher.Add(filepath.Dir(abs))
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (fw *FileWatcher) Run(ctx context.Context) error {
	defer fw.watcher.Close()

	var (
		timer   *time.Timer
		fire    <-chan time.Time
		pending = make(map[string]ChangeEvent)
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			change, keep := fw.convert(event)
			if !keep {
				continue
			}
			pending[change.Path] = change
			if timer == nil {
				timer = time.NewTimer(fw.delay)
			} else {
				timer.Reset(fw.delay)
			}
			fire = timer.C

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn(ctx, err, "File watcher error")

		case <-fire:
			fire = nil
			fw.dispatch(ctx, flush(pending))
			pending = make(map[string]ChangeEvent)
		}
	}
}

func (fw *FileWatcher) convert(event fsnotify.Event) (ChangeEvent, bool) {
	path, err := filepath.Abs(event.Name)
	if err != nil {
		path = event.Name
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(path) {
			return ChangeEvent{}, false
		}
	}

	var eventType EventType
	switch {
	case event.Has(fsnotify.Create):
		eventType = EventTypeCreated
	case event.Has(fsnotify.Write):
		eventType = EventTypeModified
	case event.Has(fsnotify.Remove):
		eventType = EventTypeDeleted
	case event.Has(fsnotify.Rename):
		eventType = EventTypeRenamed
	default:
		// chmod only
		return ChangeEvent{}, false
	}

	return ChangeEvent{Type: eventType, Path: path}, true
}

func (fw *FileWatcher) dispatch(ctx context.Context, events []ChangeEvent) {
	fw.mutex.RLock()
	handlers := fw.handlers
	fw.mutex.RUnlock()

	fw.logger.Debug(ctx, "Dispatching file changes", "count", len(events))
	for _, handler := range handlers {
		if err := handler(ctx, events); err != nil {
			fw.logger.Warn(ctx, err, "File watcher handler error")
		}
	}
}

// flush returns the latest event per path, ordered by path.
func flush(pending map[string]ChangeEvent) []ChangeEvent {
	events := make([]ChangeEvent, 0, len(pending))
	for _, event := range pending {
		events = append(events, event)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	return events
}

// PathFilter keeps only the given files.
func PathFilter(paths ...string) FileFilter {
	want := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			want[abs] = struct{}{}
		}
	}

	return func(path string) bool {
		_, ok := want[path]

		return ok
	}
}

// ExtensionFilter keeps files with one of the given extensions.
func ExtensionFilter(exts ...string) FileFilter {
	return func(path string) bool {
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}

		return false
	}
}

// NoHiddenFilter drops dotfiles such as editor swap files.
func NoHiddenFilter(path string) bool {
	return !strings.HasPrefix(filepath.Base(path), ".")
}
