package watcher

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/conneroisu/jsxlive/internal/bridge"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/types"
)

// Sink receives reloaded components.
type Sink interface {
	SetComponent(ctx context.Context, component types.GeneratedComponent) (bridge.Snapshot, error)
}

// ComponentFiles names the jsx file and the optional css file on disk.
type ComponentFiles struct {
	JSX string
	CSS string
}

// Paths returns the files worth watching.
func (f ComponentFiles) Paths() []string {
	if f.CSS == "" {
		return []string{f.JSX}
	}

	return []string{f.JSX, f.CSS}
}

// Load reads both files. A missing css file yields empty css.
func (f ComponentFiles) Load() (types.GeneratedComponent, error) {
	jsx, err := os.ReadFile(f.JSX)
	if err != nil {
		return types.GeneratedComponent{}, readError(f.JSX, err)
	}

	var css []byte
	if f.CSS != "" {
		css, err = os.ReadFile(f.CSS)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return types.GeneratedComponent{}, readError(f.CSS, err)
		}
	}

	return types.GeneratedComponent{
		JSX:          string(jsx),
		CSS:          string(css),
		LastModified: time.Now().UTC(),
	}, nil
}

// WriteCSS stores css back to the css file.
func (f ComponentFiles) WriteCSS(css string) error {
	if f.CSS == "" {
		return jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, "no css file configured")
	}
	if err := os.WriteFile(f.CSS, []byte(css), 0o644); err != nil {
		return jsxerrors.NewIOError(jsxerrors.ErrCodeFileNotFound, "failed to write css file", err).
			WithContext("path", f.CSS)
	}

	return nil
}

// ReloadHandler reloads the component into sink whenever a batch arrives.
// The bridge ignores reloads whose source is unchanged, so a write-back of
// an applied property edit does not rebuild twice.
func ReloadHandler(files ComponentFiles, sink Sink) ChangeHandler {
	return func(ctx context.Context, _ []ChangeEvent) error {
		component, err := files.Load()
		if err != nil {
			return err
		}
		_, err = sink.SetComponent(ctx, component)

		return err
	}
}

// WatchComponent builds a watcher that feeds files into sink.
func WatchComponent(files ComponentFiles, sink Sink, debounce time.Duration, opts ...Option) (*FileWatcher, error) {
	fw, err := NewFileWatcher(debounce, nil)
	if err != nil {
		return nil, err
	}
	for _, opt := range opts {
		opt(fw)
	}

	fw.AddFilter(NoHiddenFilter)
	fw.AddFilter(PathFilter(files.Paths()...))
	fw.AddHandler(ReloadHandler(files, sink))

	for _, p := range files.Paths() {
		if err := fw.AddFile(p); err != nil {
			_ = fw.watcher.Close()

			return nil, err
		}
	}

	return fw, nil
}

func readError(path string, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return jsxerrors.NewNotFoundError(jsxerrors.ErrCodeFileNotFound, "component file not found").
			WithContext("path", path)
	}

	return jsxerrors.NewIOError(jsxerrors.ErrCodeFileNotFound, "failed to read component file", err).
		WithContext("path", path)
}
