package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/bridge"
	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/types"
)

type recordingSink struct {
	mu         sync.Mutex
	components []types.GeneratedComponent
}

func (s *recordingSink) SetComponent(_ context.Context, c types.GeneratedComponent) (bridge.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, c)

	return bridge.Snapshot{}, nil
}

func (s *recordingSink) last() (types.GeneratedComponent, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.components) == 0 {
		return types.GeneratedComponent{}, 0
	}

	return s.components[len(s.components)-1], len(s.components)
}

func TestEventTypeString(t *testing.T) {
	testCases := []struct {
		eventType EventType
		expected  string
	}{
		{EventTypeCreated, "created"},
		{EventTypeModified, "modified"},
		{EventTypeDeleted, "deleted"},
		{EventTypeRenamed, "renamed"},
		{EventType(42), "unknown"},
	}

	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.eventType.String())
		})
	}
}

func TestFilters(t *testing.T) {
	dir := t.TempDir()
	card := filepath.Join(dir, "Card.jsx")
	styles := filepath.Join(dir, "card.css")

	paths := PathFilter(card, styles)
	exts := ExtensionFilter(".jsx", ".css")

	testCases := []struct {
		name   string
		filter FileFilter
		path   string
		want   bool
	}{
		{"path match jsx", paths, card, true},
		{"path match css", paths, styles, true},
		{"path other file", paths, filepath.Join(dir, "Other.jsx"), false},
		{"extension jsx", exts, "/src/Card.jsx", true},
		{"extension upper case", exts, "/src/CARD.CSS", true},
		{"extension go", exts, "/src/main.go", false},
		{"hidden swap file", NoHiddenFilter, "/src/.Card.jsx.swp", false},
		{"visible file", NoHiddenFilter, "/src/Card.jsx", true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.filter(tc.path))
		})
	}
}

func TestFlushKeepsLatestPerPath(t *testing.T) {
	pending := map[string]ChangeEvent{}
	for _, ev := range []ChangeEvent{
		{Type: EventTypeCreated, Path: "/b.css"},
		{Type: EventTypeModified, Path: "/a.jsx"},
		{Type: EventTypeModified, Path: "/b.css"},
	} {
		pending[ev.Path] = ev
	}

	assert.Equal(t, []ChangeEvent{
		{Type: EventTypeModified, Path: "/a.jsx"},
		{Type: EventTypeModified, Path: "/b.css"},
	}, flush(pending))
}

func TestComponentFilesLoad(t *testing.T) {
	dir := t.TempDir()
	jsx := filepath.Join(dir, "Card.jsx")
	css := filepath.Join(dir, "card.css")
	require.NoError(t, os.WriteFile(jsx, []byte("function Card() {}"), 0o644))

	files := ComponentFiles{JSX: jsx, CSS: css}

	got, err := files.Load()
	require.NoError(t, err)
	assert.Equal(t, "function Card() {}", got.JSX)
	assert.Empty(t, got.CSS)

	require.NoError(t, files.WriteCSS(".card { padding: 4px; }"))
	got, err = files.Load()
	require.NoError(t, err)
	assert.Equal(t, ".card { padding: 4px; }", got.CSS)

	_, err = ComponentFiles{JSX: filepath.Join(dir, "Missing.jsx")}.Load()
	assert.Equal(t, jsxerrors.ErrorTypeNotFound, jsxerrors.TypeOf(err))

	err = ComponentFiles{JSX: jsx}.WriteCSS("x")
	assert.Equal(t, jsxerrors.ErrorTypeValidation, jsxerrors.TypeOf(err))
	assert.Equal(t, []string{jsx}, ComponentFiles{JSX: jsx}.Paths())
}

func TestWatchComponentReloads(t *testing.T) {
	dir := t.TempDir()
	jsx := filepath.Join(dir, "Card.jsx")
	css := filepath.Join(dir, "card.css")
	require.NoError(t, os.WriteFile(jsx, []byte("function Card() { return null; }"), 0o644))
	require.NoError(t, os.WriteFile(css, []byte(".card {}"), 0o644))

	sink := &recordingSink{}
	fw, err := WatchComponent(ComponentFiles{JSX: jsx, CSS: css}, sink, 20*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()
	defer func() {
		cancel()
		require.NoError(t, <-done)
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(css, []byte(".card { padding: 1px; }"), 0o644))
	}
	require.NoError(t, os.WriteFile(jsx, []byte("function Card() { return <div />; }"), 0o644))

	require.Eventually(t, func() bool {
		last, _ := sink.last()

		return last.JSX == "function Card() { return <div />; }" && last.CSS == ".card { padding: 1px; }"
	}, 2*time.Second, 10*time.Millisecond)

	_, calls := sink.last()
	assert.Less(t, calls, 6, "writes should be debounced into few reloads")
}

func TestWatchComponentIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	jsx := filepath.Join(dir, "Card.jsx")
	require.NoError(t, os.WriteFile(jsx, []byte("function Card() {}"), 0o644))

	sink := &recordingSink{}
	fw, err := WatchComponent(ComponentFiles{JSX: jsx}, sink, 10*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fw.Run(ctx) }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	time.Sleep(100 * time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	_, calls := sink.last()
	assert.Zero(t, calls)
}
