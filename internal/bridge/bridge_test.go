package bridge

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const cardJSX = `function Card() { return <div className="card"><span>Hi</span></div>; }`

func counter() func() string {
	var mu sync.Mutex
	n := 0

	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++

		return "gen-" + strconv.Itoa(n)
	}
}

func startBridge(t *testing.T, opts ...Option) *Bridge {
	t.Helper()

	opts = append([]Option{WithGenerations(counter())}, opts...)
	b, err := New(sandbox.NewBuilder(), true, opts...)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})

	return b
}

func selectedMessage(gen, className string) protocol.Envelope {
	return protocol.Envelope{
		Generation: gen,
		Message: protocol.Message{
			Type:       protocol.MessageElementSelected,
			Generation: gen,
			Element: &protocol.ElementPayload{
				Type:      "div",
				TagName:   "DIV",
				ClassName: className,
				Styles:    map[string]string{"padding": "4px"},
			},
		},
	}
}

func waitFor(t *testing.T, b *Bridge, cond func(Snapshot) bool) Snapshot {
	t.Helper()

	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = b.Snapshot()

		return cond(snap)
	}, time.Second, 5*time.Millisecond)

	return snap
}

func TestNewStartsEmpty(t *testing.T) {
	b := startBridge(t)

	snap := b.Snapshot()
	assert.Equal(t, StateEmpty, snap.State)
	assert.Equal(t, "gen-1", snap.Generation)
	assert.True(t, snap.ShowGrid)
	assert.Contains(t, snap.Document, "Component Preview")
}

func TestSetComponentRebuildsOnlyOnChange(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()
	component := types.GeneratedComponent{JSX: cardJSX, CSS: ".card {}"}

	snap, err := b.SetComponent(ctx, component)
	require.NoError(t, err)
	assert.Equal(t, StateRendering, snap.State)
	assert.Equal(t, "gen-2", snap.Generation)
	assert.Equal(t, "Card", snap.ComponentName)

	again, err := b.SetComponent(ctx, component)
	require.NoError(t, err)
	assert.Equal(t, "gen-2", again.Generation)

	reloaded, err := b.Reload(ctx)
	require.NoError(t, err)
	assert.Equal(t, "gen-3", reloaded.Generation)
	assert.Equal(t, StateRendering, reloaded.State)
}

func TestLifecycleMessages(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	snap, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX})
	require.NoError(t, err)
	gen := snap.Generation

	require.True(t, b.Deliver(protocol.Envelope{
		Generation: gen,
		Message:    protocol.Message{Type: protocol.MessagePreviewReady, Generation: gen},
	}))
	waitFor(t, b, func(s Snapshot) bool { return s.State == StateReady })

	require.True(t, b.Deliver(protocol.Envelope{
		Generation: gen,
		Message: protocol.Message{
			Type:       protocol.MessagePreviewError,
			Generation: gen,
			Error:      "boom",
			Stack:      "at Card",
		},
	}))
	snap = waitFor(t, b, func(s Snapshot) bool { return s.State == StateError })
	require.NotNil(t, snap.Error)
	assert.Equal(t, "boom", snap.Error.Message)
	assert.Equal(t, "at Card", snap.Error.Stack)
	assert.True(t, snap.ErrorVisible)

	snap, err = b.DismissError(ctx)
	require.NoError(t, err)
	assert.False(t, snap.ErrorVisible)
	assert.Equal(t, StateError, snap.State)
}

func TestStaleMessagesAreDropped(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	first, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX})
	require.NoError(t, err)
	second, err := b.Reload(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first.Generation, second.Generation)

	require.True(t, b.Deliver(protocol.Envelope{
		Generation: first.Generation,
		Message:    protocol.Message{Type: protocol.MessagePreviewReady, Generation: first.Generation},
	}))
	require.True(t, b.Deliver(selectedMessage(first.Generation, "card")))
	require.True(t, b.Deliver(protocol.Envelope{
		Generation: second.Generation,
		Message:    protocol.Message{Type: protocol.MessagePreviewReady, Generation: second.Generation},
	}))

	snap := waitFor(t, b, func(s Snapshot) bool { return s.State == StateReady })
	assert.Equal(t, second.Generation, snap.Generation)
	assert.Nil(t, snap.Selection)
}

func TestSelectionAndPropertyEdit(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	snap, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX, CSS: ".card { padding: 4px; }"})
	require.NoError(t, err)

	require.True(t, b.Deliver(selectedMessage(snap.Generation, "card highlighted")))
	snap = waitFor(t, b, func(s Snapshot) bool { return s.Selection != nil })
	assert.True(t, snap.PanelOpen)
	assert.Equal(t, "card highlighted", snap.Selection.ClassName)
	assert.Equal(t, "4px", snap.Selection.ComputedStyles["padding"])

	edited, err := b.ApplyProperty(ctx, types.PropertyEditRequest{Property: "padding", RawValue: "20"})
	require.NoError(t, err)
	assert.Equal(t, ".card { padding: 20px; }", edited.Component.CSS)
	assert.NotEqual(t, snap.Generation, edited.Generation)
	require.NotNil(t, edited.Selection, "selection survives rebuilds")

	same, err := b.ApplyProperty(ctx, types.PropertyEditRequest{Property: "padding", RawValue: "20"})
	require.NoError(t, err)
	assert.Equal(t, edited.Generation, same.Generation)

	cleared, err := b.Deselect(ctx)
	require.NoError(t, err)
	assert.Nil(t, cleared.Selection)
	assert.False(t, cleared.PanelOpen)
}

func TestApplyPropertyErrors(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	snap, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX})
	require.NoError(t, err)

	_, err = b.ApplyProperty(ctx, types.PropertyEditRequest{RawValue: "1"})
	assert.Equal(t, jsxerrors.ErrorTypeValidation, jsxerrors.TypeOf(err))

	_, err = b.ApplyProperty(ctx, types.PropertyEditRequest{Property: "color", RawValue: "red"})
	var jerr *jsxerrors.JSXLiveError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jsxerrors.ErrCodeNoSelection, jerr.Code)

	require.True(t, b.Deliver(selectedMessage(snap.Generation, "")))
	waitFor(t, b, func(s Snapshot) bool { return s.Selection != nil })

	_, err = b.ApplyProperty(ctx, types.PropertyEditRequest{Property: "color", RawValue: "red"})
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jsxerrors.ErrCodeNoClassName, jerr.Code)
}

func TestClearSession(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	snap, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX, CSS: ".card {}"})
	require.NoError(t, err)
	require.True(t, b.Deliver(selectedMessage(snap.Generation, "card")))
	waitFor(t, b, func(s Snapshot) bool { return s.Selection != nil })

	snap, err = b.ClearSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, StateEmpty, snap.State)
	assert.True(t, snap.Component.IsEmpty())
	assert.Empty(t, snap.Component.CSS)
	assert.Nil(t, snap.Selection)
}

func TestSetShowGrid(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	snap, err := b.SetShowGrid(ctx, true)
	require.NoError(t, err)
	assert.Equal(t, "gen-1", snap.Generation)

	snap, err = b.SetShowGrid(ctx, false)
	require.NoError(t, err)
	assert.False(t, snap.ShowGrid)
	assert.Equal(t, "gen-2", snap.Generation)
	assert.NotContains(t, snap.Document, "radial-gradient")
}

func TestSubscribeReceivesEvents(t *testing.T) {
	b := startBridge(t)
	ctx := context.Background()

	events, cancel := b.Subscribe()
	defer cancel()

	_, err := b.SetComponent(ctx, types.GeneratedComponent{JSX: cardJSX})
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventDocument, ev.Type)
		assert.Equal(t, StateRendering, ev.Snapshot.State)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	_, err = b.Deselect(ctx)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, EventClearSelection, ev.Type)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestStoppedBridge(t *testing.T) {
	b, err := New(nil, false, WithGenerations(counter()))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	events, _ := b.Subscribe()
	cancel()
	require.NoError(t, <-done)

	_, open := <-events
	assert.False(t, open)
	assert.False(t, b.Deliver(protocol.Envelope{}))

	_, err = b.Reload(context.Background())
	var jerr *jsxerrors.JSXLiveError
	require.ErrorAs(t, err, &jerr)
	assert.Equal(t, jsxerrors.ErrCodeBridgeClosed, jerr.Code)

	assert.Error(t, b.Run(context.Background()))
}
