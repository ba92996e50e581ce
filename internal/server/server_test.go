package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/jsxlive/internal/bridge"
	"github.com/conneroisu/jsxlive/internal/config"
	"github.com/conneroisu/jsxlive/internal/generator"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/session"
	"github.com/conneroisu/jsxlive/internal/types"
	"github.com/conneroisu/jsxlive/internal/watcher"
)

const cardJSX = `function Card() { return <div className="card">Hi</div>; }`

type fakeGenerator struct {
	mu       sync.Mutex
	requests []generator.Request
	reply    string
}

func (f *fakeGenerator) Name() string { return "fake" }

func (f *fakeGenerator) Generate(_ context.Context, req generator.Request) (*generator.Result, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	ex := generator.Extract(f.reply)
	if ex.JSX == "" {
		return &generator.Result{Reply: f.reply, Component: req.Current}, nil
	}

	return &generator.Result{
		Reply:     f.reply,
		Component: types.GeneratedComponent{JSX: ex.JSX, CSS: ex.CSS},
		Changed:   true,
	}, nil
}

type harness struct {
	srv    *PreviewServer
	bridge *bridge.Bridge
	store  session.Store
	ts     *httptest.Server
}

func newHarness(t *testing.T, deps Deps) *harness {
	t.Helper()

	b, err := bridge.New(sandbox.NewBuilder(), true)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	deps.Bridge = b
	if deps.Store == nil {
		deps.Store = session.NewMemoryStore()
	}
	srv, err := New(ctx, config.Default(), deps)
	require.NoError(t, err)

	ts := httptest.NewServer(srv)
	t.Cleanup(func() {
		ts.Close()
		shutdownCtx, stop := context.WithTimeout(context.Background(), time.Second)
		defer stop()
		assert.NoError(t, srv.Shutdown(shutdownCtx))
		cancel()
		assert.NoError(t, <-done)
	})

	return &harness{srv: srv, bridge: b, store: deps.Store, ts: ts}
}

func (h *harness) call(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()

	var reader io.Reader
	switch v := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(v)
	default:
		data, err := json.Marshal(v)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	require.NoError(t, err)
	resp, err := h.ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, data
}

func (h *harness) snapshot(t *testing.T, method, path string, body interface{}) bridge.Snapshot {
	t.Helper()

	status, data := h.call(t, method, path, body)
	require.Equal(t, http.StatusOK, status, string(data))

	var snap bridge.Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))

	return snap
}

func (h *harness) selectCard(t *testing.T) {
	t.Helper()

	gen := h.bridge.Snapshot().Generation
	require.True(t, h.bridge.Deliver(protocol.Envelope{
		Generation: gen,
		Message: protocol.Message{
			Type:       protocol.MessageElementSelected,
			Generation: gen,
			Element: &protocol.ElementPayload{
				Type: "div", TagName: "DIV", ClassName: "card",
				Styles: map[string]string{"padding": "4px", "color": "rgb(255, 0, 0)"},
			},
		},
	}))
	require.Eventually(t, func() bool { return h.bridge.Snapshot().Selection != nil }, time.Second, 5*time.Millisecond)
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()

	var body errorBody
	require.NoError(t, json.Unmarshal(data, &body), string(data))

	return body.Error.Code
}

func TestHostAndHealth(t *testing.T) {
	h := newHarness(t, Deps{})

	resp, err := h.ts.Client().Get(h.ts.URL + "/")
	require.NoError(t, err)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Contains(t, string(page), `sandbox="allow-scripts"`)
	assert.Contains(t, string(page), "event.source !== frame.contentWindow")
	assert.Contains(t, string(page), "No generator is configured.")

	status, data := h.call(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, status)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "empty", health["state"])
}

func TestPreviewDocument(t *testing.T) {
	h := newHarness(t, Deps{})

	resp, err := h.ts.Client().Get(h.ts.URL + "/preview")
	require.NoError(t, err)
	doc, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "text/html; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Empty(t, resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, h.bridge.Snapshot().Generation, resp.Header.Get("X-JSXLive-Generation"))
	assert.Contains(t, string(doc), "Start a conversation with AI to generate your component")
}

func TestSetComponentAndState(t *testing.T) {
	h := newHarness(t, Deps{})

	snap := h.snapshot(t, http.MethodPut, "/api/component", map[string]string{"jsx": cardJSX, "css": ".card { color: red; }"})
	assert.Equal(t, bridge.StateRendering, snap.State)
	assert.Equal(t, "Card", snap.ComponentName)

	require.True(t, h.bridge.Deliver(protocol.Envelope{
		Generation: snap.Generation,
		Message:    protocol.Message{Type: protocol.MessagePreviewReady, Generation: snap.Generation},
	}))
	require.Eventually(t, func() bool {
		return h.snapshot(t, http.MethodGet, "/api/state", nil).State == bridge.StateReady
	}, time.Second, 10*time.Millisecond)

	status, data := h.call(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, status)
	var tr transcript
	require.NoError(t, json.Unmarshal(data, &tr))
	assert.Equal(t, cardJSX, tr.Component.JSX)
}

func TestDisplayReloadDeselect(t *testing.T) {
	h := newHarness(t, Deps{})
	first := h.snapshot(t, http.MethodPut, "/api/component", map[string]string{"jsx": cardJSX})

	snap := h.snapshot(t, http.MethodPut, "/api/display", map[string]bool{"showGrid": false})
	assert.False(t, snap.ShowGrid)
	assert.NotEqual(t, first.Generation, snap.Generation)

	reloaded := h.snapshot(t, http.MethodPost, "/api/reload", nil)
	assert.NotEqual(t, snap.Generation, reloaded.Generation)

	h.selectCard(t)
	cleared := h.snapshot(t, http.MethodDelete, "/api/selection", nil)
	assert.Nil(t, cleared.Selection)
	assert.False(t, cleared.PanelOpen)
}

func TestPropertyEditsWriteBack(t *testing.T) {
	dir := t.TempDir()
	files := &watcher.ComponentFiles{JSX: filepath.Join(dir, "Card.jsx"), CSS: filepath.Join(dir, "card.css")}
	require.NoError(t, os.WriteFile(files.JSX, []byte(cardJSX), 0o644))
	require.NoError(t, os.WriteFile(files.CSS, []byte(".card { padding: 4px; }"), 0o644))

	h := newHarness(t, Deps{Files: files})
	require.NoError(t, h.srv.Restore(context.Background()))
	h.selectCard(t)

	status, data := h.call(t, http.MethodGet, "/api/properties", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	var panel bridge.Panel
	require.NoError(t, json.Unmarshal(data, &panel))
	assert.Equal(t, ".card", panel.Target)
	assert.True(t, panel.Editable)

	snap := h.snapshot(t, http.MethodPost, "/api/properties", types.PropertyEditRequest{Property: "padding", RawValue: "20"})
	assert.Equal(t, ".card { padding: 20px; }", snap.Component.CSS)

	written, err := os.ReadFile(files.CSS)
	require.NoError(t, err)
	assert.Equal(t, ".card { padding: 20px; }", string(written))
}

func TestRequestErrors(t *testing.T) {
	h := newHarness(t, Deps{})

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"panel without selection", http.MethodGet, "/api/properties", nil, http.StatusBadRequest, "ERR_NO_SELECTION"},
		{"edit without selection", http.MethodPost, "/api/properties", types.PropertyEditRequest{Property: "color", RawValue: "red"}, http.StatusBadRequest, "ERR_NO_SELECTION"},
		{"edit without property", http.MethodPost, "/api/properties", types.PropertyEditRequest{RawValue: "red"}, http.StatusBadRequest, "ERR_INVALID_REQUEST"},
		{"malformed json", http.MethodPut, "/api/component", `{"jsx":`, http.StatusBadRequest, "ERR_INVALID_REQUEST"},
		{"unknown field", http.MethodPut, "/api/component", `{"tsx":"x"}`, http.StatusBadRequest, "ERR_INVALID_REQUEST"},
		{"trailing data", http.MethodPut, "/api/display", `{"showGrid":true}{}`, http.StatusBadRequest, "ERR_INVALID_REQUEST"},
		{"chat disabled", http.MethodPost, "/api/chat", map[string]string{"message": "hi"}, http.StatusConflict, "ERR_GENERATOR_DISABLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, data := h.call(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, status, string(data))
			assert.Equal(t, tt.code, errorCode(t, data))
		})
	}

	status, _ := h.call(t, http.MethodGet, "/api/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChatTurns(t *testing.T) {
	gen := &fakeGenerator{reply: "Here you go.\n\n```jsx\n" + cardJSX + "\n```\n\n```css\n.card { color: blue; }\n```"}
	h := newHarness(t, Deps{Generator: gen})

	status, data := h.call(t, http.MethodPost, "/api/chat", chatRequest{Message: "a card", ElementScoped: true})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ERR_NO_SELECTION", errorCode(t, data))

	status, data = h.call(t, http.MethodPost, "/api/chat", chatRequest{Message: "   "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "ERR_INVALID_REQUEST", errorCode(t, data))

	status, data = h.call(t, http.MethodPost, "/api/chat", chatRequest{Message: "a card"})
	require.Equal(t, http.StatusOK, status, string(data))
	var resp chatResponse
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Changed)
	assert.Equal(t, cardJSX, resp.State.Component.JSX)
	assert.Equal(t, ".card { color: blue; }", resp.State.Component.CSS)
	assert.Contains(t, resp.HTML, "<pre>")

	h.selectCard(t)
	gen.reply = "Made it bolder."
	status, data = h.call(t, http.MethodPost, "/api/chat", chatRequest{Message: "make it bold", ElementScoped: true})
	require.Equal(t, http.StatusOK, status, string(data))
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.False(t, resp.Changed)

	gen.mu.Lock()
	require.Len(t, gen.requests, 2)
	second := gen.requests[1]
	gen.mu.Unlock()
	assert.Equal(t, `Update the div element with className "card" to: make it bold`, second.Prompt)
	assert.Len(t, second.History, 2)
	assert.Equal(t, cardJSX, second.Current.JSX)

	status, data = h.call(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, status)
	var tr transcript
	require.NoError(t, json.Unmarshal(data, &tr))
	require.Len(t, tr.Messages, 4)
	assert.Equal(t, "user", tr.Messages[0].Role)
	assert.Empty(t, tr.Messages[0].HTML)
	assert.Equal(t, "assistant", tr.Messages[1].Role)
	assert.NotEmpty(t, tr.Messages[1].HTML)
	assert.Equal(t, "fake", tr.Generator)
}

func TestClearSession(t *testing.T) {
	gen := &fakeGenerator{reply: "```jsx\n" + cardJSX + "\n```"}
	h := newHarness(t, Deps{Generator: gen})

	status, _ := h.call(t, http.MethodPost, "/api/chat", chatRequest{Message: "a card"})
	require.Equal(t, http.StatusOK, status)

	snap := h.snapshot(t, http.MethodDelete, "/api/session", nil)
	assert.Equal(t, bridge.StateEmpty, snap.State)
	assert.True(t, snap.Component.IsEmpty())

	sess, err := h.store.Get(context.Background(), h.srv.SessionID())
	require.NoError(t, err)
	assert.Empty(t, sess.Messages)
}

func TestResumeSession(t *testing.T) {
	store := session.NewMemoryStore()
	sess, err := store.Create(context.Background(), "resumed")
	require.NoError(t, err)
	sess.Component = types.GeneratedComponent{JSX: cardJSX}
	require.NoError(t, store.Save(context.Background(), sess))

	h := newHarness(t, Deps{Store: store, SessionID: sess.ID})
	require.NoError(t, h.srv.Restore(context.Background()))

	assert.Equal(t, sess.ID, h.srv.SessionID())
	assert.Equal(t, "Card", h.bridge.Snapshot().ComponentName)

	_, err = New(context.Background(), config.Default(), Deps{Bridge: h.bridge, Store: store, SessionID: "missing"})
	assert.Error(t, err)
}
