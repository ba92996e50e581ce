// Package bridge owns the host-side preview state. A single actor goroutine
// applies commands and sandbox messages in arrival order, so a message from a
// superseded document generation is discarded by the same goroutine that
// swapped generations.
package bridge

import (
	"context"
	"crypto/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	jsxerrors "github.com/conneroisu/jsxlive/internal/errors"
	"github.com/conneroisu/jsxlive/internal/logging"
	"github.com/conneroisu/jsxlive/internal/protocol"
	"github.com/conneroisu/jsxlive/internal/sandbox"
	"github.com/conneroisu/jsxlive/internal/stylesheet"
	"github.com/conneroisu/jsxlive/internal/types"
)

const (
	// DefaultMailboxSize is the sandbox message buffer.
	DefaultMailboxSize = 256
	subscriberBuffer   = 32
)

// Bridge is the preview state actor.
type Bridge struct {
	builder *sandbox.Builder
	logger  logging.Logger

	mailbox  chan protocol.Envelope
	commands chan command
	done     chan struct{}
	running  atomic.Bool

	current atomic.Pointer[Snapshot]
	nextGen func() string

	subsMu sync.Mutex
	subs   map[int]chan Event
	nextID int
}

type command struct {
	apply func(*Snapshot) ([]EventType, error)
	reply chan commandResult
}

type commandResult struct {
	snapshot Snapshot
	err      error
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMailboxSize sets the sandbox message buffer size.
func WithMailboxSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.mailbox = make(chan protocol.Envelope, n)
		}
	}
}

// WithGenerations replaces the generation ID source.
func WithGenerations(next func() string) Option {
	return func(b *Bridge) {
		if next != nil {
			b.nextGen = next
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) Option {
	return func(b *Bridge) {
		if logger != nil {
			b.logger = logger.WithComponent("bridge")
		}
	}
}

// New creates a bridge holding an empty component. Commands block until Run
// is called.
func New(builder *sandbox.Builder, showGrid bool, opts ...Option) (*Bridge, error) {
	if builder == nil {
		builder = sandbox.NewBuilder()
	}

	entropy := ulid.Monotonic(rand.Reader, 0)
	b := &Bridge{
		builder:  builder,
		logger:   logging.Discard(),
		mailbox:  make(chan protocol.Envelope, DefaultMailboxSize),
		commands: make(chan command),
		done:     make(chan struct{}),
		subs:     make(map[int]chan Event),
		nextGen: func() string {
			return ulid.MustNew(ulid.Now(), entropy).String()
		},
	}
	for _, opt := range opts {
		opt(b)
	}

	initial := &Snapshot{ShowGrid: showGrid}
	if err := b.rebuild(initial); err != nil {
		return nil, err
	}
	b.current.Store(initial)

	return b, nil
}

// Run processes commands and sandbox messages until ctx is cancelled.
func (b *Bridge) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return jsxerrors.NewConflictError(jsxerrors.ErrCodeInvalidRequest, "bridge is already running")
	}
	defer func() {
		close(b.done)
		b.closeSubscribers()
	}()

	b.logger.Info(ctx, "Bridge started", "generation", b.Snapshot().Generation)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info(ctx, "Bridge stopped")

			return nil
		case cmd := <-b.commands:
			b.execute(cmd)
		case env := <-b.mailbox:
			b.handleMessage(ctx, env)
		}
	}
}

// Snapshot returns the current state.
func (b *Bridge) Snapshot() Snapshot {
	return *b.current.Load()
}

// Deliver queues a sandbox message without blocking. It reports false when
// the mailbox is full or the bridge has stopped.
func (b *Bridge) Deliver(env protocol.Envelope) bool {
	select {
	case <-b.done:
		return false
	default:
	}

	select {
	case b.mailbox <- env:
		return true
	default:
		return false
	}
}

// Subscribe returns a channel of state change events and a function that
// cancels the subscription. Slow subscribers miss events rather than block
// the actor.
func (b *Bridge) Subscribe() (<-chan Event, func()) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	select {
	case <-b.done:
		close(ch)

		return ch, func() {}
	default:
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			b.subsMu.Lock()
			defer b.subsMu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub)
			}
		})
	}
}

// SetComponent replaces the component, rebuilding when the source changed.
func (b *Bridge) SetComponent(ctx context.Context, component types.GeneratedComponent) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		if s.Component.SameSource(component) {
			return nil, nil
		}
		s.Component = component

		return []EventType{EventDocument}, b.rebuild(s)
	})
}

// SetShowGrid toggles the background grid.
func (b *Bridge) SetShowGrid(ctx context.Context, show bool) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		if s.ShowGrid == show {
			return nil, nil
		}
		s.ShowGrid = show

		return []EventType{EventDocument}, b.rebuild(s)
	})
}

// Reload rebuilds the current component under a new generation.
func (b *Bridge) Reload(ctx context.Context) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		return []EventType{EventDocument}, b.rebuild(s)
	})
}

// Deselect clears the selection and closes the property panel.
func (b *Bridge) Deselect(ctx context.Context) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		s.Selection = nil
		s.PanelOpen = false

		return []EventType{EventClearSelection}, nil
	})
}

// DismissError hides the error banner. The state stays StateError.
func (b *Bridge) DismissError(ctx context.Context) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		if !s.ErrorVisible {
			return nil, nil
		}
		s.ErrorVisible = false

		return []EventType{EventState}, nil
	})
}

// ClearSession resets the preview to the empty component.
func (b *Bridge) ClearSession(ctx context.Context) (Snapshot, error) {
	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		s.Component = types.GeneratedComponent{}
		s.Selection = nil
		s.PanelOpen = false

		return []EventType{EventClearSelection, EventDocument}, b.rebuild(s)
	})
}

// ApplyProperty writes one property edit for the selected element into the
// component stylesheet.
func (b *Bridge) ApplyProperty(ctx context.Context, req types.PropertyEditRequest) (Snapshot, error) {
	if err := req.Validate(); err != nil {
		return Snapshot{}, jsxerrors.NewValidationError(jsxerrors.ErrCodeInvalidRequest, err.Error())
	}

	return b.do(ctx, func(s *Snapshot) ([]EventType, error) {
		if s.Selection == nil {
			return nil, jsxerrors.NewValidationError(jsxerrors.ErrCodeNoSelection, "no element is selected")
		}
		class := s.Selection.PrimaryClass()
		if class == "" {
			return nil, jsxerrors.NewValidationError(jsxerrors.ErrCodeNoClassName, "selected element has no class name").
				WithContext("tagName", s.Selection.TagName)
		}

		css := stylesheet.Apply(s.Component.CSS, class, req.Property, req.RawValue)
		if css == s.Component.CSS {
			return nil, nil
		}
		s.Component.CSS = css
		s.Component.LastModified = time.Now()

		return []EventType{EventDocument}, b.rebuild(s)
	})
}

func (b *Bridge) do(ctx context.Context, apply func(*Snapshot) ([]EventType, error)) (Snapshot, error) {
	cmd := command{apply: apply, reply: make(chan commandResult, 1)}

	select {
	case b.commands <- cmd:
	case <-b.done:
		return Snapshot{}, jsxerrors.NewInternalError(jsxerrors.ErrCodeBridgeClosed, "bridge has stopped", nil)
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case res := <-cmd.reply:
		return res.snapshot, res.err
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

func (b *Bridge) execute(cmd command) {
	next := b.Snapshot()
	events, err := cmd.apply(&next)
	if err != nil {
		cmd.reply <- commandResult{snapshot: b.Snapshot(), err: err}

		return
	}

	if len(events) > 0 {
		next.UpdatedAt = time.Now()
		b.current.Store(&next)
		for _, t := range events {
			b.publish(t, next)
		}
	}
	cmd.reply <- commandResult{snapshot: next}
}

func (b *Bridge) handleMessage(ctx context.Context, env protocol.Envelope) {
	s := b.Snapshot()
	if env.Generation != s.Generation {
		b.logger.Debug(ctx, "Dropped stale sandbox message",
			"type", env.Message.Type,
			"generation", env.Generation,
			"current", s.Generation)

		return
	}

	var event EventType
	switch env.Message.Type {
	case protocol.MessagePreviewReady:
		if s.State != StateRendering {
			return
		}
		s.State = StateReady
		event = EventState
	case protocol.MessagePreviewError:
		if s.State == StateEmpty {
			return
		}
		s.State = StateError
		s.Error = &PreviewError{Message: env.Message.Error, Stack: env.Message.Stack}
		s.ErrorVisible = true
		event = EventError
		b.logger.Warn(ctx, nil, "Sandbox reported runtime error", "error", env.Message.Error)
	case protocol.MessageElementSelected:
		if env.Message.Element == nil {
			return
		}
		selected := env.Message.Element.SelectedElement()
		s.Selection = &selected
		s.PanelOpen = true
		event = EventSelection
	default:
		b.logger.Debug(ctx, "Ignored sandbox message", "type", env.Message.Type)

		return
	}

	s.UpdatedAt = time.Now()
	b.current.Store(&s)
	b.publish(event, s)
}

// rebuild builds the document for s under a fresh generation.
func (b *Bridge) rebuild(s *Snapshot) error {
	generation := b.nextGen()
	doc, err := b.builder.Build(s.Component, sandbox.Options{
		ShowGrid:   s.ShowGrid,
		Generation: generation,
	})
	if err != nil {
		return jsxerrors.NewInternalError(jsxerrors.ErrCodeInternalError, "failed to build preview document", err)
	}

	s.Generation = generation
	s.Document = doc.HTML
	s.ComponentName = doc.ComponentName
	s.Error = nil
	s.ErrorVisible = false
	s.UpdatedAt = time.Now()
	if doc.Empty {
		s.State = StateEmpty
	} else {
		s.State = StateRendering
	}

	return nil
}

func (b *Bridge) publish(t EventType, s Snapshot) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- Event{Type: t, Snapshot: s}:
		default:
		}
	}
}

func (b *Bridge) closeSubscribers() {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()

	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
