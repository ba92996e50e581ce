package bridge

import (
	"time"

	"github.com/conneroisu/jsxlive/internal/types"
)

// State is the lifecycle state of the current preview generation.
type State string

const (
	// StateEmpty means there is no component source to render.
	StateEmpty State = "empty"
	// StateRendering means a document was assigned and the sandbox has not
	// reported back yet.
	StateRendering State = "rendering"
	// StateReady means the sandbox finished its initial render.
	StateReady State = "ready"
	// StateError means the sandbox reported a runtime failure after render.
	StateError State = "error"
)

// PreviewError is the last runtime failure reported by the sandbox.
type PreviewError struct {
	Message string `json:"message"`
	Stack   string `json:"stack,omitempty"`
}

// Snapshot is an immutable view of the preview state.
type Snapshot struct {
	Generation    string                   `json:"generation"`
	State         State                    `json:"state"`
	Component     types.GeneratedComponent `json:"component"`
	ShowGrid      bool                     `json:"showGrid"`
	ComponentName string                   `json:"componentName,omitempty"`
	Document      string                   `json:"-"`
	Selection     *types.SelectedElement   `json:"selection,omitempty"`
	PanelOpen     bool                     `json:"panelOpen"`
	Error         *PreviewError            `json:"error,omitempty"`
	ErrorVisible  bool                     `json:"errorVisible"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

// EventType identifies a bridge notification.
type EventType string

const (
	EventDocument       EventType = "document"
	EventState          EventType = "state"
	EventSelection      EventType = "selection"
	EventClearSelection EventType = "clear_selection"
	EventError          EventType = "error"
)

// Event is sent to subscribers after every state change.
type Event struct {
	Type     EventType `json:"type"`
	Snapshot Snapshot  `json:"snapshot"`
}
