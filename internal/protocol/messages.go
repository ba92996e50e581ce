// Package protocol defines the messages exchanged between the preview
// sandbox, the host page and the bridge.
package protocol

import (
	"unicode/utf8"

	"github.com/conneroisu/jsxlive/internal/types"
)

// MessageType discriminates sandbox messages.
type MessageType string

const (
	// MessagePreviewReady is posted once the initial render mounts without error.
	MessagePreviewReady MessageType = "PREVIEW_READY"
	// MessagePreviewError is posted for uncaught errors after the initial render.
	MessagePreviewError MessageType = "PREVIEW_ERROR"
	// MessageElementSelected is posted for every intercepted click.
	MessageElementSelected MessageType = "ELEMENT_SELECTED"
	// MessageClearSelection is sent from the host to drop the selected marker.
	MessageClearSelection MessageType = "CLEAR_SELECTION"
)

// Limits caps the free-text fields of sandbox messages, in characters.
type Limits struct {
	Error       int `json:"error"`
	Stack       int `json:"stack"`
	ClassName   int `json:"className"`
	StyleValue  int `json:"styleValue"`
	TextContent int `json:"textContent"`
}

// PayloadLimits is enforced by EnvelopeSchema. The sandbox shortens its
// messages to fit before posting them.
var PayloadLimits = Limits{
	Error:       8192,
	Stack:       65536,
	ClassName:   2048,
	StyleValue:  512,
	TextContent: 4096,
}

// Clip shortens s to at most limit characters.
func Clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	n := 0
	for i := range s {
		if n == limit {
			return s[:i]
		}
		n++
	}

	return s
}

// ElementPayload is the selection payload built inside the sandbox.
type ElementPayload struct {
	Type        string            `json:"type"`
	TagName     string            `json:"tagName"`
	ClassName   string            `json:"className"`
	Styles      map[string]string `json:"styles,omitempty"`
	TextContent string            `json:"textContent,omitempty"`
}

// SelectedElement converts the payload into host selection state.
func (p ElementPayload) SelectedElement() types.SelectedElement {
	styles := make(types.StyleMap, len(p.Styles))
	for k, v := range p.Styles {
		styles[k] = v
	}

	return types.SelectedElement{
		Type:           p.Type,
		TagName:        p.TagName,
		ClassName:      p.ClassName,
		ComputedStyles: styles,
		TextContent:    p.TextContent,
	}
}

// Message is one tagged sandbox message.
type Message struct {
	Type       MessageType     `json:"type"`
	Generation string          `json:"generation,omitempty"`
	Error      string          `json:"error,omitempty"`
	Stack      string          `json:"stack,omitempty"`
	Element    *ElementPayload `json:"element,omitempty"`
}

// Envelope is what the host page forwards to the bridge: the message plus
// the generation of the document that was live when it arrived.
type Envelope struct {
	Generation string  `json:"generation"`
	Message    Message `json:"message"`
}

// ClearSelection builds the host to sandbox command that removes the marker.
func ClearSelection(generation string) Message {
	return Message{Type: MessageClearSelection, Generation: generation}
}
