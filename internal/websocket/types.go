package websocket

import (
	"time"

	"github.com/conneroisu/jsxlive/internal/bridge"
	"github.com/conneroisu/jsxlive/internal/protocol"
)

// Bridge is the preview state the hub relays between host pages and the
// sandbox message mailbox.
type Bridge interface {
	Snapshot() bridge.Snapshot
	Deliver(env protocol.Envelope) bool
	Subscribe() (<-chan bridge.Event, func())
}

// UpdateMessage is sent to the host page after every preview state change.
type UpdateMessage struct {
	Type       bridge.EventType  `json:"type"`
	Generation string            `json:"generation"`
	Document   string            `json:"document,omitempty"`
	State      bridge.Snapshot   `json:"state"`
	Command    *protocol.Message `json:"command,omitempty"`
	Timestamp  time.Time         `json:"timestamp"`
}

// NewUpdateMessage converts a bridge event into its wire form. Document
// events carry the new sandbox document and clear-selection events carry the
// command the host page forwards into the frame.
func NewUpdateMessage(ev bridge.Event) UpdateMessage {
	msg := UpdateMessage{
		Type:       ev.Type,
		Generation: ev.Snapshot.Generation,
		State:      ev.Snapshot,
		Timestamp:  ev.Snapshot.UpdatedAt,
	}

	switch ev.Type {
	case bridge.EventDocument:
		msg.Document = ev.Snapshot.Document
	case bridge.EventClearSelection:
		cmd := protocol.ClearSelection(ev.Snapshot.Generation)
		msg.Command = &cmd
	}

	return msg
}
