// Package session keeps chat transcripts and the component each
// conversation produced.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/conneroisu/jsxlive/internal/types"
)

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Session is one conversation.
type Session struct {
	ID        string                   `json:"id"`
	Name      string                   `json:"name"`
	Messages  []Message                `json:"messages"`
	Component types.GeneratedComponent `json:"component"`
	CreatedAt time.Time                `json:"createdAt"`
	UpdatedAt time.Time                `json:"updatedAt"`
}

// Summary is the listing view of a session.
type Summary struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Messages  int       `json:"messages" yaml:"messages"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Store persists sessions.
type Store interface {
	Create(ctx context.Context, name string) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	List(ctx context.Context) ([]Summary, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// New creates an empty session.
func New(name string) *Session {
	now := time.Now().UTC()
	if name == "" {
		name = "Untitled session"
	}

	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Append adds a transcript entry.
func (s *Session) Append(role, content string) {
	now := time.Now().UTC()
	s.Messages = append(s.Messages, Message{Role: role, Content: content, CreatedAt: now})
	s.UpdatedAt = now
}

// Clear drops the transcript and the component.
func (s *Session) Clear() {
	s.Messages = []Message{}
	s.Component = types.GeneratedComponent{}
	s.UpdatedAt = time.Now().UTC()
}

// Summary returns the listing view.
func (s *Session) Summary() Summary {
	return Summary{ID: s.ID, Name: s.Name, Messages: len(s.Messages), UpdatedAt: s.UpdatedAt}
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	c := *s
	c.Messages = append([]Message{}, s.Messages...)

	return &c
}
