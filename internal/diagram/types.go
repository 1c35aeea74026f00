// Package diagram defines the core domain model: a Diagram is a named,
// mutable graph entity, edited through an append-only log of conversation
// Messages. The diagram's current graph is a projection that only moves
// via explicit whole-field updates; the message log is never rewritten.
package diagram

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Node types produced by the generative model. The engine moves node
// payloads opaquely; the tags matter only to validity checks and clients.
const (
	NodeTask     = "task"
	NodeDecision = "decision"
	NodeGateway  = "gateway"
	NodeEvent    = "event"
	NodeTimer    = "timer"
)

// Node is one element of a graph payload. Children reference other node
// ids and implicitly define directed parent→child edges.
type Node struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Data     json.RawMessage `json:"data"`
	Children []string        `json:"children,omitempty"`
}

// Diagram is the named container of graph data plus ordered messages.
// Data holds the most recently accepted graph payload; it is empty until
// the first generation and changes only via explicit updates.
type Diagram struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data,omitempty"`
	Summary   string          `json:"summary,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
	Messages  []Message       `json:"messages,omitempty"`
}

// Message is one immutable turn in a diagram's conversation. Data is set
// only on turns that carried a concrete graph snapshot. CreatedAt defines
// the total order of turns within a diagram.
type Message struct {
	ID        uuid.UUID       `json:"id"`
	DiagramID uuid.UUID       `json:"diagramId"`
	Role      Role            `json:"role"`
	Content   string          `json:"content"`
	Data      json.RawMessage `json:"data,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// HasData reports whether the message carries a graph snapshot.
func (m Message) HasData() bool {
	return len(m.Data) > 0 && string(m.Data) != "null"
}

// ListItem is the projection returned by diagram listings.
type ListItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	Summary   string    `json:"summary,omitempty"`
}

// Version is a read-only projection of a historical message that carried
// a graph snapshot. It is derived on demand, never persisted separately;
// the message id acts as the version identifier.
type Version struct {
	DiagramID uuid.UUID       `json:"id"`
	MessageID uuid.UUID       `json:"version"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"createdAt"`
}
