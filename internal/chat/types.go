// Package chat holds the client-side state of a dashboard's messaging pane:
// conversations, per-conversation message logs, the composer, pane
// navigation and the unread badge. None of it performs I/O; callers
// serialize access (see dashboard.Session).
package chat

import (
	"time"

	"github.com/adethefirst1/odysia/internal/status"
)

// Sender identifies who authored a message.
type Sender string

const (
	Self Sender = "self"
	Peer Sender = "peer"
)

// Conversation is a peer-scoped channel tied to a marketplace project.
type Conversation struct {
	ID                 string
	PeerName           string
	PeerPresence       status.Presence
	ProjectLabel       string
	LastMessagePreview string
	LastMessageAt      time.Time
	UnreadCount        int
}

// Message is a single entry in a conversation's log.
type Message struct {
	ID             string
	ConversationID string
	Sender         Sender
	Body           string
	Timestamp      time.Time
	Status         status.Delivery

	// Token is the transport correlation token, empty until the send is accepted.
	Token string
	// ResentFrom is the id of the failed message this one replaces.
	ResentFrom string
}

// Outgoing reports whether the message was authored locally.
func (m Message) Outgoing() bool {
	return m.Sender == Self
}
