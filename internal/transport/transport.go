// Package transport connects a dashboard to the messaging backend.
package transport

import (
	"context"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
)

// Sender hands a message to the backend and returns the correlation token
// that later delivery updates carry.
type Sender interface {
	SendMessage(ctx context.Context, conversationID, body string) (token string, err error)
}

// ReadMarker tells the backend the user has seen a conversation.
type ReadMarker interface {
	MarkRead(ctx context.Context, conversationID string) error
}

// Directory loads the backend's current conversations and history.
type Directory interface {
	ListConversations(ctx context.Context) ([]chat.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error)
}

// Event kinds published on the dashboard bus.
const (
	KindInbound      = rpc.KindInbound
	KindDelivery     = rpc.KindDelivery
	KindPresence     = rpc.KindPresence
	KindConversation = rpc.KindConversation
)

// Inbound is the payload of KindInbound.
type Inbound struct {
	ConversationID string
	Message        chat.Message
}

// Delivery is the payload of KindDelivery.
type Delivery struct {
	Token   string
	Outcome status.Delivery
	Error   string
}

// Presence is the payload of KindPresence.
type Presence struct {
	ConversationID string
	Presence       status.Presence
}

// Established is the payload of KindConversation.
type Established struct {
	Conversation chat.Conversation
}
