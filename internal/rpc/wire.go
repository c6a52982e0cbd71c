package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// Event kinds carried on the WatchEvents stream. The backend publishes them
// on its bus under the same names.
const (
	KindInbound      = "transport.inbound"
	KindDelivery     = "transport.delivery"
	KindPresence     = "transport.presence"
	KindConversation = "transport.conversation"
)

// Conversation is the wire form of a conversation.
type Conversation struct {
	ID                 string    `json:"id"`
	PeerName           string    `json:"peer_name"`
	PeerPresence       string    `json:"peer_presence"`
	ProjectLabel       string    `json:"project_label"`
	UnreadCount        int       `json:"unread_count"`
	LastMessageAt      time.Time `json:"last_message_at"`
	LastMessagePreview string    `json:"last_message_preview"`
}

// Message is the wire form of a message. Token is set on messages that
// were sent through SendMessage.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Sender         string    `json:"sender"`
	Body           string    `json:"body"`
	Status         string    `json:"status"`
	Token          string    `json:"token,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

type ListConversationsResponse struct {
	Conversations []Conversation `json:"conversations"`
}

type ListMessagesRequest struct {
	ConversationID string `json:"conversation_id"`
	Limit          int    `json:"limit,omitempty"`
}

type ListMessagesResponse struct {
	Messages []Message `json:"messages"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversation_id"`
	Body           string `json:"body"`
}

// SendMessageResponse carries the correlation token later delivery updates
// refer to.
type SendMessageResponse struct {
	Token string `json:"token"`
}

// InjectInboundRequest simulates a peer message. A PeerName establishes the
// conversation if it does not exist yet.
type InjectInboundRequest struct {
	ConversationID string `json:"conversation_id"`
	Body           string `json:"body"`
	MessageID      string `json:"message_id,omitempty"`
	PeerName       string `json:"peer_name,omitempty"`
	ProjectLabel   string `json:"project_label,omitempty"`
}

type SetPresenceRequest struct {
	ConversationID string `json:"conversation_id"`
	Presence       string `json:"presence"`
}

// MarkReadRequest tells the backend the user has seen a conversation.
type MarkReadRequest struct {
	ConversationID string `json:"conversation_id"`
}

type StatusResponse struct {
	Session       string `json:"session"`
	Role          string `json:"role"`
	Conversations int    `json:"conversations"`
	Messages      int    `json:"messages"`
	PendingSends  int    `json:"pending_sends"`
	Watchers      int    `json:"watchers"`
	UptimeMs      int64  `json:"uptime_ms"`
}

type DeliveryUpdate struct {
	Token   string `json:"token"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

type PresenceUpdate struct {
	ConversationID string `json:"conversation_id"`
	Presence       string `json:"presence"`
}

// Event is one entry of the WatchEvents stream. Exactly one payload field
// is set, matching Kind.
type Event struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Inbound      *Message        `json:"inbound,omitempty"`
	Delivery     *DeliveryUpdate `json:"delivery,omitempty"`
	Presence     *PresenceUpdate `json:"presence,omitempty"`
	Conversation *Conversation   `json:"conversation,omitempty"`
}

// Encode converts a wire struct into a protobuf Struct.
func Encode(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("encode %T: %w", v, err)
	}
	return s, nil
}

// Decode fills v from a protobuf Struct.
func Decode(s *structpb.Struct, v any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}
