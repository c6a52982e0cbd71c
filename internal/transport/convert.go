package transport

import (
	"fmt"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
)

func conversationFromWire(c rpc.Conversation) chat.Conversation {
	p, err := status.ParsePresence(c.PeerPresence)
	if err != nil {
		p = status.Offline
	}
	return chat.Conversation{
		ID:                 c.ID,
		PeerName:           c.PeerName,
		PeerPresence:       p,
		ProjectLabel:       c.ProjectLabel,
		LastMessagePreview: c.LastMessagePreview,
		LastMessageAt:      c.LastMessageAt,
		UnreadCount:        c.UnreadCount,
	}
}

func messageFromWire(m rpc.Message) chat.Message {
	return chat.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         chat.Sender(m.Sender),
		Body:           m.Body,
		Timestamp:      m.Timestamp,
		Status:         status.Delivery(m.Status),
		Token:          m.Token,
	}
}

// eventFromWire maps a stream event to a bus kind and payload.
func eventFromWire(evt rpc.Event) (string, any, error) {
	switch {
	case evt.Kind == KindInbound && evt.Inbound != nil:
		m := messageFromWire(*evt.Inbound)
		return KindInbound, Inbound{ConversationID: m.ConversationID, Message: m}, nil
	case evt.Kind == KindDelivery && evt.Delivery != nil:
		outcome, err := status.ParseDelivery(evt.Delivery.Outcome)
		if err != nil {
			return "", nil, err
		}
		return KindDelivery, Delivery{Token: evt.Delivery.Token, Outcome: outcome, Error: evt.Delivery.Error}, nil
	case evt.Kind == KindPresence && evt.Presence != nil:
		p, err := status.ParsePresence(evt.Presence.Presence)
		if err != nil {
			return "", nil, err
		}
		return KindPresence, Presence{ConversationID: evt.Presence.ConversationID, Presence: p}, nil
	case evt.Kind == KindConversation && evt.Conversation != nil:
		return KindConversation, Established{Conversation: conversationFromWire(*evt.Conversation)}, nil
	}
	return "", nil, fmt.Errorf("malformed %q event", evt.Kind)
}
