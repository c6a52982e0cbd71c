package api

import (
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/store"
	"github.com/google/uuid"
)

func conversationToWire(c *store.Conversation) rpc.Conversation {
	out := rpc.Conversation{
		ID:                 c.ID,
		PeerName:           c.PeerName,
		PeerPresence:       c.PeerPresence,
		ProjectLabel:       c.ProjectLabel,
		UnreadCount:        c.UnreadCount,
		LastMessagePreview: c.LastMessagePreview,
	}
	if c.LastMessageAt > 0 {
		out.LastMessageAt = time.UnixMilli(c.LastMessageAt).UTC()
	}
	return out
}

func messageToWire(m *store.Message) rpc.Message {
	return rpc.Message{
		ID:             m.MsgID,
		ConversationID: m.ConversationID,
		Sender:         m.Sender,
		Body:           m.Body,
		Status:         m.Status,
		Token:          m.Token,
		Timestamp:      time.UnixMilli(m.Timestamp).UTC(),
	}
}

func eventToWire(evt bus.Event) (rpc.Event, bool) {
	out := rpc.Event{
		ID:         uuid.New().String(),
		Kind:       evt.Kind,
		OccurredAt: evt.Timestamp,
	}
	switch p := evt.Payload.(type) {
	case rpc.Message:
		out.Inbound = &p
	case rpc.DeliveryUpdate:
		out.Delivery = &p
	case rpc.PresenceUpdate:
		out.Presence = &p
	case rpc.Conversation:
		out.Conversation = &p
	default:
		return rpc.Event{}, false
	}
	return out, true
}
