package chat

import (
	"errors"
	"slices"
	"strings"

	"github.com/adethefirst1/odysia/internal/status"
)

// previewLimit caps the stored last-message preview, in runes.
const previewLimit = 100

// ConversationStore holds every conversation of a dashboard and which one
// is selected.
type ConversationStore struct {
	threads   *ThreadStore
	convs     map[string]*Conversation
	selected  string
	observers []func()
}

// NewConversationStore creates a store that appends messages into threads.
func NewConversationStore(threads *ThreadStore) *ConversationStore {
	return &ConversationStore{
		threads: threads,
		convs:   make(map[string]*Conversation),
	}
}

// OnChange registers fn to run after every mutation.
func (s *ConversationStore) OnChange(fn func()) {
	s.observers = append(s.observers, fn)
}

func (s *ConversationStore) notify() {
	for _, fn := range s.observers {
		fn()
	}
}

// Upsert records a newly established conversation or refreshes the peer
// and project fields of a known one. The unread count of a known
// conversation is owned by the store and never overwritten.
func (s *ConversationStore) Upsert(c Conversation) error {
	if c.ID == "" {
		return errors.New("conversation id is required")
	}
	if c.PeerPresence == "" {
		c.PeerPresence = status.Offline
	}
	c.LastMessagePreview = truncate(c.LastMessagePreview, previewLimit)

	existing, ok := s.convs[c.ID]
	if !ok {
		c.UnreadCount = max(c.UnreadCount, 0)
		s.convs[c.ID] = &c
		s.threads.open(c.ID)
		s.notify()
		return nil
	}
	existing.PeerName = c.PeerName
	existing.PeerPresence = c.PeerPresence
	existing.ProjectLabel = c.ProjectLabel
	if c.LastMessageAt.After(existing.LastMessageAt) {
		existing.LastMessageAt = c.LastMessageAt
		existing.LastMessagePreview = c.LastMessagePreview
	}
	s.notify()
	return nil
}

// Get returns a snapshot of one conversation.
func (s *ConversationStore) Get(id string) (Conversation, error) {
	c, ok := s.convs[id]
	if !ok {
		return Conversation{}, conversationNotFound(id)
	}
	return *c, nil
}

// List returns the conversations whose peer name or project label contains
// filter (case-insensitive), most recent first with ties broken by id.
func (s *ConversationStore) List(filter string) []Conversation {
	q := strings.ToLower(filter)
	out := make([]Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		if q != "" &&
			!strings.Contains(strings.ToLower(c.PeerName), q) &&
			!strings.Contains(strings.ToLower(c.ProjectLabel), q) {
			continue
		}
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Conversation) int {
		if c := b.LastMessageAt.Compare(a.LastMessageAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// Selected returns the id of the active conversation, or "".
func (s *ConversationStore) Selected() string {
	return s.selected
}

// Select makes id the active conversation, zeroes its unread count and
// marks its peer messages read.
func (s *ConversationStore) Select(id string) error {
	c, ok := s.convs[id]
	if !ok {
		return conversationNotFound(id)
	}
	s.selected = id
	c.UnreadCount = 0
	if _, err := s.threads.MarkRead(id); err != nil {
		return err
	}
	s.notify()
	return nil
}

// ApplyInboundMessage appends a peer message to the conversation's log.
// The unread count grows by one unless the conversation is selected, in
// which case the message is read on arrival. A redelivered message id is
// ignored.
func (s *ConversationStore) ApplyInboundMessage(id string, msg Message) (Message, error) {
	c, ok := s.convs[id]
	if !ok {
		return Message{}, conversationNotFound(id)
	}
	stored, added, err := s.threads.appendInbound(id, msg)
	if err != nil || !added {
		return stored, err
	}
	s.touch(c, stored)
	if id == s.selected {
		if _, err := s.threads.Reconcile(stored.ID, status.Read); err != nil {
			return stored, err
		}
		stored.Status = status.Read
	} else {
		c.UnreadCount++
	}
	s.notify()
	return stored, nil
}

// RecordOutbound refreshes the conversation preview after a local send.
func (s *ConversationStore) RecordOutbound(msg Message) error {
	c, ok := s.convs[msg.ConversationID]
	if !ok {
		return conversationNotFound(msg.ConversationID)
	}
	s.touch(c, msg)
	s.notify()
	return nil
}

// SetPresence updates the peer's availability.
func (s *ConversationStore) SetPresence(id string, p status.Presence) error {
	c, ok := s.convs[id]
	if !ok {
		return conversationNotFound(id)
	}
	if _, err := status.ParsePresence(string(p)); err != nil {
		return err
	}
	c.PeerPresence = p
	s.notify()
	return nil
}

func (s *ConversationStore) touch(c *Conversation, m Message) {
	if m.Timestamp.Before(c.LastMessageAt) {
		return
	}
	c.LastMessageAt = m.Timestamp
	c.LastMessagePreview = truncate(m.Body, previewLimit)
}

func truncate(s string, maxRunes int) string {
	if len(s) <= maxRunes {
		return s
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes])
}
