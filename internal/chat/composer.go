package chat

import "strings"

// EditKey is a composer keystroke with a defined meaning.
type EditKey int

const (
	// KeyCommit submits the draft without inserting a newline.
	KeyCommit EditKey = iota
	// KeyNewline inserts a line break so multi-line messages stay possible.
	KeyNewline
)

// ComposerState is a read-only snapshot of the composer.
type ComposerState struct {
	ConversationID string
	Draft          string
}

// Composer holds the outgoing text for the selected conversation.
// The draft is not kept per conversation: retargeting discards it.
type Composer struct {
	threads        *ThreadStore
	conversationID string
	draft          string
}

// NewComposer creates a composer that appends into threads.
func NewComposer(threads *ThreadStore) *Composer {
	return &Composer{threads: threads}
}

// Target points the composer at a conversation, dropping any draft typed
// for a different one.
func (c *Composer) Target(conversationID string) {
	if conversationID == c.conversationID {
		return
	}
	c.conversationID = conversationID
	c.draft = ""
}

// UpdateDraft stores text exactly as typed.
func (c *Composer) UpdateDraft(text string) {
	c.draft = text
}

// Reset discards the draft.
func (c *Composer) Reset() {
	c.draft = ""
}

// State returns a snapshot.
func (c *Composer) State() ComposerState {
	return ComposerState{ConversationID: c.conversationID, Draft: c.draft}
}

// Submit sends the trimmed draft. A blank draft is a no-op that returns a
// nil message and no error. On success the draft is cleared and the
// optimistic message is returned.
func (c *Composer) Submit() (*Message, error) {
	body := strings.TrimSpace(c.draft)
	if body == "" {
		return nil, nil
	}
	if c.conversationID == "" {
		return nil, ErrNoConversation
	}
	m, err := c.threads.AppendOptimistic(c.conversationID, body)
	if err != nil {
		return nil, err
	}
	c.draft = ""
	return &m, nil
}

// Press applies a keystroke. Only KeyCommit can produce a message.
func (c *Composer) Press(k EditKey) (*Message, error) {
	switch k {
	case KeyNewline:
		c.draft += "\n"
		return nil, nil
	case KeyCommit:
		return c.Submit()
	}
	return nil, nil
}
