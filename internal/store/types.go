package store

// Conversation is a backend conversation record.
type Conversation struct {
	ID                 string
	PeerName           string
	PeerPresence       string
	ProjectLabel       string
	UnreadCount        int
	LastMessageAt      int64 // unix ms
	LastMessagePreview string
}

// Message is a stored message. Sender is "self" or "peer".
type Message struct {
	ID             int64
	ConversationID string
	MsgID          string
	Sender         string
	Body           string
	Status         string
	Token          string
	Timestamp      int64 // unix ms
}

// OutboxEntry represents a send that has not reached a final status.
type OutboxEntry struct {
	ID             int64
	Token          string
	ConversationID string
	Body           string
	Status         string // queued, sent, delivered, read, failed
	ErrorMessage   string
	MsgID          string
}
