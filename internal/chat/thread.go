package chat

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/adethefirst1/odysia/internal/status"
	"github.com/google/uuid"
)

// ThreadStore holds the message log of every known conversation.
//
// A message's position is fixed when it is inserted: logs are kept in
// (timestamp, id) order and entries never move afterwards, only their
// status changes.
type ThreadStore struct {
	logs   map[string][]*Message
	byID   map[string]*Message
	tokens map[string]string // correlation token -> local id
	resent map[string]string // failed id -> replacement id
	now    func() time.Time
	newID  func() string
}

// ThreadOption configures a ThreadStore.
type ThreadOption func(*ThreadStore)

// WithClock overrides the time source used for optimistic messages.
func WithClock(now func() time.Time) ThreadOption {
	return func(t *ThreadStore) { t.now = now }
}

// WithIDGenerator overrides local message id generation.
func WithIDGenerator(fn func() string) ThreadOption {
	return func(t *ThreadStore) { t.newID = fn }
}

// NewThreadStore creates an empty thread store.
func NewThreadStore(opts ...ThreadOption) *ThreadStore {
	t := &ThreadStore{
		logs:   make(map[string][]*Message),
		byID:   make(map[string]*Message),
		tokens: make(map[string]string),
		resent: make(map[string]string),
		now:    time.Now,
		newID:  func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// open registers a conversation so messages can be appended to it.
func (t *ThreadStore) open(conversationID string) {
	if _, ok := t.logs[conversationID]; !ok {
		t.logs[conversationID] = nil
	}
}

// MessagesFor returns the conversation's log, oldest first.
func (t *ThreadStore) MessagesFor(conversationID string) ([]Message, error) {
	log, ok := t.logs[conversationID]
	if !ok {
		return nil, conversationNotFound(conversationID)
	}
	out := make([]Message, len(log))
	for i, m := range log {
		out[i] = *m
	}
	return out, nil
}

// Get returns a single message by local id.
func (t *ThreadStore) Get(localID string) (Message, error) {
	m, ok := t.byID[localID]
	if !ok {
		return Message{}, messageNotFound(localID)
	}
	return *m, nil
}

// AppendOptimistic records a locally authored message in the sending state
// and returns it immediately, before any transport round trip.
func (t *ThreadStore) AppendOptimistic(conversationID, body string) (Message, error) {
	return t.appendOutgoing(conversationID, body, "")
}

func (t *ThreadStore) appendOutgoing(conversationID, body, resentFrom string) (Message, error) {
	log, ok := t.logs[conversationID]
	if !ok {
		return Message{}, conversationNotFound(conversationID)
	}
	m := &Message{
		ID:             t.newID(),
		ConversationID: conversationID,
		Sender:         Self,
		Body:           body,
		Timestamp:      t.stamp(log),
		Status:         status.Sending,
		ResentFrom:     resentFrom,
	}
	t.insert(m)
	return *m, nil
}

// stamp returns the current time, nudged past the log's tail so a new
// local message always lands at the end.
func (t *ThreadStore) stamp(log []*Message) time.Time {
	now := t.now()
	if n := len(log); n > 0 && !now.After(log[n-1].Timestamp) {
		now = log[n-1].Timestamp.Add(time.Nanosecond)
	}
	return now
}

// appendInbound inserts a peer message. A message whose id is already in
// the store is a duplicate delivery and is ignored; added reports which.
func (t *ThreadStore) appendInbound(conversationID string, msg Message) (stored Message, added bool, err error) {
	msg.Sender = Peer
	msg.Status = status.Received
	return t.add(conversationID, msg)
}

// Load inserts history fetched from the backend, keeping each message's
// reported status. Messages already present are skipped.
func (t *ThreadStore) Load(conversationID string, msgs []Message) (int, error) {
	if _, ok := t.logs[conversationID]; !ok {
		return 0, conversationNotFound(conversationID)
	}
	n := 0
	for _, m := range msgs {
		if m.Sender == "" {
			m.Sender = Peer
		}
		if m.Status == "" {
			m.Status = status.Read
		}
		stored, added, err := t.add(conversationID, m)
		if err != nil {
			return n, err
		}
		if added {
			n++
			continue
		}
		// Known local send: the backend's status may be ahead of ours.
		if stored.Outgoing() && m.Status.IsOutcome() {
			if _, err := t.Reconcile(stored.ID, m.Status); err != nil {
				return n, err
			}
		}
	}
	return n, nil
}

func (t *ThreadStore) add(conversationID string, msg Message) (Message, bool, error) {
	if _, ok := t.logs[conversationID]; !ok {
		return Message{}, false, conversationNotFound(conversationID)
	}
	if msg.ID == "" {
		msg.ID = t.newID()
	} else if existing, ok := t.byID[msg.ID]; ok {
		return *existing, false, nil
	}
	// A backend copy of a local send carries the token we already bound.
	if localID, ok := t.tokens[msg.Token]; ok && msg.Token != "" {
		return *t.byID[localID], false, nil
	}
	// Or a token not bound yet: the send reply is still in flight.
	if msg.Sender == Self && msg.Token != "" {
		if pending := t.unboundSend(conversationID, msg.Body); pending != nil {
			pending.Token = msg.Token
			t.tokens[msg.Token] = pending.ID
			return *pending, false, nil
		}
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = t.now()
	}
	msg.ConversationID = conversationID
	m := &msg
	t.insert(m)
	if m.Token != "" {
		t.tokens[m.Token] = m.ID
	}
	return *m, true, nil
}

// unboundSend returns the oldest local message of the conversation that is
// still sending without a token and has the given body.
func (t *ThreadStore) unboundSend(conversationID, body string) *Message {
	for _, m := range t.logs[conversationID] {
		if m.Sender == Self && m.Status == status.Sending && m.Token == "" && m.Body == body {
			return m
		}
	}
	return nil
}

func (t *ThreadStore) insert(m *Message) {
	log := t.logs[m.ConversationID]
	if n := len(log); n == 0 || compareMessages(log[n-1], m) <= 0 {
		log = append(log, m)
	} else {
		pos, _ := slices.BinarySearchFunc(log, m, compareMessages)
		log = slices.Insert(log, pos, m)
	}
	t.logs[m.ConversationID] = log
	t.byID[m.ID] = m
}

func compareMessages(a, b *Message) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Reconcile applies a transport outcome to a local message. Outcomes that
// would move the status backwards, or that arrive after the message is
// read or failed, are ignored; changed reports whether anything moved.
func (t *ThreadStore) Reconcile(localID string, outcome status.Delivery) (changed bool, err error) {
	if !outcome.IsOutcome() {
		return false, fmt.Errorf("reconcile %q with %q: %w", localID, outcome, ErrInvalidOutcome)
	}
	m, ok := t.byID[localID]
	if !ok {
		return false, messageNotFound(localID)
	}
	if !status.CanAdvance(m.Status, outcome) {
		return false, nil
	}
	m.Status = outcome
	return true, nil
}

// MarkRead moves every unread peer message of a conversation to read and
// returns how many changed.
func (t *ThreadStore) MarkRead(conversationID string) (int, error) {
	log, ok := t.logs[conversationID]
	if !ok {
		return 0, conversationNotFound(conversationID)
	}
	n := 0
	for _, m := range log {
		if m.Sender == Peer && status.CanAdvance(m.Status, status.Read) {
			m.Status = status.Read
			n++
		}
	}
	return n, nil
}

// Resubmit appends a fresh optimistic copy of a failed message. The failed
// entry stays in the log as it was.
func (t *ThreadStore) Resubmit(localID string) (Message, error) {
	m, ok := t.byID[localID]
	if !ok {
		return Message{}, messageNotFound(localID)
	}
	if m.Status != status.Failed {
		return Message{}, fmt.Errorf("resend %q (%s): %w", localID, m.Status, ErrNotFailed)
	}
	if prev, ok := t.resent[localID]; ok {
		return Message{}, fmt.Errorf("resend %q (as %q): %w", localID, prev, ErrAlreadyResent)
	}
	fresh, err := t.appendOutgoing(m.ConversationID, m.Body, localID)
	if err != nil {
		return Message{}, err
	}
	t.resent[localID] = fresh.ID
	return fresh, nil
}

// BindToken associates a transport correlation token with a local message.
func (t *ThreadStore) BindToken(localID, token string) error {
	m, ok := t.byID[localID]
	if !ok {
		return messageNotFound(localID)
	}
	m.Token = token
	t.tokens[token] = localID
	return nil
}

// LookupToken resolves a correlation token to the local message id.
func (t *ThreadStore) LookupToken(token string) (string, error) {
	id, ok := t.tokens[token]
	if !ok {
		return "", &NotFoundError{Kind: "token", ID: token}
	}
	return id, nil
}
