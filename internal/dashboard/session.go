// Package dashboard runs one dashboard's messaging state. A Session owns
// the chat stores, serialises UI input with transport callbacks and hands
// out read-only snapshots for rendering.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/transport"
	"go.uber.org/zap"
)

// KindChanged is published after every mutation of a Session.
const KindChanged = "chat.changed"

const (
	defaultSendTimeout = 5 * time.Second
	// maxEarlyTokens bounds delivery updates held for tokens whose send
	// call has not returned yet.
	maxEarlyTokens = 256
)

// Options configures a Session.
type Options struct {
	Role Role
	// Breakpoint is the dual-pane minimum width in columns.
	Breakpoint int
	// Narrow is the initial viewport mode.
	Narrow      bool
	SendTimeout time.Duration
	// Bus receives KindChanged and badge events, and is where Start reads
	// transport events from. May be nil if Start is never called.
	Bus           *bus.Bus
	Logger        *zap.Logger
	ThreadOptions []chat.ThreadOption
}

// Snapshot is everything a renderer needs for one frame.
type Snapshot struct {
	Role          Role
	Conversations []chat.Conversation
	// Active is the selected conversation, nil when nothing is selected.
	Active   *chat.Conversation
	Messages []chat.Message
	Composer chat.ComposerState
	View     chat.ViewState
	Badge    int
}

// Session is the single execution context of one dashboard.
type Session struct {
	mu       sync.Mutex
	threads  *chat.ThreadStore
	convs    *chat.ConversationStore
	composer *chat.Composer
	view     *chat.ViewCoordinator
	badge    *chat.NotificationAggregator

	early      map[string][]status.Delivery
	earlyOrder []string
	inflight   int // sends waiting for their token

	role        Role
	sender      transport.Sender
	sendTimeout time.Duration
	bus         *bus.Bus
	logger      *zap.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	sends    sync.WaitGroup
	pumpDone chan struct{}
}

// New creates a Session that hands outgoing messages to sender.
func New(sender transport.Sender, opts Options) *Session {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = defaultSendTimeout
	}
	if opts.Role == "" {
		opts.Role = RoleClient
	}
	threads := chat.NewThreadStore(opts.ThreadOptions...)
	convs := chat.NewConversationStore(threads)
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		threads:     threads,
		convs:       convs,
		composer:    chat.NewComposer(threads),
		view:        chat.NewViewCoordinator(opts.Breakpoint, opts.Narrow),
		badge:       chat.NewNotificationAggregator(convs, opts.Bus),
		early:       make(map[string][]status.Delivery),
		role:        opts.Role,
		sender:      sender,
		sendTimeout: opts.SendTimeout,
		bus:         opts.Bus,
		logger:      opts.Logger,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Role returns the dashboard role.
func (s *Session) Role() Role {
	return s.role
}

func (s *Session) changed() {
	s.bus.Emit(KindChanged, nil)
}

// Snapshot returns the conversations matching filter along with the
// selected thread, composer, view and badge.
func (s *Session) Snapshot(filter string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Role:          s.role,
		Conversations: s.convs.List(filter),
		Composer:      s.composer.State(),
		View:          s.view.State(),
		Badge:         s.badge.BadgeCount(),
	}
	if id := s.convs.Selected(); id != "" {
		if c, err := s.convs.Get(id); err == nil {
			snap.Active = &c
		}
		snap.Messages, _ = s.threads.MessagesFor(id)
	}
	return snap
}

func (s *Session) Conversations(filter string) []chat.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.convs.List(filter)
}

func (s *Session) Messages(conversationID string) ([]chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.threads.MessagesFor(conversationID)
}

func (s *Session) ComposerState() chat.ComposerState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.composer.State()
}

func (s *Session) ViewState() chat.ViewState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view.State()
}

func (s *Session) BadgeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.badge.BadgeCount()
}

// Select makes id the active conversation and points the composer at it.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.convs.Select(id); err != nil {
		return err
	}
	s.view.SelectConversation(id)
	s.composer.Target(id)
	s.markRead(id)
	s.changed()
	return nil
}

// GoBack returns to the list on a narrow viewport.
func (s *Session) GoBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.view.GoBack() {
		return false
	}
	s.changed()
	return true
}

// SetViewportWidth reports whether the width crossed the breakpoint.
func (s *Session) SetViewportWidth(columns int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.view.SetViewportWidth(columns) {
		return false
	}
	s.changed()
	return true
}

func (s *Session) UpdateDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.composer.UpdateDraft(text)
	s.changed()
}

// Press applies a composer keystroke; a commit that produces a message
// sends it.
func (s *Session) Press(k chat.EditKey) (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.composer.Press(k)
	return s.afterCompose(m, err)
}

// Submit sends the draft. A blank draft returns nil, nil.
func (s *Session) Submit() (*chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.composer.Submit()
	return s.afterCompose(m, err)
}

func (s *Session) afterCompose(m *chat.Message, err error) (*chat.Message, error) {
	if err != nil {
		return nil, err
	}
	if m == nil {
		s.changed()
		return nil, nil
	}
	if err := s.convs.RecordOutbound(*m); err != nil {
		return m, err
	}
	s.dispatch(*m)
	s.changed()
	return m, nil
}

// Resend queues a fresh copy of a failed message.
func (s *Session) Resend(localID string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, err := s.threads.Resubmit(localID)
	if err != nil {
		return chat.Message{}, err
	}
	if err := s.convs.RecordOutbound(m); err != nil {
		return m, err
	}
	s.dispatch(m)
	s.changed()
	return m, nil
}

// dispatch hands m to the sender off the lock. Must be called with mu held.
func (s *Session) dispatch(m chat.Message) {
	s.inflight++
	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
		token, err := s.sender.SendMessage(ctx, m.ConversationID, m.Body)
		cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.accepted(m.ID, token, err)
		s.inflight--
		if s.inflight == 0 {
			s.discardEarly()
		}
	}()
}

func (s *Session) accepted(localID, token string, sendErr error) {
	if sendErr != nil {
		s.logger.Warn("send failed",
			zap.String("local_id", localID),
			zap.Error(sendErr),
		)
		if _, err := s.threads.Reconcile(localID, status.Failed); err != nil {
			s.logger.Error("reconcile failed send", zap.String("local_id", localID), zap.Error(err))
		}
		s.changed()
		return
	}
	if err := s.threads.BindToken(localID, token); err != nil {
		s.logger.Error("bind token", zap.String("local_id", localID), zap.Error(err))
		return
	}
	for _, outcome := range s.takeEarly(token) {
		if _, err := s.threads.Reconcile(localID, outcome); err != nil {
			s.logger.Error("reconcile", zap.String("local_id", localID), zap.Error(err))
		}
	}
	s.changed()
}

// markRead tells the backend id has been seen when the sender can take
// read receipts. Must be called with mu held.
func (s *Session) markRead(id string) {
	marker, ok := s.sender.(transport.ReadMarker)
	if !ok {
		return
	}
	s.sends.Add(1)
	go func() {
		defer s.sends.Done()
		ctx, cancel := context.WithTimeout(s.ctx, s.sendTimeout)
		defer cancel()
		if err := marker.MarkRead(ctx, id); err != nil && s.ctx.Err() == nil {
			s.logger.Warn("mark read", zap.String("conversation_id", id), zap.Error(err))
		}
	}()
}

// OnDeliveryUpdate applies a transport outcome to a local message.
func (s *Session) OnDeliveryUpdate(localID string, outcome status.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	moved, err := s.threads.Reconcile(localID, outcome)
	if err != nil {
		return err
	}
	if moved {
		s.changed()
	}
	return nil
}

// ApplyDelivery resolves a correlation token and applies the outcome. An
// update that beats its own send acknowledgement is held until the token
// is bound; the oldest held tokens are dropped past a fixed limit. With no
// send in flight an unknown token cannot be ours and is ignored.
func (s *Session) ApplyDelivery(token string, outcome status.Delivery) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !outcome.IsOutcome() {
		return chat.ErrInvalidOutcome
	}
	localID, err := s.threads.LookupToken(token)
	if errors.Is(err, chat.ErrNotFound) {
		if s.inflight == 0 {
			s.logger.Debug("ignoring delivery update for unknown token", zap.String("token", token))
			return nil
		}
		s.holdEarly(token, outcome)
		return nil
	}
	if err != nil {
		return err
	}
	moved, err := s.threads.Reconcile(localID, outcome)
	if err != nil {
		return err
	}
	if moved {
		s.changed()
	}
	return nil
}

func (s *Session) holdEarly(token string, outcome status.Delivery) {
	if _, ok := s.early[token]; !ok {
		if len(s.earlyOrder) >= maxEarlyTokens {
			oldest := s.earlyOrder[0]
			s.earlyOrder = s.earlyOrder[1:]
			delete(s.early, oldest)
			s.logger.Warn("dropping delivery update for unknown token", zap.String("token", oldest))
		}
		s.earlyOrder = append(s.earlyOrder, token)
	}
	s.early[token] = append(s.early[token], outcome)
	s.logger.Debug("holding delivery update", zap.String("token", token), zap.String("outcome", string(outcome)))
}

// discardEarly drops every held update. Called once all sends are
// acknowledged, when no held token can still be bound.
func (s *Session) discardEarly() {
	if len(s.earlyOrder) > 0 {
		s.logger.Debug("discarding delivery updates for foreign tokens", zap.Int("tokens", len(s.earlyOrder)))
	}
	clear(s.early)
	s.earlyOrder = s.earlyOrder[:0]
}

func (s *Session) takeEarly(token string) []status.Delivery {
	outcomes, ok := s.early[token]
	if !ok {
		return nil
	}
	delete(s.early, token)
	for i, t := range s.earlyOrder {
		if t == token {
			s.earlyOrder = append(s.earlyOrder[:i], s.earlyOrder[i+1:]...)
			break
		}
	}
	return outcomes
}

// OnInboundMessage appends a peer message to its conversation.
func (s *Session) OnInboundMessage(conversationID string, msg chat.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, err := s.convs.ApplyInboundMessage(conversationID, msg)
	if err != nil {
		return err
	}
	if conversationID == s.convs.Selected() && stored.Status == status.Read {
		s.markRead(conversationID)
	}
	s.changed()
	return nil
}

func (s *Session) OnPresence(conversationID string, p status.Presence) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.convs.SetPresence(conversationID, p); err != nil {
		return err
	}
	s.changed()
	return nil
}

// OnConversation records a newly established or refreshed conversation.
func (s *Session) OnConversation(c chat.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.convs.Upsert(c); err != nil {
		return err
	}
	s.changed()
	return nil
}

// Bootstrap loads the backend's conversations and history. It is safe to
// call again after a reconnect: known messages are skipped, and peer
// messages that arrived while disconnected count as unread.
func (s *Session) Bootstrap(ctx context.Context, dir transport.Directory) error {
	convs, err := dir.ListConversations(ctx)
	if err != nil {
		return err
	}
	history := make(map[string][]chat.Message, len(convs))
	for _, c := range convs {
		msgs, err := dir.ListMessages(ctx, c.ID)
		if err != nil {
			return err
		}
		history[c.ID] = msgs
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range convs {
		_, lookupErr := s.convs.Get(c.ID)
		existed := lookupErr == nil
		if err := s.convs.Upsert(c); err != nil {
			return err
		}
		var backlog []chat.Message
		for _, m := range history[c.ID] {
			if existed && m.Sender == chat.Peer && m.Status == status.Received && !s.hasMessage(m.ID) {
				if _, err := s.convs.ApplyInboundMessage(c.ID, m); err != nil {
					return err
				}
				continue
			}
			backlog = append(backlog, m)
		}
		if _, err := s.threads.Load(c.ID, backlog); err != nil {
			return err
		}
	}
	if id := s.convs.Selected(); id != "" {
		s.markRead(id)
	}
	s.changed()
	return nil
}

func (s *Session) hasMessage(id string) bool {
	_, err := s.threads.Get(id)
	return err == nil
}

// Start pumps transport events from the bus into the Session and reloads
// history each time the link becomes ready. It requires Options.Bus.
func (s *Session) Start(ctx context.Context, dir transport.Directory) {
	events, unsubEvents := s.bus.Subscribe("transport.", 256)
	links, unsubLinks := s.bus.Subscribe(status.KindLinkChanged, 16)
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = chainCancel(s.cancel, cancel)
	s.pumpDone = make(chan struct{})

	go func() {
		defer close(s.pumpDone)
		defer unsubEvents()
		defer unsubLinks()
		for {
			select {
			case evt := <-events:
				s.apply(evt)
			case evt := <-links:
				change, ok := evt.Payload.(status.StatusChange)
				if !ok || change.To != status.Ready {
					continue
				}
				if err := s.Bootstrap(ctx, dir); err != nil && ctx.Err() == nil {
					s.logger.Warn("bootstrap failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

func chainCancel(a, b context.CancelFunc) context.CancelFunc {
	return func() {
		b()
		a()
	}
}

func (s *Session) apply(evt bus.Event) {
	var err error
	switch p := evt.Payload.(type) {
	case transport.Inbound:
		err = s.OnInboundMessage(p.ConversationID, p.Message)
	case transport.Delivery:
		if p.Error != "" {
			s.logger.Info("delivery failed", zap.String("token", p.Token), zap.String("error", p.Error))
		}
		err = s.ApplyDelivery(p.Token, p.Outcome)
	case transport.Presence:
		err = s.OnPresence(p.ConversationID, p.Presence)
	case transport.Established:
		err = s.OnConversation(p.Conversation)
	default:
		return
	}
	if err != nil {
		s.logger.Warn("dropping transport event", zap.String("kind", evt.Kind), zap.Error(err))
	}
}

// Close stops the pump and waits for in-flight sends to settle.
func (s *Session) Close() {
	s.cancel()
	if s.pumpDone != nil {
		<-s.pumpDone
	}
	s.sends.Wait()
}
