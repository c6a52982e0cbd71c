// Package outbox simulates the far side of the messaging transport: it drains
// queued sends and walks each one through sent, delivered and read.
package outbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultInterval is the delay between delivery stages.
const DefaultInterval = 500 * time.Millisecond

// Peer hands an outgoing message to the recipient.
type Peer interface {
	SendText(ctx context.Context, conversationID string, text string) (msgID string, err error)
}

// SimulatedPeer accepts every message except those containing FailKeyword.
type SimulatedPeer struct {
	FailKeyword string
}

func (p SimulatedPeer) SendText(_ context.Context, conversationID, text string) (string, error) {
	if p.FailKeyword != "" && strings.Contains(text, p.FailKeyword) {
		return "", fmt.Errorf("peer of %s rejected the message", conversationID)
	}
	return uuid.New().String(), nil
}

// Sender drains the outbox and reports delivery progress on the bus.
type Sender struct {
	db       *store.DB
	peer     Peer
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu     sync.Mutex // serialises Step
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSender creates a new outbox sender. interval <= 0 uses DefaultInterval.
func NewSender(db *store.DB, peer Peer, b *bus.Bus, interval time.Duration, logger *zap.Logger) *Sender {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sender{
		db:       db,
		peer:     peer,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Start begins polling the outbox.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
}

// Stop stops the sender loop and waits for it to exit.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
}

func (s *Sender) loop(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Step(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Step advances every active outbox entry by one stage.
func (s *Sender) Step(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.db.ActiveOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range entries {
		switch entry.Status {
		case "queued":
			s.send(ctx, entry)
		case "sent":
			s.advance(entry, "delivered")
		case "delivered":
			s.advance(entry, "read")
		}
	}
}

func (s *Sender) send(ctx context.Context, entry store.OutboxEntry) {
	msgID, err := s.peer.SendText(ctx, entry.ConversationID, entry.Body)
	if err != nil {
		s.logger.Warn("send failed", zap.Error(err), zap.String("token", entry.Token))
		if err := s.db.MarkOutboxFailed(entry.Token, err.Error()); err != nil {
			s.logger.Error("failed to mark failed", zap.Error(err), zap.String("token", entry.Token))
		}
		s.publish(rpc.DeliveryUpdate{Token: entry.Token, Outcome: "failed", Error: err.Error()})
		return
	}

	now := time.Now().UnixMilli()
	if err := s.db.UpsertMessage(&store.Message{
		ConversationID: entry.ConversationID,
		MsgID:          msgID,
		Sender:         "self",
		Body:           entry.Body,
		Status:         "sent",
		Token:          entry.Token,
		Timestamp:      now,
	}); err != nil {
		s.logger.Error("failed to store sent message", zap.Error(err), zap.String("token", entry.Token))
	}
	if err := s.db.TouchConversation(entry.ConversationID, now, entry.Body, false); err != nil {
		s.logger.Error("failed to touch conversation", zap.Error(err), zap.String("conversation_id", entry.ConversationID))
	}
	if err := s.db.MarkOutboxSent(entry.Token, msgID); err != nil {
		s.logger.Error("failed to mark sent", zap.Error(err), zap.String("token", entry.Token))
	}

	s.logger.Info("message sent", zap.String("token", entry.Token), zap.String("msg_id", msgID))
	s.publish(rpc.DeliveryUpdate{Token: entry.Token, Outcome: "sent"})
}

func (s *Sender) advance(entry store.OutboxEntry, next string) {
	if err := s.db.MarkOutboxStatus(entry.Token, next); err != nil {
		s.logger.Error("failed to advance outbox", zap.Error(err), zap.String("token", entry.Token))
		return
	}
	if err := s.db.SetMessageStatusByToken(entry.Token, next); err != nil {
		s.logger.Error("failed to update message status", zap.Error(err), zap.String("token", entry.Token))
	}
	s.logger.Debug("delivery advanced", zap.String("token", entry.Token), zap.String("status", next))
	s.publish(rpc.DeliveryUpdate{Token: entry.Token, Outcome: next})
}

func (s *Sender) publish(u rpc.DeliveryUpdate) {
	s.bus.Emit(rpc.KindDelivery, u)
}
