// Package api implements the mock messaging backend's gRPC service.
package api

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

const watchBuffer = 256

// BackendService implements rpc.BackendServer over the backend store.
type BackendService struct {
	sessionName string
	role        string
	startedAt   time.Time
	db          *store.DB
	bus         *bus.Bus
	logger      *zap.Logger
	watchers    atomic.Int32
}

// NewBackendService creates the service for one session.
func NewBackendService(sessionName, role string, db *store.DB, b *bus.Bus, logger *zap.Logger) *BackendService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendService{
		sessionName: sessionName,
		role:        role,
		startedAt:   time.Now(),
		db:          db,
		bus:         b,
		logger:      logger,
	}
}

var _ rpc.BackendServer = (*BackendService)(nil)

func (s *BackendService) ListConversations(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	convs, err := s.db.ListConversations(500, 0)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list conversations: %v", err)
	}
	resp := rpc.ListConversationsResponse{Conversations: make([]rpc.Conversation, 0, len(convs))}
	for i := range convs {
		resp.Conversations = append(resp.Conversations, conversationToWire(&convs[i]))
	}
	return encode(resp)
}

func (s *BackendService) ListMessages(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ListMessagesRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if _, err := s.conversation(req.ConversationID); err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 200
	}

	msgs, err := s.db.ListMessages(req.ConversationID, 0, limit)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "list messages: %v", err)
	}
	// The store pages newest first; the wire is oldest first.
	resp := rpc.ListMessagesResponse{Messages: make([]rpc.Message, len(msgs))}
	for i := range msgs {
		resp.Messages[len(msgs)-1-i] = messageToWire(&msgs[i])
	}
	return encode(resp)
}

func (s *BackendService) SendMessage(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.SendMessageRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "body is blank")
	}
	if _, err := s.conversation(req.ConversationID); err != nil {
		return nil, err
	}

	token := uuid.New().String()
	if err := s.db.QueueOutbox(token, req.ConversationID, req.Body); err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "queue outbox: %v", err)
	}
	s.logger.Info("send queued", zap.String("conversation_id", req.ConversationID), zap.String("token", token))
	return encode(rpc.SendMessageResponse{Token: token})
}

func (s *BackendService) InjectInbound(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.InjectInboundRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	if req.ConversationID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	if strings.TrimSpace(req.Body) == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "body is blank")
	}

	conv, err := s.db.GetConversation(req.ConversationID)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "get conversation: %v", err)
	}
	if conv == nil {
		if req.PeerName == "" {
			return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found (set peer_name to establish it)", req.ConversationID)
		}
		conv = &store.Conversation{
			ID:           req.ConversationID,
			PeerName:     req.PeerName,
			PeerPresence: string(status.Online),
			ProjectLabel: req.ProjectLabel,
		}
		if err := s.db.UpsertConversation(conv); err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "create conversation: %v", err)
		}
		s.logger.Info("conversation established", zap.String("conversation_id", conv.ID))
		s.bus.Emit(rpc.KindConversation, conversationToWire(conv))
	}

	msgID := req.MessageID
	if msgID == "" {
		msgID = uuid.New().String()
	}
	m := &store.Message{
		ConversationID: req.ConversationID,
		MsgID:          msgID,
		Sender:         "peer",
		Body:           req.Body,
		Status:         string(status.Received),
		Timestamp:      time.Now().UnixMilli(),
	}
	added, err := s.db.InsertMessage(m)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "store message: %v", err)
	}
	// A repeated message_id is redelivered but counted once.
	if added {
		if err := s.db.TouchConversation(m.ConversationID, m.Timestamp, m.Body, true); err != nil {
			return nil, grpcstatus.Errorf(codes.Internal, "touch conversation: %v", err)
		}
	} else {
		s.logger.Debug("inbound redelivered", zap.String("conversation_id", m.ConversationID), zap.String("message_id", msgID))
	}

	wire := messageToWire(m)
	s.bus.Emit(rpc.KindInbound, wire)
	return encode(wire)
}

func (s *BackendService) SetPresence(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.SetPresenceRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	p, err := status.ParsePresence(req.Presence)
	if err != nil {
		return nil, grpcstatus.Error(codes.InvalidArgument, err.Error())
	}
	ok, err := s.db.SetPresence(req.ConversationID, string(p))
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "set presence: %v", err)
	}
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", req.ConversationID)
	}
	s.bus.Emit(rpc.KindPresence, rpc.PresenceUpdate{ConversationID: req.ConversationID, Presence: string(p)})
	return encode(struct{}{})
}

func (s *BackendService) MarkRead(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.MarkReadRequest
	if err := decode(in, &req); err != nil {
		return nil, err
	}
	ok, err := s.db.MarkConversationRead(req.ConversationID)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "mark read: %v", err)
	}
	if !ok {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", req.ConversationID)
	}
	return encode(struct{}{})
}

func (s *BackendService) GetStatus(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	resp := rpc.StatusResponse{
		Session:  s.sessionName,
		Role:     s.role,
		Watchers: int(s.watchers.Load()),
		UptimeMs: time.Since(s.startedAt).Milliseconds(),
	}
	// Populate counts from store.
	if s.db != nil {
		if n, err := s.db.ConversationCount(); err == nil {
			resp.Conversations = n
		}
		if n, err := s.db.MessageCount(); err == nil {
			resp.Messages = n
		}
		if n, err := s.db.PendingOutboxCount(); err == nil {
			resp.PendingSends = n
		}
	}
	return encode(resp)
}

// WatchEvents streams every transport.* bus event until the client goes away.
func (s *BackendService) WatchEvents(_ *structpb.Struct, stream rpc.Backend_WatchEventsServer) error {
	ch, unsub := s.bus.Subscribe("transport.", watchBuffer)
	defer unsub()
	s.watchers.Add(1)
	defer s.watchers.Add(-1)

	// Headers tell the client the subscription is live.
	if err := stream.SendHeader(metadata.Pairs("odysia-session", s.sessionName)); err != nil {
		return err
	}

	for {
		select {
		case evt := <-ch:
			wire, ok := eventToWire(evt)
			if !ok {
				s.logger.Warn("dropping event with unknown payload", zap.String("kind", evt.Kind))
				continue
			}
			out, err := rpc.Encode(wire)
			if err != nil {
				return grpcstatus.Errorf(codes.Internal, "encode event: %v", err)
			}
			if err := stream.Send(out); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func (s *BackendService) conversation(id string) (*store.Conversation, error) {
	if id == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	c, err := s.db.GetConversation(id)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "get conversation: %v", err)
	}
	if c == nil {
		return nil, grpcstatus.Errorf(codes.NotFound, "conversation %q not found", id)
	}
	return c, nil
}

func encode(v any) (*structpb.Struct, error) {
	out, err := rpc.Encode(v)
	if err != nil {
		return nil, grpcstatus.Errorf(codes.Internal, "%v", err)
	}
	return out, nil
}

func decode(in *structpb.Struct, v any) error {
	if err := rpc.Decode(in, v); err != nil {
		return grpcstatus.Errorf(codes.InvalidArgument, "%v", err)
	}
	return nil
}
