package transport

import (
	"context"
	"errors"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const (
	minBackoff = 200 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// Client talks to the backend over gRPC. It is both a Sender and a
// Directory, and Run pumps the backend's event stream into a bus.
type Client struct {
	conn    *grpc.ClientConn
	backend *rpc.BackendClient
	bus     *bus.Bus
	link    *status.Machine
	logger  *zap.Logger
}

// Dial connects to the backend daemon's Unix socket.
func Dial(socketPath string, b *bus.Bus, logger *zap.Logger) (*Client, error) {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, err
	}
	c := NewClient(conn, b, logger)
	c.conn = conn
	return c, nil
}

// NewClient wraps an existing connection. Close does not close cc. b must
// not be nil.
func NewClient(cc grpc.ClientConnInterface, b *bus.Bus, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		backend: rpc.NewBackendClient(cc),
		bus:     b,
		link:    status.NewMachine(b),
		logger:  logger,
	}
}

// Link returns the connection state machine.
func (c *Client) Link() *status.Machine {
	return c.link
}

// Backend exposes the raw RPC client for administrative calls.
func (c *Client) Backend() *rpc.BackendClient {
	return c.backend
}

// Close marks the link closed and closes the connection if Dial opened it.
func (c *Client) Close() error {
	_ = c.link.Transition(status.Closed)
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, conversationID, body string) (string, error) {
	resp, err := c.backend.SendMessage(ctx, rpc.SendMessageRequest{ConversationID: conversationID, Body: body})
	if err != nil {
		return "", err
	}
	return resp.Token, nil
}

func (c *Client) MarkRead(ctx context.Context, conversationID string) error {
	return c.backend.MarkRead(ctx, rpc.MarkReadRequest{ConversationID: conversationID})
}

func (c *Client) ListConversations(ctx context.Context) ([]chat.Conversation, error) {
	wire, err := c.backend.ListConversations(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]chat.Conversation, len(wire))
	for i, w := range wire {
		out[i] = conversationFromWire(w)
	}
	return out, nil
}

func (c *Client) ListMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	wire, err := c.backend.ListMessages(ctx, rpc.ListMessagesRequest{ConversationID: conversationID})
	if err != nil {
		return nil, err
	}
	out := make([]chat.Message, len(wire))
	for i, w := range wire {
		out[i] = messageFromWire(w)
	}
	return out, nil
}

// Run keeps the event stream open until ctx is cancelled, reconnecting
// with exponential backoff. Every stream (re)connection passes through
// READY on the link machine.
func (c *Client) Run(ctx context.Context) {
	backoff := minBackoff
	for {
		if err := c.link.Transition(status.Connecting); err != nil {
			return
		}
		ready, err := c.watch(ctx)
		if ctx.Err() != nil {
			return
		}
		if err := c.link.Transition(status.Reconnecting); err != nil {
			return
		}
		if ready {
			backoff = minBackoff
		}
		c.logger.Warn("event stream lost", zap.Error(err), zap.Duration("retry_in", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
		if !ready {
			backoff = min(backoff*2, maxBackoff)
		}
	}
}

// watch consumes one stream; ready reports whether it got as far as READY.
func (c *Client) watch(ctx context.Context) (ready bool, err error) {
	stream, err := c.backend.WatchEvents(ctx)
	if err != nil {
		return false, err
	}
	// The backend sends headers as soon as it subscribes; a dead socket
	// fails here.
	if _, err := stream.Header(); err != nil {
		return false, err
	}
	if err := c.link.Transition(status.Ready); err != nil {
		return false, err
	}

	for {
		evt, err := stream.Recv()
		if err != nil {
			return true, err
		}
		kind, payload, err := eventFromWire(evt)
		if err != nil {
			c.logger.Warn("dropping backend event", zap.Error(err), zap.String("event_id", evt.ID))
			continue
		}
		c.bus.Emit(kind, payload)
	}
}

// ErrClosed is returned by WaitReady when the link was closed before it became ready.
var ErrClosed = errors.New("transport closed")

// WaitReady blocks until the link is READY, ctx ends, or the link closes.
func (c *Client) WaitReady(ctx context.Context) error {
	ch, unsub := c.bus.Subscribe(status.KindLinkChanged, 16)
	defer unsub()
	for {
		switch c.link.Current() {
		case status.Ready:
			return nil
		case status.Closed:
			return ErrClosed
		}
		select {
		case <-ch:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
