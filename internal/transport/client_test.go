package transport

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/status"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeBackend struct {
	rpc.UnimplementedBackendServer
	events chan rpc.Event
	read   chan string
}

func (f *fakeBackend) ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(rpc.ListConversationsResponse{Conversations: []rpc.Conversation{
		{ID: "c1", PeerName: "Amara", PeerPresence: "online", UnreadCount: 2},
		{ID: "c2", PeerName: "Diego", PeerPresence: "on vacation"},
	}})
}

func (f *fakeBackend) ListMessages(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.ListMessagesRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	return rpc.Encode(rpc.ListMessagesResponse{Messages: []rpc.Message{
		{ID: "m1", ConversationID: req.ConversationID, Sender: "self", Body: "hi", Status: "delivered", Token: "tok-0"},
	}})
}

func (f *fakeBackend) SendMessage(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return rpc.Encode(rpc.SendMessageResponse{Token: "tok-1"})
}

func (f *fakeBackend) MarkRead(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req rpc.MarkReadRequest
	if err := rpc.Decode(in, &req); err != nil {
		return nil, err
	}
	f.read <- req.ConversationID
	return rpc.Encode(struct{}{})
}

func (f *fakeBackend) WatchEvents(_ *structpb.Struct, stream rpc.Backend_WatchEventsServer) error {
	if err := stream.SendHeader(metadata.MD{}); err != nil {
		return err
	}
	for {
		select {
		case evt := <-f.events:
			s, err := rpc.Encode(evt)
			if err != nil {
				return err
			}
			if err := stream.Send(s); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return nil
		}
	}
}

func newTestClient(t *testing.T) (*Client, *fakeBackend, *bus.Bus) {
	t.Helper()
	fake := &fakeBackend{events: make(chan rpc.Event, 10), read: make(chan string, 10)}
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	rpc.RegisterBackendServer(srv, fake)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	b := bus.New()
	return NewClient(conn, b, zap.NewNop()), fake, b
}

func TestDirectory(t *testing.T) {
	c, _, _ := newTestClient(t)
	ctx := context.Background()

	convs, err := c.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 2 {
		t.Fatalf("got %d conversations", len(convs))
	}
	if convs[0].PeerPresence != status.Online || convs[0].UnreadCount != 2 {
		t.Errorf("c1 = %+v", convs[0])
	}
	if convs[1].PeerPresence != status.Offline {
		t.Errorf("unknown presence = %q, want offline", convs[1].PeerPresence)
	}

	msgs, err := c.ListMessages(ctx, "c1")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages", len(msgs))
	}
	m := msgs[0]
	if m.ID != "m1" || m.ConversationID != "c1" || m.Sender != chat.Self || m.Status != status.Delivered || m.Token != "tok-0" {
		t.Errorf("message = %+v", m)
	}
}

func TestSendMessageReturnsToken(t *testing.T) {
	c, _, _ := newTestClient(t)
	token, err := c.SendMessage(context.Background(), "c1", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if token != "tok-1" {
		t.Errorf("token = %q", token)
	}
}

func TestMarkRead(t *testing.T) {
	c, fake, _ := newTestClient(t)
	if err := c.MarkRead(context.Background(), "c2"); err != nil {
		t.Fatal(err)
	}
	if got := <-fake.read; got != "c2" {
		t.Errorf("marked %q, want c2", got)
	}
}

func TestRunPumpsEventsIntoBus(t *testing.T) {
	c, fake, b := newTestClient(t)
	ch, unsub := b.Subscribe("transport.", 10)
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()

	waitCtx, waitCancel := context.WithTimeout(ctx, 2*time.Second)
	defer waitCancel()
	if err := c.WaitReady(waitCtx); err != nil {
		t.Fatalf("WaitReady: %v", err)
	}

	fake.events <- rpc.Event{Kind: rpc.KindDelivery, Delivery: &rpc.DeliveryUpdate{Token: "tok-1", Outcome: "bogus"}}
	fake.events <- rpc.Event{Kind: rpc.KindInbound, Inbound: &rpc.Message{ID: "p1", ConversationID: "c1", Sender: "peer", Body: "hey", Status: "received"}}
	fake.events <- rpc.Event{Kind: rpc.KindDelivery, Delivery: &rpc.DeliveryUpdate{Token: "tok-1", Outcome: "read"}}

	// The malformed delivery is dropped; the other two arrive in order.
	var got []bus.Event
	for len(got) < 2 {
		select {
		case evt := <-ch:
			got = append(got, evt)
		case <-time.After(2 * time.Second):
			t.Fatalf("timeout, got %d events", len(got))
		}
	}

	in, ok := got[0].Payload.(Inbound)
	if !ok || in.ConversationID != "c1" || in.Message.Sender != chat.Peer {
		t.Errorf("inbound = %#v", got[0].Payload)
	}
	d, ok := got[1].Payload.(Delivery)
	if !ok || d.Token != "tok-1" || d.Outcome != status.Read {
		t.Errorf("delivery = %#v", got[1].Payload)
	}
}

func TestCloseMarksLinkClosed(t *testing.T) {
	c, _, _ := newTestClient(t)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if c.Link().Current() != status.Closed {
		t.Errorf("link = %s, want CLOSED", c.Link().Current())
	}
	if err := c.WaitReady(context.Background()); err != ErrClosed {
		t.Errorf("WaitReady = %v, want ErrClosed", err)
	}
}

func TestEventFromWire(t *testing.T) {
	tests := []struct {
		name    string
		evt     rpc.Event
		kind    string
		wantErr bool
	}{
		{"presence", rpc.Event{Kind: KindPresence, Presence: &rpc.PresenceUpdate{ConversationID: "c1", Presence: "away"}}, KindPresence, false},
		{"conversation", rpc.Event{Kind: KindConversation, Conversation: &rpc.Conversation{ID: "c9"}}, KindConversation, false},
		{"missing payload", rpc.Event{Kind: KindInbound}, "", true},
		{"mismatched payload", rpc.Event{Kind: KindPresence, Delivery: &rpc.DeliveryUpdate{}}, "", true},
		{"bad presence", rpc.Event{Kind: KindPresence, Presence: &rpc.PresenceUpdate{Presence: "busy"}}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, _, err := eventFromWire(tt.evt)
			if (err != nil) != tt.wantErr || kind != tt.kind {
				t.Errorf("eventFromWire = %q, %v; want %q, err=%v", kind, err, tt.kind, tt.wantErr)
			}
		})
	}
}
