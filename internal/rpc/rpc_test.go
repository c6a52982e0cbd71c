package rpc

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	grpcstatus "google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
)

type fakeBackend struct {
	UnimplementedBackendServer
	sent   []SendMessageRequest
	events []Event
}

func (f *fakeBackend) ListConversations(context.Context, *structpb.Struct) (*structpb.Struct, error) {
	return Encode(ListConversationsResponse{Conversations: []Conversation{
		{ID: "c1", PeerName: "Amara", UnreadCount: 2, LastMessageAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)},
	}})
}

func (f *fakeBackend) SendMessage(_ context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req SendMessageRequest
	if err := Decode(in, &req); err != nil {
		return nil, err
	}
	if req.ConversationID == "" {
		return nil, grpcstatus.Error(codes.InvalidArgument, "conversation_id is required")
	}
	f.sent = append(f.sent, req)
	return Encode(SendMessageResponse{Token: "tok-1"})
}

func (f *fakeBackend) WatchEvents(_ *structpb.Struct, stream Backend_WatchEventsServer) error {
	for _, evt := range f.events {
		s, err := Encode(evt)
		if err != nil {
			return err
		}
		if err := stream.Send(s); err != nil {
			return err
		}
	}
	return nil
}

func dial(t *testing.T, srv BackendServer) *BackendClient {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	s := grpc.NewServer()
	RegisterBackendServer(s, srv)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

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
	return NewBackendClient(conn)
}

func TestUnaryRoundTrip(t *testing.T) {
	fake := &fakeBackend{}
	client := dial(t, fake)
	ctx := context.Background()

	convs, err := client.ListConversations(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(convs) != 1 || convs[0].ID != "c1" || convs[0].UnreadCount != 2 {
		t.Fatalf("ListConversations = %+v", convs)
	}
	if !convs[0].LastMessageAt.Equal(time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("timestamp = %v", convs[0].LastMessageAt)
	}

	resp, err := client.SendMessage(ctx, SendMessageRequest{ConversationID: "c1", Body: "hello"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Token != "tok-1" {
		t.Errorf("token = %q", resp.Token)
	}
	if len(fake.sent) != 1 || fake.sent[0].Body != "hello" {
		t.Errorf("server saw %+v", fake.sent)
	}
}

func TestStatusCodesSurvive(t *testing.T) {
	client := dial(t, &fakeBackend{})

	_, err := client.SendMessage(context.Background(), SendMessageRequest{Body: "orphan"})
	if grpcstatus.Code(err) != codes.InvalidArgument {
		t.Errorf("code = %v, want InvalidArgument", grpcstatus.Code(err))
	}
	_, err = client.GetStatus(context.Background())
	if grpcstatus.Code(err) != codes.Unimplemented {
		t.Errorf("code = %v, want Unimplemented", grpcstatus.Code(err))
	}
}

func TestWatchEventsStream(t *testing.T) {
	fake := &fakeBackend{events: []Event{
		{ID: "e1", Kind: KindDelivery, Delivery: &DeliveryUpdate{Token: "tok-1", Outcome: "delivered"}},
		{ID: "e2", Kind: KindPresence, Presence: &PresenceUpdate{ConversationID: "c1", Presence: "away"}},
	}}
	client := dial(t, fake)

	stream, err := client.WatchEvents(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var got []Event
	for {
		evt, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, evt)
	}
	if len(got) != 2 {
		t.Fatalf("got %d events, want 2", len(got))
	}
	if got[0].Delivery == nil || got[0].Delivery.Outcome != "delivered" || got[0].Presence != nil {
		t.Errorf("event 0 = %+v", got[0])
	}
	if got[1].Presence == nil || got[1].Presence.Presence != "away" {
		t.Errorf("event 1 = %+v", got[1])
	}
}

func TestDecodeRejectsMismatchedShape(t *testing.T) {
	s, err := structpb.NewStruct(map[string]any{"limit": "ten"})
	if err != nil {
		t.Fatal(err)
	}
	var req ListMessagesRequest
	if err := Decode(s, &req); err == nil {
		t.Error("Decode should fail for a string limit")
	}
}
