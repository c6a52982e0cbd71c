package outbox

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/store"
	"go.uber.org/zap"
)

// mockPeer records calls and returns configurable results.
type mockPeer struct {
	calls []sendCall
	err   error
}

type sendCall struct {
	ConversationID string
	Text           string
}

func (m *mockPeer) SendText(_ context.Context, conversationID string, text string) (string, error) {
	m.calls = append(m.calls, sendCall{ConversationID: conversationID, Text: text})
	if m.err != nil {
		return "", m.err
	}
	return "server-" + conversationID, nil
}

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if err := db.UpsertConversation(&store.Conversation{ID: "c1", PeerName: "Amara"}); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func recv(t *testing.T, ch <-chan bus.Event) rpc.DeliveryUpdate {
	t.Helper()
	select {
	case evt := <-ch:
		u, ok := evt.Payload.(rpc.DeliveryUpdate)
		if !ok {
			t.Fatalf("payload type = %T, want rpc.DeliveryUpdate", evt.Payload)
		}
		return u
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for delivery event")
	}
	return rpc.DeliveryUpdate{}
}

// TestStepWalksDeliveryStages verifies each Step moves a send one stage:
// queued -> sent -> delivered -> read.
func TestStepWalksDeliveryStages(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	peer := &mockPeer{}
	s := NewSender(db, peer, b, 0, zap.NewNop())

	ch, unsub := b.Subscribe(rpc.KindDelivery, 10)
	defer unsub()

	if err := db.QueueOutbox("tok1", "c1", "hello"); err != nil {
		t.Fatal(err)
	}

	for _, want := range []string{"sent", "delivered", "read"} {
		s.Step(context.Background())
		u := recv(t, ch)
		if u.Token != "tok1" || u.Outcome != want {
			t.Fatalf("update = %+v, want tok1 %s", u, want)
		}
		msgs, _ := db.ListMessages("c1", 0, 10)
		if len(msgs) != 1 || msgs[0].Status != want {
			t.Fatalf("stored = %+v, want one message %s", msgs, want)
		}
	}

	if len(peer.calls) != 1 || peer.calls[0] != (sendCall{"c1", "hello"}) {
		t.Errorf("calls = %+v", peer.calls)
	}
	if n, _ := db.PendingOutboxCount(); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}

	// Nothing left to advance.
	s.Step(context.Background())
	select {
	case evt := <-ch:
		t.Errorf("unexpected event after read: %+v", evt)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestStepStoresSentMessage(t *testing.T) {
	db := testDB(t)
	s := NewSender(db, &mockPeer{}, bus.New(), 0, nil)

	if err := db.QueueOutbox("tok1", "c1", "brief attached"); err != nil {
		t.Fatal(err)
	}
	s.Step(context.Background())

	msgs, err := db.ListMessages("c1", 0, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("got %d messages, want 1", len(msgs))
	}
	m := msgs[0]
	if m.Sender != "self" || m.Token != "tok1" || m.MsgID != "server-c1" {
		t.Errorf("message = %+v", m)
	}
	c, _ := db.GetConversation("c1")
	if c.LastMessagePreview != "brief attached" || c.UnreadCount != 0 {
		t.Errorf("conversation = %+v", c)
	}
}

func TestStepHandlesFailure(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	s := NewSender(db, &mockPeer{err: fmt.Errorf("network error")}, b, 0, zap.NewNop())

	ch, unsub := b.Subscribe("transport.", 10)
	defer unsub()

	if err := db.QueueOutbox("tok1", "c1", "hello"); err != nil {
		t.Fatal(err)
	}
	s.Step(context.Background())

	u := recv(t, ch)
	if u.Outcome != "failed" || u.Error != "network error" {
		t.Errorf("update = %+v", u)
	}
	if n, _ := db.PendingOutboxCount(); n != 0 {
		t.Errorf("pending = %d, want 0 (should be marked failed)", n)
	}
	if msgs, _ := db.ListMessages("c1", 0, 10); len(msgs) != 0 {
		t.Errorf("failed send stored %d messages", len(msgs))
	}
}

func TestSimulatedPeerFailKeyword(t *testing.T) {
	p := SimulatedPeer{FailKeyword: "#fail"}
	if _, err := p.SendText(context.Background(), "c1", "please #fail this"); err == nil {
		t.Error("message with keyword should fail")
	}
	id, err := p.SendText(context.Background(), "c1", "fine")
	if err != nil || id == "" {
		t.Errorf("SendText = %q, %v", id, err)
	}
	if _, err := (SimulatedPeer{}).SendText(context.Background(), "c1", "#fail"); err != nil {
		t.Error("empty keyword should never fail")
	}
}

func TestSenderLoop(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	s := NewSender(db, &mockPeer{}, b, 20*time.Millisecond, zap.NewNop())

	ch, unsub := b.Subscribe(rpc.KindDelivery, 10)
	defer unsub()

	if err := db.QueueOutbox("tok1", "c1", "hello"); err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	for _, want := range []string{"sent", "delivered", "read"} {
		if u := recv(t, ch); u.Outcome != want {
			t.Fatalf("outcome = %s, want %s", u.Outcome, want)
		}
	}
}
