package chat

import (
	"fmt"
	"testing"
	"time"
)

var base = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

// newTestStores returns stores with a ticking clock and predictable ids,
// seeded with three conversations.
func newTestStores(t *testing.T) (*ThreadStore, *ConversationStore) {
	t.Helper()
	clock := base
	n := 0
	threads := NewThreadStore(
		WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("local-%03d", n)
		}),
	)
	convs := NewConversationStore(threads)
	for _, c := range []Conversation{
		{ID: "c1", PeerName: "Amara Okafor", ProjectLabel: "Brand identity refresh", LastMessageAt: base.Add(-3 * time.Hour)},
		{ID: "c2", PeerName: "Diego Ramos", ProjectLabel: "Mobile checkout redesign", LastMessageAt: base.Add(-1 * time.Hour)},
		{ID: "c3", PeerName: "Lena Fischer", ProjectLabel: "Logo animation", LastMessageAt: base.Add(-2 * time.Hour)},
	} {
		if err := convs.Upsert(c); err != nil {
			t.Fatal(err)
		}
	}
	return threads, convs
}

func inbound(t *testing.T, convs *ConversationStore, convID, msgID, body string) Message {
	t.Helper()
	m, err := convs.ApplyInboundMessage(convID, Message{ID: msgID, Body: body, Timestamp: base.Add(time.Minute)})
	if err != nil {
		t.Fatalf("ApplyInboundMessage(%s, %s): %v", convID, msgID, err)
	}
	return m
}

func unread(t *testing.T, convs *ConversationStore, id string) int {
	t.Helper()
	c, err := convs.Get(id)
	if err != nil {
		t.Fatal(err)
	}
	return c.UnreadCount
}

func ids(convs []Conversation) []string {
	out := make([]string, len(convs))
	for i, c := range convs {
		out[i] = c.ID
	}
	return out
}
