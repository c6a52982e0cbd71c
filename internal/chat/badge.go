package chat

import "github.com/adethefirst1/odysia/internal/bus"

// KindBadgeChanged is published whenever the badge count changes.
const KindBadgeChanged = "badge.changed"

// BadgeChange is the payload of KindBadgeChanged.
type BadgeChange struct {
	Count int
}

// NotificationAggregator derives the navigation badge from a
// ConversationStore. It keeps no count of its own.
type NotificationAggregator struct {
	store *ConversationStore
	bus   *bus.Bus
	last  int // last published count
}

// NewNotificationAggregator subscribes to store mutations and republishes
// the badge on b. b may be nil.
func NewNotificationAggregator(store *ConversationStore, b *bus.Bus) *NotificationAggregator {
	a := &NotificationAggregator{store: store, bus: b}
	a.last = a.BadgeCount()
	store.OnChange(a.recompute)
	return a
}

// BadgeCount is the sum of unread counts across all conversations.
func (a *NotificationAggregator) BadgeCount() int {
	n := 0
	for _, c := range a.store.convs {
		n += c.UnreadCount
	}
	return n
}

func (a *NotificationAggregator) recompute() {
	n := a.BadgeCount()
	if n == a.last {
		return
	}
	a.last = n
	a.bus.Emit(KindBadgeChanged, BadgeChange{Count: n})
}
