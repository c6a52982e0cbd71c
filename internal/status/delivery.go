package status

import (
	"fmt"
	"slices"
)

// Delivery is the delivery state of a single message.
type Delivery string

const (
	Received  Delivery = "received"
	Sending   Delivery = "sending"
	Sent      Delivery = "sent"
	Delivered Delivery = "delivered"
	Read      Delivery = "read"
	Failed    Delivery = "failed"
)

// deliveryTransitions lists the forward moves allowed from each state.
// Skipping ahead is allowed because transport reports can arrive out of order.
// Received is the starting point for peer messages and only ever becomes Read.
var deliveryTransitions = map[Delivery][]Delivery{
	Received:  {Read},
	Sending:   {Sent, Delivered, Read, Failed},
	Sent:      {Delivered, Read},
	Delivered: {Read},
	Read:      {},
	Failed:    {},
}

// CanAdvance reports whether a message in state from may move to state to.
func CanAdvance(from, to Delivery) bool {
	return slices.Contains(deliveryTransitions[from], to)
}

// Terminal reports whether no further transition is possible.
func (d Delivery) Terminal() bool {
	next, ok := deliveryTransitions[d]
	return ok && len(next) == 0
}

// IsOutcome reports whether d can be reported by the transport for an outgoing message.
func (d Delivery) IsOutcome() bool {
	switch d {
	case Sent, Delivered, Read, Failed:
		return true
	}
	return false
}

// ParseDelivery converts a wire string into a Delivery.
func ParseDelivery(s string) (Delivery, error) {
	d := Delivery(s)
	if _, ok := deliveryTransitions[d]; !ok {
		return "", fmt.Errorf("unknown delivery status %q", s)
	}
	return d, nil
}

// Presence is a peer's availability.
type Presence string

const (
	Online  Presence = "online"
	Away    Presence = "away"
	Offline Presence = "offline"
)

// ParsePresence converts a wire string into a Presence. Empty means offline.
func ParsePresence(s string) (Presence, error) {
	switch p := Presence(s); p {
	case Online, Away, Offline:
		return p, nil
	case "":
		return Offline, nil
	}
	return "", fmt.Errorf("unknown presence %q", s)
}
