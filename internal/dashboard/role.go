package dashboard

import "fmt"

// Role is the marketplace side a dashboard belongs to. Both roles share
// the same messaging behaviour; only labels differ.
type Role string

const (
	RoleClient Role = "client"
	RoleExpert Role = "expert"
)

// ParseRole validates a role name. Empty means client.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case "", RoleClient:
		return RoleClient, nil
	case RoleExpert:
		return RoleExpert, nil
	}
	return "", fmt.Errorf("unknown dashboard role %q (want client or expert)", s)
}

// Label is the dashboard title.
func (r Role) Label() string {
	if r == RoleExpert {
		return "Expert dashboard"
	}
	return "Client dashboard"
}

// PeerNoun names the other side of every conversation.
func (r Role) PeerNoun() string {
	if r == RoleExpert {
		return "Client"
	}
	return "Expert"
}
