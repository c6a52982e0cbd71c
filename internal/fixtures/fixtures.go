// Package fixtures loads the mock marketplace conversations the backend
// serves and seeds them into its store.
package fixtures

import (
	"cmp"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/adethefirst1/odysia/internal/store"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Message is a fixture message. Ago is its age at seed time.
type Message struct {
	ID     string        `yaml:"id"`
	From   string        `yaml:"from"` // self | peer
	Body   string        `yaml:"body"`
	Ago    time.Duration `yaml:"ago"`
	Status string        `yaml:"status"`
}

// Conversation is a fixture conversation.
type Conversation struct {
	ID       string    `yaml:"id"`
	PeerName string    `yaml:"peer_name"`
	Presence string    `yaml:"presence"`
	Project  string    `yaml:"project"`
	Unread   int       `yaml:"unread"`
	Messages []Message `yaml:"messages"`
}

// Set holds fixture conversations keyed by dashboard role.
type Set struct {
	Roles map[string][]Conversation `yaml:"roles"`
}

// Default returns the embedded fixture set.
func Default() (*Set, error) {
	return Parse(defaultYAML)
}

// Load reads a fixture file. An empty path loads the embedded set.
func Load(path string) (*Set, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Set, error) {
	var set Set
	if err := yaml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	for role, convs := range set.Roles {
		seen := make(map[string]bool)
		for _, c := range convs {
			if c.ID == "" {
				return nil, fmt.Errorf("fixtures: %s conversation without id", role)
			}
			if seen[c.ID] {
				return nil, fmt.Errorf("fixtures: duplicate conversation %q in %s", c.ID, role)
			}
			seen[c.ID] = true
			if c.Unread < 0 {
				return nil, fmt.Errorf("fixtures: conversation %q has negative unread count", c.ID)
			}
			for _, m := range c.Messages {
				if m.ID == "" {
					return nil, fmt.Errorf("fixtures: message without id in %q", c.ID)
				}
				if m.From != "self" && m.From != "peer" {
					return nil, fmt.Errorf("fixtures: message %q: from must be self or peer, got %q", m.ID, m.From)
				}
			}
		}
	}
	return &set, nil
}

// For returns the conversations of a role, or nil if the role has none.
func (s *Set) For(role string) []Conversation {
	return s.Roles[role]
}

// Seed writes convs into an empty store, dating messages relative to now.
// A store that already holds conversations is left untouched; the number
// of seeded conversations is returned.
func Seed(db *store.DB, convs []Conversation, now time.Time) (int, error) {
	n, err := db.ConversationCount()
	if err != nil {
		return 0, fmt.Errorf("count conversations: %w", err)
	}
	if n > 0 {
		return 0, nil
	}

	for _, c := range convs {
		msgs := slices.Clone(c.Messages)
		slices.SortStableFunc(msgs, func(a, b Message) int {
			return cmp.Compare(b.Ago, a.Ago)
		})

		rec := &store.Conversation{
			ID:           c.ID,
			PeerName:     c.PeerName,
			PeerPresence: c.Presence,
			ProjectLabel: c.Project,
			UnreadCount:  c.Unread,
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			rec.LastMessageAt = now.Add(-last.Ago).UnixMilli()
			rec.LastMessagePreview = last.Body
		}
		if err := db.UpsertConversation(rec); err != nil {
			return 0, fmt.Errorf("seed conversation %q: %w", c.ID, err)
		}

		for _, m := range msgs {
			st := m.Status
			if st == "" {
				st = "read"
			}
			if err := db.UpsertMessage(&store.Message{
				ConversationID: c.ID,
				MsgID:          m.ID,
				Sender:         m.From,
				Body:           m.Body,
				Status:         st,
				Timestamp:      now.Add(-m.Ago).UnixMilli(),
			}); err != nil {
				return 0, fmt.Errorf("seed message %q: %w", m.ID, err)
			}
		}
	}
	return len(convs), nil
}
