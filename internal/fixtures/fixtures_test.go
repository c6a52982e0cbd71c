package fixtures

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/adethefirst1/odysia/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, _, err := store.OpenMigrated(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestDefaultHasBothRoles(t *testing.T) {
	set, err := Default()
	if err != nil {
		t.Fatal(err)
	}
	for _, role := range []string{"client", "expert"} {
		if len(set.For(role)) == 0 {
			t.Errorf("no %s conversations in default fixtures", role)
		}
	}
	if set.For("admin") != nil {
		t.Error("unknown role should have no conversations")
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"missing id":   "roles:\n  client:\n    - peer_name: X\n",
		"duplicate id": "roles:\n  client:\n    - id: a\n    - id: a\n",
		"bad sender":   "roles:\n  client:\n    - id: a\n      messages:\n        - {id: m1, from: bot, body: hi}\n",
		"negative":     "roles:\n  client:\n    - id: a\n      unread: -1\n",
		"not yaml":     "roles: [",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(data)); err == nil {
				t.Error("Parse() expected error")
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	data := "roles:\n  client:\n    - id: only\n      peer_name: Solo\n      messages:\n        - {id: m1, from: peer, body: hey, ago: 1h}\n"
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}
	set, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	convs := set.For("client")
	if len(convs) != 1 || convs[0].Messages[0].Ago != time.Hour {
		t.Errorf("loaded %+v", convs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
}

func TestSeed(t *testing.T) {
	db := testDB(t)
	now := time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)
	convs := []Conversation{{
		ID: "c1", PeerName: "Amara", Presence: "online", Project: "Brand", Unread: 1,
		Messages: []Message{
			{ID: "m2", From: "peer", Body: "newest", Ago: time.Minute, Status: "received"},
			{ID: "m1", From: "self", Body: "oldest", Ago: time.Hour},
		},
	}}

	n, err := Seed(db, convs, now)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("seeded %d, want 1", n)
	}

	c, _ := db.GetConversation("c1")
	if c.LastMessagePreview != "newest" || c.LastMessageAt != now.Add(-time.Minute).UnixMilli() {
		t.Errorf("conversation = %+v", c)
	}
	if c.UnreadCount != 1 || c.PeerPresence != "online" {
		t.Errorf("conversation = %+v", c)
	}

	msgs, _ := db.ListMessages("c1", 0, 10)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].Status != "read" || msgs[1].Sender != "self" {
		t.Errorf("default status not applied: %+v", msgs[1])
	}

	// A second seed is a no-op.
	n, err = Seed(db, convs, now)
	if err != nil || n != 0 {
		t.Errorf("second Seed = %d, %v; want 0, nil", n, err)
	}
}
