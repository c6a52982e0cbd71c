package views

import (
	"strings"
	"testing"
	"time"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
)

func TestSanitizeForTerminal(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello", "hello"},
		{"👍🏽", "👍"},
		{"❤️", "❤"},
		{"👨‍💻", "👨💻"},
	}
	for _, tt := range tests {
		if got := sanitizeForTerminal(tt.in); got != tt.want {
			t.Errorf("sanitizeForTerminal(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDisplayEscapesColorTags(t *testing.T) {
	got := display("see [red]this[-]")
	if strings.Contains(got, "[red]") {
		t.Errorf("display left a color tag intact: %q", got)
	}
}

func TestFormatTimestamp(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.Local)
	if got := formatTimestamp(now.Add(-2*time.Hour), now); got != "16:00" {
		t.Errorf("same day = %q, want 16:00", got)
	}
	if got := formatTimestamp(now.AddDate(0, 0, -1), now); got != "Mar 09 18:00" {
		t.Errorf("yesterday = %q, want Mar 09 18:00", got)
	}
	if got := formatTimestamp(time.Time{}, now); got != "" {
		t.Errorf("zero time = %q, want empty", got)
	}
}

func TestRenderMessages(t *testing.T) {
	theme := ui.DefaultTheme()
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.Local)
	msgs := []chat.Message{
		{ID: "p1", Sender: chat.Peer, Body: "Is the draft ready?", Timestamp: now.Add(-time.Hour), Status: status.Read},
		{ID: "l1", Sender: chat.Self, Body: "Almost.\nTonight.", Timestamp: now, Status: status.Failed},
	}
	out := renderMessages(theme, msgs, "", "Expert", now)
	if !strings.Contains(out, "Expert") {
		t.Errorf("peer messages should fall back to the peer noun:\n%s", out)
	}
	if !strings.Contains(out, "You") {
		t.Errorf("own messages should be labelled You:\n%s", out)
	}
	if !strings.Contains(out, "failed") {
		t.Errorf("failed delivery should be shown:\n%s", out)
	}
	if !strings.Contains(out, "Almost.\nTonight.") {
		t.Errorf("multi-line body should keep its newline:\n%s", out)
	}
}

func TestLastFailedSkipsResent(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	conv := &chat.Conversation{ID: "c1", PeerName: "Amara"}
	msgs := []chat.Message{
		{ID: "l1", Sender: chat.Self, Body: "one", Status: status.Failed},
		{ID: "l2", Sender: chat.Self, Body: "two", Status: status.Failed},
		{ID: "l3", Sender: chat.Self, Body: "two", Status: status.Sending, ResentFrom: "l2"},
	}
	mt.Update(conv, msgs, "Expert")
	if got := mt.LastFailed(); got != "l1" {
		t.Errorf("LastFailed() = %q, want l1", got)
	}

	mt.Update(nil, nil, "Expert")
	if got := mt.LastFailed(); got != "" {
		t.Errorf("LastFailed() with no conversation = %q, want empty", got)
	}
}

func TestConversationListIDAt(t *testing.T) {
	cl := NewConversationList(ui.DefaultTheme())
	convs := []chat.Conversation{
		{ID: "c2", PeerName: "Kenji", UnreadCount: 1},
		{ID: "c1", PeerName: "Amara"},
	}
	cl.Update(convs, "c1", "", 2)
	if got := cl.IDAt(1); got != "c2" {
		t.Errorf("IDAt(1) = %q, want c2", got)
	}
	if got := cl.IDAt(3); got != "" {
		t.Errorf("IDAt(3) = %q, want empty", got)
	}
	if got := cl.SelectedID(); got != "c2" {
		t.Errorf("SelectedID() = %q, want c2", got)
	}

	// c1 moves to the top; the cursor stays on c2.
	cl.Update([]chat.Conversation{convs[1], convs[0]}, "c1", "", 2)
	if got := cl.SelectedID(); got != "c2" {
		t.Errorf("SelectedID() after reorder = %q, want c2", got)
	}
}

func TestComposerKeys(t *testing.T) {
	mt := NewMessageThread(ui.DefaultTheme())
	var keys []chat.EditKey
	mt.SetOnKey(func(k chat.EditKey) { keys = append(keys, k) })
	capture := mt.Composer().GetInputCapture()

	// Alt+Enter reaches the TextArea, which inserts at the cursor.
	alt := tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModAlt)
	if got := capture(alt); got != alt {
		t.Errorf("Alt+Enter was consumed, want it passed to the text area")
	}
	if len(keys) != 0 {
		t.Errorf("Alt+Enter reported keys %v, want none", keys)
	}

	if got := capture(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)); got != nil {
		t.Errorf("Enter was passed through, want it consumed")
	}
	if len(keys) != 1 || keys[0] != chat.KeyCommit {
		t.Errorf("Enter reported %v, want [KeyCommit]", keys)
	}

	r := tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)
	if got := capture(r); got != r {
		t.Errorf("typing was consumed")
	}
}
