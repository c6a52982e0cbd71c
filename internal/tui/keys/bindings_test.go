package keys

import (
	"testing"

	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
)

func TestScopeBeforeGlobal(t *testing.T) {
	r := NewRegistry()
	var got string
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = "quit" }})
	r.Add("thread", &Action{Key: tcell.KeyRune, Rune: 'q', Handler: func() { got = "thread-q" }})

	q := tcell.NewEventKey(tcell.KeyRune, 'q', tcell.ModNone)
	if !r.HandleEvent("thread", q) || got != "thread-q" {
		t.Errorf("thread scope: got %q", got)
	}
	if !r.HandleEvent("list", q) || got != "quit" {
		t.Errorf("list scope: got %q", got)
	}
	if r.HandleEvent("list", tcell.NewEventKey(tcell.KeyRune, 'x', tcell.ModNone)) {
		t.Error("unbound key handled")
	}
}

func TestModifierKeys(t *testing.T) {
	r := NewRegistry()
	hit := false
	r.Add("thread", &Action{Key: tcell.KeyEnter, Mod: tcell.ModAlt, Handler: func() { hit = true }})

	if r.HandleEvent("thread", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone)) {
		t.Error("plain Enter matched Alt+Enter")
	}
	if !r.HandleEvent("thread", tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModAlt)) || !hit {
		t.Error("Alt+Enter not matched")
	}
}

func TestHintsOrder(t *testing.T) {
	r := NewRegistry()
	r.AddGlobal(&Action{Key: tcell.KeyRune, Rune: '?', Visible: true, Hint: ui.MenuHint{Key: "?", Description: "Help"}})
	r.Add("list", &Action{Key: tcell.KeyEnter, Visible: true, Hint: ui.MenuHint{Key: "Enter", Description: "Open"}})
	r.Add("list", &Action{Key: tcell.KeyRune, Rune: '/', Visible: true, Hint: ui.MenuHint{Key: "/", Description: "Filter"}})
	r.Add("list", &Action{Key: tcell.KeyRune, Rune: 'x'})

	hints := r.Hints("list")
	want := []string{"Enter", "/", "?"}
	if len(hints) != len(want) {
		t.Fatalf("hints = %v", hints)
	}
	for i, h := range hints {
		if h.Key != want[i] {
			t.Errorf("hint[%d] = %q, want %q", i, h.Key, want[i])
		}
	}
}
