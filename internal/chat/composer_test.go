package chat

import (
	"errors"
	"testing"

	"github.com/adethefirst1/odysia/internal/status"
)

func TestSubmitBlankIsNoop(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c1")

	for _, draft := range []string{"", "   ", "\n\t \n"} {
		c.UpdateDraft(draft)
		m, err := c.Submit()
		if m != nil || err != nil {
			t.Errorf("Submit(%q) = %v, %v; want nil, nil", draft, m, err)
		}
	}
	if msgs, _ := threads.MessagesFor("c1"); len(msgs) != 0 {
		t.Errorf("blank submits appended %d messages", len(msgs))
	}
}

func TestSubmitAppendsAndClears(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c1")
	c.UpdateDraft("hello")

	m, err := c.Submit()
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Body != "hello" || m.Sender != Self || m.Status != status.Sending {
		t.Fatalf("Submit = %+v", m)
	}
	if got := c.State().Draft; got != "" {
		t.Errorf("draft = %q, want empty", got)
	}
	msgs, _ := threads.MessagesFor("c1")
	if len(msgs) != 1 || msgs[0].Status != status.Sending {
		t.Errorf("thread = %+v", msgs)
	}
}

func TestDraftKeptVerbatimBodyTrimmed(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c1")
	c.UpdateDraft("  see you at 3  ")

	if got := c.State().Draft; got != "  see you at 3  " {
		t.Errorf("draft = %q, want untrimmed", got)
	}
	m, _ := c.Submit()
	if m.Body != "see you at 3" {
		t.Errorf("body = %q", m.Body)
	}
}

func TestPressNewlineThenCommit(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c2")

	c.UpdateDraft("line one")
	if m, _ := c.Press(KeyNewline); m != nil {
		t.Fatal("newline submitted the draft")
	}
	c.UpdateDraft(c.State().Draft + "line two")

	m, err := c.Press(KeyCommit)
	if err != nil {
		t.Fatal(err)
	}
	if m == nil || m.Body != "line one\nline two" {
		t.Errorf("body = %+v", m)
	}
}

func TestRetargetDiscardsDraft(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c1")
	c.UpdateDraft("half written")

	c.Target("c1")
	if got := c.State().Draft; got != "half written" {
		t.Errorf("same target: draft = %q, want kept", got)
	}

	c.Target("c2")
	if s := c.State(); s.Draft != "" || s.ConversationID != "c2" {
		t.Errorf("after switch: %+v", s)
	}
}

func TestSubmitWithoutTarget(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.UpdateDraft("orphan")

	if _, err := c.Submit(); !errors.Is(err, ErrNoConversation) {
		t.Errorf("error = %v, want ErrNoConversation", err)
	}
}

func TestSubmitUnknownConversationKeepsDraft(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("ghost")
	c.UpdateDraft("hello?")

	if _, err := c.Submit(); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
	if got := c.State().Draft; got != "hello?" {
		t.Errorf("draft = %q, want kept after failure", got)
	}
}

func TestReset(t *testing.T) {
	threads, _ := newTestStores(t)
	c := NewComposer(threads)
	c.Target("c1")
	c.UpdateDraft("nevermind")
	c.Reset()
	if s := c.State(); s.Draft != "" || s.ConversationID != "c1" {
		t.Errorf("after reset: %+v", s)
	}
}
