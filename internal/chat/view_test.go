package chat

import "testing"

func TestNarrowSelectThenBack(t *testing.T) {
	v := NewViewCoordinator(0, true)

	v.SelectConversation("c1")
	if s := v.State(); s.ActivePane != PaneThread || s.SelectedConversationID != "c1" {
		t.Fatalf("after select: %+v", s)
	}
	if s := v.State(); s.ListVisible() || !s.ThreadVisible() {
		t.Errorf("narrow thread view: list=%v thread=%v", s.ListVisible(), s.ThreadVisible())
	}

	if !v.GoBack() {
		t.Fatal("GoBack() = false, want true")
	}
	if s := v.State(); s.ActivePane != PaneList || s.SelectedConversationID != "c1" {
		t.Errorf("after back: %+v", s)
	}
}

func TestGoBackNoops(t *testing.T) {
	narrow := NewViewCoordinator(0, true)
	if narrow.GoBack() {
		t.Error("GoBack on narrow list pane changed state")
	}

	wide := NewViewCoordinator(0, false)
	wide.SelectConversation("c1")
	before := wide.State()
	if wide.GoBack() {
		t.Error("GoBack on wide viewport changed state")
	}
	if wide.State() != before {
		t.Errorf("state = %+v, want %+v", wide.State(), before)
	}
}

func TestWideSelectShowsBoth(t *testing.T) {
	v := NewViewCoordinator(0, false)
	v.SelectConversation("c2")

	s := v.State()
	if s.SelectedConversationID != "c2" {
		t.Errorf("selected = %q", s.SelectedConversationID)
	}
	if s.ActivePane != PaneList {
		t.Errorf("active pane = %s, want list (ignored on wide)", s.ActivePane)
	}
	if !s.ListVisible() || !s.ThreadVisible() {
		t.Error("wide viewport should show both panes")
	}
}

func TestEnterNarrowWithoutSelection(t *testing.T) {
	v := NewViewCoordinator(0, false)
	if !v.SetNarrow(true) {
		t.Fatal("SetNarrow(true) = false")
	}
	if s := v.State(); s.ActivePane != PaneList || s.SelectedConversationID != "" {
		t.Errorf("state = %+v, want list with no selection", s)
	}
}

func TestSelectionSurvivesBreakpoint(t *testing.T) {
	v := NewViewCoordinator(0, true)
	v.SelectConversation("c1")
	v.SetNarrow(false)
	v.SetNarrow(true)

	if s := v.State(); s.SelectedConversationID != "c1" || s.ActivePane != PaneThread {
		t.Errorf("state = %+v, want thread c1", s)
	}
	if v.SetNarrow(true) {
		t.Error("SetNarrow with unchanged value reported a change")
	}
}

func TestSetViewportWidth(t *testing.T) {
	v := NewViewCoordinator(100, false)

	tests := []struct {
		cols       int
		changed    bool
		wantNarrow bool
	}{
		{120, false, false},
		{99, true, true},
		{60, false, true},
		{100, true, false},
	}
	for _, tt := range tests {
		if got := v.SetViewportWidth(tt.cols); got != tt.changed {
			t.Errorf("SetViewportWidth(%d) = %v, want %v", tt.cols, got, tt.changed)
		}
		if v.State().Narrow != tt.wantNarrow {
			t.Errorf("width %d: narrow = %v, want %v", tt.cols, v.State().Narrow, tt.wantNarrow)
		}
	}
}
