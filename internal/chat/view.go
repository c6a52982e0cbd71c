package chat

// Pane is the pane shown on a narrow viewport.
type Pane string

const (
	PaneList   Pane = "list"
	PaneThread Pane = "thread"
)

// DefaultDualPaneWidth is the narrowest viewport, in terminal columns, that
// shows the list and thread side by side.
const DefaultDualPaneWidth = 100

// ViewState is a read-only snapshot of pane navigation.
type ViewState struct {
	ActivePane             Pane
	SelectedConversationID string // "" when nothing is selected
	Narrow                 bool
}

// ListVisible reports whether the conversation list is on screen.
func (v ViewState) ListVisible() bool {
	return !v.Narrow || v.ActivePane == PaneList
}

// ThreadVisible reports whether the active thread is on screen.
func (v ViewState) ThreadVisible() bool {
	return !v.Narrow || v.ActivePane == PaneThread
}

// ViewCoordinator decides which pane a narrow viewport shows. On a wide
// viewport both panes render and ActivePane is carried but ignored.
type ViewCoordinator struct {
	state      ViewState
	breakpoint int
}

// NewViewCoordinator starts on the list pane with nothing selected.
// breakpoint <= 0 uses DefaultDualPaneWidth.
func NewViewCoordinator(breakpoint int, narrow bool) *ViewCoordinator {
	if breakpoint <= 0 {
		breakpoint = DefaultDualPaneWidth
	}
	return &ViewCoordinator{
		state:      ViewState{ActivePane: PaneList, Narrow: narrow},
		breakpoint: breakpoint,
	}
}

// State returns a snapshot.
func (v *ViewCoordinator) State() ViewState {
	return v.state
}

// SelectConversation records the selection and, on a narrow viewport,
// switches to the thread pane.
func (v *ViewCoordinator) SelectConversation(id string) {
	v.state.SelectedConversationID = id
	if v.state.Narrow {
		v.state.ActivePane = PaneThread
	}
}

// GoBack returns from the thread to the list on a narrow viewport. Anywhere
// else it is a no-op; it reports whether the pane changed.
func (v *ViewCoordinator) GoBack() bool {
	if !v.state.Narrow || v.state.ActivePane != PaneThread {
		return false
	}
	v.state.ActivePane = PaneList
	return true
}

// SetNarrow applies a breakpoint crossing. The selection survives; entering
// narrow mode with nothing selected forces the list pane.
func (v *ViewCoordinator) SetNarrow(narrow bool) bool {
	if narrow == v.state.Narrow {
		return false
	}
	v.state.Narrow = narrow
	if narrow && v.state.SelectedConversationID == "" {
		v.state.ActivePane = PaneList
	}
	return true
}

// SetViewportWidth derives narrowness from a width in columns.
func (v *ViewCoordinator) SetViewportWidth(columns int) bool {
	return v.SetNarrow(columns < v.breakpoint)
}
