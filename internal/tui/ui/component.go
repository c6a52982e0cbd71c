package ui

// MenuHint describes a keyboard shortcut for display in the menu bar.
type MenuHint struct {
	Key         string
	Description string
	Numeric     bool // true for 1-9 shortcuts (displayed in a different color)
}

// Component is implemented by every pane that contributes menu hints.
type Component interface {
	Name() string
	Hints() []MenuHint
}
