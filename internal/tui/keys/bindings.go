// Package keys maps terminal key events to dashboard actions.
package keys

import (
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
)

// Action represents a keybinding action.
type Action struct {
	Key     tcell.Key
	Rune    rune
	Mod     tcell.ModMask
	Hint    ui.MenuHint
	Visible bool
	Handler func()
}

// Matches returns true if the event matches this action. For special keys
// the Alt modifier must match exactly, so Enter and Alt+Enter differ.
func (a *Action) Matches(ev *tcell.EventKey) bool {
	if a.Key != tcell.KeyRune {
		return ev.Key() == a.Key && ev.Modifiers()&tcell.ModAlt == a.Mod&tcell.ModAlt
	}
	return ev.Key() == tcell.KeyRune && ev.Rune() == a.Rune
}

// Registry holds keybindings per scope, in registration order so hints
// render the same way every frame.
type Registry struct {
	global []*Action
	scopes map[string][]*Action
}

// NewRegistry creates a new keybinding registry.
func NewRegistry() *Registry {
	return &Registry{scopes: make(map[string][]*Action)}
}

// AddGlobal registers a keybinding active in every scope.
func (r *Registry) AddGlobal(a *Action) {
	r.global = append(r.global, a)
}

// Add registers a scope-specific keybinding.
func (r *Registry) Add(scope string, a *Action) {
	r.scopes[scope] = append(r.scopes[scope], a)
}

// Hints returns the visible hints of a scope followed by the global ones.
func (r *Registry) Hints(scope string) []ui.MenuHint {
	var hints []ui.MenuHint
	for _, a := range r.scopes[scope] {
		if a.Visible {
			hints = append(hints, a.Hint)
		}
	}
	for _, a := range r.global {
		if a.Visible {
			hints = append(hints, a.Hint)
		}
	}
	return hints
}

// HandleEvent runs the first matching action, scope bindings first.
// Returns true if a handler matched.
func (r *Registry) HandleEvent(scope string, ev *tcell.EventKey) bool {
	for _, a := range r.scopes[scope] {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	for _, a := range r.global {
		if a.Matches(ev) {
			a.Handler()
			return true
		}
	}
	return false
}
