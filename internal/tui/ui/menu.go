package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"
)

// menuRows is how many hints stack in one column before wrapping.
const menuRows = 5

// Menu displays keyboard shortcut hints in columns.
type Menu struct {
	*tview.TextView
	theme *Theme
}

// NewMenu creates a new menu hint panel.
func NewMenu(theme *Theme) *Menu {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 2, 0)

	return &Menu{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders hints top to bottom, then left to right.
func (m *Menu) Update(hints []MenuHint) {
	m.Clear()
	_, _ = fmt.Fprint(m, m.layout(hints))
}

func (m *Menu) layout(hints []MenuHint) string {
	keyColor := colorName(m.theme.MenuKeyColor)
	numColor := colorName(m.theme.NumericKeyColor)

	widest := 0
	for _, h := range hints {
		widest = max(widest, hintWidth(h))
	}

	var b strings.Builder
	for row := range min(menuRows, len(hints)) {
		for i := row; i < len(hints); i += menuRows {
			h := hints[i]
			kc := keyColor
			if h.Numeric {
				kc = numColor
			}
			fmt.Fprintf(&b, "[%s::b]<%s>[-:-:-] %s", kc, h.Key, h.Description)
			if i+menuRows < len(hints) {
				b.WriteString(strings.Repeat(" ", widest-hintWidth(h)+3))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func hintWidth(h MenuHint) int {
	return len(h.Key) + len(h.Description) + 3
}
