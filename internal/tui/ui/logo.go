package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays a compact ASCII art logo with the dashboard label.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a logo captioned with label.
func NewLogo(theme *Theme, label string) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
	}
	l.render(label)
	return l
}

func (l *Logo) render(label string) {
	titleColor := colorName(l.theme.TitleColor)
	fgColor := colorName(l.theme.FgColor)

	_, _ = fmt.Fprintf(l,
		"[%s::b]╔═╗╔╦╗╦ ╦╔═╗╦╔═╗[-:-:-]\n"+
			"[%s::b]║ ║ ║║╚╦╝╚═╗║╠═╣[-:-:-]\n"+
			"[%s::b]╚═╝═╩╝ ╩ ╚═╝╩╩ ╩[-:-:-]\n"+
			"[%s]%s[-:-:-]",
		titleColor, titleColor, titleColor, fgColor, tview.Escape(label),
	)
}
