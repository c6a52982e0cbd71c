package views

import (
	"fmt"

	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/rivo/tview"
)

// HelpView displays key binding reference.
type HelpView struct {
	*tview.TextView
	theme *ui.Theme
}

// NewHelpView creates a new help view.
func NewHelpView(theme *ui.Theme) *HelpView {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Help ")
	tv.SetTitleColor(theme.TitleColor)

	hv := &HelpView{
		TextView: tv,
		theme:    theme,
	}
	hv.render()
	return hv
}

// Name implements Component.
func (hv *HelpView) Name() string { return "Help" }

// Hints implements Component.
func (hv *HelpView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

type helpEntry struct{ key, desc string }

var helpSections = []struct {
	title   string
	entries []helpEntry
}{
	{"Global", []helpEntry{
		{":", "Command mode"},
		{"/", "Filter conversations"},
		{"?", "Help"},
		{"q", "Quit"},
		{"Ctrl-C", "Quit immediately"},
	}},
	{"Conversation list", []helpEntry{
		{"Enter", "Open conversation"},
		{"1-9", "Open the Nth listed conversation"},
		{"0", "Clear filter"},
		{"j/k", "Move down / up"},
	}},
	{"Thread", []helpEntry{
		{"i", "Focus composer"},
		{"Enter", "Send (in composer)"},
		{"Alt-Enter", "New line (in composer)"},
		{"r", "Retry the latest failed message"},
		{"d", "Conversation details"},
		{"Esc", "Leave composer / back to list"},
	}},
	{"Commands", []helpEntry{
		{":open <name>", "Open the first conversation matching name"},
		{":filter <text>", "Filter conversations"},
		{":back", "Back to the list"},
		{":retry", "Retry the latest failed message"},
		{":help", "Show this help"},
		{":quit", "Quit"},
	}},
}

func (hv *HelpView) render() {
	kc := ui.Tag(hv.theme.MenuKeyColor)
	for _, s := range helpSections {
		_, _ = fmt.Fprintf(hv, "\n  [::b]%s[-:-:-]\n\n", s.title)
		for _, e := range s.entries {
			_, _ = fmt.Fprintf(hv, "  [%s]%-16s[-:-:-] %s\n", kc, tview.Escape(e.key), e.desc)
		}
	}
}
