package views

import (
	"fmt"
	"time"

	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the dashboard role, link state and unread badge.
type StatusBar struct {
	*tview.TextView
	theme *ui.Theme
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	return &StatusBar{TextView: tv, theme: theme}
}

// Update redraws the bar.
func (sb *StatusBar) Update(label string, link status.State, badge int, narrow bool) {
	sb.Clear()

	linkColor := sb.theme.DimColor
	switch link {
	case status.Ready:
		linkColor = sb.theme.OnlineColor
	case status.Reconnecting:
		linkColor = sb.theme.AwayColor
	case status.Closed:
		linkColor = sb.theme.FailedColor
	}

	badgeText := "no unread"
	if badge > 0 {
		badgeText = fmt.Sprintf("[%s::b]● %d unread[-:-:-]", ui.Tag(sb.theme.UnreadColor), badge)
	}
	layout := "dual pane"
	if narrow {
		layout = "single pane"
	}

	_, _ = fmt.Fprintf(sb, " [::b]%s[-:-:-] | [%s]%s[-] | %s | %s | %s",
		label, ui.Tag(linkColor), link, badgeText, layout, time.Now().Format("15:04"))
}
