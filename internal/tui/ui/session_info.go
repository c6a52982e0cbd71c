package ui

import (
	"fmt"
	"time"

	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session       string
	Role          string
	Link          string
	Conversations int
	Unread        int
	PendingSends  int
	Uptime        time.Duration // backend uptime; 0 when unknown
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 1)

	return &SessionInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Update renders the session info.
func (si *SessionInfo) Update(data SessionData) {
	si.Clear()

	fg := colorName(si.theme.FgColor)
	ct := colorName(si.theme.CounterColor)
	unread := ct
	if data.Unread > 0 {
		unread = colorName(si.theme.UnreadColor)
	}
	uptime := "-"
	if data.Uptime > 0 {
		uptime = formatDuration(data.Uptime)
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Session:[-:-:-] [%s]%s (%s)[-]\n"+
			"[%s::b]Link:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Chats:[-:-:-]   [%s]%d[-]\n"+
			"[%s::b]Unread:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Backend:[-:-:-] [%s]%s up, %d pending[-]",
		fg, ct, tview.Escape(data.Session), data.Role,
		fg, ct, data.Link,
		fg, ct, data.Conversations,
		fg, unread, data.Unread,
		fg, ct, uptime, data.PendingSends,
	)
}

func formatDuration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
