package views

import (
	"fmt"
	"time"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

// ConversationInfo displays detailed information about a conversation.
type ConversationInfo struct {
	*tview.TextView
	theme *ui.Theme
}

// NewConversationInfo creates a new conversation info view.
func NewConversationInfo(theme *ui.Theme) *ConversationInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorder(true)
	tv.SetBorderColor(theme.BorderColor)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetTextColor(theme.FgColor)
	tv.SetTitle(" Conversation Details ")
	tv.SetTitleColor(theme.TitleColor)

	return &ConversationInfo{
		TextView: tv,
		theme:    theme,
	}
}

// Name implements Component.
func (ci *ConversationInfo) Name() string { return "Details" }

// Hints implements Component.
func (ci *ConversationInfo) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Esc", Description: "Back"},
	}
}

// Update renders conversation details.
func (ci *ConversationInfo) Update(c *chat.Conversation, msgs []chat.Message, peerNoun string) {
	ci.Clear()
	if c == nil {
		return
	}

	fg := ui.Tag(ci.theme.FgColor)
	ct := ui.Tag(ci.theme.CounterColor)

	lastActive := "-"
	if !c.LastMessageAt.IsZero() {
		lastActive = fmt.Sprintf("%s (%s)", c.LastMessageAt.Local().Format(time.DateTime), humanize.Time(c.LastMessageAt))
	}
	sent, failed := 0, 0
	for _, m := range msgs {
		if m.Outgoing() {
			sent++
		}
		if m.Status == status.Failed {
			failed++
		}
	}

	_, _ = fmt.Fprintf(ci,
		"\n [%s::b]%-13s[-:-:-] [%s]%s[-]\n"+
			" [%s::b]Presence:[-:-:-]     %s [%s]%s[-]\n"+
			" [%s::b]Project:[-:-:-]      [%s]%s[-]\n"+
			" [%s::b]Messages:[-:-:-]     [%s]%d (%d yours, %d failed)[-]\n"+
			" [%s::b]Last Active:[-:-:-]  [%s]%s[-]\n"+
			" [%s::b]Last Message:[-:-:-] [%s]%s[-]",
		fg, peerNoun+":", ct, display(c.PeerName),
		fg, presenceDot(ci.theme, c.PeerPresence), ct, c.PeerPresence,
		fg, ct, display(c.ProjectLabel),
		fg, ct, len(msgs), sent, failed,
		fg, ct, lastActive,
		fg, ct, display(oneLine(c.LastMessagePreview)),
	)
	ci.SetTitle(fmt.Sprintf(" %s Details ", display(c.PeerName)))
}
