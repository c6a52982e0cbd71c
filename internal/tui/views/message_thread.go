package views

import (
	"fmt"
	"strings"
	"time"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MessageThread displays the active conversation and its composer.
type MessageThread struct {
	*tview.Flex
	theme    *ui.Theme
	messages *tview.TextView
	composer *tview.TextArea
	now      func() time.Time

	peerName   string
	lastFailed string
	syncing    bool

	onDraft func(text string)
	onKey   func(k chat.EditKey)
}

// NewMessageThread creates a new message thread view.
func NewMessageThread(theme *ui.Theme) *MessageThread {
	messages := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	messages.SetBorder(true)
	messages.SetBorderColor(theme.BorderColor)
	messages.SetBackgroundColor(theme.BgColor)
	messages.SetTextColor(theme.FgColor)
	messages.SetTitle(" Messages ")
	messages.SetTitleColor(theme.TitleColor)

	composer := tview.NewTextArea().
		SetPlaceholder("Write a message (Enter sends, Alt+Enter adds a line)")
	composer.SetBorder(true)
	composer.SetBorderColor(theme.BorderColor)
	composer.SetBackgroundColor(theme.BgColor)
	composer.SetTextStyle(tcell.StyleDefault.Foreground(theme.FgColor).Background(theme.BgColor))
	composer.SetPlaceholderStyle(tcell.StyleDefault.Foreground(theme.DimColor).Background(theme.BgColor))
	composer.SetTitle(" Compose (i to focus) ")
	composer.SetTitleColor(theme.TitleColor)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messages, 0, 1, true).
		AddItem(composer, 5, 0, false)

	mt := &MessageThread{
		Flex:     flex,
		theme:    theme,
		messages: messages,
		composer: composer,
		now:      time.Now,
	}

	composer.SetChangedFunc(func() {
		if !mt.syncing && mt.onDraft != nil {
			mt.onDraft(composer.GetText())
		}
	})
	// Alt+Enter falls through so the TextArea breaks the line at the
	// cursor; the change handler mirrors the result into the draft.
	composer.SetInputCapture(func(ev *tcell.EventKey) *tcell.EventKey {
		if ev.Key() != tcell.KeyEnter || ev.Modifiers()&tcell.ModAlt != 0 || mt.onKey == nil {
			return ev
		}
		mt.onKey(chat.KeyCommit)
		return nil
	})

	return mt
}

// Name implements Component.
func (mt *MessageThread) Name() string {
	if mt.peerName != "" {
		return mt.peerName
	}
	return "Messages"
}

// Hints implements Component.
func (mt *MessageThread) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "i", Description: "Compose"},
		{Key: "Enter", Description: "Send"},
		{Key: "Alt-Enter", Description: "Newline"},
		{Key: "r", Description: "Retry failed"},
		{Key: "d", Description: "Details"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnDraft sets the callback for every composer edit.
func (mt *MessageThread) SetOnDraft(fn func(text string)) {
	mt.onDraft = fn
}

// SetOnKey sets the callback for composer Enter.
func (mt *MessageThread) SetOnKey(fn func(k chat.EditKey)) {
	mt.onKey = fn
}

// SetDraft mirrors the composer state without echoing it back.
func (mt *MessageThread) SetDraft(text string) {
	if mt.composer.GetText() == text {
		return
	}
	mt.syncing = true
	mt.composer.SetText(text, true)
	mt.syncing = false
}

// LastFailed returns the newest failed message that has not been resent.
func (mt *MessageThread) LastFailed() string {
	return mt.lastFailed
}

// Update renders the conversation. active may be nil.
func (mt *MessageThread) Update(active *chat.Conversation, msgs []chat.Message, peerNoun string) {
	mt.messages.Clear()
	mt.lastFailed = ""
	if active == nil {
		mt.peerName = ""
		mt.messages.SetTitle(" Messages ")
		_, _ = fmt.Fprintf(mt.messages, "\n  [%s]Select a conversation to start messaging.[-]", ui.Tag(mt.theme.DimColor))
		return
	}

	mt.peerName = active.PeerName
	title := fmt.Sprintf(" %s %s · %s ", presenceDot(mt.theme, active.PeerPresence), display(active.PeerName), display(active.ProjectLabel))
	mt.messages.SetTitle(title)

	_, _ = fmt.Fprint(mt.messages, renderMessages(mt.theme, msgs, active.PeerName, peerNoun, mt.now()))

	resent := make(map[string]bool)
	for _, m := range msgs {
		if m.ResentFrom != "" {
			resent[m.ResentFrom] = true
		}
	}
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Status == status.Failed && !resent[msgs[i].ID] {
			mt.lastFailed = msgs[i].ID
			break
		}
	}
	mt.messages.ScrollToEnd()
}

func renderMessages(theme *ui.Theme, msgs []chat.Message, peerName, peerNoun string, now time.Time) string {
	if peerName == "" {
		peerName = peerNoun
	}
	var b strings.Builder
	for _, m := range msgs {
		sender, color := peerName, theme.PeerColor
		if m.Outgoing() {
			sender, color = "You", theme.SelfColor
		}
		fmt.Fprintf(&b, "[%s::b]%s[-:-:-] [%s]%s[-]",
			ui.Tag(color), display(sender), ui.Tag(theme.DimColor), formatTimestamp(m.Timestamp, now))
		if m.Outgoing() {
			b.WriteString("  " + deliveryLabel(theme, m.Status))
		}
		b.WriteString("\n")
		b.WriteString(display(m.Body))
		b.WriteString("\n\n")
	}
	return b.String()
}

// Messages returns the messages text view (for focus management).
func (mt *MessageThread) Messages() *tview.TextView {
	return mt.messages
}

// Composer returns the composer (for focus management).
func (mt *MessageThread) Composer() *tview.TextArea {
	return mt.composer
}
