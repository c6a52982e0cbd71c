package views

import (
	"fmt"
	"strconv"

	"github.com/adethefirst1/odysia/internal/chat"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// ConversationList is the conversation table, most recent first.
type ConversationList struct {
	*tview.Table
	theme  *ui.Theme
	convs  []chat.Conversation
	active string
}

// NewConversationList creates a new conversation list table.
func NewConversationList(theme *ui.Theme) *ConversationList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true)
	table.SetBorderColor(theme.BorderColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	table.SetTitle(" Conversations ")
	table.SetTitleColor(theme.TitleColor)

	return &ConversationList{
		Table: table,
		theme: theme,
	}
}

// Name implements Component.
func (cl *ConversationList) Name() string { return "Conversations" }

// Hints implements Component.
func (cl *ConversationList) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Open"},
		{Key: "/", Description: "Filter"},
		{Key: "0", Description: "Clear filter"},
		{Key: "1-9", Description: "Jump", Numeric: true},
	}
}

// Update replaces the rows. The cursor stays on the conversation it was on.
func (cl *ConversationList) Update(convs []chat.Conversation, active, filter string, total int) {
	cursor := cl.SelectedID()
	cl.convs = convs
	cl.active = active
	cl.render()

	row := 1
	for i, c := range convs {
		if c.ID == cursor {
			row = i + 1
			break
		}
	}
	if len(convs) > 0 {
		cl.Select(row, 0)
	}

	if filter != "" {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d/%d) filter: %s ", len(convs), total, tview.Escape(filter)))
	} else {
		cl.SetTitle(fmt.Sprintf(" Conversations (%d) ", len(convs)))
	}
}

func (cl *ConversationList) render() {
	cl.Clear()

	headers := []struct {
		text string
		exp  int
	}{
		{" #", 0},
		{" PEER", 2},
		{" PROJECT", 2},
		{" LAST MESSAGE", 3},
		{" WHEN", 0},
		{" UNREAD", 0},
	}
	for col, h := range headers {
		cl.SetCell(0, col, tview.NewTableCell(h.text).
			SetSelectable(false).
			SetTextColor(cl.theme.TableHeaderFg).
			SetBackgroundColor(cl.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold).
			SetExpansion(h.exp))
	}

	for i, c := range cl.convs {
		row := i + 1
		jump := ""
		if row <= 9 {
			jump = strconv.Itoa(row)
		}
		name := fmt.Sprintf("%s %s", presenceDot(cl.theme, c.PeerPresence), display(c.PeerName))
		nameCell := tview.NewTableCell(" " + name).SetExpansion(2).SetTextColor(cl.theme.FgColor)
		if c.ID == cl.active {
			nameCell.SetAttributes(tcell.AttrBold)
		}
		unread := tview.NewTableCell("").SetAlign(tview.AlignRight)
		if c.UnreadCount > 0 {
			unread.SetText(strconv.Itoa(c.UnreadCount) + " ").
				SetTextColor(cl.theme.UnreadColor).
				SetAttributes(tcell.AttrBold)
		}
		when := ""
		if !c.LastMessageAt.IsZero() {
			when = humanize.Time(c.LastMessageAt)
		}

		cl.SetCell(row, 0, tview.NewTableCell(" "+jump).SetTextColor(cl.theme.NumericKeyColor))
		cl.SetCell(row, 1, nameCell)
		cl.SetCell(row, 2, tview.NewTableCell(" "+display(c.ProjectLabel)).SetExpansion(2).SetTextColor(cl.theme.FgColor))
		cl.SetCell(row, 3, tview.NewTableCell(" "+display(oneLine(c.LastMessagePreview))).SetExpansion(3).SetTextColor(cl.theme.DimColor).SetMaxWidth(60))
		cl.SetCell(row, 4, tview.NewTableCell(" "+when).SetTextColor(cl.theme.FgColor).SetAlign(tview.AlignRight))
		cl.SetCell(row, 5, unread)
	}
}

// SelectedID returns the id of the conversation under the cursor.
func (cl *ConversationList) SelectedID() string {
	row, _ := cl.GetSelection()
	return cl.IDAt(row)
}

// IDAt returns the id of the Nth listed conversation (1-based), or "".
func (cl *ConversationList) IDAt(n int) string {
	if n < 1 || n > len(cl.convs) {
		return ""
	}
	return cl.convs[n-1].ID
}
