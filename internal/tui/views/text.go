package views

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/adethefirst1/odysia/internal/status"
	"github.com/adethefirst1/odysia/internal/tui/ui"
	"github.com/rivo/tview"
)

// display makes user text safe to print in a dynamic-color view.
func display(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

// oneLine collapses a multi-line body for table cells.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// sanitizeForTerminal drops codepoints tcell renders badly: skin tone
// modifiers, zero width joiners and variation selectors. A thumbs-up with
// a skin tone becomes a plain thumbs-up two cells wide.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF: // skin tones
		return true
	case r == 0x200D: // ZWJ
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}

// formatTimestamp shows the time of day for today and the date otherwise.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("Jan 02 15:04")
}

// presenceDot is a colored availability marker.
func presenceDot(theme *ui.Theme, p status.Presence) string {
	c := theme.OfflineColor
	switch p {
	case status.Online:
		c = theme.OnlineColor
	case status.Away:
		c = theme.AwayColor
	}
	return fmt.Sprintf("[%s]●[-]", ui.Tag(c))
}

// deliveryLabel describes an outgoing message's status.
func deliveryLabel(theme *ui.Theme, d status.Delivery) string {
	switch d {
	case status.Sending:
		return fmt.Sprintf("[%s]◌ sending[-]", ui.Tag(theme.PendingColor))
	case status.Sent:
		return fmt.Sprintf("[%s]✓ sent[-]", ui.Tag(theme.PendingColor))
	case status.Delivered:
		return fmt.Sprintf("[%s]✓✓ delivered[-]", ui.Tag(theme.PendingColor))
	case status.Read:
		return fmt.Sprintf("[%s]✓✓ read[-]", ui.Tag(theme.ReadColor))
	case status.Failed:
		return fmt.Sprintf("[%s]✗ failed, r to retry[-]", ui.Tag(theme.FailedColor))
	}
	return ""
}
