package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// render writes v in the selected output format; table uses printTable.
func render(w io.Writer, v any, printTable func(io.Writer)) error {
	switch outputFlag {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	case "table", "":
		printTable(w)
		return nil
	}
	return fmt.Errorf("unknown output format %q (want table, json or yaml)", outputFlag)
}

func printStatus(w io.Writer, s rpc.StatusResponse, name string) {
	fmt.Fprintf(w, "Session:       %s\n", name)
	fmt.Fprintf(w, "Role:          %s\n", s.Role)
	fmt.Fprintf(w, "Conversations: %d\n", s.Conversations)
	fmt.Fprintf(w, "Messages:      %s\n", humanize.Comma(int64(s.Messages)))
	fmt.Fprintf(w, "Pending sends: %d\n", s.PendingSends)
	fmt.Fprintf(w, "Watchers:      %d\n", s.Watchers)
	fmt.Fprintf(w, "Up since:      %s\n", humanize.Time(time.Now().Add(-time.Duration(s.UptimeMs)*time.Millisecond)))
}

func printConversations(w io.Writer, convs []rpc.Conversation) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPEER\tPRESENCE\tPROJECT\tUNREAD\tLAST MESSAGE")
	for _, c := range convs {
		when := "-"
		if !c.LastMessageAt.IsZero() {
			when = humanize.Time(c.LastMessageAt)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n", c.ID, c.PeerName, c.PeerPresence, c.ProjectLabel, c.UnreadCount, when)
	}
	_ = tw.Flush()
}

func printMessages(w io.Writer, msgs []rpc.Message) {
	for _, m := range msgs {
		fmt.Fprintf(w, "%s  %-4s  %-9s  %s\n", m.Timestamp.Local().Format("Jan 02 15:04"), m.Sender, m.Status, m.Body)
	}
}

func printEvent(w io.Writer, e rpc.Event) {
	at := e.OccurredAt.Local().Format("15:04:05")
	switch {
	case e.Inbound != nil:
		fmt.Fprintf(w, "%s  %-24s %s: %s\n", at, e.Kind, e.Inbound.ConversationID, e.Inbound.Body)
	case e.Delivery != nil:
		fmt.Fprintf(w, "%s  %-24s %s -> %s %s\n", at, e.Kind, e.Delivery.Token, e.Delivery.Outcome, e.Delivery.Error)
	case e.Presence != nil:
		fmt.Fprintf(w, "%s  %-24s %s is %s\n", at, e.Kind, e.Presence.ConversationID, e.Presence.Presence)
	case e.Conversation != nil:
		fmt.Fprintf(w, "%s  %-24s %s with %s\n", at, e.Kind, e.Conversation.ID, e.Conversation.PeerName)
	default:
		fmt.Fprintf(w, "%s  %s\n", at, e.Kind)
	}
}
