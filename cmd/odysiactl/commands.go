package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/adethefirst1/odysia/internal/lock"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/session"
	"github.com/adethefirst1/odysia/internal/status"
	"github.com/spf13/cobra"
)

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show backend status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, name, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			resp, err := c.GetStatus(ctx)
			if err != nil {
				if pid, held := lock.Holder(session.Dir(name)); held {
					return fmt.Errorf("backend pid %d holds the lock but does not answer: %w", pid, err)
				}
				return fmt.Errorf("backend for session %q is not running: %w", name, err)
			}
			return render(os.Stdout, resp, func(w io.Writer) {
				printStatus(w, resp, name)
			})
		},
	}
}

func conversationsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"convs", "ls"},
		Short:   "List conversations, most recent first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			convs, err := c.ListConversations(ctx)
			if err != nil {
				return err
			}
			return render(os.Stdout, convs, func(w io.Writer) {
				printConversations(w, convs)
			})
		},
	}
}

func messagesCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "messages <conversation-id>",
		Short: "Show a conversation's messages, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			msgs, err := c.ListMessages(ctx, rpc.ListMessagesRequest{ConversationID: args[0], Limit: limit})
			if err != nil {
				return err
			}
			return render(os.Stdout, msgs, func(w io.Writer) {
				printMessages(w, msgs)
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the newest n messages")
	return cmd
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <conversation-id> <text...>",
		Short: "Send a message as the local user",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			resp, err := c.SendMessage(ctx, rpc.SendMessageRequest{
				ConversationID: args[0],
				Body:           strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			return render(os.Stdout, resp, func(w io.Writer) {
				fmt.Fprintf(w, "Accepted, token %s\n", resp.Token)
			})
		},
	}
}

func injectCmd() *cobra.Command {
	var req rpc.InjectInboundRequest
	cmd := &cobra.Command{
		Use:   "inject <conversation-id> <text...>",
		Short: "Simulate a message from the peer",
		Long: `Delivers a message to the dashboard as if the peer had sent it.
With --peer, a conversation that does not exist yet is established first.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			req.ConversationID = args[0]
			req.Body = strings.Join(args[1:], " ")
			ctx, cancel := requestContext(cmd)
			defer cancel()
			msg, err := c.InjectInbound(ctx, req)
			if err != nil {
				return err
			}
			return render(os.Stdout, msg, func(w io.Writer) {
				fmt.Fprintf(w, "Injected %s into %s\n", msg.ID, msg.ConversationID)
			})
		},
	}
	cmd.Flags().StringVar(&req.PeerName, "peer", "", "peer name for a new conversation")
	cmd.Flags().StringVar(&req.ProjectLabel, "project", "", "project label for a new conversation")
	cmd.Flags().StringVar(&req.MessageID, "id", "", "message id (repeat one to test duplicate delivery)")
	return cmd
}

func presenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "presence <conversation-id> <online|away|offline>",
		Short:     "Change the peer's availability",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(status.Online), string(status.Away), string(status.Offline)},
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := status.ParsePresence(args[1])
			if err != nil {
				return err
			}
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			if err := c.SetPresence(ctx, rpc.SetPresenceRequest{ConversationID: args[0], Presence: string(p)}); err != nil {
				return err
			}
			fmt.Printf("%s is now %s\n", args[0], p)
			return nil
		},
	}
}

func readCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "read <conversation-id>",
		Short: "Mark a conversation read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, cancel := requestContext(cmd)
			defer cancel()
			return c.MarkRead(ctx, rpc.MarkReadRequest{ConversationID: args[0]})
		},
	}
}

func watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream backend events until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, closeConn, err := connect()
			if err != nil {
				return err
			}
			defer closeConn()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			stream, err := c.WatchEvents(ctx)
			if err != nil {
				return err
			}
			for {
				evt, err := stream.Recv()
				if err != nil {
					if errors.Is(ctx.Err(), context.Canceled) {
						return nil
					}
					return err
				}
				if err := render(os.Stdout, evt, func(w io.Writer) { printEvent(w, evt) }); err != nil {
					return err
				}
			}
		},
	}
}
