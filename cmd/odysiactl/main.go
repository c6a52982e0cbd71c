package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/session"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	sessionFlag string
	outputFlag  string
)

func main() {
	root := &cobra.Command{
		Use:           "odysiactl",
		Short:         "Inspect and drive an odysia messaging backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&sessionFlag, "session", "", "session name (overrides config default)")
	root.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "output format: table, json or yaml")

	root.AddCommand(statusCmd())
	root.AddCommand(conversationsCmd())
	root.AddCommand(messagesCmd())
	root.AddCommand(sendCmd())
	root.AddCommand(injectCmd())
	root.AddCommand(presenceCmd())
	root.AddCommand(readCmd())
	root.AddCommand(watchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// resolveSession returns the validated session name.
func resolveSession() (string, error) {
	name := session.Resolve(sessionFlag)
	if err := session.ValidateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// connect dials the session's backend. The returned func closes the
// connection.
func connect() (*rpc.BackendClient, string, func(), error) {
	name, err := resolveSession()
	if err != nil {
		return nil, "", nil, err
	}
	conn, err := grpc.NewClient(
		"unix://"+session.SocketPath(name),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return nil, "", nil, fmt.Errorf("cannot connect to backend for session %q: %w", name, err)
	}
	return rpc.NewBackendClient(conn), name, func() { _ = conn.Close() }, nil
}

func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), 10*time.Second)
}
