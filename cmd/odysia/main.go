package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/adethefirst1/odysia/internal/bus"
	"github.com/adethefirst1/odysia/internal/config"
	"github.com/adethefirst1/odysia/internal/dashboard"
	"github.com/adethefirst1/odysia/internal/logging"
	"github.com/adethefirst1/odysia/internal/rpc"
	"github.com/adethefirst1/odysia/internal/session"
	"github.com/adethefirst1/odysia/internal/transport"
	"github.com/adethefirst1/odysia/internal/tui"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func main() {
	sessionFlag := flag.String("session", "", "session name (overrides config default)")
	roleFlag := flag.String("role", "", "dashboard role: client or expert (default derived from session)")
	flag.Parse()

	sessionName := session.Resolve(*sessionFlag)
	if err := session.ValidateName(sessionName); err != nil {
		fail("error: %v", err)
	}

	cfg, err := config.LoadOrDefault(session.ConfigPath())
	if err != nil {
		fail("config: %v", err)
	}
	roleName := session.RoleFor(sessionName, cfg.UI.Role)
	if *roleFlag != "" {
		roleName = *roleFlag
	}
	role, err := dashboard.ParseRole(roleName)
	if err != nil {
		fail("error: %v", err)
	}

	socketPath := session.SocketPath(sessionName)

	// Probe daemon health; auto-start if needed.
	if !probeDaemon(socketPath) {
		fmt.Fprintf(os.Stderr, "backend not running for session %q, starting...\n", sessionName)
		if err := startDaemon(sessionName); err != nil {
			fail("failed to start backend: %v", err)
		}
		if !waitForDaemon(socketPath, 10*time.Second) {
			fail("backend did not become ready")
		}
	}

	if err := session.EnsureDir(sessionName); err != nil {
		fail("error: %v", err)
	}
	logger, err := logging.NewFileOnly(session.DashboardLogPath(sessionName), sessionName)
	if err != nil {
		fail("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	b := bus.New()
	client, err := transport.Dial(socketPath, b, logger)
	if err != nil {
		fail("connect to backend: %v", err)
	}
	defer func() { _ = client.Close() }()

	sess := dashboard.New(client, dashboard.Options{
		Role:        role,
		Breakpoint:  cfg.UI.DualPaneMinWidth,
		SendTimeout: cfg.Transport.SendTimeout.Duration,
		Bus:         b,
		Logger:      logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	sess.Start(ctx, client)
	go client.Run(ctx)

	app := tui.NewApp(tui.Options{
		SessionName: sessionName,
		Session:     sess,
		Link:        client.Link(),
		Bus:         b,
		Backend:     client.Backend(),
		Logger:      logger,
	})
	runErr := app.Run()

	cancel()
	sess.Close()
	if runErr != nil {
		logger.Error("dashboard exited", zap.Error(runErr))
		fail("error: %v", runErr)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// probeDaemon checks if a backend is running and responsive on the socket.
func probeDaemon(socketPath string) bool {
	conn, err := grpc.NewClient(
		"unix://"+socketPath,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		return false
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = rpc.NewBackendClient(conn).GetStatus(ctx)
	return err == nil
}

func startDaemon(sessionName string) error {
	executable, err := os.Executable()
	if err != nil {
		return err
	}
	odysiad := filepath.Join(filepath.Dir(executable), "odysiad")

	if _, err := os.Stat(odysiad); err != nil {
		odysiad = "odysiad"
	}

	cmd := exec.Command(odysiad, "--session", sessionName)
	// Inherit stderr so startup errors are visible.
	cmd.Stderr = os.Stderr
	return cmd.Start()
}

// waitForDaemon polls with a real RPC, not just a socket connect.
func waitForDaemon(socketPath string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if probeDaemon(socketPath) {
			return true
		}
		time.Sleep(300 * time.Millisecond)
	}
	return false
}
