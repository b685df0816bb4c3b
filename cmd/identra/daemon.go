package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/starkalterego/identra/internal/audit"
	"github.com/starkalterego/identra/internal/config"
	"github.com/starkalterego/identra/internal/ipc"
	"github.com/starkalterego/identra/internal/keychain"
	"github.com/starkalterego/identra/internal/vault"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the identra vault daemon",
	Long:  "Start the vault daemon. Binds the local IPC endpoint and serves key storage requests against the OS credential store.",
	RunE:  runDaemon,
}

var daemonSocket string

func init() {
	daemonCmd.Flags().StringVar(&daemonSocket, "socket", "", "Override the IPC endpoint")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(defaultDataDir(), 0700); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	endpoint := daemonSocket
	if endpoint == "" && cfg.SocketPath != "" {
		endpoint = cfg.SocketPath
	}
	if endpoint == "" {
		endpoint = ipc.DefaultEndpoint
	}

	slog.Info("identra vault daemon starting", "endpoint", endpoint)

	var store keychain.Store = keychain.NewSystemStore()

	auditPath := cfg.AuditLog
	if auditPath == "" {
		auditPath = config.DefaultAuditLog()
	}
	if auditPath != "" {
		auditLog, err := audit.NewLogger(auditPath)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer auditLog.Close()
		store = keychain.NewAuditedStore(store, auditLog, "daemon")
	}

	state := vault.NewState()
	srv := ipc.NewServer(vault.New(store), state)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Listen(endpoint)
	}()

	select {
	case sig := <-sigCh:
		slog.Info("received signal, shutting down", "signal", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("vault server: %w", err)
		}
	}

	// Stop accepting; open connections drain naturally before the process
	// exits and tears down their sockets.
	if n := state.ActiveConnections(); n > 0 {
		slog.Info("waiting for open connections to drain", "active", n)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		slog.Warn("shutdown wait failed", "error", err)
	}
	if runtime.GOOS != "windows" {
		os.Remove(endpoint)
	}

	slog.Info("identra vault daemon stopped", "active_connections", state.ActiveConnections())
	return nil
}
