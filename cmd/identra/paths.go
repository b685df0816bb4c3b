package main

import (
	"os"
	"path/filepath"

	"github.com/starkalterego/identra/internal/config"
	"github.com/starkalterego/identra/internal/ipc"
)

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".identra"
	}
	return filepath.Join(home, ".identra")
}

// vaultEndpoint resolves the IPC endpoint: flag, then config, then the
// platform's well-known name.
func vaultEndpoint(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	cfg, err := config.Load(config.DefaultPath())
	if err == nil && cfg.SocketPath != "" {
		return cfg.SocketPath
	}
	return ipc.DefaultEndpoint
}
