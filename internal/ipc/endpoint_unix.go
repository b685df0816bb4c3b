//go:build !windows

package ipc

import (
	"net"
	"os"
)

// DefaultEndpoint is the well-known vault socket path on POSIX systems.
const DefaultEndpoint = "/tmp/identra-vault.sock"

func listenEndpoint(endpoint string) (net.Listener, error) {
	// Remove a stale socket from a previous run. A live daemon still holds
	// the listener, so its bind would have failed anyway.
	os.Remove(endpoint)
	return net.Listen("unix", endpoint)
}

func dialEndpoint(endpoint string) (net.Conn, error) {
	return net.Dial("unix", endpoint)
}
