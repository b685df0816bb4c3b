//go:build windows

package ipc

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"
)

// DefaultEndpoint is the well-known vault named pipe on Windows.
const DefaultEndpoint = `\\.\pipe\identra-vault`

func listenEndpoint(endpoint string) (net.Listener, error) {
	return winio.ListenPipe(endpoint, nil)
}

func dialEndpoint(endpoint string) (net.Conn, error) {
	timeout := 10 * time.Second
	return winio.DialPipe(endpoint, &timeout)
}
