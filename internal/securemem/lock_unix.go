//go:build linux || darwin || freebsd || openbsd || netbsd || dragonfly

package securemem

import "golang.org/x/sys/unix"

func lockPages(b []byte) error {
	return unix.Mlock(b)
}

func unlockPages(b []byte) error {
	return unix.Munlock(b)
}
