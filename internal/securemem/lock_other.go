//go:build !linux && !darwin && !freebsd && !openbsd && !netbsd && !dragonfly && !windows

package securemem

import "errors"

var errNoPageLock = errors.New("page locking not supported on this platform")

func lockPages(b []byte) error {
	return errNoPageLock
}

func unlockPages(b []byte) error {
	return nil
}
