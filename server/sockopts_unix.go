//go:build unix

package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlSetReuseAddr implements spec.md §4.4's "Bind a listener on
// the event-base with flags enabling close-on-free, close-on-exec,
// and address reuse." Go's net package already arranges close-on-exec
// for listener fds; SO_REUSEADDR is the one flag net.ListenConfig does
// not set for us, so this Control callback sets it directly via
// golang.org/x/sys/unix, the same low-level socket-option pattern
// joshuafuller-beacon uses to hand-tune its UDP sockets.
func controlSetReuseAddr(c syscall.RawConn) error {
	var sockErr error
	err := c.Control(func(fd uintptr) {
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return sockErr
}
