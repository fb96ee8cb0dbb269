//go:build !unix

package server

import "syscall"

// controlSetReuseAddr is a no-op on non-Unix platforms; SO_REUSEADDR
// tuning via golang.org/x/sys/unix has no equivalent surface there.
func controlSetReuseAddr(c syscall.RawConn) error {
	return nil
}
