package proxy

import (
	"errors"

	"github.com/qi-bus/qibus/internal/registry"
)

var (
	// ErrTransportUnavailable is returned when a socket is absent,
	// disconnected, or refuses a send (spec.md §7.1).
	ErrTransportUnavailable = errors.New("proxy: transport unavailable")

	// ErrUnknownMethod is set on a slot when a Reply's method cannot
	// be located in the proxy's MetaObject (spec.md §7.2).
	ErrUnknownMethod = errors.New("proxy: unknown method for reply")

	// ErrMalformedErrorPayload is the canonical "unknown error" used
	// when an Error message's payload does not start with an "s"
	// signature token (spec.md §6).
	ErrMalformedErrorPayload = errors.New("unknown error")

	// ErrProxyClosed is used by the FailPending close policy.
	ErrProxyClosed = errors.New("proxy: closed")
)

func resolvedNow(r registry.Result) <-chan registry.Result {
	ch := make(chan registry.Result, 1)
	ch <- r
	close(ch)
	return ch
}
