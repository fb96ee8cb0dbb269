package transport

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies the per-connection receive-loop goroutines do not
// leak once a Conn is closed, given §5's single-event-loop-thread
// model depends on that goroutine terminating cleanly.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
