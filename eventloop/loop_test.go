package eventloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPostRunsInOrderOnOneGoroutine(t *testing.T) {
	l := New()
	defer l.Stop()

	var order []int
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		i := i
		l.Post(func() {
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tasks did not complete")
	}
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStopIsIdempotent(t *testing.T) {
	l := New()
	require.NotPanics(t, func() {
		l.Stop()
		l.Stop()
	})
}
