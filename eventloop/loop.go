// Package eventloop provides a minimal stand-in for the event-loop
// thread spec.md treats as external plumbing ("the network thread /
// event-loop plumbing" is out of scope, spec.md §1). The pack has no
// ready-made single-dedicated-thread event loop to depend on, so this
// is deliberately tiny: one goroutine draining a task queue, enough to
// give TransportServer.Start a concrete "event-base" to bind against
// and to honor spec.md §5's single-event-loop-thread scheduling model.
package eventloop

import "sync"

// Loop runs submitted tasks one at a time, in submission order, on a
// single dedicated goroutine — the accept loop and every dispatcher
// callback delivered through a Loop run on that same goroutine unless
// a Socket implementation explicitly posts elsewhere (spec.md §5).
type Loop struct {
	tasks    chan func()
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New starts a Loop's worker goroutine.
func New() *Loop {
	l := &Loop{
		tasks: make(chan func(), 64),
		stop:  make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Loop) run() {
	defer l.wg.Done()
	for {
		select {
		case task := <-l.tasks:
			task()
		case <-l.stop:
			return
		}
	}
}

// Post schedules task to run on the loop's goroutine. Post does not
// block on the task's completion.
func (l *Loop) Post(task func()) {
	select {
	case l.tasks <- task:
	case <-l.stop:
	}
}

// Stop terminates the loop's goroutine. Idempotent. Queued tasks that
// have not yet run are dropped.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	l.wg.Wait()
}
