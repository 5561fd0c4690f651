package services

import "context"

// Loop serializes every state mutation and room fan-out onto one
// goroutine. Network I/O runs elsewhere and only enqueues steps here,
// so the presentation state and survey maps never need fine-grained
// locks and no client ever observes a half-applied mutation. Steps
// must stay short and non-blocking; slow work (backend invocation)
// belongs on the caller's goroutine.
type Loop struct {
	steps chan func()
	done  chan struct{}
}

func NewLoop() *Loop {
	return &Loop{
		steps: make(chan func(), 256),
		done:  make(chan struct{}),
	}
}

// Run consumes steps until ctx is cancelled. It is the only goroutine
// that executes them, which gives FIFO ordering per enqueuing source.
func (l *Loop) Run(ctx context.Context) {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-l.steps:
			fn()
		}
	}
}

// Submit enqueues a fire-and-forget step. Used for broadcast-style
// events where the sender does not wait for an outcome.
func (l *Loop) Submit(fn func()) {
	select {
	case l.steps <- fn:
	case <-l.done:
	}
}

// Call enqueues a step and waits for it to finish, for request/response
// operations that need a result before replying. Returns ctx.Err() if
// the caller gives up or the loop has stopped.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	ran := make(chan struct{})
	step := func() {
		fn()
		close(ran)
	}
	select {
	case l.steps <- step:
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ran:
		return nil
	case <-l.done:
		return context.Canceled
	case <-ctx.Done():
		return ctx.Err()
	}
}
