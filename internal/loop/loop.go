package loop

import (
	"context"
	"errors"
	"sync"

	"github.com/joshhsoj1902/achievement-tracker/internal/logger"
)

// ErrStopped is returned when work is handed to a loop that has been stopped
var ErrStopped = errors.New("event loop stopped")

const queueSize = 1024

// Loop runs every posted function on one goroutine, in order.
// State owned by the loop is only touched from inside posted functions, so it needs no locks.
type Loop struct {
	queue chan func()

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func New() *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	return &Loop{
		queue:  make(chan func(), queueSize),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start launches the loop goroutine. Calling it twice is a no-op.
func (l *Loop) Start() {
	l.once.Do(func() {
		l.wg.Add(1)
		go l.run()
	})
}

func (l *Loop) run() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case fn := <-l.queue:
			l.invoke(fn)
		}
	}
}

func (l *Loop) invoke(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Log.WithField("panic", r).Error("Recovered panic in event loop callback")
		}
	}()
	fn()
}

// Post queues fn for execution on the loop. It reports false once the loop is stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.ctx.Done():
		return false
	default:
	}

	select {
	case <-l.ctx.Done():
		return false
	case l.queue <- fn:
		return true
	}
}

// Call runs fn on the loop and waits for it to finish.
// It must not be called from inside the loop.
func (l *Loop) Call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return ErrStopped
	}

	select {
	case <-done:
		return nil
	case <-l.ctx.Done():
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Context is cancelled when the loop stops
func (l *Loop) Context() context.Context {
	return l.ctx
}

// Stop ends the loop and waits for the running callback to return.
// Queued callbacks that have not started are dropped.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
}
