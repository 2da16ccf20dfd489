package flow

import (
	"context"
	"sync"
)

// Dispatcher runs posted functions one at a time, in order, on a single
// goroutine. All session state changes and event emission happen there.
type Dispatcher struct {
	tasks     chan func()
	done      chan struct{}
	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher whose queue holds up to buffer tasks.
func NewDispatcher(buffer int) *Dispatcher {
	return &Dispatcher{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes tasks until ctx is cancelled or Close is called.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.Close()
			return
		case <-d.done:
			return
		case fn := <-d.tasks:
			fn()
		}
	}
}

// Post queues fn. It returns false if the dispatcher is closed. Post must
// not be called from a dispatcher task when the queue may be full.
func (d *Dispatcher) Post(fn func()) bool {
	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case <-d.done:
		return false
	case d.tasks <- fn:
		return true
	}
}

// Close stops the dispatcher. Queued tasks are dropped.
func (d *Dispatcher) Close() {
	d.closeOnce.Do(func() { close(d.done) })
}

// Done is closed when the dispatcher stops.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}
