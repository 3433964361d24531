// Package taskqueue batches callbacks submitted from any goroutine for
// execution on one designated goroutine.
package taskqueue

import (
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"

	"github.com/joeycumines/logiface"

	"github.com/phanxgames/willowfx/lock"
)

const defaultCapacity = 16

// PanicError wraps a value recovered from a panicking task.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("taskqueue: task panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Option configures a Queue.
type Option func(*Queue)

// WithLogger sets the logger used to report task panics.
func WithLogger(l *logiface.Logger[logiface.Event]) Option {
	return func(q *Queue) { q.log = l }
}

// WithCapacity presizes both task buffers.
func WithCapacity(n int) Option {
	return func(q *Queue) {
		if n > 0 {
			q.pending = make([]func(), 0, n)
			q.working = make([]func(), 0, n)
		}
	}
}

// Queue collects tasks from many producers and runs them in submission
// order when its owner calls Drain. Tasks never run inside Submit.
type Queue struct {
	mu      lock.SpinLock
	pending []func()
	count   atomic.Int64

	// working is touched only by the draining goroutine.
	working []func()
	log     *logiface.Logger[logiface.Event]
}

// New creates an empty queue.
func New(opts ...Option) *Queue {
	q := &Queue{
		pending: make([]func(), 0, defaultCapacity),
		working: make([]func(), 0, defaultCapacity),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Submit appends task to the queue. It is safe for concurrent use. A nil
// task is ignored.
func (q *Queue) Submit(task func()) {
	if task == nil {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.count.Add(1)
	q.mu.Unlock()
}

// Len returns the number of tasks waiting for the next Drain.
func (q *Queue) Len() int {
	return int(q.count.Load())
}

// Drain runs every task submitted before the call, in order. It must only
// be called from the queue's owning goroutine and is not reentrant; tasks
// submitted while draining run on the next call.
//
// A panicking task does not stop the drain. Each panic is recovered into a
// *PanicError, and all of them are returned joined once the batch is done.
func (q *Queue) Drain() error {
	if q.count.Load() == 0 {
		return nil
	}

	q.mu.Lock()
	q.pending, q.working = q.working[:0], q.pending
	q.count.Store(0)
	q.mu.Unlock()

	var errs []error
	for i, task := range q.working {
		if err := q.run(task); err != nil {
			q.log.Err().
				Err(err).
				Int("task", i).
				Int("batch", len(q.working)).
				Log("deferred task panicked")
			errs = append(errs, err)
		}
	}
	clear(q.working)
	q.working = q.working[:0]
	return errors.Join(errs...)
}

func (q *Queue) run(task func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	task()
	return nil
}
