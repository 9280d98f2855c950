// Package executor provides the execution contexts that listener callbacks
// run on. Each context is an explicit work queue rather than an implicit
// thread affinity, so dispatch order is deterministic and testable.
package executor

import (
	"sync"
)

// Executor runs submitted tasks on its own scheduling domain. Submit must
// not block the caller.
type Executor interface {
	Submit(task func())
}

// Serial is a single-worker FIFO work queue. Tasks submitted to the same
// Serial run one at a time in submission order. Submit never blocks; the
// queue grows as needed.
type Serial struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	stop    chan struct{}
	done    chan struct{}
	stopped bool
}

// NewSerial creates a serial executor and starts its worker goroutine.
func NewSerial() *Serial {
	s := &Serial{
		wake: make(chan struct{}, 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go s.run()
	return s
}

// Submit enqueues a task. Tasks submitted after Close are dropped.
func (s *Serial) Submit(task func()) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close stops the worker after running tasks already queued. It blocks
// until the worker has exited. Close is idempotent.
func (s *Serial) Close() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.stopped = true
	s.mu.Unlock()

	close(s.stop)
	<-s.done
}

func (s *Serial) run() {
	defer close(s.done)

	for {
		s.drain()

		select {
		case <-s.wake:
		case <-s.stop:
			s.drain()
			return
		}
	}
}

// drain runs every task currently queued, taking the batch under the lock
// but running tasks outside it so a task can submit follow-up work.
func (s *Serial) drain() {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, task := range batch {
			task()
		}
	}
}
