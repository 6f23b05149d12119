// SPDX-License-Identifier: MPL-2.0

package reload

import "sync"

// taskQueue is an unbounded FIFO of queued work for the reload worker.
//
// It is unbounded on purpose: the watcher callback must never block, and
// every qualifying change event must become exactly one reload, so a burst
// of N events needs room for N entries. A channel for signalling (buffered,
// size 1) lets the single consumer wait without spinning; multiple pending
// signals coalesce, and the consumer re-checks the slice after each wake-up.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []func()
	closed bool
	signal chan struct{}
}

func newTaskQueue() *taskQueue {
	return &taskQueue{signal: make(chan struct{}, 1)}
}

// Enqueue appends a task. It never blocks. Returns false if the queue has
// been closed.
func (q *taskQueue) Enqueue(task func()) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, task)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// Next removes and returns the front task, blocking until one is available.
// It returns false once the queue is closed and drained.
func (q *taskQueue) Next() (func(), bool) {
	for {
		q.mu.Lock()
		if len(q.tasks) > 0 {
			task := q.tasks[0]
			q.tasks = q.tasks[1:]
			q.mu.Unlock()
			return task, true
		}
		closed := q.closed
		q.mu.Unlock()

		if closed {
			return nil, false
		}
		<-q.signal
	}
}

// Close stops the queue from accepting work and wakes the consumer. Already
// queued tasks are still handed out by Next.
func (q *taskQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Len reports the number of queued tasks.
func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
