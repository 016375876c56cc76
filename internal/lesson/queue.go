package lesson

import (
	"sync"
	"time"
)

// completedLogCap bounds the in-memory completed-lesson log.
const completedLogCap = 100

// Queue is the FIFO of assembled lessons sitting between the builder and
// the playback scheduler. Enqueue never blocks and never rejects; depth
// bounds are the builder's job, not the queue's.
//
// The queue also owns the "current lesson" slot and the completed count.
// DequeueNext is a combined commit-and-fetch: retrieving the next lesson is
// the point at which the previous current lesson is finalized as completed.
type Queue struct {
	mu        sync.Mutex
	pending   []*Lesson
	current   *Lesson
	completed []*Lesson
	done      int64

	// wake carries at most one token so a single waiting consumer never
	// misses an enqueue.
	wake chan struct{}
}

// NewQueue creates an empty lesson queue.
func NewQueue() *Queue {
	return &Queue{wake: make(chan struct{}, 1)}
}

// Enqueue appends a lesson to the tail of the pending sequence.
func (q *Queue) Enqueue(l *Lesson) {
	q.mu.Lock()
	l.Status = StatusPending
	q.pending = append(q.pending, l)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// DequeueNext finalizes the current lesson (if any) as completed, then
// tries to pop the head of the pending sequence within timeout. On success
// the popped lesson becomes current with status playing. On timeout it
// returns (nil, false) with no side effect beyond the commit step.
func (q *Queue) DequeueNext(timeout time.Duration) (*Lesson, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	q.mu.Lock()
	q.commitCurrentLocked()
	for {
		if len(q.pending) > 0 {
			l := q.pending[0]
			q.pending = q.pending[1:]
			l.Status = StatusPlaying
			q.current = l
			q.mu.Unlock()
			return l, true
		}
		q.mu.Unlock()
		select {
		case <-q.wake:
			q.mu.Lock()
		case <-timer.C:
			return nil, false
		}
	}
}

// commitCurrentLocked finalizes the current lesson, if set: marks it
// completed, appends it to the completed log, and bumps the counter.
func (q *Queue) commitCurrentLocked() {
	if q.current == nil {
		return
	}
	q.current.Status = StatusCompleted
	q.completed = append(q.completed, q.current)
	if len(q.completed) > completedLogCap {
		q.completed = q.completed[len(q.completed)-completedLogCap:]
	}
	q.done++
	q.current = nil
}

// Depth returns the count of pending lessons. It is a control heuristic:
// safe to read concurrently, and staleness by one element is acceptable.
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// IsEmpty reports whether no lessons are pending.
func (q *Queue) IsEmpty() bool {
	return q.Depth() == 0
}

// Current returns the lesson being played, or nil.
func (q *Queue) Current() *Lesson {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.current
}

// CompletedCount returns the number of lessons fully completed.
func (q *Queue) CompletedCount() int64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.done
}

// Completed returns a copy of the completed-lesson log, oldest first.
func (q *Queue) Completed() []*Lesson {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Lesson, len(q.completed))
	copy(out, q.completed)
	return out
}
