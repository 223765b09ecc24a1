// Package sched provides a virtual clock on which delayed work is queued.
//
// A Scheduler holds tasks that carry plain values rather than closures. The
// owner decides what a value means when it falls due. Time only moves when
// the owner advances it, so the same scheduler can be driven by a wall-clock
// loop in production and stepped synchronously in tests.
//
// A Scheduler is not safe for concurrent use.
package sched

import (
	"container/heap"
	"time"
)

type task[T any] struct {
	due   time.Duration
	seq   uint64
	every time.Duration
	value T
}

type taskQueue[T any] []*task[T]

func (q taskQueue[T]) Len() int { return len(q) }

func (q taskQueue[T]) Less(i, j int) bool {
	if q[i].due != q[j].due {
		return q[i].due < q[j].due
	}
	return q[i].seq < q[j].seq
}

func (q taskQueue[T]) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *taskQueue[T]) Push(x any) { *q = append(*q, x.(*task[T])) }

func (q *taskQueue[T]) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// Scheduler orders values by due time on a virtual clock. Values due at the
// same instant fire in the order they were scheduled. There is no
// cancellation: every scheduled value eventually fires.
type Scheduler[T any] struct {
	now   time.Duration
	seq   uint64
	queue taskQueue[T]
}

// New returns a Scheduler whose clock starts at zero.
func New[T any]() *Scheduler[T] {
	return &Scheduler[T]{}
}

// Now returns the current virtual time.
func (s *Scheduler[T]) Now() time.Duration {
	return s.now
}

// Len returns the number of pending tasks.
func (s *Scheduler[T]) Len() int {
	return len(s.queue)
}

// After schedules v to fire once, d after the current virtual time.
// Negative delays are treated as zero.
func (s *Scheduler[T]) After(d time.Duration, v T) {
	s.push(d, 0, v)
}

// Every schedules v to fire d after the current virtual time and then
// every d after that. A non-positive interval schedules a one-shot task.
func (s *Scheduler[T]) Every(d time.Duration, v T) {
	if d <= 0 {
		s.push(0, 0, v)
		return
	}
	s.push(d, d, v)
}

// Repeat schedules v to fire first after delay and then every interval.
// A non-positive interval schedules a one-shot task.
func (s *Scheduler[T]) Repeat(delay, interval time.Duration, v T) {
	if interval < 0 {
		interval = 0
	}
	s.push(delay, interval, v)
}

func (s *Scheduler[T]) push(d, every time.Duration, v T) {
	if d < 0 {
		d = 0
	}
	s.seq++
	heap.Push(&s.queue, &task[T]{
		due:   s.now + d,
		seq:   s.seq,
		every: every,
		value: v,
	})
}

// NextDue returns the virtual time of the earliest pending task.
func (s *Scheduler[T]) NextDue() (time.Duration, bool) {
	if len(s.queue) == 0 {
		return 0, false
	}
	return s.queue[0].due, true
}

// AdvanceTo moves the clock forward to t, calling run for every task that
// falls due on the way, in order. While run executes, Now reports the task's
// due time, so tasks it schedules are timed relative to that instant and run
// within the same call if they fall due by t. It returns the number of tasks
// fired. The clock never moves backwards.
func (s *Scheduler[T]) AdvanceTo(t time.Duration, run func(T)) int {
	if t < s.now {
		t = s.now
	}

	fired := 0
	for len(s.queue) > 0 && s.queue[0].due <= t {
		next := heap.Pop(&s.queue).(*task[T])
		s.now = next.due
		if next.every > 0 {
			s.seq++
			next.due += next.every
			next.seq = s.seq
			heap.Push(&s.queue, next)
		}
		run(next.value)
		fired++
	}
	s.now = t
	return fired
}

// Advance moves the clock forward by d. Advance(0, run) fires every task
// that is already due.
func (s *Scheduler[T]) Advance(d time.Duration, run func(T)) int {
	return s.AdvanceTo(s.now+d, run)
}
