package notify

import "sync"

// Queue delivers committed snapshots in version order.
//
// Deliveries run without the queue lock held, so an observer may call
// back into the store that published. Such a nested publish is queued and
// delivered by the goroutine already draining the queue, after the
// current delivery returns.
type Queue struct {
	mu         sync.Mutex
	published  uint64
	pending    []func()
	delivering bool
}

// Publish accepts version if it is newer than every version published so
// far. For an accepted version, commit runs under the queue lock (use it
// for writes that must follow version order) and deliver is queued.
// Publish reports whether the version was accepted.
//
// If another call is already draining the queue, Publish returns once
// deliver is queued; it is run by that drainer.
func (q *Queue) Publish(version uint64, commit, deliver func()) bool {
	q.mu.Lock()
	if version <= q.published {
		q.mu.Unlock()
		return false
	}
	q.published = version
	if commit != nil {
		commit()
	}
	if deliver != nil {
		q.pending = append(q.pending, deliver)
	}
	if q.delivering {
		q.mu.Unlock()
		return true
	}

	q.delivering = true
	defer func() {
		q.delivering = false
		q.mu.Unlock()
	}()
	for len(q.pending) > 0 {
		next := q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]

		q.mu.Unlock()
		runDelivery(next, q)
	}
	return true
}

// runDelivery runs fn and reacquires the queue lock even if fn panics.
func runDelivery(fn func(), q *Queue) {
	defer q.mu.Lock()
	fn()
}

// Do runs fn under the queue lock, ordered with commits.
func (q *Queue) Do(fn func()) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fn()
}
