// Package stream provides the cancellable-subscription primitive the sync
// engine is built on: a lazy sequence of immutable snapshots for one query,
// plus an idempotent cancel. Snapshots for one subscription are strictly
// ordered; nothing is guaranteed across different subscriptions.
package stream

import "sync"

// Snapshot is one point-in-time delivery from a subscription. A snapshot with
// a non-nil Err is terminal: the producer stops and the channel is closed
// after it. Callers must not assume automatic retry.
type Snapshot[T any] struct {
	Docs []T
	Err  error
}

// Subscription is a handle to a live snapshot sequence. Consumers range over
// C() and call Cancel() exactly when tearing down; Cancel is idempotent and
// must happen before an equivalent watch is re-issued.
type Subscription[T any] struct {
	mu       sync.Mutex
	ch       chan Snapshot[T]
	done     chan struct{}
	cancel   sync.Once
	closed   bool
	onCancel func()
}

// NewSubscription creates a subscription whose producer is notified through
// onCancel (may be nil). The delivery channel holds one snapshot: a slow
// consumer sees the latest state, never a backlog of stale ones.
func NewSubscription[T any](onCancel func()) *Subscription[T] {
	return &Subscription[T]{
		ch:       make(chan Snapshot[T], 1),
		done:     make(chan struct{}),
		onCancel: onCancel,
	}
}

// C returns the snapshot channel. It is closed after a terminal error
// snapshot or after Cancel.
func (s *Subscription[T]) C() <-chan Snapshot[T] { return s.ch }

// Done is closed when the subscription is cancelled. Producers select on it.
func (s *Subscription[T]) Done() <-chan struct{} { return s.done }

// Cancel stops the subscription. Safe to call any number of times; snapshots
// offered after Cancel are dropped, never delivered.
func (s *Subscription[T]) Cancel() {
	s.cancel.Do(func() {
		close(s.done)
		if s.onCancel != nil {
			s.onCancel()
		}
		s.mu.Lock()
		if !s.closed {
			s.closed = true
			close(s.ch)
		}
		s.mu.Unlock()
	})
}

// Publish offers a snapshot to the consumer, latest-wins: if the previous
// snapshot was not yet consumed it is replaced. Reports false once the
// subscription is cancelled or terminated.
func (s *Subscription[T]) Publish(snap Snapshot[T]) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case <-s.done:
		return false
	default:
	}
	for {
		select {
		case s.ch <- snap:
			return true
		default:
			// drop the unconsumed predecessor
			select {
			case <-s.ch:
			default:
			}
		}
	}
}

// Fail delivers a terminal error snapshot and closes the channel. The
// subscription delivers nothing further.
func (s *Subscription[T]) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	// make room, then leave the error as the final delivery
	select {
	case <-s.ch:
	default:
	}
	s.ch <- Snapshot[T]{Err: err}
	s.closed = true
	close(s.ch)
}
