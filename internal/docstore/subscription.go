package docstore

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the complete result of a subscribed query at one point in time.
type Snapshot struct {
	Documents []Document
	ReadAt    time.Time
}

// Subscription is a live query. Every change to the result delivers a new
// full Snapshot on Updates; a consumer that falls behind only ever sees the
// latest one. Close must be called to release the subscription.
type Subscription struct {
	updates chan Snapshot
	cancel  context.CancelFunc
	done    chan struct{}

	mu  sync.Mutex
	err error
}

// runFunc produces snapshots until ctx ends or it fails. emit returns false
// once the subscription is closed.
type runFunc func(ctx context.Context, emit func(Snapshot) bool) error

func newSubscription(ctx context.Context, run runFunc) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{
		updates: make(chan Snapshot, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		defer close(s.updates)

		err := run(ctx, func(snap Snapshot) bool { return s.emit(ctx, snap) })
		if err != nil && ctx.Err() == nil {
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
		}
	}()

	return s
}

func (s *Subscription) emit(ctx context.Context, snap Snapshot) bool {
	if snap.ReadAt.IsZero() {
		snap.ReadAt = time.Now()
	}
	for {
		select {
		case <-ctx.Done():
			return false
		case s.updates <- snap:
			return true
		default:
		}
		// Drop the stale snapshot nobody has read yet.
		select {
		case <-s.updates:
		default:
		}
	}
}

// Updates returns the snapshot channel. It is closed when the subscription
// ends, after Close or on error.
func (s *Subscription) Updates() <-chan Snapshot {
	return s.updates
}

// Close ends the subscription and waits for it to release its resources.
// Safe to call more than once.
func (s *Subscription) Close() {
	s.cancel()
	<-s.done
}

// Done is closed once the subscription has ended.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Err reports why the subscription ended. It is nil after Close.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
