package broadcast

import (
	"context"
	"sync"
	"sync/atomic"
)

// Subscriber receives values from a Broadcaster.
type Subscriber[T any] interface {
	// C returns the delivery channel. It is closed when the subscription ends.
	C() <-chan T

	// Dropped reports how many values missed this subscriber because its
	// buffer was full.
	Dropped() uint64

	// Close ends the subscription. It is idempotent.
	Close() error
}

// Broadcaster fans values out to every active subscriber.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until ctx ends or it is closed.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast offers v to every subscriber without blocking.
	Broadcast(ctx context.Context, v T) error

	// Close ends every subscription. Later broadcasts return ErrClosed.
	Close() error
}

type subscriber[T any] struct {
	mu      sync.RWMutex
	ch      chan T
	done    chan struct{}
	closed  bool
	dropped atomic.Uint64
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{
		ch:   make(chan T, bufferSize),
		done: make(chan struct{}),
	}
}

func (s *subscriber[T]) C() <-chan T {
	return s.ch
}

func (s *subscriber[T]) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.ch)
		close(s.done)
	}
	return nil
}

// offer hands v to the subscriber, counting it as dropped when the buffer is
// full. Closed subscribers ignore it.
func (s *subscriber[T]) offer(v T) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.ch <- v:
	default:
		s.dropped.Add(1)
	}
}
