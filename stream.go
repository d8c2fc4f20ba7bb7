package w3o

import (
	"context"
	"sync"
)

// State holds the latest value of T and notifies observers of every Set.
//
// OnChange listeners run synchronously inside Set, in registration order.
// Subscribe channels replay the current value first and then receive the
// latest value; a slow reader only misses intermediate values.
type State[T any] struct {
	mu        sync.Mutex
	value     T
	nextID    uint64
	listeners []listener[T]
	subs      map[uint64]chan T
}

type listener[T any] struct {
	id uint64
	fn func(T)
}

// NewState creates a State holding initial.
func NewState[T any](initial T) *State[T] {
	return &State[T]{value: initial, subs: make(map[uint64]chan T)}
}

// Get returns the current value.
func (s *State[T]) Get() T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Set stores v and notifies listeners and subscribers.
func (s *State[T]) Set(v T) {
	s.mu.Lock()
	s.value = v
	listeners := append([]listener[T](nil), s.listeners...)
	for _, ch := range s.subs {
		offer(ch, v)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l.fn(v)
	}
}

// OnChange registers fn for every future Set. The returned func removes it.
func (s *State[T]) OnChange(fn func(T)) (cancel func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, listener[T]{id: id, fn: fn})
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

// Subscribe returns a channel that first yields the current value. The
// channel is closed when ctx is done.
func (s *State[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 1)

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.subs[id] = ch
	ch <- s.value
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		close(ch)
		s.mu.Unlock()
	}()
	return ch
}

// offer replaces any unread value in ch with v. Callers hold the State lock.
func offer[T any](ch chan T, v T) {
	select {
	case <-ch:
	default:
	}
	ch <- v
}
