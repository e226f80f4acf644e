package notify

import "sync"

type sub[T any] struct {
	id int
	fn func(T)
}

// Signal is a push stream of values. Subscribers are invoked synchronously
// on the emitting goroutine, in subscription order.
type Signal[T any] struct {
	mu   sync.Mutex
	seq  int
	subs []sub[T]
}

// Subscribe registers fn for future emissions. The cancel function removes
// the subscription and is safe to call more than once.
func (s *Signal[T]) Subscribe(fn func(T)) (cancel func()) {
	s.mu.Lock()
	s.seq++
	id := s.seq
	s.subs = append(s.subs, sub[T]{id: id, fn: fn})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		for i, sb := range s.subs {
			if sb.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
	}
}

// Emit delivers v to every current subscriber.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	snapshot := make([]sub[T], len(s.subs))
	copy(snapshot, s.subs)
	s.mu.Unlock()

	for _, sb := range snapshot {
		sb.fn(v)
	}
}

// Cell is a Signal with a current value. New subscribers receive the current
// value immediately, then every subsequent Set.
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	signal Signal[T]
}

// NewCell constructs a Cell holding initial.
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{value: initial}
}

// Get returns the current value.
func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set stores v and notifies subscribers.
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	c.mu.Unlock()
	c.signal.Emit(v)
}

// Subscribe delivers the current value to fn immediately, then subscribes fn
// to subsequent updates.
func (c *Cell[T]) Subscribe(fn func(T)) (cancel func()) {
	c.mu.Lock()
	current := c.value
	c.mu.Unlock()
	cancel = c.signal.Subscribe(fn)
	fn(current)
	return cancel
}
