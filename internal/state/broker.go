package state

import "sync"

// Broker is a small synchronous pub/sub hub. Subscribers are called in
// the publisher's goroutine, outside the broker's lock, so a subscriber
// may safely read back from the publishing store.
type Broker[T any] struct {
	mu   sync.RWMutex
	next int
	subs map[int]func(T)
}

// NewBroker returns an empty broker.
func NewBroker[T any]() *Broker[T] {
	return &Broker[T]{subs: make(map[int]func(T))}
}

// Subscribe registers fn and returns a func that removes it.
func (b *Broker[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
		})
	}
}

// Publish delivers v to every current subscriber.
func (b *Broker[T]) Publish(v T) {
	b.mu.RLock()
	fns := make([]func(T), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Len returns the number of subscribers.
func (b *Broker[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
