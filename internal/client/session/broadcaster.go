package session

import "sync"

// Broadcaster delivers values to listeners in registration order. The zero
// value is ready to use.
type Broadcaster[T any] struct {
	mu    sync.Mutex
	next  int
	fns   map[int]func(T)
	order []int
}

func (b *Broadcaster[T]) Add(fn func(T)) Subscription {
	b.mu.Lock()
	if b.fns == nil {
		b.fns = make(map[int]func(T))
	}
	id := b.next
	b.next++
	b.fns[id] = fn
	b.order = append(b.order, id)
	b.mu.Unlock()

	return NewSubscription(func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.fns, id)
		for i, oid := range b.order {
			if oid == id {
				b.order = append(b.order[:i], b.order[i+1:]...)
				break
			}
		}
	})
}

// Publish calls every listener on the caller's goroutine.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	fns := make([]func(T), 0, len(b.order))
	for _, id := range b.order {
		fns = append(fns, b.fns[id])
	}
	b.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
