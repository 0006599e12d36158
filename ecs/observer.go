package ecs

import (
	"slices"
	"sync"
)

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// observer is an ordered list of callbacks for one event kind. Publishing
// iterates a snapshot, so callbacks may subscribe or unsubscribe freely.
type observer[T any] struct {
	mu   sync.Mutex
	subs []subscriber[T]
	next uint64
}

func (o *observer[T]) subscribe(fn func(T)) uint64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.next++
	o.subs = append(o.subs, subscriber[T]{id: o.next, fn: fn})
	return o.next
}

func (o *observer[T]) unsubscribe(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	i := slices.IndexFunc(o.subs, func(s subscriber[T]) bool { return s.id == id })
	if i < 0 {
		return false
	}
	o.subs = slices.Delete(o.subs, i, i+1)
	return true
}

func (o *observer[T]) publish(v T) {
	o.mu.Lock()
	subs := slices.Clone(o.subs)
	o.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

func (o *observer[T]) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

func (o *observer[T]) handle(id uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() { o.unsubscribe(id) })
	}
}
