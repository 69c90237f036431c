// Package backend holds plumbing shared by the wallet backend implementations.
package backend

import (
	"sort"
	"sync"
)

// Observers is a set of state subscribers. The zero value is ready to use.
type Observers[T any] struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(T)
}

// Subscribe registers fn and returns its unsubscribe func.
func (o *Observers[T]) Subscribe(fn func(T)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[int]func(T))
	}
	o.next++
	id := o.next
	o.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			defer o.mu.Unlock()
			delete(o.fns, id)
		})
	}
}

// Notify calls every subscriber with st in subscription order. It must not
// be called with the owner's lock held.
func (o *Observers[T]) Notify(st T) {
	o.mu.Lock()
	ids := make([]int, 0, len(o.fns))
	for id := range o.fns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(st)
	}
}

// Len returns the number of subscribers.
func (o *Observers[T]) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fns)
}
