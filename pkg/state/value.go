// Package state holds observable values shared between the board's components.
package state

import "sync"

// Value holds a value of type T and notifies subscribers whenever it is replaced.
// Subscribers run synchronously on the goroutine that changed the value, after the change is
// visible to Get.
type Value[T any] struct {
	mu     sync.RWMutex
	value  T
	nextID int
	subs   map[int]func(T)
}

// NewValue creates a Value holding initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		value: initial,
		subs:  map[int]func(T){},
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.value
}

// Set replaces the current value and notifies subscribers.
func (v *Value[T]) Set(value T) {
	v.mu.Lock()
	v.value = value
	subs := v.snapshot()
	v.mu.Unlock()

	for _, fn := range subs {
		fn(value)
	}
}

// Update replaces the current value with fn applied to it and notifies subscribers.
func (v *Value[T]) Update(fn func(T) T) {
	v.mu.Lock()
	v.value = fn(v.value)
	value := v.value
	subs := v.snapshot()
	v.mu.Unlock()

	for _, sub := range subs {
		sub(value)
	}
}

// Subscribe registers fn to be called on every change. The returned function removes it.
func (v *Value[T]) Subscribe(fn func(T)) func() {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.nextID
	v.nextID++
	v.subs[id] = fn

	return func() {
		v.mu.Lock()
		defer v.mu.Unlock()

		delete(v.subs, id)
	}
}

// snapshot returns the subscribers in registration order. Callers must hold the lock.
func (v *Value[T]) snapshot() []func(T) {
	subs := make([]func(T), 0, len(v.subs))

	for id := 0; id < v.nextID; id++ {
		if fn, ok := v.subs[id]; ok {
			subs = append(subs, fn)
		}
	}

	return subs
}
