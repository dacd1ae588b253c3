// Package observe provides the change-notification hook shared by the per-instance stores.
package observe

import "sync"

type entry[T any] struct {
	id int
	fn func(T)
}

// Listeners is an ordered set of callbacks. The zero value is ready to use.
type Listeners[T any] struct {
	mu      sync.Mutex
	next    int
	entries []entry[T]
}

// Add registers fn and returns a function that removes it. Removal is idempotent.
func (l *Listeners[T]) Add(fn func(T)) func() {
	if fn == nil {
		return func() {}
	}
	l.mu.Lock()
	id := l.next
	l.next++
	l.entries = append(l.entries, entry[T]{id: id, fn: fn})
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { l.remove(id) })
	}
}

func (l *Listeners[T]) remove(id int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.entries {
		if e.id == id {
			l.entries = append(l.entries[:i:i], l.entries[i+1:]...)
			return
		}
	}
}

// Len reports the number of registered listeners.
func (l *Listeners[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Notify calls every listener in registration order with v.
// Callers must not hold their own locks while notifying.
func (l *Listeners[T]) Notify(v T) {
	l.mu.Lock()
	fns := make([]func(T), len(l.entries))
	for i, e := range l.entries {
		fns[i] = e.fn
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
