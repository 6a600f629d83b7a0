package util

import (
	"sync"
)

// AtomicEvent is a single-slot mailbox: writers replace the stored value
// without blocking, readers consume at their own pace and only ever see the
// most recent value. Intermediate values are dropped, which is exactly the
// last-write-wins semantics the detector wants for pose, path, light and
// camera-frame updates.
type AtomicEvent[T any] struct {
	mu     sync.Mutex
	value  T
	notify chan struct{} // capacity 1, acts as a dirty flag
}

// NewAtomicEvent creates an empty AtomicEvent.
func NewAtomicEvent[T any]() *AtomicEvent[T] {
	return &AtomicEvent[T]{
		notify: make(chan struct{}, 1),
	}
}

// Send stores event as the latest value. It never blocks; if a notification
// is already pending the value is simply replaced underneath it.
func (ae *AtomicEvent[T]) Send(event T) {
	ae.mu.Lock()
	ae.value = event
	ae.mu.Unlock()

	select {
	case ae.notify <- struct{}{}:
	default:
		// A notification is already pending.
	}
}

// Channel returns the notification channel for use in select statements.
// After a receive, call Value to fetch the latest event.
func (ae *AtomicEvent[T]) Channel() <-chan struct{} {
	return ae.notify
}

// Value returns the latest event sent. The zero value of T is returned when
// nothing has been sent yet.
func (ae *AtomicEvent[T]) Value() T {
	ae.mu.Lock()
	defer ae.mu.Unlock()
	return ae.value
}

// HasPending reports whether a notification is waiting to be consumed.
func (ae *AtomicEvent[T]) HasPending() bool {
	return len(ae.notify) > 0
}
