package bus

import (
	"context"
	"errors"
	"reflect"
	"sync"
)

var ErrAlreadyWaiting = errors.New("bus: already waiting for this type")

// Monitor parks one waiter per payload type until a matching Notify.
type Monitor struct {
	mu      sync.Mutex
	waiters map[reflect.Type]chan any
}

func NewMonitor() *Monitor {
	return &Monitor{waiters: make(map[reflect.Type]chan any)}
}

// Wait blocks until Notify[T] is called or ctx is done.
func Wait[T any](ctx context.Context, m *Monitor) (T, error) {
	var zero T
	mt := reflect.TypeFor[T]()

	m.mu.Lock()
	if _, busy := m.waiters[mt]; busy {
		m.mu.Unlock()
		return zero, ErrAlreadyWaiting
	}
	ch := make(chan any, 1)
	m.waiters[mt] = ch
	m.mu.Unlock()

	select {
	case v := <-ch:
		out, _ := v.(T)
		return out, nil
	case <-ctx.Done():
		m.mu.Lock()
		if m.waiters[mt] == ch {
			delete(m.waiters, mt)
		}
		m.mu.Unlock()
		// A Notify may have won the race against cancellation.
		select {
		case v := <-ch:
			out, _ := v.(T)
			return out, nil
		default:
		}
		return zero, ctx.Err()
	}
}

// Notify wakes the waiter of T with v. It reports whether anyone was waiting.
func Notify[T any](m *Monitor, v T) bool {
	mt := reflect.TypeFor[T]()
	m.mu.Lock()
	ch, ok := m.waiters[mt]
	if ok {
		delete(m.waiters, mt)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	ch <- v
	return true
}

// Waiting reports whether a waiter is parked on T.
func Waiting[T any](m *Monitor) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.waiters[reflect.TypeFor[T]()]
	return ok
}
