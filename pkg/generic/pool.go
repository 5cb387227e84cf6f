package generic

import "sync"

type Pool[T any] struct {
	pool sync.Pool
}

func NewPool[T any](generate func() T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return generate()
			},
		},
	}
}

func NewHotPool[T any](generate func() T, hotSize int) *Pool[T] {
	p := NewPool[T](generate)
	for i := 0; i < hotSize; i++ {
		p.pool.Put(generate())
	}
	return p
}

func (p *Pool[T]) Get() T {
	return p.pool.Get().(T)
}

func (p *Pool[T]) Put(value T) {
	p.pool.Put(value)
}

// ListPool recycles scratch slices. Released slices are truncated and their
// elements zeroed so pooled buffers never pin the values they held.
type ListPool[T any] struct {
	pool   *Pool[*[]T]
	maxCap int
}

// listPoolWarm covers one nested dispatch without allocating.
const listPoolWarm = 2

// NewListPool creates a pool whose fresh slices start with capacity initCap.
// Slices that grew beyond maxCap are dropped on Release (maxCap <= 0 keeps all).
func NewListPool[T any](initCap, maxCap int) *ListPool[T] {
	return &ListPool[T]{
		pool: NewHotPool(func() *[]T {
			s := make([]T, 0, initCap)
			return &s
		}, listPoolWarm),
		maxCap: maxCap,
	}
}

func (p *ListPool[T]) Obtain() *[]T {
	return p.pool.Get()
}

func (p *ListPool[T]) Release(s *[]T) {
	if s == nil {
		return
	}
	if p.maxCap > 0 && cap(*s) > p.maxCap {
		return
	}
	clear(*s)
	*s = (*s)[:0]
	p.pool.Put(s)
}
