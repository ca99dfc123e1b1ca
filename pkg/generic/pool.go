// Package generic holds small type-parameterised helpers shared by the
// drawing and storage code.
package generic

import "sync"

// Pool is a typed free list. Values go through reset, when set, on their
// way back in, so Get never hands out state from a previous user.
type Pool[T any] struct {
	free  sync.Pool
	reset func(T)
}

// NewPool creates a pool that calls fresh when it has nothing to reuse.
// reset may be nil.
func NewPool[T any](fresh func() T, reset func(T)) *Pool[T] {
	p := &Pool[T]{reset: reset}
	p.free.New = func() any { return fresh() }
	return p
}

func (p *Pool[T]) Get() T {
	return p.free.Get().(T)
}

func (p *Pool[T]) Put(v T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.free.Put(v)
}

// Borrow runs fn with a pooled value and returns the value afterwards. fn
// must not keep v, or anything aliasing it, once it returns.
func Borrow[T, R any](p *Pool[T], fn func(v T) (R, error)) (R, error) {
	v := p.Get()
	defer p.Put(v)
	return fn(v)
}
