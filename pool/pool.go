// pool.go implements a typed object pool with a reset hook.

// Package pool provides a typed object pool with a reset hook.
package pool

import (
	"sync"
)

// ReuseMemory may be switched off to make every Get return a fresh object;
// tests use it to surface use-after-release bugs.
var ReuseMemory = true

type Pool[T any] struct {
	sync.Pool
	ResetFunc func(*T)
}

func NewPool[T any](
	allocFunc func() *T,
	resetFunc func(*T),
) *Pool[T] {
	return &Pool[T]{
		Pool: sync.Pool{
			New: func() any {
				return allocFunc()
			},
		},
		ResetFunc: resetFunc,
	}
}

func (p *Pool[T]) Get() *T {
	if !ReuseMemory {
		return p.Pool.New().(*T)
	}
	return p.Pool.Get().(*T)
}

func (p *Pool[T]) Put(items ...*T) {
	for _, item := range items {
		if p.ResetFunc != nil {
			p.ResetFunc(item)
		}
		if !ReuseMemory {
			continue
		}
		p.Pool.Put(item)
	}
}
