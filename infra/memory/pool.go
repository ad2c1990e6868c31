package memory

import "sync"

// Reclaimable is the contract a pooled object must satisfy to flow through
// the retire stack: it carries the epoch at which it was retired and can be
// wiped before reuse.
type Reclaimable interface {
	Reset()
	RetireEpoch() uint64
	SetRetireEpoch(uint64)
}

// Pool is a typed object pool. Objects handed back through Put are wiped
// first so a recycled object never leaks the previous owner's state.
type Pool[T any] struct {
	p *sync.Pool
}

func NewPool[T any](ctor func() *T) *Pool[T] {
	return &Pool[T]{
		p: &sync.Pool{
			New: func() any { return ctor() },
		},
	}
}

func (p *Pool[T]) Get() *T {
	return p.p.Get().(*T)
}

func (p *Pool[T]) Put(v *T) {
	if r, ok := any(v).(Reclaimable); ok {
		r.Reset()
	}
	p.p.Put(v)
}
