package memory

import "sync/atomic"

// retired is one entry in the retire stack.
type retired[T any] struct {
	item  T
	epoch uint64
	next  *retired[T]
}

// RetireStack collects objects that have been unlinked from the live
// structures but may still be referenced by concurrently pinned goroutines.
// Push is a Treiber-stack CAS, safe from any number of producers; reclaim is
// expected to run from a single background job.
type RetireStack[T Reclaimable] struct {
	reg  *EpochRegistry
	head atomic.Pointer[retired[T]]
	size atomic.Int64
}

func NewRetireStack[T Reclaimable](reg *EpochRegistry) *RetireStack[T] {
	return &RetireStack[T]{reg: reg}
}

// Push retires an object, stamping it with the current epoch.
func (s *RetireStack[T]) Push(item T) {
	item.SetRetireEpoch(s.reg.Current())
	n := &retired[T]{item: item}
	for {
		h := s.head.Load()
		n.next = h
		if s.head.CompareAndSwap(h, n) {
			s.size.Add(1)
			return
		}
	}
}

// Len is a diagnostic count of objects awaiting reclamation.
func (s *RetireStack[T]) Len() int { return int(s.size.Load()) }

// Reclaim advances the epoch and hands every object that can no longer be
// reached by a pinned goroutine to put. An object is safe two full epochs
// after its retirement: any pin taken since then postdates every live
// reference to it. Unsafe objects are pushed back for a later pass. Returns
// the number of objects reclaimed.
func (s *RetireStack[T]) Reclaim(put func(T)) int {
	s.reg.Advance()
	min := s.reg.MinPinned()

	// Detach the whole stack; concurrent pushes build a fresh one.
	top := s.head.Swap(nil)
	reclaimed := 0
	for n := top; n != nil; {
		next := n.next
		if safe(n.item.RetireEpoch(), min) {
			put(n.item)
			reclaimed++
			s.size.Add(-1)
		} else {
			s.pushNode(n)
		}
		n = next
	}
	return reclaimed
}

func safe(retireEpoch, minPinned uint64) bool {
	if minPinned == idle {
		return true
	}
	return retireEpoch+2 <= minPinned
}

func (s *RetireStack[T]) pushNode(n *retired[T]) {
	for {
		h := s.head.Load()
		n.next = h
		if s.head.CompareAndSwap(h, n) {
			return
		}
	}
}
